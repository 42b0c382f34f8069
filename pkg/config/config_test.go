package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vulntor/fabricscan/pkg/extract"
	"github.com/vulntor/fabricscan/pkg/section"
)

func newTestFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("profile", "brocade_supportshow", "")
	fs.Int("workers", 0, "")
	fs.String("log-level", "", "")
	fs.String("output", "table", "")
	return fs
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestManager_LoadDefaults(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.Load(&DefaultSource{}))

	cfg := m.Get()
	assert.Equal(t, DefaultConfig().Log, cfg.Log)
	assert.Equal(t, "brocade_supportshow", cfg.Parse.Profile)
	assert.Equal(t, "windows-1252", cfg.Parse.Charset)
	assert.Empty(t, cfg.Sections)
}

func TestManager_PrecedenceFileEnvFlags(t *testing.T) {
	path := writeFile(t, `
log:
  level: info
parse:
  profile: hpe_3par
  workers: 2
  trace_file: /tmp/trace.jsonl
`)
	t.Setenv("FABRICSCAN_PARSE_WORKERS", "6")
	t.Setenv("FABRICSCAN_PARSE_MAX_LINE_SIZE", "4096")

	flags := newTestFlagSet()
	require.NoError(t, flags.Parse([]string{"--log-level", "error"}))

	m := NewManager()
	require.NoError(t, m.Load(DefaultSources(path, true, flags, false)...))

	cfg := m.Get()
	assert.Equal(t, "error", cfg.Log.Level, "changed flag wins")
	assert.Equal(t, "hpe_3par", cfg.Parse.Profile, "unchanged flag default does not override the file")
	assert.Equal(t, 6, cfg.Parse.Workers, "env overrides file")
	assert.Equal(t, 4096, cfg.Parse.MaxLineSize)
	assert.Equal(t, "/tmp/trace.jsonl", cfg.Parse.TraceFile)
	assert.NotContains(t, m.All(), "output", "non-config flags are ignored")
}

func TestManager_DebugOverridesLevel(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.Load(&DefaultSource{}, &FlagSource{Debug: true}))
	assert.Equal(t, "debug", m.Get().Log.Level)
}

func TestManager_SourcesAppliedByPriority(t *testing.T) {
	path := writeFile(t, "parse:\n  profile: hpe_3par\n")
	m := NewManager()
	// Declared out of order on purpose.
	require.NoError(t, m.Load(&FileSource{Path: path}, &DefaultSource{}))
	assert.Equal(t, "hpe_3par", m.Get().Parse.Profile)
}

func TestManager_Sections(t *testing.T) {
	path := writeFile(t, `
sections:
  - name: licenses
    start: licenseshow_start
    stop: fabos_section_end
    extract: license_line
    kind: single
    skip_header: false
  - name: fabric
    start: fabricshow_start
    extract: fabric_row
    kind: list
`)
	m := NewManager()
	require.NoError(t, m.Load(&DefaultSource{}, &FileSource{Path: path}))

	cfg := m.Get()
	require.Len(t, cfg.Sections, 2)
	assert.Equal(t, section.KindSingle, cfg.Sections[0].Kind)
	assert.Equal(t, extract.SkipLast, cfg.Sections[0].Policy)
	assert.Equal(t, "fabric_row", cfg.Sections[1].Extract)
}

func TestManager_InvalidConfigKeepsPrevious(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.Load(&DefaultSource{}))

	tests := []struct {
		name string
		yaml string
	}{
		{"bad level", "log:\n  level: chatty\n"},
		{"negative workers", "parse:\n  workers: -1\n"},
		{"bad format", "log:\n  format: xml\n"},
		{"section without start", "sections:\n  - name: x\n"},
		{"sections not a list", "sections: yes\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := m.Load(&DefaultSource{}, &FileSource{Path: writeFile(t, tt.yaml)})
			require.ErrorIs(t, err, ErrInvalidConfig)
			assert.Equal(t, "warn", m.Get().Log.Level)
		})
	}
}

func TestFileSource(t *testing.T) {
	k := koanf.New(".")
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	assert.NoError(t, (&FileSource{}).Load(k))
	assert.NoError(t, (&FileSource{Path: missing}).Load(k))
	assert.Error(t, (&FileSource{Path: missing, Required: true}).Load(k))
	assert.Error(t, (&FileSource{Path: writeFile(t, "log: [unclosed")}).Load(k))
}

func TestEnvSource_KeyMapping(t *testing.T) {
	t.Setenv("FABRICSCAN_LOG_LEVEL", "info")
	t.Setenv("FABRICSCAN_CATALOG_SIGNATURES", "/etc/rules.yaml")
	t.Setenv("OTHER_LOG_LEVEL", "debug")

	k := koanf.New(".")
	require.NoError(t, (&EnvSource{}).Load(k))
	assert.Equal(t, "info", k.String("log.level"))
	assert.Equal(t, "/etc/rules.yaml", k.String("catalog.signatures"))
}

func TestDefaultConfigPath(t *testing.T) {
	if p := DefaultConfigPath(); p != "" {
		assert.Equal(t, "config.yaml", filepath.Base(p))
	}
}
