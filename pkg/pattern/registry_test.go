package pattern

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_CompilesAndInfersArity(t *testing.T) {
	reg, err := Load([]Definition{
		{Name: "kv", Role: RoleFieldExtract, Pattern: `^(.+?)\s*[:=]\s*(.*)$`},
		{Name: "start", Role: RoleSectionStart, Pattern: `^begin$`},
	})
	require.NoError(t, err)
	require.Equal(t, 2, reg.Len())

	kv, err := reg.Get("kv")
	require.NoError(t, err)
	require.Equal(t, 2, kv.Arity())
	require.Equal(t, RoleFieldExtract, kv.Role())
	require.Equal(t, []string{"Foo", ""}, kv.Submatch("Foo : "))
	require.Nil(t, kv.Submatch("no separator here"))
}

func TestLoad_Failures(t *testing.T) {
	tests := []struct {
		name    string
		defs    []Definition
		wantErr error
	}{
		{
			name:    "bad regex",
			defs:    []Definition{{Name: "bad", Role: RoleFieldExtract, Pattern: `(unclosed`}},
			wantErr: ErrInvalidPattern,
		},
		{
			name:    "unknown role",
			defs:    []Definition{{Name: "r", Role: Role("header"), Pattern: `x`}},
			wantErr: ErrInvalidPattern,
		},
		{
			name:    "arity mismatch",
			defs:    []Definition{{Name: "a", Role: RoleListExtract, Pattern: `(a)(b)`, Arity: 3}},
			wantErr: ErrInvalidPattern,
		},
		{
			name:    "empty name",
			defs:    []Definition{{Name: "  ", Role: RoleSectionStop, Pattern: `x`}},
			wantErr: ErrInvalidPattern,
		},
		{
			name: "duplicate",
			defs: []Definition{
				{Name: "dup", Role: RoleSectionStart, Pattern: `a`},
				{Name: "dup", Role: RoleSectionStop, Pattern: `b`},
			},
			wantErr: ErrDuplicateName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, err := Load(tt.defs)
			require.Nil(t, reg)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoad_CompileErrorKeepsCause(t *testing.T) {
	_, err := Load([]Definition{{Name: "bad", Role: RoleFieldExtract, Pattern: `[z-a]`}})
	var invalid *InvalidPatternError
	require.True(t, errors.As(err, &invalid))
	require.Equal(t, "bad", invalid.Name)
	require.Error(t, invalid.Err)
	require.Equal(t, "PATTERN_INVALID", ErrorCode(err))
}

func TestGet_UnknownIsHardFailure(t *testing.T) {
	reg, err := Load([]Definition{{Name: "known", Role: RoleSectionStart, Pattern: `x`}})
	require.NoError(t, err)

	entry, err := reg.Get("knwon")
	require.Nil(t, entry)
	require.ErrorIs(t, err, ErrUnknownPattern)

	var unknown *UnknownPatternError
	require.ErrorAs(t, err, &unknown)
	require.Equal(t, "knwon", unknown.Name)
	require.Equal(t, "PATTERN_UNKNOWN", ErrorCode(err))
}

func TestLookup_ChecksRole(t *testing.T) {
	reg, err := Load([]Definition{
		{Name: "start", Role: RoleSectionStart, Pattern: `^start`},
		{Name: "stop", Role: RoleSectionStop, Pattern: `^stop`},
	})
	require.NoError(t, err)

	entries, err := reg.Lookup(RoleSectionStart, "start")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	_, err = reg.Lookup(RoleSectionStart, "start", "stop")
	require.ErrorIs(t, err, ErrInvalidPattern)

	_, err = reg.Require(RoleSectionStop, "missing")
	require.ErrorIs(t, err, ErrUnknownPattern)
}

func TestParse_Validation(t *testing.T) {
	_, err := Parse([]byte("version: 1.0.0\npatterns: []\n"))
	require.ErrorIs(t, err, ErrInvalidPattern)

	_, err = Parse([]byte("version: not-a-version\npatterns:\n  - name: a\n    role: section_start\n    pattern: x\n"))
	require.ErrorIs(t, err, ErrInvalidPattern)

	_, err = Parse([]byte("patterns:\n  - name: a\n    role: section_start\n    pattern: x\n"))
	require.ErrorIs(t, err, ErrInvalidPattern)

	_, err = Parse([]byte("patterns: [ not yaml"))
	require.Error(t, err)

	cat, err := Parse([]byte("version: 1.0.0\npatterns:\n  - name: a\n    role: section_start\n    pattern: '^a\\s*$'\n"))
	require.NoError(t, err)
	require.Len(t, cat.Patterns, 1)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "patterns.yaml")
	data := []byte("version: 2.1.0\npatterns:\n  - name: ip\n    role: field_extract\n    arity: 1\n    pattern: '^IP:\\s*(\\S+)$'\n")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	reg, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, "2.1.0", reg.Version())
	require.Equal(t, []string{"ip"}, reg.Names())

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}

func TestBuiltin_LoadsEmbeddedCatalog(t *testing.T) {
	reg, err := Builtin()
	require.NoError(t, err)
	require.NotEmpty(t, reg.Version())

	again, err := Builtin()
	require.NoError(t, err)
	require.Same(t, reg, again)

	for _, name := range []string{"colon_key_value", "ns_row", "sig_3par_node_serial", "fabos_section_end"} {
		_, err := reg.Get(name)
		require.NoError(t, err, name)
	}
}

func TestBuiltin_SamplePatterns(t *testing.T) {
	reg, err := Builtin()
	require.NoError(t, err)

	row, err := reg.Get("ns_row")
	require.NoError(t, err)
	got := row.Submatch(" N    010100;      3;20:01:00:11:0d:34:9a:00;20:00:00:11:0d:34:9a:00; na")
	require.Equal(t, []string{"N", "010100", "3", "20:01:00:11:0d:34:9a:00", "20:00:00:11:0d:34:9a:00", "na"}, got)

	ports, err := reg.Get("switchshow_port_row")
	require.NoError(t, err)
	got = ports.Submatch("  2   2   010200   id    N16   No_Light    FC")
	require.Equal(t, "No_Light", got[5])
	require.Equal(t, "", got[7])

	stop, err := reg.Get("fabos_section_end")
	require.NoError(t, err)
	require.True(t, stop.Match("**************************************************"))
	require.True(t, stop.Match("/fabos/cliexec/chassisshow :"))
	require.False(t, stop.Match("Fabric OS:  v8.2.1c"))
}
