package dump

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vulntor/fabricscan/pkg/classify"
	"github.com/vulntor/fabricscan/pkg/cursor"
	"github.com/vulntor/fabricscan/pkg/pattern"
	"github.com/vulntor/fabricscan/pkg/section"
)

const supportshow = `supportshow capture
/fabos/cliexec/version :
Kernel:     2.6.34.6
Fabric OS:  v8.2.1c
Made on:    Fri Jun 14 19:52:27 2019
BootProm:
*************
/fabos/cliexec/chassisshow :
Chassis Backplane Revision: 1F
Serial Num:     ABC1234X
*************
/fabos/cliexec/ipaddrshow :
SWITCH
Ethernet IP Address: 10.20.30.40
Ethernet Subnetmask: 255.255.255.0
*************
/fabos/cliexec/switchshow :
switchName:	sw01
switchType:	109.1
switchState:	Online
switchWwn:	10:00:00:05:1e:aa:bb:cc

Index Port Address Media Speed State     Proto
==================================================
  0   0   010000   id    N8   Online      FC  F-Port  50:01:43:80:12:34:56:78
  1   1   010100   id    N8   No_Light    FC
*************
/fabos/cliexec/nsshow :
{
 Type Pid    COS     PortName                NodeName                 TTL(sec)
 N    010000;    3;20:01:00:11:0d:34:9a:00;20:00:00:11:0d:34:9a:00; na
    PortSymb: [30] "3PAR_8200 - 1234567 - 0:1:1"
    NodeSymb: [41] "3PAR_8200, Serial 1234567, Node FW 3.3.1"
 N    010100;    3;10:00:00:00:c9:aa:bb:cc;20:00:00:00:c9:aa:bb:cc; na
    NodeSymb: [30] "unknown thing"
The Local Name Server has 2 entries }
*************
`

const threePar = `cli% showsys -d
-------------------------General-------------------------
System Name          : s1234
System Model         : HPE 3PAR 8200
Serial Number        : 1234567
Nodes                : 2
cli% showport
N:S:P      Mode State ----Node_WWN---- -Port_WWN/HW_Addr- Type Protocol Label Partner FailoverState
0:0:1 initiator ready 2FF70002AC012345 20010002AC012345 disk SAS DP-1 - -
0:1:1    target ready 2FF70002AC012345 20110002AC012345 host FC - 1:1:1 none
------------------------------------------------------------------------------------------------
  2
cli% shownode
                                                            Control    Data        Cache
Node --Name--- -State- Master InCluster -Service_LED ---LED--- Mem(MB) Mem(MB) Available(%)
   0 1234567-0 OK      Yes    Yes       Off          GreenBlnk   65536   16384          100
   1 1234567-1 OK      No     Yes       Off          GreenBlnk   65536   16384          100
cli% exit
`

func builtins(t *testing.T) (*pattern.Registry, *classify.Cascade) {
	t.Helper()
	reg, err := pattern.Builtin()
	require.NoError(t, err)
	cascade, err := classify.Builtin(reg)
	require.NoError(t, err)
	return reg, cascade
}

func newParser(t *testing.T, profile string, opts ...Option) *Parser {
	t.Helper()
	reg, cascade := builtins(t)
	p, err := NewParser(reg, cascade, profile, opts...)
	require.NoError(t, err)
	return p
}

func TestProfiles(t *testing.T) {
	names, err := Profiles()
	require.NoError(t, err)
	assert.Equal(t, []string{"brocade_supportshow", "hpe_3par"}, names)

	prof, err := LookupProfile("hpe_3par")
	require.NoError(t, err)
	require.NotNil(t, prof.Key)
	assert.Equal(t, "Serial Number", prof.Key.Field)

	_, err = LookupProfile("cisco_mds")
	require.ErrorIs(t, err, ErrUnknownProfile)
}

func TestParseProfiles_Rejects(t *testing.T) {
	const sections = `
    sections:
      - name: system
        start: showsys_start
        kind: single`

	tests := []struct {
		name string
		data string
		want string
	}{
		{"malformed yaml", "version: [", "failed to parse profiles"},
		{"missing version", "profiles:\n  - name: a" + sections, "profile validation"},
		{"bad version", "version: one\nprofiles:\n  - name: a" + sections, `profiles version "one"`},
		{"no sections", "version: 1.0.0\nprofiles:\n  - name: a", "profile validation"},
		{"duplicate name", "version: 1.0.0\nprofiles:\n  - name: a" + sections + "\n  - name: a" + sections, `profile "a" declared twice`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseProfiles([]byte(tt.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	set, err := parseProfiles([]byte("version: 1.0.0\nprofiles:\n  - name: a" + sections))
	require.NoError(t, err)
	assert.Contains(t, set, "a")
}

func TestParse_Supportshow(t *testing.T) {
	p := newParser(t, "brocade_supportshow", WithWorkers(2))

	rep, err := p.Parse(context.Background(), "sw01.txt", strings.NewReader(supportshow))
	require.NoError(t, err)
	assert.Equal(t, []string{"version", "chassis", "ipaddr", "switch", "ports", "nsshow"}, rep.Order)
	assert.Empty(t, rep.Truncated)
	require.NotNil(t, rep.Key)
	assert.Equal(t, "10:00:00:05:1e:aa:bb:cc", *rep.Key)

	version := rep.Sections["version"]
	assert.Equal(t, "v8.2.1c", *version.Fields["Fabric OS"])
	assert.Nil(t, version.Fields["BootProm"])

	assert.Equal(t, []string{"10.20.30.40"}, rep.Sections["ipaddr"].Values)

	ports := rep.Sections["ports"].Records
	require.Len(t, ports, 2)
	assert.Equal(t, "sw01.txt", *ports[0][0])
	assert.Equal(t, "F-Port", *ports[0][8])
	assert.Nil(t, ports[1][8])

	require.Len(t, rep.NameServer, 2)
	array := rep.NameServer[0].Device
	assert.Equal(t, "8200", *array.DeviceModel)
	assert.Equal(t, "0:1:1", *array.DevicePort)
	assert.Equal(t, "unknown thing", *rep.NameServer[1].Device.DeviceName)

	require.NotNil(t, rep.Coverage)
	assert.Equal(t, 1, rep.Coverage.NodeClassified)
	assert.Equal(t, 1, rep.Coverage.Unclassified)
}

func TestParse_ThreePar(t *testing.T) {
	p := newParser(t, "hpe_3par")

	rep, err := p.Parse(context.Background(), "s1234.log", strings.NewReader(threePar))
	require.NoError(t, err)
	assert.Equal(t, []string{"showsys", "showport", "shownode"}, rep.Order)
	assert.Equal(t, "1234567", *rep.Key)
	assert.Equal(t, "HPE 3PAR 8200", *rep.Sections["showsys"].Fields["System Model"])

	showport := rep.Sections["showport"].Records
	require.Len(t, showport, 2)
	assert.Equal(t, []string{"s1234.log", "0:1:1", "target", "ready", "2FF70002AC012345", "20110002AC012345", "host", "FC", "-", "1:1:1", "none"}, showport[1].Strings())

	assert.Len(t, rep.Sections["shownode"].Records, 2)
	assert.Empty(t, rep.NameServer)
	assert.Nil(t, rep.Coverage)
}

func TestParse_TruncatedIsReportedNotFatal(t *testing.T) {
	p := newParser(t, "brocade_supportshow")
	cut := supportshow[:strings.Index(supportshow, "The Local Name Server")]

	rep, err := p.Parse(context.Background(), "cut.txt", strings.NewReader(cut))
	require.NoError(t, err)
	assert.Equal(t, []string{"nsshow"}, rep.Truncated)
	assert.Len(t, rep.NameServer, 2)
}

func TestParse_ReadErrorFails(t *testing.T) {
	p := newParser(t, "hpe_3par", WithCursorOptions(cursor.WithMaxLineSize(32)))

	_, err := p.Parse(context.Background(), "long.log", strings.NewReader(threePar))
	require.ErrorIs(t, err, ErrRead)
	assert.Equal(t, "READ_FAILED", ErrorCode(err))
}

func TestParse_WithoutCascade(t *testing.T) {
	reg, _ := builtins(t)
	p, err := NewParser(reg, nil, "brocade_supportshow")
	require.NoError(t, err)

	rep, err := p.Parse(context.Background(), "sw01.txt", strings.NewReader(supportshow))
	require.NoError(t, err)
	require.Len(t, rep.NameServer, 2)
	assert.False(t, rep.NameServer[0].Device.Classified())
	assert.Nil(t, rep.Coverage)
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "array.log")
	require.NoError(t, os.WriteFile(path, []byte(threePar), 0o644))
	p := newParser(t, "hpe_3par")

	rep, err := p.ParseFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "array.log", rep.Source)
	assert.Equal(t, 18, rep.Lines)

	_, err = p.ParseFile(context.Background(), filepath.Join(dir, "missing.log"))
	require.ErrorIs(t, err, ErrRead)
}

func TestNewParser_ConfigurationErrors(t *testing.T) {
	reg, cascade := builtins(t)

	_, err := NewParser(reg, cascade, "nope")
	require.ErrorIs(t, err, ErrUnknownProfile)
	assert.Equal(t, 2, ExitCode(err))

	_, err = NewParser(reg, cascade, "hpe_3par", WithSections(section.Spec{
		Name: "licenses", Start: "licenseshow_start", Extract: "colon_key_value", Kind: section.KindKeyValue,
	}))
	require.ErrorIs(t, err, pattern.ErrUnknownPattern)
	assert.Equal(t, "PATTERN_UNKNOWN", ErrorCode(err))
	assert.NotEmpty(t, Suggestions(err))

	_, err = NewParser(reg, cascade, "hpe_3par", WithSections(section.Spec{
		Name: "showsys", Start: "cli_showsys_start", Extract: "colon_key_value", Kind: section.KindKeyValue,
	}))
	require.ErrorIs(t, err, section.ErrInvalidSpec)
	assert.Equal(t, 2, ExitCode(err))
}

func TestNewParser_ExtraSection(t *testing.T) {
	p := newParser(t, "hpe_3par", WithSections(section.Spec{
		Name: "ipaddr", Start: "fabos_ipaddrshow_start", Stop: "fabos_section_end", Extract: "ethernet_ip", Kind: section.KindSingle,
	}))

	rep, err := p.Parse(context.Background(), "s1234.log", strings.NewReader(threePar))
	require.NoError(t, err)
	assert.NotContains(t, rep.Order, "ipaddr")
	assert.Equal(t, "hpe_3par", p.Profile())
}

func TestInventory_RejectsDuplicateKey(t *testing.T) {
	p := newParser(t, "hpe_3par")
	inv := NewInventory()

	first, err := p.Parse(context.Background(), "b.log", strings.NewReader(threePar))
	require.NoError(t, err)
	second, err := p.Parse(context.Background(), "a.log", strings.NewReader(threePar))
	require.NoError(t, err)

	require.NoError(t, inv.Add(first))
	err = inv.Add(second)
	require.ErrorIs(t, err, ErrDuplicateKey)

	var dup *DuplicateKeyError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "1234567", dup.Key)
	assert.Equal(t, "b.log", dup.First)
	assert.Equal(t, 3, ExitCode(err))
	assert.Equal(t, 1, inv.Len())

	require.NoError(t, inv.Add(&Report{Source: "nokey-1"}))
	require.NoError(t, inv.Add(&Report{Source: "nokey-0"}))
	reports := inv.Reports()
	require.Len(t, reports, 3)
	assert.Equal(t, "b.log", reports[0].Source)
	assert.Equal(t, "nokey-0", reports[1].Source)
}

func TestInventory_ConcurrentAdd(t *testing.T) {
	inv := NewInventory()
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		dups int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := fmt.Sprintf("serial-%d", i%10)
			if err := inv.Add(&Report{Source: fmt.Sprintf("f%d", i), Key: &key}); err != nil {
				mu.Lock()
				dups++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 10, inv.Len())
	assert.Equal(t, 40, dups)
}

func TestErrorCodes(t *testing.T) {
	assert.Equal(t, "", ErrorCode(nil))
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, "CANCELED", ErrorCode(fmt.Errorf("wrapped: %w", context.Canceled)))
	assert.Equal(t, 130, ExitCode(context.Canceled))
	assert.Equal(t, 1, ExitCode(errors.New("boom")))
	assert.Nil(t, Suggestions(errors.New("boom")))
}
