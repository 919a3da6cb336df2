package browse

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/regforge/regforge/pkg/layout"
	"github.com/regforge/regforge/pkg/resolve"
	"github.com/regforge/regforge/pkg/svd"
)

const timerDoc = `
name: CHIP
peripherals:
  - name: TIMER0
    groupName: TIMER
    description: General purpose timer
    baseAddress: 0x40000000
    registers:
      - name: CTRL
        description: Control
        addressOffset: 0x0
        fields:
          - name: EN
            description: Enable
            bitOffset: 0
          - name: MODE
            description: Mode
            bitRange: "[2:1]"
            enumeratedValues:
              - values:
                  - name: ONESHOT
                    value: 0
                  - name: PERIODIC
                    value: 1
                    description: Reload on expiry
                  - name: OTHER
                    isDefault: true
      - name: STATUS
        description: Status
        addressOffset: 0x4
        access: read-only
`

func load(t *testing.T) (*svd.Device, *resolve.Resolver, *resolve.Peripheral) {
	t.Helper()
	dev, err := svd.ParseYAML([]byte(timerDoc))
	require.NoError(t, err)
	r := resolve.New(dev)
	p, err := r.Peripheral("TIMER0")
	require.NoError(t, err)
	return dev, r, p
}

func TestPattern(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"uart", "[Uu][Aa][Rr][Tt]"},
		{"a.b", `[Aa]\.[Bb]`},
		{"0x1", "0[Xx]1"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Pattern(tt.in).String(), tt.in)
	}

	re := Pattern("Uart")
	assert.True(t, re.MatchString("LPUART1"))
	assert.True(t, re.MatchString("uart"))
	assert.False(t, re.MatchString("usart"))
}

func TestMatch(t *testing.T) {
	_, _, p := load(t)

	tests := []struct {
		pattern      string
		names        bool
		descriptions bool
	}{
		{"timer0", true, true},
		{"TIMER", true, true},
		{"status", true, true},
		{"mode", true, true},
		{"periodic", true, true},
		{"reload", false, true},
		{"enable", false, true},
		{"control", false, true},
		{"general", false, true},
		{"nothing", false, false},
	}
	for _, tt := range tests {
		re := Pattern(tt.pattern)
		assert.Equal(t, tt.names, Match(re, p, SearchOptions{}), "%s by name", tt.pattern)
		assert.Equal(t, tt.descriptions, Match(re, p, SearchOptions{Descriptions: true}), "%s with descriptions", tt.pattern)
	}
}

func TestRenderVerbosity(t *testing.T) {
	_, _, p := load(t)

	head := "TIMER0 (TIMER) (0x40000000): General purpose timer"
	ctrl := "  - CTRL   (+0x0000): read-write - Control"
	status := "  - STATUS (+0x0004): read-only - Status"
	en := "      - EN   :     0 - Enable"
	mode := "      - MODE :   1-2 - Mode"
	pad := strings.Repeat(" ", 20)

	tests := []struct {
		verbosity int
		want      []string
	}{
		{VerbosityPeripheral, []string{head}},
		{VerbosityRegisters, []string{head, ctrl, status}},
		{VerbosityFields, []string{head, ctrl, en, mode, "", status}},
		{VerbosityValues, []string{
			head, ctrl, en, mode,
			pad + " + ONESHOT (0)",
			pad + " + PERIODIC (1) Reload on expiry",
			pad + " + OTHER (DEFAULT)",
			"", status,
		}},
	}
	for _, tt := range tests {
		got := Render(p, RenderOptions{Verbosity: tt.verbosity})
		assert.Equal(t, strings.Join(tt.want, "\n"), got, "verbosity %d", tt.verbosity)
	}
}

func TestRenderColorAndHighlight(t *testing.T) {
	_, _, p := load(t)

	got := Render(p, RenderOptions{Color: true, Highlight: Pattern("tim")})
	want := "\x1b[1m\x1b[1;33mTIM\x1b[0m\x1b[1mER0\x1b[0m" +
		" (\x1b[1;33mTIM\x1b[0mER)" +
		" (0x40000000): General purpose \x1b[1;33mtim\x1b[0mer"
	assert.Equal(t, want, got)

	// Without colour the highlight has no effect.
	plain := Render(p, RenderOptions{Highlight: Pattern("tim")})
	assert.Equal(t, "TIMER0 (TIMER) (0x40000000): General purpose timer", plain)
}

func TestRenderRegister(t *testing.T) {
	_, _, p := load(t)

	got := RenderRegister(p.Register("CTRL"), RenderOptions{})
	lines := strings.Split(got, "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "  - CTRL (+0x0000): read-write - Control", lines[0])
	assert.Contains(t, lines[5], "+ OTHER (DEFAULT)")
}

func TestParsePath(t *testing.T) {
	p, err := ParsePath(" TIMER0/CTRL/MODE ")
	require.NoError(t, err)
	assert.Equal(t, "TIMER0", p.Peripheral)
	assert.Equal(t, "CTRL", p.Register)
	assert.Equal(t, "MODE", p.Field)
	assert.False(t, p.IsPartial())
	assert.Equal(t, "TIMER0/CTRL/MODE", p.String())

	p, err = ParsePath("timer0.ctrl")
	require.NoError(t, err)
	assert.True(t, p.IsPartial())
	assert.Equal(t, "timer0/ctrl", p.String())

	_, err = ParsePath("   ")
	assert.ErrorIs(t, err, ErrEmptyPath)

	for _, in := range []string{"/TIMER0", "TIMER0//CTRL", "A/B/C/D", "A/"} {
		_, err := ParsePath(in)
		assert.ErrorIs(t, err, ErrInvalidPath, in)
	}
}

func TestLookup(t *testing.T) {
	dev, r, _ := load(t)

	path, err := ParsePath("timer0/ctrl/mode")
	require.NoError(t, err)
	target, err := Lookup(r, dev, path)
	require.NoError(t, err)
	assert.Equal(t, "TIMER0", target.Peripheral.Name)
	assert.Equal(t, "CTRL", target.Register.Name)
	assert.Equal(t, "MODE", target.Field.Name)

	path, _ = ParsePath("TIMER0")
	target, err = Lookup(r, dev, path)
	require.NoError(t, err)
	assert.Nil(t, target.Register)

	for _, in := range []string{"UART", "TIMER0/DATA", "TIMER0/CTRL/FOO"} {
		path, _ := ParsePath(in)
		_, err := Lookup(r, dev, path)
		assert.ErrorIs(t, err, ErrNotFound, in)
	}
}

func TestDecode(t *testing.T) {
	_, _, p := load(t)
	ctrl := p.Register("CTRL")

	fields, reserved, err := Decode(ctrl, 0x3)
	require.NoError(t, err)
	require.Len(t, fields, 2)
	assert.Equal(t, uint64(0), reserved)
	assert.Equal(t, uint64(1), fields[0].Raw)
	assert.Equal(t, "", fields[0].Name)
	assert.Equal(t, uint64(1), fields[1].Raw)
	assert.Equal(t, "PERIODIC", fields[1].Name)
	assert.Equal(t, "CTRL = 0x00000003\n  EN   = true\n  MODE = 1 PERIODIC", FormatDecoded(ctrl, 0x3, fields, reserved))

	fields, reserved, err = Decode(ctrl, 0x80000005)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x80000000), reserved)
	assert.Equal(t, "OTHER", fields[1].Name)
	assert.Contains(t, FormatDecoded(ctrl, 0x80000005, fields, reserved), "(reserved bits set: 0x80000000)")

	_, _, err = Decode(ctrl, 1<<32)
	assert.ErrorIs(t, err, layout.ErrValueOverflow)
}

func TestFormatDecodedPadsToRegisterSize(t *testing.T) {
	for _, tt := range []struct {
		size uint64
		want string
	}{
		{8, "DATA = 0x05"},
		{16, "DATA = 0x0005"},
		{32, "DATA = 0x00000005"},
		{64, "DATA = 0x0000000000000005"},
	} {
		r := &resolve.Register{Name: "DATA", Size: tt.size}
		assert.Equal(t, tt.want, FormatDecoded(r, 5, nil, 0))
	}
}

func TestFormatValue(t *testing.T) {
	wide := layout.Field{Name: "PRESC", Width: 8}
	bit := layout.Field{Name: "EN", Width: 1, SingleBit: true}

	assert.Equal(t, "false", FormatValue(FieldValue{Field: bit, Raw: 0}))
	assert.Equal(t, "7", FormatValue(FieldValue{Field: wide, Raw: 7}))
	assert.Equal(t, "200 (0xc8)", FormatValue(FieldValue{Field: wide, Raw: 200}))
	assert.Equal(t, "1 FAST", FormatValue(FieldValue{Field: bit, Raw: 1, Name: "FAST"}))
}
