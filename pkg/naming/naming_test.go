package naming

import (
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShape(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"CTRL", "CTRL"},
		{"CH[%s]", "CH"},
		{"IFCR%s", "IFCR"},
		{"rx-buffer", "rx_buffer"},
		{"a b  c", "a_b_c"},
		{"3V3_EN", "_3V3_EN"},
		{"", "_"},
		{"---", "_"},
		{"Über", "Über"},
		{"٣V3", "_٣V3"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Shape(tt.in)
			assert.Equal(t, tt.want, got)
			assert.True(t, token.IsIdentifier(got), got)
		})
	}
}

func TestWords(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"CTRL", []string{"CTRL"}},
		{"CTRL_A", []string{"CTRL", "A"}},
		{"CtrlA", []string{"Ctrl", "A"}},
		{"CH0", []string{"CH0"}},
		{"HTTPServer", []string{"HTTP", "Server"}},
		{"ADC12Data", []string{"ADC12", "Data"}},
		{"rx-buffer", []string{"rx", "buffer"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Words(tt.in))
		})
	}
}

func TestCaseApply(t *testing.T) {
	tests := []struct {
		in                                string
		pascal, camel, snake, upper, keep string
	}{
		{"TIMER0", "Timer0", "timer0", "timer0", "TIMER0", "TIMER0"},
		{"CH1_CR", "Ch1Cr", "ch1Cr", "ch1_cr", "CH1_CR", "CH1_CR"},
		{"rxReady", "RxReady", "rxReady", "rx_ready", "RX_READY", "rxReady"},
		{"2ND", "_2nd", "_2nd", "_2nd", "_2ND", "_2ND"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.pascal, Pascal.Apply(tt.in))
			assert.Equal(t, tt.camel, Camel.Apply(tt.in))
			assert.Equal(t, tt.snake, Snake.Apply(tt.in))
			assert.Equal(t, tt.upper, UpperSnake.Apply(tt.in))
			assert.Equal(t, tt.keep, Preserve.Apply(tt.in))
		})
	}
}

func TestCaseApplyLeadingUnicodeDigit(t *testing.T) {
	for _, c := range []Case{Pascal, Camel, Snake, UpperSnake, Preserve} {
		got := c.Apply("٣_rail")
		assert.True(t, token.IsIdentifier(got), "%s: %q", c, got)
		assert.Equal(t, "_", got[:1], "%s: %q", c, got)
	}
}

func TestCaseConcat(t *testing.T) {
	assert.Equal(t, "CtrlModeOneshot", Pascal.Concat("Ctrl", "Mode", "Oneshot"))
	assert.Equal(t, "CtrlMode_2Shift", Pascal.Concat("Ctrl", "Mode_2", "Shift"))
	assert.Equal(t, "withMode", Camel.Concat("with", "mode"))
	assert.Equal(t, "ctrl_mode_shift", Snake.Concat("ctrl", "mode", "Shift"))
	assert.Equal(t, "CTRL_MODE_ONESHOT", UpperSnake.Concat("CTRL", "MODE", "oneshot"))
}

func TestParseCase(t *testing.T) {
	for _, c := range []Case{Pascal, Camel, Snake, UpperSnake, Preserve} {
		got, err := ParseCase(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
	got, err := ParseCase("Upper_Snake")
	require.NoError(t, err)
	assert.Equal(t, UpperSnake, got)

	_, err = ParseCase("kebab")
	assert.Error(t, err)
}

func TestScopeSuffixesCollisions(t *testing.T) {
	s := NewScope("TIMER0", Pascal)

	assert.Equal(t, "CtrlA", s.Name("CTRL_A"))
	assert.Equal(t, "CtrlA_2", s.Name("CtrlA"))
	assert.Equal(t, "CtrlA_3", s.Name("ctrl-a"))
	assert.Equal(t, "CtrlA", s.Name("CTRL_A"))
	assert.Equal(t, "Status", s.Name("STATUS"))

	assert.Equal(t, []Collision{
		{Scope: "TIMER0", Original: "CtrlA", Sanitized: "CtrlA", Assigned: "CtrlA_2"},
		{Scope: "TIMER0", Original: "ctrl-a", Sanitized: "CtrlA", Assigned: "CtrlA_3"},
	}, s.Collisions())
}

func TestScopeIsDeterministic(t *testing.T) {
	names := []string{"DATA", "data", "Data", "DATA_", "CTRL", "ctrl"}
	run := func() []string {
		s := NewScope("P", Pascal)
		var out []string
		for _, n := range names {
			out = append(out, s.Name(n))
		}
		return out
	}
	first := run()
	assert.Equal(t, []string{"Data", "Data_2", "Data_3", "Data_4", "Ctrl", "Ctrl_2"}, first)
	assert.Equal(t, first, run())
}

func TestScopeClaimChecksDerivedForms(t *testing.T) {
	s := NewScope("pkg", Pascal)
	value := func(base string) []string { return []string{base + "Value"} }

	assert.Equal(t, "CtrlValue", s.Name("CTRL_VALUE"))
	assert.Equal(t, "Ctrl_2", s.Claim("reg:CTRL", "CTRL", value))
	// A different key with the same description is a separate entity.
	assert.Equal(t, "Ctrl", s.Claim("periph:CTRL", "CTRL", nil))
	require.Len(t, s.Collisions(), 1)
}

func TestScopeReserve(t *testing.T) {
	s := NewScope("CTRL", Pascal)
	s.Reserve("Read", "Write")
	assert.Equal(t, "Read_2", s.Name("READ"))
}
