package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/regforge/regforge/pkg/emit"
	"github.com/regforge/regforge/pkg/layout"
	"github.com/regforge/regforge/pkg/log"
	"github.com/regforge/regforge/pkg/naming"
	"github.com/regforge/regforge/pkg/resolve"
	"github.com/regforge/regforge/pkg/svd"
)

const chipDoc = `
name: CHIP
peripherals:
  - name: TIMER0
    baseAddress: 0x40000000
    registers:
      - name: CTRL
        addressOffset: 0x0
        fields:
          - name: EN
            bitOffset: 0
  - name: UART0
    baseAddress: 0x40001000
    registers:
      - name: DATA
        addressOffset: 0x0
        size: 8
  - name: BAD
    baseAddress: 0x40002000
    registers:
      - name: CR
        addressOffset: 0x0
        fields:
          - name: A
            bitRange: "[3:0]"
          - name: B
            bitRange: "[5:2]"
  - name: BROKEN
    derivedFrom: MISSING
    baseAddress: 0x40003000
`

type stubLogger struct{ mock.Mock }

func (s *stubLogger) Log(e log.Event) { s.Called(e) }

func (s *stubLogger) events() []log.Event {
	var out []log.Event
	for _, c := range s.Calls {
		out = append(out, c.Arguments.Get(0).(log.Event))
	}
	return out
}

func (s *stubLogger) kinds() []log.Kind {
	var out []log.Kind
	for _, e := range s.events() {
		out = append(out, e.Kind)
	}
	return out
}

func newStubLogger() *stubLogger {
	s := &stubLogger{}
	s.On("Log", mock.Anything).Return()
	return s
}

func parseDoc(t *testing.T, doc string) *svd.Device {
	t.Helper()
	dev, err := svd.ParseYAML([]byte(doc))
	require.NoError(t, err)
	return dev
}

func newGenerator(t *testing.T, doc string, cfg Config) *Generator {
	t.Helper()
	g, err := New(parseDoc(t, doc), cfg)
	require.NoError(t, err)
	return g
}

func TestSelectPrefersExactMatch(t *testing.T) {
	peripherals := func(names ...string) *svd.Device {
		dev := &svd.Device{Name: "CHIP"}
		for _, n := range names {
			dev.Peripherals = append(dev.Peripherals, &svd.Peripheral{Name: n})
		}
		return dev
	}

	tests := []struct {
		name    string
		dev     *svd.Device
		pattern string
		want    string
	}{
		{"exact wins over earlier substring", peripherals("UART0", "UART1", "UART"), "uart", "UART"},
		{"first substring in declaration order", peripherals("SPI", "UART0", "UART1"), "uart", "UART0"},
		{"case insensitive exact", peripherals("Timer", "TIMER1"), "TIMER", "Timer"},
		{"substring in the middle", peripherals("GPIOA", "LPUART1"), "uart", "LPUART1"},
		{"no match", peripherals("UART0", "UART1"), "spi", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Select(tt.dev, tt.pattern)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Name)
		})
	}
}

func TestMatching(t *testing.T) {
	dev := parseDoc(t, chipDoc)

	var names []string
	for _, p := range Matching(dev, "r") {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"TIMER0", "UART0", "BROKEN"}, names)
	assert.Len(t, Matching(dev, ""), 4)
}

func TestGenerateBaseAddressTable(t *testing.T) {
	g := newGenerator(t, chipDoc, Config{})

	res, err := g.Generate(Selector{All: true})
	require.NoError(t, err)

	assert.False(t, res.NoMatch)
	assert.Empty(t, res.Peripheral)
	require.Len(t, res.Units, 4)
	var names []string
	for _, u := range res.Units {
		assert.Equal(t, emit.KindBaseAddress, u.Kind)
		names = append(names, u.Name)
	}
	assert.Equal(t, []string{"Timer0Base", "Uart0Base", "BadBase", "BrokenBase"}, names)
	assert.Contains(t, res.Join(), "const BrokenBase uintptr = 0x40003000")
}

func TestGeneratePeripheral(t *testing.T) {
	g := newGenerator(t, chipDoc, Config{})

	res, err := g.Generate(Selector{Pattern: "timer"})
	require.NoError(t, err)

	assert.Equal(t, "TIMER0", res.Peripheral)
	require.NotEmpty(t, res.Units)
	assert.Equal(t, emit.KindBaseAddress, res.Units[0].Kind)
	assert.Equal(t, emit.KindInstance, res.Units[len(res.Units)-1].Kind)
	assert.Len(t, res.Strings(), len(res.Units))
	assert.Contains(t, res.Join(), "const Timer0Base uintptr = 0x40000000")

	file := res.File("regs")
	assert.True(t, strings.HasPrefix(file, "// Code generated by regforge. DO NOT EDIT."))
	assert.Contains(t, file, "package regs\n")
}

func TestGenerateNoMatch(t *testing.T) {
	events := newStubLogger()
	g := newGenerator(t, chipDoc, Config{EventLogger: events})

	res, err := g.Generate(Selector{Pattern: "spi"})
	require.NoError(t, err)
	assert.True(t, res.NoMatch)
	assert.Empty(t, res.Units)

	got := events.events()
	require.Len(t, got, 2)
	assert.Equal(t, log.KindStart, got[0].Kind)
	assert.Equal(t, "spi", got[0].Start.Selector)
	require.NotNil(t, got[1].Done)
	assert.True(t, got[1].Done.NoMatch)
}

func TestGenerateOverlappingFields(t *testing.T) {
	events := newStubLogger()
	g := newGenerator(t, chipDoc, Config{EventLogger: events})

	res, err := g.Generate(Selector{Pattern: "bad"})
	assert.Nil(t, res)
	require.ErrorIs(t, err, layout.ErrOverlappingFields)

	got := events.events()
	require.Len(t, got, 3)
	failure := got[1]
	assert.Equal(t, log.KindError, failure.Kind)
	assert.Equal(t, log.StageLayout, failure.Stage)
	assert.Equal(t, "BAD", failure.Peripheral)
	require.NotNil(t, failure.Error)
	assert.Equal(t, "CR", failure.Error.Register)
	assert.Equal(t, "A", failure.Error.Field)
	assert.Equal(t, 1, got[2].Done.Failures)
}

func TestGenerateUnresolvedReference(t *testing.T) {
	events := newStubLogger()
	g := newGenerator(t, chipDoc, Config{EventLogger: events})

	_, err := g.Generate(Selector{Pattern: "broken"})
	require.ErrorIs(t, err, resolve.ErrUnresolvedReference)
	assert.Contains(t, err.Error(), "MISSING")

	assert.Equal(t, []log.Kind{log.KindStart, log.KindError, log.KindDone}, events.kinds())
	assert.Equal(t, log.StageResolve, events.events()[1].Stage)
}

func TestGenerateAll(t *testing.T) {
	g := newGenerator(t, chipDoc, Config{Parallel: 2})

	results, err := g.GenerateAll(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, layout.ErrOverlappingFields)
	assert.ErrorIs(t, err, resolve.ErrUnresolvedReference)

	require.Len(t, results, 4)
	var names []string
	for _, r := range results {
		names = append(names, r.Peripheral)
	}
	assert.Equal(t, []string{"TIMER0", "UART0", "BAD", "BROKEN"}, names)

	assert.NoError(t, results[0].Err)
	assert.NotEmpty(t, results[0].Units)
	assert.NoError(t, results[1].Err)
	assert.NotEmpty(t, results[1].Units)
	assert.ErrorIs(t, results[2].Err, layout.ErrOverlappingFields)
	assert.Empty(t, results[2].Units)
	assert.ErrorIs(t, results[3].Err, resolve.ErrUnresolvedReference)
}

func TestGenerateAllMatchesGenerate(t *testing.T) {
	g := newGenerator(t, chipDoc, Config{})

	results, _ := g.GenerateAll(context.Background())
	single, err := g.Generate(Selector{Pattern: "UART0"})
	require.NoError(t, err)
	assert.Equal(t, single.Join(), results[1].Join())
}

func TestGenerateAllCancelled(t *testing.T) {
	g := newGenerator(t, chipDoc, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := g.GenerateAll(ctx)
	require.ErrorIs(t, err, context.Canceled)
	for _, r := range results {
		assert.ErrorIs(t, r.Err, context.Canceled, r.Peripheral)
	}
}

func TestGenerateReportsCollisions(t *testing.T) {
	doc := `
name: CHIP
peripherals:
  - name: P
    baseAddress: 0
    registers:
      - name: CTRL
        addressOffset: 0
        fields:
          - name: X
            bitOffset: 0
          - name: x
            bitOffset: 1
`
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	events := newStubLogger()
	g := newGenerator(t, doc, Config{Logger: logger, EventLogger: events})

	res, err := g.Generate(Selector{Pattern: "p"})
	require.NoError(t, err)
	require.Equal(t, []naming.Collision{
		{Scope: "CTRL", Original: "x", Sanitized: "X", Assigned: "X_2"},
	}, res.Collisions)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "identifier collision", entry["msg"])
	assert.Equal(t, "X_2", entry["assigned"])

	var collisions []log.Event
	for _, e := range events.events() {
		if e.Kind == log.KindCollision {
			collisions = append(collisions, e)
		}
	}
	require.Len(t, collisions, 1)
	assert.Equal(t, "P", collisions[0].Peripheral)
	assert.Equal(t, "X_2", collisions[0].Collision.Assigned)
}

func TestEventsCarryRunID(t *testing.T) {
	events := newStubLogger()
	g := newGenerator(t, chipDoc, Config{
		RunID:       "run-fixed",
		Source:      "chip.yaml",
		Package:     "regs",
		EventLogger: events,
	})
	assert.Equal(t, "run-fixed", g.RunID())

	res, err := g.Generate(Selector{Pattern: "TIMER0"})
	require.NoError(t, err)

	got := events.events()
	require.Len(t, got, len(res.Units)+2)
	for _, e := range got {
		assert.Equal(t, "run-fixed", e.RunID)
		assert.Equal(t, "chip.yaml", e.Source)
		assert.False(t, e.Timestamp.IsZero())
	}
	assert.Equal(t, "regs", got[0].Start.Package)
	assert.Equal(t, 4, got[0].Start.Peripherals)
	assert.Equal(t, len(res.Units), got[len(got)-1].Done.Units)

	unit := got[1]
	assert.Equal(t, log.KindUnit, unit.Kind)
	assert.Equal(t, "BaseAddress", unit.Unit.Kind)
	assert.Equal(t, "Timer0Base", unit.Unit.Name)
}

func TestRunIDDefaultsToUUID(t *testing.T) {
	a := newGenerator(t, chipDoc, Config{})
	b := newGenerator(t, chipDoc, Config{})

	assert.Len(t, a.RunID(), 36)
	assert.NotEqual(t, a.RunID(), b.RunID())
}

func TestGenerateIsDeterministic(t *testing.T) {
	first, err := newGenerator(t, chipDoc, Config{}).Generate(Selector{Pattern: "timer0"})
	require.NoError(t, err)
	for range 5 {
		again, err := newGenerator(t, chipDoc, Config{}).Generate(Selector{Pattern: "timer0"})
		require.NoError(t, err)
		assert.Equal(t, first.Join(), again.Join())
	}
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.NoError(t, Config{}.Validate())

	for _, cfg := range []Config{
		{Package: "1regs"},
		{Package: "my-regs"},
		{Package: "_"},
		{Parallel: -1},
	} {
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig, "%+v", cfg)
	}

	_, err := New(&svd.Device{}, Config{Package: "bad pkg"})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
