package resolve

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/regforge/regforge/pkg/svd"
)

const timers = `
name: CHIP
peripherals:
  - name: TIMER0
    groupName: TIMER
    description: General purpose timer
    baseAddress: 0x40000000
    interrupts:
      - name: TIMER0_IRQ
        value: 3
    registers:
      - name: CTRL
        addressOffset: 0x0
        access: read-write
        resetValue: 0x10
        fields:
          - name: EN
            bitOffset: 0
          - name: MODE
            bitRange: "[3:1]"
            enumeratedValues:
              - name: Mode
                values:
                  - name: ONESHOT
                    value: 0
                  - name: PERIODIC
                    value: 1
                  - name: RESERVED
                    isDefault: true
      - name: STATUS
        addressOffset: 0x4
        access: read-only
        fields:
          - name: MODE
            derivedFrom: CTRL.MODE
      - name: LOAD
        derivedFrom: CTRL
        addressOffset: 0x8
        description: Reload register
  - name: TIMER1
    derivedFrom: TIMER0
    baseAddress: 0x40001000
  - name: TIMER2
    derivedFrom: TIMER1
    description: Low power timer
    baseAddress: 0x40002000
    registers:
      - name: LOAD
        addressOffset: 0x8
        size: 16
`

func loadDevice(t *testing.T, doc string) *svd.Device {
	t.Helper()
	dev, err := svd.ParseYAML([]byte(doc))
	require.NoError(t, err)
	return dev
}

func TestDerivedPeripheralMatchesBase(t *testing.T) {
	r := New(loadDevice(t, timers))

	t0, err := r.Peripheral("TIMER0")
	require.NoError(t, err)
	t1, err := r.Peripheral("TIMER1")
	require.NoError(t, err)

	require.Len(t, t1.Registers, len(t0.Registers))
	ctrl0, ctrl1 := t0.Register("CTRL"), t1.Register("CTRL")
	require.NotNil(t, ctrl1)
	assert.Equal(t, svd.AccessReadWrite, ctrl1.Access)
	assert.Equal(t, uint64(0x40001000), ctrl1.Address)
	assert.Equal(t, ctrl0.Address+0x1000, ctrl1.Address)

	// Identical apart from the address.
	c := *ctrl0
	c.Address = ctrl1.Address
	assert.Equal(t, &c, ctrl1)

	assert.Equal(t, "TIMER", t1.GroupName)
	assert.Equal(t, t0.Interrupts, t1.Interrupts)
}

func TestMultiHopDerivation(t *testing.T) {
	r := New(loadDevice(t, timers))

	t2, err := r.Peripheral("TIMER2")
	require.NoError(t, err)

	assert.Equal(t, "Low power timer", t2.Description)
	assert.Equal(t, "TIMER", t2.GroupName)

	load := t2.Register("LOAD")
	require.NotNil(t, load)
	assert.Equal(t, uint64(16), load.Size)
	// The redeclared register replaces the inherited one entirely.
	assert.Empty(t, load.Fields)
	assert.Empty(t, load.Description)

	require.NotNil(t, t2.Register("CTRL"))
	require.Len(t, t2.Register("STATUS").Fields, 1)
}

func TestRegisterAndFieldDerivation(t *testing.T) {
	r := New(loadDevice(t, timers))
	t0, err := r.Peripheral("TIMER0")
	require.NoError(t, err)

	load := t0.Register("LOAD")
	require.NotNil(t, load)
	assert.Equal(t, uint64(0x8), load.Offset)
	assert.Equal(t, "Reload register", load.Description)
	assert.Equal(t, uint64(0x10), load.ResetValue)
	require.Len(t, load.Fields, 2)
	assert.Equal(t, "MODE", load.Fields[1].Name)

	status := t0.Register("STATUS")
	require.Len(t, status.Fields, 1)
	mode := status.Fields[0]
	assert.Equal(t, uint64(1), mode.Offset)
	assert.Equal(t, uint64(3), mode.Width)
	// Field access falls back to the register, not the field it derives from.
	assert.Equal(t, svd.AccessReadOnly, mode.Access)
	require.NotNil(t, mode.ReadValues)
	assert.Equal(t, "Mode", mode.ReadValues.Name)
}

func TestCascadeDefaults(t *testing.T) {
	doc := `
name: CHIP
size: 16
resetValue: 0xff
peripherals:
  - name: GPIO
    baseAddress: 0x1000
    access: write-only
    registers:
      - name: OUT
        addressOffset: 0x0
      - name: WIDE
        addressOffset: 0x4
        size: 32
        resetMask: 0xffff
`
	r := New(loadDevice(t, doc))
	p, err := r.Peripheral("GPIO")
	require.NoError(t, err)

	out := p.Register("OUT")
	assert.Equal(t, uint64(16), out.Size)
	assert.Equal(t, svd.AccessWriteOnly, out.Access)
	assert.Equal(t, uint64(0xff), out.ResetValue)
	assert.Equal(t, uint64(0xffff), out.ResetMask)

	wide := p.Register("WIDE")
	assert.Equal(t, uint64(32), wide.Size)
	assert.Equal(t, uint64(0xffff), wide.ResetMask)
}

func TestBuiltinDefaults(t *testing.T) {
	doc := `
name: CHIP
peripherals:
  - name: P
    baseAddress: 0
    registers:
      - name: R
        addressOffset: 0
`
	p, err := New(loadDevice(t, doc)).Peripheral("P")
	require.NoError(t, err)

	reg := p.Register("R")
	assert.Equal(t, uint64(DefaultSize), reg.Size)
	assert.Equal(t, svd.AccessReadWrite, reg.Access)
	assert.Equal(t, uint64(0), reg.ResetValue)
	assert.Equal(t, uint64(0xffffffff), reg.ResetMask)
}

func TestClustersAndArrays(t *testing.T) {
	doc := `
name: CHIP
peripherals:
  - name: DMA
    baseAddress: 0x50000000
    registers:
      - name: ISR
        addressOffset: 0x0
      - name: "IFCR%s"
        addressOffset: 0x4
        dim: 2
        dimIndex: "L,H"
    clusters:
      - name: "CH[%s]"
        addressOffset: 0x10
        dim: 2
        dimIncrement: 0x20
        registers:
          - name: CR
            addressOffset: 0x0
          - name: NDTR
            addressOffset: 0x4
            size: 16
`
	p, err := New(loadDevice(t, doc)).Peripheral("DMA")
	require.NoError(t, err)

	var names []string
	for _, reg := range p.Registers {
		names = append(names, fmt.Sprintf("%s@%#x", reg.QualifiedName(), reg.Offset))
	}
	assert.Equal(t, []string{
		"ISR@0x0",
		"IFCRL@0x4",
		"IFCRH@0x8",
		"CH0_CR@0x10",
		"CH0_NDTR@0x14",
		"CH1_CR@0x30",
		"CH1_NDTR@0x34",
	}, names)

	cr := p.Register("CH1_CR")
	assert.Equal(t, []string{"CH1"}, cr.Path)
	assert.Equal(t, uint64(0x50000030), cr.Address)
}

func TestClusterArrayNeedsIncrement(t *testing.T) {
	doc := `
name: CHIP
peripherals:
  - name: P
    baseAddress: 0
    clusters:
      - name: "C%s"
        addressOffset: 0
        dim: 2
        registers:
          - name: R
            addressOffset: 0
`
	_, err := New(loadDevice(t, doc)).Peripheral("P")
	assert.ErrorIs(t, err, ErrIncomplete)
}

func TestDerivationCycle(t *testing.T) {
	doc := `
name: CHIP
peripherals:
  - name: A
    derivedFrom: C
    baseAddress: 0x0
  - name: B
    derivedFrom: A
    baseAddress: 0x100
  - name: C
    derivedFrom: B
    baseAddress: 0x200
`
	_, err := New(loadDevice(t, doc)).Peripheral("A")
	require.ErrorIs(t, err, ErrDerivationCycle)

	var re *Error
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "A -> C -> B -> A", re.Ref)
}

func TestRegisterDerivationCycle(t *testing.T) {
	doc := `
name: CHIP
peripherals:
  - name: P
    baseAddress: 0x0
    registers:
      - name: X
        derivedFrom: Y
        addressOffset: 0
      - name: Y
        derivedFrom: X
        addressOffset: 4
`
	_, err := New(loadDevice(t, doc)).Peripheral("P")
	assert.ErrorIs(t, err, ErrDerivationCycle)
}

func TestUnresolvedReference(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		ref  string
	}{
		{
			name: "peripheral",
			doc: `
name: CHIP
peripherals:
  - name: P
    derivedFrom: NOPE
    baseAddress: 0
`,
			ref: "NOPE",
		},
		{
			name: "register",
			doc: `
name: CHIP
peripherals:
  - name: P
    baseAddress: 0
    registers:
      - name: R
        derivedFrom: MISSING
        addressOffset: 0
`,
			ref: "MISSING",
		},
		{
			name: "enumeration",
			doc: `
name: CHIP
peripherals:
  - name: P
    baseAddress: 0
    registers:
      - name: R
        addressOffset: 0
        fields:
          - name: F
            bitOffset: 0
            enumeratedValues:
              - derivedFrom: Ghost
                values: []
`,
			ref: "Ghost",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(loadDevice(t, tt.doc)).Peripheral("P")
			require.ErrorIs(t, err, ErrUnresolvedReference)
			var re *Error
			require.ErrorAs(t, err, &re)
			assert.Equal(t, tt.ref, re.Ref)
			assert.Equal(t, "P", re.Peripheral)
		})
	}
}

func TestUnknownPeripheral(t *testing.T) {
	_, err := New(loadDevice(t, timers)).Peripheral("WDT")
	assert.ErrorIs(t, err, ErrUnresolvedReference)
}

func TestFieldWithoutRange(t *testing.T) {
	doc := `
name: CHIP
peripherals:
  - name: P
    baseAddress: 0
    registers:
      - name: R
        addressOffset: 0
        fields:
          - name: F
`
	_, err := New(loadDevice(t, doc)).Peripheral("P")
	require.ErrorIs(t, err, ErrIncomplete)
	assert.Contains(t, err.Error(), "P.R.F")
}

func TestFlattenIsIdempotent(t *testing.T) {
	dev := loadDevice(t, timers)
	r := New(dev)

	for _, name := range []string{"TIMER0", "TIMER1", "TIMER2"} {
		t.Run(name, func(t *testing.T) {
			flat, err := r.Flatten(name)
			require.NoError(t, err)
			assert.Empty(t, flat.DerivedFrom)

			again := New(&svd.Device{Name: dev.Name, Peripherals: []*svd.Peripheral{flat}})
			flat2, err := again.Flatten(name)
			require.NoError(t, err)
			assert.Equal(t, flat, flat2)

			want, err := r.Peripheral(name)
			require.NoError(t, err)
			got, err := again.Peripheral(name)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestResolveLeavesDescriptionUntouched(t *testing.T) {
	dev := loadDevice(t, timers)
	before := loadDevice(t, timers)

	_, err := New(dev).Peripheral("TIMER2")
	require.NoError(t, err)
	assert.Equal(t, before, dev)
}

func TestResolveForeignPeripheral(t *testing.T) {
	r := New(loadDevice(t, timers))
	extra := &svd.Peripheral{Name: "TIMER9", DerivedFrom: "TIMER0", BaseAddress: 0x40009000}

	p, err := r.Resolve(extra)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x40009000), p.Register("CTRL").Address)

	_, err = r.Peripheral("TIMER9")
	assert.ErrorIs(t, err, ErrUnresolvedReference)
}

func TestPeripheralCacheIsShared(t *testing.T) {
	r := New(loadDevice(t, timers))

	const workers = 16
	results := make([]*Peripheral, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := r.Peripheral("TIMER2")
			assert.NoError(t, err)
			results[i] = p
		}()
	}
	wg.Wait()

	for _, p := range results[1:] {
		assert.Same(t, results[0], p)
	}
}
