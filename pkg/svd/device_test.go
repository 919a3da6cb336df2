package svd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldRangeForms(t *testing.T) {
	tests := []struct {
		name       string
		field      Field
		wantOffset uint64
		wantWidth  uint64
		wantOK     bool
		wantErr    bool
	}{
		{"offset only", Field{BitOffset: U(3)}, 3, 1, true, false},
		{"offset width", Field{BitOffset: U(4), BitWidth: U(4)}, 4, 4, true, false},
		{"lsb msb", Field{LSB: U(8), MSB: U(15)}, 8, 8, true, false},
		{"msb below lsb", Field{LSB: U(8), MSB: U(7)}, 0, 0, false, true},
		{"pattern", Field{BitRange: "[31:0]"}, 0, 32, true, false},
		{"bad pattern", Field{BitRange: "[7]"}, 0, 0, false, true},
		{"none", Field{}, 0, 0, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			off, width, ok, err := tt.field.Range()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidValue)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantOffset, off)
			assert.Equal(t, tt.wantWidth, width)
		})
	}
}

func TestSetRangeClearsOtherForms(t *testing.T) {
	f := Field{LSB: U(2), MSB: U(5), BitRange: "[5:2]"}
	f.SetRange(2, 4)
	assert.Nil(t, f.LSB)
	assert.Nil(t, f.MSB)
	assert.Empty(t, f.BitRange)
	off, width, ok, err := f.Range()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(2), off)
	assert.Equal(t, uint64(4), width)
}

func TestDimIndices(t *testing.T) {
	tests := []struct {
		name    string
		dim     DimElement
		want    []string
		wantErr bool
	}{
		{"no dim", DimElement{}, nil, false},
		{"implicit", DimElement{Dim: U(3)}, []string{"0", "1", "2"}, false},
		{"range", DimElement{Dim: U(2), DimIndex: "4-5"}, []string{"4", "5"}, false},
		{"list", DimElement{Dim: U(3), DimIndex: "A, B,C"}, []string{"A", "B", "C"}, false},
		{"count mismatch", DimElement{Dim: U(2), DimIndex: "A,B,C"}, nil, true},
		{"bad range", DimElement{Dim: U(2), DimIndex: "5-4"}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.dim.Indices()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidValue)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPeripheralCloneIsDeep(t *testing.T) {
	orig := &Peripheral{
		Name:        "TIMER0",
		BaseAddress: 0x4000,
		RegisterProperties: RegisterProperties{
			Size: U(16),
		},
		Registers: []*Register{{
			Name:   "CTRL",
			Fields: []*Field{{Name: "EN", BitOffset: U(0), EnumeratedValues: []*EnumeratedValues{{Values: []*EnumeratedValue{{Name: "ON", Value: U(1)}}}}}},
		}},
		Clusters: []*Cluster{{Name: "CH", Registers: []*Register{{Name: "CC"}}}},
	}

	c := orig.Clone()
	assert.Equal(t, orig, c)

	*c.Size = 8
	c.Registers[0].Name = "CHANGED"
	*c.Registers[0].Fields[0].BitOffset = 7
	*c.Registers[0].Fields[0].EnumeratedValues[0].Values[0].Value = 9
	c.Clusters[0].Registers[0].Name = "X"

	assert.Equal(t, Uint(16), *orig.Size)
	assert.Equal(t, "CTRL", orig.Registers[0].Name)
	assert.Equal(t, Uint(0), *orig.Registers[0].Fields[0].BitOffset)
	assert.Equal(t, Uint(1), *orig.Registers[0].Fields[0].EnumeratedValues[0].Values[0].Value)
	assert.Equal(t, "CC", orig.Clusters[0].Registers[0].Name)
}

func TestRegisterPropertiesInherit(t *testing.T) {
	base := RegisterProperties{Size: U(32), Access: AccessReadOnly.Ptr(), ResetValue: U(5)}
	local := RegisterProperties{Size: U(16)}

	got := local.Inherit(base)
	assert.Equal(t, Uint(16), *got.Size)
	assert.Equal(t, AccessReadOnly, *got.Access)
	assert.Equal(t, Uint(5), *got.ResetValue)
	assert.Nil(t, got.ResetMask)

	*got.ResetValue = 9
	assert.Equal(t, Uint(5), *base.ResetValue)
}
