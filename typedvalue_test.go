// Copyright 2021 Daniel Basedow. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package apk

import (
	"errors"
	"math"
	"testing"
)

func TestParseResourceValue(t *testing.T) {

	tests := []struct {
		name string
		typ  ValueType
		data uint32
		out  string
	}{
		{"reference", TypeReference, 0x7f010000, "@ref/0x7f010000"},
		{"attribute", TypeAttribute, 0x0101021b, "@attr/0x101021b"},
		{"float", TypeFloat, math.Float32bits(1.5), "1.5"},
		{"dimension", TypeDimension, 42, "dimension(42)"},
		{"fraction", TypeFraction, 7, "fraction(7)"},
		{"int decimal", TypeIntDecimal, 0xffffffff, "-1"},
		{"int hex", TypeIntHex, 0xcafe, "0xcafe"},
		{"bool true", TypeIntBoolean, 0xffffffff, "true"},
		{"bool false", TypeIntBoolean, 0, "false"},
		{"argb8", TypeColorARGB8, 0xff00ff00, "argb8(0xff00ff00)"},
		{"rgb8", TypeColorRGB8, 0x00ff00, "rgb8(0xff00)"},
		{"argb4", TypeColorARGB4, 0xf0f0, "argb4(0xf0f0)"},
		{"rgb4", TypeColorRGB4, 0x0f0f, "rgb4(0xf0f)"},
	}

	pool := &StringPool{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newDataReader(encodeValueCell(tt.typ, tt.data))
			raw, err := parseResourceValue(r)
			if err != nil {
				t.Fatalf("parseResourceValue failed, reason: %v", err)
			}
			if raw.typ != tt.typ || raw.data != tt.data {
				t.Fatalf("raw cell assertion failed, got (0x%02x, 0x%x), want (0x%02x, 0x%x)",
					uint8(raw.typ), raw.data, uint8(tt.typ), tt.data)
			}
			if r.remaining() != 0 {
				t.Errorf("cell parse left %d bytes unconsumed", r.remaining())
			}

			v, err := newTypedValue(raw, pool)
			if err != nil {
				t.Fatalf("newTypedValue failed, reason: %v", err)
			}
			if v.String() != tt.out {
				t.Errorf("rendering assertion failed, got %q, want %q", v.String(), tt.out)
			}
		})
	}
}

func TestTypedValueString(t *testing.T) {
	pool := parsePool(t, buildStringPoolChunk([]string{"Demo"}, true, nil))

	raw, err := parseResourceValue(newDataReader(encodeValueCell(TypeString, 0)))
	if err != nil {
		t.Fatalf("parseResourceValue failed, reason: %v", err)
	}
	v, err := newTypedValue(raw, pool)
	if err != nil {
		t.Fatalf("newTypedValue failed, reason: %v", err)
	}
	if v.String() != "Demo" {
		t.Errorf("string resolution failed, got %q, want %q", v.String(), "Demo")
	}
	if v.IsReference() {
		t.Error("IsReference assertion failed, string is not a reference")
	}
}

func TestTypedValueFloatBits(t *testing.T) {
	// Bit reinterpretation must preserve the exact payload, NaNs
	// included.
	nanBits := uint32(0x7fc00001)
	raw := resourceValue{typ: TypeFloat, data: nanBits}
	v, err := newTypedValue(raw, &StringPool{})
	if err != nil {
		t.Fatalf("newTypedValue failed, reason: %v", err)
	}
	if !math.IsNaN(float64(v.Float())) {
		t.Error("NaN payload assertion failed")
	}
	if math.Float32bits(v.Float()) != nanBits {
		t.Errorf("bit preservation failed, got 0x%x, want 0x%x",
			math.Float32bits(v.Float()), nanBits)
	}
}

func TestTypedValueUnknownType(t *testing.T) {
	raw, err := parseResourceValue(newDataReader(encodeValueCell(ValueType(0x42), 0)))
	if err != nil {
		t.Fatalf("parseResourceValue failed, reason: %v", err)
	}
	_, err = newTypedValue(raw, &StringPool{})
	if !errors.Is(err, ErrUnknownValueType) {
		t.Errorf("error assertion failed, got %v, want ErrUnknownValueType", err)
	}
}

func TestParseResourceValuePadded(t *testing.T) {
	// A 12-byte cell carries 4 bytes of padding after the payload.
	cell := cat(le16(12), []byte{0, byte(TypeIntDecimal)}, le32(7), le32(0))
	r := newDataReader(cell)
	raw, err := parseResourceValue(r)
	if err != nil {
		t.Fatalf("parseResourceValue failed, reason: %v", err)
	}
	if raw.data != 7 {
		t.Errorf("payload assertion failed, got %d, want 7", raw.data)
	}
	if r.remaining() != 0 {
		t.Errorf("padding not consumed, %d bytes left", r.remaining())
	}
}

func TestParseResourceValueTooSmall(t *testing.T) {
	cell := cat(le16(4), []byte{0, byte(TypeIntDecimal)}, le32(7))
	_, err := parseResourceValue(newDataReader(cell))
	if !errors.Is(err, ErrInvalidData) {
		t.Errorf("error assertion failed, got %v, want ErrInvalidData", err)
	}
}
