// Copyright 2021 Daniel Basedow. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package apk

import (
	"fmt"
	"math"
)

// ValueType is the one-byte tag of a typed value cell.
type ValueType uint8

// Known value type tags.
const (
	TypeReference  ValueType = 0x01
	TypeAttribute  ValueType = 0x02
	TypeString     ValueType = 0x03
	TypeFloat      ValueType = 0x04
	TypeDimension  ValueType = 0x05
	TypeFraction   ValueType = 0x06
	TypeIntDecimal ValueType = 0x10
	TypeIntHex     ValueType = 0x11
	TypeIntBoolean ValueType = 0x12
	TypeColorARGB8 ValueType = 0x1c
	TypeColorRGB8  ValueType = 0x1d
	TypeColorARGB4 ValueType = 0x1e
	TypeColorRGB4  ValueType = 0x1f
)

// resourceValue is the raw 8-byte typed cell before string resolution.
type resourceValue struct {
	typ  ValueType
	data uint32
}

// parseResourceValue reads a typed cell: size, a reserved byte, the
// type tag and four data bytes. Cells larger than 8 bytes carry vendor
// padding that is skipped.
func parseResourceValue(r *dataReader) (resourceValue, error) {
	size, err := r.uint16()
	if err != nil {
		return resourceValue{}, ErrMalformedChunk
	}
	if size < 8 {
		return resourceValue{}, fmt.Errorf("%w: value cell size %d", ErrInvalidData, size)
	}
	if err := r.skip(1); err != nil { // reserved, always zero
		return resourceValue{}, ErrMalformedChunk
	}
	typ, err := r.uint8()
	if err != nil {
		return resourceValue{}, ErrMalformedChunk
	}
	data, err := r.uint32()
	if err != nil {
		return resourceValue{}, ErrMalformedChunk
	}
	if err := r.skip(int(size) - 8); err != nil {
		return resourceValue{}, ErrMalformedChunk
	}
	return resourceValue{typ: ValueType(typ), data: data}, nil
}

// TypedValue is a decoded typed cell. String cells are resolved against
// the pool of the enclosing document at decode time.
type TypedValue struct {
	Type ValueType
	data uint32
	str  string
}

// newTypedValue converts a raw cell, resolving string indices through
// pool.
func newTypedValue(raw resourceValue, pool *StringPool) (TypedValue, error) {
	v := TypedValue{Type: raw.typ, data: raw.data}
	switch raw.typ {
	case TypeReference, TypeAttribute, TypeFloat, TypeDimension, TypeFraction,
		TypeIntDecimal, TypeIntHex, TypeIntBoolean,
		TypeColorARGB8, TypeColorRGB8, TypeColorARGB4, TypeColorRGB4:
	case TypeString:
		s, err := pool.Get(raw.data)
		if err != nil {
			return TypedValue{}, err
		}
		v.str = s
	default:
		return TypedValue{}, fmt.Errorf("%w: 0x%02x", ErrUnknownValueType, uint8(raw.typ))
	}
	return v, nil
}

// Data returns the raw four payload bytes.
func (v TypedValue) Data() uint32 {
	return v.data
}

// Float reinterprets the payload bits as a float32. Only meaningful for
// TypeFloat.
func (v TypedValue) Float() float32 {
	return math.Float32frombits(v.data)
}

// Bool reports the boolean payload. Only meaningful for TypeIntBoolean.
func (v TypedValue) Bool() bool {
	return v.data != 0
}

// Int returns the payload as a signed integer.
func (v TypedValue) Int() int32 {
	return int32(v.data)
}

// IsReference reports whether the value points at another resource.
func (v TypedValue) IsReference() bool {
	return v.Type == TypeReference || v.Type == TypeAttribute
}

// String renders the value for display.
func (v TypedValue) String() string {
	switch v.Type {
	case TypeReference:
		return fmt.Sprintf("@ref/0x%x", v.data)
	case TypeAttribute:
		return fmt.Sprintf("@attr/0x%x", v.data)
	case TypeString:
		return v.str
	case TypeFloat:
		return fmt.Sprintf("%g", v.Float())
	case TypeDimension:
		return fmt.Sprintf("dimension(%d)", v.data) // TODO: decode the packed unit
	case TypeFraction:
		return fmt.Sprintf("fraction(%d)", v.data)
	case TypeIntDecimal:
		return fmt.Sprintf("%d", v.Int())
	case TypeIntHex:
		return fmt.Sprintf("0x%x", v.data)
	case TypeIntBoolean:
		if v.Bool() {
			return "true"
		}
		return "false"
	case TypeColorARGB8:
		return fmt.Sprintf("argb8(0x%x)", v.data)
	case TypeColorRGB8:
		return fmt.Sprintf("rgb8(0x%x)", v.data)
	case TypeColorARGB4:
		return fmt.Sprintf("argb4(0x%x)", v.data)
	case TypeColorRGB4:
		return fmt.Sprintf("rgb4(0x%x)", v.data)
	}
	return fmt.Sprintf("unknown(0x%02x, 0x%x)", uint8(v.Type), v.data)
}
