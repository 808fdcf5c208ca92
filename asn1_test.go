// Copyright 2021 Daniel Basedow. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package apk

import (
	"bytes"
	"errors"
	"testing"
)

func TestParseIdentifier(t *testing.T) {

	tests := []struct {
		name        string
		in          []byte
		tagClass    TagClass
		constructed bool
		tagID       uint32
	}{
		{"short form", []byte{0x2a}, TagClassUniversal, true, 0x0a},
		{"long form one octet", []byte{0xff, 0x2a}, TagClassPrivate, true, 0x2a},
		{"long form two octets", []byte{0xff, 0x8a, 0x2a}, TagClassPrivate, true, 0x52a},
		{"sequence", []byte{0x30}, TagClassUniversal, true, 0x10},
		{"context zero", []byte{0xa0}, TagClassContext, true, 0x00},
		{"primitive integer", []byte{0x02}, TagClassUniversal, false, 0x02},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tagClass, constructed, tagID, err := parseIdentifier(newDataReader(tt.in))
			if err != nil {
				t.Fatalf("parseIdentifier failed, reason: %v", err)
			}
			if tagClass != tt.tagClass {
				t.Errorf("class assertion failed, got %d, want %d", tagClass, tt.tagClass)
			}
			if constructed != tt.constructed {
				t.Errorf("constructed assertion failed, got %v", constructed)
			}
			if tagID != tt.tagID {
				t.Errorf("tag assertion failed, got 0x%x, want 0x%x", tagID, tt.tagID)
			}
		})
	}
}

func TestParseLength(t *testing.T) {

	tests := []struct {
		name string
		in   []byte
		out  int
	}{
		{"short form", []byte{0x09}, 9},
		{"long form", []byte{0x82, 0x05, 0x63}, 1379},
		{"long form single octet", []byte{0x81, 0xff}, 255},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newDataReader(tt.in)
			length, err := parseLength(r)
			if err != nil {
				t.Fatalf("parseLength failed, reason: %v", err)
			}
			if length != tt.out {
				t.Errorf("length assertion failed, got %d, want %d", length, tt.out)
			}
			if r.remaining() != 0 {
				t.Errorf("length parse left %d bytes unconsumed", r.remaining())
			}
		})
	}
}

func TestParseLengthIndefinite(t *testing.T) {
	// DER forbids the indefinite form; the walker rejects it.
	_, err := parseLength(newDataReader([]byte{0x80}))
	if !errors.Is(err, ErrInvalidData) {
		t.Errorf("error assertion failed, got %v, want ErrInvalidData", err)
	}
}

func TestParseDataElement(t *testing.T) {
	payload := []byte{0xde, 0xad, 0xbe, 0xef}
	encoded := derElement(0x04, payload) // OCTET STRING

	e, err := ParseDataElement(encoded)
	if err != nil {
		t.Fatalf("ParseDataElement failed, reason: %v", err)
	}
	if e.TagClass != TagClassUniversal || e.Constructed || e.TagID != 0x04 {
		t.Errorf("element header assertion failed, got %+v", e)
	}
	if !bytes.Equal(e.Data(), payload) {
		t.Errorf("payload assertion failed, got %v", e.Data())
	}
}

func TestParseChildren(t *testing.T) {
	inner1 := derElement(0x02, []byte{0x01})
	inner2 := derElement(0x04, []byte{0xaa, 0xbb})
	outer := derElement(0x30, cat(inner1, inner2))

	root, err := ParseDataElement(outer)
	if err != nil {
		t.Fatalf("ParseDataElement failed, reason: %v", err)
	}
	children, err := root.ParseChildren()
	if err != nil {
		t.Fatalf("ParseChildren failed, reason: %v", err)
	}
	if len(children) != 2 {
		t.Fatalf("child count assertion failed, got %d, want 2", len(children))
	}
	if children[0].TagID != 0x02 || children[1].TagID != 0x04 {
		t.Errorf("child tags assertion failed, got 0x%x 0x%x",
			children[0].TagID, children[1].TagID)
	}
	if !bytes.Equal(children[1].Data(), []byte{0xaa, 0xbb}) {
		t.Errorf("child payload assertion failed, got %v", children[1].Data())
	}
}

func TestParseChildrenOnPrimitive(t *testing.T) {
	e, err := ParseDataElement(derElement(0x02, []byte{0x01}))
	if err != nil {
		t.Fatalf("ParseDataElement failed, reason: %v", err)
	}
	if _, err := e.ParseChildren(); !errors.Is(err, ErrInvalidData) {
		t.Errorf("error assertion failed, got %v, want ErrInvalidData", err)
	}
}

func TestParseDataElementTruncated(t *testing.T) {
	// Declared length overruns the buffer.
	_, err := ParseDataElement([]byte{0x04, 0x10, 0x01})
	if !errors.Is(err, ErrInvalidData) {
		t.Errorf("error assertion failed, got %v, want ErrInvalidData", err)
	}
}

func TestParseDataElementLongLength(t *testing.T) {
	payload := bytes.Repeat([]byte{0x55}, 300) // forces the two-octet length form
	e, err := ParseDataElement(derElement(0x04, payload))
	if err != nil {
		t.Fatalf("ParseDataElement failed, reason: %v", err)
	}
	if !bytes.Equal(e.Data(), payload) {
		t.Error("long payload assertion failed")
	}
}
