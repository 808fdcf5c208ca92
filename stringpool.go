// Copyright 2021 Daniel Basedow. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package apk

import "fmt"

// sentinelIndex marks an absent string reference.
const sentinelIndex = 0xffffffff

// utf8Flag in the pool header selects 8-bit entries; otherwise entries
// are UTF-16LE.
const utf8Flag = 0x100

// StyleRun annotates a character range of a pool string with a style
// name (itself a pool index).
type StyleRun struct {
	Name  uint32
	Start uint32
	End   uint32
}

// StringPool is the indexable string table backing all textual data in
// an XML document or resource table. It is immutable after load.
type StringPool struct {
	strings []string
	styles  [][]StyleRun
}

// Len returns the number of strings in the pool.
func (p *StringPool) Len() int {
	return len(p.strings)
}

// Get returns the string at index. An out of range index is a hard
// error: it means the document referenced a string it never carried.
func (p *StringPool) Get(index uint32) (string, error) {
	if index >= uint32(len(p.strings)) {
		return "", fmt.Errorf("%w: string index %d out of range (pool size %d)",
			ErrInvalidData, index, len(p.strings))
	}
	return p.strings[index], nil
}

// GetOptional resolves an index that may carry the absent sentinel.
// The second return is false when the reference is absent.
func (p *StringPool) GetOptional(index uint32) (string, bool, error) {
	if index == sentinelIndex {
		return "", false, nil
	}
	s, err := p.Get(index)
	return s, err == nil, err
}

// Styles returns the style runs of the string at index, or nil when the
// string carries none.
func (p *StringPool) Styles(index uint32) []StyleRun {
	if index >= uint32(len(p.styles)) {
		return nil
	}
	return p.styles[index]
}

type stringPoolHeader struct {
	stringCount  uint32
	styleCount   uint32
	flags        uint32
	stringsStart uint32
	stylesStart  uint32
}

func (h stringPoolHeader) isUTF8() bool {
	return h.flags&utf8Flag == utf8Flag
}

func parseStringPoolHeader(data []byte) (stringPoolHeader, error) {
	r := newDataReader(data)
	var h stringPoolHeader
	var err error
	if h.stringCount, err = r.uint32(); err != nil {
		return h, ErrMalformedChunk
	}
	if h.styleCount, err = r.uint32(); err != nil {
		return h, ErrMalformedChunk
	}
	if h.flags, err = r.uint32(); err != nil {
		return h, ErrMalformedChunk
	}
	if h.stringsStart, err = r.uint32(); err != nil {
		return h, ErrMalformedChunk
	}
	if h.stylesStart, err = r.uint32(); err != nil {
		return h, ErrMalformedChunk
	}
	return h, nil
}

// parseStringPoolChunk decodes a string pool chunk into an indexable
// pool.
func parseStringPoolChunk(c chunk) (*StringPool, error) {
	if c.typ != chunkTypeStringPool {
		return nil, fmt.Errorf("%w: 0x%04x is not a string pool", ErrWrongChunkType, c.typ)
	}
	h, err := parseStringPoolHeader(c.additionalHeader)
	if err != nil {
		return nil, err
	}

	r := newDataReader(c.data)
	stringOffsets := make([]uint32, 0, h.stringCount)
	for i := uint32(0); i < h.stringCount; i++ {
		off, err := r.uint32()
		if err != nil {
			return nil, ErrMalformedChunk
		}
		stringOffsets = append(stringOffsets, off)
	}
	styleOffsets := make([]uint32, 0, h.styleCount)
	for i := uint32(0); i < h.styleCount; i++ {
		off, err := r.uint32()
		if err != nil {
			return nil, ErrMalformedChunk
		}
		styleOffsets = append(styleOffsets, off)
	}

	// The start offsets in the header are relative to the chunk start,
	// which includes the envelope and the additional header.
	headerLen := chunkHeaderSize + len(c.additionalHeader)

	stringData, err := regionAt(c.data, int(h.stringsStart)-headerLen)
	if err != nil {
		return nil, err
	}

	pool := &StringPool{strings: make([]string, 0, h.stringCount)}
	for _, off := range stringOffsets {
		var s string
		if h.isUTF8() {
			s, err = decodePoolStringUTF8(stringData, off)
		} else {
			s, err = decodePoolStringUTF16(stringData, off)
		}
		if err != nil {
			return nil, err
		}
		pool.strings = append(pool.strings, s)
	}

	if h.styleCount > 0 {
		styleData, err := regionAt(c.data, int(h.stylesStart)-headerLen)
		if err != nil {
			return nil, err
		}
		pool.styles = make([][]StyleRun, 0, h.styleCount)
		for _, off := range styleOffsets {
			runs, err := decodeStyleRuns(styleData, off)
			if err != nil {
				return nil, err
			}
			pool.styles = append(pool.styles, runs)
		}
	}

	return pool, nil
}

func regionAt(data []byte, off int) ([]byte, error) {
	if off < 0 || off > len(data) {
		return nil, fmt.Errorf("%w: section offset %d outside chunk body", ErrInvalidData, off)
	}
	return data[off:], nil
}

// decodePoolStringUTF8 reads an 8-bit entry: two variable lengths back
// to back (character count, then byte count), the bytes, then a
// mandatory NUL.
func decodePoolStringUTF8(data []byte, off uint32) (string, error) {
	if int(off) > len(data) {
		return "", fmt.Errorf("%w: string offset %d outside pool data", ErrInvalidData, off)
	}
	r := newDataReader(data[off:])
	if _, err := readUTF8Length(r); err != nil { // character count, unused
		return "", err
	}
	byteCount, err := readUTF8Length(r)
	if err != nil {
		return "", err
	}
	b, err := r.take(byteCount)
	if err != nil {
		return "", ErrMalformedChunk
	}
	term, err := r.uint8()
	if err != nil || term != 0 {
		return "", fmt.Errorf("%w: unterminated string", ErrInvalidData)
	}
	return string(b), nil
}

// readUTF8Length reads a one-byte length; a set high bit extends it to
// two bytes, the low 7 bits forming the high byte.
func readUTF8Length(r *dataReader) (int, error) {
	b, err := r.uint8()
	if err != nil {
		return 0, ErrMalformedChunk
	}
	if b&0x80 == 0 {
		return int(b), nil
	}
	lo, err := r.uint8()
	if err != nil {
		return 0, ErrMalformedChunk
	}
	return int(b&0x7f)<<8 | int(lo), nil
}

// decodePoolStringUTF16 reads a 16-bit entry: a u16 character count
// (0x8000 high bit extends it to 32 bits), the code units, then a
// mandatory zero unit.
func decodePoolStringUTF16(data []byte, off uint32) (string, error) {
	if int(off) > len(data) {
		return "", fmt.Errorf("%w: string offset %d outside pool data", ErrInvalidData, off)
	}
	r := newDataReader(data[off:])
	first, err := r.uint16()
	if err != nil {
		return "", ErrMalformedChunk
	}
	charCount := int(first)
	if first&0x8000 != 0 {
		lo, err := r.uint16()
		if err != nil {
			return "", ErrMalformedChunk
		}
		charCount = int(first&0x7fff)<<16 | int(lo)
	}
	units, err := r.take(charCount * 2)
	if err != nil {
		return "", ErrMalformedChunk
	}
	term, err := r.uint16()
	if err != nil || term != 0 {
		return "", fmt.Errorf("%w: unterminated string", ErrInvalidData)
	}
	return decodeUTF16(units), nil
}

// decodeStyleRuns reads style triples until the terminating sentinel
// word.
func decodeStyleRuns(data []byte, off uint32) ([]StyleRun, error) {
	if int(off) > len(data) {
		return nil, fmt.Errorf("%w: style offset %d outside pool data", ErrInvalidData, off)
	}
	r := newDataReader(data[off:])
	var runs []StyleRun
	for {
		name, err := r.uint32()
		if err != nil {
			return nil, ErrMalformedChunk
		}
		if name == sentinelIndex {
			return runs, nil
		}
		start, err := r.uint32()
		if err != nil {
			return nil, ErrMalformedChunk
		}
		end, err := r.uint32()
		if err != nil {
			return nil, ErrMalformedChunk
		}
		runs = append(runs, StyleRun{Name: name, Start: start, End: end})
	}
}
