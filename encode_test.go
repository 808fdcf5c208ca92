// Copyright 2021 Daniel Basedow. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package apk

import (
	"encoding/binary"
	"unicode/utf16"
)

// The builders below synthesize the binary fixtures the parser tests
// run against, so no binary test data needs to live in the repository.

func le16(v uint16) []byte {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	return b[:]
}

func le32(v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return b[:]
}

func cat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// buildChunk frames a body and additional header in the 8-byte chunk
// envelope.
func buildChunk(typ uint16, additionalHeader, body []byte) []byte {
	headerSize := uint16(chunkHeaderSize + len(additionalHeader))
	totalSize := uint32(headerSize) + uint32(len(body))
	return cat(le16(typ), le16(headerSize), le32(totalSize), additionalHeader, body)
}

func encodeUTF8Length(n int) []byte {
	if n < 0x80 {
		return []byte{byte(n)}
	}
	return []byte{byte(n>>8) | 0x80, byte(n)}
}

func encodeUTF8PoolString(s string) []byte {
	charCount := len([]rune(s))
	return cat(encodeUTF8Length(charCount), encodeUTF8Length(len(s)), []byte(s), []byte{0})
}

func encodeUTF16PoolString(s string) []byte {
	units := utf16.Encode([]rune(s))
	out := le16(uint16(len(units)))
	for _, u := range units {
		out = append(out, le16(u)...)
	}
	return append(out, 0, 0)
}

// buildStringPoolChunk encodes a pool with optional per-string style
// runs. styles may be nil or shorter than strs.
func buildStringPoolChunk(strs []string, utf8 bool, styles [][]StyleRun) []byte {
	var flags uint32
	if utf8 {
		flags = utf8Flag
	}

	var stringData []byte
	stringOffsets := make([]uint32, 0, len(strs))
	for _, s := range strs {
		stringOffsets = append(stringOffsets, uint32(len(stringData)))
		if utf8 {
			stringData = append(stringData, encodeUTF8PoolString(s)...)
		} else {
			stringData = append(stringData, encodeUTF16PoolString(s)...)
		}
	}

	var styleData []byte
	styleOffsets := make([]uint32, 0, len(styles))
	for _, runs := range styles {
		styleOffsets = append(styleOffsets, uint32(len(styleData)))
		for _, run := range runs {
			styleData = cat(styleData, le32(run.Name), le32(run.Start), le32(run.End))
		}
		styleData = append(styleData, le32(sentinelIndex)...)
	}

	const headerLen = chunkHeaderSize + 20
	offsetsLen := 4 * (len(strs) + len(styles))
	stringsStart := uint32(headerLen + offsetsLen)
	stylesStart := uint32(0)
	if len(styles) > 0 {
		stylesStart = stringsStart + uint32(len(stringData))
	}

	additionalHeader := cat(
		le32(uint32(len(strs))),
		le32(uint32(len(styles))),
		le32(flags),
		le32(stringsStart),
		le32(stylesStart),
	)

	var body []byte
	for _, off := range stringOffsets {
		body = append(body, le32(off)...)
	}
	for _, off := range styleOffsets {
		body = append(body, le32(off)...)
	}
	body = append(body, stringData...)
	body = append(body, styleData...)

	return buildChunk(chunkTypeStringPool, additionalHeader, body)
}

// encodeValueCell encodes the 8-byte typed value cell.
func encodeValueCell(typ ValueType, data uint32) []byte {
	return cat(le16(8), []byte{0, byte(typ)}, le32(data))
}

// encodedConfigSize is the length of the encoded configuration record,
// including the leading size word.
const encodedConfigSize = 52

// buildConfig returns a default (all-any) configuration record that
// mod may poke qualifier bytes into.
func buildConfig(mod func(b []byte)) []byte {
	b := make([]byte, encodedConfigSize)
	binary.LittleEndian.PutUint32(b, encodedConfigSize)
	if mod != nil {
		mod(b)
	}
	return b
}

// xmlNode frames an XML node chunk with its line/comment header.
func xmlNode(typ uint16, line uint32, comment uint32, body []byte) []byte {
	return buildChunk(typ, cat(le32(line), le32(comment)), body)
}

func namespaceBody(prefix, uri uint32) []byte {
	return cat(le32(prefix), le32(uri))
}

type testAttr struct {
	ns       uint32
	name     uint32
	rawValue uint32
	typ      ValueType
	data     uint32
}

func elementStartBody(ns, name uint32, attrs []testAttr) []byte {
	body := cat(
		le32(ns), le32(name),
		le16(20), le16(20), le16(uint16(len(attrs))),
		le16(0), le16(0), le16(0),
	)
	for _, a := range attrs {
		body = cat(body, le32(a.ns), le32(a.name), le32(a.rawValue),
			encodeValueCell(a.typ, a.data))
	}
	return body
}

func elementEndBody(ns, name uint32) []byte {
	return cat(le32(ns), le32(name))
}

// buildXMLDocument frames a string pool and node chunks in an XML root
// chunk.
func buildXMLDocument(pool []byte, nodes ...[]byte) []byte {
	return buildChunk(chunkTypeXML, nil, cat(append([][]byte{pool}, nodes...)...))
}

type testEntry struct {
	absent bool
	flags  uint16
	key    uint32
	typ    ValueType
	data   uint32

	parent   uint32
	mappings []testMapping
}

type testMapping struct {
	name uint32
	typ  ValueType
	data uint32
}

// buildTypeChunk encodes a type chunk holding one configuration's
// entry array.
func buildTypeChunk(typeID uint8, config []byte, entries []testEntry) []byte {
	var entryData []byte
	offsets := make([]uint32, 0, len(entries))
	for _, e := range entries {
		if e.absent {
			offsets = append(offsets, sentinelIndex)
			continue
		}
		offsets = append(offsets, uint32(len(entryData)))
		if e.flags&entryFlagComplex != 0 {
			entryData = cat(entryData, le16(16), le16(e.flags), le32(e.key),
				le32(e.parent), le32(uint32(len(e.mappings))))
			for _, m := range e.mappings {
				entryData = cat(entryData, le32(m.name), encodeValueCell(m.typ, m.data))
			}
		} else {
			entryData = cat(entryData, le16(8), le16(e.flags), le32(e.key),
				encodeValueCell(e.typ, e.data))
		}
	}

	headerSize := chunkHeaderSize + 12 + len(config)
	entriesStart := uint32(headerSize + 4*len(entries))
	additionalHeader := cat(
		[]byte{typeID, 0, 0, 0},
		le32(uint32(len(entries))),
		le32(entriesStart),
		config,
	)

	var body []byte
	for _, off := range offsets {
		body = append(body, le32(off)...)
	}
	body = append(body, entryData...)
	return buildChunk(chunkTypeTableType, additionalHeader, body)
}

// buildPackageChunk encodes a package chunk with its type and key
// pools followed by the given sub-chunks.
func buildPackageChunk(id uint32, name string, typePool, keyPool []byte, subChunks ...[]byte) []byte {
	nameField := make([]byte, packageNameLength*2)
	for i, u := range utf16.Encode([]rune(name)) {
		if i >= packageNameLength-1 {
			break
		}
		binary.LittleEndian.PutUint16(nameField[i*2:], u)
	}
	additionalHeader := cat(
		le32(id),
		nameField,
		le32(0), le32(0), le32(0), le32(0),
	)
	body := cat(typePool, keyPool)
	for _, c := range subChunks {
		body = append(body, c...)
	}
	return buildChunk(chunkTypePackage, additionalHeader, body)
}

// buildResourceTable frames a values pool and package chunks in a
// table root chunk.
func buildResourceTable(valuesPool []byte, packages ...[]byte) []byte {
	body := append([]byte(nil), valuesPool...)
	for _, p := range packages {
		body = append(body, p...)
	}
	return buildChunk(chunkTypeTable, le32(uint32(len(packages))), body)
}

// derElement encodes a DER identifier/length/value triple with
// definite-form length.
func derElement(tag byte, content []byte) []byte {
	out := []byte{tag}
	n := len(content)
	switch {
	case n < 0x80:
		out = append(out, byte(n))
	case n < 0x100:
		out = append(out, 0x81, byte(n))
	default:
		out = append(out, 0x82, byte(n>>8), byte(n))
	}
	return append(out, content...)
}
