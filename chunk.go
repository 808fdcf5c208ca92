// Copyright 2021 Daniel Basedow. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package apk

import "fmt"

// Chunk type codes shared by the binary XML format and the resource
// table.
const (
	chunkTypeStringPool     = 0x0001
	chunkTypeTable          = 0x0002
	chunkTypeXML            = 0x0003
	chunkTypeNamespaceStart = 0x0100
	chunkTypeNamespaceEnd   = 0x0101
	chunkTypeElementStart   = 0x0102
	chunkTypeElementEnd     = 0x0103
	chunkTypeCData          = 0x0104
	chunkTypeResourceMap    = 0x0180
	chunkTypePackage        = 0x0200
	chunkTypeTableType      = 0x0201
	chunkTypeTableTypeSpec  = 0x0202
)

// chunkHeaderSize is the fixed 8-byte (type, header_size, total_size)
// envelope every chunk starts with.
const chunkHeaderSize = 8

// chunk is one node of the chunked container format: the type code,
// the additional header bytes following the 8-byte envelope, and the
// body. Nested sub-chunks, where a chunk has them, live in data.
type chunk struct {
	typ              uint16
	additionalHeader []byte
	data             []byte
}

// parseChunk reads one chunk from r, consuming exactly the declared
// total size.
func parseChunk(r *dataReader) (chunk, error) {
	typ, err := r.uint16()
	if err != nil {
		return chunk{}, ErrMalformedChunk
	}
	headerSize, err := r.uint16()
	if err != nil {
		return chunk{}, ErrMalformedChunk
	}
	totalSize, err := r.uint32()
	if err != nil {
		return chunk{}, ErrMalformedChunk
	}
	if headerSize < chunkHeaderSize || totalSize < uint32(headerSize) {
		return chunk{}, fmt.Errorf("%w: header %d total %d",
			ErrMalformedChunk, headerSize, totalSize)
	}
	additionalHeader, err := r.take(int(headerSize) - chunkHeaderSize)
	if err != nil {
		return chunk{}, ErrMalformedChunk
	}
	data, err := r.take(int(totalSize) - int(headerSize))
	if err != nil {
		return chunk{}, ErrMalformedChunk
	}
	return chunk{typ: typ, additionalHeader: additionalHeader, data: data}, nil
}

// parseChunks reads consecutive chunks until data runs out.
func parseChunks(data []byte) ([]chunk, error) {
	r := newDataReader(data)
	var chunks []chunk
	for r.remaining() > 0 {
		c, err := parseChunk(r)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	return chunks, nil
}

// subChunks parses the chunk body as a sequence of nested chunks.
func (c chunk) subChunks() ([]chunk, error) {
	return parseChunks(c.data)
}

// xmlNodeHeader is the additional header every XML node chunk carries:
// the source line number and an optional comment string index.
type xmlNodeHeader struct {
	lineNumber uint32
	comment    uint32
}

// xmlNodeHeader decodes the chunk's additional header as an XML node
// header.
func (c chunk) xmlNodeHeader() (xmlNodeHeader, error) {
	r := newDataReader(c.additionalHeader)
	lineNumber, err := r.uint32()
	if err != nil {
		return xmlNodeHeader{}, ErrMalformedChunk
	}
	comment, err := r.uint32()
	if err != nil {
		return xmlNodeHeader{}, ErrMalformedChunk
	}
	return xmlNodeHeader{lineNumber: lineNumber, comment: comment}, nil
}

// rawNamespace is the body of a namespace start/end chunk.
type rawNamespace struct {
	prefix uint32
	uri    uint32
}

func parseNamespaceBody(data []byte) (rawNamespace, error) {
	r := newDataReader(data)
	prefix, err := r.uint32()
	if err != nil {
		return rawNamespace{}, ErrMalformedChunk
	}
	uri, err := r.uint32()
	if err != nil {
		return rawNamespace{}, ErrMalformedChunk
	}
	return rawNamespace{prefix: prefix, uri: uri}, nil
}

// rawAttribute is one attribute record of an element start chunk.
type rawAttribute struct {
	ns         uint32
	name       uint32
	rawValue   uint32
	typedValue resourceValue
}

// rawElementStart is the body of an element start chunk. The id, class
// and style attribute indices are skipped, not decoded.
type rawElementStart struct {
	ns         uint32
	name       uint32
	attributes []rawAttribute
}

func parseElementStartBody(data []byte) (rawElementStart, error) {
	r := newDataReader(data)
	ns, err := r.uint32()
	if err != nil {
		return rawElementStart{}, ErrMalformedChunk
	}
	name, err := r.uint32()
	if err != nil {
		return rawElementStart{}, ErrMalformedChunk
	}
	// Attribute array prelude: start offset and per-attribute size come
	// first, then the count and the id/class/style attribute indices.
	if err := r.skip(4); err != nil {
		return rawElementStart{}, ErrMalformedChunk
	}
	attributeCount, err := r.uint16()
	if err != nil {
		return rawElementStart{}, ErrMalformedChunk
	}
	if err := r.skip(6); err != nil { // id, class, style indices
		return rawElementStart{}, ErrMalformedChunk
	}

	attributes := make([]rawAttribute, 0, attributeCount)
	for i := uint16(0); i < attributeCount; i++ {
		attr, err := parseAttribute(r)
		if err != nil {
			return rawElementStart{}, err
		}
		attributes = append(attributes, attr)
	}
	return rawElementStart{ns: ns, name: name, attributes: attributes}, nil
}

func parseAttribute(r *dataReader) (rawAttribute, error) {
	ns, err := r.uint32()
	if err != nil {
		return rawAttribute{}, ErrMalformedChunk
	}
	name, err := r.uint32()
	if err != nil {
		return rawAttribute{}, ErrMalformedChunk
	}
	rawValue, err := r.uint32()
	if err != nil {
		return rawAttribute{}, ErrMalformedChunk
	}
	typedValue, err := parseResourceValue(r)
	if err != nil {
		return rawAttribute{}, err
	}
	return rawAttribute{
		ns:         ns,
		name:       name,
		rawValue:   rawValue,
		typedValue: typedValue,
	}, nil
}

// rawElementEnd is the body of an element end chunk.
type rawElementEnd struct {
	ns   uint32
	name uint32
}

func parseElementEndBody(data []byte) (rawElementEnd, error) {
	r := newDataReader(data)
	ns, err := r.uint32()
	if err != nil {
		return rawElementEnd{}, ErrMalformedChunk
	}
	name, err := r.uint32()
	if err != nil {
		return rawElementEnd{}, ErrMalformedChunk
	}
	return rawElementEnd{ns: ns, name: name}, nil
}

// rawCData is the body of a character data chunk.
type rawCData struct {
	data uint32
}

func parseCDataBody(data []byte) (rawCData, error) {
	r := newDataReader(data)
	d, err := r.uint32()
	if err != nil {
		return rawCData{}, ErrMalformedChunk
	}
	return rawCData{data: d}, nil
}
