// Copyright 2021 Daniel Basedow. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package apk

import (
	"fmt"
	"io"
)

// IsBinaryXML reports whether data looks like a binary XML document
// rather than plaintext.
func IsBinaryXML(data []byte) bool {
	return len(data) >= 2 && data[0] == 0x03 && data[1] == 0x00
}

// XMLEvent is one event of a binary XML document walk.
type XMLEvent interface {
	xmlEvent()
}

// XMLNode carries the source position fields common to all events.
type XMLNode struct {
	LineNumber uint32
	Comment    string
}

// NamespaceStart opens a namespace mapping.
type NamespaceStart struct {
	XMLNode
	Prefix string
	URI    string
}

// NamespaceEnd closes a namespace mapping.
type NamespaceEnd struct {
	XMLNode
	Prefix string
	URI    string
}

// Attribute is one decoded attribute of an element start event.
type Attribute struct {
	NS       string
	Name     string
	RawValue uint32
	Value    TypedValue
}

// ElementStart opens an element. NS is empty for elements outside any
// namespace.
type ElementStart struct {
	XMLNode
	NS         string
	Name       string
	Attributes []Attribute
}

// AttributeLen returns the number of attributes.
func (e ElementStart) AttributeLen() int {
	return len(e.Attributes)
}

// ElementEnd closes an element.
type ElementEnd struct {
	XMLNode
	NS   string
	Name string
}

// CharData is character data between elements.
type CharData struct {
	XMLNode
	Data string
}

func (NamespaceStart) xmlEvent() {}
func (NamespaceEnd) xmlEvent()   {}
func (ElementStart) xmlEvent()   {}
func (ElementEnd) xmlEvent()     {}
func (CharData) xmlEvent()       {}

// XMLElementStream walks a binary XML document and yields its events in
// source order. The walk is single pass: once Next has returned io.EOF
// the stream is exhausted.
type XMLElementStream struct {
	chunks []chunk
	pool   *StringPool
	index  int
}

// NewXMLElementStream parses the chunk skeleton of a binary XML
// document. The actual node chunks are decoded lazily by Next.
func NewXMLElementStream(data []byte) (*XMLElementStream, error) {
	r := newDataReader(data)
	root, err := parseChunk(r)
	if err != nil {
		return nil, err
	}
	if root.typ != chunkTypeXML {
		return nil, fmt.Errorf("%w: 0x%04x is not an XML document", ErrWrongChunkType, root.typ)
	}
	chunks, err := root.subChunks()
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: empty XML document", ErrInvalidData)
	}
	pool, err := parseStringPoolChunk(chunks[0])
	if err != nil {
		return nil, err
	}
	index := 1
	if len(chunks) > 1 && chunks[1].typ == chunkTypeResourceMap {
		index = 2
	}
	return &XMLElementStream{chunks: chunks, pool: pool, index: index}, nil
}

// Next returns the next event, or io.EOF when the document is
// exhausted. A malformed or unexpected chunk terminates the stream with
// an error.
func (s *XMLElementStream) Next() (XMLEvent, error) {
	for s.index < len(s.chunks) {
		c := s.chunks[s.index]
		s.index++

		if c.typ == chunkTypeResourceMap {
			// Attribute resource id map; not needed for the event walk.
			continue
		}

		node, err := s.nodeOf(c)
		if err != nil {
			return nil, err
		}

		switch c.typ {
		case chunkTypeNamespaceStart, chunkTypeNamespaceEnd:
			raw, err := parseNamespaceBody(c.data)
			if err != nil {
				return nil, err
			}
			prefix, err := s.pool.Get(raw.prefix)
			if err != nil {
				return nil, err
			}
			uri, err := s.pool.Get(raw.uri)
			if err != nil {
				return nil, err
			}
			if c.typ == chunkTypeNamespaceStart {
				return NamespaceStart{XMLNode: node, Prefix: prefix, URI: uri}, nil
			}
			return NamespaceEnd{XMLNode: node, Prefix: prefix, URI: uri}, nil

		case chunkTypeElementStart:
			raw, err := parseElementStartBody(c.data)
			if err != nil {
				return nil, err
			}
			ns, _, err := s.pool.GetOptional(raw.ns)
			if err != nil {
				return nil, err
			}
			name, err := s.pool.Get(raw.name)
			if err != nil {
				return nil, err
			}
			attributes := make([]Attribute, 0, len(raw.attributes))
			for _, a := range raw.attributes {
				attr, err := s.attributeOf(a)
				if err != nil {
					return nil, err
				}
				attributes = append(attributes, attr)
			}
			return ElementStart{XMLNode: node, NS: ns, Name: name, Attributes: attributes}, nil

		case chunkTypeElementEnd:
			raw, err := parseElementEndBody(c.data)
			if err != nil {
				return nil, err
			}
			ns, _, err := s.pool.GetOptional(raw.ns)
			if err != nil {
				return nil, err
			}
			name, err := s.pool.Get(raw.name)
			if err != nil {
				return nil, err
			}
			return ElementEnd{XMLNode: node, NS: ns, Name: name}, nil

		case chunkTypeCData:
			raw, err := parseCDataBody(c.data)
			if err != nil {
				return nil, err
			}
			data, err := s.pool.Get(raw.data)
			if err != nil {
				return nil, err
			}
			return CharData{XMLNode: node, Data: data}, nil

		default:
			return nil, fmt.Errorf("%w: 0x%04x", ErrUnexpectedChunk, c.typ)
		}
	}
	return nil, io.EOF
}

func (s *XMLElementStream) nodeOf(c chunk) (XMLNode, error) {
	hdr, err := c.xmlNodeHeader()
	if err != nil {
		return XMLNode{}, err
	}
	comment, _, err := s.pool.GetOptional(hdr.comment)
	if err != nil {
		return XMLNode{}, err
	}
	return XMLNode{LineNumber: hdr.lineNumber, Comment: comment}, nil
}

func (s *XMLElementStream) attributeOf(raw rawAttribute) (Attribute, error) {
	ns, _, err := s.pool.GetOptional(raw.ns)
	if err != nil {
		return Attribute{}, err
	}
	name, err := s.pool.Get(raw.name)
	if err != nil {
		return Attribute{}, err
	}
	value, err := newTypedValue(raw.typedValue, s.pool)
	if err != nil {
		return Attribute{}, err
	}
	return Attribute{NS: ns, Name: name, RawValue: raw.rawValue, Value: value}, nil
}
