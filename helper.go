// Copyright 2021 Daniel Basedow. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package apk

import (
	"encoding/binary"
	"errors"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

// Errors
var (
	// ErrMalformedChunk is returned when a chunk header declares sizes
	// inconsistent with the bytes actually available.
	ErrMalformedChunk = errors.New("malformed chunk header")

	// ErrWrongChunkType is returned when a required position holds a
	// chunk of an unexpected type.
	ErrWrongChunkType = errors.New("wrong chunk type")

	// ErrUnexpectedChunk is returned when an XML document body contains
	// a chunk that cannot produce an event.
	ErrUnexpectedChunk = errors.New("unexpected chunk in XML stream")

	// ErrUnknownValueType is returned when a typed value cell carries a
	// type tag outside the known set.
	ErrUnknownValueType = errors.New("unknown value type")

	// ErrUnsupportedCompression is returned for ZIP members compressed
	// with a method other than Store or Deflate.
	ErrUnsupportedCompression = errors.New("unsupported compression method")

	// ErrCentralDirectoryNotFound is returned when the end of central
	// directory signature is missing from the trailing window.
	ErrCentralDirectoryNotFound = errors.New(
		"end of central directory signature not found")

	// ErrInvalidCertificate is returned when the signer block cannot be
	// walked down to the certificate payload.
	ErrInvalidCertificate = errors.New("invalid certificate")

	// ErrNotFound is returned when a requested archive member is absent.
	ErrNotFound = errors.New("file not found in archive")

	// ErrInvalidData is returned when decoded bytes violate a structural
	// invariant, e.g. a string index outside its pool.
	ErrInvalidData = errors.New("invalid data")

	// ErrOutsideBoundary is reported when a read would run past the end
	// of the framed region.
	ErrOutsideBoundary = errors.New("reading data outside boundary")
)

// dataReader is a sequential little-endian cursor over a byte slice.
// All binary decoding in the chunked formats goes through it.
type dataReader struct {
	data []byte
	off  int
}

func newDataReader(data []byte) *dataReader {
	return &dataReader{data: data}
}

// remaining returns the number of unread bytes.
func (r *dataReader) remaining() int {
	return len(r.data) - r.off
}

func (r *dataReader) uint8() (uint8, error) {
	if r.remaining() < 1 {
		return 0, ErrOutsideBoundary
	}
	b := r.data[r.off]
	r.off++
	return b, nil
}

func (r *dataReader) uint16() (uint16, error) {
	if r.remaining() < 2 {
		return 0, ErrOutsideBoundary
	}
	v := binary.LittleEndian.Uint16(r.data[r.off:])
	r.off += 2
	return v, nil
}

// uint16be reads a big-endian u16. Only the packed locale fields of the
// configuration record use this order.
func (r *dataReader) uint16be() (uint16, error) {
	if r.remaining() < 2 {
		return 0, ErrOutsideBoundary
	}
	v := binary.BigEndian.Uint16(r.data[r.off:])
	r.off += 2
	return v, nil
}

func (r *dataReader) uint32() (uint32, error) {
	if r.remaining() < 4 {
		return 0, ErrOutsideBoundary
	}
	v := binary.LittleEndian.Uint32(r.data[r.off:])
	r.off += 4
	return v, nil
}

func (r *dataReader) int32() (int32, error) {
	v, err := r.uint32()
	return int32(v), err
}

// take returns the next n bytes without copying.
func (r *dataReader) take(n int) ([]byte, error) {
	if n < 0 || r.remaining() < n {
		return nil, ErrOutsideBoundary
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *dataReader) skip(n int) error {
	_, err := r.take(n)
	return err
}

// decodeZeroTerminatedUTF8 decodes b up to the first NUL byte. Invalid
// sequences are replaced, not rejected.
func decodeZeroTerminatedUTF8(b []byte) string {
	for i, c := range b {
		if c == 0 {
			b = b[:i]
			break
		}
	}
	return strings.ToValidUTF8(string(b), "�")
}

var utf16Decoder = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// decodeZeroTerminatedUTF16 decodes little-endian code units up to the
// first zero unit. Invalid sequences are replaced, not rejected.
func decodeZeroTerminatedUTF16(b []byte) string {
	end := len(b) &^ 1
	for i := 0; i+1 < len(b); i += 2 {
		if b[i] == 0 && b[i+1] == 0 {
			end = i
			break
		}
	}
	return decodeUTF16(b[:end])
}

// decodeUTF16 decodes an even-length little-endian UTF-16 buffer.
func decodeUTF16(b []byte) string {
	s, err := utf16Decoder.NewDecoder().Bytes(b)
	if err != nil {
		return ""
	}
	return string(s)
}
