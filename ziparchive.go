// Copyright 2021 Daniel Basedow. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package apk

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"

	mmap "github.com/edsrzf/mmap-go"
	"github.com/klauspost/compress/flate"
)

// ZIP compression methods supported by the reader.
const (
	CompressionStore   = 0
	CompressionDeflate = 8
)

// eocdSearchWindow bounds the trailing scan for the end of central
// directory record: the archive comment is at most 64 KiB, but APKs
// keep it well under this.
const eocdSearchWindow = 1024

var (
	eocdSignature        = []byte{0x50, 0x4b, 0x05, 0x06}
	centralFileSignature = []byte{0x50, 0x4b, 0x01, 0x02}
	localFileSignature   = []byte{0x50, 0x4b, 0x03, 0x04}
)

// localFileHeaderSize is the fixed part of a local file header.
const localFileHeaderSize = 30

// sharedReader is a cheaply cloneable random-access byte source. Each
// clone owns its own cursor, so concurrent entry reads do not disturb
// one another.
type sharedReader interface {
	io.ReadSeeker
	io.Closer
	Clone() sharedReader
}

// fileReader reads a file on disk, opening its own handle lazily on
// first use. Cloning copies only the path.
type fileReader struct {
	path string
	f    *os.File
}

func (r *fileReader) open() error {
	if r.f == nil {
		f, err := os.Open(r.path)
		if err != nil {
			return err
		}
		r.f = f
	}
	return nil
}

func (r *fileReader) Read(p []byte) (int, error) {
	if err := r.open(); err != nil {
		return 0, err
	}
	return r.f.Read(p)
}

func (r *fileReader) Seek(offset int64, whence int) (int64, error) {
	if err := r.open(); err != nil {
		return 0, err
	}
	return r.f.Seek(offset, whence)
}

func (r *fileReader) Close() error {
	if r.f != nil {
		err := r.f.Close()
		r.f = nil
		return err
	}
	return nil
}

func (r *fileReader) Clone() sharedReader {
	return &fileReader{path: r.path}
}

// bytesReader serves an in-memory archive. Clones share the backing
// slice.
type bytesReader struct {
	data []byte
	r    *bytes.Reader
}

func newBytesReader(data []byte) *bytesReader {
	return &bytesReader{data: data, r: bytes.NewReader(data)}
}

func (r *bytesReader) Read(p []byte) (int, error) {
	return r.r.Read(p)
}

func (r *bytesReader) Seek(offset int64, whence int) (int64, error) {
	return r.r.Seek(offset, whence)
}

func (r *bytesReader) Close() error {
	return nil
}

func (r *bytesReader) Clone() sharedReader {
	return newBytesReader(r.data)
}

// CentralDirectoryFileHeader is one member record of the central
// directory.
type CentralDirectoryFileHeader struct {
	GeneralPurposeFlags uint16
	CompressionMethod   uint16
	CRC32               uint32
	CompressedSize      uint32
	UncompressedSize    uint32
	LocalHeaderOffset   uint32
	fileName            []byte
	extraField          []byte
}

// FileName decodes the member name. Names are compared and returned as
// (lossily decoded) UTF-8 whether or not the archive sets the UTF-8
// flag.
func (h *CentralDirectoryFileHeader) FileName() string {
	return strings.ToValidUTF8(string(h.fileName), "�")
}

// IsUTF8 reports whether the archive declares the name as UTF-8.
func (h *CentralDirectoryFileHeader) IsUTF8() bool {
	return h.GeneralPurposeFlags&0x800 == 0x800
}

// ZipEntry is one archive member. Entries hold a clone of the archive
// reader, so an entry stays readable independently of the archive and
// of other entries.
type ZipEntry struct {
	Header CentralDirectoryFileHeader
	reader sharedReader
}

// Name returns the member name.
func (e *ZipEntry) Name() string {
	return e.Header.FileName()
}

// Len returns the uncompressed member size.
func (e *ZipEntry) Len() uint32 {
	return e.Header.UncompressedSize
}

// CompressedLen returns the compressed member size.
func (e *ZipEntry) CompressedLen() uint32 {
	return e.Header.CompressedSize
}

// Content returns a fresh stream over the decompressed member bytes.
// The stream owns its own file handle; closing it releases the handle.
func (e *ZipEntry) Content() (io.ReadCloser, error) {
	r := e.reader.Clone()
	if _, err := r.Seek(int64(e.Header.LocalHeaderOffset), io.SeekStart); err != nil {
		r.Close()
		return nil, err
	}
	var hdr [localFileHeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		r.Close()
		return nil, err
	}
	if !bytes.Equal(hdr[:4], localFileSignature) {
		r.Close()
		return nil, fmt.Errorf("%w: bad local file header for %q", ErrInvalidData, e.Name())
	}
	fileNameLen := binary.LittleEndian.Uint16(hdr[26:])
	extraFieldLen := binary.LittleEndian.Uint16(hdr[28:])
	if _, err := r.Seek(int64(fileNameLen)+int64(extraFieldLen), io.SeekCurrent); err != nil {
		r.Close()
		return nil, err
	}

	limited := io.LimitReader(r, int64(e.Header.CompressedSize))
	switch e.Header.CompressionMethod {
	case CompressionStore:
		return &entryStream{Reader: limited, closers: []io.Closer{r}}, nil
	case CompressionDeflate:
		fr := flate.NewReader(limited)
		return &entryStream{Reader: fr, closers: []io.Closer{fr, r}}, nil
	default:
		r.Close()
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedCompression, e.Header.CompressionMethod)
	}
}

type entryStream struct {
	io.Reader
	closers []io.Closer
}

func (s *entryStream) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// ZipArchive provides random access to the members of a ZIP file via
// its central directory.
type ZipArchive struct {
	reader  sharedReader
	entries []CentralDirectoryFileHeader
}

// OpenZip opens an archive on disk. The central directory is located
// and parsed over a read-only memory mapping; member content is
// streamed later through per-entry file handles.
func OpenZip(path string) (*ZipArchive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, err
	}
	defer m.Unmap()

	entries, err := parseArchiveDirectory(m)
	if err != nil {
		return nil, err
	}
	return &ZipArchive{reader: &fileReader{path: path}, entries: entries}, nil
}

// NewZipFromBytes opens an archive held in memory.
func NewZipFromBytes(data []byte) (*ZipArchive, error) {
	entries, err := parseArchiveDirectory(data)
	if err != nil {
		return nil, err
	}
	return &ZipArchive{reader: newBytesReader(data), entries: entries}, nil
}

// parseArchiveDirectory locates the end of central directory record in
// the trailing window and parses the member headers it points at.
func parseArchiveDirectory(data []byte) ([]CentralDirectoryFileHeader, error) {
	cdOffset, cdSize, err := findCentralDirectory(data)
	if err != nil {
		return nil, err
	}
	if cdOffset+cdSize > len(data) {
		return nil, fmt.Errorf("%w: central directory outside archive", ErrInvalidData)
	}
	return parseCentralDirectory(data[cdOffset : cdOffset+cdSize])
}

func findCentralDirectory(data []byte) (offset, size int, err error) {
	window := data
	if len(window) > eocdSearchWindow {
		window = window[len(window)-eocdSearchWindow:]
	}
	for off := len(window) - 22; off >= 0; off-- {
		if !bytes.Equal(window[off:off+4], eocdSignature) {
			continue
		}
		commentLen := int(binary.LittleEndian.Uint16(window[off+20:]))
		if off+22+commentLen != len(window) {
			continue
		}
		size = int(binary.LittleEndian.Uint32(window[off+12:]))
		offset = int(binary.LittleEndian.Uint32(window[off+16:]))
		return offset, size, nil
	}
	return 0, 0, ErrCentralDirectoryNotFound
}

// parseCentralDirectory walks the consecutive file headers of the
// central directory region.
func parseCentralDirectory(data []byte) ([]CentralDirectoryFileHeader, error) {
	r := newDataReader(data)
	var headers []CentralDirectoryFileHeader
	for r.remaining() > 0 {
		h, err := parseCentralFileHeader(r)
		if err != nil {
			return nil, err
		}
		headers = append(headers, h)
	}
	return headers, nil
}

func parseCentralFileHeader(r *dataReader) (CentralDirectoryFileHeader, error) {
	var h CentralDirectoryFileHeader
	sig, err := r.take(4)
	if err != nil || !bytes.Equal(sig, centralFileSignature) {
		return h, fmt.Errorf("%w: bad central directory file header", ErrInvalidData)
	}
	if err := r.skip(4); err != nil { // producer and extractor versions
		return h, ErrOutsideBoundary
	}
	if h.GeneralPurposeFlags, err = r.uint16(); err != nil {
		return h, err
	}
	if h.CompressionMethod, err = r.uint16(); err != nil {
		return h, err
	}
	if err := r.skip(4); err != nil { // mod time and date
		return h, ErrOutsideBoundary
	}
	if h.CRC32, err = r.uint32(); err != nil {
		return h, err
	}
	if h.CompressedSize, err = r.uint32(); err != nil {
		return h, err
	}
	if h.UncompressedSize, err = r.uint32(); err != nil {
		return h, err
	}
	fileNameLen, err := r.uint16()
	if err != nil {
		return h, err
	}
	extraFieldLen, err := r.uint16()
	if err != nil {
		return h, err
	}
	fileCommentLen, err := r.uint16()
	if err != nil {
		return h, err
	}
	if err := r.skip(8); err != nil { // disk number, internal and external attributes
		return h, ErrOutsideBoundary
	}
	if h.LocalHeaderOffset, err = r.uint32(); err != nil {
		return h, err
	}
	fileName, err := r.take(int(fileNameLen))
	if err != nil {
		return h, ErrOutsideBoundary
	}
	extraField, err := r.take(int(extraFieldLen))
	if err != nil {
		return h, ErrOutsideBoundary
	}
	if err := r.skip(int(fileCommentLen)); err != nil {
		return h, ErrOutsideBoundary
	}
	// The directory region may come from a transient memory mapping, so
	// the variable-length fields are copied out.
	h.fileName = append([]byte(nil), fileName...)
	h.extraField = append([]byte(nil), extraField...)
	return h, nil
}

// Files returns the members in central directory order. Each call
// returns fresh entries, so iteration is restartable.
func (a *ZipArchive) Files() []*ZipEntry {
	entries := make([]*ZipEntry, 0, len(a.entries))
	for _, h := range a.entries {
		entries = append(entries, &ZipEntry{Header: h, reader: a.reader.Clone()})
	}
	return entries
}

// ByName returns the member with the given name, or nil. The walk is
// linear; names compare as decoded UTF-8.
func (a *ZipArchive) ByName(name string) *ZipEntry {
	for _, h := range a.entries {
		if h.FileName() == name {
			return &ZipEntry{Header: h, reader: a.reader.Clone()}
		}
	}
	return nil
}

// Len returns the number of members.
func (a *ZipArchive) Len() int {
	return len(a.entries)
}

// Close releases the archive's own reader. Entry streams already
// handed out keep their own handles and stay valid.
func (a *ZipArchive) Close() error {
	return a.reader.Close()
}
