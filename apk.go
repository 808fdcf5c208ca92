// Copyright 2021 Daniel Basedow. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package apk reads Android application packages: the ZIP container,
// the binary XML documents inside it, the compiled resource table and
// the signer certificate. Everything is read-only; the package never
// writes or rewrites any of the formats it understands.
package apk

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"

	"github.com/dbasedow/apk/log"
)

// Well-known member names.
const (
	// ResourcesName is the compiled resource table member.
	ResourcesName = "resources.arsc"

	// ManifestName is the binary XML manifest member.
	ManifestName = "AndroidManifest.xml"

	// CertificateName is the PKCS#7 signer block member.
	CertificateName = "META-INF/CERT.RSA"
)

// A File represents an open application package.
type File struct {
	archive   *ZipArchive
	resources *Resources

	opts   *Options
	logger *log.Helper
}

// Options for parsing.
type Options struct {

	// Do not parse the resource table at Parse time, by default (false).
	SkipResources bool

	// A custom logger.
	Logger log.Logger
}

// New instantiates a package instance with options given a file name.
func New(name string, opts *Options) (*File, error) {
	archive, err := OpenZip(name)
	if err != nil {
		return nil, err
	}
	return newFile(archive, opts), nil
}

// NewBytes instantiates a package instance with options given a memory
// buffer.
func NewBytes(data []byte, opts *Options) (*File, error) {
	archive, err := NewZipFromBytes(data)
	if err != nil {
		return nil, err
	}
	return newFile(archive, opts), nil
}

func newFile(archive *ZipArchive, opts *Options) *File {
	file := File{archive: archive}
	if opts != nil {
		file.opts = opts
	} else {
		file.opts = &Options{}
	}

	if file.opts.Logger == nil {
		logger := log.NewStdLogger(os.Stdout)
		file.logger = log.NewHelper(log.NewFilter(logger,
			log.FilterLevel(log.LevelError)))
	} else {
		file.logger = log.NewHelper(file.opts.Logger)
	}
	return &file
}

// Close closes the File. Entry streams already handed out keep their
// own handles.
func (f *File) Close() error {
	return f.archive.Close()
}

// Parse reads and caches the resource table. A package without a
// resource table parses successfully with nil Resources.
func (f *File) Parse() error {
	if f.opts.SkipResources {
		return nil
	}

	entry := f.archive.ByName(ResourcesName)
	if entry == nil {
		f.logger.Debugf("package has no %s", ResourcesName)
		return nil
	}
	data, err := readAll(entry)
	if err != nil {
		return err
	}
	resources, err := ParseResourceTable(data, f.opts.Logger)
	if err != nil {
		return err
	}
	f.resources = resources
	return nil
}

// Files returns the package members in central directory order. Each
// call returns fresh handles, so iteration is restartable.
func (f *File) Files() []*ZipEntry {
	return f.archive.Files()
}

// FileByName returns the member with the given name, or nil.
func (f *File) FileByName(name string) *ZipEntry {
	return f.archive.ByName(name)
}

// Resources returns the cached resource table, nil when the package
// has none or Parse has not run.
func (f *File) Resources() *Resources {
	return f.resources
}

// Manifest opens an event stream over the binary XML manifest.
func (f *File) Manifest() (*XMLElementStream, error) {
	data, err := f.ReadMember(ManifestName)
	if err != nil {
		return nil, err
	}
	return NewXMLElementStream(data)
}

// CertificateFingerprintSHA256 returns the SHA-256 digest of the
// signer certificate carried in the signature member.
func (f *File) CertificateFingerprintSHA256() ([sha256.Size]byte, error) {
	data, err := f.ReadMember(CertificateName)
	if err != nil {
		return [sha256.Size]byte{}, err
	}
	fingerprint, err := GetKeyFingerprintSHA256(data)
	if err != nil {
		return [sha256.Size]byte{}, fmt.Errorf("%s: %w", CertificateName, err)
	}
	return fingerprint, nil
}

// CertificateInfo returns the signer certificate summary.
func (f *File) CertificateInfo() (CertInfo, error) {
	data, err := f.ReadMember(CertificateName)
	if err != nil {
		return CertInfo{}, err
	}
	return parseCertInfo(data)
}

// ReadMember reads a member's decompressed content in full.
func (f *File) ReadMember(name string) ([]byte, error) {
	entry := f.archive.ByName(name)
	if entry == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return readAll(entry)
}

func readAll(entry *ZipEntry) ([]byte, error) {
	content, err := entry.Content()
	if err != nil {
		return nil, err
	}
	defer content.Close()
	return io.ReadAll(content)
}
