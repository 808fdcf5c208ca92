// Copyright 2021 Daniel Basedow. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package apk

import (
	"fmt"
	"os"

	"github.com/dbasedow/apk/log"
)

// applicationPackageID marks resource ids belonging to the application
// package; all other package bytes are framework references.
const applicationPackageID = 0x7f

// ResID is a 32-bit resource identifier: package byte, type byte,
// entry index.
type ResID uint32

// Package returns the package byte (bits 24-31).
func (id ResID) Package() uint8 {
	return uint8(id >> 24)
}

// TypeID returns the type byte (bits 16-23).
func (id ResID) TypeID() uint8 {
	return uint8(id >> 16)
}

// EntryIndex returns the entry index (bits 0-15).
func (id ResID) EntryIndex() uint16 {
	return uint16(id)
}

// IsApplication reports whether the id belongs to the application
// package rather than the framework.
func (id ResID) IsApplication() bool {
	return id.Package() == applicationPackageID
}

func (id ResID) String() string {
	return fmt.Sprintf("0x%08x", uint32(id))
}

// Mapping is one name/value pair of a complex entry.
type Mapping struct {
	Name  uint32
	Value TypedValue
}

// Entry is one resource value under one configuration. Simple entries
// carry a single Value; complex entries carry a parent reference and a
// mapping list.
type Entry struct {
	Flags    uint16
	Key      uint32
	Value    *TypedValue
	Parent   uint32
	Mappings []Mapping
}

// entryFlagComplex marks a map entry.
const entryFlagComplex = 0x0001

// IsComplex reports whether the entry is a mapping rather than a single
// value.
func (e *Entry) IsComplex() bool {
	return e.Flags&entryFlagComplex == entryFlagComplex
}

// ResourceData holds the entry array of one type under one
// configuration. A nil element means the id has no value under this
// configuration.
type ResourceData struct {
	Config Configuration
	values []*Entry
}

// ResourceType groups the per-configuration entry arrays of one type
// id. All value arrays have the same length, the declared entry count
// of the type.
type ResourceType struct {
	ID   uint8
	Data []ResourceData
}

// ConfigString pairs a configuration with the string value a resource
// id has under it.
type ConfigString struct {
	Config *Configuration
	Value  string
}

// ConfigEntry pairs a configuration with the entry a resource id has
// under it.
type ConfigEntry struct {
	Config *Configuration
	Entry  *Entry
}

// Resources is the parsed resource table of one package: the three
// string pools and the per-type entry collections. The pools and entry
// collections are immutable after construction and safe for concurrent
// readers; only the device configuration slot can be changed later,
// through SetDeviceConfig.
type Resources struct {
	packageID   uint32
	packageName string

	resourceTypes []*ResourceType

	values *StringPool
	keys   *StringPool
	types  *StringPool

	// Device configuration to match against once best-match selection
	// exists. Carried so selection can be added without re-parsing.
	deviceConfig *Configuration
}

// PackageID returns the declared package id (0x7f for applications).
func (r *Resources) PackageID() uint32 { return r.packageID }

// PackageName returns the declared package name.
func (r *Resources) PackageName() string { return r.packageName }

// SetDeviceConfig injects the configuration that future best-match
// lookups should select against.
func (r *Resources) SetDeviceConfig(c *Configuration) { r.deviceConfig = c }

// DeviceConfig returns the injected device configuration, nil when
// unset.
func (r *Resources) DeviceConfig() *Configuration { return r.deviceConfig }

func (r *Resources) addResourceData(typeID uint8, data ResourceData) {
	for _, rt := range r.resourceTypes {
		if rt.ID == typeID {
			rt.Data = append(rt.Data, data)
			return
		}
	}
	r.resourceTypes = append(r.resourceTypes, &ResourceType{
		ID:   typeID,
		Data: []ResourceData{data},
	})
}

func (r *Resources) resourceTypeByID(id ResID) *ResourceType {
	for _, rt := range r.resourceTypes {
		if rt.ID == id.TypeID() {
			return rt
		}
	}
	return nil
}

// GetResourceType returns the type name of the id ("string",
// "drawable", ...). The second return is false for ids whose type the
// table does not declare.
func (r *Resources) GetResourceType(id ResID) (string, bool) {
	typeID := id.TypeID()
	if typeID == 0 {
		return "", false
	}
	s, err := r.types.Get(uint32(typeID) - 1)
	if err != nil {
		return "", false
	}
	return s, true
}

// GetKeyName returns the key name of the id. The key is configuration
// independent, so the first present entry across configurations is
// consulted.
func (r *Resources) GetKeyName(id ResID) (string, bool) {
	rt := r.resourceTypeByID(id)
	if rt == nil {
		return "", false
	}
	index := int(id.EntryIndex())
	for _, data := range rt.Data {
		if index >= len(data.values) {
			return "", false
		}
		if entry := data.values[index]; entry != nil {
			s, err := r.keys.Get(entry.Key)
			if err != nil {
				return "", false
			}
			return s, true
		}
	}
	return "", false
}

// GetEntriesAllConfigs returns every present (configuration, entry)
// pair of the id, in the order the type chunks appeared. Nil when the
// id is unknown.
func (r *Resources) GetEntriesAllConfigs(id ResID) []ConfigEntry {
	rt := r.resourceTypeByID(id)
	if rt == nil {
		return nil
	}
	index := int(id.EntryIndex())
	var result []ConfigEntry
	for i := range rt.Data {
		data := &rt.Data[i]
		if index >= len(data.values) {
			continue
		}
		if entry := data.values[index]; entry != nil {
			result = append(result, ConfigEntry{Config: &data.Config, Entry: entry})
		}
	}
	return result
}

// GetStringByIDAllConfigs returns the string value of the id under
// every configuration that both defines it and types it as a string.
func (r *Resources) GetStringByIDAllConfigs(id ResID) []ConfigString {
	entries := r.GetEntriesAllConfigs(id)
	if entries == nil {
		return nil
	}
	result := make([]ConfigString, 0, len(entries))
	for _, e := range entries {
		if e.Entry.Value == nil || e.Entry.Value.Type != TypeString {
			continue
		}
		result = append(result, ConfigString{
			Config: e.Config,
			Value:  e.Entry.Value.String(),
		})
	}
	return result
}

// packageChunkHeader is the additional header of a package chunk.
type packageChunkHeader struct {
	id                uint32
	name              string
	typeStringsOffset uint32
	lastPublicType    uint32
	keyStringsOffset  uint32
	lastPublicKey     uint32
}

// packageNameLength is the fixed UTF-16 code unit count of the package
// name field.
const packageNameLength = 128

func parsePackageChunkHeader(data []byte) (packageChunkHeader, error) {
	r := newDataReader(data)
	var h packageChunkHeader
	var err error
	if h.id, err = r.uint32(); err != nil {
		return h, ErrMalformedChunk
	}
	name, err := r.take(packageNameLength * 2)
	if err != nil {
		return h, ErrMalformedChunk
	}
	h.name = decodeZeroTerminatedUTF16(name)
	if h.typeStringsOffset, err = r.uint32(); err != nil {
		return h, ErrMalformedChunk
	}
	if h.lastPublicType, err = r.uint32(); err != nil {
		return h, ErrMalformedChunk
	}
	if h.keyStringsOffset, err = r.uint32(); err != nil {
		return h, ErrMalformedChunk
	}
	if h.lastPublicKey, err = r.uint32(); err != nil {
		return h, ErrMalformedChunk
	}
	return h, nil
}

// tableTypeHeader is the additional header of a type chunk.
type tableTypeHeader struct {
	id           uint8
	entryCount   uint32
	entriesStart uint32
	config       Configuration
}

func parseTableTypeHeader(data []byte) (tableTypeHeader, error) {
	r := newDataReader(data)
	var h tableTypeHeader
	var err error
	if h.id, err = r.uint8(); err != nil {
		return h, ErrMalformedChunk
	}
	if err = r.skip(3); err != nil { // reserved
		return h, ErrMalformedChunk
	}
	if h.entryCount, err = r.uint32(); err != nil {
		return h, ErrMalformedChunk
	}
	if h.entriesStart, err = r.uint32(); err != nil {
		return h, ErrMalformedChunk
	}
	if h.config, err = parseConfiguration(r); err != nil {
		return h, err
	}
	return h, nil
}

// parseTableTypeBody reads the entry offset array and the entry records
// behind it. Offsets carrying the absent sentinel produce nil slots, so
// every configuration's array has exactly entryCount elements.
func parseTableTypeBody(data []byte, entryCount uint32, pool *StringPool) ([]*Entry, error) {
	r := newDataReader(data)
	offsets := make([]uint32, 0, entryCount)
	for i := uint32(0); i < entryCount; i++ {
		off, err := r.uint32()
		if err != nil {
			return nil, ErrMalformedChunk
		}
		offsets = append(offsets, off)
	}
	entryData := data[r.off:]

	entries := make([]*Entry, 0, entryCount)
	for _, off := range offsets {
		if off == sentinelIndex {
			entries = append(entries, nil)
			continue
		}
		if int(off) > len(entryData) {
			return nil, fmt.Errorf("%w: entry offset %d outside type chunk", ErrInvalidData, off)
		}
		entry, err := parseEntry(newDataReader(entryData[off:]), pool)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// parseEntry reads one entry record. The declared header size is
// honored so records with vendor padding between header and payload
// still parse.
func parseEntry(r *dataReader, pool *StringPool) (*Entry, error) {
	size, err := r.uint16()
	if err != nil {
		return nil, ErrMalformedChunk
	}
	flags, err := r.uint16()
	if err != nil {
		return nil, ErrMalformedChunk
	}
	key, err := r.uint32()
	if err != nil {
		return nil, ErrMalformedChunk
	}
	entry := &Entry{Flags: flags, Key: key}

	if entry.IsComplex() {
		if size < 16 {
			return nil, fmt.Errorf("%w: map entry size %d", ErrInvalidData, size)
		}
		if entry.Parent, err = r.uint32(); err != nil {
			return nil, ErrMalformedChunk
		}
		count, err := r.uint32()
		if err != nil {
			return nil, ErrMalformedChunk
		}
		if err := r.skip(int(size) - 16); err != nil {
			return nil, ErrMalformedChunk
		}
		entry.Mappings = make([]Mapping, 0, count)
		for i := uint32(0); i < count; i++ {
			name, err := r.uint32()
			if err != nil {
				return nil, ErrMalformedChunk
			}
			raw, err := parseResourceValue(r)
			if err != nil {
				return nil, err
			}
			value, err := newTypedValue(raw, pool)
			if err != nil {
				return nil, err
			}
			entry.Mappings = append(entry.Mappings, Mapping{Name: name, Value: value})
		}
		return entry, nil
	}

	if size < 8 {
		return nil, fmt.Errorf("%w: entry size %d", ErrInvalidData, size)
	}
	if err := r.skip(int(size) - 8); err != nil {
		return nil, ErrMalformedChunk
	}
	raw, err := parseResourceValue(r)
	if err != nil {
		return nil, err
	}
	value, err := newTypedValue(raw, pool)
	if err != nil {
		return nil, err
	}
	entry.Value = &value
	return entry, nil
}

// ParseResourceTable decodes a compiled resource table. Exactly one
// package chunk is expected; unknown sub-chunks inside the package
// (type specs, libraries, overlays) are skipped. A nil logger gets the
// default error-level stdout logger.
func ParseResourceTable(data []byte, logger log.Logger) (*Resources, error) {
	if logger == nil {
		logger = log.NewFilter(log.NewStdLogger(os.Stdout),
			log.FilterLevel(log.LevelError))
	}
	helper := log.NewHelper(logger)

	r := newDataReader(data)
	root, err := parseChunk(r)
	if err != nil {
		return nil, err
	}
	if root.typ != chunkTypeTable {
		return nil, fmt.Errorf("%w: 0x%04x is not a resource table", ErrWrongChunkType, root.typ)
	}

	chunks, err := root.subChunks()
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 || chunks[0].typ != chunkTypeStringPool {
		return nil, fmt.Errorf("%w: resource table has no values pool", ErrWrongChunkType)
	}
	values, err := parseStringPoolChunk(chunks[0])
	if err != nil {
		return nil, err
	}

	for _, c := range chunks[1:] {
		if c.typ != chunkTypePackage {
			helper.Debugf("skipping table chunk 0x%04x", c.typ)
			continue
		}
		return parsePackageChunk(c, values, helper)
	}
	return nil, fmt.Errorf("%w: resource table has no package chunk", ErrInvalidData)
}

func parsePackageChunk(c chunk, values *StringPool, helper *log.Helper) (*Resources, error) {
	hdr, err := parsePackageChunkHeader(c.additionalHeader)
	if err != nil {
		return nil, err
	}
	packageChunks, err := c.subChunks()
	if err != nil {
		return nil, err
	}
	if len(packageChunks) < 2 {
		return nil, fmt.Errorf("%w: package lacks type and key pools", ErrInvalidData)
	}
	typeStrings, err := parseStringPoolChunk(packageChunks[0])
	if err != nil {
		return nil, err
	}
	keyStrings, err := parseStringPoolChunk(packageChunks[1])
	if err != nil {
		return nil, err
	}

	resources := &Resources{
		packageID:   hdr.id,
		packageName: hdr.name,
		values:      values,
		keys:        keyStrings,
		types:       typeStrings,
	}

	for _, sub := range packageChunks[2:] {
		switch sub.typ {
		case chunkTypeTableType:
			th, err := parseTableTypeHeader(sub.additionalHeader)
			if err != nil {
				return nil, err
			}
			entries, err := parseTableTypeBody(sub.data, th.entryCount, values)
			if err != nil {
				return nil, err
			}
			resources.addResourceData(th.id, ResourceData{
				Config: th.config,
				values: entries,
			})
		case chunkTypeTableTypeSpec:
			// Per-entry configuration-dimension bitmasks; only needed
			// once best-match selection exists.
			helper.Debugf("skipping type spec chunk")
		default:
			helper.Debugf("skipping package chunk 0x%04x", sub.typ)
		}
	}

	return resources, nil
}
