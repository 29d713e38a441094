// Package resourcemap reads and writes resource maps: the shared
// containers of named binary blobs that cache files reference by index or
// by name.
//
// A resource map starts with a 16-byte header (type, paths offset, resource
// table offset, resource count). Each 12-byte table entry holds a path
// offset relative to the paths region, a size and an absolute data offset.
// Paths are NUL terminated.
package resourcemap

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/meigma/combustion/internal/sizing"
)

// ErrFormat is returned when a buffer is not a well-formed resource map.
var ErrFormat = errors.New("resourcemap: malformed resource map")

// Type identifies what a resource map holds.
type Type uint32

// Resource map types.
const (
	TypeBitmaps      Type = 1
	TypeSounds       Type = 2
	TypeLocalization Type = 3
)

// String returns the type name.
func (t Type) String() string {
	switch t {
	case TypeBitmaps:
		return "bitmaps"
	case TypeSounds:
		return "sounds"
	case TypeLocalization:
		return "localization"
	default:
		return fmt.Sprintf("unknown(%d)", uint32(t))
	}
}

// Name suffixes of resources that hold bulk payload data rather than tag
// metadata. They are never match candidates.
const (
	PixelsSuffix  = "__pixels"
	SamplesSuffix = "__samples"
)

const (
	headerSize = 16
	entrySize  = 12
)

// Resource is one named blob.
type Resource struct {
	Name string

	// Data aliases the buffer the map was loaded from and must be treated
	// as read-only.
	Data []byte

	// Offset is the absolute position of Data within that buffer.
	Offset uint32
}

// IsBulk reports whether the resource holds bulk pixel or sample data.
func (r *Resource) IsBulk() bool {
	return strings.HasSuffix(r.Name, PixelsSuffix) || strings.HasSuffix(r.Name, SamplesSuffix)
}

// Map is a decoded resource map. Resources keep table order.
type Map struct {
	Type      Type
	Resources []Resource
}

// Len returns the number of resources.
func (m *Map) Len() int {
	return len(m.Resources)
}

// Load parses a resource map. The returned resources alias data.
func Load(data []byte) (*Map, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: %d bytes is smaller than the header", ErrFormat, len(data))
	}
	typ := Type(binary.LittleEndian.Uint32(data[0:]))
	pathsOff := uint64(binary.LittleEndian.Uint32(data[4:]))
	tableOff := uint64(binary.LittleEndian.Uint32(data[8:]))
	count := uint64(binary.LittleEndian.Uint32(data[12:]))

	if !sizing.InBounds(tableOff, count*entrySize, len(data)) {
		return nil, fmt.Errorf("%w: resource table of %d entries at %#x outside %d bytes", ErrFormat, count, tableOff, len(data))
	}
	if pathsOff > uint64(len(data)) {
		return nil, fmt.Errorf("%w: paths offset %#x outside %d bytes", ErrFormat, pathsOff, len(data))
	}
	paths := data[pathsOff:]

	m := &Map{Type: typ, Resources: make([]Resource, 0, count)}
	for i := range count {
		e := data[tableOff+i*entrySize:]
		pathOff := uint64(binary.LittleEndian.Uint32(e[0:]))
		size := binary.LittleEndian.Uint32(e[4:])
		off := binary.LittleEndian.Uint32(e[8:])

		if pathOff >= uint64(len(paths)) {
			return nil, fmt.Errorf("%w: resource %d path offset %#x outside paths", ErrFormat, i, pathOff)
		}
		end := bytes.IndexByte(paths[pathOff:], 0)
		if end < 0 {
			return nil, fmt.Errorf("%w: resource %d path is not terminated", ErrFormat, i)
		}
		if !sizing.InBounds(uint64(off), uint64(size), len(data)) {
			return nil, fmt.Errorf("%w: resource %d data [%#x, +%#x) outside %d bytes", ErrFormat, i, off, size, len(data))
		}
		m.Resources = append(m.Resources, Resource{
			Name:   string(paths[pathOff : pathOff+uint64(end)]),
			Data:   data[off : off+size : off+size],
			Offset: off,
		})
	}
	return m, nil
}

// Builder assembles a resource map. Data is laid out in insertion order
// directly after the header, so offsets are known as resources are added.
type Builder struct {
	typ     Type
	data    bytes.Buffer
	entries []builderEntry
}

type builderEntry struct {
	name   string
	offset uint32
	size   uint32
}

// NewBuilder returns a Builder for a map of the given type.
func NewBuilder(typ Type) *Builder {
	return &Builder{typ: typ}
}

// Add appends a resource and returns the absolute offset its data will have
// in the built map.
func (b *Builder) Add(name string, data []byte) uint32 {
	off := uint32(headerSize + b.data.Len()) //nolint:gosec // Bytes reports overflow
	b.data.Write(data)
	b.entries = append(b.entries, builderEntry{name: name, offset: off, size: uint32(len(data))}) //nolint:gosec // Bytes reports overflow
	return off
}

// Offset returns the absolute offset the next added resource will have.
func (b *Builder) Offset() uint32 {
	return uint32(headerSize + b.data.Len()) //nolint:gosec // Bytes reports overflow
}

// Bytes encodes the resource map.
func (b *Builder) Bytes() ([]byte, error) {
	var paths bytes.Buffer
	pathOffsets := make([]uint32, len(b.entries))
	for i, e := range b.entries {
		pathOffsets[i] = uint32(paths.Len()) //nolint:gosec // checked below
		paths.WriteString(e.name)
		paths.WriteByte(0)
	}

	pathsOff := uint64(headerSize) + uint64(b.data.Len())
	tableOff := pathsOff + uint64(paths.Len())
	total := tableOff + uint64(len(b.entries))*entrySize
	if total > sizing.MaxUint32Size {
		return nil, fmt.Errorf("resourcemap: map of %d bytes exceeds 4 GiB", total)
	}

	out := make([]byte, total)
	binary.LittleEndian.PutUint32(out[0:], uint32(b.typ))
	binary.LittleEndian.PutUint32(out[4:], uint32(pathsOff))
	binary.LittleEndian.PutUint32(out[8:], uint32(tableOff))
	binary.LittleEndian.PutUint32(out[12:], uint32(len(b.entries))) //nolint:gosec // bounded by total
	copy(out[headerSize:], b.data.Bytes())
	copy(out[pathsOff:], paths.Bytes())
	for i, e := range b.entries {
		at := out[tableOff+uint64(i)*entrySize:]
		binary.LittleEndian.PutUint32(at[0:], pathOffsets[i])
		binary.LittleEndian.PutUint32(at[4:], e.size)
		binary.LittleEndian.PutUint32(at[8:], e.offset)
	}
	return out, nil
}
