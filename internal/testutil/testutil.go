// Package testutil builds synthetic cache files, tags and resource maps
// for tests.
package testutil

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meigma/combustion/cachefile"
	"github.com/meigma/combustion/resourcemap"
)

// Block describes one bitmap entry or sound permutation.
type Block struct {
	// Shared marks the payload as stored in the shared pool.
	Shared bool

	// Offset is the payload offset in the shared pool or private stream.
	Offset uint32

	// Size is the payload size.
	Size uint32
}

const (
	bitmapHeaderSize = 0x70
	bitmapEntrySize  = 48
	soundHeaderSize  = 0xA4
	soundRangeSize   = 0x48
	permutationSize  = 124
)

// Address is the address synthetic tags are laid out at before encoding.
const Address = cachefile.BaseAddress + 0x1000

// BitmapData builds bitmap structured data. The entry table follows a
// 0x70-byte header and its stored pointer is base+0x70: use the tag's
// address for tags and 0 for resources. The second result lists the
// pointer fixups of the data.
func BitmapData(base uint32, entries []Block) ([]byte, []cachefile.Fixup) {
	data := make([]byte, bitmapHeaderSize+len(entries)*bitmapEntrySize)
	binary.LittleEndian.PutUint32(data[0x60:], uint32(len(entries))) //nolint:gosec // test sizes are small
	var fixups []cachefile.Fixup
	if len(entries) > 0 {
		binary.LittleEndian.PutUint32(data[0x64:], base+bitmapHeaderSize)
		fixups = append(fixups, cachefile.Fixup{Offset: 0x64, Kind: cachefile.FixupPointer})
	}
	for i, e := range entries {
		b := data[bitmapHeaderSize+i*bitmapEntrySize:]
		if e.Shared {
			b[0x0F] = 1
		}
		binary.LittleEndian.PutUint32(b[0x18:], e.Offset)
		binary.LittleEndian.PutUint32(b[0x1C:], e.Size)
	}
	return data, fixups
}

// SoundData builds sound structured data. Ranges follow the 0xA4-byte
// header and permutation tables follow the ranges. Pointers are stored as
// offset+bias: use the tag's address for tags and -0xA4 for resources.
func SoundData(bias int64, ranges [][]Block) ([]byte, []cachefile.Fixup) {
	total := soundHeaderSize + len(ranges)*soundRangeSize
	for _, r := range ranges {
		total += len(r) * permutationSize
	}
	data := make([]byte, total)
	ptr := func(off int) uint32 { return uint32(int64(off) + bias) } //nolint:gosec // test layout

	var fixups []cachefile.Fixup
	binary.LittleEndian.PutUint32(data[0x98:], uint32(len(ranges))) //nolint:gosec // test sizes are small
	if len(ranges) > 0 {
		binary.LittleEndian.PutUint32(data[0x9C:], ptr(soundHeaderSize))
		fixups = append(fixups, cachefile.Fixup{Offset: 0x9C, Kind: cachefile.FixupPointer})
	}

	permOff := soundHeaderSize + len(ranges)*soundRangeSize
	for i, perms := range ranges {
		rangeOff := soundHeaderSize + i*soundRangeSize
		r := data[rangeOff:]
		binary.LittleEndian.PutUint32(r[0x3C:], uint32(len(perms))) //nolint:gosec // test sizes are small
		if len(perms) > 0 {
			binary.LittleEndian.PutUint32(r[0x40:], ptr(permOff))
			fixups = append(fixups, cachefile.Fixup{Offset: uint32(rangeOff + 0x40), Kind: cachefile.FixupPointer}) //nolint:gosec // test layout
		}
		for _, p := range perms {
			b := data[permOff:]
			binary.LittleEndian.PutUint32(b[0x40:], p.Size)
			if p.Shared {
				b[0x44] = 1
			}
			binary.LittleEndian.PutUint32(b[0x48:], p.Offset)
			permOff += permutationSize
		}
	}
	return data, fixups
}

// BitmapTag returns a resident bitmap tag.
func BitmapTag(path string, entries []Block, assets []byte) *cachefile.Tag {
	data, fixups := BitmapData(Address, entries)
	return resident(path, cachefile.ClassBitmap, data, assets, fixups)
}

// SoundTag returns a resident sound tag.
func SoundTag(path string, ranges [][]Block, assets []byte) *cachefile.Tag {
	data, fixups := SoundData(int64(Address), ranges)
	return resident(path, cachefile.ClassSound, data, assets, fixups)
}

// PlainTag returns a resident tag of class whose data holds the given tag
// references in 4-byte slots after a 16-byte prefix.
func PlainTag(path string, class cachefile.Class, refs ...int) *cachefile.Tag {
	data := make([]byte, 16+4*len(refs))
	copy(data, path)
	fixups := make([]cachefile.Fixup, 0, len(refs))
	for i, ref := range refs {
		fixups = append(fixups, cachefile.Fixup{
			Offset: uint32(16 + 4*i), //nolint:gosec // test layout
			Kind:   cachefile.FixupTagID,
			Target: ref,
		})
	}
	return resident(path, class, data, nil, fixups)
}

func resident(path string, class cachefile.Class, data, assets []byte, fixups []cachefile.Fixup) *cachefile.Tag {
	return &cachefile.Tag{
		Class:       class,
		Parent:      cachefile.ClassNone,
		Grandparent: cachefile.ClassNone,
		Path:        path,
		Payload:     &cachefile.Resident{Address: Address, Data: data, Assets: assets, Fixups: fixups},
	}
}

// NewFile returns a retail multiplayer cache file holding tags.
func NewFile(tags ...*cachefile.Tag) *cachefile.File {
	return &cachefile.File{
		Engine:   cachefile.EngineRetail,
		Name:     "testmap",
		Build:    "01.00.00.0564",
		Type:     cachefile.MapMultiplayer,
		Scenario: -1,
		Tags:     tags,
	}
}

// Encode encodes f or fails the test.
func Encode(tb testing.TB, f *cachefile.File) []byte {
	tb.Helper()
	data, err := f.Encode()
	require.NoError(tb, err, "encode cache file")
	return data
}

// Load loads a cache file or fails the test.
func Load(tb testing.TB, data []byte) *cachefile.File {
	tb.Helper()
	f, err := cachefile.Load(data)
	require.NoError(tb, err, "load cache file")
	return f
}

// Pool builds a resource map used as a shared payload pool or as a target
// resource map.
type Pool struct {
	b *resourcemap.Builder
}

// NewPool returns a Pool for a resource map of typ.
func NewPool(typ resourcemap.Type) *Pool {
	return &Pool{b: resourcemap.NewBuilder(typ)}
}

// Add stores a resource and returns the absolute offset of its data.
func (p *Pool) Add(name string, data []byte) uint32 {
	return p.b.Add(name, data)
}

// Offset returns the absolute offset the next added resource will have.
func (p *Pool) Offset() uint32 {
	return p.b.Offset()
}

// Bytes encodes the pool or fails the test.
func (p *Pool) Bytes(tb testing.TB) []byte {
	tb.Helper()
	data, err := p.b.Bytes()
	require.NoError(tb, err, "encode resource map")
	return data
}

// Payload returns n bytes derived from seed. Different seeds give
// different contents.
func Payload(seed byte, n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = seed ^ byte(i*7+1)
	}
	return b
}

// SharedPool concatenates payloads into a source pool and returns shared
// blocks pointing at each payload.
func SharedPool(payloads ...[]byte) ([]byte, []Block) {
	var pool []byte
	blocks := make([]Block, len(payloads))
	for i, p := range payloads {
		blocks[i] = Block{Shared: true, Offset: uint32(len(pool)), Size: uint32(len(p))} //nolint:gosec // test sizes
		pool = append(pool, p...)
	}
	return pool, blocks
}

// AddBitmap adds a bitmap resource named name whose entries hold payloads,
// followed by a name+"__pixels" resource holding the payload bytes.
func (p *Pool) AddBitmap(name string, payloads ...[]byte) {
	meta, _ := BitmapData(0, make([]Block, len(payloads)))
	blocks, pixels := p.place(uint32(len(meta)), payloads) //nolint:gosec // test sizes
	meta, _ = BitmapData(0, blocks)
	p.Add(name, meta)
	p.Add(name+resourcemap.PixelsSuffix, pixels)
}

// AddSound adds a sound resource named name with one range per element of
// ranges, followed by a name+"__samples" resource holding the payload bytes.
func (p *Pool) AddSound(name string, ranges ...[][]byte) {
	shape := make([][]Block, len(ranges))
	var flat [][]byte
	for k, r := range ranges {
		shape[k] = make([]Block, len(r))
		flat = append(flat, r...)
	}
	meta, _ := SoundData(-soundHeaderSize, shape)
	blocks, samples := p.place(uint32(len(meta)), flat) //nolint:gosec // test sizes
	for k := range shape {
		n := copy(shape[k], blocks)
		blocks = blocks[n:]
	}
	meta, _ = SoundData(-soundHeaderSize, shape)
	p.Add(name, meta)
	p.Add(name+resourcemap.SamplesSuffix, samples)
}

// place lays payloads out back to back in the resource that follows a
// metadata resource of metaSize bytes.
func (p *Pool) place(metaSize uint32, payloads [][]byte) ([]Block, []byte) {
	off := p.Offset() + metaSize
	blocks := make([]Block, len(payloads))
	var data []byte
	for i, payload := range payloads {
		blocks[i] = Block{Shared: true, Offset: off, Size: uint32(len(payload))} //nolint:gosec // test sizes
		off += uint32(len(payload))                                             //nolint:gosec // test sizes
		data = append(data, payload...)
	}
	return blocks, data
}
