package layout

import (
	"encoding/binary"

	"github.com/meigma/combustion/internal/convtype"
	"github.com/meigma/combustion/internal/sizing"
)

// Bitmap tag header fields.
const (
	BitmapCountOffset   = 0x60
	BitmapPointerOffset = 0x64
)

// Sound tag header fields.
const (
	SoundRangeCountOffset   = 0x98
	SoundRangePointerOffset = 0x9C

	// SoundResourceHeaderSize is the size of the sound header stored in a
	// sound resource. Range tables follow it directly and permutation
	// pointers are relative to its end.
	SoundResourceHeaderSize = 0xA4
)

// sharedFlag marks a payload as stored in the shared pool rather than the
// tag's private asset stream.
const sharedFlag = 0x01

// U32 reads a little-endian uint32 at off.
func U32(buf []byte, off uint64, field string) (uint32, error) {
	b, err := Slice(buf, off, 4, field)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// PutU32 writes a little-endian uint32 at off.
func PutU32(buf []byte, off uint64, v uint32, field string) error {
	b, err := Slice(buf, off, 4, field)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(b, v)
	return nil
}

// Slice returns buf[off:off+size] after checking the range fits.
// The returned slice aliases buf and is capped at its length.
func Slice(buf []byte, off, size uint64, field string) ([]byte, error) {
	if !sizing.InBounds(off, size, len(buf)) {
		return nil, convtype.Malformed(field, "range [%#x, +%#x) outside buffer of %#x bytes", off, size, len(buf))
	}
	return buf[off : off+size : off+size], nil
}

// table returns count consecutive blocks of stride bytes starting at off.
func table(buf []byte, off uint64, count uint32, stride uint64, field string) ([]byte, error) {
	size, ok := sizing.MulUint64(uint64(count), stride)
	if !ok {
		return nil, convtype.Malformed(field, "%d blocks of %#x bytes overflow", count, stride)
	}
	return Slice(buf, off, size, field)
}

// Space is a buffer whose stored pointers are relative to Base.
//
// Tag data uses its memory address as Base. Bitmap resources store
// buffer-relative pointers (Base 0). Sound resources store pointers relative
// to the end of their header (Base -SoundResourceHeaderSize).
type Space struct {
	Data []byte
	Base int64
}

// TagSpace returns the space of a tag's structured data loaded at address.
func TagSpace(data []byte, address uint32) Space {
	return Space{Data: data, Base: int64(address)}
}

// BitmapResourceSpace returns the space of a bitmap resource.
func BitmapResourceSpace(data []byte) Space {
	return Space{Data: data}
}

// SoundResourceSpace returns the space of a sound resource.
func SoundResourceSpace(data []byte) Space {
	return Space{Data: data, Base: -SoundResourceHeaderSize}
}

// Offset translates a stored pointer into an offset within s.Data.
func (s Space) Offset(ptr uint32, field string) (uint64, error) {
	off := int64(ptr) - s.Base
	if off < 0 {
		return 0, convtype.Malformed(field, "pointer %#x below base %#x", ptr, s.Base)
	}
	return uint64(off), nil
}

// Payload returns the size bytes at offset within pool.
func Payload(pool []byte, offset, size uint32, field string) ([]byte, error) {
	return Slice(pool, uint64(offset), uint64(size), field)
}
