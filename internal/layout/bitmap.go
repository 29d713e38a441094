package layout

import "encoding/binary"

// BitmapEntrySize is the size of one bitmap entry block.
const BitmapEntrySize = 48

const (
	bitmapFlagsOffset  = 0x0F
	bitmapOffsetOffset = 0x18
	bitmapSizeOffset   = 0x1C
)

// BitmapEntry is one 48-byte bitmap block. It aliases the tag or resource
// data it was read from; setters write through.
type BitmapEntry []byte

// Shared reports whether the pixel data lives in the shared pixel pool.
func (e BitmapEntry) Shared() bool {
	return e[bitmapFlagsOffset]&sharedFlag != 0
}

// Size returns the pixel data size.
func (e BitmapEntry) Size() uint32 {
	return binary.LittleEndian.Uint32(e[bitmapSizeOffset:])
}

// Offset returns the pixel data offset.
func (e BitmapEntry) Offset() uint32 {
	return binary.LittleEndian.Uint32(e[bitmapOffsetOffset:])
}

// SetOffset replaces the pixel data offset.
func (e BitmapEntry) SetOffset(v uint32) {
	binary.LittleEndian.PutUint32(e[bitmapOffsetOffset:], v)
}

// SetPrivate clears the shared flag: the pixel data now lives in the tag's
// private asset stream.
func (e BitmapEntry) SetPrivate() {
	e[bitmapFlagsOffset] &^= sharedFlag
}

// BitmapTable is the array of bitmap entries of one bitmap tag or resource.
type BitmapTable struct {
	raw []byte
	n   int
}

// Len returns the number of entries.
func (t BitmapTable) Len() int {
	return t.n
}

// At returns entry i. It panics if i is out of range, like a slice index.
func (t BitmapTable) At(i int) BitmapEntry {
	return BitmapEntry(t.raw[i*BitmapEntrySize : (i+1)*BitmapEntrySize])
}

// Bitmaps locates the bitmap entry table of the bitmap data in s.
func Bitmaps(s Space) (BitmapTable, error) {
	count, err := U32(s.Data, BitmapCountOffset, "bitmaps.count")
	if err != nil {
		return BitmapTable{}, err
	}
	if count == 0 {
		return BitmapTable{}, nil
	}
	ptr, err := U32(s.Data, BitmapPointerOffset, "bitmaps.pointer")
	if err != nil {
		return BitmapTable{}, err
	}
	off, err := s.Offset(ptr, "bitmaps.pointer")
	if err != nil {
		return BitmapTable{}, err
	}
	raw, err := table(s.Data, off, count, BitmapEntrySize, "bitmaps")
	if err != nil {
		return BitmapTable{}, err
	}
	return BitmapTable{raw: raw, n: int(count)}, nil
}
