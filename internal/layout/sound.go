package layout

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Sound block sizes.
const (
	SoundRangeSize       = 0x48
	SoundPermutationSize = 124
)

const (
	rangePermutationCountOffset   = 0x3C
	rangePermutationPointerOffset = 0x40

	permutationSizeOffset   = 0x40
	permutationFlagsOffset  = 0x44
	permutationOffsetOffset = 0x48
)

// SoundRange is one 0x48-byte pitch range block.
type SoundRange []byte

// PermutationCount returns the number of permutations in the range.
func (r SoundRange) PermutationCount() uint32 {
	return binary.LittleEndian.Uint32(r[rangePermutationCountOffset:])
}

// PermutationPointer returns the stored pointer to the permutation table.
func (r SoundRange) PermutationPointer() uint32 {
	return binary.LittleEndian.Uint32(r[rangePermutationPointerOffset:])
}

// SoundPermutation is one 124-byte permutation block. It aliases the data it
// was read from; setters write through.
type SoundPermutation []byte

// Shared reports whether the sample data lives in the shared sample pool.
func (p SoundPermutation) Shared() bool {
	return p[permutationFlagsOffset]&sharedFlag != 0
}

// Size returns the sample data size.
func (p SoundPermutation) Size() uint32 {
	return binary.LittleEndian.Uint32(p[permutationSizeOffset:])
}

// Offset returns the sample data offset.
func (p SoundPermutation) Offset() uint32 {
	return binary.LittleEndian.Uint32(p[permutationOffsetOffset:])
}

// SetOffset replaces the sample data offset.
func (p SoundPermutation) SetOffset(v uint32) {
	binary.LittleEndian.PutUint32(p[permutationOffsetOffset:], v)
}

// SetPrivate clears the shared flag.
func (p SoundPermutation) SetPrivate() {
	p[permutationFlagsOffset] &^= sharedFlag
}

// RangeTable is the pitch range array of a sound tag or resource.
type RangeTable struct {
	raw []byte
	n   int
}

// Len returns the number of ranges.
func (t RangeTable) Len() int {
	return t.n
}

// At returns range i.
func (t RangeTable) At(i int) SoundRange {
	return SoundRange(t.raw[i*SoundRangeSize : (i+1)*SoundRangeSize])
}

// Clone returns a copy of the table detached from the underlying data, so
// writes to permutation blocks cannot alter range fields still to be read.
func (t RangeTable) Clone() RangeTable {
	return RangeTable{raw: bytes.Clone(t.raw), n: t.n}
}

// PermutationTable is the permutation array of one range.
type PermutationTable struct {
	raw []byte
	n   int
}

// Len returns the number of permutations.
func (t PermutationTable) Len() int {
	return t.n
}

// At returns permutation i.
func (t PermutationTable) At(i int) SoundPermutation {
	return SoundPermutation(t.raw[i*SoundPermutationSize : (i+1)*SoundPermutationSize])
}

// SoundRangeCount reads the range count of the sound header in data.
func SoundRangeCount(data []byte) (uint32, error) {
	return U32(data, SoundRangeCountOffset, "ranges.count")
}

// Ranges locates the range table of a sound tag through its stored pointer.
func Ranges(s Space) (RangeTable, error) {
	count, err := SoundRangeCount(s.Data)
	if err != nil {
		return RangeTable{}, err
	}
	if count == 0 {
		return RangeTable{}, nil
	}
	ptr, err := U32(s.Data, SoundRangePointerOffset, "ranges.pointer")
	if err != nil {
		return RangeTable{}, err
	}
	off, err := s.Offset(ptr, "ranges.pointer")
	if err != nil {
		return RangeTable{}, err
	}
	raw, err := table(s.Data, off, count, SoundRangeSize, "ranges")
	if err != nil {
		return RangeTable{}, err
	}
	return RangeTable{raw: raw, n: int(count)}, nil
}

// ResourceRanges locates the range table of a sound resource, which always
// follows the resource's header.
func ResourceRanges(data []byte) (RangeTable, error) {
	count, err := SoundRangeCount(data)
	if err != nil {
		return RangeTable{}, err
	}
	raw, err := table(data, SoundResourceHeaderSize, count, SoundRangeSize, "ranges")
	if err != nil {
		return RangeTable{}, err
	}
	return RangeTable{raw: raw, n: int(count)}, nil
}

// Permutations locates the permutation table of range i of a sound in s.
func Permutations(s Space, r SoundRange, i int) (PermutationTable, error) {
	field := fmt.Sprintf("range[%d].permutations", i)
	count := r.PermutationCount()
	if count == 0 {
		return PermutationTable{}, nil
	}
	off, err := s.Offset(r.PermutationPointer(), field)
	if err != nil {
		return PermutationTable{}, err
	}
	raw, err := table(s.Data, off, count, SoundPermutationSize, field)
	if err != nil {
		return PermutationTable{}, err
	}
	return PermutationTable{raw: raw, n: int(count)}, nil
}
