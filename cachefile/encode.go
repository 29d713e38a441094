package cachefile

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"math"
)

// Encode serializes f to a cache file.
//
// Tags are laid out in tag array order. Resident tags receive new
// addresses; their pointer fixups are relocated and their tag ID fixups are
// rewritten to the IDs of the referenced tags. f itself is not modified.
func (f *File) Encode() ([]byte, error) {
	if len(f.Tags) > maxTags {
		return nil, fmt.Errorf("%w: %d tags exceeds the limit of %d", ErrEncode, len(f.Tags), maxTags)
	}
	if len(f.Name) >= hdrStringSize || len(f.Build) >= hdrStringSize {
		return nil, fmt.Errorf("%w: name and build must be shorter than %d bytes", ErrEncode, hdrStringSize)
	}
	if f.Scenario < -1 || f.Scenario >= len(f.Tags) {
		return nil, fmt.Errorf("%w: scenario index %d out of range", ErrEncode, f.Scenario)
	}

	l, err := f.plan()
	if err != nil {
		return nil, err
	}

	out := make([]byte, l.fileSize)
	put32(out, hdrMagic, headMagic)
	put32(out, hdrEngine, uint32(f.Engine))
	put32(out, hdrFileSize, uint32(l.fileSize))
	put32(out, hdrTagOffset, uint32(l.tagOffset))
	put32(out, hdrTagSize, uint32(l.tagSize))
	put32(out, hdrAssetOffset, headerSize)
	put32(out, hdrAssetSize, uint32(l.assetSize))
	copy(out[hdrName:hdrName+hdrStringSize], f.Name)
	copy(out[hdrBuild:hdrBuild+hdrStringSize], f.Build)
	binary.LittleEndian.PutUint16(out[hdrMapType:], uint16(f.Type))
	put32(out, hdrFoot, footMagic)

	assets := out[headerSize : headerSize+l.assetSize]
	tags := out[l.tagOffset : l.tagOffset+l.tagSize]

	put32(tags, regTagArray, address(regionHeaderSize))
	scenario := nullTagID
	if f.Scenario >= 0 {
		scenario = TagID(f.Scenario)
	}
	put32(tags, regScenario, scenario)
	put32(tags, regTagCount, uint32(len(f.Tags))) //nolint:gosec // bounded by maxTags
	put32(tags, regMagic, tagsMagic)

	for i, t := range f.Tags {
		p := l.tags[i]
		e := tags[regionHeaderSize+i*tagEntrySize:]
		put32(e, entClass, uint32(t.Class))
		put32(e, entParent, uint32(t.Parent))
		put32(e, entGrandparent, uint32(t.Grandparent))
		put32(e, entID, TagID(i))
		put32(e, entPath, address(p.path))
		copy(tags[p.path:], t.Path)

		switch payload := t.Payload.(type) {
		case *External:
			flags := flagExternal
			if payload.Indexed {
				flags |= flagIndexed
			}
			put32(e, entFlags, flags)
			put32(e, entData, payload.ResourceIndex)
		case *Resident:
			var flags uint32
			if payload.Assets != nil {
				flags |= flagHasAssets
				copy(assets[p.assets:], payload.Assets)
			}
			put32(e, entFlags, flags)
			put32(e, entData, address(p.data))
			put32(e, entDataSize, uint32(len(payload.Data)))
			put32(e, entAssetOffset, uint32(p.assets))
			put32(e, entAssetSize, uint32(len(payload.Assets)))
			put32(e, entFixupAddress, address(p.fixups))
			put32(e, entFixupCount, uint32(len(payload.Fixups)))

			data := tags[p.data : p.data+uint64(len(payload.Data))]
			copy(data, payload.Data)
			if err := f.relocate(i, payload, data, address(p.data), tags[p.fixups:]); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("%w: tag %d has no payload", ErrEncode, i)
		}
	}

	put32(out, hdrChecksum, crc32.ChecksumIEEE(out[headerSize:]))
	return out, nil
}

// relocate applies a tag's fixups to its copied data and writes its fixup table.
func (f *File) relocate(i int, r *Resident, data []byte, newAddr uint32, table []byte) error {
	for j, fx := range r.Fixups {
		if uint64(fx.Offset)+4 > uint64(len(data)) {
			return fmt.Errorf("%w: tag %d fixup %d at %#x outside %#x bytes of data", ErrEncode, i, j, fx.Offset, len(data))
		}
		at := data[fx.Offset:]
		switch fx.Kind {
		case FixupPointer:
			if v := binary.LittleEndian.Uint32(at); v != 0 {
				binary.LittleEndian.PutUint32(at, v-r.Address+newAddr)
			}
		case FixupTagID:
			if fx.Target < 0 || fx.Target >= len(f.Tags) {
				return fmt.Errorf("%w: tag %d fixup %d references missing tag %d", ErrEncode, i, j, fx.Target)
			}
			binary.LittleEndian.PutUint32(at, TagID(fx.Target))
		default:
			return fmt.Errorf("%w: tag %d fixup %d has unknown kind %d", ErrEncode, i, j, fx.Kind)
		}
		put32(table, uint64(j*fixupEntrySize), fx.Offset)
		put32(table, uint64(j*fixupEntrySize+4), uint32(fx.Kind))
	}
	return nil
}

// placement records where a tag's pieces land within the tag and asset regions.
type placement struct {
	path   uint64
	data   uint64
	fixups uint64
	assets uint64
}

type layoutPlan struct {
	tags      []placement
	assetSize uint64
	tagOffset uint64
	tagSize   uint64
	fileSize  uint64
}

func (f *File) plan() (layoutPlan, error) {
	l := layoutPlan{tags: make([]placement, len(f.Tags))}

	off := uint64(regionHeaderSize) + uint64(len(f.Tags))*tagEntrySize
	for i, t := range f.Tags {
		l.tags[i].path = off
		off += uint64(len(t.Path)) + 1
	}
	off = align4(off)
	for i, t := range f.Tags {
		if r, ok := t.Resident(); ok {
			l.tags[i].data = off
			off = align4(off + uint64(len(r.Data)))
			l.tags[i].assets = l.assetSize
			l.assetSize += uint64(len(r.Assets))
		}
	}
	for i, t := range f.Tags {
		if r, ok := t.Resident(); ok {
			l.tags[i].fixups = off
			off += uint64(len(r.Fixups)) * fixupEntrySize
		}
	}
	l.tagSize = off
	l.tagOffset = align4(headerSize + l.assetSize)
	l.fileSize = l.tagOffset + l.tagSize

	if l.tagSize > uint64(math.MaxUint32-BaseAddress) {
		return layoutPlan{}, fmt.Errorf("%w: tag region of %d bytes does not fit the address space", ErrEncode, l.tagSize)
	}
	if l.fileSize > math.MaxUint32 {
		return layoutPlan{}, fmt.Errorf("%w: file of %d bytes exceeds 4 GiB", ErrEncode, l.fileSize)
	}
	return l, nil
}

func address(off uint64) uint32 {
	return BaseAddress + uint32(off) //nolint:gosec // plan bounds the tag region
}

func put32(buf []byte, off uint64, v uint32) {
	binary.LittleEndian.PutUint32(buf[off:], v)
}
