package cachefile

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/meigma/combustion/internal/sizing"
)

// region is a bounds-checked view of a byte range.
type region struct {
	buf  []byte
	name string
}

func (r region) slice(off, size uint64) ([]byte, error) {
	if !sizing.InBounds(off, size, len(r.buf)) {
		return nil, fmt.Errorf("%w: %s range [%#x, +%#x) outside %#x bytes", ErrFormat, r.name, off, size, len(r.buf))
	}
	return r.buf[off : off+size], nil
}

func (r region) u32(off uint64) (uint32, error) {
	b, err := r.slice(off, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// cstring reads a NUL-terminated string starting at off.
func (r region) cstring(off uint64) (string, error) {
	if off >= uint64(len(r.buf)) {
		return "", fmt.Errorf("%w: %s string at %#x outside %#x bytes", ErrFormat, r.name, off, len(r.buf))
	}
	rest := r.buf[off:]
	end := bytes.IndexByte(rest, 0)
	if end < 0 {
		return "", fmt.Errorf("%w: %s string at %#x is not terminated", ErrFormat, r.name, off)
	}
	return string(rest[:end]), nil
}

// Load parses a cache file.
//
// Tag data and asset streams are copied; the returned File does not alias
// data and data is never modified.
func Load(data []byte) (*File, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: %d bytes is smaller than the header", ErrFormat, len(data))
	}
	hdr := region{buf: data[:headerSize], name: "header"}
	if m, _ := hdr.u32(hdrMagic); m != headMagic {
		return nil, fmt.Errorf("%w: bad header magic %#08x", ErrFormat, m)
	}
	if m, _ := hdr.u32(hdrFoot); m != footMagic {
		return nil, fmt.Errorf("%w: bad footer magic %#08x", ErrFormat, m)
	}
	engine, _ := hdr.u32(hdrEngine)
	fileSize, _ := hdr.u32(hdrFileSize)
	if uint64(fileSize) != uint64(len(data)) {
		return nil, fmt.Errorf("%w: header declares %d bytes, have %d", ErrFormat, fileSize, len(data))
	}

	whole := region{buf: data, name: "file"}
	tagOff, _ := hdr.u32(hdrTagOffset)
	tagSize, _ := hdr.u32(hdrTagSize)
	tagBuf, err := whole.slice(uint64(tagOff), uint64(tagSize))
	if err != nil {
		return nil, fmt.Errorf("tag region: %w", err)
	}
	assetOff, _ := hdr.u32(hdrAssetOffset)
	assetSize, _ := hdr.u32(hdrAssetSize)
	assetBuf, err := whole.slice(uint64(assetOff), uint64(assetSize))
	if err != nil {
		return nil, fmt.Errorf("asset region: %w", err)
	}

	f := &File{
		Engine: Engine(engine),
		Name:   headerString(data[hdrName : hdrName+hdrStringSize]),
		Build:  headerString(data[hdrBuild : hdrBuild+hdrStringSize]),
		Type:   MapType(binary.LittleEndian.Uint16(data[hdrMapType:])),
	}

	d := decoder{
		tags:   region{buf: tagBuf, name: "tag region"},
		assets: region{buf: assetBuf, name: "asset region"},
	}
	if err := d.decode(f); err != nil {
		return nil, err
	}
	return f, nil
}

func headerString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

type decoder struct {
	tags   region
	assets region
	count  int
}

// offset translates an address in the tag region to an offset.
func (d *decoder) offset(addr uint32, what string) (uint64, error) {
	if addr < BaseAddress {
		return 0, fmt.Errorf("%w: %s address %#08x below base", ErrFormat, what, addr)
	}
	return uint64(addr - BaseAddress), nil
}

func (d *decoder) decode(f *File) error {
	if m, err := d.tags.u32(regMagic); err != nil || m != tagsMagic {
		return fmt.Errorf("%w: bad tag region magic", ErrFormat)
	}
	arrayAddr, _ := d.tags.u32(regTagArray)
	scenarioID, _ := d.tags.u32(regScenario)
	count, _ := d.tags.u32(regTagCount)
	if count > maxTags {
		return fmt.Errorf("%w: %d tags exceeds the limit of %d", ErrFormat, count, maxTags)
	}
	d.count = int(count)

	arrayOff, err := d.offset(arrayAddr, "tag array")
	if err != nil {
		return err
	}
	array, err := d.tags.slice(arrayOff, uint64(count)*tagEntrySize)
	if err != nil {
		return fmt.Errorf("tag array: %w", err)
	}

	f.Scenario = -1
	if scenarioID != nullTagID {
		idx, err := d.resolveID(scenarioID)
		if err != nil {
			return fmt.Errorf("scenario: %w", err)
		}
		f.Scenario = idx
	}

	f.Tags = make([]*Tag, 0, count)
	for i := range d.count {
		entry := region{buf: array[i*tagEntrySize : (i+1)*tagEntrySize], name: "tag entry"}
		t, err := d.decodeTag(i, entry)
		if err != nil {
			return fmt.Errorf("tag %d: %w", i, err)
		}
		f.Tags = append(f.Tags, t)
	}
	return nil
}

func (d *decoder) resolveID(id uint32) (int, error) {
	idx, ok := tagIndex(id)
	if !ok || idx >= d.count {
		return 0, fmt.Errorf("%w: tag id %#08x does not name a tag", ErrFormat, id)
	}
	return idx, nil
}

func (d *decoder) decodeTag(i int, e region) (*Tag, error) {
	u := func(off uint64) uint32 {
		v, _ := e.u32(off) // e is exactly one entry long
		return v
	}
	if id := u(entID); id != TagID(i) {
		return nil, fmt.Errorf("%w: tag id %#08x, want %#08x", ErrFormat, id, TagID(i))
	}
	pathOff, err := d.offset(u(entPath), "path")
	if err != nil {
		return nil, err
	}
	path, err := d.tags.cstring(pathOff)
	if err != nil {
		return nil, err
	}
	t := &Tag{
		Class:       Class(u(entClass)),
		Parent:      Class(u(entParent)),
		Grandparent: Class(u(entGrandparent)),
		Path:        path,
	}

	flags := u(entFlags)
	if flags&flagExternal != 0 {
		t.Payload = &External{
			ResourceIndex: u(entData),
			Indexed:       flags&flagIndexed != 0,
		}
		return t, nil
	}

	addr := u(entData)
	dataOff, err := d.offset(addr, "data")
	if err != nil {
		return nil, err
	}
	raw, err := d.tags.slice(dataOff, uint64(u(entDataSize)))
	if err != nil {
		return nil, fmt.Errorf("data: %w", err)
	}
	res := &Resident{
		Address: addr,
		Data:    bytes.Clone(raw),
	}
	if res.Data == nil {
		res.Data = []byte{}
	}
	if flags&flagHasAssets != 0 {
		assets, err := d.assets.slice(uint64(u(entAssetOffset)), uint64(u(entAssetSize)))
		if err != nil {
			return nil, fmt.Errorf("assets: %w", err)
		}
		res.Assets = append(make([]byte, 0, len(assets)), assets...)
	}

	fixups, err := d.decodeFixups(res.Data, u(entFixupAddress), u(entFixupCount))
	if err != nil {
		return nil, err
	}
	res.Fixups = fixups
	t.Payload = res
	return t, nil
}

func (d *decoder) decodeFixups(data []byte, addr, count uint32) ([]Fixup, error) {
	if count == 0 {
		return nil, nil
	}
	off, err := d.offset(addr, "fixup table")
	if err != nil {
		return nil, err
	}
	raw, err := d.tags.slice(off, uint64(count)*fixupEntrySize)
	if err != nil {
		return nil, fmt.Errorf("fixup table: %w", err)
	}
	dataRegion := region{buf: data, name: "tag data"}
	fixups := make([]Fixup, 0, count)
	for j := range int(count) {
		at := raw[j*fixupEntrySize:]
		fx := Fixup{
			Offset: binary.LittleEndian.Uint32(at),
			Kind:   FixupKind(binary.LittleEndian.Uint32(at[4:])),
		}
		v, err := dataRegion.u32(uint64(fx.Offset))
		if err != nil {
			return nil, fmt.Errorf("fixup %d: %w", j, err)
		}
		switch fx.Kind {
		case FixupPointer:
		case FixupTagID:
			target, err := d.resolveID(v)
			if err != nil {
				return nil, fmt.Errorf("fixup %d: %w", j, err)
			}
			fx.Target = target
		default:
			return nil, fmt.Errorf("%w: fixup %d has unknown kind %d", ErrFormat, j, fx.Kind)
		}
		fixups = append(fixups, fx)
	}
	return fixups, nil
}
