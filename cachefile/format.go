package cachefile

// On-disk layout constants.
const (
	// BaseAddress is the address the tag region is laid out at.
	BaseAddress uint32 = 0x40440000

	headerSize        = 0x800
	headMagic  uint32 = 0x68656164 // head
	footMagic  uint32 = 0x666F6F74 // foot
	tagsMagic  uint32 = 0x74616773 // tags

	hdrMagic         = 0x000
	hdrEngine        = 0x004
	hdrFileSize      = 0x008
	hdrTagOffset     = 0x010
	hdrTagSize       = 0x014
	hdrAssetOffset   = 0x018
	hdrAssetSize     = 0x01C
	hdrName          = 0x020
	hdrBuild         = 0x040
	hdrMapType       = 0x060
	hdrChecksum      = 0x064
	hdrFoot          = 0x7FC
	hdrStringSize    = 32
	regionHeaderSize = 0x28

	regTagArray = 0x00
	regScenario = 0x04
	regTagCount = 0x0C
	regMagic    = 0x24

	tagEntrySize    = 0x30
	entClass        = 0x00
	entParent       = 0x04
	entGrandparent  = 0x08
	entID           = 0x0C
	entPath         = 0x10
	entData         = 0x14
	entFlags        = 0x18
	entDataSize     = 0x1C
	entAssetOffset  = 0x20
	entAssetSize    = 0x24
	entFixupAddress = 0x28
	entFixupCount   = 0x2C

	fixupEntrySize = 8

	flagExternal  uint32 = 1 << 0
	flagHasAssets uint32 = 1 << 1
	flagIndexed   uint32 = 1 << 2

	firstTagID uint32 = 0xE1740000
	tagIDStep  uint32 = 0x00010001
	nullTagID  uint32 = 0xFFFFFFFF
	maxTags           = 0xFFFF
)

// TagID returns the ID of the tag at index i.
func TagID(i int) uint32 {
	return firstTagID + uint32(i)*tagIDStep //nolint:gosec // i < maxTags
}

// tagIndex returns the index encoded in id and whether id is the ID a tag
// at that index would carry.
func tagIndex(id uint32) (int, bool) {
	i := int(id & 0xFFFF)
	return i, TagID(i) == id
}

func align4(n uint64) uint64 {
	return (n + 3) &^ 3
}
