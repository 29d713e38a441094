// Package cachefile reads and writes cache files: the binary containers
// that hold a map's tag collection.
//
// A cache file consists of three regions:
//   - Header: a fixed 0x800-byte block carrying the engine marker, map
//     name, region extents and a CRC32 of the rest of the file
//   - Asset region: every tag's private asset stream, concatenated
//   - Tag region: the tag array, tag paths, tag data blocks and their
//     fixup tables, laid out as if loaded at [BaseAddress]
//
// Pointers stored inside tag data are absolute addresses. Each tag carries a
// fixup table naming every pointer and every tag reference in its data, so
// [File.Encode] can move tags to new addresses and [File.InsertClosure] can
// copy tags between files.
//
// [Load] copies tag data out of the input buffer; tags may be mutated freely
// and the input is never written.
package cachefile
