package resolve

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/meigma/combustion/cachefile"
	"github.com/meigma/combustion/internal/convtype"
	"github.com/meigma/combustion/internal/layout"
	"github.com/meigma/combustion/resourcemap"
)

// Bitmap resolves bitmap tag i. The tag must be resident.
//
// When the target bitmap map holds a resource whose every entry matches the
// tag's entries in size and pixel bytes, the tag becomes an indexed
// reference to the first such resource. Otherwise every shared entry's
// pixels are appended to the tag's private asset stream.
func (r *Resolver) Bitmap(i int, t *cachefile.Tag) (convtype.Outcome, error) {
	out := outcome(i, t)
	res, ok := t.Resident()
	if !ok {
		out.Action = convtype.ActionSkipped
		return out, nil
	}

	entries, err := layout.Bitmaps(layout.TagSpace(res.Data, res.Address))
	if err != nil {
		return out, tagError(i, t, err)
	}
	out.Blocks = entries.Len()
	src := bitmapSource{entries: entries, shared: r.pools.SourcePixels, private: res.Assets}

	if pool := r.pools.TargetBitmaps; pool != nil {
		idx, found, err := matchBitmap(src, pool, r.pools.TargetPixels)
		if err != nil {
			return out, tagError(i, t, err)
		}
		if found {
			t.Payload = &cachefile.External{ResourceIndex: uint32(idx), Indexed: true} //nolint:gosec // idx < resource count
			out.Action = convtype.ActionMatched
			out.Resource = idx
			r.log().Debug("bitmap matched", "tag", i, "path", t.Path, "resource", idx, "name", pool.Resources[idx].Name)
			return out, nil
		}
	}

	s := stream{data: res.Assets}
	for k := range entries.Len() {
		e := entries.At(k)
		if !e.Shared() {
			continue
		}
		field := fmt.Sprintf("bitmap[%d]", k)
		p, err := layout.Payload(r.pools.SourcePixels, e.Offset(), e.Size(), field+".pixels")
		if err != nil {
			return out, tagError(i, t, err)
		}
		off, err := s.appendPayload(p, field+".offset")
		if err != nil {
			return out, tagError(i, t, err)
		}
		e.SetOffset(off)
		e.SetPrivate()
	}
	res.Assets = s.data

	out.Action = convtype.ActionSkipped
	if s.appended > 0 {
		out.Action = convtype.ActionRepacked
	}
	out.RepackedBlocks = s.appended
	out.RepackedBytes = s.bytes
	out.Assets = res.Assets
	if s.appended > 0 {
		r.log().Debug("bitmap repacked", "tag", i, "path", t.Path, "entries", s.appended, "bytes", s.bytes)
	}
	return out, nil
}

// bitmapSource reads the pixels of a tag's bitmap entries.
type bitmapSource struct {
	entries layout.BitmapTable
	shared  []byte
	private []byte
}

func (s bitmapSource) pixels(k int) ([]byte, error) {
	e := s.entries.At(k)
	pool := s.private
	if e.Shared() {
		pool = s.shared
	}
	return layout.Payload(pool, e.Offset(), e.Size(), fmt.Sprintf("bitmap[%d].pixels", k))
}

// matchBitmap returns the index of the first non-pixel resource of pool
// whose entries all equal src's entries in size and pixel bytes.
func matchBitmap(src bitmapSource, pool *resourcemap.Map, pixels []byte) (int, bool, error) {
	for idx := range pool.Resources {
		rsrc := &pool.Resources[idx]
		if strings.HasSuffix(rsrc.Name, resourcemap.PixelsSuffix) {
			continue
		}
		ok, err := bitmapResourceMatches(src, idx, rsrc, pixels)
		if err != nil {
			return 0, false, err
		}
		if ok {
			return idx, true, nil
		}
	}
	return 0, false, nil
}

// bitmapResourceMatches compares src against resource idx. Errors reading
// the resource are reported under a "resource[idx]" field.
func bitmapResourceMatches(src bitmapSource, idx int, rsrc *resourcemap.Resource, pixels []byte) (bool, error) {
	at := fmt.Sprintf("resource[%d]", idx)
	count, err := layout.U32(rsrc.Data, layout.BitmapCountOffset, "bitmaps.count")
	if err != nil {
		return false, convtype.AtField(at, err)
	}
	if int(count) != src.entries.Len() {
		return false, nil
	}
	theirs, err := layout.Bitmaps(layout.BitmapResourceSpace(rsrc.Data))
	if err != nil {
		return false, convtype.AtField(at, err)
	}
	for k := range src.entries.Len() {
		e := theirs.At(k)
		if e.Size() != src.entries.At(k).Size() {
			return false, nil
		}
		want, err := layout.Payload(pixels, e.Offset(), e.Size(), fmt.Sprintf("bitmap[%d].pixels", k))
		if err != nil {
			return false, convtype.AtField(at, err)
		}
		have, err := src.pixels(k)
		if err != nil {
			return false, err
		}
		if !bytes.Equal(have, want) {
			return false, nil
		}
	}
	return true, nil
}
