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

// Sound resolves sound tag i. The tag must be resident.
//
// A sound with no pitch ranges is skipped. When the target sound map holds a
// resource whose ranges and permutations all match the tag's in count, size
// and sample bytes, the tag becomes a reference to the first such resource
// and takes the resource's name as its path. Otherwise every shared
// permutation's samples are appended to the tag's private asset stream.
func (r *Resolver) Sound(i int, t *cachefile.Tag) (convtype.Outcome, error) {
	out := outcome(i, t)
	res, ok := t.Resident()
	if !ok {
		out.Action = convtype.ActionSkipped
		return out, nil
	}

	space := layout.TagSpace(res.Data, res.Address)
	ranges, err := layout.Ranges(space)
	if err != nil {
		return out, tagError(i, t, err)
	}
	if ranges.Len() == 0 {
		out.Action = convtype.ActionSkipped
		return out, nil
	}
	// Permutation blocks are rewritten in place below; read range fields
	// from a detached copy.
	ranges = ranges.Clone()

	perms := make([]layout.PermutationTable, ranges.Len())
	for k := range ranges.Len() {
		perms[k], err = layout.Permutations(space, ranges.At(k), k)
		if err != nil {
			return out, tagError(i, t, err)
		}
		out.Blocks += perms[k].Len()
	}
	src := soundSource{perms: perms, shared: r.pools.SourceSamples, private: res.Assets}

	if pool := r.pools.TargetSounds; pool != nil {
		idx, found, err := matchSound(src, pool, r.pools.TargetSamples)
		if err != nil {
			return out, tagError(i, t, err)
		}
		if found {
			name := pool.Resources[idx].Name
			t.Payload = &cachefile.External{}
			t.Path = name
			out.Action = convtype.ActionMatched
			out.Resource = idx
			out.Path = name
			r.log().Debug("sound matched", "tag", i, "resource", idx, "name", name)
			return out, nil
		}
	}

	s := stream{data: res.Assets}
	for k, table := range perms {
		for j := range table.Len() {
			p := table.At(j)
			if !p.Shared() {
				continue
			}
			field := fmt.Sprintf("range[%d].permutation[%d]", k, j)
			samples, err := layout.Payload(r.pools.SourceSamples, p.Offset(), p.Size(), field+".samples")
			if err != nil {
				return out, tagError(i, t, err)
			}
			off, err := s.appendPayload(samples, field+".offset")
			if err != nil {
				return out, tagError(i, t, err)
			}
			p.SetOffset(off)
			p.SetPrivate()
		}
	}
	res.Assets = s.data

	out.Action = convtype.ActionSkipped
	if s.appended > 0 {
		out.Action = convtype.ActionRepacked
		r.log().Debug("sound repacked", "tag", i, "path", t.Path, "permutations", s.appended, "bytes", s.bytes)
	}
	out.RepackedBlocks = s.appended
	out.RepackedBytes = s.bytes
	out.Assets = res.Assets
	return out, nil
}

// soundSource reads the samples of a tag's permutations.
type soundSource struct {
	perms   []layout.PermutationTable
	shared  []byte
	private []byte
}

func (s soundSource) samples(k, j int) ([]byte, error) {
	p := s.perms[k].At(j)
	pool := s.private
	if p.Shared() {
		pool = s.shared
	}
	return layout.Payload(pool, p.Offset(), p.Size(), fmt.Sprintf("range[%d].permutation[%d].samples", k, j))
}

// matchSound returns the index of the first non-sample resource of pool
// whose every range and permutation equals src's.
func matchSound(src soundSource, pool *resourcemap.Map, samples []byte) (int, bool, error) {
	for idx := range pool.Resources {
		rsrc := &pool.Resources[idx]
		if strings.HasSuffix(rsrc.Name, resourcemap.SamplesSuffix) {
			continue
		}
		ok, err := soundResourceMatches(src, idx, rsrc, samples)
		if err != nil {
			return 0, false, err
		}
		if ok {
			return idx, true, nil
		}
	}
	return 0, false, nil
}

func soundResourceMatches(src soundSource, idx int, rsrc *resourcemap.Resource, samples []byte) (bool, error) {
	at := fmt.Sprintf("resource[%d]", idx)
	count, err := layout.SoundRangeCount(rsrc.Data)
	if err != nil {
		return false, convtype.AtField(at, err)
	}
	if int(count) != len(src.perms) {
		return false, nil
	}
	ranges, err := layout.ResourceRanges(rsrc.Data)
	if err != nil {
		return false, convtype.AtField(at, err)
	}
	space := layout.SoundResourceSpace(rsrc.Data)
	for k := range ranges.Len() {
		rg := ranges.At(k)
		if int(rg.PermutationCount()) != src.perms[k].Len() {
			return false, nil
		}
		theirs, err := layout.Permutations(space, rg, k)
		if err != nil {
			return false, convtype.AtField(at, err)
		}
		for j := range theirs.Len() {
			p := theirs.At(j)
			if p.Size() != src.perms[k].At(j).Size() {
				return false, nil
			}
			want, err := layout.Payload(samples, p.Offset(), p.Size(), fmt.Sprintf("range[%d].permutation[%d].samples", k, j))
			if err != nil {
				return false, convtype.AtField(at, err)
			}
			have, err := src.samples(k, j)
			if err != nil {
				return false, err
			}
			if !bytes.Equal(have, want) {
				return false, nil
			}
		}
	}
	return true, nil
}
