package cachefile

import "fmt"

// InsertClosure copies tag root of src, and every tag it references
// directly or transitively, into f. It returns the index of root in f.
//
// A tag whose path and class already exist in f is not copied; the existing
// tag is used and its references are not followed. Copied tags are appended
// to f.Tags and their tag references are rewritten to indices in f.
func (f *File) InsertClosure(src *File, root int) (int, error) {
	if root < 0 || root >= len(src.Tags) {
		return 0, fmt.Errorf("%w: insert root %d out of range", ErrFormat, root)
	}
	c := closure{dst: f, src: src, copied: make(map[int]int)}
	return c.insert(root)
}

type closure struct {
	dst    *File
	src    *File
	copied map[int]int // src index -> dst index
}

func (c *closure) insert(i int) (int, error) {
	if j, ok := c.copied[i]; ok {
		return j, nil
	}
	t := c.src.Tags[i]
	if j, ok := c.dst.Find(t.Path, t.Class); ok {
		c.copied[i] = j
		return j, nil
	}
	if len(c.dst.Tags) >= maxTags {
		return 0, fmt.Errorf("%w: tag limit of %d reached", ErrEncode, maxTags)
	}

	clone := t.Clone()
	j := len(c.dst.Tags)
	c.dst.Tags = append(c.dst.Tags, clone)
	// Record before descending so reference cycles terminate.
	c.copied[i] = j

	r, ok := clone.Resident()
	if !ok {
		return j, nil
	}
	for k := range r.Fixups {
		fx := &r.Fixups[k]
		if fx.Kind != FixupTagID {
			continue
		}
		if fx.Target < 0 || fx.Target >= len(c.src.Tags) {
			return 0, fmt.Errorf("%w: tag %d references missing tag %d", ErrFormat, i, fx.Target)
		}
		target, err := c.insert(fx.Target)
		if err != nil {
			return 0, err
		}
		fx.Target = target
	}
	return j, nil
}
