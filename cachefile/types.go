package cachefile

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors.
var (
	// ErrFormat is returned when a buffer is not a well-formed cache file.
	ErrFormat = errors.New("cachefile: malformed cache file")

	// ErrEncode is returned when a File cannot be encoded.
	ErrEncode = errors.New("cachefile: cannot encode")
)

// Class is a four-character tag class code.
type Class uint32

// Tag classes the converter recognizes.
const (
	ClassBitmap        Class = 0x6269746D // bitm
	ClassSound         Class = 0x736E6421 // snd!
	ClassTagCollection Class = 0x74616763 // tagc
	ClassNone          Class = 0xFFFFFFFF
)

// String returns the class as its four characters, e.g. "bitm".
func (c Class) String() string {
	if c == ClassNone {
		return "none"
	}
	b := []byte{byte(c >> 24), byte(c >> 16), byte(c >> 8), byte(c)}
	return strings.TrimRight(string(b), " ")
}

// ParseClass parses a class code of up to four characters.
func ParseClass(s string) (Class, error) {
	if len(s) == 0 || len(s) > 4 {
		return 0, fmt.Errorf("invalid tag class %q", s)
	}
	var c Class
	for i := range 4 {
		ch := byte(' ')
		if i < len(s) {
			ch = s[i]
		}
		c = c<<8 | Class(ch)
	}
	return c, nil
}

// Engine identifies the runtime a cache file was built for.
type Engine uint32

// Engines.
const (
	EngineXbox          Engine = 5
	EngineRetail        Engine = 7
	EngineCustomEdition Engine = 0x261
)

// String returns the engine name.
func (e Engine) String() string {
	switch e {
	case EngineXbox:
		return "xbox"
	case EngineRetail:
		return "retail"
	case EngineCustomEdition:
		return "custom-edition"
	default:
		return fmt.Sprintf("unknown(%d)", uint32(e))
	}
}

// ParseEngine parses an engine name as returned by Engine.String.
func ParseEngine(name string) (Engine, error) {
	switch name {
	case "xbox":
		return EngineXbox, nil
	case "retail":
		return EngineRetail, nil
	case "custom-edition", "ce":
		return EngineCustomEdition, nil
	default:
		return 0, fmt.Errorf("unknown engine %q", name)
	}
}

// MapType is the kind of scenario a cache file holds.
type MapType uint16

// Map types.
const (
	MapSingleplayer MapType = iota
	MapMultiplayer
	MapUserInterface
)

// File is a decoded cache file.
type File struct {
	// Engine is the runtime the file targets.
	Engine Engine

	// Name is the scenario name stored in the header (at most 31 bytes).
	Name string

	// Build is the build string stored in the header (at most 31 bytes).
	Build string

	// Type is the kind of scenario.
	Type MapType

	// Scenario is the index of the scenario tag, or -1.
	Scenario int

	// Tags is the tag array in file order. Tag indices are positions in
	// this slice; references between tags are expressed as indices.
	Tags []*Tag
}

// Tag is one entry of the tag array.
type Tag struct {
	// Class is the tag's primary class.
	Class Class

	// Parent and Grandparent are the classes Class derives from, or ClassNone.
	Parent      Class
	Grandparent Class

	// Path is the tag's symbolic path, e.g. `sound\sfx\ui\cursor`.
	Path string

	// Payload is either *Resident or *External.
	Payload Payload
}

// Payload is the content of a tag: its own data, or a reference to a
// resource map entry.
type Payload interface {
	payload()
}

// Resident is the payload of a tag that carries its own data.
type Resident struct {
	// Address is the memory address Data was laid out at. Pointers stored
	// in Data are absolute and translate to offsets as pointer-Address.
	Address uint32

	// Data is the tag's structured data.
	Data []byte

	// Assets is the tag's private asset stream, or nil when the tag has none.
	Assets []byte

	// Fixups names every pointer and tag reference stored in Data.
	Fixups []Fixup
}

// External is the payload of a tag satisfied by a resource map entry.
type External struct {
	// ResourceIndex identifies the resource when Indexed is true.
	ResourceIndex uint32

	// Indexed reports whether ResourceIndex is meaningful. Tags resolved
	// by path (sounds) are not indexed; their Path names the resource.
	Indexed bool
}

func (*Resident) payload() {}
func (*External) payload() {}

// FixupKind identifies what a fixup location holds.
type FixupKind uint32

// Fixup kinds.
const (
	// FixupPointer marks an absolute address into the tag's own data.
	FixupPointer FixupKind = iota

	// FixupTagID marks a tag ID referring to another tag.
	FixupTagID
)

// Fixup is one entry of a tag's fixup table.
type Fixup struct {
	// Offset is the position of the 4-byte value within the tag data.
	Offset uint32

	// Kind is what the value holds.
	Kind FixupKind

	// Target is the referenced tag index for FixupTagID fixups.
	Target int
}

// Resident returns the tag's resident payload, if it has one.
func (t *Tag) Resident() (*Resident, bool) {
	r, ok := t.Payload.(*Resident)
	return r, ok
}

// Implicit reports whether the tag is satisfied by a resource map entry.
func (t *Tag) Implicit() bool {
	_, ok := t.Payload.(*External)
	return ok
}

// Clone returns a deep copy of the tag.
func (t *Tag) Clone() *Tag {
	c := *t
	switch p := t.Payload.(type) {
	case *Resident:
		r := &Resident{
			Address: p.Address,
			Data:    append([]byte(nil), p.Data...),
			Fixups:  append([]Fixup(nil), p.Fixups...),
		}
		if p.Assets != nil {
			r.Assets = append(make([]byte, 0, len(p.Assets)), p.Assets...)
		}
		c.Payload = r
	case *External:
		e := *p
		c.Payload = &e
	}
	return &c
}

// Find returns the index of the first tag with the given path and class.
func (f *File) Find(path string, class Class) (int, bool) {
	for i, t := range f.Tags {
		if t.Class == class && t.Path == path {
			return i, true
		}
	}
	return -1, false
}

// References returns the distinct tags referenced by tag i, in fixup order.
// External tags reference nothing.
func (f *File) References(i int) []int {
	if i < 0 || i >= len(f.Tags) {
		return nil
	}
	r, ok := f.Tags[i].Resident()
	if !ok {
		return nil
	}
	var refs []int
	seen := make(map[int]struct{})
	for _, fx := range r.Fixups {
		if fx.Kind != FixupTagID {
			continue
		}
		if _, dup := seen[fx.Target]; dup {
			continue
		}
		seen[fx.Target] = struct{}{}
		refs = append(refs, fx.Target)
	}
	return refs
}
