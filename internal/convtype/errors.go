package convtype

import (
	"errors"
	"fmt"
)

// Sentinel errors for conversion operations.
var (
	// ErrFormat is returned when a cache file or resource map cannot be parsed.
	ErrFormat = errors.New("combustion: malformed input")

	// ErrMissingRequiredTag is returned when the auxiliary import root is absent.
	ErrMissingRequiredTag = errors.New("combustion: missing required tag")

	// ErrMalformedTagData is returned when an offset or size inside a tag
	// points outside the buffer it addresses.
	ErrMalformedTagData = errors.New("combustion: malformed tag data")

	// ErrSerialization is returned when the converted cache file cannot be encoded.
	ErrSerialization = errors.New("combustion: serialization failed")

	// ErrBufferSize is returned when a caller-supplied output buffer does not
	// match the converted length exactly.
	ErrBufferSize = errors.New("combustion: output buffer size mismatch")
)

// TagError describes a failure while resolving a single tag.
type TagError struct {
	// Index is the tag's position in the cache file's tag array.
	Index int

	// Class is the tag's four-character class code.
	Class string

	// Path is the tag's symbolic path.
	Path string

	// Field names the block and field being read or written, e.g. "bitmap[2].offset".
	Field string

	// Err is the underlying error. It wraps one of the sentinel errors.
	Err error
}

func (e *TagError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("tag %d (%s %s): %v", e.Index, e.Class, e.Path, e.Err)
	}
	return fmt.Sprintf("tag %d (%s %s): %s: %v", e.Index, e.Class, e.Path, e.Field, e.Err)
}

func (e *TagError) Unwrap() error {
	return e.Err
}

// Malformed returns an error wrapping ErrMalformedTagData with field context.
func Malformed(field, format string, args ...any) error {
	return &FieldError{Field: field, Err: fmt.Errorf("%w: "+format, append([]any{ErrMalformedTagData}, args...)...)}
}

// FieldError attaches a field name to an error raised below the tag level.
// Resolvers lift it into a TagError once the owning tag is known.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// AtField prefixes the field of a FieldError, or wraps a plain error with field.
// It is used when an accessor's field name needs the enclosing block,
// e.g. "offset" becomes "bitmap[2].offset".
func AtField(prefix string, err error) error {
	if err == nil {
		return nil
	}
	var fe *FieldError
	if errors.As(err, &fe) {
		return &FieldError{Field: prefix + "." + fe.Field, Err: fe.Err}
	}
	return &FieldError{Field: prefix, Err: err}
}
