package combustion

import "github.com/meigma/combustion/internal/convtype"

// Errors re-exported from convtype.
var (
	// ErrFormat is returned when the map, the auxiliary map or a resource map
	// cannot be parsed.
	ErrFormat = convtype.ErrFormat

	// ErrMissingRequiredTag is returned when the auxiliary map lacks the
	// multiplayer scenario type tag collection.
	ErrMissingRequiredTag = convtype.ErrMissingRequiredTag

	// ErrMalformedTagData is returned when a bitmap or sound tag addresses
	// data outside the buffer it points into.
	ErrMalformedTagData = convtype.ErrMalformedTagData

	// ErrSerialization is returned when the converted map cannot be encoded.
	ErrSerialization = convtype.ErrSerialization

	// ErrBufferSize is returned by ConvertInto when the destination buffer
	// is not exactly the converted length.
	ErrBufferSize = convtype.ErrBufferSize
)

// TagError describes a failure while resolving a single tag.
// It unwraps to one of the sentinel errors.
type TagError = convtype.TagError
