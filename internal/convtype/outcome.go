package convtype

// Action records what the conversion pass did with a tag.
type Action uint8

const (
	// ActionPassthrough means the tag's class is not acted on.
	ActionPassthrough Action = iota

	// ActionMatched means the tag's payload was found in the target resource
	// map and the tag now references it.
	ActionMatched

	// ActionRepacked means shared-pool payloads were copied into the tag's
	// private asset stream.
	ActionRepacked

	// ActionSkipped means the tag was left as is: it was already external or
	// had nothing to resolve.
	ActionSkipped
)

// String returns the human-readable name of the action.
func (a Action) String() string {
	switch a {
	case ActionPassthrough:
		return "passthrough"
	case ActionMatched:
		return "matched"
	case ActionRepacked:
		return "repacked"
	case ActionSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Outcome describes the resolution of one tag.
type Outcome struct {
	// Index is the tag's position in the tag array.
	Index int

	// Class is the tag's primary class code.
	Class string

	// Path is the tag's path after conversion. Sound tags resolved to a
	// resource carry the resource name here.
	Path string

	// Action is what the pass did with the tag.
	Action Action

	// Resource is the matched resource index, or -1.
	Resource int

	// Blocks is the number of bitmap entries or sound permutations inspected.
	Blocks int

	// RepackedBlocks is the number of blocks moved into the private stream.
	RepackedBlocks int

	// RepackedBytes is the number of payload bytes appended to the private stream.
	RepackedBytes uint64

	// Assets is the tag's private asset stream after conversion, or nil.
	// It aliases the converted tag and must be treated as read-only.
	Assets []byte
}

// ProgressEvent reports conversion progress.
type ProgressEvent struct {
	// Stage identifies the current phase.
	Stage ProgressStage

	// TagsDone is the number of tags visited by the resolver pass.
	TagsDone int

	// TagsTotal is the number of tags in the cache file.
	TagsTotal int
}

// ProgressStage identifies the current phase of a conversion.
type ProgressStage uint8

// Progress stages, in the order a conversion passes through them.
const (
	StageLoading ProgressStage = iota
	StageImporting
	StageResolving
	StageEncoding
)

// String returns the string representation of the stage.
func (s ProgressStage) String() string {
	switch s {
	case StageLoading:
		return "loading"
	case StageImporting:
		return "importing"
	case StageResolving:
		return "resolving"
	case StageEncoding:
		return "encoding"
	default:
		return "unknown"
	}
}

// ProgressFunc receives progress updates during conversion.
type ProgressFunc func(ProgressEvent)
