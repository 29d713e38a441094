package combustion

import "github.com/meigma/combustion/internal/convtype"

// TagOutcome describes what conversion did with one tag.
type TagOutcome = convtype.Outcome

// Action records what conversion did with a tag.
type Action = convtype.Action

// Action constants.
const (
	// ActionPassthrough means the tag is neither a bitmap nor a sound.
	ActionPassthrough = convtype.ActionPassthrough

	// ActionMatched means the tag now references a target resource.
	ActionMatched = convtype.ActionMatched

	// ActionRepacked means shared payloads were copied into the tag's asset stream.
	ActionRepacked = convtype.ActionRepacked

	// ActionSkipped means the tag needed no change.
	ActionSkipped = convtype.ActionSkipped
)
