// Package resolve decides, for each bitmap and sound tag, whether its
// payload already exists in the target resource map or must be repacked
// into the tag's private asset stream.
package resolve

import (
	"errors"
	"log/slog"

	"github.com/meigma/combustion/cachefile"
	"github.com/meigma/combustion/internal/convtype"
	"github.com/meigma/combustion/resourcemap"
)

// Pools holds the read-only payload sources of one conversion.
type Pools struct {
	// SourcePixels and SourceSamples are the shared pools of the source
	// runtime. Shared-flagged payloads are read from them at absolute offsets.
	SourcePixels  []byte
	SourceSamples []byte

	// TargetBitmaps and TargetSounds are the parsed target resource maps,
	// or nil when no target pool was supplied.
	TargetBitmaps *resourcemap.Map
	TargetSounds  *resourcemap.Map

	// TargetPixels and TargetSamples are the buffers the target maps were
	// loaded from. Resource-side payloads are read from them at absolute
	// offsets.
	TargetPixels  []byte
	TargetSamples []byte
}

// Resolver resolves bitmap and sound tags against a set of pools.
type Resolver struct {
	pools  Pools
	logger *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger for per-tag decisions.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// New returns a Resolver over pools.
func New(pools Pools, opts ...Option) *Resolver {
	r := &Resolver{pools: pools}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resolver) log() *slog.Logger {
	if r.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return r.logger
}

// Resolve dispatches tag i of f by class. Tags that are not bitmaps or
// sounds pass through untouched, and tags already satisfied by a resource
// are skipped.
func (r *Resolver) Resolve(f *cachefile.File, i int) (convtype.Outcome, error) {
	t := f.Tags[i]
	out := outcome(i, t)
	if t.Implicit() {
		out.Action = convtype.ActionSkipped
		return out, nil
	}
	switch t.Class {
	case cachefile.ClassBitmap:
		return r.Bitmap(i, t)
	case cachefile.ClassSound:
		return r.Sound(i, t)
	default:
		return out, nil
	}
}

func outcome(i int, t *cachefile.Tag) convtype.Outcome {
	return convtype.Outcome{
		Index:    i,
		Class:    t.Class.String(),
		Path:     t.Path,
		Action:   convtype.ActionPassthrough,
		Resource: -1,
	}
}

// tagError attaches tag context to err, lifting a field name if err carries one.
func tagError(i int, t *cachefile.Tag, err error) error {
	te := &convtype.TagError{Index: i, Class: t.Class.String(), Path: t.Path, Err: err}
	var fe *convtype.FieldError
	if errors.As(err, &fe) {
		te.Field = fe.Field
		te.Err = fe.Err
	}
	return te
}
