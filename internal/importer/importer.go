// Package importer merges the multiplayer scenario type tags of an
// auxiliary cache file into the cache file being converted.
package importer

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/meigma/combustion/cachefile"
	"github.com/meigma/combustion/internal/convtype"
)

// Root tag whose references are imported.
const (
	RootPath  = `ui\ui_tags_loaded_multiplayer_scenario_type`
	RootClass = cachefile.ClassTagCollection
)

// Import copies every tag referenced by the auxiliary file's root tag, with
// its reference closure, into dst. The root itself is not copied. Tags
// already present in dst by path and class are reused.
//
// An empty aux is not an error: nothing is imported. It returns the number
// of tags appended to dst.
func Import(dst *cachefile.File, aux []byte, logger *slog.Logger) (int, error) {
	if len(aux) == 0 {
		return 0, nil
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	src, err := cachefile.Load(aux)
	if err != nil {
		return 0, fmt.Errorf("%w: auxiliary cache file: %w", convtype.ErrFormat, err)
	}
	root, ok := src.Find(RootPath, RootClass)
	if !ok {
		return 0, fmt.Errorf("%w: %s %s in auxiliary cache file", convtype.ErrMissingRequiredTag, RootClass, RootPath)
	}

	refs := src.References(root)
	before := len(dst.Tags)
	for _, ref := range refs {
		at, err := dst.InsertClosure(src, ref)
		if err != nil {
			sentinel := convtype.ErrFormat
			if errors.Is(err, cachefile.ErrEncode) {
				sentinel = convtype.ErrSerialization
			}
			return len(dst.Tags) - before, fmt.Errorf("%w: import %s: %w", sentinel, src.Tags[ref].Path, err)
		}
		logger.Debug("imported tag", "path", src.Tags[ref].Path, "class", src.Tags[ref].Class.String(), "index", at)
	}
	added := len(dst.Tags) - before
	logger.Info("auxiliary tags imported", "references", len(refs), "added", added)
	return added, nil
}
