package combustion

import (
	"fmt"

	"github.com/meigma/combustion/cachefile"
	"github.com/meigma/combustion/internal/importer"
	"github.com/meigma/combustion/internal/resolve"
	"github.com/meigma/combustion/resourcemap"
)

// Inputs are the buffers one conversion reads. None of them is modified.
type Inputs struct {
	// Map is the retail cache file to convert.
	Map []byte

	// Auxiliary is a cache file holding the multiplayer scenario type tags,
	// normally ui.map. Empty skips the import.
	Auxiliary []byte

	// SourceBitmaps and SourceSounds are the retail resource maps that
	// shared payloads in Map are read from.
	SourceBitmaps []byte
	SourceSounds  []byte

	// TargetBitmaps and TargetSounds are the Custom Edition resource maps
	// tags are matched against. Empty disables matching and every shared
	// payload is repacked.
	TargetBitmaps []byte
	TargetSounds  []byte
}

// Result is a converted map.
type Result struct {
	// Data is the encoded cache file.
	Data []byte

	// Name is the map's scenario name.
	Name string

	// Engine is the engine marker written to Data.
	Engine cachefile.Engine

	// Imported is the number of tags merged from the auxiliary map.
	Imported int

	// Outcomes has one entry per tag of the converted map, in tag order.
	Outcomes []TagOutcome
}

// Count returns the number of outcomes with action a.
func (r *Result) Count(a Action) int {
	n := 0
	for i := range r.Outcomes {
		if r.Outcomes[i].Action == a {
			n++
		}
	}
	return n
}

// Convert converts in.Map for the target engine.
//
// Tags are visited in tag array order and resources in resource map order,
// so the output is identical for identical inputs.
func Convert(in Inputs, opts ...Option) (*Result, error) {
	cfg := newConfig(opts)

	cfg.report(ProgressEvent{Stage: StageLoading})
	f, err := cachefile.Load(in.Map)
	if err != nil {
		return nil, fmt.Errorf("%w: map: %w", ErrFormat, err)
	}
	pools, err := loadPools(in)
	if err != nil {
		return nil, err
	}
	cfg.log().Info("converting map", "name", f.Name, "engine", f.Engine.String(), "tags", len(f.Tags))

	res := &Result{Name: f.Name, Engine: cfg.engine}
	if !cfg.skipImport {
		cfg.report(ProgressEvent{Stage: StageImporting, TagsTotal: len(f.Tags)})
		res.Imported, err = importer.Import(f, in.Auxiliary, cfg.logger)
		if err != nil {
			return nil, err
		}
	}

	r := resolve.New(pools, resolve.WithLogger(cfg.logger))
	total := len(f.Tags)
	res.Outcomes = make([]TagOutcome, 0, total)
	for i := range f.Tags {
		out, err := r.Resolve(f, i)
		if err != nil {
			return nil, err
		}
		res.Outcomes = append(res.Outcomes, out)
		cfg.report(ProgressEvent{Stage: StageResolving, TagsDone: i + 1, TagsTotal: total})
	}

	cfg.report(ProgressEvent{Stage: StageEncoding, TagsDone: total, TagsTotal: total})
	f.Engine = cfg.engine
	res.Data, err = f.Encode()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerialization, err)
	}

	cfg.log().Info("map converted",
		"name", f.Name,
		"engine", f.Engine.String(),
		"imported", res.Imported,
		"matched", res.Count(ActionMatched),
		"repacked", res.Count(ActionRepacked),
		"size", len(res.Data))
	return res, nil
}

// ConvertedLen returns the length of the map Convert would produce.
func ConvertedLen(in Inputs, opts ...Option) (int, error) {
	res, err := Convert(in, opts...)
	if err != nil {
		return 0, err
	}
	return len(res.Data), nil
}

// ConvertInto converts in.Map and copies the result into dst, which must be
// exactly the converted length as reported by [ConvertedLen]. On any error
// dst is left untouched.
func ConvertInto(dst []byte, in Inputs, opts ...Option) (int, error) {
	res, err := Convert(in, opts...)
	if err != nil {
		return 0, err
	}
	if len(dst) != len(res.Data) {
		return 0, fmt.Errorf("%w: have %d bytes, need %d", ErrBufferSize, len(dst), len(res.Data))
	}
	return copy(dst, res.Data), nil
}

func loadPools(in Inputs) (resolve.Pools, error) {
	pools := resolve.Pools{
		SourcePixels:  in.SourceBitmaps,
		SourceSamples: in.SourceSounds,
		TargetPixels:  in.TargetBitmaps,
		TargetSamples: in.TargetSounds,
	}
	var err error
	if pools.TargetBitmaps, err = loadTarget(in.TargetBitmaps, "bitmaps"); err != nil {
		return resolve.Pools{}, err
	}
	if pools.TargetSounds, err = loadTarget(in.TargetSounds, "sounds"); err != nil {
		return resolve.Pools{}, err
	}
	return pools, nil
}

// loadTarget parses a target resource map. Empty data means no target pool.
func loadTarget(data []byte, name string) (*resourcemap.Map, error) {
	if len(data) == 0 {
		return nil, nil //nolint:nilnil // no target pool
	}
	m, err := resourcemap.Load(data)
	if err != nil {
		return nil, fmt.Errorf("%w: target %s: %w", ErrFormat, name, err)
	}
	return m, nil
}
