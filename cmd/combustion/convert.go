package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/meigma/combustion"
	"github.com/meigma/combustion/internal/codec"
	"github.com/meigma/combustion/internal/config"
	"github.com/meigma/combustion/internal/sizing"
	"github.com/meigma/combustion/report"
)

var errInputTooLarge = errors.New("input exceeds the maximum size")

type convertFlags struct {
	configPath string
	paths      map[string]*string
	engine     string
	comp       string
	logLevel   string
	skipImport bool
	verbose    bool
}

func newConvertFlags(fs *pflag.FlagSet) *convertFlags {
	f := &convertFlags{paths: make(map[string]*string)}
	fs.StringVarP(&f.configPath, "config", "c", "", "YAML configuration file")

	path := func(name, short, usage string) {
		p := new(string)
		fs.StringVarP(p, name, short, "", usage)
		f.paths[name] = p
	}
	path("map", "m", "retail map to convert")
	path("aux", "a", "map to import user interface tags from")
	path("source-bitmaps", "", "retail bitmaps.map")
	path("source-sounds", "", "retail sounds.map")
	path("target-bitmaps", "", "Custom Edition bitmaps.map")
	path("target-sounds", "", "Custom Edition sounds.map")
	path("output", "o", "converted map (default: <map>.ce.map)")
	path("report", "", "write a binary conversion report")
	path("summary", "", "write a YAML conversion summary")

	fs.StringVar(&f.engine, "engine", "", "engine to write: custom-edition, retail or xbox")
	fs.StringVar(&f.comp, "compression", "", "output compression: none, zstd or lz4")
	fs.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error")
	fs.BoolVar(&f.skipImport, "skip-import", false, "do not import tags from --aux")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "shorthand for --log-level debug")
	return f
}

// resolve loads the configuration file, if any, and applies the flags that
// were set on the command line over it.
func (f *convertFlags) resolve(fs *pflag.FlagSet) (*config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		loaded, err := config.LoadFile(f.configPath)
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		cfg = loaded
	}

	dest := map[string]*string{
		"map":            &cfg.Inputs.Map,
		"aux":            &cfg.Inputs.Auxiliary,
		"source-bitmaps": &cfg.Inputs.SourceBitmaps,
		"source-sounds":  &cfg.Inputs.SourceSounds,
		"target-bitmaps": &cfg.Inputs.TargetBitmaps,
		"target-sounds":  &cfg.Inputs.TargetSounds,
		"output":         &cfg.Output.Path,
		"report":         &cfg.Output.Report,
		"summary":        &cfg.Output.Summary,
	}
	for name, p := range f.paths {
		if fs.Changed(name) {
			*dest[name] = *p
		}
	}
	if fs.Changed("engine") {
		cfg.Engine = f.engine
	}
	if fs.Changed("compression") {
		cfg.Output.Compression = f.comp
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if f.verbose {
		cfg.LogLevel = "debug"
	}
	if fs.Changed("skip-import") {
		cfg.SkipImport = f.skipImport
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runConvert(args []string, stdout, stderr io.Writer) error {
	fs := pflag.NewFlagSet("convert", pflag.ContinueOnError)
	flags := newConvertFlags(fs)
	if help, err := parse(fs, args, stdout); help || err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	cfg, err := flags.resolve(fs)
	if err != nil {
		return err
	}
	level, _ := cfg.Level()
	engine, _ := cfg.TargetEngine()
	comp, _ := cfg.OutputCompression()

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	in, err := loadInputs(context.Background(), cfg)
	if err != nil {
		return err
	}

	res, err := combustion.Convert(in,
		combustion.WithLogger(logger),
		combustion.WithTargetEngine(engine),
		combustion.WithSkipImport(cfg.SkipImport),
		combustion.WithProgress(func(ev combustion.ProgressEvent) {
			if ev.Stage != combustion.StageResolving {
				logger.Debug("stage", "stage", ev.Stage.String(), "tags", ev.TagsTotal)
			}
		}),
	)
	if err != nil {
		return err
	}

	out, err := codec.Encode(res.Data, comp)
	if err != nil {
		return fmt.Errorf("compress output: %w", err)
	}
	outPath := cfg.OutputPath()
	if err := os.WriteFile(outPath, out, 0o644); err != nil { //nolint:gosec // maps are meant to be readable
		return err
	}
	logger.Info("wrote map", "path", outPath, "size", len(out), "compression", comp.String())

	if cfg.Output.Report != "" {
		if err := os.WriteFile(cfg.Output.Report, report.New(in.Map, res).Encode(), 0o644); err != nil { //nolint:gosec // reports are meant to be readable
			return err
		}
		logger.Info("wrote report", "path", cfg.Output.Report)
	}
	if cfg.Output.Summary != "" {
		data, err := yaml.Marshal(newSummary(res, outPath))
		if err != nil {
			return fmt.Errorf("summary: %w", err)
		}
		if err := os.WriteFile(cfg.Output.Summary, data, 0o644); err != nil { //nolint:gosec // summaries are meant to be readable
			return err
		}
	}

	fmt.Fprintf(stdout, "%s: %d tags, %d imported, %d matched, %d repacked -> %s\n",
		res.Name, len(res.Outcomes), res.Imported,
		res.Count(combustion.ActionMatched), res.Count(combustion.ActionRepacked), outPath)
	return nil
}

// loadInputs reads every configured input concurrently.
func loadInputs(ctx context.Context, cfg *config.Config) (combustion.Inputs, error) {
	var in combustion.Inputs
	files := []struct {
		path string
		dst  *[]byte
	}{
		{cfg.Inputs.Map, &in.Map},
		{cfg.Inputs.Auxiliary, &in.Auxiliary},
		{cfg.Inputs.SourceBitmaps, &in.SourceBitmaps},
		{cfg.Inputs.SourceSounds, &in.SourceSounds},
		{cfg.Inputs.TargetBitmaps, &in.TargetBitmaps},
		{cfg.Inputs.TargetSounds, &in.TargetSounds},
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, f := range files {
		if f.path == "" {
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := readInput(f.path, cfg.MaxInputSize)
			if err != nil {
				return fmt.Errorf("read %s: %w", f.path, err)
			}
			*f.dst = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return combustion.Inputs{}, err
	}
	return in, nil
}

func readInput(path string, maxSize uint64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	raw, err := sizing.ReadAllWithLimit(f, maxSize, errInputTooLarge)
	if err != nil {
		return nil, err
	}
	return codec.Decode(raw, maxSize)
}

type summary struct {
	Map      string       `yaml:"map"`
	Engine   string       `yaml:"engine"`
	Output   string       `yaml:"output"`
	Size     int          `yaml:"size"`
	Imported int          `yaml:"imported"`
	Totals   summaryTotal `yaml:"totals"`
	Tags     []summaryTag `yaml:"tags,omitempty"`
}

type summaryTotal struct {
	Passthrough int `yaml:"passthrough"`
	Matched     int `yaml:"matched"`
	Repacked    int `yaml:"repacked"`
	Skipped     int `yaml:"skipped"`
}

type summaryTag struct {
	Index    int    `yaml:"index"`
	Class    string `yaml:"class"`
	Path     string `yaml:"path"`
	Action   string `yaml:"action"`
	Resource *int   `yaml:"resource,omitempty"`
	Bytes    uint64 `yaml:"repacked_bytes,omitempty"`
}

// newSummary lists the totals and every tag that was matched or repacked.
func newSummary(res *combustion.Result, output string) summary {
	s := summary{
		Map:      res.Name,
		Engine:   res.Engine.String(),
		Output:   output,
		Size:     len(res.Data),
		Imported: res.Imported,
		Totals: summaryTotal{
			Passthrough: res.Count(combustion.ActionPassthrough),
			Matched:     res.Count(combustion.ActionMatched),
			Repacked:    res.Count(combustion.ActionRepacked),
			Skipped:     res.Count(combustion.ActionSkipped),
		},
	}
	for _, o := range res.Outcomes {
		if o.Action != combustion.ActionMatched && o.Action != combustion.ActionRepacked {
			continue
		}
		t := summaryTag{
			Index:  o.Index,
			Class:  o.Class,
			Path:   o.Path,
			Action: o.Action.String(),
			Bytes:  o.RepackedBytes,
		}
		if o.Resource >= 0 {
			t.Resource = &o.Resource
		}
		s.Tags = append(s.Tags, t)
	}
	return s
}
