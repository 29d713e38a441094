// Package config loads the YAML configuration of the combustion command.
//
// A configuration file is optional. Values it sets are used as defaults
// for the corresponding flags; a flag given on the command line always
// wins.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/meigma/combustion/cachefile"
	"github.com/meigma/combustion/internal/codec"
)

// DefaultMaxInputSize bounds the size of each decompressed input file.
const DefaultMaxInputSize = 1 << 30

// Config is the combustion command configuration.
type Config struct {
	// Inputs names the files a conversion reads.
	Inputs InputsConfig `yaml:"inputs"`

	// Output configures the converted map and side files.
	Output OutputConfig `yaml:"output"`

	// Engine is the engine written to the converted map.
	// Default: custom-edition
	Engine string `yaml:"engine"`

	// LogLevel is one of debug, info, warn, error.
	// Default: info
	LogLevel string `yaml:"log_level"`

	// SkipImport disables importing the auxiliary map's tags.
	SkipImport bool `yaml:"skip_import"`

	// MaxInputSize is the largest accepted input after decompression.
	MaxInputSize uint64 `yaml:"max_input_size"`
}

// InputsConfig names the input files. Relative paths are resolved against
// the directory of the configuration file.
type InputsConfig struct {
	// Map is the retail map to convert.
	Map string `yaml:"map"`

	// Auxiliary is the map the user interface tags are imported from.
	Auxiliary string `yaml:"auxiliary"`

	// SourceBitmaps and SourceSounds are the retail resource maps.
	SourceBitmaps string `yaml:"source_bitmaps"`
	SourceSounds  string `yaml:"source_sounds"`

	// TargetBitmaps and TargetSounds are the Custom Edition resource maps.
	// When empty, nothing is matched and all shared payloads are repacked.
	TargetBitmaps string `yaml:"target_bitmaps"`
	TargetSounds  string `yaml:"target_sounds"`
}

// OutputConfig configures where results are written.
type OutputConfig struct {
	// Path is the converted map. Default: the input name with ".ce.map".
	Path string `yaml:"path"`

	// Compression is none, zstd or lz4.
	// Default: none
	Compression string `yaml:"compression"`

	// Report is an optional path for the binary conversion report.
	Report string `yaml:"report"`

	// Summary is an optional path for a YAML summary of the conversion.
	Summary string `yaml:"summary"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Engine:       cachefile.EngineCustomEdition.String(),
		LogLevel:     "info",
		MaxInputSize: DefaultMaxInputSize,
		Output: OutputConfig{
			Compression: codec.CompressionNone.String(),
		},
	}
}

// LoadFile loads configuration from path, merged over Default.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	cfg.resolvePaths(filepath.Dir(path))
	return cfg, nil
}

func (c *Config) resolvePaths(dir string) {
	for _, p := range []*string{
		&c.Inputs.Map, &c.Inputs.Auxiliary,
		&c.Inputs.SourceBitmaps, &c.Inputs.SourceSounds,
		&c.Inputs.TargetBitmaps, &c.Inputs.TargetSounds,
		&c.Output.Path, &c.Output.Report, &c.Output.Summary,
	} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Inputs.Map == "" {
		errs = append(errs, errors.New("inputs.map is required"))
	}
	if c.Inputs.SourceBitmaps == "" {
		errs = append(errs, errors.New("inputs.source_bitmaps is required"))
	}
	if c.Inputs.SourceSounds == "" {
		errs = append(errs, errors.New("inputs.source_sounds is required"))
	}
	if _, err := c.TargetEngine(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.OutputCompression(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	if c.MaxInputSize == 0 {
		errs = append(errs, errors.New("max_input_size must be positive"))
	}

	return errors.Join(errs...)
}

// TargetEngine parses Engine.
func (c *Config) TargetEngine() (cachefile.Engine, error) {
	return cachefile.ParseEngine(c.Engine)
}

// OutputCompression parses Output.Compression.
func (c *Config) OutputCompression() (codec.Compression, error) {
	return codec.ParseCompression(c.Output.Compression)
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	return l, nil
}

// OutputPath returns Output.Path, or a name derived from the input map:
// "maps/bloodgulch.map" becomes "maps/bloodgulch.ce.map" plus the
// extension of the output compression.
func (c *Config) OutputPath() string {
	if c.Output.Path != "" {
		return c.Output.Path
	}
	base := c.Inputs.Map
	for _, ext := range []string{".zst", ".lz4"} {
		base = strings.TrimSuffix(base, ext)
	}
	base = strings.TrimSuffix(base, ".map")
	comp, _ := c.OutputCompression()
	return base + ".ce.map" + comp.Ext()
}
