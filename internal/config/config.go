// Package config holds the settings of a generation run. Values come from
// defaults, then an optional YAML file, then command-line flags.
package config

import (
	"cmp"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/FocuswithJustin/textgen/core/errors"
	"github.com/FocuswithJustin/textgen/core/generator"
	"github.com/FocuswithJustin/textgen/internal/archive"
	"github.com/FocuswithJustin/textgen/internal/logging"
	"github.com/FocuswithJustin/textgen/internal/validation"
)

// DefaultFile is looked up in the input directory when no config file is
// named explicitly.
const DefaultFile = "textgen.yaml"

// Config holds the settings of one generation run.
type Config struct {
	InputDir  string `yaml:"input"`
	OutputDir string `yaml:"output"`

	// TextID and Lang override the values from info.json or metadata.xml.
	TextID string `yaml:"text_id"`
	Lang   string `yaml:"lang"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Output toggles. Empty paths disable the export.
	SQLite  string `yaml:"sqlite"`
	Archive string `yaml:"archive"`
	CAS     bool   `yaml:"cas"`
	Words   bool   `yaml:"words"`

	// Tags adds or replaces entries of the default tag table.
	Tags map[string]TagOverride `yaml:"tags"`
}

// TagOverride is the YAML form of a generator.TagSpec.
type TagOverride struct {
	Kind   string `yaml:"kind"`
	Class  string `yaml:"class"`
	Family string `yaml:"family"`
	Level  *int   `yaml:"level"`
}

// Default returns the settings used when nothing else is configured.
func Default() Config {
	return Config{
		OutputDir: "out",
		LogLevel:  "info",
		LogFormat: "text",
		Words:     true,
	}
}

// Load reads a YAML file over the defaults. A missing file is an error only
// when required is true.
func Load(path string, required bool) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return cfg, nil
		}
		return cfg, errors.NewIO("read", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.NewParse("YAML", path, err)
	}
	return cfg, nil
}

// LoadFor loads the explicitly named file, or DefaultFile from inputDir
// when path is empty.
func LoadFor(path, inputDir string) (Config, error) {
	if path != "" {
		return Load(path, true)
	}
	if inputDir == "" {
		return Default(), nil
	}
	return Load(filepath.Join(inputDir, DefaultFile), false)
}

// Validate checks the settings and returns a ValidationError for the first
// problem found.
func (c Config) Validate() error {
	if c.InputDir == "" {
		return errors.NewValidation("input", "no input directory")
	}
	if c.OutputDir == "" {
		return errors.NewValidation("output", "no output directory")
	}
	for _, p := range []struct{ field, path string }{
		{"input", c.InputDir},
		{"output", c.OutputDir},
		{"sqlite", c.SQLite},
		{"archive", c.Archive},
	} {
		if p.path == "" {
			continue
		}
		if err := validation.ValidatePath(p.path); err != nil {
			return errors.NewValidation(p.field, err.Error())
		}
	}
	if c.Archive != "" {
		if err := archive.CheckFormat(c.Archive); err != nil {
			return errors.NewValidation("archive", err.Error())
		}
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return errors.NewValidation("log_level", err.Error())
	}
	if _, err := logging.ParseFormat(c.LogFormat); err != nil {
		return errors.NewValidation("log_format", err.Error())
	}
	if _, err := c.TagTable(); err != nil {
		return err
	}
	return nil
}

// TagTable returns the default tag table with the configured overrides
// applied.
func (c Config) TagTable() (generator.TagTable, error) {
	table := generator.DefaultTagTable()
	keys := make([]string, 0, len(c.Tags))
	for key := range c.Tags {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	for _, key := range keys {
		o := c.Tags[key]
		kind, ok := generator.ParseKind(o.Kind)
		if !ok {
			return nil, errors.NewValidation("tags."+key, fmt.Sprintf("unknown kind %q", o.Kind))
		}
		spec := generator.TagSpec{Kind: kind, Class: o.Class, Family: o.Family}
		if o.Level != nil {
			spec.Level = *o.Level
		}
		if kind == generator.KindBlock {
			spec.Family = cmp.Or(spec.Family, generator.FamilyParagraph)
			// level 0 is the self-closing form of \b and must be set explicitly
			if o.Level == nil {
				spec.Level = 1
			}
		}
		table[key] = spec
	}
	return table, nil
}

// Logging returns the parsed log level and format. Call Validate first.
func (c Config) Logging() (logging.Level, logging.Format) {
	level, _ := logging.ParseLevel(c.LogLevel)
	format, _ := logging.ParseFormat(c.LogFormat)
	return level, format
}
