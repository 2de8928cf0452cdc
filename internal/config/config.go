package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"p3d-mipgen/internal/mipmap"
	"p3d-mipgen/internal/texture"
)

// Config holds the settings of a regeneration run.
type Config struct {
	// Target
	MinSize       int  `json:"min_size" yaml:"min_size"`
	NumMipMaps    int  `json:"num_mipmaps" yaml:"num_mipmaps"`
	TruncateAtTwo bool `json:"truncate_at_two" yaml:"truncate_at_two"`

	// Behaviour
	UpdateAllShaders bool `json:"update_all_shaders" yaml:"update_all_shaders"`
	NoHistory        bool `json:"no_history" yaml:"no_history"`
	Force            bool `json:"force" yaml:"force"`

	// Processing
	Workers  int    `json:"workers" yaml:"workers"`
	Encoding string `json:"encoding" yaml:"encoding"`
	Filter   string `json:"filter" yaml:"filter"`
}

// Load reads a JSON config file, or YAML when the extension is .yaml/.yml.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	MinSize          int
	NumMipMaps       int
	TruncateAtTwo    bool
	UpdateAllShaders bool
	NoHistory        bool
	Force            bool
	Workers          int
	Encoding         string
	Filter           string
}

// Resolve applies CLI flags over the file values and fills in defaults.
// Flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	// CLI flags override config file
	if flags.MinSize != 0 {
		c.MinSize = flags.MinSize
	}
	if flags.NumMipMaps != 0 {
		c.NumMipMaps = flags.NumMipMaps
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.Encoding != "" {
		c.Encoding = flags.Encoding
	}
	if flags.Filter != "" {
		c.Filter = flags.Filter
	}
	c.TruncateAtTwo = c.TruncateAtTwo || flags.TruncateAtTwo
	c.UpdateAllShaders = c.UpdateAllShaders || flags.UpdateAllShaders
	c.NoHistory = c.NoHistory || flags.NoHistory
	c.Force = c.Force || flags.Force

	// Defaults
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.Encoding == "" {
		c.Encoding = string(texture.EncodingPNG)
	}
	if c.Filter == "" {
		c.Filter = string(texture.FilterCatmullRom)
	}
}

// Validate reports the first setting that would make the run invalid.
func (c *Config) Validate() error {
	if _, err := mipmap.NewPolicy(c.MinSize, c.NumMipMaps); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := texture.ParseEncoding(c.Encoding); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := texture.ParseFilter(c.Filter); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Policy returns the mipmap policy for the configured target.
func (c *Config) Policy() (mipmap.Policy, error) {
	return mipmap.NewPolicy(c.MinSize, c.NumMipMaps)
}

// Resampler returns the image resampler for the configured encoding and
// filter, caching one decoded source per worker.
func (c *Config) Resampler() (*texture.Resampler, error) {
	enc, err := texture.ParseEncoding(c.Encoding)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	f, err := texture.ParseFilter(c.Filter)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return texture.NewResampler(f, enc, c.Workers), nil
}
