// Package config loads cache settings from YAML or JSON.
//
//	pages:
//	  ttl: 10s
//	  sweep_interval: 1m
//	  debounce_window: 300ms
//	  namespace: complaints
//
// Durations are Go duration strings. Zero or missing values leave the
// library default in place; a negative debounce_window disables debouncing
// and a negative sweep_interval disables the background sweep.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

type Config struct {
	TTL            time.Duration `koanf:"ttl"`
	SweepInterval  time.Duration `koanf:"sweep_interval"`
	DebounceWindow time.Duration `koanf:"debounce_window"`
	Retention      time.Duration `koanf:"retention"`
	ExecTimeout    time.Duration `koanf:"exec_timeout"`
	TrailingEdge   bool          `koanf:"trailing_edge"`
	Namespace      string        `koanf:"namespace"`
}

// Validate rejects values no setting can mean.
func (c Config) Validate() error {
	switch {
	case c.TTL < 0:
		return fmt.Errorf("%w: ttl %v", ErrInvalid, c.TTL)
	case c.Retention < 0:
		return fmt.Errorf("%w: retention %v", ErrInvalid, c.Retention)
	case c.ExecTimeout < 0:
		return fmt.Errorf("%w: exec_timeout %v", ErrInvalid, c.ExecTimeout)
	}
	return nil
}

// Load reads the file at path, picking the parser from its extension, and
// unmarshals section ("" = document root).
func Load(path, section string) (Config, error) {
	if path == "" {
		return Config{}, ErrEmptyPath
	}
	format, err := detectFormat(path)
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	return Parse(data, format, section)
}

// Parse unmarshals section ("" = document root) of data.
func Parse(data []byte, format Format, section string) (Config, error) {
	k := koanf.New(".")
	if err := loadData(k, data, format); err != nil {
		return Config{}, err
	}
	var c Config
	if err := k.UnmarshalWithConf(section, &c, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrUnmarshalFailed, err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func detectFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown extension %s", ErrUnsupportedFormat, ext)
	}
}

func loadData(k *koanf.Koanf, data []byte, format Format) error {
	var parser koanf.Parser
	switch format {
	case FormatYAML:
		parser = yaml.Parser()
	case FormatJSON:
		parser = json.Parser()
	default:
		return ErrUnsupportedFormat
	}
	if len(data) == 0 {
		return nil
	}
	if err := k.Load(rawbytes.Provider(data), parser); err != nil {
		return fmt.Errorf("%w: %w", ErrParseFailed, err)
	}
	return nil
}
