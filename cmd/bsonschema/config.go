package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/speakeasy-api/bsonschema/sample"
	"github.com/speakeasy-api/bsonschema/schema"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// config is the global configuration. A --config file uses the same names as
// the flags.
type config struct {
	LogLevel       string  `yaml:"log-level"`
	MaxDepth       int     `yaml:"max-depth"`
	StabilityLimit float64 `yaml:"stability-limit"`
	MaxLineBytes   int     `yaml:"max-line-bytes"`
}

func defaultConfig() config {
	opts := sample.DefaultOptions()
	return config{
		LogLevel:       "warn",
		MaxDepth:       opts.Schema.MaxDepth,
		StabilityLimit: opts.Schema.StabilityLimit,
		MaxLineBytes:   opts.MaxLineBytes,
	}
}

// loadConfig overlays the YAML file at path onto cfg.
func loadConfig(path string, cfg *config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c config) validate() error {
	if c.MaxDepth <= 0 {
		return fmt.Errorf("max-depth must be positive, got %d", c.MaxDepth)
	}
	if c.StabilityLimit < 0 || c.StabilityLimit > 1 {
		return fmt.Errorf("stability-limit must be within [0, 1], got %g", c.StabilityLimit)
	}
	if c.MaxLineBytes <= 0 {
		return fmt.Errorf("max-line-bytes must be positive, got %d", c.MaxLineBytes)
	}
	return nil
}

func (c config) schemaOptions() schema.Options {
	opts := schema.DefaultOptions()
	opts.MaxDepth = c.MaxDepth
	opts.StabilityLimit = c.StabilityLimit
	return opts
}

func (c config) samplerOptions(logger *zap.Logger) sample.Options {
	return sample.Options{
		Schema:       c.schemaOptions(),
		Logger:       logger,
		MaxLineBytes: c.MaxLineBytes,
	}
}

// newLogger logs to w: human-readable when w is a terminal, JSON otherwise.
func newLogger(w io.Writer, level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var enc zapcore.Encoder
	if isTerminal(w) {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		enc = zapcore.NewConsoleEncoder(cfg)
	} else {
		enc = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}
	core := zapcore.NewCore(enc, zapcore.AddSync(w), lvl)
	return zap.New(core), nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
