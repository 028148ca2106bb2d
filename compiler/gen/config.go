package gen

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config drives code generation. Generated files live in the domain
// package itself so they can reference the entity types directly.
type Config struct {
	// Package is the package name of the generated files. It must
	// match the package declaring the entities.
	Package string `yaml:"package"`
	// Schema is the directory holding the domain structs.
	Schema string `yaml:"schema"`
	// Target is the output directory. Defaults to Schema.
	Target string `yaml:"target"`
	// Header is an additional comment placed below the generated-code
	// marker of every file.
	Header string `yaml:"header"`
	// Cache is the load snapshot path. Empty disables snapshotting.
	Cache string `yaml:"cache"`
	// Workers bounds parallel file generation. Defaults to GOMAXPROCS.
	Workers int `yaml:"workers"`
}

// Option configures code generation.
type Option func(*Config) error

// WithPackage sets the output package name.
func WithPackage(pkg string) Option {
	return func(c *Config) error {
		if pkg == "" {
			return NewConfigError("Package", pkg, "package cannot be empty")
		}
		c.Package = pkg
		return nil
	}
}

// WithTarget sets the output directory.
func WithTarget(dir string) Option {
	return func(c *Config) error {
		c.Target = dir
		return nil
	}
}

// WithHeader sets the extra file header comment.
func WithHeader(header string) Option {
	return func(c *Config) error {
		c.Header = header
		return nil
	}
}

// WithCache sets the load snapshot path.
func WithCache(path string) Option {
	return func(c *Config) error {
		c.Cache = path
		return nil
	}
}

// WithWorkers bounds parallel file generation.
func WithWorkers(n int) Option {
	return func(c *Config) error {
		if n < 1 {
			return NewConfigError("Workers", n, "worker count must be positive")
		}
		c.Workers = n
		return nil
	}
}

// NewConfig builds a configuration for the given schema directory.
func NewConfig(schema string, opts ...Option) (*Config, error) {
	if schema == "" {
		return nil, NewConfigError("Schema", schema, "schema directory cannot be empty")
	}
	c := &Config{Schema: schema}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	c.defaults()
	return c, nil
}

// LoadConfig reads a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	c := &Config{}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, NewConfigError("file", path, err.Error())
	}
	if c.Schema == "" {
		return nil, NewConfigError("Schema", nil, "schema directory cannot be empty")
	}
	c.defaults()
	return c, nil
}

func (c *Config) defaults() {
	if c.Target == "" {
		c.Target = c.Schema
	}
	if c.Workers < 1 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
}
