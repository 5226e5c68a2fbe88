package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/umputun/feedparser/pkg/fetch"
	"github.com/umputun/feedparser/pkg/limits"
)

//go:generate go run ../../cmd/schema/main.go schema.json

// Config holds the application configuration
type Config struct {
	Limits limits.Limits `yaml:"limits" json:"limits" jsonschema:"description=Parsing resource caps"`

	Fetch fetch.Options `yaml:"fetch" json:"fetch" jsonschema:"description=HTTP fetching configuration"`

	Sanitize struct {
		Enabled bool `yaml:"enabled" json:"enabled" jsonschema:"default=true,description=Sanitize HTML in parsed feeds"`
		Strict  bool `yaml:"strict" json:"strict" jsonschema:"default=false,description=Strip all markup instead of keeping safe formatting"`
	} `yaml:"sanitize" json:"sanitize" jsonschema:"description=HTML sanitization configuration"`

	Output struct {
		Pretty bool `yaml:"pretty" json:"pretty" jsonschema:"default=false,description=Indent JSON output"`
	} `yaml:"output" json:"output" jsonschema:"description=Output configuration"`

	Concurrency int `yaml:"concurrency" json:"concurrency" jsonschema:"default=4,minimum=1,description=Feeds processed in parallel"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.setDefaults()

	// validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	// verify against embedded schema
	if err := VerifyAgainstEmbeddedSchema(&cfg); err != nil {
		// log warning but don't fail - schema validation is supplementary
		fmt.Printf("warning: schema validation failed: %v\n", err)
	}

	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// setDefaults fills the zero-valued fields. Unset limit fields inherit the
// standard caps individually, so a file overriding one cap keeps the rest.
func (c *Config) setDefaults() {
	def := limits.Default()
	if c.Limits.MaxFeedSize == 0 {
		c.Limits.MaxFeedSize = def.MaxFeedSize
	}
	if c.Limits.MaxNestingDepth == 0 {
		c.Limits.MaxNestingDepth = def.MaxNestingDepth
	}
	if c.Limits.MaxEntries == 0 {
		c.Limits.MaxEntries = def.MaxEntries
	}
	if c.Limits.MaxTextLength == 0 {
		c.Limits.MaxTextLength = def.MaxTextLength
	}
	if c.Limits.MaxAttributeLength == 0 {
		c.Limits.MaxAttributeLength = def.MaxAttributeLength
	}
	if c.Limits.MaxLinksPerFeed == 0 {
		c.Limits.MaxLinksPerFeed = def.MaxLinksPerFeed
	}
	if c.Limits.MaxLinksPerEntry == 0 {
		c.Limits.MaxLinksPerEntry = def.MaxLinksPerEntry
	}
	if c.Limits.MaxAuthors == 0 {
		c.Limits.MaxAuthors = def.MaxAuthors
	}
	if c.Limits.MaxContributors == 0 {
		c.Limits.MaxContributors = def.MaxContributors
	}
	if c.Limits.MaxTags == 0 {
		c.Limits.MaxTags = def.MaxTags
	}
	if c.Limits.MaxContentBlocks == 0 {
		c.Limits.MaxContentBlocks = def.MaxContentBlocks
	}
	if c.Limits.MaxEnclosures == 0 {
		c.Limits.MaxEnclosures = def.MaxEnclosures
	}
	if c.Limits.MaxNamespaces == 0 {
		c.Limits.MaxNamespaces = def.MaxNamespaces
	}

	if c.Fetch.Timeout == 0 {
		c.Fetch.Timeout = 30 * time.Second
	}
	if c.Fetch.MaxBodySize == 0 {
		c.Fetch.MaxBodySize = int64(c.Limits.MaxFeedSize)
	}
	if c.Fetch.MaxRedirects == 0 {
		c.Fetch.MaxRedirects = 10
	}
	if c.Fetch.Retries == 0 {
		c.Fetch.Retries = 3
	}
	if c.Concurrency == 0 {
		c.Concurrency = 4
	}
}

// validate checks configuration for correctness
func validate(cfg *Config) error {
	if cfg.Limits.MaxFeedSize < 1024 {
		return fmt.Errorf("limits.max_feed_size must be at least 1024 bytes")
	}
	if cfg.Limits.MaxNestingDepth < 10 {
		return fmt.Errorf("limits.max_nesting_depth must be at least 10")
	}
	if cfg.Limits.MaxEntries < 1 {
		return fmt.Errorf("limits.max_entries must be at least 1")
	}
	if cfg.Fetch.Timeout < time.Second {
		return fmt.Errorf("fetch.timeout must be at least 1 second")
	}
	if cfg.Fetch.MaxBodySize > int64(cfg.Limits.MaxFeedSize) {
		return fmt.Errorf("fetch.max_body_size must not exceed limits.max_feed_size")
	}
	if cfg.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1")
	}
	return nil
}
