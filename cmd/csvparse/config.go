package main

import (
	"os"

	"gopkg.in/yaml.v3"
)

// cliConfig gathers flag, environment and profile values. A YAML
// profile fills in whatever the flags left at their zero value.
type cliConfig struct {
	Delimiter string `yaml:"delimiter"`
	Quote     string `yaml:"quote"`
	Escape    string `yaml:"escape"`
	Comments  string `yaml:"comments"`
	Header    bool   `yaml:"header"`
	SkipEmpty string `yaml:"skipEmptyLines"`
	Preview   int    `yaml:"preview"`
	SkipLines int    `yaml:"skipFirstNLines"`
	ChunkSize int    `yaml:"chunkSize"`
	Output    string `yaml:"output"`
	Stats     bool   `yaml:"stats"`
	Profile   string `yaml:"-"`
	Loglevel  string `yaml:"-"`
}

func (c *cliConfig) loadProfile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var p cliConfig
	if err := yaml.Unmarshal(b, &p); err != nil {
		return err
	}

	if c.Delimiter == "" {
		c.Delimiter = p.Delimiter
	}
	if c.Quote == "" {
		c.Quote = p.Quote
	}
	if c.Escape == "" {
		c.Escape = p.Escape
	}
	if c.Comments == "" {
		c.Comments = p.Comments
	}
	if !c.Header {
		c.Header = p.Header
	}
	if c.SkipEmpty == "" {
		c.SkipEmpty = p.SkipEmpty
	}
	if c.Preview == 0 {
		c.Preview = p.Preview
	}
	if c.SkipLines == 0 {
		c.SkipLines = p.SkipLines
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = p.ChunkSize
	}
	if c.Output == "" || c.Output == "csv" {
		if p.Output != "" {
			c.Output = p.Output
		}
	}
	if !c.Stats {
		c.Stats = p.Stats
	}

	return nil
}
