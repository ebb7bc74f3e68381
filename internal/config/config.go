// Package config loads the project metadata file (site.yaml).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the project metadata loaded before every build.
type Config struct {
	Title   string `yaml:"title"`
	Author  string `yaml:"author,omitempty"`
	BaseURL string `yaml:"base_url,omitempty"`

	Source    SourceConfig `yaml:"source"`
	Output    OutputConfig `yaml:"output"`
	Templates []string     `yaml:"templates,omitempty"` // template names required by the build
	Dev       DevConfig    `yaml:"dev,omitempty"`
}

// SourceConfig locates the content tree.
type SourceConfig struct {
	Directory    string `yaml:"directory"`
	TemplatesDir string `yaml:"templates_dir,omitempty"`
	PagesDir     string `yaml:"pages_dir,omitempty"`
	PostsDir     string `yaml:"posts_dir,omitempty"`
}

// OutputConfig locates the generated site.
type OutputConfig struct {
	Directory string `yaml:"directory"`
}

// DevConfig tunes the live-development server.
type DevConfig struct {
	Port         int           `yaml:"port,omitempty"`
	PollInterval time.Duration `yaml:"poll_interval,omitempty"`
	EventLog     string        `yaml:"event_log,omitempty"` // sqlite path, ":memory:" when empty
}

// UnmarshalYAML accepts Go duration strings ("500ms", "2s") for
// poll_interval.
func (d *DevConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Port         int    `yaml:"port"`
		PollInterval string `yaml:"poll_interval"`
		EventLog     string `yaml:"event_log"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	d.Port = raw.Port
	d.EventLog = raw.EventLog
	if raw.PollInterval != "" {
		interval, err := time.ParseDuration(raw.PollInterval)
		if err != nil {
			return fmt.Errorf("parse poll_interval: %w", err)
		}
		d.PollInterval = interval
	}
	return nil
}

// Load reads and validates the project metadata at path. Environment
// variables in the file are expanded before decoding.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project metadata: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("parse project metadata: %w", err)
	}

	cfg.applyDefaults(filepath.Dir(path))
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults(projectDir string) {
	if c.Source.Directory == "" {
		c.Source.Directory = projectDir
	}
	if c.Source.TemplatesDir == "" {
		c.Source.TemplatesDir = filepath.Join(c.Source.Directory, "templates")
	}
	if c.Source.PagesDir == "" {
		c.Source.PagesDir = filepath.Join(c.Source.Directory, "pages")
	}
	if c.Source.PostsDir == "" {
		c.Source.PostsDir = filepath.Join(c.Source.Directory, "posts")
	}
	if c.Output.Directory == "" {
		c.Output.Directory = filepath.Join(projectDir, "site")
	}
	if len(c.Templates) == 0 {
		c.Templates = []string{"base"}
	}
	if c.BaseURL == "" {
		c.BaseURL = "/"
	}
	if c.Dev.Port <= 0 {
		c.Dev.Port = 8080
	}
	if c.Dev.PollInterval <= 0 {
		c.Dev.PollInterval = 500 * time.Millisecond
	}
	if c.Dev.EventLog == "" {
		c.Dev.EventLog = ":memory:"
	}
}

func (c *Config) validate() error {
	if c.Title == "" {
		return fmt.Errorf("project metadata: title is required")
	}
	hasBase := false
	for _, name := range c.Templates {
		if name == "base" {
			hasBase = true
		}
	}
	if !hasBase {
		return fmt.Errorf("project metadata: templates must include %q", "base")
	}
	return nil
}
