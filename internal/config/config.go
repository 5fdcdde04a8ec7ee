package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// SourceEntry declares one markup-scraped site in the config, with optional
// mirror domains tried in order when the primary misbehaves.
type SourceEntry struct {
	ID      string   `yaml:"id"`
	Name    string   `yaml:"name"`
	URL     string   `yaml:"url"`
	Mirrors []string `yaml:"mirrors,omitempty"`
	NSFW    bool     `yaml:"nsfw,omitempty"`
}

type Config struct {
	CacheDir       string `yaml:"cache_dir"`
	MemoryCapacity int    `yaml:"memory_capacity"`

	RateLimit     int `yaml:"rate_limit"`
	RateWindowSec int `yaml:"rate_window_sec"`
	TimeoutSec    int `yaml:"timeout_sec"`

	Workers  int    `yaml:"workers"`
	Language string `yaml:"language"`
	Debug    bool   `yaml:"debug"`

	DefaultRange string `yaml:"default_range"`
	DefaultList  string `yaml:"default_list"`

	Cookie     string `yaml:"cookie"`
	CookieFile string `yaml:"cookie_file"`
	UserAgent  string `yaml:"user_agent"`

	CatalogURLs []string      `yaml:"catalog_urls,omitempty"`
	Sources     []SourceEntry `yaml:"sources,omitempty"`
}

type Options struct {
	IgnoreConfig bool
	Debug        bool

	CacheDir   string
	Workers    int
	Language   string
	RateLimit  int
	TimeoutSec int

	DefaultRange string
	DefaultList  string

	Cookie     string
	CookieFile string
	UserAgent  string
}

func DefaultConfig() *Config {
	return &Config{
		CacheDir:       defaultCacheDir(),
		MemoryCapacity: 100,
		RateLimit:      5,
		RateWindowSec:  1,
		TimeoutSec:     30,
		Workers:        3,
		Language:       "en",
	}
}

func defaultCacheDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = "."
	}
	return filepath.Join(base, "mangasrc")
}

func SaveYAML(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func parseYAML(raw []byte, c *Config) error {
	return yaml.Unmarshal(raw, c)
}

func loadYAML(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var c Config
	if err := parseYAML(b, &c); err != nil {
		return nil, err
	}

	return &c, nil
}

func LoadMerged(opts Options) (*Config, string, error) {
	if opts.IgnoreConfig {
		cfg := DefaultConfig()
		mergeConfig(cfg, opts)
		normalizeDefaults(cfg)
		return cfg, "(ignored config)", nil
	}

	activePath, err := ActiveConfigPath()
	if err == ErrNoConfig || activePath == "" {
		cfg := DefaultConfig()
		mergeConfig(cfg, opts)
		normalizeDefaults(cfg)
		return cfg, "(default config in memory)\nRun `mangasrc config init` to create an actual config\n", nil
	}
	if err != nil {
		return nil, "", err
	}

	cfg, err := loadYAML(activePath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config %s: %w", activePath, err)
	}

	mergeConfig(cfg, opts)
	normalizeDefaults(cfg)

	return cfg, activePath, nil
}

func mergeConfig(c *Config, o Options) {
	if o.Debug {
		c.Debug = true
	}
	if o.CacheDir != "" {
		c.CacheDir = o.CacheDir
	}
	if o.Workers != 0 {
		c.Workers = o.Workers
	}
	if o.Language != "" {
		c.Language = o.Language
	}
	if o.RateLimit != 0 {
		c.RateLimit = o.RateLimit
	}
	if o.TimeoutSec != 0 {
		c.TimeoutSec = o.TimeoutSec
	}
	if o.DefaultRange != "" {
		c.DefaultRange = o.DefaultRange
	}
	if o.DefaultList != "" {
		c.DefaultList = o.DefaultList
	}
	if o.Cookie != "" {
		c.Cookie = o.Cookie
	}
	if o.CookieFile != "" {
		c.CookieFile = o.CookieFile
	}
	if o.UserAgent != "" {
		c.UserAgent = o.UserAgent
	}
}

func normalizeDefaults(c *Config) {
	if c.CacheDir == "" {
		c.CacheDir = defaultCacheDir()
	}
	if c.MemoryCapacity == 0 {
		c.MemoryCapacity = 100
	}
	if c.RateLimit == 0 {
		c.RateLimit = 5
	}
	if c.RateWindowSec == 0 {
		c.RateWindowSec = 1
	}
	if c.TimeoutSec == 0 {
		c.TimeoutSec = 30
	}
	if c.Workers == 0 {
		c.Workers = 3
	}
	if c.Language == "" {
		c.Language = "en"
	}
}

// ResolveCookie returns the cookie header value, preferring the inline value
// over the cookie file.
func (c *Config) ResolveCookie() (string, error) {
	if c.Cookie != "" {
		return c.Cookie, nil
	}
	if c.CookieFile == "" {
		return "", nil
	}

	b, err := os.ReadFile(c.CookieFile)
	if err != nil {
		return "", fmt.Errorf("read cookie file: %w", err)
	}

	return strings.TrimSpace(string(b)), nil
}

func (c *Config) Print() {
	fmt.Printf(" -cache_dir: %s\n", c.CacheDir)
	fmt.Printf(" -memory_capacity: %d\n", c.MemoryCapacity)
	fmt.Printf(" -rate_limit: %d per %ds\n", c.RateLimit, c.RateWindowSec)
	fmt.Printf(" -timeout_sec: %d\n", c.TimeoutSec)
	fmt.Printf(" -workers: %d\n", c.Workers)
	fmt.Printf(" -language: %s\n", c.Language)
	if c.Debug {
		fmt.Printf(" -debug: %t\n", c.Debug)
	}
	if c.DefaultRange != "" {
		fmt.Printf(" -range: %s\n", c.DefaultRange)
	}
	if c.DefaultList != "" {
		fmt.Printf(" -list: %s\n", c.DefaultList)
	}
	if c.CookieFile != "" {
		fmt.Printf(" -cookie_file: %s\n", c.CookieFile)
	}
	if c.UserAgent != "" {
		fmt.Printf(" -user_agent: %s\n", c.UserAgent)
	}
	if len(c.CatalogURLs) > 0 {
		fmt.Printf(" -catalog_urls: %s\n", strings.Join(c.CatalogURLs, ", "))
	}
	for _, s := range c.Sources {
		fmt.Printf(" -source: %s (%s)\n", s.ID, s.URL)
	}
}
