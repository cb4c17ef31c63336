// Package config loads browsershot settings from a YAML file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	shot "github.com/root4loot/browsershot/pkg/browsershot"
)

// BinaryEnv names the variable consulted when no binary path is configured.
const BinaryEnv = "BROWSERSHOT_BIN"

type Config struct {
	Render RenderConfig `yaml:"render"`
	Batch  BatchConfig  `yaml:"batch"`
	Server ServerConfig `yaml:"server"`
}

type RenderConfig struct {
	Engine     string        `yaml:"engine"`
	BinaryPath string        `yaml:"binary_path"`
	Width      int           `yaml:"width"`
	Height     int           `yaml:"height"`
	Quality    int           `yaml:"quality"`
	Delay      time.Duration `yaml:"delay"`
	Timeout    time.Duration `yaml:"timeout"`
	UserAgent  string        `yaml:"user_agent"`
}

type BatchConfig struct {
	Concurrency        int    `yaml:"concurrency"`
	Outfolder          string `yaml:"outfolder"`
	Format             string `yaml:"format"`
	SaveUnique         bool   `yaml:"save_unique"`
	AvoidDuplicates    bool   `yaml:"avoid_duplicates"`
	DuplicateThreshold int    `yaml:"duplicate_threshold"`
	Imprint            bool   `yaml:"imprint"`
	ResizeWidth        int    `yaml:"resize_width"`
	ResizeHeight       int    `yaml:"resize_height"`
}

type ServerConfig struct {
	Listen    string        `yaml:"listen"`
	RedisAddr string        `yaml:"redis_addr"`
	RedisDB   int           `yaml:"redis_db"`
	CacheTTL  time.Duration `yaml:"cache_ttl"`
}

// Default returns the built-in settings.
func Default() Config {
	r := shot.NewOptions()
	return Config{
		Render: RenderConfig{
			Engine:  string(r.Engine),
			Width:   r.Width,
			Height:  r.Height,
			Quality: r.Quality,
			Delay:   r.Delay,
			Timeout: r.Timeout,
		},
		Batch: BatchConfig{
			Concurrency:        10,
			Outfolder:          "./screenshots",
			Format:             "png",
			DuplicateThreshold: 96,
		},
		Server: ServerConfig{
			Listen:   ":8080",
			CacheTTL: 10 * time.Minute,
		},
	}
}

// Load reads the file named by CONFIG_PATH, or returns the defaults when it
// is unset.
func Load() (Config, error) {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return LoadFrom(p)
	}
	cfg := Default()
	cfg.applyEnv()
	return cfg, cfg.Validate()
}

// LoadFrom reads the YAML file at path on top of the defaults.
func LoadFrom(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyEnv()
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() {
	if c.Render.BinaryPath == "" {
		c.Render.BinaryPath = os.Getenv(BinaryEnv)
	}
}

// Validate checks the render settings and the batch and server limits.
func (c Config) Validate() error {
	if _, err := c.RenderOptions(); err != nil {
		return err
	}
	if c.Batch.Concurrency < 1 {
		return fmt.Errorf("batch.concurrency must be at least 1, got %d", c.Batch.Concurrency)
	}
	if c.Batch.DuplicateThreshold < 1 || c.Batch.DuplicateThreshold > 100 {
		return fmt.Errorf("batch.duplicate_threshold must be between 1 and 100, got %d", c.Batch.DuplicateThreshold)
	}
	if c.Batch.ResizeWidth < 0 || c.Batch.ResizeHeight < 0 {
		return fmt.Errorf("batch resize dimensions must not be negative")
	}
	switch c.Batch.Format {
	case "png", "jpg", "jpeg":
	default:
		return fmt.Errorf("batch.format must be png, jpg or jpeg, got %q", c.Batch.Format)
	}
	if c.Server.CacheTTL < 0 {
		return fmt.Errorf("server.cache_ttl must not be negative")
	}
	return nil
}

// RenderOptions converts the render section into a validated RenderConfig.
func (c Config) RenderOptions() (shot.RenderConfig, error) {
	engine, err := shot.ParseEngine(c.Render.Engine)
	if err != nil {
		return shot.RenderConfig{}, err
	}

	r := shot.RenderConfig{
		BinaryPath: c.Render.BinaryPath,
		Width:      c.Render.Width,
		Height:     c.Render.Height,
		Quality:    c.Render.Quality,
		Delay:      c.Render.Delay,
		Timeout:    c.Render.Timeout,
		Engine:     engine,
		UserAgent:  c.Render.UserAgent,
	}
	return r, r.Validate()
}

// SaveOptions returns the post-processing settings of the batch section.
func (c Config) SaveOptions() shot.SaveOptions {
	return shot.SaveOptions{
		ResizeWidth:  c.Batch.ResizeWidth,
		ResizeHeight: c.Batch.ResizeHeight,
		Imprint:      c.Batch.Imprint,
	}
}
