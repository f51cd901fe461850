package cli

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/textart/pkg/errors"
	"github.com/matzehuels/textart/pkg/pipeline"
)

// Cache backends accepted in the config file.
const (
	cacheFile  = "file"
	cacheRedis = "redis"
	cacheNone  = "none"
)

// envRedisURL overrides cache.redis_url.
const envRedisURL = "TEXTART_REDIS_URL"

// Config is the TOML config file. Zero values mean "use the built-in default".
//
//	width = 120
//	palette = "blocks"
//	formats = ["text", "png"]
//
//	[cache]
//	backend = "redis"
//	redis_url = "redis://localhost:6379/0"
type Config struct {
	Width        int      `toml:"width"`
	Aspect       float64  `toml:"aspect"`
	Palette      string   `toml:"palette"`
	Chars        string   `toml:"chars"`
	Invert       bool     `toml:"invert"`
	MaxDimension int      `toml:"max_dimension"`
	Filter       string   `toml:"filter"`
	Luma         string   `toml:"luma"`
	Alpha        string   `toml:"alpha"`
	Formats      []string `toml:"formats"`

	Cache  CacheConfig  `toml:"cache"`
	Server ServerConfig `toml:"server"`
}

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	Backend  string `toml:"backend"` // file (default), redis, none
	Dir      string `toml:"dir"`
	RedisURL string `toml:"redis_url"`
}

// ServerConfig holds defaults for "textart serve".
type ServerConfig struct {
	Addr          string `toml:"addr"`
	MaxBodyMB     int    `toml:"max_body_mb"`
	TimeoutSecond int    `toml:"timeout_seconds"`
	MaxDimension  int    `toml:"max_dimension"`
}

// loadConfig decodes path. A missing file yields the zero Config unless the
// path was given explicitly. Unknown keys are rejected so typos surface.
func loadConfig(path string, explicit bool) (Config, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	switch {
	case stderrors.Is(err, fs.ErrNotExist) && !explicit:
		cfg = Config{}
	case stderrors.Is(err, fs.ErrNotExist):
		return Config{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s not found", path)
	case err != nil:
		return Config{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config %s", path)
	default:
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return Config{}, errors.New(errors.ErrCodeInvalidInput, "config %s: unknown keys: %s", path, strings.Join(keys, ", "))
		}
	}

	if url := os.Getenv(envRedisURL); url != "" {
		cfg.Cache.RedisURL = url
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Cache.Backend {
	case "":
		c.Cache.Backend = cacheFile
	case cacheFile, cacheRedis, cacheNone:
	default:
		return errors.New(errors.ErrCodeInvalidOption, "unknown cache backend %q (must be one of: file, redis, none)", c.Cache.Backend)
	}
	if c.Server.MaxBodyMB < 0 || c.Server.TimeoutSecond < 0 || c.Server.MaxDimension < 0 {
		return errors.New(errors.ErrCodeInvalidOption, "server limits cannot be negative")
	}
	return nil
}

// pipelineOptions returns the file defaults as pipeline options.
func (c Config) pipelineOptions() pipeline.Options {
	return pipeline.Options{
		Width:            c.Width,
		AspectCorrection: c.Aspect,
		MaxDimension:     c.MaxDimension,
		Invert:           c.Invert,
		Palette:          c.Palette,
		CustomPalette:    c.Chars,
		Filter:           c.Filter,
		Luma:             c.Luma,
		Alpha:            c.Alpha,
		Formats:          append([]string(nil), c.Formats...),
	}
}
