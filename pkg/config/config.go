// Package config loads coaldraw's TOML configuration file.
//
// The file lives at $XDG_CONFIG_HOME/coaldraw/config.toml (falling back to
// ~/.config/coaldraw/config.toml). A missing file is not an error: every
// field has a default, and command-line flags override whatever the file
// sets.
//
//	[render]
//	width = 600
//	node_labels = true
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//
//	[server]
//	addr = ":8080"
//	store = "mongo"
//	mongo_uri = "mongodb://localhost:27017"
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	cerrors "github.com/matzehuels/coaldraw/pkg/errors"
)

// AppName names the configuration and cache directories.
const AppName = "coaldraw"

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreMongo  = "mongo"
)

// Config is the whole configuration file.
type Config struct {
	Render RenderConfig `toml:"render"`
	Cache  CacheConfig  `toml:"cache"`
	Server ServerConfig `toml:"server"`
	Quiz   QuizConfig   `toml:"quiz"`
}

// RenderConfig holds defaults for the render command and the API.
type RenderConfig struct {
	Width        float64 `toml:"width"`
	Height       float64 `toml:"height"`
	FontSize     float64 `toml:"font_size"`
	NodeSize     float64 `toml:"node_size"`
	NodeLabels   bool    `toml:"node_labels"`
	ShowInternal bool    `toml:"show_internal"`
	Viz          string  `toml:"viz"`
	Format       string  `toml:"format"`
	Scale        float64 `toml:"scale"`
	Class        string  `toml:"class"`
	CSSFile      string  `toml:"css_file"`
}

// CacheConfig selects and configures the artifact cache.
type CacheConfig struct {
	Backend       string `toml:"backend"`
	Dir           string `toml:"dir"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	RedisPrefix   string `toml:"redis_prefix"`

	// Scope prefixes every cache key, for deployments sharing one backend.
	Scope string `toml:"scope"`
}

// ServerConfig configures `coaldraw serve`.
type ServerConfig struct {
	Addr          string        `toml:"addr"`
	Store         string        `toml:"store"`
	MongoURI      string        `toml:"mongo_uri"`
	MongoDatabase string        `toml:"mongo_database"`
	ReadTimeout   time.Duration `toml:"read_timeout"`
	WriteTimeout  time.Duration `toml:"write_timeout"`
	MaxBodyBytes  int64         `toml:"max_body_bytes"`
}

// QuizConfig points at an alternative quiz file. Empty means the built-in
// questions.
type QuizConfig struct {
	File string `toml:"file"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Render: RenderConfig{
			Width:    400,
			Height:   200,
			FontSize: 18,
			Viz:      "plot",
			Format:   "svg",
			Scale:    2,
		},
		Cache: CacheConfig{
			Backend:     CacheFile,
			RedisAddr:   "localhost:6379",
			RedisPrefix: AppName + ":",
		},
		Server: ServerConfig{
			Addr:          ":8080",
			Store:         StoreMemory,
			MongoURI:      "mongodb://localhost:27017",
			MongoDatabase: AppName,
			ReadTimeout:   15 * time.Second,
			WriteTimeout:  60 * time.Second,
			MaxBodyBytes:  1 << 20,
		},
	}
}

// Path returns the default configuration file path.
func Path() (string, error) {
	dir, err := configHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName, "config.toml"), nil
}

// CacheDir returns the default file cache directory (~/.cache/coaldraw).
func CacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", AppName), nil
}

func configHome() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config"), nil
}

// Load reads the file at path over the defaults. An empty path means
// [Path]. A missing file yields the defaults; unknown keys are an error so
// typos do not go unnoticed.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		p, err := Path()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	md, err := toml.DecodeFile(path, &cfg)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Default(), cerrors.Wrap(cerrors.ErrCodeInvalidInput, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Default(), cerrors.New(cerrors.ErrCodeInvalidInput, "%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Default(), fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges and backend names.
func (c Config) Validate() error {
	if err := cerrors.ValidateDimensions(c.Render.Width, c.Render.Height); err != nil {
		return err
	}
	if err := cerrors.ValidateFontSize(c.Render.FontSize); err != nil {
		return err
	}
	if c.Render.NodeSize < 0 {
		return cerrors.New(cerrors.ErrCodeInvalidOptions, "node_size must not be negative")
	}
	if !slices.Contains([]string{CacheFile, CacheRedis, CacheNone}, c.Cache.Backend) {
		return cerrors.New(cerrors.ErrCodeInvalidOptions, "unknown cache backend %q", c.Cache.Backend)
	}
	if !slices.Contains([]string{StoreMemory, StoreMongo}, c.Server.Store) {
		return cerrors.New(cerrors.ErrCodeInvalidOptions, "unknown store %q", c.Server.Store)
	}
	return nil
}

// Write encodes c as TOML.
func (c Config) Write(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}
