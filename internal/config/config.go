// Package config loads spotlight's TOML configuration.
//
// Values are layered: built-in defaults, then the config file, then
// command-line flags applied by the caller. The file is looked up at the
// path given with --config, else $SPOTLIGHT_CONFIG, else
// <UserConfigDir>/spotlight/config.toml; a missing default file is not an
// error.
//
// Example config.toml:
//
//	[server]
//	addr = ":8080"
//
//	[cache]
//	backend = "redis"
//
//	[redis]
//	addr = "localhost:6379"
//
//	[data_source]
//	base_url = "https://api.example.com"
//	cache_ttl = "5m"
//
//	[draw]
//	time_scale = 0.5
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/spotlight/pkg/draw"
	"github.com/matzehuels/spotlight/pkg/errors"
	"github.com/matzehuels/spotlight/pkg/ring"
)

// EnvPath names the environment variable holding the config path.
const EnvPath = "SPOTLIGHT_CONFIG"

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Storage backends.
const (
	StorageMemory = "memory"
	StorageFile   = "file"
	StorageMongo  = "mongo"
)

// Config is the full configuration.
type Config struct {
	Server     Server     `toml:"server"`
	Cache      Cache      `toml:"cache"`
	Redis      Redis      `toml:"redis"`
	Storage    Storage    `toml:"storage"`
	Mongo      Mongo      `toml:"mongo"`
	DataSource DataSource `toml:"data_source"`
	Layout     Layout     `toml:"layout"`
	Draw       Draw       `toml:"draw"`
}

// Server configures the HTTP API.
type Server struct {
	Addr            string   `toml:"addr"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
	// AllowedOrigins restricts websocket upgrades; empty allows any origin.
	AllowedOrigins []string `toml:"allowed_origins"`
	// Sound plays cues on the server's audio device.
	Sound bool `toml:"sound"`
}

// Cache selects the cache backend.
type Cache struct {
	Backend string `toml:"backend"`
	Dir     string `toml:"dir"`
	Prefix  string `toml:"prefix"`
}

// Redis configures [cache.RedisCache].
type Redis struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// Storage selects where finished draws are recorded.
type Storage struct {
	Backend string `toml:"backend"`
	Dir     string `toml:"dir"`
}

// Mongo configures [storage.MongoStore].
type Mongo struct {
	URI      string `toml:"uri"`
	Database string `toml:"database"`
}

// DataSource configures the listings client.
type DataSource struct {
	BaseURL  string   `toml:"base_url"`
	Token    string   `toml:"token"`
	CacheTTL Duration `toml:"cache_ttl"`
}

// Layout overrides the ring geometry.
type Layout struct {
	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`
	ring.Options
}

// Draw configures the ceremony timing.
type Draw struct {
	TimeScale         float64  `toml:"time_scale"`
	Announce          Duration `toml:"announce"`
	Spin              Duration `toml:"spin"`
	Settle            Duration `toml:"settle"`
	Reveal            Duration `toml:"reveal"`
	NotEnough         Duration `toml:"not_enough"`
	EliminationWindow float64  `toml:"elimination_window"`
}

// Timings returns the configured durations. Unset fields keep their defaults.
func (d Draw) Timings() draw.Timings {
	return draw.Timings{
		Announce:          d.Announce.Duration,
		Spin:              d.Spin.Duration,
		Settle:            d.Settle.Duration,
		Reveal:            d.Reveal.Duration,
		NotEnough:         d.NotEnough.Duration,
		EliminationWindow: d.EliminationWindow,
	}
}

// Duration is a time.Duration decoded from strings such as "1m30s".
type Duration struct {
	time.Duration
}

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: Server{
			Addr:            ":8080",
			ShutdownTimeout: Duration{10 * time.Second},
		},
		Cache:   Cache{Backend: CacheFile},
		Redis:   Redis{Addr: "localhost:6379"},
		Storage: Storage{Backend: StorageMemory},
		Mongo:   Mongo{URI: "mongodb://localhost:27017", Database: "spotlight"},
		DataSource: DataSource{
			CacheTTL: Duration{5 * time.Minute},
		},
		Layout: Layout{Width: 800, Height: 600, Options: ring.DefaultOptions()},
		Draw:   Draw{TimeScale: 1},
	}
}

// DefaultPath returns <UserConfigDir>/spotlight/config.toml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "spotlight", "config.toml"), nil
}

// Load reads the configuration. An explicit path must exist; without one,
// $SPOTLIGHT_CONFIG and then the default path are tried.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		if env := os.Getenv(EnvPath); env != "" {
			path, explicit = env, true
		} else if p, err := DefaultPath(); err == nil {
			path = p
		}
	}
	if path == "" {
		return cfg, nil
	}

	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return Default(), nil
		}
		if os.IsNotExist(err) {
			return cfg, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
		}
		return cfg, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse config %s", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return cfg, errors.New(errors.ErrCodeInvalidInput, "config %s: unknown keys %v", path, undecoded)
	}
	return cfg, cfg.Validate()
}

// Validate checks backend names and numeric ranges.
func (c Config) Validate() error {
	switch c.Cache.Backend {
	case CacheFile, CacheRedis, CacheNone:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown cache backend %q", c.Cache.Backend)
	}
	switch c.Storage.Backend {
	case StorageMemory, StorageFile, StorageMongo:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown storage backend %q", c.Storage.Backend)
	}
	if c.Draw.TimeScale <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "draw.time_scale must be positive")
	}
	if w := c.Draw.EliminationWindow; w < 0 || w > 1 {
		return errors.New(errors.ErrCodeInvalidInput, "draw.elimination_window must be within [0, 1]")
	}
	if c.DataSource.BaseURL != "" {
		if err := errors.ValidateURL(c.DataSource.BaseURL); err != nil {
			return err
		}
	}
	return errors.ValidateViewport(c.Layout.Width, c.Layout.Height)
}
