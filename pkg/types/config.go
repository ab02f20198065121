package types

import "time"

// HTTPConfig holds shared HTTP settings used by registry adapters.
type HTTPConfig struct {
	// Timeout is the HTTP client timeout. Adapter deadlines are usually
	// shorter and take precedence.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent to registries
	// (e.g. "mark-search/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxRetries bounds retries on HTTP 429 (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// Weights are the scoring weights for name similarity, registry-reported
// similarity and status.
type Weights struct {
	Name   float64 `json:"name" yaml:"name" mapstructure:"name"`
	Raw    float64 `json:"raw" yaml:"raw" mapstructure:"raw"`
	Status float64 `json:"status" yaml:"status" mapstructure:"status"`
}

// FederationConfig holds settings for the fan-out, dedup and ranking stages.
type FederationConfig struct {
	// GlobalDeadline bounds a whole federation pass (default 8s).
	GlobalDeadline time.Duration `json:"global_deadline" yaml:"global_deadline" mapstructure:"global_deadline"`

	// SourceTimeout is used for sources without their own timeout (default 5s).
	SourceTimeout time.Duration `json:"source_timeout" yaml:"source_timeout" mapstructure:"source_timeout"`

	// SimilarityThreshold is the name similarity at or above which two
	// results from different registries are the same mark (default 0.85).
	SimilarityThreshold float64 `json:"similarity_threshold" yaml:"similarity_threshold" mapstructure:"similarity_threshold"`

	// Weights are the scoring weights (default 0.6 / 0.25 / 0.15).
	Weights Weights `json:"weights" yaml:"weights" mapstructure:"weights"`

	// MaxPageSize is the largest accepted page limit (default 100).
	MaxPageSize int `json:"max_page_size" yaml:"max_page_size" mapstructure:"max_page_size"`

	// DefaultPageSize is used when a caller does not choose a limit (default 20).
	DefaultPageSize int `json:"default_page_size" yaml:"default_page_size" mapstructure:"default_page_size"`
}

// CacheConfig holds settings for the result cache.
type CacheConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// TTL is how long an entry is served without contacting registries (default 2m).
	TTL time.Duration `json:"ttl" yaml:"ttl" mapstructure:"ttl"`

	// StaleFor is how long past TTL an entry is retained as a fallback for
	// searches where every registry failed (default 1h).
	StaleFor time.Duration `json:"stale_for" yaml:"stale_for" mapstructure:"stale_for"`

	// RedisURL selects the shared Redis backend; empty keeps the cache in process.
	RedisURL string `json:"redis_url,omitempty" yaml:"redis_url,omitempty" mapstructure:"redis_url"`

	// KeyPrefix namespaces Redis keys (default "mark-search:").
	KeyPrefix string `json:"key_prefix" yaml:"key_prefix" mapstructure:"key_prefix"`
}

// SourceKind selects the adapter implementation for a registry.
type SourceKind string

const (
	SourceLocal    SourceKind = "local"
	SourceTMview   SourceKind = "tmview"
	SourceEUIPO    SourceKind = "euipo"
	SourceWIPO     SourceKind = "wipo"
	SourceNational SourceKind = "national"
)

// Trust ranks order registries when merged records disagree. Higher wins.
const (
	TrustAggregator = 1
	TrustRegional   = 2
	TrustNational   = 3
	TrustLocal      = 4
)

// SourceConfig describes one registry. Sources are static for the lifetime
// of the process.
type SourceConfig struct {
	// ID is the stable source identifier used for provenance and stats.
	ID string `json:"id" yaml:"id" mapstructure:"id"`

	Kind    SourceKind `json:"kind" yaml:"kind" mapstructure:"kind"`
	BaseURL string     `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	// Disabled removes the source from federation without deleting its config.
	Disabled bool `json:"disabled,omitempty" yaml:"disabled,omitempty" mapstructure:"disabled"`

	// Timeout is the per-source deadline; zero uses FederationConfig.SourceTimeout.
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty" mapstructure:"timeout"`

	// TrustRank orders sources when merged records conflict; zero uses the
	// kind's default.
	TrustRank int `json:"trust_rank,omitempty" yaml:"trust_rank,omitempty" mapstructure:"trust_rank"`

	// RatePerSecond and Burst configure client-side rate limiting. Zero
	// RatePerSecond disables the limiter.
	RatePerSecond float64 `json:"rate_per_second,omitempty" yaml:"rate_per_second,omitempty" mapstructure:"rate_per_second"`
	Burst         int     `json:"burst,omitempty" yaml:"burst,omitempty" mapstructure:"burst"`

	// Jurisdictions lists the jurisdictions the registry covers. Empty means
	// all. For national offices the first entry is stamped on records
	// without a jurisdiction.
	Jurisdictions []string `json:"jurisdictions,omitempty" yaml:"jurisdictions,omitempty" mapstructure:"jurisdictions"`

	// Secret names the file in the secrets directory holding the API key.
	Secret string `json:"secret,omitempty" yaml:"secret,omitempty" mapstructure:"secret"`
}

// DefaultTrustRank returns the trust rank for a source kind.
func DefaultTrustRank(kind SourceKind) int {
	switch kind {
	case SourceLocal:
		return TrustLocal
	case SourceNational:
		return TrustNational
	case SourceEUIPO, SourceWIPO:
		return TrustRegional
	default:
		return TrustAggregator
	}
}

// EffectiveTrustRank returns the configured trust rank or the kind default.
func (s SourceConfig) EffectiveTrustRank() int {
	if s.TrustRank > 0 {
		return s.TrustRank
	}
	return DefaultTrustRank(s.Kind)
}

// LocalConfig holds settings for the local registry database.
type LocalConfig struct {
	// Driver is "sqlite3" (default) or "postgres".
	Driver string `json:"driver" yaml:"driver" mapstructure:"driver"`

	// DSN is the database path (sqlite3) or connection string (postgres).
	DSN string `json:"dsn" yaml:"dsn" mapstructure:"dsn"`

	// MaxResults caps the rows returned per search (default 200).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}

// ServerConfig holds settings for the HTTP search surface.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`
}

// LogConfig selects the logger mode: "dev" (default) or "prod".
type LogConfig struct {
	Mode string `json:"mode" yaml:"mode" mapstructure:"mode"`
}

// Config groups all settings.
type Config struct {
	Federation FederationConfig `json:"federation" yaml:"federation" mapstructure:"federation"`
	Cache      CacheConfig      `json:"cache" yaml:"cache" mapstructure:"cache"`
	Sources    []SourceConfig   `json:"sources" yaml:"sources" mapstructure:"sources"`
	Local      LocalConfig      `json:"local" yaml:"local" mapstructure:"local"`
	HTTP       HTTPConfig       `json:"http" yaml:"http" mapstructure:"http"`
	Server     ServerConfig     `json:"server" yaml:"server" mapstructure:"server"`
	Log        LogConfig        `json:"log" yaml:"log" mapstructure:"log"`

	// SecretsDir is the directory of credential files (default ".secrets/").
	SecretsDir string `json:"secrets_dir" yaml:"secrets_dir" mapstructure:"secrets_dir"`
}

// DefaultConfig returns the configuration used when no file overrides it:
// only the local registry is enabled.
func DefaultConfig() Config {
	return Config{
		Federation: FederationConfig{
			GlobalDeadline:      8 * time.Second,
			SourceTimeout:       5 * time.Second,
			SimilarityThreshold: 0.85,
			Weights:             Weights{Name: 0.6, Raw: 0.25, Status: 0.15},
			MaxPageSize:         100,
			DefaultPageSize:     20,
		},
		Cache: CacheConfig{
			Enabled:   true,
			TTL:       2 * time.Minute,
			StaleFor:  time.Hour,
			KeyPrefix: "mark-search:",
		},
		Sources: []SourceConfig{
			{ID: "local", Kind: SourceLocal},
		},
		Local: LocalConfig{
			Driver:     "sqlite3",
			DSN:        "data/registry.db",
			MaxResults: 200,
		},
		HTTP: HTTPConfig{
			Timeout:    10 * time.Second,
			UserAgent:  "mark-search/0.1",
			MaxRetries: 3,
		},
		Server:     ServerConfig{Addr: ":8080"},
		Log:        LogConfig{Mode: "dev"},
		SecretsDir: ".secrets/",
	}
}

// WithDefaults fills zero-valued federation, cache, local and HTTP settings
// from DefaultConfig.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.Federation.GlobalDeadline <= 0 {
		c.Federation.GlobalDeadline = d.Federation.GlobalDeadline
	}
	if c.Federation.SourceTimeout <= 0 {
		c.Federation.SourceTimeout = d.Federation.SourceTimeout
	}
	if c.Federation.SimilarityThreshold <= 0 {
		c.Federation.SimilarityThreshold = d.Federation.SimilarityThreshold
	}
	if c.Federation.Weights == (Weights{}) {
		c.Federation.Weights = d.Federation.Weights
	}
	if c.Federation.MaxPageSize <= 0 {
		c.Federation.MaxPageSize = d.Federation.MaxPageSize
	}
	if c.Federation.DefaultPageSize <= 0 {
		c.Federation.DefaultPageSize = d.Federation.DefaultPageSize
	}
	if c.Cache.TTL <= 0 {
		c.Cache.TTL = d.Cache.TTL
	}
	if c.Cache.StaleFor < 0 {
		c.Cache.StaleFor = 0
	}
	if c.Cache.KeyPrefix == "" {
		c.Cache.KeyPrefix = d.Cache.KeyPrefix
	}
	if c.Local.Driver == "" {
		c.Local.Driver = d.Local.Driver
	}
	if c.Local.DSN == "" {
		c.Local.DSN = d.Local.DSN
	}
	if c.Local.MaxResults <= 0 {
		c.Local.MaxResults = d.Local.MaxResults
	}
	if c.HTTP.Timeout <= 0 {
		c.HTTP.Timeout = d.HTTP.Timeout
	}
	if c.HTTP.UserAgent == "" {
		c.HTTP.UserAgent = d.HTTP.UserAgent
	}
	if c.HTTP.MaxRetries <= 0 {
		c.HTTP.MaxRetries = d.HTTP.MaxRetries
	}
	if c.Server.Addr == "" {
		c.Server.Addr = d.Server.Addr
	}
	if c.Log.Mode == "" {
		c.Log.Mode = d.Log.Mode
	}
	if c.SecretsDir == "" {
		c.SecretsDir = d.SecretsDir
	}
	return c
}
