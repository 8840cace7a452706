package types

import "time"

// HTTPConfig holds shared HTTP settings used by every component that makes
// network requests.
type HTTPConfig struct {
	// Timeout is the per-request timeout (default 30s).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "paper-pipeline/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// FetchConfig holds settings for the Crossref paper fetcher.
type FetchConfig struct {
	// RowsPerPage is the upstream page size (default 20).
	RowsPerPage int `json:"rows_per_page" yaml:"rows_per_page" mapstructure:"rows_per_page"`

	// PageDelay is the pause between consecutive pages (default 200ms).
	PageDelay time.Duration `json:"page_delay" yaml:"page_delay" mapstructure:"page_delay"`

	// MaxResults caps total_results on any request (default 100).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`

	// BaseURL overrides the Crossref works endpoint.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	// Mailto is sent to Crossref for its polite pool.
	Mailto string `json:"mailto,omitempty" yaml:"mailto,omitempty" mapstructure:"mailto"`
}

// DedupStrictness selects the duplicate detection rule set.
type DedupStrictness string

const (
	// DedupExact matches on normalized DOI and normalized title only.
	DedupExact DedupStrictness = "exact"

	// DedupFuzzy adds title similarity against every kept title. O(n²).
	DedupFuzzy DedupStrictness = "fuzzy"
)

// DedupConfig holds settings for the deduplicator.
type DedupConfig struct {
	Strictness DedupStrictness `json:"strictness" yaml:"strictness" mapstructure:"strictness"`

	// Threshold is the similarity a title must exceed to count as a
	// duplicate in fuzzy mode (default 0.8).
	Threshold float64 `json:"threshold" yaml:"threshold" mapstructure:"threshold"`
}

// SimilarityConfig picks the title similarity policy for a deployment.
type SimilarityConfig struct {
	// Denominator is "max" (shared words over the larger word set) or
	// "union" (Jaccard). Default "max".
	Denominator string `json:"denominator" yaml:"denominator" mapstructure:"denominator"`
}

// ResolverConfig holds settings for abstract resolution and its adapters.
type ResolverConfig struct {
	// Order lists adapter names in priority order. Empty means the
	// built-in default order.
	Order []string `json:"order,omitempty" yaml:"order,omitempty" mapstructure:"order"`

	// MatchThreshold is the title similarity a candidate must exceed (default 0.6).
	MatchThreshold float64 `json:"match_threshold" yaml:"match_threshold" mapstructure:"match_threshold"`

	// Candidates is how many search hits each adapter inspects (default 5).
	Candidates int `json:"candidates" yaml:"candidates" mapstructure:"candidates"`

	// CallDelay is the minimum spacing between calls to one provider (default 1s).
	CallDelay time.Duration `json:"call_delay" yaml:"call_delay" mapstructure:"call_delay"`

	// MaxAttempts bounds retries against flaky providers (default 3).
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts" mapstructure:"max_attempts"`

	// RetryBaseDelay is the first backoff interval for flaky providers (default 1s).
	RetryBaseDelay time.Duration `json:"retry_base_delay" yaml:"retry_base_delay" mapstructure:"retry_base_delay"`
}

// SourceConfig holds per-provider credentials and endpoint overrides.
type SourceConfig struct {
	APIKey  string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	// Mailto identifies the caller to providers with a polite pool
	// (OpenAlex, Crossref).
	Mailto string `json:"mailto,omitempty" yaml:"mailto,omitempty" mapstructure:"mailto"`
}

// PipelineConfig holds orchestrator settings.
type PipelineConfig struct {
	// MinAbstractLength is the length below which an abstract is treated
	// as missing and resolution is attempted (default 50).
	MinAbstractLength int `json:"min_abstract_length" yaml:"min_abstract_length" mapstructure:"min_abstract_length"`

	// RunBudget bounds one batch or stream run. Zero disables the bound.
	RunBudget time.Duration `json:"run_budget" yaml:"run_budget" mapstructure:"run_budget"`
}

// CacheConfig configures the abstract lookup cache.
type CacheConfig struct {
	// Path is the SQLite database file. Empty disables caching.
	Path string `json:"path,omitempty" yaml:"path,omitempty" mapstructure:"path"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address         string        `json:"address" yaml:"address" mapstructure:"address"`
	ReadTimeout     time.Duration `json:"read_timeout" yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout" yaml:"write_timeout" mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`

	// StreamHeartbeat is the interval between keepalive comments on an
	// event stream. Zero disables heartbeats.
	StreamHeartbeat time.Duration `json:"stream_heartbeat" yaml:"stream_heartbeat" mapstructure:"stream_heartbeat"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	// Level is one of trace, debug, info, warn, error, fatal, panic.
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is "json" or "console".
	Format string `json:"format" yaml:"format" mapstructure:"format"`

	// Output is "stdout" or "stderr".
	Output string `json:"output" yaml:"output" mapstructure:"output"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Path    string `json:"path" yaml:"path" mapstructure:"path"`
}

// Config groups all component configurations.
type Config struct {
	HTTP       HTTPConfig              `json:"http" yaml:"http" mapstructure:"http"`
	Fetch      FetchConfig             `json:"fetch" yaml:"fetch" mapstructure:"fetch"`
	Dedup      DedupConfig             `json:"dedup" yaml:"dedup" mapstructure:"dedup"`
	Similarity SimilarityConfig        `json:"similarity" yaml:"similarity" mapstructure:"similarity"`
	Resolver   ResolverConfig          `json:"resolver" yaml:"resolver" mapstructure:"resolver"`
	Sources    map[string]SourceConfig `json:"sources,omitempty" yaml:"sources,omitempty" mapstructure:"sources"`
	Pipeline   PipelineConfig          `json:"pipeline" yaml:"pipeline" mapstructure:"pipeline"`
	Cache      CacheConfig             `json:"cache" yaml:"cache" mapstructure:"cache"`
	Server     ServerConfig            `json:"server" yaml:"server" mapstructure:"server"`
	Logging    LoggingConfig           `json:"logging" yaml:"logging" mapstructure:"logging"`
	Metrics    MetricsConfig           `json:"metrics" yaml:"metrics" mapstructure:"metrics"`
}

// DefaultConfig returns a Config populated with production defaults.
func DefaultConfig() Config {
	return Config{
		HTTP: HTTPConfig{
			Timeout:   30 * time.Second,
			UserAgent: "paper-pipeline/0.1",
		},
		Fetch: FetchConfig{
			RowsPerPage: 20,
			PageDelay:   200 * time.Millisecond,
			MaxResults:  100,
		},
		Dedup: DedupConfig{
			Strictness: DedupFuzzy,
			Threshold:  0.8,
		},
		Similarity: SimilarityConfig{Denominator: "max"},
		Resolver: ResolverConfig{
			MatchThreshold: 0.6,
			Candidates:     5,
			CallDelay:      time.Second,
			MaxAttempts:    3,
			RetryBaseDelay: time.Second,
		},
		Sources: map[string]SourceConfig{},
		Pipeline: PipelineConfig{
			MinAbstractLength: 50,
		},
		Server: ServerConfig{
			Address:         ":8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    0,
			ShutdownTimeout: 15 * time.Second,
			StreamHeartbeat: 15 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stderr",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}
