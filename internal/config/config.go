// Package config loads and validates crawler configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JakeFAU/dream-symbol-crawler/internal/crawler"
	"github.com/JakeFAU/dream-symbol-crawler/internal/lexicon"
)

// Config captures every knob of a crawl run.
type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Lexicon  LexiconConfig  `mapstructure:"lexicon"`
	Sources  []SourceConfig `mapstructure:"sources"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// HTTPConfig controls the fetcher identity, timeout, and per-host rate.
type HTTPConfig struct {
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
	UserAgent      string  `mapstructure:"user_agent"`
	AcceptLanguage string  `mapstructure:"accept_language"`
	HostRPS        float64 `mapstructure:"host_rps"`
	HostBurst      int     `mapstructure:"host_burst"`
}

// PipelineConfig governs checkpoint cadence, pacing, and run size.
type PipelineConfig struct {
	CheckpointEvery      int `mapstructure:"checkpoint_every"`
	DelayMinMs           int `mapstructure:"delay_min_ms"`
	DelayMaxMs           int `mapstructure:"delay_max_ms"`
	DiscoveryParallelism int `mapstructure:"discovery_parallelism"`
	MaxTasks             int `mapstructure:"max_tasks"`
}

// StorageConfig locates the snapshot and its optional GCS mirror.
type StorageConfig struct {
	SnapshotPath string `mapstructure:"snapshot_path"`
	GCSBucket    string `mapstructure:"gcs_bucket"`
	GCSObject    string `mapstructure:"gcs_object"`
}

// MetricsConfig names the Prometheus textfile written at the end of a run.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// LexiconConfig overrides the compiled-in word lists. Empty lists keep the defaults.
type LexiconConfig struct {
	Blacklist []string `mapstructure:"blacklist"`
	Brands    []string `mapstructure:"brands"`
	Prefixes  []string `mapstructure:"prefixes"`
}

// SourceConfig is the configuration form of a crawler.SourceProfile.
type SourceConfig struct {
	Name               string   `mapstructure:"name"`
	SourceKind         string   `mapstructure:"source_kind"`
	IndexURLs          []string `mapstructure:"index_urls"`
	LanguageTag        string   `mapstructure:"language_tag"`
	URLIncludePatterns []string `mapstructure:"url_include_patterns"`
	MinParagraphLength int      `mapstructure:"min_paragraph_length"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SYMBOLS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if len(cfg.Sources) == 0 {
		cfg.Sources = DefaultSources()
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.development", false)
	v.SetDefault("http.timeout_seconds", 15)
	v.SetDefault("http.user_agent", DefaultUserAgent)
	v.SetDefault("http.accept_language", DefaultAcceptLanguage)
	v.SetDefault("http.host_rps", 1.0)
	v.SetDefault("http.host_burst", 1)
	v.SetDefault("pipeline.checkpoint_every", 10)
	v.SetDefault("pipeline.delay_min_ms", 1000)
	v.SetDefault("pipeline.delay_max_ms", 3000)
	v.SetDefault("pipeline.discovery_parallelism", 4)
	v.SetDefault("pipeline.max_tasks", 0)
	v.SetDefault("storage.snapshot_path", "symbols_updated.json")
	v.SetDefault("storage.gcs_bucket", "")
	v.SetDefault("storage.gcs_object", "symbols_updated.json")
	v.SetDefault("metrics.textfile", "")
	v.SetDefault("lexicon.blacklist", []string{})
	v.SetDefault("lexicon.brands", []string{})
	v.SetDefault("lexicon.prefixes", []string{})
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.HTTP.TimeoutSeconds < 1 || c.HTTP.TimeoutSeconds > 60 {
		return fmt.Errorf("http.timeout_seconds must be between 1 and 60")
	}
	if c.HTTP.HostRPS <= 0 {
		return fmt.Errorf("http.host_rps must be > 0")
	}
	if c.HTTP.HostBurst <= 0 {
		return fmt.Errorf("http.host_burst must be > 0")
	}
	if c.Pipeline.CheckpointEvery <= 0 {
		return fmt.Errorf("pipeline.checkpoint_every must be > 0")
	}
	if c.Pipeline.DelayMinMs < 0 || c.Pipeline.DelayMaxMs < 0 {
		return fmt.Errorf("pipeline.delay_min_ms and pipeline.delay_max_ms must be >= 0")
	}
	if c.Pipeline.DelayMinMs > c.Pipeline.DelayMaxMs {
		return fmt.Errorf("pipeline.delay_min_ms must not exceed pipeline.delay_max_ms")
	}
	if c.Pipeline.DiscoveryParallelism <= 0 {
		return fmt.Errorf("pipeline.discovery_parallelism must be > 0")
	}
	if c.Pipeline.MaxTasks < 0 {
		return fmt.Errorf("pipeline.max_tasks must be >= 0")
	}
	if strings.TrimSpace(c.Storage.SnapshotPath) == "" {
		return fmt.Errorf("storage.snapshot_path is required")
	}
	if c.Storage.GCSBucket != "" && c.Storage.GCSObject == "" {
		return fmt.Errorf("storage.gcs_object must be set when storage.gcs_bucket is set")
	}
	if _, err := c.Profiles(); err != nil {
		return err
	}
	return nil
}

// Profiles converts the configured sources into crawler profiles.
func (c Config) Profiles() ([]crawler.SourceProfile, error) {
	if len(c.Sources) == 0 {
		return nil, fmt.Errorf("sources must not be empty")
	}
	out := make([]crawler.SourceProfile, 0, len(c.Sources))
	names := make(map[string]struct{}, len(c.Sources))
	for i, src := range c.Sources {
		name := src.Name
		if name == "" {
			name = fmt.Sprintf("sources[%d]", i)
		}
		if _, dup := names[name]; dup {
			return nil, fmt.Errorf("duplicate source name %q", name)
		}
		names[name] = struct{}{}
		kind, err := crawler.ParseSourceKind(src.SourceKind)
		if err != nil {
			return nil, fmt.Errorf("%s.source_kind: %w", name, err)
		}
		if len(src.IndexURLs) == 0 {
			return nil, fmt.Errorf("%s.index_urls must not be empty", name)
		}
		if len(src.URLIncludePatterns) == 0 {
			return nil, fmt.Errorf("%s.url_include_patterns must not be empty", name)
		}
		if src.MinParagraphLength < 0 {
			return nil, fmt.Errorf("%s.min_paragraph_length must be >= 0", name)
		}
		out = append(out, crawler.SourceProfile{
			Name:               name,
			Kind:               kind,
			IndexURLs:          append([]string(nil), src.IndexURLs...),
			LanguageTag:        src.LanguageTag,
			URLIncludePatterns: append([]string(nil), src.URLIncludePatterns...),
			MinParagraphLength: src.MinParagraphLength,
		})
	}
	return out, nil
}

// BuildLexicon returns the word lists with configured overrides applied.
func (c Config) BuildLexicon() *lexicon.Lexicon {
	return lexicon.New(c.Lexicon.Blacklist, c.Lexicon.Brands, c.Lexicon.Prefixes)
}

// HTTPTimeout converts the fetch timeout to a duration.
func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// Delays returns the bounds of the pause between extraction tasks.
func (c Config) Delays() (time.Duration, time.Duration) {
	return time.Duration(c.Pipeline.DelayMinMs) * time.Millisecond,
		time.Duration(c.Pipeline.DelayMaxMs) * time.Millisecond
}
