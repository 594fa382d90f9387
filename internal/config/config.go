// Package config loads and validates run configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JakeFAU/newsreduce/internal/crawler"
)

// Output modes.
const (
	ModeMemory   = "memory"
	ModeFiles    = "files"
	ModePostgres = "postgres"
)

// File emitter backends.
const (
	StorageLocal  = "local"
	StorageGCS    = "gcs"
	StorageMemory = "memory"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Crawler CrawlerConfig `mapstructure:"crawler"`
	Parser  ParserConfig  `mapstructure:"parser"`
	Output  OutputConfig  `mapstructure:"output"`
	DB      DBConfig      `mapstructure:"db"`
	PubSub  PubSubConfig  `mapstructure:"pubsub"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// CrawlerConfig governs the fetch pipeline.
type CrawlerConfig struct {
	Concurrency            int               `mapstructure:"concurrency"`
	ParseWorkers           int               `mapstructure:"parse_workers"`
	RequestTimeout         time.Duration     `mapstructure:"request_timeout"`
	Headers                map[string]string `mapstructure:"headers"`
	UserAgent              string            `mapstructure:"user_agent"`
	InsecureSkipVerify     bool              `mapstructure:"insecure_skip_verify"`
	IncludeExtra           bool              `mapstructure:"include_extra"`
	ReleaseSlotBeforeParse bool              `mapstructure:"release_slot_before_parse"`
}

// ParserConfig selects the default adapters.
type ParserConfig struct {
	// Article chooses between extracted article text ("article") and the raw
	// decoded page ("raw").
	Article         string `mapstructure:"article"`
	ListingSelector string `mapstructure:"listing_selector"`
}

// OutputConfig selects the reduction sink.
type OutputConfig struct {
	Mode      string `mapstructure:"mode"`
	Storage   string `mapstructure:"storage"`
	Dir       string `mapstructure:"dir"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	Prefix    string `mapstructure:"prefix"`
}

// DBConfig controls access to Postgres for the record sink.
type DBConfig struct {
	DSN      string `mapstructure:"dsn"`
	Table    string `mapstructure:"table"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// PubSubConfig holds the run-completion notification target.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	Topic     string `mapstructure:"topic"`
}

// MetricsConfig controls the optional metrics listener.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("NEWSREDUCE")
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

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("crawler.concurrency", 500)
	v.SetDefault("crawler.parse_workers", 1)
	v.SetDefault("crawler.request_timeout", 0)
	v.SetDefault("crawler.user_agent", "newsreduce/0.1")
	v.SetDefault("crawler.insecure_skip_verify", false)
	v.SetDefault("crawler.include_extra", false)
	v.SetDefault("crawler.release_slot_before_parse", false)
	v.SetDefault("parser.article", "article")
	v.SetDefault("parser.listing_selector", "")
	v.SetDefault("output.mode", ModeFiles)
	v.SetDefault("output.storage", StorageLocal)
	v.SetDefault("output.dir", "news")
	v.SetDefault("output.prefix", "")
	v.SetDefault("db.table", "articles")
	v.SetDefault("metrics.addr", "")
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "")
}

// RunConfig converts the crawler section into the pipeline's run config.
func (c Config) RunConfig() crawler.Config {
	headers := make(map[string]string, len(c.Crawler.Headers))
	for k, v := range c.Crawler.Headers {
		headers[k] = v
	}
	return crawler.Config{
		Concurrency:            c.Crawler.Concurrency,
		ParseWorkers:           c.Crawler.ParseWorkers,
		Headers:                headers,
		UserAgent:              c.Crawler.UserAgent,
		RequestTimeout:         c.Crawler.RequestTimeout,
		InsecureSkipVerify:     c.Crawler.InsecureSkipVerify,
		IncludeExtra:           c.Crawler.IncludeExtra,
		ReleaseSlotBeforeParse: c.Crawler.ReleaseSlotBeforeParse,
	}
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if err := c.RunConfig().Validate(); err != nil {
		return err
	}
	switch c.Parser.Article {
	case "article", "raw":
	default:
		return fmt.Errorf("parser.article must be article or raw, got %q", c.Parser.Article)
	}
	switch c.Output.Mode {
	case ModeMemory:
	case ModeFiles:
		switch c.Output.Storage {
		case StorageLocal:
			if strings.TrimSpace(c.Output.Dir) == "" {
				return fmt.Errorf("output.dir must be set for local storage")
			}
		case StorageGCS:
			if c.Output.GCSBucket == "" {
				return fmt.Errorf("output.gcs_bucket must be set for gcs storage")
			}
		case StorageMemory:
		default:
			return fmt.Errorf("output.storage must be local, gcs or memory, got %q", c.Output.Storage)
		}
	case ModePostgres:
		if c.DB.DSN == "" {
			return fmt.Errorf("db.dsn must be set for postgres output")
		}
	default:
		return fmt.Errorf("output.mode must be memory, files or postgres, got %q", c.Output.Mode)
	}
	if c.PubSub.Topic != "" && c.PubSub.ProjectID == "" {
		return fmt.Errorf("pubsub.project_id must be set when pubsub.topic is set")
	}
	return nil
}
