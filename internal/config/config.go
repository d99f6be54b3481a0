// Package config loads and validates harvester configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Recon   ReconConfig   `mapstructure:"recon"`
	Harvest HarvestConfig `mapstructure:"harvest"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Storage StorageConfig `mapstructure:"storage"`
	DB      DBConfig      `mapstructure:"db"`
	Queue   QueueConfig   `mapstructure:"queue"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig controls the status/metrics HTTP server.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// ReconConfig points reconnaissance at the catalog index.
type ReconConfig struct {
	IndexURL string `mapstructure:"index_url"`
}

// HarvestConfig governs strategy defaults and endpoint fan-out.
type HarvestConfig struct {
	LinkGraphMaxDepth  int      `mapstructure:"linkgraph_max_depth"`
	LinkGraphHardLimit int      `mapstructure:"linkgraph_hard_limit"`
	PaginatedMaxDepth  int      `mapstructure:"paginated_max_depth"`
	EndpointParallel   int      `mapstructure:"endpoint_parallel"`
	Overrides          []string `mapstructure:"overrides"`
}

// HTTPConfig configures the fetch primitive.
type HTTPConfig struct {
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	UserAgent      string `mapstructure:"user_agent"`
}

// StorageConfig sets where knowledge-base artifacts land.
type StorageConfig struct {
	Provider  string `mapstructure:"provider"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	BaseDir   string `mapstructure:"base_dir"`
	Prefix    string `mapstructure:"prefix"`
}

// DBConfig controls access to the relational database.
type DBConfig struct {
	Provider string `mapstructure:"provider"`
	DSN      string `mapstructure:"dsn"`
	RunTable string `mapstructure:"run_table"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// QueueConfig holds metadata for completion notifications.
type QueueConfig struct {
	Provider  string `mapstructure:"provider"`
	ProjectID string `mapstructure:"project_id"`
	TopicID   string `mapstructure:"topic_id"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("HARVESTER")
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
	v.SetDefault("server.port", 8080)
	v.SetDefault("recon.index_url", "https://stacindex.org/api/catalogs")
	v.SetDefault("harvest.linkgraph_max_depth", 3)
	v.SetDefault("harvest.linkgraph_hard_limit", 300)
	v.SetDefault("harvest.paginated_max_depth", 10)
	v.SetDefault("harvest.endpoint_parallel", 1)
	v.SetDefault("harvest.overrides", []string{})
	v.SetDefault("http.timeout_seconds", 30)
	v.SetDefault("http.user_agent", "StacMasterCrawler/20.0")
	v.SetDefault("storage.provider", "local")
	v.SetDefault("storage.base_dir", "data/harvest")
	v.SetDefault("storage.prefix", "stac_summaries")
	v.SetDefault("db.provider", "noop")
	v.SetDefault("db.run_table", "harvest_runs")
	v.SetDefault("queue.provider", "noop")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Recon.IndexURL == "" {
		return fmt.Errorf("recon.index_url is required")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.Harvest.EndpointParallel <= 0 {
		return fmt.Errorf("harvest.endpoint_parallel must be > 0")
	}
	if c.Storage.Provider == "gcs" && c.Storage.GCSBucket == "" {
		return fmt.Errorf("storage.gcs_bucket must be set when storage.provider is gcs")
	}
	if c.DB.Provider == "postgres" && c.DB.DSN == "" {
		return fmt.Errorf("db.dsn must be set when db.provider is postgres")
	}
	if c.Queue.Provider == "pubsub" && (c.Queue.ProjectID == "" || c.Queue.TopicID == "") {
		return fmt.Errorf("queue.project_id and queue.topic_id must be set when queue.provider is pubsub")
	}
	return nil
}

// FetchTimeout converts the HTTP timeout config into a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}
