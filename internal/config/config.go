package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Hub      HubConfig      `mapstructure:"hub"`
	Convert  ConvertConfig  `mapstructure:"convert"`
	Split    SplitConfig    `mapstructure:"split"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
}

// HubConfig describes the remote dataset repository and local cache.
type HubConfig struct {
	Endpoint     string `mapstructure:"endpoint"`
	RepoID       string `mapstructure:"repo_id"`
	FeaturesFile string `mapstructure:"features_file"`
	ImagesFile   string `mapstructure:"images_file"`
	CacheDir     string `mapstructure:"cache_dir"`
	Token        string `mapstructure:"token"`
}

// ConvertConfig drives the fetch-merge-export pipeline.
type ConvertConfig struct {
	JoinColumn      string `mapstructure:"join_column"`
	EmbeddingColumn string `mapstructure:"embedding_column"`
	ImageColumn     string `mapstructure:"image_column"`
	MaxItems        int    `mapstructure:"max_items"`
	OutputFile      string `mapstructure:"output_file"`
}

// SplitConfig drives the chunk-split pipeline.
type SplitConfig struct {
	InputFile string `mapstructure:"input_file"`
	OutputDir string `mapstructure:"output_dir"`
	ChunkSize int    `mapstructure:"chunk_size"`
}

// DatabaseConfig configures the run-history store.
// An empty path disables run history entirely.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Path            string        `mapstructure:"path"`
	DSN             string        `mapstructure:"dsn"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// StorageConfig configures optional artifact publishing to
// S3-compatible object storage.
type StorageConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Type      string `mapstructure:"type"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	PublicURL string `mapstructure:"public_url"`
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Enable environment variable override
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Defaults mirror the dataset this tool was built for.
	v.SetDefault("hub.endpoint", "https://huggingface.co")
	v.SetDefault("hub.repo_id", "crossingminds/shopping-queries-image-dataset")
	v.SetDefault("hub.features_file", "data/product_features.parquet")
	v.SetDefault("hub.images_file", "data/product_image_urls.parquet")
	v.SetDefault("hub.cache_dir", "./data/hub-cache")
	v.SetDefault("convert.join_column", "product_id")
	v.SetDefault("convert.embedding_column", "clip_image_features")
	v.SetDefault("convert.image_column", "image_url")
	v.SetDefault("convert.max_items", 10000)
	v.SetDefault("convert.output_file", "./assets/products_vectors.json")
	v.SetDefault("split.input_file", "./assets/products_vectors.json")
	v.SetDefault("split.output_dir", "./assets/chunks")
	v.SetDefault("split.chunk_size", 1000)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/shopvec.db")
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.max_open_conns", 5)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("storage.enabled", false)
	v.SetDefault("storage.endpoint", "localhost:9000")
	v.SetDefault("storage.use_ssl", false)
	v.SetDefault("storage.bucket", "shopvec-assets")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Bind environment variables explicitly for sensitive data
	v.BindEnv("hub.token", "HF_TOKEN")
	v.BindEnv("hub.endpoint", "HF_ENDPOINT")
	v.BindEnv("hub.cache_dir", "DATASET_CACHE_DIR")
	v.BindEnv("storage.endpoint", "STORAGE_ENDPOINT")
	v.BindEnv("storage.access_key", "STORAGE_ACCESS_KEY")
	v.BindEnv("storage.secret_key", "STORAGE_SECRET_KEY")
	v.BindEnv("database.dsn", "DATABASE_DSN")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
