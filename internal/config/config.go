package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	S3       S3Config       `mapstructure:"s3"`
}

type ServerConfig struct {
	Address      string        `mapstructure:"address"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	URI  string `mapstructure:"uri"`
	Name string `mapstructure:"name"`
}

// StorageConfig selects the blob backend and holds the upload policy.
// Backend must be one of "gridfs", "disk" or "s3".
type StorageConfig struct {
	Backend       string   `mapstructure:"backend"`
	GridFSBucket  string   `mapstructure:"gridfs_bucket"`
	DiskDirectory string   `mapstructure:"disk_directory"`
	MaxUploadSize int64    `mapstructure:"max_upload_size"`
	AllowedTypes  []string `mapstructure:"allowed_types"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Environment overrides, e.g. storage.backend -> STORAGE_BACKEND
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	viper.SetDefault("server.address", ":8080")
	// Zero timeouts on purpose: large uploads and long playback streams
	// must not be cut off mid-transfer.
	viper.SetDefault("server.read_timeout", "0s")
	viper.SetDefault("server.write_timeout", "0s")
	viper.SetDefault("database.uri", "mongodb://localhost:27017")
	viper.SetDefault("database.name", "vidvault")
	viper.SetDefault("storage.backend", "gridfs")
	viper.SetDefault("storage.gridfs_bucket", "videos")
	viper.SetDefault("storage.disk_directory", "./uploads")
	viper.SetDefault("storage.max_upload_size", 512<<20)
	viper.SetDefault("storage.allowed_types", []string{
		"video/mp4",
		"video/webm",
		"video/quicktime",
		"video/x-matroska",
	})
	// Empty defaults register the keys so env-only overrides unmarshal.
	viper.SetDefault("s3.endpoint", "")
	viper.SetDefault("s3.region", "")
	viper.SetDefault("s3.access_key_id", "")
	viper.SetDefault("s3.secret_access_key", "")
	viper.SetDefault("s3.bucket_name", "")
	viper.SetDefault("s3.use_ssl", true)

	err = viper.ReadInConfig()
	// A missing config file is fine; env vars and defaults still apply.
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		err = nil
	} else if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	return config, nil
}
