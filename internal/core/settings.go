package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"

	"assetgate/internal/assets"
	"assetgate/internal/storage"
)

// Settings is the process configuration, read from flags, the environment
// and an optional config file.
type Settings struct {
	Listen       string `mapstructure:"listen"`
	LogLevel     string `mapstructure:"log_level"`
	MinioURL     string `mapstructure:"minio_url"`
	MinioAccess  string `mapstructure:"minio_access"`
	MinioSecret  string `mapstructure:"minio_secret"`
	MinioRegion  string `mapstructure:"minio_region"`
	JWTPublicKey string `mapstructure:"jwt_public_key"`

	Bucket           string `mapstructure:"bucket"`
	ImagesBucket     string `mapstructure:"images_bucket"`
	CreateBuckets    bool   `mapstructure:"create_buckets"`
	BatchConcurrency int    `mapstructure:"batch_concurrency"`
	ListPageSize     int    `mapstructure:"list_page_size"`
	MaxUploadBytes   int64  `mapstructure:"max_upload_bytes"`
}

// NewViper returns a viper instance with defaults and environment bindings.
// The object store and key variables keep the names used by existing
// deployments; everything else is read from ASSETGATE_* variables.
func NewViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("listen", ":8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("minio_region", "")
	v.SetDefault("bucket", assets.DefaultBucket)
	v.SetDefault("images_bucket", DefaultImagesBucket)
	v.SetDefault("create_buckets", false)
	v.SetDefault("batch_concurrency", assets.DefaultBatchConcurrency)
	v.SetDefault("list_page_size", storage.DefaultListPageSize)
	v.SetDefault("max_upload_bytes", DefaultMaxUploadBytes)

	v.SetEnvPrefix("ASSETGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("minio_url", "MINIO_URL")
	_ = v.BindEnv("minio_access", "MINIO_ACCESS")
	_ = v.BindEnv("minio_secret", "MINIO_SECRET")
	_ = v.BindEnv("jwt_public_key", "JWT_PUBLIC_KEY")

	return v
}

// LoadSettings reads the optional config file named by v and decodes the
// result into Settings.
func LoadSettings(v *viper.Viper) (Settings, error) {
	if v.ConfigFileUsed() != "" {
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func (s Settings) Validate() error {
	var errs []error
	if s.MinioURL == "" {
		errs = append(errs, errors.New("object store URL is not set (MINIO_URL)"))
	}
	if s.MinioAccess == "" {
		errs = append(errs, errors.New("object store access key is not set (MINIO_ACCESS)"))
	}
	if s.MinioSecret == "" {
		errs = append(errs, errors.New("object store secret key is not set (MINIO_SECRET)"))
	}
	if s.JWTPublicKey == "" {
		errs = append(errs, errors.New("JWT public key is not set (JWT_PUBLIC_KEY)"))
	}
	if s.Bucket == "" {
		errs = append(errs, errors.New("bucket must not be empty"))
	}
	if _, err := log.ParseLevel(s.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("invalid log level %q", s.LogLevel))
	}
	return errors.Join(errs...)
}

// Level returns the parsed log level, defaulting to info.
func (s Settings) Level() log.Level {
	level, err := log.ParseLevel(s.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return level
}
