package core

import (
	"github.com/prometheus/client_golang/prometheus"

	"assetgate/internal/auth"
	"assetgate/internal/storage"
)

const (
	DefaultImagesBucket   = "images"
	DefaultMaxUploadBytes = 1 << 30
)

type Config struct {
	// Bucket holds the assets served under /assets.
	Bucket string
	// ImagesBucket holds the images served under the legacy /images routes.
	ImagesBucket string

	Store         storage.ObjectStore
	Authenticator auth.AuthEngine

	BatchConcurrency int
	MaxUploadBytes   int64

	// Registry receives the HTTP metrics and is served on /metrics. A fresh
	// registry is created when nil.
	Registry *prometheus.Registry
}

type ConfigOption func(*Config)

func WithStore(store storage.ObjectStore) ConfigOption {
	return func(cfg *Config) {
		cfg.Store = store
	}
}

func WithAuthEngine(authenticator auth.AuthEngine) ConfigOption {
	return func(cfg *Config) {
		cfg.Authenticator = authenticator
	}
}

func WithBucket(bucket string) ConfigOption {
	return func(cfg *Config) {
		cfg.Bucket = bucket
	}
}

func WithImagesBucket(bucket string) ConfigOption {
	return func(cfg *Config) {
		cfg.ImagesBucket = bucket
	}
}

func WithBatchConcurrency(n int) ConfigOption {
	return func(cfg *Config) {
		cfg.BatchConcurrency = n
	}
}

func WithMaxUploadBytes(n int64) ConfigOption {
	return func(cfg *Config) {
		cfg.MaxUploadBytes = n
	}
}

func WithRegistry(reg *prometheus.Registry) ConfigOption {
	return func(cfg *Config) {
		cfg.Registry = reg
	}
}

func NewConfig(opts ...ConfigOption) Config {
	cfg := Config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
