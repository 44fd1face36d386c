package app

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds everything an App instance needs to run.
type Config struct {
	// ConfigPaths are the .hcl files or directories to load.
	ConfigPaths []string

	LogFormat   string
	LogLevel    string
	Parallelism int

	// Provider selects the control plane: "aws" or "memory".
	Provider string

	// StateBackend selects where snapshots live: "file" or "s3".
	StateBackend string
	StatePath    string

	S3Bucket    string
	S3Key       string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string

	// Region is the default AWS region for provider calls.
	Region string
}

// envConfig is the environment overlay; flags win over environment values,
// which win over defaults.
type envConfig struct {
	StateBackend string `env:"NETWEAVE_STATE_BACKEND"`
	StatePath    string `env:"NETWEAVE_STATE_PATH"`
	S3Bucket     string `env:"NETWEAVE_STATE_BUCKET"`
	S3Key        string `env:"NETWEAVE_STATE_KEY"`
	S3Region     string `env:"NETWEAVE_S3_REGION"`
	S3Endpoint   string `env:"NETWEAVE_S3_ENDPOINT"`
	S3AccessKey  string `env:"NETWEAVE_S3_ACCESS_KEY"`
	S3SecretKey  string `env:"NETWEAVE_S3_SECRET_KEY"`
	Region       string `env:"NETWEAVE_REGION"`
}

// NewConfig validates the configuration and fills unset fields from the
// environment and defaults.
func NewConfig(cfg Config) (*Config, error) {
	var fromEnv envConfig
	if err := env.Parse(&fromEnv); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	if cfg.StateBackend == "" {
		cfg.StateBackend = fromEnv.StateBackend
	}
	if cfg.StatePath == "" {
		cfg.StatePath = fromEnv.StatePath
	}
	if cfg.S3Bucket == "" {
		cfg.S3Bucket = fromEnv.S3Bucket
	}
	if cfg.S3Key == "" {
		cfg.S3Key = fromEnv.S3Key
	}
	if cfg.S3Region == "" {
		cfg.S3Region = fromEnv.S3Region
	}
	if cfg.S3Endpoint == "" {
		cfg.S3Endpoint = fromEnv.S3Endpoint
	}
	if cfg.S3AccessKey == "" {
		cfg.S3AccessKey = fromEnv.S3AccessKey
	}
	if cfg.S3SecretKey == "" {
		cfg.S3SecretKey = fromEnv.S3SecretKey
	}
	if cfg.Region == "" {
		cfg.Region = fromEnv.Region
	}

	if cfg.StateBackend == "" {
		cfg.StateBackend = "file"
	}
	if cfg.StatePath == "" {
		cfg.StatePath = "netweave.state.json"
	}
	if cfg.S3Key == "" {
		cfg.S3Key = "netweave.state.json"
	}
	if cfg.Provider == "" {
		cfg.Provider = "aws"
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 4
	}

	if len(cfg.ConfigPaths) == 0 {
		return nil, errors.New("at least one configuration path is required")
	}
	switch cfg.StateBackend {
	case "file":
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, errors.New("state backend \"s3\" requires a bucket (NETWEAVE_STATE_BUCKET)")
		}
	default:
		return nil, fmt.Errorf("unknown state backend %q (want \"file\" or \"s3\")", cfg.StateBackend)
	}
	switch cfg.Provider {
	case "aws", "memory":
	default:
		return nil, fmt.Errorf("unknown provider %q (want \"aws\" or \"memory\")", cfg.Provider)
	}

	return &cfg, nil
}
