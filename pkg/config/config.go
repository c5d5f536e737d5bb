// Package config loads Animica node configuration from YAML files and
// environment variables, with environment variables always taking
// precedence (§6.3's ANIMICA_* surface is the canonical override path for
// container/CLI deployments).
package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/animica-network/animica/pkg/utils"
)

// Version is the semantic version of this configuration package.
const Version = "v0.1.0"

// Config is the unified configuration for an animicad process.
type Config struct {
	Node struct {
		ChainID   uint64 `mapstructure:"chain_id" json:"chain_id"`
		RPCURL    string `mapstructure:"rpc_url" json:"rpc_url"`
		WSURL     string `mapstructure:"ws_url" json:"ws_url"`
		ExtraData string `mapstructure:"extra_data" json:"extra_data"`
	} `mapstructure:"node" json:"node"`

	Stratum struct {
		Listen          string `mapstructure:"listen" json:"listen"`
		LengthPrefixed  bool   `mapstructure:"length_prefixed" json:"length_prefixed"`
		MaxFrameBytes   uint32 `mapstructure:"max_frame_bytes" json:"max_frame_bytes"`
		ShutdownTimeout int    `mapstructure:"shutdown_timeout_seconds" json:"shutdown_timeout_seconds"`
	} `mapstructure:"stratum" json:"stratum"`

	Mining struct {
		Device      string `mapstructure:"device" json:"device"`
		Workers     int    `mapstructure:"workers" json:"workers"`
		QueueBudget int    `mapstructure:"queue_budget" json:"queue_budget"`
	} `mapstructure:"mining" json:"mining"`

	PQ struct {
		AllowPureFallback bool `mapstructure:"allow_pure_fallback" json:"allow_pure_fallback"`
		UnsafeFake        bool `mapstructure:"unsafe_fake" json:"unsafe_fake"`
	} `mapstructure:"pq" json:"pq"`

	Logging struct {
		Level string `mapstructure:"level" json:"level"`
		File  string `mapstructure:"file" json:"file"`
	} `mapstructure:"logging" json:"logging"`
}

// AppConfig holds the configuration loaded via Load or LoadFromEnv.
var AppConfig Config

// envBindings maps ANIMICA_* environment variables (§6.3) onto their
// viper/mapstructure keys, so an unset YAML file still yields a usable
// config purely from the environment.
var envBindings = map[string]string{
	"node.chain_id":          "ANIMICA_CHAIN_ID",
	"node.rpc_url":           "ANIMICA_RPC_URL",
	"node.ws_url":            "ANIMICA_WS_URL",
	"stratum.listen":         "ANIMICA_STRATUM_LISTEN",
	"mining.device":          "ANIMICA_MINER_DEVICE",
	"pq.allow_pure_fallback": "ANIMICA_ALLOW_PQ_PURE_FALLBACK",
	"pq.unsafe_fake":         "ANIMICA_UNSAFE_PQ_FAKE",
}

// Load reads cmd/config/<env>.yaml (default.yaml merged first, env merged on
// top when non-empty), binds the ANIMICA_* environment surface, and
// unmarshals into AppConfig.
func Load(env string) (*Config, error) {
	_ = godotenv.Load()

	viper.SetConfigName("default")
	viper.AddConfigPath("cmd/config")
	viper.AddConfigPath("config")
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, utils.Wrap(err, "load config")
		}
	}

	if env != "" {
		viper.SetConfigName(env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, utils.Wrap(err, fmt.Sprintf("merge %s config", env))
		}
	}

	for key, envVar := range envBindings {
		if err := viper.BindEnv(key, envVar); err != nil {
			return nil, utils.Wrap(err, fmt.Sprintf("bind %s", envVar))
		}
	}
	viper.AutomaticEnv()

	applyDefaults()

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return nil, utils.Wrap(err, "unmarshal config")
	}
	return &AppConfig, nil
}

// applyDefaults sets the conservative defaults §6 assumes when a field is
// absent from both the YAML file and the environment.
func applyDefaults() {
	viper.SetDefault("node.rpc_url", "http://127.0.0.1:8645")
	viper.SetDefault("node.ws_url", "ws://127.0.0.1:8646")
	viper.SetDefault("stratum.listen", "0.0.0.0:3333")
	viper.SetDefault("stratum.max_frame_bytes", 1<<20)
	viper.SetDefault("stratum.shutdown_timeout_seconds", 5)
	viper.SetDefault("mining.device", "cpu")
	viper.SetDefault("logging.level", "info")
}

// LoadFromEnv loads configuration using the ANIMICA_ENV environment
// variable to pick the overlay file, falling back to defaults-only.
func LoadFromEnv() (*Config, error) {
	return Load(utils.EnvOrDefault("ANIMICA_ENV", ""))
}
