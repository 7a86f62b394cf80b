// Package config loads the engine's TOML configuration file, mirroring
// real go-ethereum's cmd/geth/config.go: the same naoina/toml decoder,
// the same defaults-then-override shape.
package config

import (
	"os"
	"reflect"

	"github.com/naoina/toml"
)

// EngineConfig holds every knob in the external interfaces table:
// pool capacity, auction timing, assembler limits, and validator
// fault-injection parameters.
type EngineConfig struct {
	BindAddress string `toml:",omitempty"`
	RPCURL      string `toml:",omitempty"`

	MaxPoolSize int `toml:",omitempty"`

	AuctionDurationMS  int64 `toml:",omitempty"`
	MaxBundlesForBlock int   `toml:",omitempty"`

	MaxTransactionsPerBlock int    `toml:",omitempty"`
	MaxComputeUnitsPerBlock uint64 `toml:",omitempty"`

	ValidatorFailureRate         float64 `toml:",omitempty"`
	ValidatorVerificationDelayMS int64   `toml:",omitempty"`

	RedisAddr string `toml:",omitempty"`
}

// Defaults returns the out-of-the-box configuration.
func Defaults() EngineConfig {
	return EngineConfig{
		BindAddress:                  "127.0.0.1:8645",
		MaxPoolSize:                  10_000,
		AuctionDurationMS:            200,
		MaxBundlesForBlock:           32,
		MaxTransactionsPerBlock:      200,
		MaxComputeUnitsPerBlock:      48_000_000,
		ValidatorFailureRate:         0,
		ValidatorVerificationDelayMS: 0,
	}
}

var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		return nil
	},
}

// LoadFile reads a TOML file at path, decoding onto the configuration's
// defaults so unset fields keep their default values.
func LoadFile(path string) (EngineConfig, error) {
	cfg := Defaults()

	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()

	if err := tomlSettings.NewDecoder(f).Decode(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
