// Package config describes the recorder configuration stored as
// config.yaml inside the prov directory.
package config

import (
	yaml "gopkg.in/yaml.v2"
)

// Hash methods accepted by the fingerprinting step.
const (
	HashBlake2b = "blake2b"
	HashSHA256  = "sha256"
)

// Environment capture modes.
const (
	EnvNone    = "none"
	EnvMinimal = "minimal"
)

// Git capture modes.
const (
	GitAuto    = "auto"
	GitRequire = "require"
	GitOff     = "off"
)

// Config drives the recording step. Comparison and resolution are not
// configurable.
type Config struct {
	RedactPaths bool   `json:"redact_paths" yaml:"redact_paths"`
	HashMethod  string `json:"hash_method" yaml:"hash_method"`
	StoreEnv    string `json:"store_env" yaml:"store_env"`
	Git         string `json:"git" yaml:"git"`
	_           struct{}
}

// Default returns the configuration written by prov init.
func Default() Config {
	return Config{
		RedactPaths: true,
		HashMethod:  HashBlake2b,
		StoreEnv:    EnvMinimal,
		Git:         GitAuto,
	}
}

// Parse reads a configuration document, filling defaults for absent keys.
func Parse(doc []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(doc, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Serialize renders the configuration as a yaml document.
func (c Config) Serialize() ([]byte, error) {
	return yaml.Marshal(c)
}
