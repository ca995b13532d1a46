package config

import (
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, an optional YAML file,
// and environment variables.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if FLORA_CONFIG is set
//  3. env (prefix FLORA_)
func Load() (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("FLORA_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// Environment variables: FLORA_ADDR, FLORA_BACKEND_BASE_URL, ...
	// Keys keep their underscores to match the koanf struct tags.
	envProvider := env.Provider("FLORA_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "flora_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
