package params

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/goliatone/go-params/pkg/activity"
)

// Config bundles the settings usually supplied by the environment:
//
//	PARAMS_LOG_TAG             overrides every object's log tag
//	PARAMS_VALIDATION_ENGINE   expr (default), cel, lua or js
//	PARAMS_ACTIVITY_ENABLED    emit params.in / params.out events
//	PARAMS_ACTIVITY_CHANNEL    default event channel
type Config struct {
	LogTag   string          `env:"PARAMS_LOG_TAG"`
	Engine   string          `env:"PARAMS_VALIDATION_ENGINE" envDefault:"expr"`
	Activity activity.Config `envPrefix:"PARAMS_ACTIVITY_"`
}

// LoadConfigFromEnv reads Config from the process environment.
func LoadConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("params: parse env: %w", err)
	}
	return cfg.normalized(), nil
}

// LoadConfig reads Config from environ instead of the process environment.
func LoadConfig(environ map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("params: parse env: %w", err)
	}
	return cfg.normalized(), nil
}

func (c Config) normalized() Config {
	c.LogTag = strings.TrimSpace(c.LogTag)
	c.Engine = strings.ToLower(strings.TrimSpace(c.Engine))
	if c.Engine == "" {
		c.Engine = "expr"
	}
	return c
}

// ValidatorFactory returns the shared factory for the configured engine.
func (c Config) ValidatorFactory() (ValidatorFactory, error) {
	return FactoryForEngine(c.Engine)
}

// WithConfig applies cfg. An engine that cannot be built leaves the factory
// untouched so the default applies.
func WithConfig(cfg Config) Option {
	return func(oc *objectConfig) {
		if tag := strings.TrimSpace(cfg.LogTag); tag != "" {
			oc.logTag = tag
		}
		oc.activity = cfg.Activity
		if factory, err := cfg.ValidatorFactory(); err == nil {
			oc.factory = factory
		}
	}
}
