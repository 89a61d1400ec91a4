// Package params provides parameter objects: declared field sets that import
// data from raw mappings or other parameter objects, resolve computed fields,
// export snapshots for logging and hand their data to a validation engine.
package params

import (
	"github.com/goliatone/go-params/pkg/activity"
	"github.com/goliatone/go-params/resolve"
)

// Control field names. They configure an object and are never part of its
// data: bulk export and import skip them and schemas may not declare them.
const (
	ControlCamelKey  = "camelKey"
	ControlGreedy    = "greedy"
	ControlLogTag    = "logTag"
	ControlExcept    = "except"
	ControlValidator = "validator"
	ControlRules     = "rules"
	ControlMessages  = "messages"
)

var controlFields = resolve.NewSet(
	ControlCamelKey,
	ControlGreedy,
	ControlLogTag,
	ControlExcept,
	ControlValidator,
	ControlRules,
	ControlMessages,
)

// ControlFields returns the reserved control field names, sorted.
func ControlFields() []string {
	return controlFields.Names()
}

// IsControlField reports whether name is reserved.
func IsControlField(name string) bool {
	return controlFields.Has(name)
}

// Getter derives the read value of a field from the object that owns it.
// Getters should read other fields through Slot to avoid recursing into
// themselves.
type Getter func(o *Object) any

// Source is anything an Object can import from. *Object implements it.
type Source interface {
	Keys(except ...string) []string
	Mget(keys []string, except ...string) map[string]any
}

// Option configures an Object at construction.
type Option func(*objectConfig)

type objectConfig struct {
	id       string
	logTag   string
	logger   Logger
	factory  ValidatorFactory
	provider ValidationProvider
	hooks    activity.Hooks
	activity activity.Config
	greedy   *bool
	camelKey *bool
}

func applyOptions(opts []Option) objectConfig {
	cfg := objectConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithLogTag overrides the tag prefixed to every log message.
func WithLogTag(tag string) Option {
	return func(cfg *objectConfig) {
		cfg.logTag = tag
	}
}

// WithID sets the instance identifier reported in activity events. A random
// UUID is used otherwise.
func WithID(id string) Option {
	return func(cfg *objectConfig) {
		cfg.id = id
	}
}

// WithGreedy overrides the schema's greedy import flag for one instance.
func WithGreedy(greedy bool) Option {
	return func(cfg *objectConfig) {
		cfg.greedy = &greedy
	}
}

// WithCamelKey overrides the schema's import casing flag for one instance.
func WithCamelKey(camelKey bool) Option {
	return func(cfg *objectConfig) {
		cfg.camelKey = &camelKey
	}
}

// WithValidatorFactory injects the validation engine.
func WithValidatorFactory(factory ValidatorFactory) Option {
	return func(cfg *objectConfig) {
		cfg.factory = factory
	}
}

// WithProvider replaces the object as the source of validation data, rules
// and messages.
func WithProvider(provider ValidationProvider) Option {
	return func(cfg *objectConfig) {
		cfg.provider = provider
	}
}

// SetOption configures a single Mset call.
type SetOption func(*setConfig)

type setConfig struct {
	camelKey bool
}

// SetCamelKey toggles key casing normalization for an Mset call. Enabled by
// default.
func SetCamelKey(enabled bool) SetOption {
	return func(cfg *setConfig) {
		cfg.camelKey = enabled
	}
}

func applySetOptions(opts []SetOption) setConfig {
	cfg := setConfig{camelKey: true}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
