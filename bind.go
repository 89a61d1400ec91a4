package params

import (
	"fmt"

	"github.com/goliatone/go-params/internal/hydrate"
)

// BindOption configures Bind.
type BindOption[T any] func(*bindConfig[T])

type bindConfig[T any] struct {
	decoder []hydrate.DecoderOption[T]
}

// BindDisallowUnknown fails when the snapshot has keys with no struct field.
func BindDisallowUnknown[T any]() BindOption[T] {
	return func(cfg *bindConfig[T]) {
		cfg.decoder = append(cfg.decoder, hydrate.WithDisallowUnknownFields[T]())
	}
}

// BindUseNumber decodes numbers into json.Number.
func BindUseNumber[T any]() BindOption[T] {
	return func(cfg *bindConfig[T]) {
		cfg.decoder = append(cfg.decoder, hydrate.WithUseNumber[T]())
	}
}

// BindPrepare rewrites the snapshot before decoding.
func BindPrepare[T any](fn func(map[string]any) (map[string]any, error)) BindOption[T] {
	return func(cfg *bindConfig[T]) {
		if fn == nil {
			return
		}
		cfg.decoder = append(cfg.decoder, hydrate.WithPreHook[T](func(_ hydrate.Context, payload map[string]any) (map[string]any, error) {
			return fn(payload)
		}))
	}
}

// BindCheck inspects or adjusts the decoded value.
func BindCheck[T any](fn func(*T) error) BindOption[T] {
	return func(cfg *bindConfig[T]) {
		if fn == nil {
			return
		}
		cfg.decoder = append(cfg.decoder, hydrate.WithPostHook[T](func(_ hydrate.Context, value *T) error {
			return fn(value)
		}))
	}
}

// Bind decodes the object's snapshot into T using JSON field matching.
// Computed fields are included with their resolved values.
func Bind[T any](o *Object, opts ...BindOption[T]) (T, error) {
	var zero T
	if o == nil {
		return zero, fmt.Errorf("params: bind: nil object")
	}
	cfg := bindConfig[T]{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	decoder := hydrate.NewDecoder(cfg.decoder...)
	return decoder.Decode(hydrate.Context{Schema: o.schema.name, LogTag: o.logTag}, o.Snapshot())
}

// BindStrict is Bind with unknown snapshot keys rejected.
func BindStrict[T any](o *Object, opts ...BindOption[T]) (T, error) {
	return Bind[T](o, append([]BindOption[T]{BindDisallowUnknown[T]()}, opts...)...)
}
