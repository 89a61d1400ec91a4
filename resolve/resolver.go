// Package resolve decides, per field, whether a read goes through a computed
// accessor or straight to the stored slot of its owner.
package resolve

import (
	"unicode"
	"unicode/utf8"
)

// Slots is the stored-value surface a Resolver reads and writes.
type Slots interface {
	Slot(name string) (any, bool)
	SetSlot(name string, value any)
	SlotNames() []string
}

// Getter computes the read value of a field from its owner.
type Getter[S Slots] func(owner S) any

// Resolver holds the accessor table for a single owner type. Tables are built
// once, when the owner type is defined, and are read-only afterwards.
type Resolver[S Slots] struct {
	getters map[string]Getter[S]
}

// New constructs an empty Resolver.
func New[S Slots]() *Resolver[S] {
	return &Resolver[S]{getters: make(map[string]Getter[S])}
}

// GetterName maps a field name onto the accessor name it is registered under,
// e.g. "fullName" becomes "getFullNameAttr".
func GetterName(field string) string {
	return "get" + upperFirst(field) + "Attr"
}

// Register stores getter as the computed accessor for field. Nil getters are
// ignored.
func (r *Resolver[S]) Register(field string, getter Getter[S]) {
	if r == nil || getter == nil {
		return
	}
	if r.getters == nil {
		r.getters = make(map[string]Getter[S])
	}
	r.getters[GetterName(field)] = getter
}

// Lookup returns the computed accessor registered for field.
func (r *Resolver[S]) Lookup(field string) (Getter[S], bool) {
	if r == nil || len(r.getters) == 0 {
		return nil, false
	}
	getter, ok := r.getters[GetterName(field)]
	return getter, ok
}

// HasGetter reports whether field resolves through a computed accessor.
func (r *Resolver[S]) HasGetter(field string) bool {
	_, ok := r.Lookup(field)
	return ok
}

// Read returns the computed value when an accessor exists, otherwise the
// stored slot. A field that was never set yields (nil, false).
func (r *Resolver[S]) Read(owner S, field string) (any, bool) {
	if getter, ok := r.Lookup(field); ok {
		return getter(owner), true
	}
	return owner.Slot(field)
}

// Write stores value in the slot for field. Accessors are never consulted.
func (r *Resolver[S]) Write(owner S, field string, value any) {
	owner.SetSlot(field, value)
}

// FieldNames lists the materialized slot names of owner minus exclude,
// preserving the owner's ordering.
func (r *Resolver[S]) FieldNames(owner S, exclude Set) []string {
	names := owner.SlotNames()
	out := make([]string, 0, len(names))
	for _, name := range names {
		if exclude.Has(name) {
			continue
		}
		out = append(out, name)
	}
	return out
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
