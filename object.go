package params

import (
	"strings"

	"github.com/goliatone/go-params/layering"
	"github.com/goliatone/go-params/pkg/activity"
	"github.com/goliatone/go-params/resolve"
	"github.com/google/uuid"
)

// Object is a parameter object: an ordered set of stored fields governed by
// a Schema. Reads resolve computed getters first, bulk writes reconcile
// computed fields afterwards.
//
// An Object is not safe for concurrent mutation. Build it, then share it
// read-only.
type Object struct {
	schema *Schema
	id     string
	slots  map[string]any
	order  []string

	greedy   bool
	camelKey bool
	logTag   string

	logger     Logger
	emitter    *activity.Emitter
	validation *Validation
}

// New constructs an Object holding the schema defaults. Nothing is imported.
func New(schema *Schema, opts ...Option) *Object {
	if schema == nil {
		schema = MustDefine("params")
	}
	cfg := applyOptions(opts)

	o := &Object{
		schema:   schema,
		id:       strings.TrimSpace(cfg.id),
		slots:    make(map[string]any, len(schema.fields)),
		order:    make([]string, 0, len(schema.fields)),
		greedy:   schema.greedy,
		camelKey: schema.camelKey,
		logTag:   schema.logTag,
		logger:   cfg.logger,
	}
	if o.id == "" {
		o.id = uuid.NewString()
	}
	if cfg.greedy != nil {
		o.greedy = *cfg.greedy
	}
	if cfg.camelKey != nil {
		o.camelKey = *cfg.camelKey
	}
	if cfg.logTag != "" {
		o.logTag = cfg.logTag
	}
	if o.logger == nil {
		o.logger = noopLogger{}
	}
	o.emitter = activity.NewEmitter(cfg.hooks, cfg.activity)

	for _, field := range schema.fields {
		o.SetSlot(field.name, layering.Clone(field.def))
	}

	var provider ValidationProvider = o
	if cfg.provider != nil {
		provider = cfg.provider
	}
	o.validation = NewValidation(provider, cfg.factory)
	return o
}

// From constructs an Object and imports source into it. source may be nil,
// a map[string]any, a map[string]string or any Source such as another
// *Object. Other types are ignored.
func From(schema *Schema, source any, opts ...Option) *Object {
	o := New(schema, opts...)
	o.Import(source)
	return o
}

// Import copies source into the object following its greedy and casing
// policy. A non-greedy import only takes keys the object already has, after
// casing is applied.
func (o *Object) Import(source any) {
	if o == nil {
		return
	}
	values := o.importValues(source)
	if values == nil {
		return
	}
	o.Mset(values, SetCamelKey(o.camelKey))
}

func (o *Object) importValues(source any) map[string]any {
	switch src := source.(type) {
	case nil:
		return nil
	case Source:
		return o.importSource(src)
	case map[string]any:
		return o.filterImport(src)
	case map[string]string:
		values := make(map[string]any, len(src))
		for key, value := range src {
			values[key] = value
		}
		return o.filterImport(values)
	default:
		return nil
	}
}

func (o *Object) importSource(src Source) map[string]any {
	if o.greedy {
		return src.Mget(nil)
	}
	// map canonical names back to the source's own keys
	wanted := resolve.NewSet(o.Keys()...)
	keys := make([]string, 0)
	for _, key := range src.Keys() {
		if wanted.Has(o.canonical(key)) {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return map[string]any{}
	}
	return src.Mget(keys)
}

func (o *Object) filterImport(values map[string]any) map[string]any {
	if o.greedy {
		return values
	}
	wanted := resolve.NewSet(o.Keys()...)
	out := make(map[string]any, len(values))
	for key, value := range values {
		if wanted.Has(o.canonical(key)) {
			out[key] = value
		}
	}
	return out
}

func (o *Object) canonical(key string) string {
	if o.camelKey {
		return CamelizeKey(key)
	}
	return key
}

// Mset writes values into the object and then reconciles computed fields:
// every field not present in values that has a getter gets its stored slot
// overwritten with the getter's current result. Control names are dropped.
// A nil map is a no-op.
func (o *Object) Mset(values map[string]any, opts ...SetOption) {
	if o == nil || values == nil {
		return
	}
	cfg := applySetOptions(opts)
	if cfg.camelKey {
		values = CamelizeKeys(values)
	}

	for _, key := range sortedKeys(values) {
		if !o.accepts(key) {
			continue
		}
		o.schema.resolver.Write(o, key, layering.Clone(values[key]))
	}
	o.reconcile(values)
}

// MsetLayers merges layers strongest first and writes the result. Each layer
// is camelized before merging so differently cased keys line up.
func (o *Object) MsetLayers(layers ...map[string]any) {
	if o == nil || len(layers) == 0 {
		return
	}
	normalized := make([]map[string]any, 0, len(layers))
	for _, layer := range layers {
		if layer == nil {
			continue
		}
		normalized = append(normalized, CamelizeKeys(layer))
	}
	if len(normalized) == 0 {
		return
	}
	o.Mset(layering.MergeLayers(normalized...), SetCamelKey(false))
}

func (o *Object) accepts(key string) bool {
	if key == "" || controlFields.Has(key) {
		return false
	}
	if o.schema.strict && !o.schema.declared.Has(key) {
		return false
	}
	return true
}

func (o *Object) reconcile(supplied map[string]any) {
	for _, name := range o.Keys() {
		if _, ok := supplied[name]; ok {
			continue
		}
		getter, ok := o.schema.resolver.Lookup(name)
		if !ok {
			continue
		}
		o.SetSlot(name, layering.Clone(getter(o)))
	}
}

// Mget exports the requested fields, every materialized field when keys is
// empty. Control names and except are removed. Values come through the
// resolver and are deep copies. Requested fields that do not exist map to
// nil.
func (o *Object) Mget(keys []string, except ...string) map[string]any {
	out := map[string]any{}
	if o == nil {
		return out
	}
	exclude := controlFields.Union(resolve.NewSet(except...))
	if len(keys) == 0 {
		keys = o.schema.resolver.FieldNames(o, exclude)
	}
	for _, key := range keys {
		if exclude.Has(key) {
			continue
		}
		value, _ := o.schema.resolver.Read(o, key)
		out[key] = layering.Clone(value)
	}
	return out
}

// Snapshot exports every field.
func (o *Object) Snapshot() map[string]any {
	return o.Mget(nil)
}

// Keys lists the materialized field names in insertion order, minus control
// names and except.
func (o *Object) Keys(except ...string) []string {
	if o == nil {
		return []string{}
	}
	exclude := controlFields.Union(resolve.NewSet(except...))
	return o.schema.resolver.FieldNames(o, exclude)
}

// Get reads a field through the resolver. Missing fields read as nil.
func (o *Object) Get(name string) any {
	value, _ := o.Lookup(name)
	return value
}

// Lookup reads a field through the resolver and reports whether it resolved.
func (o *Object) Lookup(name string) (any, bool) {
	if o == nil || controlFields.Has(name) {
		return nil, false
	}
	return o.schema.resolver.Read(o, name)
}

// Has reports whether name is a materialized field.
func (o *Object) Has(name string) bool {
	if o == nil {
		return false
	}
	_, ok := o.slots[name]
	return ok
}

// Set writes a single field without reconciliation. Control names and, for
// strict schemas, undeclared names are ignored.
func (o *Object) Set(name string, value any) {
	if o == nil || !o.accepts(name) {
		return
	}
	o.schema.resolver.Write(o, name, layering.Clone(value))
}

// Slot returns the raw stored value of name, bypassing getters. Getters use
// it to read their own or sibling slots.
func (o *Object) Slot(name string) (any, bool) {
	if o == nil {
		return nil, false
	}
	value, ok := o.slots[name]
	return value, ok
}

// SetSlot writes the raw stored value of name, materializing the field when
// needed.
func (o *Object) SetSlot(name string, value any) {
	if _, ok := o.slots[name]; !ok {
		o.order = append(o.order, name)
	}
	o.slots[name] = value
}

// SlotNames returns materialized field names in insertion order.
func (o *Object) SlotNames() []string {
	return append([]string(nil), o.order...)
}

// Schema returns the schema the object was built from.
func (o *Object) Schema() *Schema { return o.schema }

// ID returns the instance identifier.
func (o *Object) ID() string { return o.id }

// LogTag returns the tag prefixed to log messages.
func (o *Object) LogTag() string { return o.logTag }

// Greedy reports whether Import takes every source key.
func (o *Object) Greedy() bool { return o.greedy }

// CamelKey reports whether Import camelizes source keys.
func (o *Object) CamelKey() bool { return o.camelKey }

// Value reads a field and asserts its type.
func Value[T any](o *Object, name string) (T, bool) {
	var zero T
	raw, ok := o.Lookup(name)
	if !ok {
		return zero, false
	}
	typed, ok := raw.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}
