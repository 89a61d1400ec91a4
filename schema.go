package params

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-params/layering"
	"github.com/goliatone/go-params/resolve"
	"github.com/goliatone/go-params/rules"
)

// Schema declares the fields of a family of parameter objects along with
// their import policy, computed getters and validation tables. A Schema is
// immutable once defined and safe to share across goroutines.
type Schema struct {
	name     string
	fields   []fieldDef
	declared resolve.Set
	resolver *resolve.Resolver[*Object]

	greedy   bool
	camelKey bool
	strict   bool
	logTag   string

	rules        RuleTable
	messages     MessageTable
	rulesFunc    func(*Object) RuleTable
	messagesFunc func(*Object) MessageTable
}

type fieldDef struct {
	name string
	def  any
}

// SchemaOption configures Define.
type SchemaOption func(*schemaBuilder)

type schemaBuilder struct {
	schema *Schema
	errs   []error
}

func (b *schemaBuilder) fail(err error) {
	b.errs = append(b.errs, err)
}

func (b *schemaBuilder) declare(name string, def any) bool {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		b.fail(ErrFieldNameRequired)
		return false
	case controlFields.Has(name):
		b.fail(fmt.Errorf("%w: %q", ErrReservedField, name))
		return false
	case b.schema.declared.Has(name):
		b.fail(fmt.Errorf("%w: %q", ErrDuplicateField, name))
		return false
	}
	b.schema.declared.Add(name)
	b.schema.fields = append(b.schema.fields, fieldDef{name: name, def: layering.Clone(def)})
	return true
}

// checkCamelizedNames rejects declarations that casing would rewrite onto a
// control name, such as "log_tag".
func (b *schemaBuilder) checkCamelizedNames() {
	for _, field := range b.schema.fields {
		if camel := CamelizeKey(field.name); camel != field.name && controlFields.Has(camel) {
			b.fail(fmt.Errorf("%w: %q camelizes to %q", ErrReservedField, field.name, camel))
		}
	}
}

// Field declares a stored field with a default value.
func Field(name string, def any) SchemaOption {
	return func(b *schemaBuilder) {
		b.declare(name, def)
	}
}

// Fields declares several stored fields with nil defaults.
func Fields(names ...string) SchemaOption {
	return func(b *schemaBuilder) {
		for _, name := range names {
			b.declare(name, nil)
		}
	}
}

// Computed declares a field whose read value comes from getter. The field
// starts with a nil stored value and is reconciled on every Mset.
func Computed(name string, getter Getter) SchemaOption {
	return func(b *schemaBuilder) {
		if getter == nil {
			b.fail(fmt.Errorf("%w: %q", ErrNilGetter, name))
			return
		}
		if b.declare(name, nil) {
			b.schema.resolver.Register(strings.TrimSpace(name), resolve.Getter[*Object](getter))
		}
	}
}

// Accessor registers a getter for a field without declaring it. This covers
// fields that arrive dynamically through greedy imports.
func Accessor(name string, getter Getter) SchemaOption {
	return func(b *schemaBuilder) {
		name = strings.TrimSpace(name)
		if name == "" {
			b.fail(ErrFieldNameRequired)
			return
		}
		if controlFields.Has(name) {
			b.fail(fmt.Errorf("%w: %q", ErrReservedField, name))
			return
		}
		if getter == nil {
			b.fail(fmt.Errorf("%w: %q", ErrNilGetter, name))
			return
		}
		b.schema.resolver.Register(name, resolve.Getter[*Object](getter))
	}
}

// Greedy makes From import every source key instead of only declared ones.
func Greedy(greedy bool) SchemaOption {
	return func(b *schemaBuilder) {
		b.schema.greedy = greedy
	}
}

// CamelKey toggles key casing normalization during import. Enabled by
// default.
func CamelKey(camelKey bool) SchemaOption {
	return func(b *schemaBuilder) {
		b.schema.camelKey = camelKey
	}
}

// Strict rejects writes to undeclared fields.
func Strict(strict bool) SchemaOption {
	return func(b *schemaBuilder) {
		b.schema.strict = strict
	}
}

// LogTag sets the tag prefixed to log messages. Defaults to "[<name>]".
func LogTag(tag string) SchemaOption {
	return func(b *schemaBuilder) {
		b.schema.logTag = tag
	}
}

// Rules sets a static rule table.
func Rules(table RuleTable) SchemaOption {
	return func(b *schemaBuilder) {
		b.schema.rules = cloneRuleTable(table)
	}
}

// Messages sets a static message table.
func Messages(table MessageTable) SchemaOption {
	return func(b *schemaBuilder) {
		b.schema.messages = cloneMessageTable(table)
	}
}

// RulesFunc derives the rule table from the object being validated.
func RulesFunc(fn func(*Object) RuleTable) SchemaOption {
	return func(b *schemaBuilder) {
		b.schema.rulesFunc = fn
	}
}

// MessagesFunc derives the message table from the object being validated.
func MessagesFunc(fn func(*Object) MessageTable) SchemaOption {
	return func(b *schemaBuilder) {
		b.schema.messagesFunc = fn
	}
}

// Tables sets both tables from a parsed rules file.
func Tables(tables rules.Tables) SchemaOption {
	return func(b *schemaBuilder) {
		b.schema.rules = cloneRuleTable(tables.Rules)
		b.schema.messages = cloneMessageTable(tables.Messages)
	}
}

// Define builds a schema. Every declaration problem is reported at once.
func Define(name string, opts ...SchemaOption) (*Schema, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrSchemaNameRequired
	}
	b := &schemaBuilder{schema: &Schema{
		name:     name,
		declared: resolve.NewSet(),
		resolver: resolve.New[*Object](),
		camelKey: true,
		logTag:   "[" + name + "]",
	}}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	if b.schema.camelKey {
		b.checkCamelizedNames()
	}
	if len(b.errs) > 0 {
		return nil, fmt.Errorf("params: define %s: %w", name, errors.Join(b.errs...))
	}
	return b.schema, nil
}

// MustDefine is Define for package-level schemas. It panics on error.
func MustDefine(name string, opts ...SchemaOption) *Schema {
	schema, err := Define(name, opts...)
	if err != nil {
		panic(err)
	}
	return schema
}

// Name returns the schema name.
func (s *Schema) Name() string { return s.name }

// Fields returns the declared field names in declaration order.
func (s *Schema) Fields() []string {
	names := make([]string, len(s.fields))
	for i, field := range s.fields {
		names[i] = field.name
	}
	return names
}

// Declares reports whether name is a declared field.
func (s *Schema) Declares(name string) bool { return s.declared.Has(name) }

// HasGetter reports whether name has a computed getter.
func (s *Schema) HasGetter(name string) bool { return s.resolver.HasGetter(name) }

// Greedy reports whether imports take every source key by default.
func (s *Schema) Greedy() bool { return s.greedy }

// CamelKey reports whether imports camelize keys by default.
func (s *Schema) CamelKey() bool { return s.camelKey }

// Strict reports whether writes to undeclared fields are dropped.
func (s *Schema) Strict() bool { return s.strict }

// LogTag returns the default tag prefixed to log messages.
func (s *Schema) LogTag() string { return s.logTag }

func cloneRuleTable(table map[string]any) RuleTable {
	if table == nil {
		return nil
	}
	return RuleTable(layering.Clone(map[string]any(table)))
}

func cloneMessageTable(table map[string]string) MessageTable {
	if table == nil {
		return nil
	}
	out := make(MessageTable, len(table))
	for key, value := range table {
		out[key] = value
	}
	return out
}
