package params

import (
	"strings"
	"sync"
	"sync/atomic"

	"github.com/goliatone/go-params/rules"
)

// RuleTable maps field names or patterns to rule expressions.
type RuleTable map[string]any

// MessageTable maps "field", "field.<index>" or patterns to messages.
type MessageTable map[string]string

// ValidationProvider supplies what a validator checks.
type ValidationProvider interface {
	Data() map[string]any
	Rules() RuleTable
	Messages() MessageTable
}

// Validator is the outcome of validating one provider.
type Validator interface {
	Fails() bool
	Errors() map[string][]string
}

// ValidatorFactory builds validators. Implementations wrap a validation
// engine.
type ValidatorFactory interface {
	Make(data map[string]any, rules RuleTable, messages MessageTable) Validator
}

// ValidatorFactoryFunc adapts a function to ValidatorFactory.
type ValidatorFactoryFunc func(data map[string]any, rules RuleTable, messages MessageTable) Validator

// Make calls fn.
func (fn ValidatorFactoryFunc) Make(data map[string]any, rules RuleTable, messages MessageTable) Validator {
	if fn == nil {
		return passingValidator{}
	}
	return fn(data, rules, messages)
}

type engineFactory struct {
	engine *rules.Engine
}

func (f *engineFactory) Make(data map[string]any, table RuleTable, messages MessageTable) Validator {
	return f.engine.Validate(data, table, messages)
}

// RulesFactory adapts a rules engine to ValidatorFactory.
func RulesFactory(engine *rules.Engine) ValidatorFactory {
	if engine == nil {
		engine = rules.NewEngine()
	}
	return &engineFactory{engine: engine}
}

var (
	defaultFactoryOnce sync.Once
	defaultFactory     ValidatorFactory

	enginesMu sync.Mutex
	engines   = map[string]ValidatorFactory{}
)

// DefaultValidatorFactory returns the shared expr-backed factory used when
// none is injected.
func DefaultValidatorFactory() ValidatorFactory {
	defaultFactoryOnce.Do(func() {
		defaultFactory = RulesFactory(rules.NewEngine())
	})
	return defaultFactory
}

// FactoryForEngine returns a shared factory for a named evaluator engine
// ("expr", "cel", "lua" or "js"). Factories are built once per engine.
func FactoryForEngine(name string) (ValidatorFactory, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || key == "expr" {
		return DefaultValidatorFactory(), nil
	}

	enginesMu.Lock()
	defer enginesMu.Unlock()
	if factory, ok := engines[key]; ok {
		return factory, nil
	}
	evaluator, err := rules.EvaluatorByName(key, rules.NewMemoryCache(), rules.Builtins())
	if err != nil {
		return nil, err
	}
	factory := RulesFactory(rules.NewEngine(rules.WithEvaluator(evaluator)))
	engines[key] = factory
	return factory, nil
}

type passingValidator struct{}

func (passingValidator) Fails() bool                 { return false }
func (passingValidator) Errors() map[string][]string { return map[string][]string{} }

// Validation memoizes the validator for one provider. The provider is read
// exactly once, on first use; later changes to it are not seen.
type Validation struct {
	provider  ValidationProvider
	factory   ValidatorFactory
	once      sync.Once
	validated atomic.Bool
	validator Validator
}

// NewValidation binds a provider to a factory. A nil factory uses
// DefaultValidatorFactory.
func NewValidation(provider ValidationProvider, factory ValidatorFactory) *Validation {
	return &Validation{provider: provider, factory: factory}
}

// Validator builds the validator on first call and returns the same one
// afterwards.
func (v *Validation) Validator() Validator {
	v.once.Do(func() {
		factory := v.factory
		if factory == nil {
			factory = DefaultValidatorFactory()
		}
		var (
			data     map[string]any
			table    RuleTable
			messages MessageTable
		)
		if v.provider != nil {
			data = v.provider.Data()
			table = v.provider.Rules()
			messages = v.provider.Messages()
		}
		if data == nil {
			data = map[string]any{}
		}
		validator := factory.Make(data, table, messages)
		if validator == nil {
			validator = passingValidator{}
		}
		v.validator = validator
		v.validated.Store(true)
	})
	return v.validator
}

// Validated reports whether the validator has been built.
func (v *Validation) Validated() bool {
	return v.validated.Load()
}

// Fails reports whether validation failed.
func (v *Validation) Fails() bool {
	return v.Validator().Fails()
}

// Errors returns field messages, an empty map when validation passes.
func (v *Validation) Errors() map[string][]string {
	validator := v.Validator()
	if !validator.Fails() {
		return map[string][]string{}
	}
	errs := validator.Errors()
	if errs == nil {
		return map[string][]string{}
	}
	return errs
}

// Data exports the object for validation.
func (o *Object) Data() map[string]any {
	return o.Snapshot()
}

// Rules returns the rule table, derived from the object when the schema
// has a RulesFunc.
func (o *Object) Rules() RuleTable {
	if o == nil {
		return nil
	}
	if o.schema.rulesFunc != nil {
		return o.schema.rulesFunc(o)
	}
	return cloneRuleTable(o.schema.rules)
}

// Messages returns the message table, derived from the object when the
// schema has a MessagesFunc.
func (o *Object) Messages() MessageTable {
	if o == nil {
		return nil
	}
	if o.schema.messagesFunc != nil {
		return o.schema.messagesFunc(o)
	}
	return cloneMessageTable(o.schema.messages)
}

// Validator returns the memoized validator.
func (o *Object) Validator() Validator { return o.validation.Validator() }

// Fails validates on first call and reports failure.
func (o *Object) Fails() bool { return o.validation.Fails() }

// Passes is the negation of Fails.
func (o *Object) Passes() bool { return !o.validation.Fails() }

// Errors returns validation messages keyed by field.
func (o *Object) Errors() map[string][]string { return o.validation.Errors() }

// Validated reports whether validation already ran.
func (o *Object) Validated() bool { return o.validation.Validated() }
