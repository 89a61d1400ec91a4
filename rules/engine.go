package rules

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"
)

var (
	// ErrNoEvaluator indicates an engine name did not resolve to an evaluator.
	ErrNoEvaluator = errors.New("rules: evaluator not configured")
	// ErrNonBoolResult indicates a rule expression produced a non-boolean value.
	ErrNonBoolResult = errors.New("rules: rule must evaluate to a bool")
)

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithEvaluator sets the expression evaluator used for every rule.
func WithEvaluator(evaluator Evaluator) EngineOption {
	return func(e *Engine) {
		if evaluator != nil {
			e.evaluator = evaluator
		}
	}
}

// WithEvaluatorLogger records one event per evaluated rule.
func WithEvaluatorLogger(logger EvaluatorLogger) EngineOption {
	return func(e *Engine) {
		if logger == nil {
			e.logger = noopEvaluatorLogger{}
			return
		}
		e.logger = logger
	}
}

// WithArgs exposes args to every rule as the args binding.
func WithArgs(args map[string]any) EngineOption {
	return func(e *Engine) {
		e.args = copyAnyMap(args)
	}
}

// WithClock overrides the time source bound as now.
func WithClock(clock func() time.Time) EngineOption {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// Engine validates field data against rule and message tables. An Engine is
// stateless between calls and safe for concurrent use when its evaluator is.
type Engine struct {
	evaluator Evaluator
	logger    EvaluatorLogger
	args      map[string]any
	clock     func() time.Time
}

// NewEngine constructs an Engine. Without WithEvaluator the engine runs
// expr-lang expressions with the builtin functions and an in-memory cache.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		logger: noopEvaluatorLogger{},
		clock:  time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	if e.evaluator == nil {
		e.evaluator = NewExprEvaluator(
			ExprWithProgramCache(NewMemoryCache()),
			ExprWithFunctionRegistry(Builtins()),
		)
	}
	return e
}

// EvaluatorByName resolves "expr", "cel", "lua" or "js" into an Evaluator
// sharing cache and registry. The js engine requires the js_eval build tag.
func EvaluatorByName(name string, cache ProgramCache, registry *FunctionRegistry) (Evaluator, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "expr":
		return NewExprEvaluator(ExprWithProgramCache(cache), ExprWithFunctionRegistry(registry)), nil
	case "cel":
		return NewCELEvaluator(CELWithProgramCache(cache), CELWithFunctionRegistry(registry)), nil
	case "lua":
		return NewLuaEvaluator(LuaWithProgramCache(cache), LuaWithFunctionRegistry(registry)), nil
	case "js":
		if !jsEvaluatorAvailable() {
			return nil, fmt.Errorf("%w: js (build with -tags js_eval)", ErrNoEvaluator)
		}
		return NewJSEvaluator(JSWithProgramCache(cache), JSWithFunctionRegistry(registry)), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrNoEvaluator, name)
	}
}

// Validate runs every rule in rules against data. Rule failures are reported
// through the Result, never as an error.
func (e *Engine) Validate(data map[string]any, rules map[string]any, messages map[string]string) *Result {
	result := &Result{errors: map[string][]string{}}
	if e == nil || len(rules) == 0 {
		return result
	}
	now := e.clock()

	var evalErrs []error
	for _, field := range expandFields(data, rules) {
		expressions := ruleExpressions(field.spec)
		value := data[field.name]
		for index, expression := range expressions {
			passed, err := e.check(data, field.name, value, expression, now)
			if err != nil {
				evalErrs = append(evalErrs, err)
			}
			if passed {
				continue
			}
			message := resolveMessage(messages, field.name, index)
			result.errors[field.name] = append(result.errors[field.name], formatMessage(message, field.name, expression, value))
		}
	}
	result.err = errors.Join(evalErrs...)
	return result
}

func (e *Engine) check(data map[string]any, field string, value any, expression string, now time.Time) (bool, error) {
	snapshot := make(map[string]any, len(data)+2)
	for key, item := range data {
		snapshot[key] = item
	}
	snapshot["value"] = value
	snapshot["field"] = field

	ctx := RuleContext{
		Snapshot: snapshot,
		Field:    field,
		Now:      &now,
		Args:     e.args,
	}
	start := time.Now()
	out, err := e.evaluator.Evaluate(ctx, expression)
	passed := false
	if err == nil {
		matched, ok := out.(bool)
		if !ok {
			err = fmt.Errorf("%w: got %T", ErrNonBoolResult, out)
		}
		passed = matched
	}
	err = wrapEvaluationError(evaluatorEngineName(e.evaluator), expression, field, err)
	e.logger.LogEvaluation(EvaluatorLogEvent{
		Engine:   evaluatorEngineName(e.evaluator),
		Expr:     expression,
		Field:    field,
		Passed:   passed,
		Duration: time.Since(start),
		Err:      err,
	})
	return passed, err
}

type fieldRules struct {
	name string
	spec any
}

// expandFields pairs every rule key with the fields it targets. Keys holding
// glob metacharacters are matched against the data keys; the rest name a
// single field whether or not it is present in data.
func expandFields(data map[string]any, rules map[string]any) []fieldRules {
	keys := make([]string, 0, len(rules))
	for key := range rules {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	dataKeys := make([]string, 0, len(data))
	for key := range data {
		dataKeys = append(dataKeys, key)
	}
	sort.Strings(dataKeys)

	var out []fieldRules
	for _, key := range keys {
		if !isPattern(key) {
			out = append(out, fieldRules{name: key, spec: rules[key]})
			continue
		}
		for _, candidate := range dataKeys {
			if matched, err := path.Match(key, candidate); err == nil && matched {
				out = append(out, fieldRules{name: candidate, spec: rules[key]})
			}
		}
	}
	return out
}

// ruleExpressions accepts a string, []string or []any of strings.
func ruleExpressions(spec any) []string {
	var raw []string
	switch typed := spec.(type) {
	case string:
		raw = []string{typed}
	case []string:
		raw = typed
	case []any:
		for _, item := range typed {
			if s, ok := item.(string); ok {
				raw = append(raw, s)
			}
		}
	}
	out := make([]string, 0, len(raw))
	for _, expression := range raw {
		if trimmed := strings.TrimSpace(expression); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func isPattern(key string) bool {
	return strings.ContainsAny(key, "*?[")
}

func evaluatorEngineName(e Evaluator) string {
	switch e.(type) {
	case nil:
		return "unknown"
	case *exprEvaluator:
		return "expr"
	case *celEvaluator:
		return "cel"
	case *luaEvaluator:
		return "lua"
	default:
		if name := fmt.Sprintf("%T", e); name == "*rules.jsEvaluator" {
			return "js"
		}
		return "custom"
	}
}

func copyAnyMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]any, len(src))
	for key, value := range src {
		dst[key] = value
	}
	return dst
}

// Result is the outcome of a single Validate call.
type Result struct {
	errors map[string][]string
	err    error
}

// Fails reports whether any rule did not pass.
func (r *Result) Fails() bool {
	return r != nil && len(r.errors) > 0
}

// Passes reports whether every rule passed.
func (r *Result) Passes() bool {
	return !r.Fails()
}

// Errors returns a copy of the field to messages map.
func (r *Result) Errors() map[string][]string {
	out := map[string][]string{}
	if r == nil {
		return out
	}
	for field, messages := range r.errors {
		out[field] = append([]string(nil), messages...)
	}
	return out
}

// First returns the first message recorded for field.
func (r *Result) First(field string) string {
	if r == nil || len(r.errors[field]) == 0 {
		return ""
	}
	return r.errors[field][0]
}

// Err joins every evaluation error raised while validating. A non-nil Err
// means at least one rule could not be evaluated and was counted as failed.
func (r *Result) Err() error {
	if r == nil {
		return nil
	}
	return r.err
}
