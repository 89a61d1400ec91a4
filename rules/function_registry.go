package rules

import (
	"fmt"
	"net/mail"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"
)

// Function represents a callable exposed to rule expressions.
type Function func(args ...any) (any, error)

// FunctionRegistry stores rule functions. Lookups are case-insensitive while
// Names reports the casing used at registration.
type FunctionRegistry struct {
	mu        sync.RWMutex
	functions map[string]registeredFunction
}

type registeredFunction struct {
	name string
	fn   Function
}

// NewFunctionRegistry constructs an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{
		functions: make(map[string]registeredFunction),
	}
}

// Builtins returns a registry preloaded with the common field checks:
// required, email, regex, between and oneOf.
func Builtins() *FunctionRegistry {
	r := NewFunctionRegistry()
	r.mustRegister("required", funcRequired)
	r.mustRegister("email", funcEmail)
	r.mustRegister("regex", funcRegex)
	r.mustRegister("between", funcBetween)
	r.mustRegister("oneOf", funcOneOf)
	return r
}

// Register stores fn under name guarding against duplicates.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	if fn == nil {
		return fmt.Errorf("rules: function %q is nil", name)
	}
	if name == "" {
		return fmt.Errorf("rules: function name must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.functions == nil {
		r.functions = make(map[string]registeredFunction)
	}
	key := strings.ToLower(name)
	if _, exists := r.functions[key]; exists {
		return fmt.Errorf("rules: function %q already registered", name)
	}
	r.functions[key] = registeredFunction{name: name, fn: fn}
	return nil
}

func (r *FunctionRegistry) mustRegister(name string, fn Function) {
	if err := r.Register(name, fn); err != nil {
		panic(err)
	}
}

// Has reports whether name is registered.
func (r *FunctionRegistry) Has(name string) bool {
	if r == nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.functions[strings.ToLower(name)]
	return ok
}

// Clone returns a shallow copy of the registry.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := &FunctionRegistry{
		functions: make(map[string]registeredFunction, len(r.functions)),
	}
	for key, entry := range r.functions {
		clone.functions[key] = entry
	}
	return clone
}

// Call executes the function registered for name.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	if r == nil {
		return nil, fmt.Errorf("rules: function registry is nil")
	}
	r.mu.RLock()
	entry, ok := r.functions[strings.ToLower(name)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("rules: function %q not registered", name)
	}
	return entry.fn(args...)
}

// Names returns registered function names sorted alphabetically.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.functions))
	for _, entry := range r.functions {
		names = append(names, entry.name)
	}
	sort.Strings(names)
	return names
}

func funcRequired(args ...any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("required expects 1 argument, got %d", len(args))
	}
	return !isEmpty(args[0]), nil
}

func funcEmail(args ...any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("email expects 1 argument, got %d", len(args))
	}
	value, ok := args[0].(string)
	if !ok || value == "" {
		return false, nil
	}
	addr, err := mail.ParseAddress(value)
	if err != nil {
		return false, nil
	}
	return addr.Address == value, nil
}

func funcRegex(args ...any) (any, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("regex expects 2 arguments, got %d", len(args))
	}
	pattern, ok := args[1].(string)
	if !ok {
		return nil, fmt.Errorf("regex pattern must be a string")
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	value, ok := args[0].(string)
	if !ok {
		return false, nil
	}
	return re.MatchString(value), nil
}

func funcBetween(args ...any) (any, error) {
	if len(args) != 3 {
		return nil, fmt.Errorf("between expects 3 arguments, got %d", len(args))
	}
	size, ok := measure(args[0])
	if !ok {
		return false, nil
	}
	lower, okLower := toFloat(args[1])
	upper, okUpper := toFloat(args[2])
	if !okLower || !okUpper {
		return nil, fmt.Errorf("between bounds must be numeric")
	}
	return size >= lower && size <= upper, nil
}

func funcOneOf(args ...any) (any, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("oneOf expects at least 1 argument")
	}
	candidates := args[1:]
	if len(candidates) == 1 {
		if list, ok := candidates[0].([]any); ok {
			candidates = list
		}
	}
	for _, candidate := range candidates {
		if reflect.DeepEqual(args[0], candidate) {
			return true, nil
		}
		left, okLeft := toFloat(args[0])
		right, okRight := toFloat(candidate)
		if okLeft && okRight && left == right {
			return true, nil
		}
	}
	return false, nil
}

func isEmpty(value any) bool {
	if value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.String:
		return strings.TrimSpace(rv.String()) == ""
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}

// measure returns the numeric size used by between: numbers compare by value,
// strings by rune count and collections by length.
func measure(value any) (float64, bool) {
	if number, ok := toFloat(value); ok {
		return number, true
	}
	rv := reflect.ValueOf(value)
	if !rv.IsValid() {
		return 0, false
	}
	switch rv.Kind() {
	case reflect.String:
		return float64(len([]rune(rv.String()))), true
	case reflect.Slice, reflect.Map, reflect.Array:
		return float64(rv.Len()), true
	default:
		return 0, false
	}
}

func toFloat(value any) (float64, bool) {
	rv := reflect.ValueOf(value)
	if !rv.IsValid() {
		return 0, false
	}
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	default:
		return 0, false
	}
}
