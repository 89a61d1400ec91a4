package rules

import (
	"fmt"
	"math"
	"sort"
	"time"

	lua "github.com/Shopify/go-lua"
)

type luaEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// LuaEvaluatorOption configures the Lua evaluator.
type LuaEvaluatorOption func(*luaEvaluator)

// LuaWithProgramCache records syntax-checked chunks in cache so repeated
// expressions skip the standalone compile check. go-lua closures are bound to
// the state that loaded them, so every evaluation still loads the chunk into
// its fresh state.
func LuaWithProgramCache(cache ProgramCache) LuaEvaluatorOption {
	return func(e *luaEvaluator) {
		e.cache = cache
	}
}

// LuaWithFunctionRegistry exposes registry functions as Lua globals.
func LuaWithFunctionRegistry(registry *FunctionRegistry) LuaEvaluatorOption {
	return func(e *luaEvaluator) {
		if registry == nil {
			return
		}
		e.registry = registry.Clone()
	}
}

// NewLuaEvaluator constructs an Evaluator backed by go-lua. Each evaluation
// runs in a fresh state; expressions are wrapped as `return (<expr>)`.
func NewLuaEvaluator(opts ...LuaEvaluatorOption) Evaluator {
	e := &luaEvaluator{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *luaEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	if expression == "" {
		return nil, wrapEvaluatorError("lua", fmt.Errorf("expression must not be empty"))
	}
	chunk, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	return e.run(ctx.withDefaults(), expression, chunk)
}

func (e *luaEvaluator) Compile(expression string, _ ...CompileOption) (CompiledRule, error) {
	if expression == "" {
		return nil, wrapEvaluatorError("lua", fmt.Errorf("expression must not be empty"))
	}
	chunk, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	return &luaCompiledRule{evaluator: e, expression: expression, chunk: chunk}, nil
}

func (e *luaEvaluator) loadOrCompile(expression string) (string, error) {
	key := cacheKey("lua", expression)
	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			if chunk, ok := cached.(string); ok {
				return chunk, nil
			}
		}
	}
	chunk := "return (" + expression + ")"
	state := lua.NewState()
	if err := lua.LoadString(state, chunk); err != nil {
		return "", wrapEvaluationError("lua", expression, "", err)
	}
	if e.cache != nil {
		e.cache.Set(key, chunk)
	}
	return chunk, nil
}

func (e *luaEvaluator) run(ctx RuleContext, expression, chunk string) (any, error) {
	state := lua.NewState()
	lua.OpenLibraries(state)
	e.injectContext(state, ctx)

	if err := lua.LoadString(state, chunk); err != nil {
		return nil, wrapEvaluationError("lua", expression, ctx.fieldLabel(), err)
	}
	if err := state.ProtectedCall(0, 1, 0); err != nil {
		return nil, wrapEvaluationError("lua", expression, ctx.fieldLabel(), err)
	}
	value := luaToGo(state, -1)
	state.Pop(1)
	return value, nil
}

func (e *luaEvaluator) injectContext(state *lua.State, ctx RuleContext) {
	if e.registry != nil {
		for _, name := range e.registry.Names() {
			fn := name
			state.PushGoFunction(func(l *lua.State) int {
				return e.callRegistry(l, fn, 1)
			})
			state.SetGlobal(fn)
		}
		state.PushGoFunction(func(l *lua.State) int {
			name := lua.CheckString(l, 1)
			return e.callRegistry(l, name, 2)
		})
		state.SetGlobal("call")
	}
	for key, value := range snapshotAsMap(ctx.Snapshot) {
		if _, reserved := reservedBindings[key]; reserved {
			continue
		}
		pushGo(state, value)
		state.SetGlobal(key)
	}
	state.PushNumber(float64(ctx.timestamp().Unix()))
	state.SetGlobal("now")
	pushGo(state, ctx.Args)
	state.SetGlobal("args")
	pushGo(state, ctx.Metadata)
	state.SetGlobal("metadata")
}

// callRegistry calls name with the stack values starting at first and
// pushes the single result.
func (e *luaEvaluator) callRegistry(state *lua.State, name string, first int) int {
	top := state.Top()
	arguments := make([]any, 0, top)
	for index := first; index <= top; index++ {
		arguments = append(arguments, luaToGo(state, index))
	}
	result, err := e.registry.Call(name, arguments...)
	if err != nil {
		state.PushString(err.Error())
		state.Error()
		return 0
	}
	pushGo(state, result)
	return 1
}

type luaCompiledRule struct {
	evaluator  *luaEvaluator
	expression string
	chunk      string
}

func (r *luaCompiledRule) Evaluate(ctx RuleContext) (any, error) {
	if r.evaluator == nil {
		return nil, wrapEvaluatorError("lua", fmt.Errorf("compiled rule missing evaluator"))
	}
	return r.evaluator.run(ctx.withDefaults(), r.expression, r.chunk)
}

func pushGo(state *lua.State, value any) {
	switch v := value.(type) {
	case nil:
		state.PushNil()
	case bool:
		state.PushBoolean(v)
	case string:
		state.PushString(v)
	case int:
		state.PushInteger(v)
	case int32:
		state.PushInteger(int(v))
	case int64:
		state.PushInteger(int(v))
	case uint:
		state.PushNumber(float64(v))
	case uint64:
		state.PushNumber(float64(v))
	case float32:
		state.PushNumber(float64(v))
	case float64:
		state.PushNumber(v)
	case time.Time:
		state.PushNumber(float64(v.Unix()))
	case []string:
		state.CreateTable(len(v), 0)
		for i, item := range v {
			state.PushString(item)
			state.RawSetInt(-2, i+1)
		}
	case []any:
		state.CreateTable(len(v), 0)
		for i, item := range v {
			pushGo(state, item)
			state.RawSetInt(-2, i+1)
		}
	case map[string]any:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		state.CreateTable(0, len(v))
		for _, key := range keys {
			pushGo(state, v[key])
			state.SetField(-2, key)
		}
	case map[string]string:
		state.CreateTable(0, len(v))
		for key, item := range v {
			state.PushString(item)
			state.SetField(-2, key)
		}
	default:
		state.PushString(fmt.Sprint(v))
	}
}

func luaToGo(state *lua.State, index int) any {
	switch state.TypeOf(index) {
	case lua.TypeBoolean:
		return state.ToBoolean(index)
	case lua.TypeString:
		value, _ := state.ToString(index)
		return value
	case lua.TypeNumber:
		value, _ := state.ToNumber(index)
		if value == math.Trunc(value) && math.Abs(value) < 1<<53 {
			return int(value)
		}
		return value
	case lua.TypeTable:
		return tableToGo(state, index)
	default:
		return nil
	}
}

// tableToGo converts sequences with keys 1..n into []any and every other
// table into a map keyed by its string keys.
func tableToGo(state *lua.State, index int) any {
	index = state.AbsIndex(index)
	isArray := true
	maxIndex := 0
	count := 0
	state.PushNil()
	for state.Next(index) {
		if isArray {
			if state.TypeOf(-2) != lua.TypeNumber {
				isArray = false
			} else if idx, ok := state.ToInteger(-2); ok && idx > 0 {
				count++
				if idx > maxIndex {
					maxIndex = idx
				}
			} else {
				isArray = false
			}
		}
		state.Pop(1)
	}

	if isArray && count > 0 && count == maxIndex {
		items := make([]any, maxIndex)
		for i := 1; i <= maxIndex; i++ {
			state.RawGetInt(index, i)
			items[i-1] = luaToGo(state, -1)
			state.Pop(1)
		}
		return items
	}

	output := map[string]any{}
	state.PushNil()
	for state.Next(index) {
		if state.TypeOf(-2) == lua.TypeString {
			key, _ := state.ToString(-2)
			output[key] = luaToGo(state, -1)
		}
		state.Pop(1)
	}
	return output
}
