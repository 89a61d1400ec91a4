package params

import (
	"reflect"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/goliatone/go-params/rules"
)

type countingFactory struct {
	calls atomic.Int32
	inner ValidatorFactory
	last  map[string]any
}

func (f *countingFactory) Make(data map[string]any, table RuleTable, messages MessageTable) Validator {
	f.calls.Add(1)
	f.last = data
	return f.inner.Make(data, table, messages)
}

func adultSchema(opts ...SchemaOption) *Schema {
	base := []SchemaOption{
		Field("name", ""),
		Field("age", 0),
		Rules(RuleTable{
			"name": "required(value)",
			"age":  []any{"value >= 18"},
		}),
		Messages(MessageTable{"age.0": "You must be an adult."}),
	}
	return MustDefine("Adult", append(base, opts...)...)
}

func TestValidationReportsEngineResult(t *testing.T) {
	o := From(adultSchema(), map[string]any{"name": "", "age": 15})

	if !o.Fails() || o.Passes() {
		t.Fatalf("expected validation to fail")
	}
	want := map[string][]string{
		"name": {"The name field is invalid."},
		"age":  {"You must be an adult."},
	}
	if got := o.Errors(); !reflect.DeepEqual(want, got) {
		t.Fatalf("errors mismatch:\nwant: %#v\n got: %#v", want, got)
	}

	ok := From(adultSchema(), map[string]any{"name": "Ada", "age": 36})
	if ok.Fails() {
		t.Fatalf("expected validation to pass, got %v", ok.Errors())
	}
	if errs := ok.Errors(); errs == nil || len(errs) != 0 {
		t.Fatalf("expected empty errors map, got %#v", errs)
	}
}

func TestValidatorIsMemoized(t *testing.T) {
	factory := &countingFactory{inner: DefaultValidatorFactory()}
	o := From(adultSchema(), map[string]any{"name": "Ada", "age": 10}, WithValidatorFactory(factory))

	if o.Validated() {
		t.Fatalf("expected object to start unvalidated")
	}
	first := o.Fails()
	o.Set("age", 40)
	second := o.Fails()

	if first != second || !second {
		t.Fatalf("expected memoized failure, got %v then %v", first, second)
	}
	if factory.calls.Load() != 1 || !o.Validated() {
		t.Fatalf("expected one validator build, got %d", factory.calls.Load())
	}
	if o.Validator() != o.Validator() {
		t.Fatalf("expected the same validator instance")
	}
	if factory.last["age"] != 10 {
		t.Fatalf("expected data frozen at first validation, got %v", factory.last["age"])
	}
}

func TestValidationOnceUnderConcurrency(t *testing.T) {
	factory := &countingFactory{inner: DefaultValidatorFactory()}
	validation := NewValidation(New(adultSchema()), factory)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = validation.Fails()
		}()
	}
	wg.Wait()

	if factory.calls.Load() != 1 {
		t.Fatalf("expected exactly one build, got %d", factory.calls.Load())
	}
}

type staticProvider struct {
	data map[string]any
}

func (p staticProvider) Data() map[string]any { return p.data }
func (staticProvider) Rules() RuleTable       { return RuleTable{"code": "len(value) == 3"} }
func (staticProvider) Messages() MessageTable { return nil }

func TestWithProviderReplacesObjectData(t *testing.T) {
	o := New(adultSchema(), WithProvider(staticProvider{data: map[string]any{"code": "abcd"}}))
	errs := o.Errors()
	if len(errs["code"]) != 1 || len(errs["name"]) != 0 {
		t.Fatalf("expected provider rules to apply, got %#v", errs)
	}
}

func TestRulesFuncDerivesTablesFromState(t *testing.T) {
	schema := MustDefine("Account",
		Field("kind", "person"),
		Field("company", ""),
		RulesFunc(func(o *Object) RuleTable {
			if o.Get("kind") == "company" {
				return RuleTable{"company": "required(value)"}
			}
			return nil
		}),
		MessagesFunc(func(o *Object) MessageTable {
			return MessageTable{"company": "A company account needs a company name."}
		}),
	)

	if From(schema, map[string]any{"kind": "person"}).Fails() {
		t.Fatalf("expected person accounts to pass")
	}
	company := From(schema, map[string]any{"kind": "company"})
	if got := company.Errors()["company"]; !reflect.DeepEqual([]string{"A company account needs a company name."}, got) {
		t.Fatalf("unexpected company errors: %v", got)
	}
}

func TestTablesOptionFromYAML(t *testing.T) {
	tables, err := rules.ParseTables([]byte(`
rules:
  contact: "email(value)"
messages:
  contact: "The :attribute must be an address."
`))
	if err != nil {
		t.Fatalf("parse tables: %v", err)
	}
	schema := MustDefine("Invite", Field("contact", "nope"), Tables(tables))

	got := New(schema).Errors()
	if !reflect.DeepEqual(map[string][]string{"contact": {"The contact must be an address."}}, got) {
		t.Fatalf("unexpected errors: %#v", got)
	}
	if New(schema).Rules()["contact"] != "email(value)" {
		t.Fatalf("expected schema rules exposed")
	}
}

func TestFactoryEdgeCases(t *testing.T) {
	nilValidator := ValidatorFactoryFunc(func(map[string]any, RuleTable, MessageTable) Validator { return nil })
	o := New(adultSchema(), WithValidatorFactory(nilValidator))
	if o.Fails() || len(o.Errors()) != 0 {
		t.Fatalf("expected a nil validator to pass")
	}

	var empty ValidatorFactoryFunc
	if empty.Make(nil, nil, nil).Fails() {
		t.Fatalf("expected nil factory func to pass")
	}

	if NewValidation(nil, nil).Fails() {
		t.Fatalf("expected validation without provider to pass")
	}

	custom := RulesFactory(rules.NewEngine(rules.WithArgs(map[string]any{"minimum": 50})))
	limited := From(adultSchema(Rules(RuleTable{"age": "value >= args.minimum"})), map[string]any{"age": 40}, WithValidatorFactory(custom))
	if !limited.Fails() {
		t.Fatalf("expected engine args to apply")
	}
}

func TestFactoryForEngine(t *testing.T) {
	cel, err := FactoryForEngine("CEL")
	if err != nil {
		t.Fatalf("cel factory: %v", err)
	}
	again, _ := FactoryForEngine("cel")
	if cel != again {
		t.Fatalf("expected the cel factory to be shared")
	}
	o := From(adultSchema(Rules(RuleTable{"age": "value >= 18"})), map[string]any{"age": 12}, WithValidatorFactory(cel))
	if !o.Fails() {
		t.Fatalf("expected cel validation to fail")
	}

	if _, err := FactoryForEngine("ruby"); err == nil {
		t.Fatalf("expected unknown engine error")
	}
	if def, _ := FactoryForEngine(""); def == nil {
		t.Fatalf("expected default factory")
	}
}
