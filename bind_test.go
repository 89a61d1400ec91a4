package params

import (
	"errors"
	"strings"
	"testing"
)

type personView struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	FullName  string `json:"fullName"`
}

func TestBindDecodesResolvedSnapshot(t *testing.T) {
	o := From(personSchema(t), map[string]any{"first_name": "Ada", "last_name": "Lovelace"})

	view, err := Bind[personView](o)
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	if view != (personView{FirstName: "Ada", LastName: "Lovelace", FullName: "Ada Lovelace"}) {
		t.Fatalf("unexpected view: %+v", view)
	}
}

func TestBindStrictRejectsUnknownFields(t *testing.T) {
	o := From(personSchema(t, Greedy(true)), map[string]any{"firstName": "Ada", "role": "admin"})

	if _, err := Bind[personView](o); err != nil {
		t.Fatalf("expected lenient bind, got %v", err)
	}
	_, err := BindStrict[personView](o)
	if err == nil || !strings.Contains(err.Error(), `schema "Person"`) {
		t.Fatalf("expected strict bind failure naming the schema, got %v", err)
	}
}

func TestBindHooks(t *testing.T) {
	o := From(personSchema(t), map[string]any{"firstName": "ada"})

	view, err := Bind(o,
		BindPrepare[personView](func(payload map[string]any) (map[string]any, error) {
			payload["firstName"] = strings.ToUpper(payload["firstName"].(string))
			return payload, nil
		}),
		BindCheck[personView](func(view *personView) error {
			view.LastName = "unknown"
			return nil
		}),
	)
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	if view.FirstName != "ADA" || view.LastName != "unknown" {
		t.Fatalf("unexpected view: %+v", view)
	}
	if o.Get("firstName") != "ada" {
		t.Fatalf("expected object untouched by bind hooks")
	}

	denied := errors.New("denied")
	_, err = Bind(o, BindCheck[personView](func(*personView) error { return denied }))
	if !errors.Is(err, denied) {
		t.Fatalf("expected check error, got %v", err)
	}

	if _, err := Bind[personView](nil); err == nil {
		t.Fatalf("expected nil object error")
	}
}

func TestBindUseNumber(t *testing.T) {
	o := New(MustDefine("Numbers", Field("count", 3)))
	out, err := Bind(o, BindUseNumber[map[string]any]())
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	if out["count"].(interface{ String() string }).String() != "3" {
		t.Fatalf("expected json.Number, got %T", out["count"])
	}
}
