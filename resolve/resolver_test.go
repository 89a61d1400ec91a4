package resolve

import (
	"reflect"
	"testing"
)

type slotOwner struct {
	values map[string]any
	order  []string
	reads  int
}

func newSlotOwner() *slotOwner {
	return &slotOwner{values: map[string]any{}}
}

func (o *slotOwner) Slot(name string) (any, bool) {
	o.reads++
	value, ok := o.values[name]
	return value, ok
}

func (o *slotOwner) SetSlot(name string, value any) {
	if _, ok := o.values[name]; !ok {
		o.order = append(o.order, name)
	}
	o.values[name] = value
}

func (o *slotOwner) SlotNames() []string {
	return append([]string(nil), o.order...)
}

func TestGetterName(t *testing.T) {
	cases := map[string]string{
		"fullName": "getFullNameAttr",
		"x":        "getXAttr",
		"":         "getAttr",
		"éclair":   "getÉclairAttr",
		"Already":  "getAlreadyAttr",
	}
	for field, want := range cases {
		if got := GetterName(field); got != want {
			t.Fatalf("GetterName(%q): want %q got %q", field, want, got)
		}
	}
}

func TestReadPrefersComputedAccessor(t *testing.T) {
	r := New[*slotOwner]()
	r.Register("total", func(o *slotOwner) any {
		price, _ := o.values["price"].(int)
		qty, _ := o.values["qty"].(int)
		return price * qty
	})

	owner := newSlotOwner()
	r.Write(owner, "price", 3)
	r.Write(owner, "qty", 4)
	r.Write(owner, "total", 999)

	got, ok := r.Read(owner, "total")
	if !ok || got != 12 {
		t.Fatalf("expected computed total 12, got %v (ok=%v)", got, ok)
	}
	if stored := owner.values["total"]; stored != 999 {
		t.Fatalf("expected write to leave stored slot untouched by getter, got %v", stored)
	}
}

func TestReadAbsentFieldIsNotAnError(t *testing.T) {
	r := New[*slotOwner]()
	owner := newSlotOwner()

	got, ok := r.Read(owner, "missing")
	if ok || got != nil {
		t.Fatalf("expected absent field to yield (nil, false), got (%v, %v)", got, ok)
	}
}

func TestRegisterIgnoresNilGetter(t *testing.T) {
	r := New[*slotOwner]()
	r.Register("name", nil)
	if r.HasGetter("name") {
		t.Fatalf("expected nil getter to be ignored")
	}

	var nilResolver *Resolver[*slotOwner]
	if nilResolver.HasGetter("name") {
		t.Fatalf("expected nil resolver to report no getters")
	}
}

func TestFieldNamesExcludesAndKeepsOrder(t *testing.T) {
	r := New[*slotOwner]()
	owner := newSlotOwner()
	for _, name := range []string{"b", "logTag", "a", "c"} {
		r.Write(owner, name, nil)
	}

	got := r.FieldNames(owner, NewSet("logTag", "c"))
	want := []string{"b", "a"}
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("field names mismatch:\nwant: %v\n got: %v", want, got)
	}

	all := r.FieldNames(owner, nil)
	if len(all) != 4 {
		t.Fatalf("expected nil exclusion set to keep every field, got %v", all)
	}
}

func TestSetUnionAndNames(t *testing.T) {
	base := NewSet("b", "a")
	merged := base.Union(NewSet("c"), nil)
	if !reflect.DeepEqual([]string{"a", "b", "c"}, merged.Names()) {
		t.Fatalf("unexpected union: %v", merged.Names())
	}
	if base.Has("c") {
		t.Fatalf("expected union to leave the receiver untouched")
	}
	base.Add("d")
	if !base.Has("d") {
		t.Fatalf("expected Add to insert member")
	}
}
