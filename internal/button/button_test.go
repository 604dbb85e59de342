package button

import (
	"bytes"
	"encoding/json"
	"testing"
)

type fakeCounter struct {
	Count int    `json:"count"`
	Label string `json:"label"`
}

func TestSetGetRoundTrip(t *testing.T) {
	b := New()

	if err := Set(b, "counter", fakeCounter{Count: 3, Label: "presses"}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, ok := Get[fakeCounter](b, "counter")
	if !ok {
		t.Fatal("Get: component not found")
	}
	if got.Count != 3 || got.Label != "presses" {
		t.Errorf("Get = %+v, want {3 presses}", got)
	}
}

func TestGetAbsentComponent(t *testing.T) {
	b := New()

	got, ok := Get[fakeCounter](b, "missing")
	if ok {
		t.Error("Get on absent component should return false")
	}
	if got.Count != 0 || got.Label != "" {
		t.Errorf("Get on absent component should return zero value, got %+v", got)
	}
}

func TestGetShapeMismatchIsQuietMiss(t *testing.T) {
	b := New()
	b.SetRaw("counter", json.RawMessage(`"definitely not a counter"`))

	if _, ok := Get[fakeCounter](b, "counter"); ok {
		t.Error("Get with mismatched shape should return false")
	}
	// The raw payload must survive untouched
	raw, ok := b.Component("counter")
	if !ok || string(raw) != `"definitely not a counter"` {
		t.Errorf("mismatched read must not perturb payload, got %s", raw)
	}
}

func TestComponentIsolation(t *testing.T) {
	b := New()
	payloadB := json.RawMessage(`{"keep":"me","intact":[1,2,3]}`)
	b.SetRaw("b", payloadB)

	before, _ := b.Component("b")

	// Churn component "a" in every way
	if err := Set(b, "a", fakeCounter{Count: 1}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := Set(b, "a", fakeCounter{Count: 2}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	b.Remove("a")

	after, ok := b.Component("b")
	if !ok {
		t.Fatal("component b disappeared")
	}
	if !bytes.Equal(before, after) {
		t.Errorf("component b changed: before %s, after %s", before, after)
	}
}

func TestRemove(t *testing.T) {
	b := New()
	b.SetRaw("x", json.RawMessage(`1`))

	if !b.Remove("x") {
		t.Error("Remove existing component should return true")
	}
	if b.Remove("x") {
		t.Error("Remove absent component should return false")
	}
	if b.Has("x") {
		t.Error("component should be gone after Remove")
	}
}

func TestExportIsDeepCopy(t *testing.T) {
	b := New()
	b.SetRaw("x", json.RawMessage(`{"v":1}`))

	raw := b.Export()
	b.SetRaw("x", json.RawMessage(`{"v":2}`))

	if string(raw["x"]) != `{"v":1}` {
		t.Errorf("export aliased live button: %s", raw["x"])
	}
}

func TestFromRawIsDeepWrap(t *testing.T) {
	raw := Raw{"x": json.RawMessage(`{"v":1}`)}
	b := FromRaw(raw)

	// Mutating the live button must not touch the raw source
	b.SetRaw("x", json.RawMessage(`{"v":2}`))
	if string(raw["x"]) != `{"v":1}` {
		t.Errorf("live mutation leaked into raw: %s", raw["x"])
	}
}

func TestSharedHandleVisibility(t *testing.T) {
	b := New()
	holderA := b // stack slot
	holderB := b // copy buffer

	holderA.SetRaw("x", json.RawMessage(`"from-a"`))

	got, ok := holderB.Component("x")
	if !ok || string(got) != `"from-a"` {
		t.Errorf("mutation through one holder not visible through another: %s", got)
	}
}

func TestNames(t *testing.T) {
	b := New()
	b.SetRaw("zeta", json.RawMessage(`1`))
	b.SetRaw("alpha", json.RawMessage(`1`))
	b.SetRaw("mid", json.RawMessage(`1`))

	names := b.Names()
	want := []string{"alpha", "mid", "zeta"}
	if len(names) != len(want) {
		t.Fatalf("Names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestRawClone(t *testing.T) {
	raw := Raw{"x": json.RawMessage(`{"v":1}`)}
	clone := raw.Clone()

	clone["x"][2] = 'X'
	if string(raw["x"]) != `{"v":1}` {
		t.Errorf("Clone aliased source: %s", raw["x"])
	}
}
