package screen

import (
	"encoding/json"
	"testing"

	"github.com/nerrad567/keydeck-core/internal/button"
)

func TestFromRawExportRoundTrip(t *testing.T) {
	raw := RawPanel{
		DisplayName: "root",
		Tag:         json.RawMessage(`{"folder":"home"}`),
		Buttons: map[int]button.Raw{
			0: {"renderer": json.RawMessage(`{"to_cache":true}`)},
			3: {"clock": json.RawMessage(`{"format":"15:04"}`)},
		},
	}

	p := FromRaw(raw)
	out := p.Export()

	if out.DisplayName != "root" {
		t.Errorf("DisplayName = %q, want root", out.DisplayName)
	}
	if string(out.Tag) != `{"folder":"home"}` {
		t.Errorf("Tag = %s", out.Tag)
	}
	if len(out.Buttons) != 2 {
		t.Fatalf("Buttons len = %d, want 2", len(out.Buttons))
	}
	if string(out.Buttons[3]["clock"]) != `{"format":"15:04"}` {
		t.Errorf("button 3 clock = %s", out.Buttons[3]["clock"])
	}
}

func TestFromRawDoesNotAliasSource(t *testing.T) {
	raw := RawPanel{
		DisplayName: "root",
		Buttons: map[int]button.Raw{
			0: {"x": json.RawMessage(`{"v":1}`)},
		},
	}

	p := FromRaw(raw)
	b, _ := p.Button(0)
	b.SetRaw("x", json.RawMessage(`{"v":2}`))

	if string(raw.Buttons[0]["x"]) != `{"v":1}` {
		t.Errorf("live mutation leaked into raw source: %s", raw.Buttons[0]["x"])
	}
}

func TestSetButtonReturnsPrevious(t *testing.T) {
	p := NewPanel("p")
	first := button.New()
	second := button.New()

	if _, replaced := p.SetButton(0, first); replaced {
		t.Error("first SetButton should not report replacement")
	}
	prev, replaced := p.SetButton(0, second)
	if !replaced || prev != first {
		t.Error("second SetButton should return the displaced handle")
	}
}

func TestRemoveButton(t *testing.T) {
	p := NewPanel("p")
	b := button.New()
	p.SetButton(2, b)

	got, ok := p.RemoveButton(2)
	if !ok || got != b {
		t.Error("RemoveButton should return the removed handle")
	}
	if _, ok := p.RemoveButton(2); ok {
		t.Error("RemoveButton on empty key should report false")
	}
}

func TestKeysSorted(t *testing.T) {
	p := NewPanel("p")
	for _, key := range []int{7, 0, 3} {
		p.SetButton(key, button.New())
	}

	keys := p.Keys()
	want := []int{0, 3, 7}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("Keys = %v, want %v", keys, want)
		}
	}
}

func TestSharedButtonAcrossHolders(t *testing.T) {
	// The same live button is reachable from a panel slot and from a
	// transient holder (copy buffer); a mutation through one is visible
	// through the other.
	p := NewPanel("p")
	b := button.New()
	p.SetButton(0, b)

	copyBuffer := b
	copyBuffer.SetRaw("marker", json.RawMessage(`"set-via-buffer"`))

	fromPanel, _ := p.Button(0)
	got, ok := fromPanel.Component("marker")
	if !ok || string(got) != `"set-via-buffer"` {
		t.Errorf("shared handle mutation not visible: %s", got)
	}
}

func TestRawPanelJSONRoundTrip(t *testing.T) {
	raw := RawPanel{
		DisplayName: "root",
		Buttons: map[int]button.Raw{
			5: {"x": json.RawMessage(`true`)},
		},
	}

	data, err := json.Marshal(raw)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var back RawPanel
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if string(back.Buttons[5]["x"]) != `true` {
		t.Errorf("round-trip lost button payload: %+v", back)
	}
}
