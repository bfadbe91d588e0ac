package registry

import (
	"fmt"
	"testing"
)

func TestRegister(t *testing.T) {
	tests := []struct {
		name     string
		itemName string
		wantErr  bool
	}{
		{"valid name", "alpha", false},
		{"empty name", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewBaseRegistry[int]()
			err := r.Register(tt.itemName, 1)
			if (err != nil) != tt.wantErr {
				t.Errorf("Register() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRegisterDuplicate(t *testing.T) {
	r := NewBaseRegistry[string]()
	if err := r.Register("a", "first"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := r.Register("a", "second"); err == nil {
		t.Error("Register() expected error for duplicate name")
	}
	got, _ := r.Get("a")
	if got != "first" {
		t.Errorf("Get() = %q, want %q", got, "first")
	}
}

func TestSetReplacePreservesOrder(t *testing.T) {
	r := NewBaseRegistry[int]()
	for i, name := range []string{"a", "b", "c"} {
		if replaced := r.Set(name, i); replaced {
			t.Errorf("Set(%q) replaced = true, want false", name)
		}
	}

	if replaced := r.Set("b", 99); !replaced {
		t.Error("Set() replaced = false, want true")
	}

	want := []string{"a", "b", "c"}
	got := r.Names()
	if len(got) != len(want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	v, ok := r.Get("b")
	if !ok || v != 99 {
		t.Errorf("Get(b) = %d, %v; want 99, true", v, ok)
	}
}

func TestListInsertionOrder(t *testing.T) {
	r := NewBaseRegistry[string]()
	for i := 0; i < 5; i++ {
		name := fmt.Sprintf("item-%d", i)
		if err := r.Register(name, name); err != nil {
			t.Fatalf("Register() error = %v", err)
		}
	}

	items := r.List()
	if len(items) != 5 {
		t.Fatalf("List() len = %d, want 5", len(items))
	}
	for i, item := range items {
		want := fmt.Sprintf("item-%d", i)
		if item != want {
			t.Errorf("List()[%d] = %q, want %q", i, item, want)
		}
	}
}

func TestRemove(t *testing.T) {
	r := NewBaseRegistry[int]()
	_ = r.Register("a", 1)
	_ = r.Register("b", 2)

	if err := r.Remove("a"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if err := r.Remove("a"); err == nil {
		t.Error("Remove() expected error for missing item")
	}
	if got := r.Names(); len(got) != 1 || got[0] != "b" {
		t.Errorf("Names() = %v, want [b]", got)
	}
	if r.Count() != 1 {
		t.Errorf("Count() = %d, want 1", r.Count())
	}
}

func TestClear(t *testing.T) {
	r := NewBaseRegistry[int]()
	_ = r.Register("a", 1)
	r.Clear()
	if r.Count() != 0 {
		t.Errorf("Count() = %d, want 0", r.Count())
	}
	if len(r.Names()) != 0 {
		t.Errorf("Names() = %v, want empty", r.Names())
	}
}
