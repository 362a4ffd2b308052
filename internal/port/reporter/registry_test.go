package reporter

import (
	"context"
	"slices"
	"testing"

	"github.com/Strob0t/runhooks/internal/domain/hook"
)

type stubReporter struct{ t hook.Type }

func (s stubReporter) Type() hook.Type                                    { return s.t }
func (s stubReporter) Report(context.Context, *hook.Hook, *hook.RunEvent) {}

func TestRegisterAndNew(t *testing.T) {
	const typ hook.Type = "registry-test"
	Register(typ, func(Deps) Reporter { return stubReporter{t: typ} })

	r, err := New(typ, Deps{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if r.Type() != typ {
		t.Fatalf("expected %q, got %q", typ, r.Type())
	}
	if !slices.Contains(Available(), typ) {
		t.Fatalf("expected %q in Available()", typ)
	}
	if _, ok := NewAll(Deps{})[typ]; !ok {
		t.Fatalf("expected %q in NewAll()", typ)
	}
}

func TestNewUnknown(t *testing.T) {
	if _, err := New("does-not-exist", Deps{}); err == nil {
		t.Fatal("expected error for unknown type")
	}
}

func TestDuplicateRegisterPanics(t *testing.T) {
	const typ hook.Type = "registry-dup"
	Register(typ, func(Deps) Reporter { return stubReporter{t: typ} })

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate registration")
		}
	}()
	Register(typ, func(Deps) Reporter { return stubReporter{t: typ} })
}
