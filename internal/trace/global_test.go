package trace

import (
	"context"
	"errors"
	"testing"
)

func TestSetGlobalOnlyOnce(t *testing.T) {
	resetGlobal()
	t.Cleanup(resetGlobal)

	if Global() != Nop {
		t.Fatalf("unset global should be Nop")
	}
	first := &recorder{level: LevelTrace}
	if err := SetGlobal(first); err != nil {
		t.Fatal(err)
	}
	second := &recorder{level: LevelTrace}
	if err := SetGlobal(second); !errors.Is(err, ErrGlobalAlreadySet) {
		t.Fatalf("second SetGlobal = %v, want ErrGlobalAlreadySet", err)
	}
	if Global() != Tracer(first) {
		t.Fatalf("global tracer was replaced")
	}
	if err := SetGlobal(nil); err == nil {
		t.Fatalf("nil tracer accepted")
	}
}

func TestStartFallsBackToGlobal(t *testing.T) {
	resetGlobal()
	t.Cleanup(resetGlobal)

	rec := &recorder{level: LevelTrace}
	if err := SetGlobal(rec); err != nil {
		t.Fatal(err)
	}
	_, span := Start(context.Background(), LevelInfo, "global")
	span.End("")
	if n := len(rec.snapshot()); n != 2 {
		t.Fatalf("global tracer saw %d events, want 2", n)
	}
}
