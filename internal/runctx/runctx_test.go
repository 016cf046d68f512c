package runctx

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestNewAndFrom(t *testing.T) {
	ctx := New(context.Background())
	run := From(ctx)
	if run.ID == "" || run.ID == "unknown" {
		t.Fatalf("expected generated id, got %q", run.ID)
	}
	if From(ctx) != run {
		t.Error("From should return the same run")
	}
	if other := From(New(context.Background())); other.ID == run.ID {
		t.Error("run ids must differ")
	}
}

func TestFrom_Missing(t *testing.T) {
	if got := From(context.Background()).ID; got != "unknown" {
		t.Errorf("got %q", got)
	}
}

func TestWrap(t *testing.T) {
	ctx := New(context.Background())
	base := errors.New("boom")

	err := Wrap(ctx, base)
	if !errors.Is(err, base) {
		t.Error("wrapped error must unwrap to base")
	}
	if !strings.HasPrefix(err.Error(), "["+From(ctx).ID+"]") {
		t.Errorf("unexpected message %q", err.Error())
	}
	if Wrap(ctx, nil) != nil {
		t.Error("Wrap(nil) must be nil")
	}
}
