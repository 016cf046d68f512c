// Package runctx carries per-run identity through a context.
package runctx

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type key int

const runKey key = 0

// Run identifies one invocation
type Run struct {
	ID        string
	StartTime time.Time
}

// New returns a context carrying a fresh Run.
func New(ctx context.Context) context.Context {
	return context.WithValue(ctx, runKey, &Run{
		ID:        newID(),
		StartTime: time.Now(),
	})
}

// From returns the Run carried by ctx, or a placeholder when there is none.
func From(ctx context.Context) *Run {
	if r, ok := ctx.Value(runKey).(*Run); ok {
		return r
	}
	return &Run{
		ID:        "unknown",
		StartTime: time.Now(),
	}
}

// UUIDv7 sorts by creation time, which keeps run ids in log order.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Error wraps an error with the run id
type Error struct {
	RunID string
	Err   error
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %v", e.RunID, e.Err)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap tags err with the run id from ctx.
func Wrap(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	return &Error{RunID: From(ctx).ID, Err: err}
}
