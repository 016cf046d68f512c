package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/law-makers/sismos/internal/app"
)

type ctxKey struct{}

// withApp stores the Application in the command's context
func withApp(cmd *cobra.Command, a *app.Application) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, ctxKey{}, a))
}

// appFrom retrieves the Application stored by withApp, or nil.
func appFrom(cmd *cobra.Command) *app.Application {
	if cmd == nil || cmd.Context() == nil {
		return nil
	}
	a, _ := cmd.Context().Value(ctxKey{}).(*app.Application)
	return a
}
