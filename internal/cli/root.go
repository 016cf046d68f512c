// Package cli implements the sismos command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/law-makers/sismos/internal/app"
	"github.com/law-makers/sismos/internal/config"
	"github.com/law-makers/sismos/internal/ui"
)

// Version is overridden at build time with -ldflags.
var Version = "0.1.0"

// skipAppAnnotation marks commands that run without an Application.
const skipAppAnnotation = "sismos/skip-app"

// ExitError carries a process exit code without an error message.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sismos",
	Short: "Scrape the IGP list of reported earthquakes",
	Long: `Sismos fetches the "sismos reportados" page of the Instituto Geofisico del Peru,
extracts every earthquake report in its table and stores the records.

The page is fetched over plain HTTP first; when the table is rendered by
client-side scripts the scraper falls back to headless Chrome.

Records go to a timestamped JSON file (a local directory or a GCS bucket)
or replace the contents of a Postgres table.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	return ExecuteContext(context.Background())
}

// ExecuteContext is Execute with a caller-controlled context, cancelled on
// interrupt by main.
func ExecuteContext(ctx context.Context) int {
	cmd, err := rootCmd.ExecuteContextC(ctx)
	closeApp(cmd)
	if err == nil {
		return 0
	}
	var exit *ExitError
	if errors.As(err, &exit) {
		return exit.Code
	}
	fmt.Fprintf(os.Stderr, "%s %v\n", ui.Error("Error:"), err)
	return 1
}

func init() {
	// Lazily initialize the application before running commands (avoid starting app for -h/help)
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if appFrom(cmd) != nil {
			return nil
		}

		cfg, err := config.Load(cmd)
		if skipsApp(cmd) {
			if err != nil {
				log.Warn().Err(err).Msg("failed to load configuration, using defaults")
				cfg = config.Default()
			}
			app.ConfigureLogging(cfg, os.Stderr)
			return nil
		}
		if err != nil {
			return err
		}

		a, err := app.New(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		withApp(cmd, a)
		return nil
	}
}

// closeApp releases the Application of the command that ran, also when its
// RunE failed and cobra skipped the post-run hooks.
func closeApp(cmd *cobra.Command) {
	a := appFrom(cmd)
	if a == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), a.Config.HTTPTimeout)
	defer cancel()
	if err := a.Close(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to close application")
	}
}

func init() {
	config.RegisterFlags(rootCmd)

	rootCmd.Flags().BoolP("help", "h", false, "Help for sismos")
	rootCmd.Flags().Bool("version", false, "Version for sismos")

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetHelpFunc(customHelpFunc)
	rootCmd.SetUsageFunc(customUsageFunc)
}

func skipsApp(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[skipAppAnnotation] == "true" {
			return true
		}
	}
	return false
}
