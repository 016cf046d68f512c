package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/law-makers/sismos/internal/secrets"
	"github.com/law-makers/sismos/internal/ui"
)

// secretStore is swapped in tests.
var secretStore = secrets.New("")

// secretsCmd represents the secrets command
var secretsCmd = &cobra.Command{
	Use:   "secrets",
	Short: "Manage the stored database connection string",
	Long: `Stores the Postgres DSN used by the table sink in your OS keyring, so it
does not have to be passed on the command line.

When no keyring is reachable (CI, containers) the DSN is kept in a
0600 file under ~/.sismos instead.`,
	Example: `  # Store the DSN (read from stdin when omitted)
  sismos secrets set postgres://user:pass@db:5432/igp

  # Show the stored DSN with the credentials masked
  sismos secrets show

  # Remove it
  sismos secrets delete`,
	Annotations: map[string]string{skipAppAnnotation: "true"},
}

var secretsSetCmd = &cobra.Command{
	Use:   "set [dsn]",
	Short: "Store the database DSN",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSecretsSet,
}

var secretsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the stored DSN, masked",
	Args:  cobra.NoArgs,
	RunE:  runSecretsShow,
}

var secretsDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the stored DSN",
	Args:  cobra.NoArgs,
	RunE:  runSecretsDelete,
}

func init() {
	rootCmd.AddCommand(secretsCmd)
	secretsCmd.AddCommand(secretsSetCmd)
	secretsCmd.AddCommand(secretsShowCmd)
	secretsCmd.AddCommand(secretsDeleteCmd)
}

func runSecretsSet(cmd *cobra.Command, args []string) error {
	var dsn string
	if len(args) == 1 {
		dsn = args[0]
	} else {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("failed to read DSN: %w", err)
		}
		dsn = line
	}
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return fmt.Errorf("empty DSN")
	}

	if err := secretStore.Set(secrets.DSNKey, dsn); err != nil {
		return fmt.Errorf("failed to store DSN: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s DSN stored in %s (%s)\n", ui.Success("✓"), secretStore.Backend(), secrets.Mask(dsn))
	return nil
}

func runSecretsShow(cmd *cobra.Command, args []string) error {
	dsn, err := secretStore.Get(secrets.DSNKey)
	if errors.Is(err, secrets.ErrNotFound) {
		fmt.Fprintln(cmd.OutOrStdout(), "No DSN stored.")
		fmt.Fprintf(cmd.OutOrStdout(), "\nStore one with:\n  sismos secrets set <dsn>\n")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read DSN: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", secrets.Mask(dsn), secretStore.Backend())
	return nil
}

func runSecretsDelete(cmd *cobra.Command, args []string) error {
	if err := secretStore.Delete(secrets.DSNKey); err != nil {
		return fmt.Errorf("failed to delete DSN: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s DSN deleted\n", ui.Success("✓"))
	return nil
}
