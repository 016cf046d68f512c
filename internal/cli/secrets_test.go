package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/law-makers/sismos/internal/secrets"
)

func useTempSecrets(t *testing.T) {
	t.Helper()
	prev := secretStore
	secretStore = secrets.NewFileStore(t.TempDir())
	t.Cleanup(func() { secretStore = prev })
}

func newTestCmd(stdin string) (*cobra.Command, *bytes.Buffer) {
	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader(stdin))
	return cmd, &out
}

func TestSecrets_SetShowDelete(t *testing.T) {
	useTempSecrets(t)
	dsn := "postgres://igp:hunter2@db:5432/sismos"

	cmd, out := newTestCmd("")
	require.NoError(t, runSecretsSet(cmd, []string{dsn}))
	assert.Contains(t, out.String(), "DSN stored in file")
	assert.NotContains(t, out.String(), "hunter2")

	cmd, out = newTestCmd("")
	require.NoError(t, runSecretsShow(cmd, nil))
	assert.Contains(t, out.String(), "postgres://****@db:5432/sismos")

	cmd, out = newTestCmd("")
	require.NoError(t, runSecretsDelete(cmd, nil))
	assert.Contains(t, out.String(), "DSN deleted")

	cmd, out = newTestCmd("")
	require.NoError(t, runSecretsShow(cmd, nil))
	assert.Contains(t, out.String(), "No DSN stored")
}

func TestSecrets_SetFromStdin(t *testing.T) {
	useTempSecrets(t)

	cmd, _ := newTestCmd("postgres://u:p@h/db\n")
	require.NoError(t, runSecretsSet(cmd, nil))

	got, err := secretStore.Get(secrets.DSNKey)
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@h/db", got)
}

func TestSecrets_SetRejectsEmpty(t *testing.T) {
	useTempSecrets(t)

	cmd, _ := newTestCmd("   \n")
	assert.Error(t, runSecretsSet(cmd, nil))
}

func TestSkipsApp(t *testing.T) {
	assert.True(t, skipsApp(secretsSetCmd))
	assert.False(t, skipsApp(runCmd))
	assert.False(t, skipsApp(serveCmd))
}
