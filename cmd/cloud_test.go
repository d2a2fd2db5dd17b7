package cmd

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sebasmos/bentoml-cli/internal/cloudconfig"
)

// seedStore writes contexts into a temp BENTOML_HOME and points the process at it.
func seedStore(t *testing.T, contexts ...cloudconfig.Context) *cloudconfig.Store {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("BENTOML_HOME", dir)

	store := cloudconfig.NewStore(dir)
	for _, ctx := range contexts {
		require.NoError(t, store.AddContext(ctx))
	}
	return store
}

func TestListContextOrder(t *testing.T) {
	seedStore(t,
		cloudconfig.Context{Name: "default", Endpoint: "https://x.io"},
		cloudconfig.Context{Name: "staging", Endpoint: "https://staging.x.io"},
	)

	output, err := executeCommand(t, "cloud", "list-context")
	require.NoError(t, err)

	var names []string
	require.NoError(t, json.Unmarshal([]byte(output), &names))
	assert.Equal(t, []string{"default", "staging"}, names)
}

func TestCurrentContextIncludesToken(t *testing.T) {
	seedStore(t, cloudconfig.Context{
		Name: "default", Endpoint: "https://x.io", APIToken: "tok1", Email: "a@b.com",
	})

	output, err := executeCommand(t, "cloud", "current-context")
	require.NoError(t, err)

	var ctx cloudconfig.Context
	require.NoError(t, json.Unmarshal([]byte(output), &ctx))
	assert.Equal(t, "default", ctx.Name)
	assert.Equal(t, "tok1", ctx.APIToken)
	assert.Equal(t, "a@b.com", ctx.Email)
}

func TestCurrentContextEmptyStore(t *testing.T) {
	seedStore(t)

	_, err := executeCommand(t, "cloud", "current-context")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context not found")
}

func TestUpdateCurrentContext(t *testing.T) {
	store := seedStore(t,
		cloudconfig.Context{Name: "default"},
		cloudconfig.Context{Name: "staging"},
	)

	output, err := executeCommand(t, "cloud", "update-current-context", "default")
	require.NoError(t, err)
	assert.Contains(t, output, "Successfully switched to context: default")

	reloaded := cloudconfig.NewStore(filepath.Dir(store.Path()))
	current, err := reloaded.GetCurrentContext()
	require.NoError(t, err)
	assert.Equal(t, "default", current.Name)
}

func TestUpdateCurrentContextNotFound(t *testing.T) {
	seedStore(t, cloudconfig.Context{Name: "default"})

	_, err := executeCommand(t, "cloud", "update-current-context", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context not found")
}
