package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rescribe/internal/envfile"
)

// pinEnvFile points the .env lookup at the given content in a temp dir.
func pinEnvFile(t *testing.T, content string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv(envfile.PathOverride, path)
}

// unsetAPIKey removes the key for this test; t.Setenv restores whatever
// was there before once the test ends.
func unsetAPIKey(t *testing.T) {
	t.Helper()
	t.Setenv(EnvAPIKey, "")
	require.NoError(t, os.Unsetenv(EnvAPIKey))
}

func TestResolveAPIKey_FromEnvironment(t *testing.T) {
	pinEnvFile(t, "")
	t.Setenv(EnvAPIKey, "sk-abc123")

	key, err := resolveAPIKey()
	require.NoError(t, err)
	assert.Equal(t, "sk-abc123", key)
}

func TestResolveAPIKey_NormalizesPrefix(t *testing.T) {
	pinEnvFile(t, "")
	t.Setenv(EnvAPIKey, "abc123")

	key, err := resolveAPIKey()
	require.NoError(t, err)
	assert.Equal(t, "sk-abc123", key)
}

func TestResolveAPIKey_TrimsWhitespace(t *testing.T) {
	pinEnvFile(t, "")
	t.Setenv(EnvAPIKey, "  sk-abc123\n")

	key, err := resolveAPIKey()
	require.NoError(t, err)
	assert.Equal(t, "sk-abc123", key)
}

func TestResolveAPIKey_Missing(t *testing.T) {
	pinEnvFile(t, "")
	unsetAPIKey(t)

	_, err := resolveAPIKey()
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvAPIKey)
}

func TestResolveAPIKey_FromEnvFile(t *testing.T) {
	pinEnvFile(t, EnvAPIKey+"=sk-from-file\n")
	unsetAPIKey(t)

	key, err := resolveAPIKey()
	require.NoError(t, err)
	assert.Equal(t, "sk-from-file", key)
}

func TestResolveAPIKey_EnvironmentWinsOverFile(t *testing.T) {
	pinEnvFile(t, EnvAPIKey+"=sk-from-file\n")
	t.Setenv(EnvAPIKey, "sk-from-shell")

	key, err := resolveAPIKey()
	require.NoError(t, err)
	assert.Equal(t, "sk-from-shell", key)
}
