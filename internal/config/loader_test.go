package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 8090, cfg.Port)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.False(t, cfg.Debug)
	assert.NotEmpty(t, cfg.DAGsDir)
	assert.Equal(t, filepath.Join(cfg.DataDir, "dagr.db"), cfg.DatabasePath)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("DAGR_PORT", "9999")
	t.Setenv("DAGR_HOST", "0.0.0.0")
	t.Setenv("DAGR_LOGFORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Port)
	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "dagr.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte(`
host: 10.0.0.1
port: 7070
dagsDir: `+filepath.Join(tmpDir, "dags")+`
dataDir: `+tmpDir+`
auth:
  basic:
    enabled: true
  users:
    - username: alice
      password: secret
      role: operator
      dags: ["etl"]
`), 0600))

	cfg, err := Load(WithConfigFile(configFile))
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.1", cfg.Host)
	assert.Equal(t, 7070, cfg.Port)
	assert.Equal(t, "10.0.0.1:7070", cfg.Addr())
	assert.Equal(t, filepath.Join(tmpDir, "dagr.db"), cfg.DatabasePath)

	require.True(t, cfg.Auth.Basic.Enabled)
	require.Len(t, cfg.Auth.Users, 1)

	principal, err := cfg.Auth.Users[0].Principal()
	require.NoError(t, err)
	assert.Equal(t, "alice", principal.Username)
	assert.Equal(t, []string{"etl"}, principal.DAGs)
}

func TestLoadBadConfigFile(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "dagr.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("host: [not: valid"), 0600))

	_, err := Load(WithConfigFile(configFile))
	assert.Error(t, err)
}

func TestAuthUserPrincipalInvalidRole(t *testing.T) {
	_, err := AuthUser{Username: "bob", Role: "superuser"}.Principal()
	assert.Error(t, err)
}
