// Package test provides shared helpers for package tests.
package test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dagr-org/dagr/internal/config"
	"github.com/dagr-org/dagr/internal/dagbag"
	"github.com/dagr-org/dagr/internal/persistence/sqldag"
	"github.com/dagr-org/dagr/internal/registry"
)

// Setup bundles the temp-dir backed dependencies for a test.
type Setup struct {
	Config  *config.Config
	Store   *sqldag.Store
	Bag     *dagbag.Bag
	Service *registry.Service

	tmpDir string
}

// Cleanup releases the store and removes the temp directory.
func (s Setup) Cleanup() {
	_ = s.Store.Close()
	_ = os.RemoveAll(s.tmpDir)
}

// DAGsDir returns the directory scanned by the definition bag.
func (s Setup) DAGsDir() string {
	return s.Config.DAGsDir
}

// WriteDAG writes a DAG definition file into the DAGs directory.
func (s Setup) WriteDAG(t *testing.T, name, spec string) {
	t.Helper()
	err := os.WriteFile(filepath.Join(s.Config.DAGsDir, name+".yaml"), []byte(spec), 0600)
	require.NoError(t, err)
}

// RemoveDAG deletes a DAG definition file from the DAGs directory.
func (s Setup) RemoveDAG(t *testing.T, name string) {
	t.Helper()
	err := os.Remove(filepath.Join(s.Config.DAGsDir, name+".yaml"))
	require.NoError(t, err)
}

// SetupTest creates a fresh store, bag and registry service backed by a
// temp directory.
func SetupTest(t *testing.T) Setup {
	t.Helper()

	tmpDir := t.TempDir()
	dagsDir := filepath.Join(tmpDir, "dags")
	require.NoError(t, os.MkdirAll(dagsDir, 0750))

	cfg := &config.Config{
		Host:         "127.0.0.1",
		Port:         0,
		DAGsDir:      dagsDir,
		DataDir:      tmpDir,
		DatabasePath: filepath.Join(tmpDir, "dagr.db"),
		LogFormat:    "text",
	}

	store, err := sqldag.New(cfg.DatabasePath)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})

	bag := dagbag.New(dagsDir)
	service := registry.New(store, store, bag)

	return Setup{
		Config:  cfg,
		Store:   store,
		Bag:     bag,
		Service: service,
		tmpDir:  tmpDir,
	}
}
