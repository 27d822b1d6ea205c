package dagbag

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDAG(t *testing.T, dir, name, spec string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".yaml"), []byte(spec), 0600))
}

func TestBag_GetDAG(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tmpDir := t.TempDir()
	writeDAG(t, tmpDir, "etl", `
tags: [etl]
steps:
  - name: s1
    command: echo hello
`)

	bag := New(tmpDir)

	dag, ok := bag.GetDAG(ctx, "etl")
	require.True(t, ok)
	assert.Equal(t, "etl", dag.Name)
	assert.Len(t, dag.Steps, 1)

	_, ok = bag.GetDAG(ctx, "missing")
	assert.False(t, ok)
}

func TestBag_GetDAGUnparsable(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tmpDir := t.TempDir()
	writeDAG(t, tmpDir, "broken", `
steps:
  - name: s1
    command: "true"
    depends: [nope]
`)

	bag := New(tmpDir)

	// A file that fails to build is reported as absent, matching a record
	// existing in the store while its definition fails to parse.
	_, ok := bag.GetDAG(ctx, "broken")
	assert.False(t, ok)
}

func TestBag_GetMetadata(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tmpDir := t.TempDir()
	// Step-level problems do not affect the metadata view.
	writeDAG(t, tmpDir, "meta", `
description: metadata only
steps:
  - name: s1
    command: "true"
    depends: [nope]
`)

	bag := New(tmpDir)

	dag, ok := bag.GetMetadata(ctx, "meta")
	require.True(t, ok)
	assert.Equal(t, "metadata only", dag.Description)
}

func TestBag_ListAll(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tmpDir := t.TempDir()
	writeDAG(t, tmpDir, "a", `steps: [{name: s1, command: "true"}]`)
	writeDAG(t, tmpDir, "b", `steps: [{name: s1, command: "true"}]`)
	writeDAG(t, tmpDir, "broken", `steps: [{name: s1, command: "true", depends: [gone]}]`)
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "notes.txt"), []byte("ignored"), 0600))

	bag := New(tmpDir)

	dags, errList, err := bag.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, dags, 2)
	assert.Len(t, errList, 1)
}

func TestBag_ListAllMissingDir(t *testing.T) {
	t.Parallel()

	bag := New(filepath.Join(t.TempDir(), "does-not-exist"))

	dags, errList, err := bag.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, dags)
	assert.Empty(t, errList)
}

func TestBag_CacheReuse(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tmpDir := t.TempDir()
	writeDAG(t, tmpDir, "cached", `steps: [{name: s1, command: "true"}]`)

	bag := New(tmpDir)

	first, ok := bag.GetDAG(ctx, "cached")
	require.True(t, ok)
	second, ok := bag.GetDAG(ctx, "cached")
	require.True(t, ok)
	assert.Same(t, first, second)
}
