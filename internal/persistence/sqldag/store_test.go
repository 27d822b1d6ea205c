package sqldag

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dagr-org/dagr/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func seedDAG(t *testing.T, store *Store, meta *models.DAGMeta) {
	t.Helper()
	require.NoError(t, store.Upsert(context.Background(), meta))
}

func listOpts(mutate ...func(*models.ListDAGsOptions)) models.ListDAGsOptions {
	opts := models.ListDAGsOptions{
		OnlyActive:    true,
		AccessibleAll: true,
	}
	for _, m := range mutate {
		m(&opts)
	}
	return opts
}

func TestStore_GetMetadata(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	seedDAG(t, store, &models.DAGMeta{
		ID:          "etl",
		IsActive:    true,
		Description: "daily ETL",
		Owners:      []string{"data-team", "platform"},
		Tags:        []string{"daily", "etl"},
	})

	meta, err := store.GetMetadata(ctx, "etl")
	require.NoError(t, err)
	assert.Equal(t, "etl", meta.ID)
	assert.Equal(t, "daily ETL", meta.Description)
	assert.Equal(t, []string{"data-team", "platform"}, meta.Owners)
	assert.Equal(t, []string{"daily", "etl"}, meta.Tags)
	assert.False(t, meta.IsPaused)

	_, err = store.GetMetadata(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrDAGNotFound)
}

func TestStore_UpsertPreservesPaused(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	seedDAG(t, store, &models.DAGMeta{ID: "etl", IsActive: true})
	require.NoError(t, store.SetPaused(ctx, "etl", true))

	// A registration refresh must not clobber the paused flag.
	seedDAG(t, store, &models.DAGMeta{ID: "etl", IsActive: true, Description: "updated"})

	meta, err := store.GetMetadata(ctx, "etl")
	require.NoError(t, err)
	assert.True(t, meta.IsPaused)
	assert.Equal(t, "updated", meta.Description)
}

func TestStore_SetPaused(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	seedDAG(t, store, &models.DAGMeta{ID: "etl", IsActive: true})

	require.NoError(t, store.SetPaused(ctx, "etl", true))
	meta, err := store.GetMetadata(ctx, "etl")
	require.NoError(t, err)
	assert.True(t, meta.IsPaused)

	assert.ErrorIs(t, store.SetPaused(ctx, "missing", true), models.ErrDAGNotFound)
}

func TestStore_List(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	seedDAG(t, store, &models.DAGMeta{ID: "etl-daily", IsActive: true, Tags: []string{"etl", "daily"}})
	seedDAG(t, store, &models.DAGMeta{ID: "etl-hourly", IsActive: true, Tags: []string{"etl", "hourly"}})
	seedDAG(t, store, &models.DAGMeta{ID: "reporting", IsActive: true, Tags: []string{"reports"}})
	seedDAG(t, store, &models.DAGMeta{ID: "archived", IsActive: false})
	seedDAG(t, store, &models.DAGMeta{ID: "etl-daily.cleanup", IsActive: true, IsSubDAG: true})

	t.Run("ExcludesSubdagsAlways", func(t *testing.T) {
		result, err := store.List(ctx, listOpts(func(o *models.ListDAGsOptions) {
			o.OnlyActive = false
		}))
		require.NoError(t, err)
		for _, dag := range result.Items {
			assert.False(t, dag.IsSubDAG)
		}
		assert.Equal(t, 4, result.TotalCount)
	})

	t.Run("OnlyActiveDefault", func(t *testing.T) {
		result, err := store.List(ctx, listOpts())
		require.NoError(t, err)
		assert.Equal(t, 3, result.TotalCount)
		for _, dag := range result.Items {
			assert.True(t, dag.IsActive)
		}
	})

	t.Run("IDPatternCaseInsensitive", func(t *testing.T) {
		result, err := store.List(ctx, listOpts(func(o *models.ListDAGsOptions) {
			o.IDPattern = "ETL"
		}))
		require.NoError(t, err)
		assert.Equal(t, 2, result.TotalCount)
		for _, dag := range result.Items {
			assert.Contains(t, dag.ID, "etl")
		}
	})

	t.Run("TagsMatchAny", func(t *testing.T) {
		result, err := store.List(ctx, listOpts(func(o *models.ListDAGsOptions) {
			o.Tags = []string{"hourly", "reports"}
		}))
		require.NoError(t, err)
		assert.Equal(t, 2, result.TotalCount)

		var ids []string
		for _, dag := range result.Items {
			ids = append(ids, dag.ID)
		}
		assert.Equal(t, []string{"etl-hourly", "reporting"}, ids)
	})

	t.Run("AccessibleSetBoundsTotal", func(t *testing.T) {
		result, err := store.List(ctx, listOpts(func(o *models.ListDAGsOptions) {
			o.AccessibleAll = false
			o.Accessible = []string{"etl-daily", "reporting"}
		}))
		require.NoError(t, err)
		assert.Equal(t, 2, result.TotalCount)
		for _, dag := range result.Items {
			assert.Contains(t, []string{"etl-daily", "reporting"}, dag.ID)
		}
	})

	t.Run("EmptyAccessibleSetSeesNothing", func(t *testing.T) {
		result, err := store.List(ctx, listOpts(func(o *models.ListDAGsOptions) {
			o.AccessibleAll = false
			o.Accessible = nil
		}))
		require.NoError(t, err)
		assert.Empty(t, result.Items)
		assert.Equal(t, 0, result.TotalCount)
	})

	t.Run("OrderedByID", func(t *testing.T) {
		result, err := store.List(ctx, listOpts())
		require.NoError(t, err)

		var ids []string
		for _, dag := range result.Items {
			ids = append(ids, dag.ID)
		}
		assert.Equal(t, []string{"etl-daily", "etl-hourly", "reporting"}, ids)
	})

	t.Run("TotalCountedBeforePagination", func(t *testing.T) {
		pg := models.NewPaginator(1, 1)
		result, err := store.List(ctx, listOpts(func(o *models.ListDAGsOptions) {
			o.Paginator = &pg
		}))
		require.NoError(t, err)
		assert.Equal(t, 3, result.TotalCount)
		require.Len(t, result.Items, 1)
		assert.Equal(t, "etl-hourly", result.Items[0].ID)
	})

	t.Run("OffsetPastEnd", func(t *testing.T) {
		pg := models.NewPaginator(10, 100)
		result, err := store.List(ctx, listOpts(func(o *models.ListDAGsOptions) {
			o.Paginator = &pg
		}))
		require.NoError(t, err)
		assert.Empty(t, result.Items)
		assert.Equal(t, 3, result.TotalCount)
	})

	t.Run("DeterministicPages", func(t *testing.T) {
		pg := models.NewPaginator(2, 0)
		first, err := store.List(ctx, listOpts(func(o *models.ListDAGsOptions) {
			o.Paginator = &pg
		}))
		require.NoError(t, err)

		second, err := store.List(ctx, listOpts(func(o *models.ListDAGsOptions) {
			o.Paginator = &pg
		}))
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}

func TestStore_Delete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("NotFound", func(t *testing.T) {
		store := newTestStore(t)
		assert.ErrorIs(t, store.Delete(ctx, "missing"), models.ErrDAGNotFound)
	})

	t.Run("RefusedWhileRunsActive", func(t *testing.T) {
		store := newTestStore(t)
		seedDAG(t, store, &models.DAGMeta{ID: "busy", IsActive: true})
		require.NoError(t, store.CreateRun(ctx, models.NewDAGRun("busy", models.RunStatusRunning)))

		assert.ErrorIs(t, store.Delete(ctx, "busy"), models.ErrDAGRunsActive)

		// Nothing was removed.
		_, err := store.GetMetadata(ctx, "busy")
		require.NoError(t, err)
		runs, err := store.ListRuns(ctx, "busy")
		require.NoError(t, err)
		assert.Len(t, runs, 1)
	})

	t.Run("CascadesWhenQuiesced", func(t *testing.T) {
		store := newTestStore(t)
		seedDAG(t, store, &models.DAGMeta{ID: "done", IsActive: true, Tags: []string{"x"}})

		run := models.NewDAGRun("done", models.RunStatusRunning)
		require.NoError(t, store.CreateRun(ctx, run))
		require.NoError(t, store.MarkFinished(ctx, run.ID, models.RunStatusSuccess))

		require.NoError(t, store.Delete(ctx, "done"))

		_, err := store.GetMetadata(ctx, "done")
		assert.ErrorIs(t, err, models.ErrDAGNotFound)
		runs, err := store.ListRuns(ctx, "done")
		require.NoError(t, err)
		assert.Empty(t, runs)
	})
}

func TestStore_Runs(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	seedDAG(t, store, &models.DAGMeta{ID: "etl", IsActive: true})

	queued := models.NewDAGRun("etl", models.RunStatusQueued)
	running := models.NewDAGRun("etl", models.RunStatusRunning)
	require.NoError(t, store.CreateRun(ctx, queued))
	require.NoError(t, store.CreateRun(ctx, running))

	active, err := store.CountActive(ctx, "etl")
	require.NoError(t, err)
	assert.Equal(t, 2, active)

	require.NoError(t, store.MarkFinished(ctx, queued.ID, models.RunStatusFailed))
	active, err = store.CountActive(ctx, "etl")
	require.NoError(t, err)
	assert.Equal(t, 1, active)

	assert.Error(t, store.MarkFinished(ctx, "missing-run", models.RunStatusSuccess))
}

func TestStore_SetActiveAndListIDs(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	seedDAG(t, store, &models.DAGMeta{ID: "a", IsActive: true})
	seedDAG(t, store, &models.DAGMeta{ID: "b", IsActive: true})

	require.NoError(t, store.SetActive(ctx, "b", false))

	ids, err := store.ListIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	result, err := store.List(ctx, listOpts())
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "a", result.Items[0].ID)

	assert.ErrorIs(t, store.SetActive(ctx, "missing", true), models.ErrDAGNotFound)
}
