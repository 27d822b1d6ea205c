// Package sqldag implements the DAG metadata store on SQLite via
// database/sql. Every operation runs within a single transaction; domain
// absence and conflict conditions are reported as models sentinel errors.
package sqldag

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/dagr-org/dagr/internal/models"
)

var _ models.DAGMetaStore = (*Store)(nil)
var _ models.DAGRunStore = (*Store)(nil)

// Store is the SQLite-backed metadata store.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at the given path and migrates the
// schema.
func New(dbPath string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", dbPath, err)
	}
	// SQLite allows a single writer; serializing through one connection
	// avoids SQLITE_BUSY under concurrent API calls.
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// GetMetadata returns the metadata record for the given DAG id.
func (s *Store) GetMetadata(ctx context.Context, id string) (*models.DAGMeta, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT dag_id, is_paused, is_active, is_subdag, description, owners, file_loc, updated_at
		FROM dags WHERE dag_id = ?`, id)

	meta, err := scanDAGMeta(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", models.ErrDAGNotFound, id)
		}
		return nil, fmt.Errorf("failed to query DAG %s: %w", id, err)
	}

	tags, err := s.tagsFor(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	meta.Tags = tags[id]
	return meta, nil
}

// List returns a filtered, ordered page of metadata records. The total
// count reflects all filters but not the limit/offset window, and ordering
// by dag_id keeps pagination deterministic.
func (s *Store) List(ctx context.Context, opts models.ListDAGsOptions) (models.PaginatedResult[*models.DAGMeta], error) {
	if opts.Paginator == nil {
		p := models.DefaultPaginator()
		opts.Paginator = &p
	}

	where, args := buildListFilter(opts)

	var total int
	countQuery := "SELECT COUNT(*) FROM dags d " + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return models.PaginatedResult[*models.DAGMeta]{}, fmt.Errorf("failed to count DAGs: %w", err)
	}

	pageQuery := `
		SELECT dag_id, is_paused, is_active, is_subdag, description, owners, file_loc, updated_at
		FROM dags d ` + where + `
		ORDER BY dag_id ASC LIMIT ? OFFSET ?`
	pageArgs := append(append([]any{}, args...), opts.Paginator.Limit(), opts.Paginator.Offset())

	rows, err := s.db.QueryContext(ctx, pageQuery, pageArgs...)
	if err != nil {
		return models.PaginatedResult[*models.DAGMeta]{}, fmt.Errorf("failed to list DAGs: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var (
		metas []*models.DAGMeta
		ids   []string
	)
	for rows.Next() {
		meta, err := scanDAGMeta(rows)
		if err != nil {
			return models.PaginatedResult[*models.DAGMeta]{}, fmt.Errorf("failed to scan DAG row: %w", err)
		}
		metas = append(metas, meta)
		ids = append(ids, meta.ID)
	}
	if err := rows.Err(); err != nil {
		return models.PaginatedResult[*models.DAGMeta]{}, fmt.Errorf("failed to read DAG rows: %w", err)
	}

	tags, err := s.tagsFor(ctx, ids)
	if err != nil {
		return models.PaginatedResult[*models.DAGMeta]{}, err
	}
	for _, meta := range metas {
		meta.Tags = tags[meta.ID]
	}

	return models.NewPaginatedResult(metas, total, *opts.Paginator), nil
}

// buildListFilter assembles the WHERE clause for List. The accessible-set
// restriction is part of the predicate, so it also bounds the total count.
func buildListFilter(opts models.ListDAGsOptions) (string, []any) {
	conds := []string{"d.is_subdag = 0"}
	var args []any

	if opts.OnlyActive {
		conds = append(conds, "d.is_active = 1")
	}
	if opts.IDPattern != "" {
		conds = append(conds, "LOWER(d.dag_id) LIKE '%' || ? || '%'")
		args = append(args, strings.ToLower(opts.IDPattern))
	}
	if !opts.AccessibleAll {
		if len(opts.Accessible) == 0 {
			conds = append(conds, "1 = 0")
		} else {
			conds = append(conds, "d.dag_id IN ("+placeholders(len(opts.Accessible))+")")
			for _, id := range opts.Accessible {
				args = append(args, id)
			}
		}
	}
	if len(opts.Tags) > 0 {
		conds = append(conds, `EXISTS (
			SELECT 1 FROM dag_tags t
			WHERE t.dag_id = d.dag_id AND t.name IN (`+placeholders(len(opts.Tags))+`))`)
		for _, tag := range opts.Tags {
			args = append(args, tag)
		}
	}

	return "WHERE " + strings.Join(conds, " AND "), args
}

// Upsert creates or refreshes a record from a parsed definition. The paused
// flag is preserved on update; it is only mutable through SetPaused.
func (s *Store) Upsert(ctx context.Context, meta *models.DAGMeta) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO dags (dag_id, is_paused, is_active, is_subdag, description, owners, file_loc, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (dag_id) DO UPDATE SET
				is_active = excluded.is_active,
				is_subdag = excluded.is_subdag,
				description = excluded.description,
				owners = excluded.owners,
				file_loc = excluded.file_loc,
				updated_at = excluded.updated_at`,
			meta.ID, meta.IsPaused, meta.IsActive, meta.IsSubDAG,
			meta.Description, strings.Join(meta.Owners, ","), meta.FileLoc, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("failed to upsert DAG %s: %w", meta.ID, err)
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM dag_tags WHERE dag_id = ?", meta.ID); err != nil {
			return fmt.Errorf("failed to clear tags for DAG %s: %w", meta.ID, err)
		}
		for _, tag := range meta.Tags {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO dag_tags (dag_id, name) VALUES (?, ?)", meta.ID, tag); err != nil {
				return fmt.Errorf("failed to insert tag %s for DAG %s: %w", tag, meta.ID, err)
			}
		}
		return nil
	})
}

// SetPaused updates the paused flag for the given DAG.
func (s *Store) SetPaused(ctx context.Context, id string, paused bool) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE dags SET is_paused = ?, updated_at = ? WHERE dag_id = ?",
		paused, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update DAG %s: %w", id, err)
	}
	return requireRow(res, id)
}

// SetActive updates the active flag for the given DAG.
func (s *Store) SetActive(ctx context.Context, id string, active bool) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE dags SET is_active = ?, updated_at = ? WHERE dag_id = ?",
		active, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update DAG %s: %w", id, err)
	}
	return requireRow(res, id)
}

// Delete removes the record, its tags and its run records in one
// transaction. Deletion is refused with ErrDAGRunsActive while queued or
// running runs exist; nothing is removed in that case.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var exists bool
		if err := tx.QueryRowContext(ctx,
			"SELECT EXISTS (SELECT 1 FROM dags WHERE dag_id = ?)", id).Scan(&exists); err != nil {
			return fmt.Errorf("failed to query DAG %s: %w", id, err)
		}
		if !exists {
			return fmt.Errorf("%w: %s", models.ErrDAGNotFound, id)
		}

		var active int
		if err := tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM dag_runs WHERE dag_id = ? AND status IN (?, ?)",
			id, models.RunStatusQueued, models.RunStatusRunning).Scan(&active); err != nil {
			return fmt.Errorf("failed to count active runs for DAG %s: %w", id, err)
		}
		if active > 0 {
			return fmt.Errorf("%w: %s", models.ErrDAGRunsActive, id)
		}

		for _, stmt := range []string{
			"DELETE FROM dag_runs WHERE dag_id = ?",
			"DELETE FROM dag_tags WHERE dag_id = ?",
			"DELETE FROM dags WHERE dag_id = ?",
		} {
			if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
				return fmt.Errorf("failed to delete DAG %s: %w", id, err)
			}
		}
		return nil
	})
}

// ListIDs returns all known DAG ids.
func (s *Store) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT dag_id FROM dags ORDER BY dag_id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to list DAG ids: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan DAG id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CreateRun records a new run for the DAG.
func (s *Store) CreateRun(ctx context.Context, run *models.DAGRun) error {
	startedAt := run.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO dag_runs (run_id, dag_id, status, started_at) VALUES (?, ?, ?, ?)",
		run.ID, run.DAGID, run.Status, startedAt)
	if err != nil {
		return fmt.Errorf("failed to create run %s for DAG %s: %w", run.ID, run.DAGID, err)
	}
	return nil
}

// CountActive returns the number of queued or running runs for the DAG.
func (s *Store) CountActive(ctx context.Context, dagID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM dag_runs WHERE dag_id = ? AND status IN (?, ?)",
		dagID, models.RunStatusQueued, models.RunStatusRunning).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active runs for DAG %s: %w", dagID, err)
	}
	return count, nil
}

// ListRuns returns the runs recorded for the DAG, newest first.
func (s *Store) ListRuns(ctx context.Context, dagID string) ([]*models.DAGRun, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT run_id, dag_id, status, started_at FROM dag_runs WHERE dag_id = ? ORDER BY started_at DESC",
		dagID)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs for DAG %s: %w", dagID, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var runs []*models.DAGRun
	for rows.Next() {
		var run models.DAGRun
		if err := rows.Scan(&run.ID, &run.DAGID, &run.Status, &run.StartedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}

// MarkFinished transitions a run to a terminal status.
func (s *Store) MarkFinished(ctx context.Context, runID string, status models.RunStatus) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE dag_runs SET status = ? WHERE run_id = ?", status, runID)
	if err != nil {
		return fmt.Errorf("failed to update run %s: %w", runID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("run %s not found", runID)
	}
	return nil
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// tagsFor loads tag names for the given DAG ids, keyed by id.
func (s *Store) tagsFor(ctx context.Context, ids []string) (map[string][]string, error) {
	if len(ids) == 0 {
		return map[string][]string{}, nil
	}

	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT dag_id, name FROM dag_tags WHERE dag_id IN ("+placeholders(len(ids))+") ORDER BY name ASC",
		args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	tags := make(map[string][]string)
	for rows.Next() {
		var dagID, name string
		if err := rows.Scan(&dagID, &name); err != nil {
			return nil, fmt.Errorf("failed to scan tag row: %w", err)
		}
		tags[dagID] = append(tags[dagID], name)
	}
	return tags, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDAGMeta(row rowScanner) (*models.DAGMeta, error) {
	var (
		meta   models.DAGMeta
		owners string
	)
	err := row.Scan(&meta.ID, &meta.IsPaused, &meta.IsActive, &meta.IsSubDAG,
		&meta.Description, &owners, &meta.FileLoc, &meta.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if owners != "" {
		meta.Owners = strings.Split(owners, ",")
	}
	return &meta, nil
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", models.ErrDAGNotFound, id)
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
