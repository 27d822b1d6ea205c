package models

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Errors for DAG metadata operations.
var (
	ErrDAGNotFound      = errors.New("DAG not found")
	ErrDAGAlreadyExists = errors.New("DAG already exists")
	ErrDAGRunsActive    = errors.New("DAG has active runs")
)

// DAGMeta is the persisted metadata record for a registered DAG.
// IsPaused is the only field mutable through the patch path; IsActive and
// IsSubDAG are maintained by the registration sync.
type DAGMeta struct {
	ID          string    `json:"dag_id"`
	IsPaused    bool      `json:"is_paused"`
	IsActive    bool      `json:"is_active"`
	IsSubDAG    bool      `json:"is_subdag"`
	Description string    `json:"description,omitempty"`
	Owners      []string  `json:"owners,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	FileLoc     string    `json:"file_loc,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// HasTag reports whether the record carries the given tag.
func (d *DAGMeta) HasTag(tag string) bool {
	for _, t := range d.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// ListDAGsOptions defines the filter set for listing DAG metadata.
// Filters combine as follows: subdags are always excluded; OnlyActive
// requires the active flag; IDPattern is a case-insensitive substring match
// on the DAG id; Accessible restricts results to the given ids unless
// AccessibleAll is set; Tags match if the record has any of them (OR).
type ListDAGsOptions struct {
	Paginator *Paginator

	OnlyActive bool
	IDPattern  string
	Tags       []string

	// Accessible is the set of DAG ids the caller may see. When
	// AccessibleAll is false, records outside this set are excluded
	// unconditionally, including from the total count.
	Accessible    []string
	AccessibleAll bool
}

// DAGMetaStore provides transactional CRUD over DAG metadata records.
// Each method executes within a single transaction; absence is reported
// with ErrDAGNotFound rather than a raw driver error.
type DAGMetaStore interface {
	// GetMetadata returns the record for the given DAG id.
	GetMetadata(ctx context.Context, id string) (*DAGMeta, error)
	// List returns a filtered, ordered, paginated view over the records.
	// TotalCount on the result reflects the match count before pagination.
	List(ctx context.Context, opts ListDAGsOptions) (PaginatedResult[*DAGMeta], error)
	// Upsert creates or refreshes a record from a parsed definition.
	Upsert(ctx context.Context, meta *DAGMeta) error
	// SetPaused updates the paused flag, the single field mutable through
	// the patch path.
	SetPaused(ctx context.Context, id string, paused bool) error
	// SetActive updates the active flag (registration sync only).
	SetActive(ctx context.Context, id string, active bool) error
	// Delete removes the record, its tags and its run records in one
	// transaction. Returns ErrDAGRunsActive while dependent run state is
	// still in progress.
	Delete(ctx context.Context, id string) error
	// ListIDs returns all known DAG ids (no filters).
	ListIDs(ctx context.Context) ([]string, error)
}

// DAGRunStore provides access to dependent run state for a DAG.
type DAGRunStore interface {
	// CreateRun records a new run for the DAG.
	CreateRun(ctx context.Context, run *DAGRun) error
	// CountActive returns the number of queued or running runs.
	CountActive(ctx context.Context, dagID string) (int, error)
	// ListRuns returns the runs recorded for the DAG, newest first.
	ListRuns(ctx context.Context, dagID string) ([]*DAGRun, error)
	// MarkFinished transitions a run to a terminal status.
	MarkFinished(ctx context.Context, runID string, status RunStatus) error
}

// RunStatus is the lifecycle status of a DAG run.
type RunStatus string

const (
	RunStatusQueued  RunStatus = "queued"
	RunStatusRunning RunStatus = "running"
	RunStatusSuccess RunStatus = "success"
	RunStatusFailed  RunStatus = "failed"
)

// IsActive reports whether the status still blocks deletion of the DAG.
func (s RunStatus) IsActive() bool {
	return s == RunStatusQueued || s == RunStatusRunning
}

// DAGRun is a single execution record for a DAG.
type DAGRun struct {
	ID        string    `json:"run_id"`
	DAGID     string    `json:"dag_id"`
	Status    RunStatus `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// NewDAGRun creates a run record with a fresh id.
func NewDAGRun(dagID string, status RunStatus) *DAGRun {
	return &DAGRun{
		ID:        uuid.New().String(),
		DAGID:     dagID,
		Status:    status,
		StartedAt: time.Now().UTC(),
	}
}
