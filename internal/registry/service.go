// Package registry implements the core operations over the DAG registry:
// filtered listing, single-record lookups, the restricted partial update
// and the delete orchestration.
package registry

import (
	"context"
	"fmt"

	"github.com/dagr-org/dagr/internal/auth"
	"github.com/dagr-org/dagr/internal/common/logger"
	"github.com/dagr-org/dagr/internal/dagbag"
	"github.com/dagr-org/dagr/internal/digraph"
	"github.com/dagr-org/dagr/internal/models"
)

// mutableFields enumerates the record fields settable through the patch
// path. The update endpoint intentionally exposes a single flag; keeping
// this an explicit set guards against schema drift widening the surface.
var mutableFields = map[string]struct{}{
	"is_paused": {},
}

// Service exposes the registry operations. All methods take the requesting
// principal; the accessible-set restriction is applied before any other
// listing filter combination.
type Service struct {
	meta models.DAGMetaStore
	runs models.DAGRunStore
	bag  *dagbag.Bag
}

// New creates a registry service.
func New(meta models.DAGMetaStore, runs models.DAGRunStore, bag *dagbag.Bag) *Service {
	return &Service{meta: meta, runs: runs, bag: bag}
}

// GetDAG returns the persisted metadata record for the given id.
func (s *Service) GetDAG(ctx context.Context, id string) (*models.DAGMeta, error) {
	return s.meta.GetMetadata(ctx, id)
}

// GetDAGDetails returns the compiled definition for the given id from the
// in-process bag. The bag and the store may disagree; structural detail
// always comes from the bag.
func (s *Service) GetDAGDetails(ctx context.Context, id string) (*digraph.DAG, error) {
	dag, ok := s.bag.GetDAG(ctx, id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrDAGNotFound, id)
	}
	return dag, nil
}

// ListRequest holds the caller-supplied listing parameters. Limit and
// Offset are raw values; the paginator clamps them.
type ListRequest struct {
	Limit      int
	Offset     int
	Tags       []string
	IDPattern  string
	OnlyActive bool
}

// ListDAGs returns a filtered, paginated view over the registry for the
// given principal. Subdags are always excluded; the principal's accessible
// set bounds both the page and the total count.
func (s *Service) ListDAGs(ctx context.Context, user *auth.User, req ListRequest) (models.PaginatedResult[*models.DAGMeta], error) {
	accessible, all := auth.AccessibleDAGs(user)

	pg := models.NewPaginator(req.Limit, req.Offset)
	return s.meta.List(ctx, models.ListDAGsOptions{
		Paginator:     &pg,
		OnlyActive:    req.OnlyActive,
		IDPattern:     req.IDPattern,
		Tags:          req.Tags,
		Accessible:    accessible,
		AccessibleAll: all,
	})
}

// DAGPatch is the validated patch document. A nil field means the document
// did not carry it.
type DAGPatch struct {
	IsPaused *bool `json:"is_paused"`
}

// PatchDAG applies a restricted partial update to the record. With an
// update mask, the mask must name exactly the `is_paused` field; without
// one, the full document is applied but assignment still goes through the
// mutable-field whitelist.
func (s *Service) PatchDAG(ctx context.Context, id string, patch DAGPatch, updateMask []string) (*models.DAGMeta, error) {
	if _, err := s.meta.GetMetadata(ctx, id); err != nil {
		return nil, err
	}

	if len(updateMask) > 0 {
		if len(updateMask) > 1 {
			return nil, ErrInvalidUpdateMask
		}
		if _, ok := mutableFields[updateMask[0]]; !ok {
			return nil, ErrInvalidUpdateMask
		}
		if patch.IsPaused == nil {
			return nil, NewValidationError("is_paused: field named in update mask is missing from the document")
		}
	} else if patch.IsPaused == nil {
		return nil, NewValidationError("is_paused: required field is missing")
	}

	if err := s.meta.SetPaused(ctx, id, *patch.IsPaused); err != nil {
		return nil, err
	}
	logger.Info(ctx, "DAG paused flag updated", "dag", id, "is_paused", *patch.IsPaused)

	return s.meta.GetMetadata(ctx, id)
}

// DeleteDAG deletes the DAG and its dependent run state. It delegates to
// the shared store routine, which is all-or-nothing; the same routine backs
// the CLI delete command.
func (s *Service) DeleteDAG(ctx context.Context, id string) error {
	if err := s.meta.Delete(ctx, id); err != nil {
		return err
	}
	logger.Info(ctx, "DAG deleted", "dag", id)
	return nil
}

// Sync mirrors the definition bag into the metadata store: parsed
// definitions are upserted, and records whose definition disappeared are
// marked inactive. Records are never deleted by the sync; a record may
// outlive its definition, and a definition may exist without a record
// until the next sync.
func (s *Service) Sync(ctx context.Context) error {
	dags, errList, err := s.bag.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to scan DAG directory: %w", err)
	}
	for _, msg := range errList {
		logger.Warn(ctx, "skipping unparsable DAG definition", "err", msg)
	}

	seen := make(map[string]struct{}, len(dags))
	for _, dag := range dags {
		seen[dag.Name] = struct{}{}
		meta := &models.DAGMeta{
			ID:          dag.Name,
			IsActive:    true,
			IsSubDAG:    dag.IsSubDAG(),
			Description: dag.Description,
			Owners:      dag.Owners,
			Tags:        dag.Tags,
			FileLoc:     dag.Location,
		}
		if err := s.meta.Upsert(ctx, meta); err != nil {
			return err
		}
	}

	ids, err := s.meta.ListIDs(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		if err := s.meta.SetActive(ctx, id, false); err != nil {
			return err
		}
		logger.Info(ctx, "DAG definition missing, marked inactive", "dag", id)
	}
	return nil
}
