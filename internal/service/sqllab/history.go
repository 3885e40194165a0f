package sqllab

import (
	"context"

	"sqldesk/internal/domain"
)

// HistoryService exposes read and stop operations over the query log.
// Regular principals only see their own queries; the dispatch and results
// paths do not go through it.
type HistoryService struct {
	queries domain.QueryRepository
}

// NewHistoryService wires the query-log surface.
func NewHistoryService(queries domain.QueryRepository) *HistoryService {
	return &HistoryService{queries: queries}
}

// Get returns one query record. A record owned by someone else reads as
// not found rather than forbidden, so query IDs cannot be probed.
func (s *HistoryService) Get(ctx context.Context, principal, id string) (*domain.Query, error) {
	query, err := s.queries.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if query.SubmittedBy != principal {
		return nil, domain.ErrNotFound("query %q not found", id)
	}
	return query, nil
}

// List returns the principal's queries, newest first, with the total count
// for pagination.
func (s *HistoryService) List(ctx context.Context, principal string, limit, offset int) ([]domain.Query, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	if offset < 0 {
		offset = 0
	}
	return s.queries.ListForPrincipal(ctx, principal, limit, offset)
}

// Stop marks a pending or running query as stopped. Stopping a query that
// already reached a terminal state returns a ConflictError; the execution
// itself may still drain, but its terminal transition will then lose the
// race and be rejected by the repository guard.
func (s *HistoryService) Stop(ctx context.Context, principal, id string) (*domain.Query, error) {
	query, err := s.Get(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	if err := s.queries.MarkStopped(ctx, query.ID); err != nil {
		return nil, err
	}
	return s.queries.GetByID(ctx, query.ID)
}
