package memory

import (
	"context"
	"sort"
	"time"

	"solver-rebalancer/internal/core/domain"
	"solver-rebalancer/internal/core/ports"
	"solver-rebalancer/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// OperationRepo implements ports.RebalanceOperationRepository over a Store.
type OperationRepo struct {
	store *Store
}

func (r *OperationRepo) Create(ctx context.Context, tx pgx.Tx, op *domain.RebalanceOperation) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.operations[op.ID]; exists {
		return apperror.Validation("rebalance operation already exists")
	}
	s.operations[op.ID] = cloneOperation(op)
	return nil
}

func (r *OperationRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.RebalanceOperation, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	op, ok := s.operations[id]
	if !ok {
		return nil, nil
	}
	return cloneOperation(op), nil
}

func (r *OperationRepo) List(ctx context.Context, params ports.OperationListParams) ([]domain.RebalanceOperation, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.RebalanceOperation
	for _, op := range s.operations {
		if len(params.Statuses) > 0 && !containsOperationStatus(params.Statuses, op.Status) {
			continue
		}
		if params.EarmarkID != nil && (op.EarmarkID == nil || *op.EarmarkID != *params.EarmarkID) {
			continue
		}
		if params.Unlinked && op.EarmarkID != nil {
			continue
		}
		if params.TickerHash != "" && op.TickerHash != params.TickerHash {
			continue
		}
		out = append(out, *cloneOperation(op))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if params.Limit > 0 && len(out) > params.Limit {
		out = out[:params.Limit]
	}
	return out, nil
}

func (r *OperationRepo) Update(ctx context.Context, tx pgx.Tx, id uuid.UUID, update ports.OperationUpdate) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	op, ok := s.operations[id]
	if !ok {
		return apperror.ErrNotFound("Rebalance operation")
	}
	if update.Status != nil {
		op.Status = *update.Status
	}
	if op.Receipts == nil {
		op.Receipts = make(map[domain.DomainID]domain.Receipt)
	}
	for d, receipt := range update.Receipts {
		op.Receipts[d] = receipt
	}
	if update.IsOrphaned != nil {
		op.IsOrphaned = *update.IsOrphaned
	}
	switch {
	case update.ClearNextLeg:
		op.NextLegStartedAt = nil
	case update.NextLegStartedAt != nil:
		at := *update.NextLegStartedAt
		op.NextLegStartedAt = &at
	}
	op.UpdatedAt = s.now().UTC()
	return nil
}

func (r *OperationRepo) MarkOrphaned(ctx context.Context, tx pgx.Tx, earmarkIDs []uuid.UUID) (int64, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := make(map[uuid.UUID]bool, len(earmarkIDs))
	for _, id := range earmarkIDs {
		wanted[id] = true
	}

	var n int64
	for _, op := range s.operations {
		if op.EarmarkID == nil || !wanted[*op.EarmarkID] || op.IsTerminal() {
			continue
		}
		op.IsOrphaned = true
		op.UpdatedAt = s.now().UTC()
		n++
	}
	return n, nil
}

func (r *OperationRepo) ExpireStale(ctx context.Context, tx pgx.Tx, cutoff time.Time) ([]uuid.UUID, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []uuid.UUID
	for id, op := range s.operations {
		if op.IsTerminal() || !op.CreatedAt.Before(cutoff) {
			continue
		}
		op.Status = domain.OperationStatusExpired
		op.UpdatedAt = s.now().UTC()
		ids = append(ids, id)
	}
	sortIDs(ids)
	return ids, nil
}

func containsOperationStatus(list []domain.OperationStatus, s domain.OperationStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
