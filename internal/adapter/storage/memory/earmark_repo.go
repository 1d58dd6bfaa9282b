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

// EarmarkRepo implements ports.EarmarkRepository over a Store.
type EarmarkRepo struct {
	store *Store
}

// Create inserts an earmark, rejecting a second active earmark for the same invoice.
func (r *EarmarkRepo) Create(ctx context.Context, tx pgx.Tx, e *domain.Earmark) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.earmarks {
		if existing.InvoiceID == e.InvoiceID && !existing.IsTerminal() {
			return apperror.ErrDuplicateEarmark(e.InvoiceID)
		}
	}
	s.earmarks[e.ID] = cloneEarmark(e)
	return nil
}

func (r *EarmarkRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Earmark, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.earmarks[id]
	if !ok {
		return nil, nil
	}
	return cloneEarmark(e), nil
}

func (r *EarmarkRepo) GetActiveByInvoice(ctx context.Context, invoiceID string) (*domain.Earmark, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.earmarks {
		if e.InvoiceID == invoiceID && !e.IsTerminal() {
			return cloneEarmark(e), nil
		}
	}
	return nil, nil
}

func (r *EarmarkRepo) List(ctx context.Context, params ports.EarmarkListParams) ([]domain.Earmark, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Earmark
	for _, e := range s.earmarks {
		if len(params.Statuses) > 0 && !containsEarmarkStatus(params.Statuses, e.Status) {
			continue
		}
		if params.InvoiceID != "" && e.InvoiceID != params.InvoiceID {
			continue
		}
		out = append(out, *cloneEarmark(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if params.Limit > 0 && len(out) > params.Limit {
		out = out[:params.Limit]
	}
	return out, nil
}

func (r *EarmarkRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to domain.EarmarkStatus) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.earmarks[id]
	if !ok {
		return apperror.ErrNotFound("Earmark")
	}
	if e.Status != from {
		return apperror.ErrEarmarkChanged(id.String(), string(from))
	}
	if !to.IsTerminal() {
		for otherID, other := range s.earmarks {
			if otherID != id && other.InvoiceID == e.InvoiceID && !other.IsTerminal() {
				return apperror.ErrEarmarkChanged(id.String(), string(from))
			}
		}
	}
	e.Status = to
	e.UpdatedAt = s.now().UTC()
	return nil
}

func (r *EarmarkRepo) ExpireInitiating(ctx context.Context, tx pgx.Tx, cutoff time.Time) ([]uuid.UUID, error) {
	return r.expireWhere(func(e *domain.Earmark) bool {
		return e.Status == domain.EarmarkStatusInitiating && e.CreatedAt.Before(cutoff)
	}), nil
}

func (r *EarmarkRepo) ExpireStale(ctx context.Context, tx pgx.Tx, cutoff time.Time) ([]uuid.UUID, error) {
	return r.expireWhere(func(e *domain.Earmark) bool {
		return !e.IsTerminal() && e.Status != domain.EarmarkStatusReady && e.CreatedAt.Before(cutoff)
	}), nil
}

func (r *EarmarkRepo) ExpireReadyWithoutActiveOperations(ctx context.Context, tx pgx.Tx, cutoff time.Time) ([]uuid.UUID, error) {
	return r.expireWhere(func(e *domain.Earmark) bool {
		if e.Status != domain.EarmarkStatusReady || !e.CreatedAt.Before(cutoff) {
			return false
		}
		for _, op := range r.store.operations {
			if op.EarmarkID != nil && *op.EarmarkID == e.ID && !op.IsTerminal() {
				return false
			}
		}
		return true
	}), nil
}

func (r *EarmarkRepo) expireWhere(match func(e *domain.Earmark) bool) []uuid.UUID {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []uuid.UUID
	for id, e := range s.earmarks {
		if match(e) {
			e.Status = domain.EarmarkStatusExpired
			e.UpdatedAt = s.now().UTC()
			ids = append(ids, id)
		}
	}
	sortIDs(ids)
	return ids
}

func containsEarmarkStatus(list []domain.EarmarkStatus, s domain.EarmarkStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func sortIDs(ids []uuid.UUID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
}
