package service

import (
	"context"
	"time"

	"solver-rebalancer/internal/core/domain"
	"solver-rebalancer/internal/core/ports"
	"solver-rebalancer/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// EarmarkServiceImpl implements ports.EarmarkService.
type EarmarkServiceImpl struct {
	repo       ports.EarmarkRepository
	transactor ports.DBTransactor
	log        zerolog.Logger
	now        func() time.Time
}

// NewEarmarkService creates a new EarmarkServiceImpl.
func NewEarmarkService(repo ports.EarmarkRepository, transactor ports.DBTransactor, log zerolog.Logger) *EarmarkServiceImpl {
	return &EarmarkServiceImpl{
		repo:       repo,
		transactor: transactor,
		log:        log,
		now:        time.Now,
	}
}

// CreateEarmark claims an invoice. A concurrent claim surfaces as a RACE error.
func (s *EarmarkServiceImpl) CreateEarmark(ctx context.Context, req ports.CreateEarmarkRequest) (*domain.Earmark, error) {
	if req.InvoiceID == "" || req.DesignatedDomain == "" || req.TickerHash == "" {
		return nil, apperror.Validation("invoice id, designated domain and ticker are required")
	}
	minAmount, err := domain.ParseAmount(req.MinAmount)
	if err != nil {
		return nil, apperror.Validation(err.Error())
	}

	existing, err := s.repo.GetActiveByInvoice(ctx, req.InvoiceID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.ErrDuplicateEarmark(req.InvoiceID)
	}

	now := s.now().UTC()
	earmark := &domain.Earmark{
		ID:               uuid.New(),
		InvoiceID:        req.InvoiceID,
		DesignatedDomain: req.DesignatedDomain,
		TickerHash:       req.TickerHash,
		MinAmount:        minAmount,
		Status:           domain.EarmarkStatusInitiating,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	err = withTransaction(ctx, s.transactor, func(tx pgx.Tx) error {
		return s.repo.Create(ctx, tx, earmark)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("earmark_id", earmark.ID.String()).
		Str("invoice_id", earmark.InvoiceID).
		Str("designated_domain", string(earmark.DesignatedDomain)).
		Str("min_amount", minAmount.Dec()).
		Msg("earmark created")

	return earmark, nil
}

func (s *EarmarkServiceImpl) GetActiveEarmark(ctx context.Context, invoiceID string) (*domain.Earmark, error) {
	return s.repo.GetActiveByInvoice(ctx, invoiceID)
}

func (s *EarmarkServiceImpl) GetEarmark(ctx context.Context, id uuid.UUID) (*domain.Earmark, error) {
	earmark, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if earmark == nil {
		return nil, apperror.ErrNotFound("Earmark")
	}
	return earmark, nil
}

func (s *EarmarkServiceImpl) ListEarmarks(ctx context.Context, params ports.EarmarkListParams) ([]domain.Earmark, error) {
	for _, st := range params.Statuses {
		if !st.Valid() {
			return nil, apperror.Validation("unknown earmark status " + string(st))
		}
	}
	return s.repo.List(ctx, params)
}

// UpdateStatus moves an earmark along its lifecycle in its own transaction.
func (s *EarmarkServiceImpl) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.EarmarkStatus, reason string) error {
	return withTransaction(ctx, s.transactor, func(tx pgx.Tx) error {
		return s.transition(ctx, tx, id, status, reason)
	})
}

func (s *EarmarkServiceImpl) transition(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.EarmarkStatus, reason string) error {
	return transitionEarmark(ctx, s.repo, tx, s.log, id, status, reason)
}

// transitionEarmark validates and applies an earmark status change inside tx.
// The write is conditional on the status read here, so a run that lost the
// race to a sweep or an operator gets a RACE error instead of overwriting.
func transitionEarmark(
	ctx context.Context,
	repo ports.EarmarkRepository,
	tx pgx.Tx,
	log zerolog.Logger,
	id uuid.UUID,
	status domain.EarmarkStatus,
	reason string,
) error {
	earmark, err := repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if earmark == nil {
		return apperror.ErrNotFound("Earmark")
	}
	if !earmark.Status.CanTransitionTo(status) {
		return apperror.ErrInvalidTransition(string(earmark.Status), string(status))
	}
	if err := repo.UpdateStatus(ctx, tx, id, earmark.Status, status); err != nil {
		return err
	}

	event := log.Info()
	msg := "earmark status updated"
	if status == domain.EarmarkStatusCancelled {
		event = log.Error()
		msg = "earmark cancelled, funds stranded mid-route"
	}
	event.
		Str("earmark_id", id.String()).
		Str("invoice_id", earmark.InvoiceID).
		Str("from", string(earmark.Status)).
		Str("to", string(status)).
		Str("reason", reason).
		Msg(msg)
	return nil
}
