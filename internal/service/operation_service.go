package service

import (
	"context"
	"fmt"
	"time"

	"solver-rebalancer/internal/core/domain"
	"solver-rebalancer/internal/core/ports"
	"solver-rebalancer/pkg/apperror"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// nextLegNamespace seeds deterministic ids for follow-up legs, so a retry
// finds a leg that was already recorded for the same predecessor.
var nextLegNamespace = []byte("next-leg")

// OperationService drives persisted rebalance legs through their lifecycle.
// It also implements ports.OperationQueryService.
type OperationService struct {
	ops        ports.RebalanceOperationRepository
	earmarks   ports.EarmarkRepository
	transactor ports.DBTransactor
	legs       *legExecutor
	routes     domain.RouteTable
	log        zerolog.Logger
	now        func() time.Time
}

// NewOperationService creates a new OperationService.
func NewOperationService(
	ops ports.RebalanceOperationRepository,
	earmarks ports.EarmarkRepository,
	transactor ports.DBTransactor,
	bridges ports.BridgeRegistry,
	submitter ports.TransactionSubmitter,
	assets domain.AssetBook,
	routes domain.RouteTable,
	sender common.Address,
	log zerolog.Logger,
) *OperationService {
	return &OperationService{
		ops:        ops,
		earmarks:   earmarks,
		transactor: transactor,
		legs: &legExecutor{
			bridges:   bridges,
			submitter: submitter,
			assets:    assets,
			sender:    sender,
			log:       log,
		},
		routes: routes,
		log:    log,
		now:    time.Now,
	}
}

func (s *OperationService) ListOperations(ctx context.Context, params ports.OperationListParams) ([]domain.RebalanceOperation, error) {
	for _, st := range params.Statuses {
		if !st.Valid() {
			return nil, apperror.Validation("unknown operation status " + string(st))
		}
	}
	return s.ops.List(ctx, params)
}

// ProcessOperations re-evaluates every active leg once. Per-leg errors are
// logged and skipped; fatal errors abort and are returned.
func (s *OperationService) ProcessOperations(ctx context.Context) (int, error) {
	active, err := s.ops.List(ctx, ports.OperationListParams{Statuses: domain.ActiveOperationStatuses})
	if err != nil {
		return 0, err
	}

	advanced := 0
	for i := range active {
		op := &active[i]
		changed, err := s.advance(ctx, op)
		if err != nil {
			if apperror.IsFatal(err) {
				s.log.Error().Err(err).Str("operation_id", op.ID.String()).Msg("aborting operation processing")
				return advanced, err
			}
			s.log.Error().
				Err(err).
				Str("operation_id", op.ID.String()).
				Str("status", string(op.Status)).
				Str("kind", string(apperror.KindOf(err))).
				Msg("operation not advanced")
			continue
		}
		if changed {
			advanced++
		}
	}
	return advanced, nil
}

func (s *OperationService) advance(ctx context.Context, op *domain.RebalanceOperation) (bool, error) {
	switch op.Status {
	case domain.OperationStatusPending:
		return s.advancePending(ctx, op)
	case domain.OperationStatusAwaitingCallback:
		return s.advanceAwaiting(ctx, op)
	default:
		return false, nil
	}
}

func (s *OperationService) advancePending(ctx context.Context, op *domain.RebalanceOperation) (bool, error) {
	originReceipt, ok := op.OriginReceipt()
	if !ok {
		return true, s.fail(ctx, op, "origin receipt missing")
	}

	adapter, err := s.legs.adapter(op.Bridge)
	if err != nil {
		return false, err
	}
	route, err := s.legs.route(op.TickerHash, op.Origin, op.Destination)
	if err != nil {
		return false, err
	}

	ready, err := adapter.IsReadyOnDestination(ctx, op.Amount, route, originReceipt)
	if err != nil {
		return false, apperror.ErrUpstream(fmt.Sprintf("bridge %s readiness", op.Bridge), err)
	}
	if ready {
		return true, s.setStatus(ctx, op, domain.OperationStatusAwaitingCallback)
	}

	status, err := adapter.GetTransferStatus(ctx, originReceipt.TransactionHash, op.Origin, op.Destination)
	if err != nil {
		return false, apperror.ErrUpstream(fmt.Sprintf("bridge %s status", op.Bridge), err)
	}
	if status.State == domain.TransferStateFailure {
		return true, s.fail(ctx, op, "bridge reported failure")
	}
	return false, nil
}

func (s *OperationService) advanceAwaiting(ctx context.Context, op *domain.RebalanceOperation) (bool, error) {
	originReceipt, ok := op.OriginReceipt()
	if !ok {
		return true, s.fail(ctx, op, "origin receipt missing")
	}

	adapter, err := s.legs.adapter(op.Bridge)
	if err != nil {
		return false, err
	}
	route, err := s.legs.route(op.TickerHash, op.Origin, op.Destination)
	if err != nil {
		return false, err
	}

	status, err := adapter.GetTransferStatus(ctx, originReceipt.TransactionHash, op.Origin, op.Destination)
	if err != nil {
		return false, apperror.ErrUpstream(fmt.Sprintf("bridge %s status", op.Bridge), err)
	}
	switch status.State {
	case domain.TransferStateFailure:
		return true, s.fail(ctx, op, "bridge reported failure")
	case domain.TransferStateSuccess:
	default:
		return false, nil
	}

	if err := s.runCallback(ctx, op, adapter, route, originReceipt); err != nil {
		return false, err
	}

	if leg, ok := s.routes.NextLeg(op.TickerHash, op.Bridge, op.Origin, op.Destination); ok {
		return true, s.startNextLeg(ctx, op, adapter, route, leg)
	}
	return true, s.complete(ctx, op)
}

// runCallback executes the destination-side transaction once. A stored
// destination receipt means it already ran and is never resubmitted.
func (s *OperationService) runCallback(
	ctx context.Context,
	op *domain.RebalanceOperation,
	adapter ports.BridgeAdapter,
	route domain.Route,
	originReceipt domain.Receipt,
) error {
	if existing, ok := op.Receipt(op.Destination); ok {
		s.log.Debug().
			Str("operation_id", op.ID.String()).
			Str("tx_hash", existing.TransactionHash.Hex()).
			Msg("destination transaction already recorded")
		return nil
	}

	callback, err := adapter.RunDestinationCallback(ctx, route, originReceipt)
	if err != nil {
		return apperror.ErrUpstream(fmt.Sprintf("bridge %s callback", op.Bridge), err)
	}
	if callback == nil {
		return nil
	}

	receipt, err := s.legs.submitter.Submit(ctx, op.Destination, *callback)
	if err != nil {
		return asSubmissionError(err)
	}
	receipt.Memo = domain.TxMemoCallback

	update := ports.OperationUpdate{Receipts: map[domain.DomainID]domain.Receipt{op.Destination: *receipt}}
	if err := withTransaction(ctx, s.transactor, func(tx pgx.Tx) error {
		return s.ops.Update(ctx, tx, op.ID, update)
	}); err != nil {
		return err
	}
	if op.Receipts == nil {
		op.Receipts = make(map[domain.DomainID]domain.Receipt)
	}
	op.Receipts[op.Destination] = *receipt

	s.log.Info().
		Str("operation_id", op.ID.String()).
		Str("destination", string(op.Destination)).
		Str("tx_hash", receipt.TransactionHash.Hex()).
		Msg("destination callback executed")
	return nil
}

// startNextLeg submits the following hop and, in one transaction, records it
// as a new PENDING leg and completes the current one.
//
// The current leg is stamped with NextLegStartedAt before anything is sent.
// A stamp without a recorded follow-up leg means an earlier attempt may have
// put the hop on chain, so the leg is failed for an operator instead of
// sending the funds again.
func (s *OperationService) startNextLeg(
	ctx context.Context,
	op *domain.RebalanceOperation,
	adapter ports.BridgeAdapter,
	route domain.Route,
	leg domain.Leg,
) error {
	nextID := uuid.NewSHA1(op.ID, nextLegNamespace)

	existing, err := s.ops.GetByID(ctx, nextID)
	if err != nil {
		return err
	}

	var next *domain.RebalanceOperation
	if existing == nil {
		if op.NextLegStartedAt != nil {
			return s.fail(ctx, op, fmt.Sprintf("next leg %s submission started at %s was never recorded",
				nextID, op.NextLegStartedAt.UTC().Format(time.RFC3339)))
		}

		amount, err := adapter.Quote(ctx, op.Amount, route)
		if err != nil || amount == nil || amount.IsZero() {
			if err == nil {
				err = fmt.Errorf("empty quote")
			}
			return apperror.ErrUpstream(fmt.Sprintf("bridge %s quote", op.Bridge), err)
		}

		started := s.now().UTC()
		if err := s.update(ctx, op.ID, ports.OperationUpdate{NextLegStartedAt: &started}); err != nil {
			return err
		}
		op.NextLegStartedAt = &started

		receipt, sent, err := s.legs.execute(ctx, op.TickerHash, leg, amount, op.Recipient)
		if err != nil {
			// A timed out submission may still land, so its stamp stays.
			if !apperror.IsKind(err, apperror.KindTimeout) {
				if clearErr := s.update(ctx, op.ID, ports.OperationUpdate{ClearNextLeg: true}); clearErr != nil {
					s.log.Error().Err(clearErr).Str("operation_id", op.ID.String()).Msg("clearing next leg stamp failed")
				} else {
					op.NextLegStartedAt = nil
				}
			}
			return err
		}

		now := s.now().UTC()
		next = &domain.RebalanceOperation{
			ID:          nextID,
			EarmarkID:   op.EarmarkID,
			Origin:      leg.Origin,
			Destination: leg.Destination,
			TickerHash:  op.TickerHash,
			Amount:      sent,
			Bridge:      leg.Bridge,
			Status:      domain.OperationStatusPending,
			Recipient:   op.Recipient,
			Receipts:    map[domain.DomainID]domain.Receipt{leg.Origin: receipt},
			CreatedAt:   now,
			UpdatedAt:   now,
		}
	}

	completed := domain.OperationStatusCompleted
	err = withTransaction(ctx, s.transactor, func(tx pgx.Tx) error {
		if next != nil {
			if err := s.ops.Create(ctx, tx, next); err != nil {
				return err
			}
		}
		return s.ops.Update(ctx, tx, op.ID, ports.OperationUpdate{Status: &completed})
	})
	if err != nil {
		if next != nil {
			s.log.Error().
				Err(err).
				Str("operation_id", op.ID.String()).
				Str("next_operation_id", nextID.String()).
				Str("origin", string(leg.Origin)).
				Str("tx_hash", next.Receipts[leg.Origin].TransactionHash.Hex()).
				Msg("next leg submitted but not recorded")
		}
		return err
	}

	s.log.Info().
		Str("operation_id", op.ID.String()).
		Str("next_operation_id", nextID.String()).
		Str("bridge", string(leg.Bridge)).
		Str("origin", string(leg.Origin)).
		Str("destination", string(leg.Destination)).
		Msg("leg completed, next leg started")
	return nil
}

func (s *OperationService) update(ctx context.Context, id uuid.UUID, update ports.OperationUpdate) error {
	return withTransaction(ctx, s.transactor, func(tx pgx.Tx) error {
		return s.ops.Update(ctx, tx, id, update)
	})
}

// complete finishes a final leg and, for earmark-linked legs, marks the
// earmark READY once every leg succeeded into the designated domain.
func (s *OperationService) complete(ctx context.Context, op *domain.RebalanceOperation) error {
	completed := domain.OperationStatusCompleted

	var (
		earmark  *domain.Earmark
		siblings []domain.RebalanceOperation
		err      error
	)
	if op.EarmarkID != nil {
		earmark, err = s.earmarks.GetByID(ctx, *op.EarmarkID)
		if err != nil {
			return err
		}
		siblings, err = s.ops.List(ctx, ports.OperationListParams{EarmarkID: op.EarmarkID})
		if err != nil {
			return err
		}
	}

	err = withTransaction(ctx, s.transactor, func(tx pgx.Tx) error {
		if err := s.ops.Update(ctx, tx, op.ID, ports.OperationUpdate{Status: &completed}); err != nil {
			return err
		}
		if earmark == nil || earmark.IsTerminal() || earmark.Status == domain.EarmarkStatusReady {
			return nil
		}
		if !earmarkFunded(earmark, siblings, op.ID) {
			return nil
		}
		return transitionEarmark(ctx, s.earmarks, tx, s.log, earmark.ID, domain.EarmarkStatusReady,
			fmt.Sprintf("leg %s delivered to %s", op.ID, op.Destination))
	})
	if err != nil {
		return err
	}

	s.log.Info().
		Str("operation_id", op.ID.String()).
		Str("destination", string(op.Destination)).
		Msg("rebalance operation completed")
	return nil
}

// earmarkFunded reports whether every leg of the earmark is terminal, none
// failed, and one delivered into the designated domain. justCompleted is
// treated as COMPLETED.
func earmarkFunded(earmark *domain.Earmark, legs []domain.RebalanceOperation, justCompleted uuid.UUID) bool {
	delivered := false
	for _, leg := range legs {
		status := leg.Status
		if leg.ID == justCompleted {
			status = domain.OperationStatusCompleted
		}
		switch {
		case !status.IsTerminal():
			return false
		case status != domain.OperationStatusCompleted:
			return false
		case leg.Destination == earmark.DesignatedDomain:
			delivered = true
		}
	}
	return delivered
}

// fail marks the leg FAILED and cancels its earmark in the same transaction.
func (s *OperationService) fail(ctx context.Context, op *domain.RebalanceOperation, reason string) error {
	failed := domain.OperationStatusFailed
	err := withTransaction(ctx, s.transactor, func(tx pgx.Tx) error {
		if err := s.ops.Update(ctx, tx, op.ID, ports.OperationUpdate{Status: &failed}); err != nil {
			return err
		}
		if op.EarmarkID == nil {
			return nil
		}
		earmark, err := s.earmarks.GetByID(ctx, *op.EarmarkID)
		if err != nil {
			return err
		}
		if earmark == nil || earmark.IsTerminal() {
			return nil
		}
		return transitionEarmark(ctx, s.earmarks, tx, s.log, earmark.ID, domain.EarmarkStatusCancelled,
			fmt.Sprintf("leg %s failed: %s", op.ID, reason))
	})
	if err != nil {
		return err
	}

	s.log.Error().
		Str("operation_id", op.ID.String()).
		Str("bridge", string(op.Bridge)).
		Str("origin", string(op.Origin)).
		Str("destination", string(op.Destination)).
		Str("reason", reason).
		Msg("rebalance operation failed")
	return nil
}

func (s *OperationService) setStatus(ctx context.Context, op *domain.RebalanceOperation, status domain.OperationStatus) error {
	if !op.Status.CanTransitionTo(status) {
		return apperror.ErrInvalidTransition(string(op.Status), string(status))
	}
	err := withTransaction(ctx, s.transactor, func(tx pgx.Tx) error {
		return s.ops.Update(ctx, tx, op.ID, ports.OperationUpdate{Status: &status})
	})
	if err != nil {
		return err
	}
	s.log.Info().
		Str("operation_id", op.ID.String()).
		Str("from", string(op.Status)).
		Str("to", string(status)).
		Msg("rebalance operation advanced")
	op.Status = status
	return nil
}
