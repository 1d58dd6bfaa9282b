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
	"github.com/holiman/uint256"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

const bpsDenominator = 10_000

// RebalanceResult counts what one rebalancing pass created.
type RebalanceResult struct {
	EarmarksCreated   int
	OperationsCreated int
}

// RebalanceService moves solver funds between domains, either to fund a
// specific invoice (earmarked) or to drain a domain above its threshold.
type RebalanceService struct {
	earmarks   ports.EarmarkService
	ops        ports.RebalanceOperationRepository
	transactor ports.DBTransactor
	legs       *legExecutor
	routes     domain.RouteTable
	assets     domain.AssetBook
	domains    []domain.DomainID
	log        zerolog.Logger
	now        func() time.Time
}

// NewRebalanceService creates a new RebalanceService. domains is the
// configured priority order used to pick an invoice's destination.
func NewRebalanceService(
	earmarks ports.EarmarkService,
	ops ports.RebalanceOperationRepository,
	transactor ports.DBTransactor,
	bridges ports.BridgeRegistry,
	submitter ports.TransactionSubmitter,
	assets domain.AssetBook,
	routes domain.RouteTable,
	domains []domain.DomainID,
	sender common.Address,
	log zerolog.Logger,
) *RebalanceService {
	return &RebalanceService{
		earmarks:   earmarks,
		ops:        ops,
		transactor: transactor,
		legs: &legExecutor{
			bridges:   bridges,
			submitter: submitter,
			assets:    assets,
			sender:    sender,
			log:       log,
		},
		routes:  routes,
		assets:  assets,
		domains: append([]domain.DomainID(nil), domains...),
		log:     log,
		now:     time.Now,
	}
}

// plannedTransfer is one route and the normalized amount to send over it.
type plannedTransfer struct {
	route  domain.RebalanceRoute
	amount *uint256.Int
}

// RebalanceOnDemand earmarks each unfunded invoice it can route funds to and
// submits the first leg of every planned route.
func (s *RebalanceService) RebalanceOnDemand(ctx context.Context, unfunded []UnfundedInvoice, tracker *ReservationTracker) (RebalanceResult, error) {
	var result RebalanceResult

	for _, u := range unfunded {
		inv := u.Invoice
		log := s.log.With().Str("invoice_id", inv.ID).Str("ticker", string(inv.TickerHash)).Logger()

		destination, required, plan := s.planForInvoice(u, tracker)
		if plan == nil {
			log.Debug().Msg("no rebalance route covers the deficit")
			continue
		}

		earmark, err := s.earmarks.CreateEarmark(ctx, ports.CreateEarmarkRequest{
			InvoiceID:        inv.ID,
			DesignatedDomain: destination,
			TickerHash:       inv.TickerHash,
			MinAmount:        required.Dec(),
		})
		if err != nil {
			if apperror.IsKind(err, apperror.KindRace) {
				log.Debug().Err(err).Msg("invoice already earmarked by another run")
				continue
			}
			if apperror.IsFatal(err) {
				return result, err
			}
			log.Error().Err(err).Msg("earmark creation failed")
			continue
		}
		result.EarmarksCreated++

		created := 0
		for _, p := range plan {
			if _, err := s.submitFirstLeg(ctx, p, &earmark.ID, tracker); err != nil {
				if apperror.IsFatal(err) {
					return result, err
				}
				log.Error().
					Err(err).
					Str("earmark_id", earmark.ID.String()).
					Str("origin", string(p.route.Origin)).
					Msg("rebalance leg submission failed")
				continue
			}
			created++
		}
		result.OperationsCreated += created

		if err := s.settleEarmark(ctx, log, earmark.ID, created, len(plan)); err != nil {
			return result, err
		}
	}
	return result, nil
}

// settleEarmark moves a fresh earmark out of INITIATING once its legs are
// submitted. An earmark whose plan went out only in part cannot cover the
// invoice, so it is cancelled and the legs already in flight are orphaned.
// Only fatal errors are returned.
func (s *RebalanceService) settleEarmark(ctx context.Context, log zerolog.Logger, id uuid.UUID, created, planned int) error {
	next, reason := domain.EarmarkStatusPending, fmt.Sprintf("%d legs submitted", created)
	switch {
	case created == 0:
		next, reason = domain.EarmarkStatusCancelled, "no leg could be submitted"
	case created < planned:
		next, reason = domain.EarmarkStatusCancelled, fmt.Sprintf("only %d of %d legs submitted", created, planned)
	}

	if err := s.earmarks.UpdateStatus(ctx, id, next, reason); err != nil {
		if apperror.IsFatal(err) {
			return err
		}
		log.Error().Err(err).Str("earmark_id", id.String()).Msg("earmark status update failed")
		return nil
	}
	if next != domain.EarmarkStatusCancelled || created == 0 {
		return nil
	}

	var orphaned int64
	err := withTransaction(ctx, s.transactor, func(tx pgx.Tx) error {
		var err error
		orphaned, err = s.ops.MarkOrphaned(ctx, tx, []uuid.UUID{id})
		return err
	})
	if err != nil {
		if apperror.IsFatal(err) {
			return err
		}
		log.Error().Err(err).Str("earmark_id", id.String()).Msg("orphaning partial plan legs failed")
		return nil
	}
	log.Warn().
		Str("earmark_id", id.String()).
		Int("submitted", created).
		Int("planned", planned).
		Int64("orphaned_legs", orphaned).
		Msg("earmark cancelled, plan only partly submitted")
	return nil
}

// planForInvoice picks the first destination, in priority order, whose
// spendable deficit the configured routes can cover in full.
func (s *RebalanceService) planForInvoice(u UnfundedInvoice, tracker *ReservationTracker) (domain.DomainID, *uint256.Int, []plannedTransfer) {
	ticker := u.Invoice.TickerHash
	wanted := make(map[domain.DomainID]bool, len(u.Invoice.Destinations))
	for _, d := range u.Invoice.Destinations {
		wanted[d] = true
	}

	for _, d := range s.domains {
		if !wanted[d] {
			continue
		}
		required, ok := u.MinAmounts[d]
		if !ok || required == nil || required.IsZero() {
			continue
		}
		deficit := domain.SaturatingSub(required, tracker.Spendable(ticker, d))
		if deficit.IsZero() {
			continue
		}

		var plan []plannedTransfer
		remaining := deficit.Clone()
		for _, route := range s.routes.RoutesTo(ticker, d) {
			if remaining.IsZero() {
				break
			}
			surplus := domain.SaturatingSub(tracker.Spendable(ticker, route.Origin), domain.AmountOrZero(route.Reserve))
			amount := domain.MinAmount(surplus, remaining)
			if amount.IsZero() {
				continue
			}
			plan = append(plan, plannedTransfer{route: route, amount: amount})
			remaining.Sub(remaining, amount)
		}
		if remaining.IsZero() {
			return d, required, plan
		}
	}
	return "", nil, nil
}

// RebalanceThresholds drains every route origin holding more than its
// configured maximum down to its reserve.
func (s *RebalanceService) RebalanceThresholds(ctx context.Context, tracker *ReservationTracker) (RebalanceResult, error) {
	var result RebalanceResult

	active, err := s.ops.List(ctx, ports.OperationListParams{
		Statuses: domain.ActiveOperationStatuses,
		Unlinked: true,
	})
	if err != nil {
		return result, err
	}

	for _, route := range s.routes {
		if route.Maximum == nil || route.Maximum.IsZero() {
			continue
		}
		log := s.log.With().
			Str("ticker", string(route.TickerHash)).
			Str("origin", string(route.Origin)).
			Str("destination", string(route.Destination)).
			Logger()

		balance := tracker.Spendable(route.TickerHash, route.Origin)
		if !balance.Gt(route.Maximum) {
			continue
		}
		if inFlight(active, route) {
			log.Debug().Msg("threshold rebalance already in flight")
			continue
		}

		amount := domain.SaturatingSub(balance, domain.AmountOrZero(route.Reserve))
		if amount.IsZero() {
			continue
		}
		ok, err := s.withinSlippage(ctx, route, amount)
		if err != nil {
			if apperror.IsFatal(err) {
				return result, err
			}
			log.Warn().Err(err).Msg("threshold quote failed")
			continue
		}
		if !ok {
			log.Warn().Uint64("slippage_bps", route.SlippageBps).Str("amount", amount.Dec()).Msg("quote exceeds slippage, skipping")
			continue
		}

		op, err := s.submitFirstLeg(ctx, plannedTransfer{route: route, amount: amount}, nil, tracker)
		if err != nil {
			if apperror.IsFatal(err) {
				return result, err
			}
			log.Error().Err(err).Msg("threshold rebalance submission failed")
			continue
		}
		active = append(active, *op)
		result.OperationsCreated++
	}
	return result, nil
}

func (s *RebalanceService) withinSlippage(ctx context.Context, route domain.RebalanceRoute, normalized *uint256.Int) (bool, error) {
	leg := route.FirstLeg()
	adapter, err := s.legs.adapter(leg.Bridge)
	if err != nil {
		return false, err
	}
	r, err := s.legs.route(route.TickerHash, leg.Origin, leg.Destination)
	if err != nil {
		return false, err
	}
	decimals, _ := s.assets.Decimals(route.TickerHash)
	sent := domain.ToNative(normalized, decimals)

	received, err := adapter.Quote(ctx, sent, r)
	if err != nil {
		return false, apperror.ErrUpstream(fmt.Sprintf("bridge %s quote", leg.Bridge), err)
	}
	if received == nil {
		return false, nil
	}

	// received * 10000 >= sent * (10000 - bps)
	bps := route.SlippageBps
	if bps > bpsDenominator {
		bps = bpsDenominator
	}
	lhs := new(uint256.Int).Mul(received, uint256.NewInt(bpsDenominator))
	rhs := new(uint256.Int).Mul(sent, uint256.NewInt(bpsDenominator-bps))
	return !lhs.Lt(rhs), nil
}

// submitFirstLeg sends the first hop of a planned route and persists it as a
// PENDING leg. Later hops are started by the operation state machine.
func (s *RebalanceService) submitFirstLeg(ctx context.Context, p plannedTransfer, earmarkID *uuid.UUID, tracker *ReservationTracker) (*domain.RebalanceOperation, error) {
	leg := p.route.FirstLeg()
	decimals, _ := s.assets.Decimals(p.route.TickerHash)
	amount := domain.ToNative(p.amount, decimals)
	if amount.IsZero() {
		return nil, apperror.Validation("rebalance amount rounds to zero")
	}

	receipt, sent, err := s.legs.execute(ctx, p.route.TickerHash, leg, amount, s.legs.sender)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	op := &domain.RebalanceOperation{
		ID:          uuid.New(),
		EarmarkID:   earmarkID,
		Origin:      leg.Origin,
		Destination: leg.Destination,
		TickerHash:  p.route.TickerHash,
		Amount:      sent,
		Bridge:      leg.Bridge,
		Status:      domain.OperationStatusPending,
		Recipient:   s.legs.sender,
		Receipts:    map[domain.DomainID]domain.Receipt{leg.Origin: receipt},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := withTransaction(ctx, s.transactor, func(tx pgx.Tx) error {
		return s.ops.Create(ctx, tx, op)
	}); err != nil {
		return nil, err
	}
	if err := tracker.Spend(p.route.TickerHash, leg.Origin, p.amount); err != nil {
		s.log.Warn().Err(err).Str("origin", string(leg.Origin)).Msg("rebalance spent beyond tracked balance")
	}

	event := s.log.Info().
		Str("operation_id", op.ID.String()).
		Str("bridge", string(leg.Bridge)).
		Str("origin", string(leg.Origin)).
		Str("destination", string(leg.Destination)).
		Str("amount", sent.Dec()).
		Str("tx_hash", receipt.TransactionHash.Hex())
	if earmarkID != nil {
		event = event.Str("earmark_id", earmarkID.String())
	}
	event.Msg("rebalance leg submitted")
	return op, nil
}

// inFlight reports whether an unlinked active leg already serves route.
func inFlight(active []domain.RebalanceOperation, route domain.RebalanceRoute) bool {
	first := route.FirstLeg()
	for _, op := range active {
		if op.EarmarkID != nil || op.TickerHash != route.TickerHash {
			continue
		}
		if op.Origin == first.Origin && op.Destination == first.Destination && op.Bridge == first.Bridge {
			return true
		}
	}
	return false
}
