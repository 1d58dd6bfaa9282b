package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"solver-rebalancer/internal/core/domain"
	"solver-rebalancer/internal/core/ports"
	"solver-rebalancer/pkg/apperror"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog"
)

// MatchingConfig holds the invoice eligibility and group policy settings.
type MatchingConfig struct {
	Owner         common.Address
	MinInvoiceAge time.Duration
	AbortOnOldest bool
}

// MatchInput is the cycle state handed to the matching engine.
type MatchInput struct {
	Invoices []domain.Invoice
	Tracker  *ReservationTracker
	// Purchases are the in-flight purchases known at cycle start.
	Purchases []domain.Purchase
	// Earmarks are the active earmarks keyed by invoice id.
	Earmarks map[string]domain.Earmark
}

// UnfundedInvoice is an eligible invoice no origin could fund.
type UnfundedInvoice struct {
	Invoice    domain.Invoice
	MinAmounts map[domain.DomainID]*uint256.Int
}

// MatchResult summarizes one matching pass.
type MatchResult struct {
	Purchases      []domain.Purchase
	IntentsEmitted int
	Skipped        map[domain.SkipReason]int
	Unfunded       []UnfundedInvoice
	// Fulfilled holds READY earmarks whose invoice was purchased this pass.
	Fulfilled []domain.Earmark
}

func (r *MatchResult) skip(reason domain.SkipReason) {
	r.Skipped[reason]++
}

// InvoiceService is the invoice matching engine.
type InvoiceService struct {
	allocator *SplitIntentAllocator
	assets    domain.AssetBook
	quotes    ports.QuoteProvider
	intents   ports.IntentSubmitter
	purchases ports.PurchaseCache
	cfg       MatchingConfig
	log       zerolog.Logger
	now       func() time.Time
}

// NewInvoiceService creates a new InvoiceService.
func NewInvoiceService(
	allocator *SplitIntentAllocator,
	assets domain.AssetBook,
	quotes ports.QuoteProvider,
	intents ports.IntentSubmitter,
	purchases ports.PurchaseCache,
	cfg MatchingConfig,
	log zerolog.Logger,
) *InvoiceService {
	return &InvoiceService{
		allocator: allocator,
		assets:    assets,
		quotes:    quotes,
		intents:   intents,
		purchases: purchases,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
	}
}

// ProcessInvoices walks every ticker group oldest-first and submits intents
// for the invoices it can fund. Only configuration failures are returned.
func (s *InvoiceService) ProcessInvoices(ctx context.Context, in MatchInput) (*MatchResult, error) {
	result := &MatchResult{Skipped: make(map[domain.SkipReason]int)}
	if in.Tracker == nil {
		in.Tracker = NewReservationTracker(nil, nil)
	}

	// Funds claimed by READY earmarks are off limits to other invoices.
	for _, e := range in.Earmarks {
		if e.Status == domain.EarmarkStatusReady {
			in.Tracker.Hold(e.TickerHash, e.DesignatedDomain, e.MinAmount)
		}
	}

	for _, group := range groupByTicker(in.Invoices) {
		if err := s.processGroup(ctx, group, in, result); err != nil {
			return result, err
		}
	}
	return result, nil
}

type tickerGroup struct {
	ticker   domain.TickerHash
	invoices []domain.Invoice
}

func groupByTicker(invoices []domain.Invoice) []tickerGroup {
	byTicker := make(map[domain.TickerHash][]domain.Invoice)
	for _, inv := range invoices {
		t := domain.NormalizeTicker(string(inv.TickerHash))
		byTicker[t] = append(byTicker[t], inv)
	}

	groups := make([]tickerGroup, 0, len(byTicker))
	for t, list := range byTicker {
		sort.SliceStable(list, func(i, j int) bool {
			if list[i].EnqueuedAt.Equal(list[j].EnqueuedAt) {
				return list[i].ID < list[j].ID
			}
			return list[i].EnqueuedAt.Before(list[j].EnqueuedAt)
		})
		groups = append(groups, tickerGroup{ticker: t, invoices: list})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].ticker < groups[j].ticker })
	return groups
}

func (s *InvoiceService) processGroup(ctx context.Context, group tickerGroup, in MatchInput, result *MatchResult) error {
	log := s.log.With().Str("ticker", string(group.ticker)).Logger()

	var (
		sticky    domain.DomainID
		attempted bool
	)
	for i, inv := range group.invoices {
		inv.TickerHash = group.ticker
		ilog := log.With().Str("invoice_id", inv.ID).Logger()

		if reason, ok := s.validate(inv); !ok {
			s.recordSkip(ilog, result, reason)
			continue
		}
		if s.assets.CoveredByXERC20(inv.TickerHash, inv.Destinations) {
			s.recordSkip(ilog, result, domain.SkipXERC20Covered)
			continue
		}
		if hasPurchase(in.Purchases, inv.ID) {
			s.recordSkip(ilog, result, domain.SkipPendingPurchase)
			continue
		}

		earmark, hasEarmark := in.Earmarks[inv.ID]
		if hasEarmark && earmark.Status != domain.EarmarkStatusReady {
			s.recordSkip(ilog, result, domain.SkipPendingEarmark)
			continue
		}

		minAmounts, err := s.quotes.GetMinAmounts(ctx, inv.ID)
		if err != nil {
			ilog.Warn().Err(err).Msg("min amounts unavailable")
			s.recordSkip(ilog, result, domain.SkipMinAmountsUnavailable)
			continue
		}

		candidates := s.candidates(inv, in.Purchases)
		if hasEarmark {
			candidates = restrictTo(candidates, earmark.DesignatedDomain)
			in.Tracker.Release(inv.TickerHash, earmark.DesignatedDomain, earmark.MinAmount)
		} else if sticky != "" && containsDomain(candidates, sticky) {
			if req, ok := minAmounts[sticky]; ok && !in.Tracker.Spendable(inv.TickerHash, sticky).Lt(req) {
				candidates = []domain.DomainID{sticky}
			}
		}

		firstAttempt := !attempted
		attempted = true

		alloc := s.allocator.Allocate(AllocationRequest{
			InvoiceID:  inv.ID,
			TickerHash: inv.TickerHash,
			Candidates: candidates,
			Required:   minAmounts,
		}, in.Tracker)

		if alloc.IsEmpty() {
			if hasEarmark {
				in.Tracker.Hold(inv.TickerHash, earmark.DesignatedDomain, earmark.MinAmount)
			}
			s.recordSkip(ilog, result, domain.SkipInsufficientBalance)
			if !hasEarmark {
				result.Unfunded = append(result.Unfunded, UnfundedInvoice{Invoice: inv, MinAmounts: minAmounts})
			}
			if firstAttempt && s.cfg.AbortOnOldest {
				rest := group.invoices[i+1:]
				log.Warn().
					Str("oldest_invoice_id", inv.ID).
					Int("aborted", len(rest)).
					Msg("oldest invoice unfunded, aborting ticker group")
				for _, skipped := range rest {
					s.recordSkip(log.With().Str("invoice_id", skipped.ID).Logger(), result, domain.SkipGroupAborted)
				}
				return nil
			}
			continue
		}

		intents, err := s.buildIntents(inv, alloc)
		if err != nil {
			if apperror.IsFatal(err) {
				ilog.Error().Err(err).Str("origin", string(alloc.Origin)).Msg("aborting cycle")
				return err
			}
			if hasEarmark {
				in.Tracker.Hold(inv.TickerHash, earmark.DesignatedDomain, earmark.MinAmount)
			}
			s.recordSkip(ilog, result, domain.SkipInvalidAmount)
			continue
		}

		purchase, err := s.intents.SubmitIntents(ctx, intents)
		if err != nil && purchase != nil {
			// Intents already on chain keep their funds and block a rebuy.
			s.commit(ilog, inv.TickerHash, alloc, in.Tracker)
			sticky = alloc.Origin
			s.cachePurchase(ctx, ilog, purchase)
			result.Purchases = append(result.Purchases, *purchase)
			result.IntentsEmitted += purchase.Intents
		}
		if err != nil {
			if apperror.IsFatal(err) {
				return err
			}
			if hasEarmark && purchase == nil {
				in.Tracker.Hold(inv.TickerHash, earmark.DesignatedDomain, earmark.MinAmount)
			}
			ilog.Error().Err(err).Str("origin", string(alloc.Origin)).Msg("intent submission failed")
			s.recordSkip(ilog, result, domain.SkipTransactionFailed)
			continue
		}

		s.commit(ilog, inv.TickerHash, alloc, in.Tracker)
		sticky = alloc.Origin

		if purchase == nil {
			purchase = &domain.Purchase{InvoiceID: inv.ID, TickerHash: inv.TickerHash, Origin: alloc.Origin}
		}
		s.cachePurchase(ctx, ilog, purchase)

		result.Purchases = append(result.Purchases, *purchase)
		result.IntentsEmitted += len(intents)
		if hasEarmark {
			result.Fulfilled = append(result.Fulfilled, earmark)
		}

		ilog.Info().
			Str("origin", string(alloc.Origin)).
			Int("intents", len(intents)).
			Str("allocated", alloc.Total.Dec()).
			Str("required", alloc.Required.Dec()).
			Str("tx_hash", purchase.TransactionHash.Hex()).
			Msg("invoice purchased")
	}
	return nil
}

func (s *InvoiceService) validate(inv domain.Invoice) (domain.SkipReason, bool) {
	if _, err := inv.ParsedAmount(); err != nil {
		return domain.SkipInvalidAmount, false
	}
	if s.cfg.Owner != (common.Address{}) && strings.EqualFold(inv.Owner, s.cfg.Owner.Hex()) {
		return domain.SkipOwnedBySolver, false
	}
	if len(s.supported(inv.Destinations)) == 0 {
		return domain.SkipNoSupportedDestination, false
	}
	if !s.assets.Supports(inv.TickerHash) {
		return domain.SkipUnsupportedTicker, false
	}
	if s.cfg.MinInvoiceAge > 0 && s.now().Sub(inv.EnqueuedAt) < s.cfg.MinInvoiceAge {
		return domain.SkipTooYoung, false
	}
	return "", true
}

// supported returns the invoice destinations the solver operates on, in
// configured priority order.
func (s *InvoiceService) supported(destinations []domain.DomainID) []domain.DomainID {
	wanted := make(map[domain.DomainID]bool, len(destinations))
	for _, d := range destinations {
		wanted[d] = true
	}
	var out []domain.DomainID
	for _, d := range s.allocator.Domains() {
		if wanted[d] {
			out = append(out, d)
		}
	}
	return out
}

// candidates are the supported invoice destinations, minus domains an
// outstanding purchase on the same ticker already spends from.
func (s *InvoiceService) candidates(inv domain.Invoice, purchases []domain.Purchase) []domain.DomainID {
	var out []domain.DomainID
	for _, d := range s.supported(inv.Destinations) {
		inFlight := false
		for i := range purchases {
			if purchases[i].SpendsFrom(inv.TickerHash, d) {
				inFlight = true
				break
			}
		}
		if inFlight {
			s.log.Debug().Str("invoice_id", inv.ID).Str("origin", string(d)).Msg("origin has purchase in flight")
			continue
		}
		out = append(out, d)
	}
	return out
}

func (s *InvoiceService) buildIntents(inv domain.Invoice, alloc *domain.Allocation) ([]domain.PurchaseIntent, error) {
	inputAsset, ok := s.assets.Address(inv.TickerHash, alloc.Origin)
	if !ok {
		return nil, apperror.ErrMissingAsset(string(inv.TickerHash), string(alloc.Origin))
	}
	decimals, _ := s.assets.Decimals(inv.TickerHash)

	newIntent := func(amount *uint256.Int, destinations []domain.DomainID) domain.PurchaseIntent {
		return domain.PurchaseIntent{
			InvoiceID:    inv.ID,
			TickerHash:   inv.TickerHash,
			Origin:       alloc.Origin,
			Destinations: destinations,
			Recipient:    s.cfg.Owner,
			InputAsset:   inputAsset,
			Amount:       domain.ToNative(amount, decimals),
		}
	}

	destinations := s.allocator.Destinations(alloc.Origin)
	var intents []domain.PurchaseIntent
	for _, e := range alloc.Entries {
		if e.Amount == nil || e.Amount.IsZero() {
			continue
		}
		intents = append(intents, newIntent(e.Amount, destinations))
	}
	if remainder := alloc.Remainder(); !remainder.IsZero() {
		intents = append(intents, newIntent(remainder, s.allocator.TopNDestinations(alloc.Origin)))
	}

	filtered := intents[:0]
	for _, it := range intents {
		if !it.Amount.IsZero() {
			filtered = append(filtered, it)
		}
	}
	if len(filtered) == 0 {
		return nil, apperror.ErrInvalidInvoice("allocation rounds to zero in native units")
	}
	return filtered, nil
}

// commit applies a submitted allocation to the tracker.
func (s *InvoiceService) commit(log zerolog.Logger, ticker domain.TickerHash, alloc *domain.Allocation, tracker *ReservationTracker) {
	for _, e := range alloc.Entries {
		if err := tracker.Reserve(ticker, e.Domain, e.Amount); err != nil {
			log.Error().Err(err).Str("domain", string(e.Domain)).Msg("reservation exceeded custodied balance")
		}
	}
	if err := tracker.Spend(ticker, alloc.Origin, alloc.Required); err != nil {
		log.Error().Err(err).Str("origin", string(alloc.Origin)).Msg("spend exceeded balance")
	}
}

func (s *InvoiceService) cachePurchase(ctx context.Context, log zerolog.Logger, purchase *domain.Purchase) {
	if purchase.CreatedAt.IsZero() {
		purchase.CreatedAt = s.now().UTC()
	}
	if err := s.purchases.Add(ctx, *purchase); err != nil {
		log.Warn().Err(err).Msg("caching purchase failed")
	}
}

func (s *InvoiceService) recordSkip(log zerolog.Logger, result *MatchResult, reason domain.SkipReason) {
	result.skip(reason)
	log.Info().Str("reason", string(reason)).Msg("invoice skipped")
}

func hasPurchase(purchases []domain.Purchase, invoiceID string) bool {
	for i := range purchases {
		if purchases[i].InvoiceID == invoiceID {
			return true
		}
	}
	return false
}

func containsDomain(list []domain.DomainID, d domain.DomainID) bool {
	for _, v := range list {
		if v == d {
			return true
		}
	}
	return false
}

func restrictTo(list []domain.DomainID, d domain.DomainID) []domain.DomainID {
	if containsDomain(list, d) {
		return []domain.DomainID{d}
	}
	return nil
}
