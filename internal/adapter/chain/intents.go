package chain

import (
	"context"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"solver-rebalancer/internal/core/domain"
	"solver-rebalancer/internal/core/ports"
	"solver-rebalancer/pkg/apperror"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog"
)

// IntentSubmitter opens settlement intents on the origin domain's spoke.
type IntentSubmitter struct {
	clients   *Clients
	submitter ports.TransactionSubmitter
	owner     common.Address
	log       zerolog.Logger
	now       func() time.Time
}

// NewIntentSubmitter creates a new IntentSubmitter. owner is the account
// whose allowance funds the intents; it must be the submitter's signer.
func NewIntentSubmitter(clients *Clients, submitter ports.TransactionSubmitter, owner common.Address, log zerolog.Logger) *IntentSubmitter {
	return &IntentSubmitter{
		clients:   clients,
		submitter: submitter,
		owner:     owner,
		log:       log,
		now:       time.Now,
	}
}

// SubmitIntents approves the spoke for the batch total when the allowance
// falls short, then opens one intent per entry. All intents of a batch share
// one invoice, origin and input asset. When a submission fails after some
// intents went out, the purchase for those is returned with the error.
func (s *IntentSubmitter) SubmitIntents(ctx context.Context, intents []domain.PurchaseIntent) (*domain.Purchase, error) {
	if len(intents) == 0 {
		return nil, apperror.Validation("no intents to submit")
	}
	first := intents[0]
	origin := first.Origin

	total := new(uint256.Int)
	for _, it := range intents {
		if it.Origin != origin || it.InputAsset != first.InputAsset || it.InvoiceID != first.InvoiceID {
			return nil, apperror.Validation("intents in one batch must share invoice, origin and input asset")
		}
		total.Add(total, domain.AmountOrZero(it.Amount))
	}

	client, err := s.clients.Get(origin)
	if err != nil {
		return nil, err
	}
	spoke, err := s.clients.Spoke(origin)
	if err != nil {
		return nil, err
	}

	if err := s.ensureAllowance(ctx, client, origin, first.InputAsset, spoke, total); err != nil {
		return nil, err
	}

	purchase := &domain.Purchase{
		InvoiceID:  first.InvoiceID,
		TickerHash: first.TickerHash,
		Origin:     origin,
	}
	opened := new(uint256.Int)
	seen := make(map[domain.DomainID]bool)
	for _, it := range intents {
		data, err := packNewIntent(it)
		if err != nil {
			return s.partial(purchase, opened, apperror.ErrSubmissionFailed(err))
		}
		receipt, err := s.submitter.Submit(ctx, origin, domain.Transaction{To: spoke, Data: data})
		if err != nil {
			return s.partial(purchase, opened, err)
		}
		s.log.Info().
			Str("invoice_id", it.InvoiceID).
			Str("origin", string(origin)).
			Str("amount", it.Amount.Dec()).
			Str("tx_hash", receipt.TransactionHash.Hex()).
			Msg("intent opened")

		purchase.TransactionHash = receipt.TransactionHash
		purchase.Intents++
		opened.Add(opened, domain.AmountOrZero(it.Amount))
		for _, d := range it.Destinations {
			if !seen[d] {
				seen[d] = true
				purchase.Destinations = append(purchase.Destinations, d)
			}
		}
	}

	purchase.Amount = opened.Dec()
	purchase.CreatedAt = s.now().UTC()
	return purchase, nil
}

// partial returns err alone when nothing went out, or alongside the purchase
// covering the intents already opened on chain.
func (s *IntentSubmitter) partial(purchase *domain.Purchase, opened *uint256.Int, err error) (*domain.Purchase, error) {
	if purchase.Intents == 0 {
		return nil, err
	}
	purchase.Amount = opened.Dec()
	purchase.CreatedAt = s.now().UTC()
	s.log.Warn().
		Err(err).
		Str("invoice_id", purchase.InvoiceID).
		Int("opened", purchase.Intents).
		Str("amount", purchase.Amount).
		Msg("intent batch stopped part way")
	return purchase, err
}

func (s *IntentSubmitter) ensureAllowance(ctx context.Context, client EthClient, origin domain.DomainID, token, spender common.Address, need *uint256.Int) error {
	current, err := Allowance(ctx, client, token, s.owner, spender)
	if err != nil {
		return apperror.ErrUpstream(fmt.Sprintf("allowance on %s", origin), err)
	}
	if !current.Lt(need) {
		return nil
	}

	data, err := erc20ABI.Pack("approve", spender, need.ToBig())
	if err != nil {
		return apperror.ErrSubmissionFailed(err)
	}
	receipt, err := s.submitter.Submit(ctx, origin, domain.Transaction{To: token, Data: data})
	if err != nil {
		return err
	}
	s.log.Info().
		Str("origin", string(origin)).
		Str("token", token.Hex()).
		Str("amount", need.Dec()).
		Str("tx_hash", receipt.TransactionHash.Hex()).
		Msg("spoke allowance raised")
	return nil
}

func packNewIntent(it domain.PurchaseIntent) ([]byte, error) {
	destinations := make([]uint32, 0, len(it.Destinations))
	for _, d := range it.Destinations {
		id, err := strconv.ParseUint(string(d), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("destination %q is not a numeric domain id", d)
		}
		destinations = append(destinations, uint32(id))
	}
	return spokeABI.Pack("newIntent",
		destinations,
		it.Recipient,
		it.InputAsset,
		common.Address{},
		domain.AmountOrZero(it.Amount).ToBig(),
		big.NewInt(int64(it.MaxFee)),
		new(big.Int).SetUint64(it.TTL),
		[]byte(it.Data),
	)
}
