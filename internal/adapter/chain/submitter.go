package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"solver-rebalancer/internal/core/domain"
	"solver-rebalancer/pkg/apperror"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rs/zerolog"
)

// gasPriceBumpPercent is applied on top of the node's suggested gas price.
const gasPriceBumpPercent = 120

// LoadKey parses a hex private key, with or without the 0x prefix.
func LoadKey(hexKey string) (*ecdsa.PrivateKey, error) {
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	if hexKey == "" {
		return nil, fmt.Errorf("signer private key is empty")
	}
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("parse signer private key: %w", err)
	}
	return key, nil
}

// Submitter signs, sends and waits for transactions on any configured domain.
type Submitter struct {
	clients      *Clients
	key          *ecdsa.PrivateKey
	from         common.Address
	pollInterval time.Duration
	timeout      time.Duration
	log          zerolog.Logger

	// nonce allocation and send happen under one lock per domain
	mu    sync.Mutex
	locks map[domain.DomainID]*sync.Mutex
}

// NewSubmitter creates a new Submitter.
func NewSubmitter(clients *Clients, key *ecdsa.PrivateKey, pollInterval, timeout time.Duration, log zerolog.Logger) *Submitter {
	return &Submitter{
		clients:      clients,
		key:          key,
		from:         crypto.PubkeyToAddress(key.PublicKey),
		pollInterval: pollInterval,
		timeout:      timeout,
		log:          log,
		locks:        make(map[domain.DomainID]*sync.Mutex),
	}
}

// Address is the signer's account.
func (s *Submitter) Address() common.Address {
	return s.from
}

// Submit sends tx on d and blocks until it is mined or the receipt timeout
// elapses. A reverted transaction is a submission error.
func (s *Submitter) Submit(ctx context.Context, d domain.DomainID, tx domain.Transaction) (*domain.Receipt, error) {
	client, err := s.clients.Get(d)
	if err != nil {
		return nil, err
	}

	signed, err := s.send(ctx, d, client, tx)
	if err != nil {
		return nil, apperror.ErrSubmissionFailed(fmt.Errorf("domain %s: %w", d, err))
	}
	s.log.Debug().
		Str("domain", string(d)).
		Str("tx_hash", signed.Hash().Hex()).
		Uint64("nonce", signed.Nonce()).
		Msg("transaction sent")

	receipt, err := s.waitForReceipt(ctx, client, signed.Hash())
	if err != nil {
		return nil, err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, apperror.ErrSubmissionFailed(fmt.Errorf("transaction %s reverted on domain %s", signed.Hash().Hex(), d))
	}
	return toDomainReceipt(receipt, s.from, tx.To), nil
}

func (s *Submitter) send(ctx context.Context, d domain.DomainID, client EthClient, tx domain.Transaction) (*types.Transaction, error) {
	lock := s.domainLock(d)
	lock.Lock()
	defer lock.Unlock()

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("chain id: %w", err)
	}
	nonce, err := client.PendingNonceAt(ctx, s.from)
	if err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}
	gasPrice, err := client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("gas price: %w", err)
	}
	gasPrice.Mul(gasPrice, big.NewInt(gasPriceBumpPercent))
	gasPrice.Div(gasPrice, big.NewInt(100))

	value := new(big.Int)
	if tx.Value != nil {
		value = tx.Value.ToBig()
	}
	to := tx.To
	gas, err := client.EstimateGas(ctx, ethereum.CallMsg{
		From:     s.from,
		To:       &to,
		GasPrice: gasPrice,
		Value:    value,
		Data:     tx.Data,
	})
	if err != nil {
		return nil, fmt.Errorf("estimate gas: %w", err)
	}

	signed, err := types.SignNewTx(s.key, types.LatestSignerForChainID(chainID), &types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    value,
		Gas:      gas,
		GasPrice: gasPrice,
		Data:     tx.Data,
	})
	if err != nil {
		return nil, fmt.Errorf("sign: %w", err)
	}
	if err := client.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("send: %w", err)
	}
	return signed, nil
}

func (s *Submitter) domainLock(d domain.DomainID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[d]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[d] = lock
	}
	return lock
}

func (s *Submitter) waitForReceipt(ctx context.Context, client EthClient, hash common.Hash) (*types.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := client.TransactionReceipt(ctx, hash)
		switch {
		case err == nil && receipt != nil:
			return receipt, nil
		case err != nil && !errors.Is(err, ethereum.NotFound):
			s.log.Warn().Err(err).Str("tx_hash", hash.Hex()).Msg("receipt query failed")
		}

		select {
		case <-ctx.Done():
			return nil, apperror.ErrTimeout(fmt.Sprintf("no receipt for %s after %s", hash.Hex(), s.timeout))
		case <-ticker.C:
		}
	}
}

func toDomainReceipt(r *types.Receipt, from, to common.Address) *domain.Receipt {
	out := &domain.Receipt{
		TransactionHash: r.TxHash,
		From:            from,
		To:              to,
		Status:          r.Status,
	}
	if r.BlockNumber != nil {
		out.BlockNumber = r.BlockNumber.Uint64()
	}
	for _, l := range r.Logs {
		if l == nil {
			continue
		}
		out.Logs = append(out.Logs, domain.ReceiptLog{Address: l.Address, Topics: l.Topics, Data: l.Data})
	}
	return out
}
