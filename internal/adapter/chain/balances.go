package chain

import (
	"context"
	"fmt"
	"sync"

	"solver-rebalancer/internal/core/domain"
	"solver-rebalancer/pkg/apperror"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"golang.org/x/sync/errgroup"
)

// BalanceReader reads the solver's ERC20 balances on every configured domain.
type BalanceReader struct {
	clients *Clients
	assets  domain.AssetBook
	owner   common.Address
}

// NewBalanceReader creates a new BalanceReader.
func NewBalanceReader(clients *Clients, assets domain.AssetBook, owner common.Address) *BalanceReader {
	return &BalanceReader{clients: clients, assets: assets, owner: owner}
}

// GetSpendableBalances fans out one balanceOf call per (ticker, domain) and
// normalizes each result to 18 decimals. Any failed read fails the snapshot.
func (r *BalanceReader) GetSpendableBalances(ctx context.Context, tickers []domain.TickerHash) (domain.BalanceMap, error) {
	var (
		mu  sync.Mutex
		out = make(domain.BalanceMap, len(tickers))
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, ticker := range tickers {
		asset, ok := r.assets[ticker]
		if !ok {
			continue
		}
		for d, token := range asset.Addresses {
			client, err := r.clients.Get(d)
			if err != nil {
				return nil, err
			}
			ticker, d, token, decimals := ticker, d, token, asset.Decimals
			g.Go(func() error {
				balance, err := BalanceOf(gctx, client, token, r.owner)
				if err != nil {
					return apperror.ErrUpstream(fmt.Sprintf("balanceOf %s on %s", ticker, d), err)
				}
				mu.Lock()
				out.Set(ticker, d, domain.ToStandard(balance, decimals))
				mu.Unlock()
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// BalanceOf reads token.balanceOf(owner) in native units.
func BalanceOf(ctx context.Context, client EthClient, token, owner common.Address) (*uint256.Int, error) {
	data, err := erc20ABI.Pack("balanceOf", owner)
	if err != nil {
		return nil, err
	}
	out, err := client.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, err
	}
	return unpackUint256("balanceOf", out)
}

// Allowance reads token.allowance(owner, spender) in native units.
func Allowance(ctx context.Context, client EthClient, token, owner, spender common.Address) (*uint256.Int, error) {
	data, err := erc20ABI.Pack("allowance", owner, spender)
	if err != nil {
		return nil, err
	}
	out, err := client.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, err
	}
	return unpackUint256("allowance", out)
}

// SpendableSource reads wallet balances.
type SpendableSource interface {
	GetSpendableBalances(ctx context.Context, tickers []domain.TickerHash) (domain.BalanceMap, error)
}

// CustodiedSource reads hub-custodied balances.
type CustodiedSource interface {
	GetCustodiedBalances(ctx context.Context, tickers []domain.TickerHash) (domain.BalanceMap, error)
}

// BalanceProvider joins on-chain spendable balances with hub custodied balances.
type BalanceProvider struct {
	SpendableSource
	CustodiedSource
}

// NewBalanceProvider creates a new BalanceProvider.
func NewBalanceProvider(spendable SpendableSource, custodied CustodiedSource) *BalanceProvider {
	return &BalanceProvider{SpendableSource: spendable, CustodiedSource: custodied}
}
