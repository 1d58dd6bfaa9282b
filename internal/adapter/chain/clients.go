package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"solver-rebalancer/config"
	"solver-rebalancer/internal/core/domain"
	"solver-rebalancer/pkg/apperror"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"
)

// EthClient is the subset of the Ethereum RPC the adapter uses.
// *ethclient.Client satisfies it.
type EthClient interface {
	ChainID(ctx context.Context) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Clients holds one RPC client and settlement spoke address per domain.
type Clients struct {
	byDomain map[domain.DomainID]EthClient
	spokes   map[domain.DomainID]common.Address
}

// NewClients wraps already-connected clients.
func NewClients(clients map[domain.DomainID]EthClient, spokes map[domain.DomainID]common.Address) *Clients {
	if spokes == nil {
		spokes = make(map[domain.DomainID]common.Address)
	}
	return &Clients{byDomain: clients, spokes: spokes}
}

// Dial connects to every configured chain.
func Dial(ctx context.Context, chains map[string]config.ChainConfig, log zerolog.Logger) (*Clients, error) {
	clients := make(map[domain.DomainID]EthClient, len(chains))
	spokes := make(map[domain.DomainID]common.Address, len(chains))

	for id, cc := range chains {
		d := domain.DomainID(id)
		endpoint := strings.TrimSpace(cc.RPCURL)
		if endpoint == "" {
			return nil, fmt.Errorf("chain %s: rpc_url is required", id)
		}
		client, err := ethclient.DialContext(ctx, endpoint)
		if err != nil {
			return nil, fmt.Errorf("chain %s: dial: %w", id, err)
		}
		clients[d] = client

		if cc.SpokeAddress != "" {
			if !common.IsHexAddress(cc.SpokeAddress) {
				return nil, fmt.Errorf("chain %s: invalid spoke_address %q", id, cc.SpokeAddress)
			}
			spokes[d] = common.HexToAddress(cc.SpokeAddress)
		}
		log.Info().Str("domain", id).Msg("chain client connected")
	}
	return NewClients(clients, spokes), nil
}

// Get returns the client for d.
func (c *Clients) Get(d domain.DomainID) (EthClient, error) {
	client, ok := c.byDomain[d]
	if !ok {
		return nil, apperror.ErrMissingChain(string(d))
	}
	return client, nil
}

// Spoke returns the settlement spoke on d.
func (c *Clients) Spoke(d domain.DomainID) (common.Address, error) {
	addr, ok := c.spokes[d]
	if !ok {
		return common.Address{}, apperror.ErrMissingChain(string(d))
	}
	return addr, nil
}

// Close releases clients that hold a connection.
func (c *Clients) Close() {
	for _, client := range c.byDomain {
		if closer, ok := client.(interface{ Close() }); ok {
			closer.Close()
		}
	}
}
