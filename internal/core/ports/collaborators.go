package ports

//go:generate mockgen -source=collaborators.go -destination=mocks/collaborators_mock.go -package=mocks

import (
	"context"

	"solver-rebalancer/internal/core/domain"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// BalanceProvider returns normalized balances for the given tickers.
type BalanceProvider interface {
	GetSpendableBalances(ctx context.Context, tickers []domain.TickerHash) (domain.BalanceMap, error)
	GetCustodiedBalances(ctx context.Context, tickers []domain.TickerHash) (domain.BalanceMap, error)
}

// InvoiceSource lists invoices currently open on the hub.
type InvoiceSource interface {
	FetchInvoices(ctx context.Context) ([]domain.Invoice, error)
}

// QuoteProvider returns the normalized minimum amount the solver must supply per origin domain.
type QuoteProvider interface {
	GetMinAmounts(ctx context.Context, invoiceID string) (map[domain.DomainID]*uint256.Int, error)
}

// BridgeAdapter is the single capability interface every bridge integration implements.
type BridgeAdapter interface {
	Kind() domain.BridgeKind
	Quote(ctx context.Context, amount *uint256.Int, route domain.Route) (*uint256.Int, error)
	BuildTransfer(ctx context.Context, sender, recipient common.Address, amount *uint256.Int, route domain.Route) ([]domain.MemoizedTransaction, error)
	IsReadyOnDestination(ctx context.Context, amount *uint256.Int, route domain.Route, originReceipt domain.Receipt) (bool, error)
	// RunDestinationCallback returns the destination-side transaction to execute, or nil when none is needed.
	RunDestinationCallback(ctx context.Context, route domain.Route, originReceipt domain.Receipt) (*domain.Transaction, error)
	GetTransferStatus(ctx context.Context, originTxHash common.Hash, origin, destination domain.DomainID) (domain.TransferStatus, error)
}

// BridgeRegistry resolves adapters by kind.
type BridgeRegistry interface {
	Get(kind domain.BridgeKind) (BridgeAdapter, error)
}

// TransactionSubmitter signs, sends and waits for a transaction on a domain.
type TransactionSubmitter interface {
	Submit(ctx context.Context, domainID domain.DomainID, tx domain.Transaction) (*domain.Receipt, error)
}

// IntentSubmitter puts fulfillment intents for one invoice on chain.
// A failed batch may still return the purchase for intents opened before
// the failure.
type IntentSubmitter interface {
	SubmitIntents(ctx context.Context, intents []domain.PurchaseIntent) (*domain.Purchase, error)
}

// PurchaseCache tracks invoices with intents already in flight.
type PurchaseCache interface {
	GetAll(ctx context.Context) ([]domain.Purchase, error)
	Add(ctx context.Context, purchases ...domain.Purchase) error
	Remove(ctx context.Context, invoiceIDs ...string) error
}
