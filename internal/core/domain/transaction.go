package domain

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

// BridgeKind selects a bridge adapter from the registry.
type BridgeKind string

// Route is the asset and domain pair a bridge leg moves funds across.
type Route struct {
	Asset       common.Address `json:"asset"`
	Origin      DomainID       `json:"origin"`
	Destination DomainID       `json:"destination"`
}

// Transaction is an unsigned call to be submitted on some domain.
type Transaction struct {
	To    common.Address `json:"to"`
	Data  hexutil.Bytes  `json:"data"`
	Value *uint256.Int   `json:"value,omitempty"`
}

// TxMemo tags the purpose of a transaction in a bridge transfer.
type TxMemo string

const (
	TxMemoApproval  TxMemo = "Approval"
	TxMemoRebalance TxMemo = "Rebalance"
	TxMemoWrap      TxMemo = "Wrap"
	TxMemoUnwrap    TxMemo = "Unwrap"
	TxMemoCallback  TxMemo = "Callback"
	TxMemoIntent    TxMemo = "Intent"
)

// MemoizedTransaction is one step returned by a bridge adapter's transfer builder.
// EffectiveAmount, when set, replaces the requested amount for the leg record.
type MemoizedTransaction struct {
	Tx              Transaction
	Memo            TxMemo
	EffectiveAmount *uint256.Int
}

// TransferState is the bridge-reported progress of a transfer.
type TransferState string

const (
	TransferStatePending TransferState = "PENDING"
	TransferStateSuccess TransferState = "SUCCESS"
	TransferStateFailure TransferState = "FAILURE"
)

// TransferStatus is a bridge status answer.
type TransferStatus struct {
	State             TransferState
	DestinationTxHash *common.Hash
}
