package service

import (
	"context"
	"errors"

	"solver-rebalancer/internal/core/domain"
	"solver-rebalancer/internal/core/ports"
	"solver-rebalancer/pkg/apperror"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog"
)

// legExecutor submits the origin-side transactions of one bridge leg.
type legExecutor struct {
	bridges   ports.BridgeRegistry
	submitter ports.TransactionSubmitter
	assets    domain.AssetBook
	sender    common.Address
	log       zerolog.Logger
}

func (e *legExecutor) adapter(kind domain.BridgeKind) (ports.BridgeAdapter, error) {
	adapter, err := e.bridges.Get(kind)
	if err != nil {
		return nil, err
	}
	if adapter == nil {
		return nil, apperror.ErrUnknownBridge(string(kind))
	}
	return adapter, nil
}

func (e *legExecutor) route(ticker domain.TickerHash, origin, destination domain.DomainID) (domain.Route, error) {
	asset, ok := e.assets.Address(ticker, origin)
	if !ok {
		return domain.Route{}, apperror.ErrMissingAsset(string(ticker), string(origin))
	}
	return domain.Route{Asset: asset, Origin: origin, Destination: destination}, nil
}

// execute builds and submits the leg's transactions in order. It returns the
// receipt of the bridge transfer itself and the amount actually bridged.
func (e *legExecutor) execute(
	ctx context.Context,
	ticker domain.TickerHash,
	leg domain.Leg,
	amount *uint256.Int,
	recipient common.Address,
) (domain.Receipt, *uint256.Int, error) {
	adapter, err := e.adapter(leg.Bridge)
	if err != nil {
		return domain.Receipt{}, nil, err
	}
	route, err := e.route(ticker, leg.Origin, leg.Destination)
	if err != nil {
		return domain.Receipt{}, nil, err
	}

	txs, err := adapter.BuildTransfer(ctx, e.sender, recipient, amount, route)
	if err != nil {
		return domain.Receipt{}, nil, asSubmissionError(err)
	}
	if len(txs) == 0 {
		return domain.Receipt{}, nil, apperror.ErrSubmissionFailed(errors.New("bridge returned no transactions"))
	}

	var (
		transfer *domain.Receipt
		last     domain.Receipt
	)
	effective := amount
	for _, mtx := range txs {
		if mtx.EffectiveAmount != nil && !mtx.EffectiveAmount.IsZero() {
			effective = mtx.EffectiveAmount
		}
		receipt, err := e.submitter.Submit(ctx, leg.Origin, mtx.Tx)
		if err != nil {
			return domain.Receipt{}, nil, asSubmissionError(err)
		}
		receipt.Memo = mtx.Memo
		last = *receipt

		e.log.Info().
			Str("bridge", string(leg.Bridge)).
			Str("origin", string(leg.Origin)).
			Str("destination", string(leg.Destination)).
			Str("memo", string(mtx.Memo)).
			Str("tx_hash", receipt.TransactionHash.Hex()).
			Msg("leg transaction confirmed")

		if mtx.Memo == domain.TxMemoRebalance {
			r := *receipt
			transfer = &r
		}
	}
	if transfer == nil {
		transfer = &last
	}
	return *transfer, effective.Clone(), nil
}

// asSubmissionError keeps classified errors and marks the rest as submission failures.
func asSubmissionError(err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperror.ErrSubmissionFailed(err)
}
