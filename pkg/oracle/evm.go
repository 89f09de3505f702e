// Package oracle provides bridge.StatusOracle implementations.
package oracle

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"github.com/chainsafe/crosschain-bridge/pkg/bridge"
)

// ErrNotSubmitted is returned when a request has no source transaction to check.
var ErrNotSubmitted = errors.New("bridge request has no source transaction")

// ReceiptReader is the part of an Ethereum client the EVM oracle needs.
// *ethclient.Client satisfies it.
type ReceiptReader interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	BlockNumber(ctx context.Context) (uint64, error)
}

// EVM reports bridge status from the receipt of the source transaction.
// A missing receipt is pending, a reverted one is failed and a successful one
// is confirmed once it is buried under the configured number of blocks.
type EVM struct {
	client        ReceiptReader
	confirmations uint64
	logger        *zap.Logger
}

// NewEVM creates an EVM oracle. confirmations below one are treated as one.
func NewEVM(client ReceiptReader, confirmations uint64, logger *zap.Logger) *EVM {
	if confirmations == 0 {
		confirmations = 1
	}
	return &EVM{client: client, confirmations: confirmations, logger: logger}
}

// DialEVM connects to rpcURL and returns an EVM oracle backed by it.
func DialEVM(rpcURL string, confirmations uint64, logger *zap.Logger) (*EVM, error) {
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to EVM RPC: %w", err)
	}
	return NewEVM(client, confirmations, logger), nil
}

// CheckBridgeStatus implements bridge.StatusOracle.
func (o *EVM) CheckBridgeStatus(ctx context.Context, req *bridge.Request) (bridge.Status, error) {
	if req.SourceTxHash == "" {
		return "", ErrNotSubmitted
	}
	hash := common.HexToHash(req.SourceTxHash)

	receipt, err := o.client.TransactionReceipt(ctx, hash)
	if errors.Is(err, ethereum.NotFound) {
		return bridge.StatusPending, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get receipt for %s: %w", hash.Hex(), err)
	}

	if receipt.Status == types.ReceiptStatusFailed {
		return bridge.StatusFailed, nil
	}

	head, err := o.client.BlockNumber(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get block number: %w", err)
	}
	mined := receipt.BlockNumber.Uint64()
	if head < mined || head-mined+1 < o.confirmations {
		o.logger.Debug("Source transaction awaiting confirmations",
			zap.String("request_id", req.ID),
			zap.String("tx_hash", hash.Hex()),
			zap.Uint64("block", mined),
			zap.Uint64("head", head),
		)
		return bridge.StatusPending, nil
	}
	return bridge.StatusConfirmed, nil
}
