package oracle

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chainsafe/crosschain-bridge/pkg/bridge"
)

const txHash = "0x5c504ed432cb51138bcf09aa5e8a410dd4a1e204ef84bfed1be16dfba1b22060"

type mockReceiptReader struct {
	receipt    *types.Receipt
	receiptErr error
	head       uint64
	headErr    error
}

func (m *mockReceiptReader) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	if hash != common.HexToHash(txHash) {
		return nil, ethereum.NotFound
	}
	return m.receipt, m.receiptErr
}

func (m *mockReceiptReader) BlockNumber(context.Context) (uint64, error) {
	return m.head, m.headErr
}

func submitted() *bridge.Request {
	return &bridge.Request{ID: "r1", SourceChain: 1, SourceTxHash: txHash}
}

func TestEVM_CheckBridgeStatus(t *testing.T) {
	success := &types.Receipt{Status: types.ReceiptStatusSuccessful, BlockNumber: big.NewInt(100)}
	reverted := &types.Receipt{Status: types.ReceiptStatusFailed, BlockNumber: big.NewInt(100)}

	tests := []struct {
		name   string
		reader *mockReceiptReader
		want   bridge.Status
		err    bool
	}{
		{"not mined", &mockReceiptReader{receiptErr: ethereum.NotFound}, bridge.StatusPending, false},
		{"reverted", &mockReceiptReader{receipt: reverted, head: 100}, bridge.StatusFailed, false},
		{"too few confirmations", &mockReceiptReader{receipt: success, head: 110}, bridge.StatusPending, false},
		{"confirmed", &mockReceiptReader{receipt: success, head: 111}, bridge.StatusConfirmed, false},
		{"head behind receipt", &mockReceiptReader{receipt: success, head: 50}, bridge.StatusPending, false},
		{"rpc error", &mockReceiptReader{receiptErr: errors.New("dial tcp: refused")}, "", true},
		{"head error", &mockReceiptReader{receipt: success, headErr: errors.New("timeout")}, "", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			o := NewEVM(tc.reader, 12, zap.NewNop())
			got, err := o.CheckBridgeStatus(context.Background(), submitted())
			if tc.err {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEVM_RequiresSourceTx(t *testing.T) {
	o := NewEVM(&mockReceiptReader{}, 0, zap.NewNop())
	_, err := o.CheckBridgeStatus(context.Background(), &bridge.Request{ID: "r1"})
	assert.ErrorIs(t, err, ErrNotSubmitted)
}

type fixedOracle bridge.Status

func (f fixedOracle) CheckBridgeStatus(context.Context, *bridge.Request) (bridge.Status, error) {
	return bridge.Status(f), nil
}

func TestRouter(t *testing.T) {
	r := NewRouter(nil)
	r.Route(1, fixedOracle(bridge.StatusConfirmed))

	got, err := r.CheckBridgeStatus(context.Background(), &bridge.Request{SourceChain: 1})
	require.NoError(t, err)
	assert.Equal(t, bridge.StatusConfirmed, got)

	_, err = r.CheckBridgeStatus(context.Background(), &bridge.Request{SourceChain: 137})
	assert.Error(t, err)

	withFallback := NewRouter(fixedOracle(bridge.StatusFailed))
	withFallback.Route(1, fixedOracle(bridge.StatusConfirmed))
	got, err = withFallback.CheckBridgeStatus(context.Background(), &bridge.Request{SourceChain: 137, SourceTxHash: "0x1"})
	require.NoError(t, err)
	assert.Equal(t, bridge.StatusFailed, got)

	got, err = withFallback.CheckBridgeStatus(context.Background(), &bridge.Request{SourceChain: 1, SourceTxHash: "0x1"})
	require.NoError(t, err)
	assert.Equal(t, bridge.StatusConfirmed, got)

	// no acknowledged hash yet, so only the fallback can answer
	got, err = withFallback.CheckBridgeStatus(context.Background(), &bridge.Request{SourceChain: 1})
	require.NoError(t, err)
	assert.Equal(t, bridge.StatusFailed, got)
}

func TestSimulated(t *testing.T) {
	ctx := context.Background()

	always := NewSimulated(1, 0, 1)
	st, err := always.CheckBridgeStatus(ctx, &bridge.Request{})
	require.NoError(t, err)
	assert.Equal(t, bridge.StatusConfirmed, st)

	never := NewSimulated(0, 0, 1)
	st, err = never.CheckBridgeStatus(ctx, &bridge.Request{})
	require.NoError(t, err)
	assert.Equal(t, bridge.StatusPending, st)

	failing := NewSimulated(0, 1, 1)
	st, err = failing.CheckBridgeStatus(ctx, &bridge.Request{})
	require.NoError(t, err)
	assert.Equal(t, bridge.StatusFailed, st)

	ack, err := always.SubmitBridgeTransaction(ctx, &bridge.Request{})
	require.NoError(t, err)
	assert.Len(t, ack.TxHash, 66)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = always.CheckBridgeStatus(cancelled, &bridge.Request{})
	assert.ErrorIs(t, err, context.Canceled)
}
