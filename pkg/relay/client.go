// Package relay is a JSON-RPC client for an external bridge relayer. The
// relayer accepts transfers and reports their settlement, so the client acts
// both as bridge.Submitter and bridge.StatusOracle.
package relay

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ybbus/jsonrpc"
	"go.uber.org/zap"

	"github.com/chainsafe/crosschain-bridge/pkg/bridge"
)

const (
	methodSubmitTransfer    = "bridge_submitTransfer"
	methodGetTransferStatus = "bridge_getTransferStatus"
)

// ErrEmptyAck is returned when the relayer accepts a transfer without a transaction hash.
var ErrEmptyAck = errors.New("relayer returned an empty transaction hash")

// Config holds the relayer endpoint settings.
type Config struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// TransferParams is the payload of bridge_submitTransfer.
type TransferParams struct {
	RequestID     string `json:"request_id"`
	DomainID      string `json:"domain_id"`
	SourceChain   uint64 `json:"source_chain"`
	TargetChain   uint64 `json:"target_chain"`
	Amount        string `json:"amount"`
	Fee           string `json:"fee"`
	TargetAddress string `json:"target_address"`
}

// SubmitResult is the result of bridge_submitTransfer.
type SubmitResult struct {
	TxHash string `json:"tx_hash"`
}

// StatusResult is the result of bridge_getTransferStatus.
type StatusResult struct {
	Status string `json:"status"`
	TxHash string `json:"tx_hash,omitempty"`
}

// Client talks to the relayer.
type Client struct {
	rpc    jsonrpc.RPCClient
	logger *zap.Logger
}

// NewClient creates a relayer client.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	opts := &jsonrpc.RPCClientOpts{
		HTTPClient: &http.Client{Timeout: timeout},
	}
	if cfg.APIKey != "" {
		opts.CustomHeaders = map[string]string{"Authorization": "Bearer " + cfg.APIKey}
	}
	return &Client{
		rpc:    jsonrpc.NewClientWithOpts(cfg.URL, opts),
		logger: logger,
	}
}

// SubmitBridgeTransaction implements bridge.Submitter.
func (c *Client) SubmitBridgeTransaction(ctx context.Context, req *bridge.Request) (*bridge.Ack, error) {
	params := &TransferParams{
		RequestID:     req.ID,
		DomainID:      req.DomainID,
		SourceChain:   req.SourceChain,
		TargetChain:   req.TargetChain,
		Amount:        req.Amount.String(),
		Fee:           req.Fee.String(),
		TargetAddress: req.TargetAddress,
	}

	var res SubmitResult
	if err := c.call(ctx, &res, methodSubmitTransfer, params); err != nil {
		return nil, err
	}
	if res.TxHash == "" {
		return nil, ErrEmptyAck
	}

	c.logger.Debug("Transfer accepted by relayer",
		zap.String("request_id", req.ID),
		zap.String("tx_hash", res.TxHash),
	)
	return &bridge.Ack{TxHash: res.TxHash}, nil
}

// CheckBridgeStatus implements bridge.StatusOracle.
func (c *Client) CheckBridgeStatus(ctx context.Context, req *bridge.Request) (bridge.Status, error) {
	var res StatusResult
	if err := c.call(ctx, &res, methodGetTransferStatus, req.ID); err != nil {
		return "", err
	}

	status, err := bridge.ParseStatus(res.Status)
	if err != nil {
		return "", fmt.Errorf("relayer: %w", err)
	}
	return status, nil
}

// call runs a JSON-RPC call, abandoning it when ctx is done.
func (c *Client) call(ctx context.Context, out any, method string, params ...any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		done <- c.rpc.CallFor(out, method, params...)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			var rpcErr *jsonrpc.RPCError
			if errors.As(err, &rpcErr) {
				return fmt.Errorf("relayer %s failed with code %d: %s", method, rpcErr.Code, rpcErr.Message)
			}
			return fmt.Errorf("relayer %s: %w", method, err)
		}
		return nil
	}
}
