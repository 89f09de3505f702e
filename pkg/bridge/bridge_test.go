package bridge

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainsafe/crosschain-bridge/pkg/liquidity"
)

func TestStatus(t *testing.T) {
	assert.False(t, StatusPending.IsTerminal())
	for _, s := range []Status{StatusConfirmed, StatusFailed, StatusExpired} {
		assert.True(t, s.IsTerminal(), s)
		assert.True(t, s.Valid(), s)
	}

	st, err := ParseStatus("confirmed")
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, st)

	_, err = ParseStatus("done")
	assert.Error(t, err)
}

func TestRequest_CloneIsDeep(t *testing.T) {
	now := time.Now()
	r := &Request{ID: "a", Amount: big.NewInt(5), Fee: big.NewInt(1), ResolvedAt: &now}
	c := r.Clone()

	c.Amount.SetInt64(99)
	c.Fee.SetInt64(99)
	*c.ResolvedAt = now.Add(time.Hour)

	assert.Equal(t, "5", r.Amount.String())
	assert.Equal(t, "1", r.Fee.String())
	assert.Equal(t, now, *r.ResolvedAt)
}

func TestVolume(t *testing.T) {
	v := NewVolume()
	v.Add(137, big.NewInt(100))
	v.Add(137, big.NewInt(50))
	v.Add(10, big.NewInt(7))

	assert.Equal(t, "157", v.Total.String())
	assert.Equal(t, "150", v.ByChain[137].String())

	resp := NewVolumeResponse(v)
	assert.Equal(t, map[string]string{"10": "7", "137": "150"}, resp.ByChain)
}

func TestErrInsufficientLiquidity_MatchesLiquidityError(t *testing.T) {
	err := errors.Join(errors.New("ctx"), liquidity.ErrInsufficientLiquidity)
	assert.ErrorIs(t, err, ErrInsufficientLiquidity)
}

func TestListenerFunc(t *testing.T) {
	var got *Request
	var l Listener = ListenerFunc(func(_ context.Context, r *Request) { got = r })

	req := &Request{ID: "x"}
	l.BridgeResolved(context.Background(), req)
	assert.Same(t, req, got)
}
