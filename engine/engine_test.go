package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flashauction/blockengine/bundle"
	"github.com/flashauction/blockengine/config"
	"github.com/flashauction/blockengine/queue"
	"github.com/flashauction/blockengine/simclient"
	"github.com/flashauction/blockengine/validator"
)

func testConfig() config.EngineConfig {
	cfg := config.Defaults()
	cfg.AuctionDurationMS = 20
	cfg.MaxBundlesForBlock = 2
	cfg.MaxTransactionsPerBlock = 10
	cfg.MaxComputeUnitsPerBlock = 1_000_000
	cfg.MaxPoolSize = 100
	return cfg
}

func TestEngineRunsSlotFromPool(t *testing.T) {
	client := simclient.NewMockClient()
	v := validator.NewLocal("v1", validator.Limits{MaxTransactions: 10, MaxComputeUnits: 1_000_000}, 0, 0)
	net := validator.NewNetwork(v)
	e := New(testConfig(), client, net, nil)

	require.NoError(t, e.Pool().Add(bundle.New([]bundle.RawTransaction{[]byte("tx1")}, 100, "s1")))
	require.NoError(t, e.Pool().Add(bundle.New([]bundle.RawTransaction{[]byte("tx2")}, 200, "s2")))

	e.Start()
	defer e.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	res, ok := e.Submit(ctx, SlotContext{Slot: 1})
	require.True(t, ok)
	assert.Len(t, res.Block.Bundles, 2)
	assert.Equal(t, uint64(300), res.Block.TotalTips)
	require.Len(t, res.ValidatorResults, 1)
	assert.True(t, res.ValidatorResults[0].Outcome.Accepted)
}

func TestEngineDropsBundlesFailingAdmission(t *testing.T) {
	client := simclient.NewMockClient()
	bad := bundle.New([]bundle.RawTransaction{[]byte("bad-tx")}, 500, "s")
	client.FailTransaction(bad.Transactions[0], "rejected")

	v := validator.NewLocal("v1", validator.Limits{MaxTransactions: 10, MaxComputeUnits: 1_000_000}, 0, 0)
	net := validator.NewNetwork(v)
	e := New(testConfig(), client, net, nil)

	require.NoError(t, e.Pool().Add(bad))
	require.NoError(t, e.Pool().Add(bundle.New([]bundle.RawTransaction{[]byte("ok-tx")}, 10, "s2")))

	e.Start()
	defer e.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	res, ok := e.Submit(ctx, SlotContext{Slot: 1})
	require.True(t, ok)
	require.Len(t, res.Block.Bundles, 1)
	assert.Equal(t, uint64(10), res.Block.TotalTips)
}

func TestEngineUsesExternalQueueWhenConfigured(t *testing.T) {
	client := simclient.NewMockClient()
	v := validator.NewLocal("v1", validator.Limits{MaxTransactions: 10, MaxComputeUnits: 1_000_000}, 0, 0)
	net := validator.NewNetwork(v)
	q := queue.NewChannelQueue(10)
	e := New(testConfig(), client, net, q)

	require.NoError(t, q.Push(1, bundle.New([]bundle.RawTransaction{[]byte("tx")}, 50, "s")))

	e.Start()
	defer e.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	res, ok := e.Submit(ctx, SlotContext{Slot: 1})
	require.True(t, ok)
	require.Len(t, res.Block.Bundles, 1)
	assert.Equal(t, uint64(50), res.Block.TotalTips)
}

func TestEngineCloseUnblocksSubmit(t *testing.T) {
	// No Start(): the main loop never drains slotCh, so Submit's wait on
	// resultCh can only end via Close().
	client := simclient.NewMockClient()
	e := New(testConfig(), client, nil, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, ok := e.Submit(context.Background(), SlotContext{Slot: 99})
		assert.False(t, ok)
	}()

	time.Sleep(10 * time.Millisecond)
	e.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Submit did not unblock after Close")
	}
}
