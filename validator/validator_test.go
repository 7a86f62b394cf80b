package validator

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flashauction/blockengine/block"
	"github.com/flashauction/blockengine/bundle"
)

func sampleBlock(t *testing.T, txCount int) block.Block {
	t.Helper()
	tmpl := block.Template{MaxTransactions: 10, MaxComputeUnits: 1_000_000}
	txs := make([]bundle.RawTransaction, txCount)
	for i := range txs {
		txs[i] = bundle.RawTransaction([]byte{byte(i)})
	}
	b := bundle.New(txs, 100, "searcher")
	return block.Assemble(tmpl, []bundle.Bundle{b})
}

func TestSubmitAcceptsWithinLimits(t *testing.T) {
	v := NewLocal("v1", Limits{MaxTransactions: 10, MaxComputeUnits: 1_000_000}, 0, 0)
	b := sampleBlock(t, 2)

	outcome := v.Submit(context.Background(), b)
	assert.True(t, outcome.Accepted)
	assert.NotEmpty(t, outcome.Signature)
}

func TestSubmitRejectsWhenStricterThanAssembler(t *testing.T) {
	v := NewLocal("v1", Limits{MaxTransactions: 1, MaxComputeUnits: 1_000_000}, 0, 0)
	b := sampleBlock(t, 2)

	outcome := v.Submit(context.Background(), b)
	assert.False(t, outcome.Accepted)
	assert.NotEmpty(t, outcome.Reason)
}

func TestSubmitAlwaysFailsAtFailureRateOne(t *testing.T) {
	v := NewLocal("v1", Limits{MaxTransactions: 10, MaxComputeUnits: 1_000_000}, 1.0, 0)
	b := sampleBlock(t, 1)

	outcome := v.Submit(context.Background(), b)
	assert.False(t, outcome.Accepted)
}

func TestSubmitNeverFailsAtFailureRateZero(t *testing.T) {
	v := NewLocal("v1", Limits{MaxTransactions: 10, MaxComputeUnits: 1_000_000}, 0, 0)
	for i := 0; i < 20; i++ {
		outcome := v.Submit(context.Background(), sampleBlock(t, 1))
		assert.True(t, outcome.Accepted)
	}
}

func TestStatsOnlyAggregateAcceptedBlocks(t *testing.T) {
	v := NewLocal("v1", Limits{MaxTransactions: 1, MaxComputeUnits: 1_000_000}, 0, 0)
	require.True(t, v.Submit(context.Background(), sampleBlock(t, 1)).Accepted)
	require.False(t, v.Submit(context.Background(), sampleBlock(t, 2)).Accepted)

	stats := v.Stats()
	assert.Equal(t, 1, stats.Accepted)
	assert.Equal(t, 1, stats.Rejected)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 0.5, stats.AcceptanceRate)
	assert.Equal(t, 1, stats.TotalTransactions)
}

func TestNetworkSubmitAllDispatchesToEveryValidator(t *testing.T) {
	v1 := NewLocal("v1", Limits{MaxTransactions: 10, MaxComputeUnits: 1_000_000}, 0, 0)
	v2 := NewLocal("v2", Limits{MaxTransactions: 1, MaxComputeUnits: 1_000_000}, 0, 0)
	net := NewNetwork(v1, v2)

	results := net.SubmitAll(context.Background(), sampleBlock(t, 2))
	require.Len(t, results, 2)

	byID := map[string]Result{}
	for _, r := range results {
		byID[r.ValidatorID] = r
	}
	assert.True(t, byID["v1"].Outcome.Accepted)
	assert.False(t, byID["v2"].Outcome.Accepted)

	fraction := ConsensusFraction(results)
	assert.Equal(t, 0.5, fraction)
}

func TestConsensusFractionEmptyIsZero(t *testing.T) {
	assert.Equal(t, float64(0), ConsensusFraction(nil))
}

func TestSubmitUsesBlockTemplateFields(t *testing.T) {
	v := NewLocal("v1", Limits{MaxTransactions: 10, MaxComputeUnits: 1_000_000}, 0, 0)
	b := sampleBlock(t, 1)
	b.LeaderPubkey = common.HexToAddress("0xabc")

	outcome := v.Submit(context.Background(), b)
	assert.True(t, outcome.Accepted)
}
