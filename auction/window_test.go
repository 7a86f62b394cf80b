package auction

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flashauction/blockengine/bundle"
)

func bundleWithTip(t *testing.T, tip uint64, idSuffix string) bundle.Bundle {
	t.Helper()
	b := bundle.New([]bundle.RawTransaction{[]byte("tx")}, tip, "searcher")
	return b
}

func TestRankOrdersByTipDescending(t *testing.T) {
	w := NewWindow(1, 10_000, 10)
	tips := []uint64{1_000_000, 2_000_000, 500_000, 1_500_000}
	for _, tip := range tips {
		require.True(t, w.TryAdd(bundleWithTip(t, tip, "")))
	}

	ranked := w.Rank()
	require.Len(t, ranked, 4)
	assert.Equal(t, uint64(2_000_000), ranked[0].TipLamports)
	assert.Equal(t, uint64(1_500_000), ranked[1].TipLamports)
	assert.Equal(t, uint64(1_000_000), ranked[2].TipLamports)
	assert.Equal(t, uint64(500_000), ranked[3].TipLamports)
}

func TestSelectTakesTopKInDeterministicOrder(t *testing.T) {
	w := NewWindow(1, 10_000, 2)
	for _, tip := range []uint64{1_000_000, 2_000_000, 500_000, 1_500_000} {
		require.True(t, w.TryAdd(bundleWithTip(t, tip, "")))
	}

	winners := w.Select()
	require.Len(t, winners, 2)
	assert.Equal(t, uint64(2_000_000), winners[0].TipLamports)
	assert.Equal(t, uint64(1_500_000), winners[1].TipLamports)
	assert.Equal(t, Selected, w.State())
}

func TestSelectTakesAllWhenFewerThanK(t *testing.T) {
	w := NewWindow(1, 10_000, 5)
	require.True(t, w.TryAdd(bundleWithTip(t, 1, "")))
	require.True(t, w.TryAdd(bundleWithTip(t, 2, "")))

	winners := w.Select()
	assert.Len(t, winners, 2)
}

func TestTieBreakByIDAscending(t *testing.T) {
	w := NewWindow(1, 10_000, 2)
	a := bundle.New([]bundle.RawTransaction{[]byte("tx")}, 1_000_000, "s")
	b := bundle.New([]bundle.RawTransaction{[]byte("tx")}, 1_000_000, "s")
	lo, hi := a, b
	if bytesCompareUUID(b.ID, a.ID) < 0 {
		lo, hi = b, a
	}
	require.True(t, w.TryAdd(hi))
	require.True(t, w.TryAdd(lo))

	ranked := w.Rank()
	require.Len(t, ranked, 2)
	assert.Equal(t, lo.ID, ranked[0].ID)
	assert.Equal(t, hi.ID, ranked[1].ID)
}

func bytesCompareUUID(a, b bundle.ID) int {
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

func TestWindowClosesAfterDurationAndDropsLateAdds(t *testing.T) {
	w := NewWindow(1, 50, 10)
	assert.True(t, w.TryAdd(bundleWithTip(t, 1, "")))

	time.Sleep(60 * time.Millisecond)

	assert.False(t, w.IsOpen())
	assert.False(t, w.TryAdd(bundleWithTip(t, 2, "")))

	winners := w.Select()
	assert.Len(t, winners, 1)
}

func TestStatsEmptyWindow(t *testing.T) {
	w := NewWindow(1, 10_000, 5)
	stats := w.Stats()
	assert.Equal(t, 0, stats.TotalBundles)
	assert.Equal(t, uint64(0), stats.HighestTip)
	assert.Equal(t, uint64(0), stats.LowestTip)
	assert.Equal(t, uint64(0), stats.AvgTip)
}

func TestStatsNonEmptyWindow(t *testing.T) {
	w := NewWindow(1, 10_000, 5)
	require.True(t, w.TryAdd(bundleWithTip(t, 100, "")))
	require.True(t, w.TryAdd(bundleWithTip(t, 300, "")))

	stats := w.Stats()
	assert.Equal(t, 2, stats.TotalBundles)
	assert.Equal(t, uint64(300), stats.HighestTip)
	assert.Equal(t, uint64(100), stats.LowestTip)
	assert.Equal(t, uint64(400), stats.TotalTipValue)
	assert.Equal(t, uint64(200), stats.AvgTip)
}

func TestCollectStreamingAdmissionRacesTimeout(t *testing.T) {
	w := NewWindow(1, 50, 10)
	in := make(chan bundle.Bundle, 4)
	in <- bundleWithTip(t, 1, "")
	in <- bundleWithTip(t, 2, "")

	w.Collect(in)

	winners := w.Select()
	assert.Len(t, winners, 2)
}

func TestCollectTerminatesEarlyWhenChannelCloses(t *testing.T) {
	w := NewWindow(1, 10_000, 10)
	in := make(chan bundle.Bundle)
	close(in)

	done := make(chan struct{})
	go func() {
		w.Collect(in)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Collect did not terminate when channel closed")
	}
}

func TestRepeatedRankIsDeterministic(t *testing.T) {
	w := NewWindow(1, 10_000, 10)
	for _, tip := range []uint64{10, 30, 20} {
		require.True(t, w.TryAdd(bundleWithTip(t, tip, "")))
	}

	first := w.Rank()
	second := w.Rank()
	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}
}
