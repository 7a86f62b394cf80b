package auction

import (
	"container/heap"
	"sync"

	"github.com/flashauction/blockengine/bundle"
)

// bundleHeap is a max-heap of bundles keyed on tip alone, implementing
// container/heap.Interface. Ties are broken by internal heap order, which
// is not stable across arbitrary Push/Pop interleavings.
type bundleHeap []bundle.Bundle

func (h bundleHeap) Len() int { return len(h) }

func (h bundleHeap) Less(i, j int) bool {
	return h[i].TipLamports > h[j].TipLamports
}

func (h bundleHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *bundleHeap) Push(x any) {
	*h = append(*h, x.(bundle.Bundle))
}

func (h *bundleHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Heap is the non-deterministic, not-time-bounded ad-hoc auction variant:
// a concurrency-safe max-heap keyed on tip alone. It exists for ad-hoc
// re-runs and tooling, not for real slots — the canonical path is Window,
// whose ranking is total-ordered and deterministic. Bundles may be added
// concurrently with Pop; the resulting order among equal-tip bundles
// depends on arrival interleaving and is not reproducible.
type Heap struct {
	mu sync.Mutex
	h  bundleHeap
}

// NewHeap returns an empty Heap.
func NewHeap() *Heap {
	h := &Heap{}
	heap.Init(&h.h)
	return h
}

// Add pushes b onto the heap. Safe to call concurrently with PopK.
func (a *Heap) Add(b bundle.Bundle) {
	a.mu.Lock()
	defer a.mu.Unlock()
	heap.Push(&a.h, b)
}

// PopK pops up to k winners in tip-descending order. If fewer than k
// bundles are present, it returns all of them.
func (a *Heap) PopK(k int) []bundle.Bundle {
	a.mu.Lock()
	defer a.mu.Unlock()

	winners := make([]bundle.Bundle, 0, k)
	for i := 0; i < k && a.h.Len() > 0; i++ {
		winners = append(winners, heap.Pop(&a.h).(bundle.Bundle))
	}
	return winners
}

// Len reports the number of bundles currently held.
func (a *Heap) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.h.Len()
}
