// Package auction implements the time-boxed bundle auction: a collector
// races arriving bundles against a deadline, then ranks and selects
// winners deterministically.
package auction

import (
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/flashauction/blockengine/bundle"
)

// State is the auction window's monotonic lifecycle stage. Only
// Open->Closed is timer-driven; the rest advance on explicit calls.
type State int

const (
	Open State = iota
	Closed
	Ranked
	Selected
)

func (s State) String() string {
	switch s {
	case Open:
		return "open"
	case Closed:
		return "closed"
	case Ranked:
		return "ranked"
	case Selected:
		return "selected"
	default:
		return "unknown"
	}
}

// Stats summarizes a window's collected bundles.
type Stats struct {
	WindowID      uint64
	TotalBundles  int
	TotalTipValue uint64
	HighestTip    uint64
	LowestTip     uint64
	AvgTip        uint64
	DurationMS    int64
	ElapsedMS     int64
}

// Window is a single-slot, time-boxed auction. It is owned by its
// collector while Open; once Closed its bundle slice is read-only and
// may be cloned freely without further synchronization.
type Window struct {
	windowID    uint64
	duration    time.Duration
	maxForBlock int
	startTime   time.Time

	mu        sync.Mutex
	state     State
	collected []bundle.Bundle
	ranked    []bundle.Bundle
	winners   []bundle.Bundle
}

// NewWindow creates a window whose clock starts immediately.
func NewWindow(windowID uint64, durationMS int64, maxBundlesForBlock int) *Window {
	return &Window{
		windowID:    windowID,
		duration:    time.Duration(durationMS) * time.Millisecond,
		maxForBlock: maxBundlesForBlock,
		startTime:   time.Now(),
		state:       Open,
	}
}

// IsOpen reports whether the window is still accepting bundles. Once it
// observes elapsed >= duration it transitions to Closed and never
// reopens.
func (w *Window) IsOpen() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.isOpenLocked()
}

func (w *Window) isOpenLocked() bool {
	if w.state != Open {
		return false
	}
	if time.Since(w.startTime) >= w.duration {
		w.state = Closed
		return false
	}
	return true
}

// TryAdd appends b if the window is still open, per the pre-collected
// admission flavor. It returns false (and drops b) if the window has
// closed.
func (w *Window) TryAdd(b bundle.Bundle) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.isOpenLocked() {
		log.Debug("Auction: window closed, dropping bundle", "window", w.windowID, "bundle", b.ID)
		return false
	}
	w.collected = append(w.collected, b)
	return true
}

// Collect runs the streaming admission flavor: it races bundle arrivals
// on in against the window's deadline. It returns when the deadline
// fires or in is closed, whichever happens first.
func (w *Window) Collect(in <-chan bundle.Bundle) {
	timer := time.NewTimer(w.remaining())
	defer timer.Stop()

	for {
		select {
		case b, ok := <-in:
			if !ok {
				w.close()
				return
			}
			if !w.TryAdd(b) {
				return
			}
		case <-timer.C:
			w.close()
			return
		}
	}
}

func (w *Window) remaining() time.Duration {
	left := w.duration - time.Since(w.startTime)
	if left < 0 {
		return 0
	}
	return left
}

func (w *Window) close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == Open {
		w.state = Closed
	}
}

// StartedAt returns the wall-clock instant the window's clock began.
func (w *Window) StartedAt() time.Time {
	return w.startTime
}

// State returns the window's current lifecycle stage.
func (w *Window) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Rank sorts the collected bundles by (tip descending, id ascending) and
// advances the state to Ranked; a window already Selected stays Selected.
// It is idempotent: calling it again re-sorts the same collected set.
func (w *Window) Rank() []bundle.Bundle {
	w.mu.Lock()
	defer w.mu.Unlock()

	ranked := make([]bundle.Bundle, len(w.collected))
	copy(ranked, w.collected)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Less(ranked[j])
	})

	w.ranked = ranked
	if w.state < Ranked {
		w.state = Ranked
	}
	return ranked
}

// Select takes the top maxForBlock bundles from the ranked sequence,
// ranking first if Rank has not yet been called. It advances the state
// to Selected.
func (w *Window) Select() []bundle.Bundle {
	w.mu.Lock()
	needsRank := w.ranked == nil
	w.mu.Unlock()

	if needsRank {
		w.Rank()
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	k := w.maxForBlock
	if k > len(w.ranked) {
		k = len(w.ranked)
	}
	winners := make([]bundle.Bundle, k)
	copy(winners, w.ranked[:k])

	w.winners = winners
	w.state = Selected
	return winners
}

// Stats returns a point-in-time summary of the window's collected set.
func (w *Window) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()

	stats := Stats{
		WindowID:   w.windowID,
		DurationMS: w.duration.Milliseconds(),
		ElapsedMS:  time.Since(w.startTime).Milliseconds(),
	}

	stats.TotalBundles = len(w.collected)
	if stats.TotalBundles == 0 {
		return stats
	}

	stats.HighestTip = w.collected[0].TipLamports
	stats.LowestTip = w.collected[0].TipLamports
	for _, b := range w.collected {
		stats.TotalTipValue += b.TipLamports
		if b.TipLamports > stats.HighestTip {
			stats.HighestTip = b.TipLamports
		}
		if b.TipLamports < stats.LowestTip {
			stats.LowestTip = b.TipLamports
		}
	}
	stats.AvgTip = stats.TotalTipValue / uint64(stats.TotalBundles)

	return stats
}
