// Package engine wires the bundle pool, admission filter, auction
// window, block assembler, and validator network into a per-slot
// pipeline.
package engine

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"

	"github.com/flashauction/blockengine/admission"
	"github.com/flashauction/blockengine/auction"
	"github.com/flashauction/blockengine/block"
	"github.com/flashauction/blockengine/bundle"
	"github.com/flashauction/blockengine/config"
	"github.com/flashauction/blockengine/pool"
	"github.com/flashauction/blockengine/queue"
	"github.com/flashauction/blockengine/simclient"
	"github.com/flashauction/blockengine/validator"
)

var slotTimer = metrics.NewRegisteredTimer("engine/slot/duration", nil)

// SlotContext carries the per-slot framing the caller supplies — the
// engine has no notion of chain head or leader schedule of its own.
type SlotContext struct {
	Slot         uint64
	ParentHash   common.Hash
	LeaderPubkey common.Address
}

// SlotResult is everything one pipeline run produced.
type SlotResult struct {
	Slot             uint64
	Block            block.Block
	ValidatorResults []validator.Result
}

// Engine owns one running instance of the collect -> simulate -> rank ->
// pack -> submit pipeline.
type Engine struct {
	cfg        config.EngineConfig
	pool       *pool.Pool
	filter     *admission.Filter
	validators *validator.Network
	queue      queue.BundleQueue

	running  atomic.Bool
	exitCh   chan struct{}
	slotCh   chan SlotContext
	resultCh chan SlotResult
}

// New constructs an Engine. queue may be nil, in which case bundles are
// pulled from pool.Pending instead of an external FIFO.
func New(cfg config.EngineConfig, client simclient.RPCClient, validators *validator.Network, q queue.BundleQueue) *Engine {
	return &Engine{
		cfg:        cfg,
		pool:       pool.New(cfg.MaxPoolSize),
		filter:     admission.New(client),
		validators: validators,
		queue:      q,
		exitCh:     make(chan struct{}),
		slotCh:     make(chan SlotContext, 1),
		resultCh:   make(chan SlotResult, 1),
	}
}

// Pool exposes the engine's bundle pool, e.g. for a status HTTP handler.
func (e *Engine) Pool() *pool.Pool { return e.pool }

// Start marks the engine running and launches its main loop.
func (e *Engine) Start() {
	e.running.Store(true)
	go e.mainLoop()
}

// Stop marks the engine as not running; in-flight work finishes, but no
// new slot ticks are accepted.
func (e *Engine) Stop() {
	e.running.Store(false)
}

// Close stops the engine and releases its main loop goroutine. Safe to
// call once.
func (e *Engine) Close() {
	e.running.Store(false)
	close(e.exitCh)
}

func (e *Engine) isRunning() bool {
	return e.running.Load()
}

// Submit enqueues a slot for processing and blocks until its result is
// ready or the engine is closed.
func (e *Engine) Submit(ctx context.Context, slot SlotContext) (SlotResult, bool) {
	select {
	case e.slotCh <- slot:
	case <-e.exitCh:
		return SlotResult{}, false
	case <-ctx.Done():
		return SlotResult{}, false
	}

	select {
	case res := <-e.resultCh:
		return res, true
	case <-e.exitCh:
		return SlotResult{}, false
	case <-ctx.Done():
		return SlotResult{}, false
	}
}

// mainLoop receives slot requests and runs one full pipeline per tick,
// selecting over the work channel and exitCh.
func (e *Engine) mainLoop() {
	for {
		select {
		case slot := <-e.slotCh:
			if !e.isRunning() {
				continue
			}
			e.resultCh <- e.runSlot(context.Background(), slot)

		case <-e.exitCh:
			return
		}
	}
}

// runSlot executes one collect -> simulate -> rank -> pack -> submit
// pipeline for a single slot.
func (e *Engine) runSlot(ctx context.Context, slot SlotContext) SlotResult {
	slotStart := time.Now()
	defer slotTimer.UpdateSince(slotStart)

	window := auction.NewWindow(slot.Slot, e.cfg.AuctionDurationMS, e.cfg.MaxBundlesForBlock)

	e.collectBundles(ctx, slot.Slot, window)

	remaining := time.Duration(e.cfg.AuctionDurationMS)*time.Millisecond - time.Since(timeOrigin(window))
	if remaining > 0 {
		time.Sleep(remaining)
	}

	winners := window.Select()

	tmpl := block.Template{
		Slot:            slot.Slot,
		ParentHash:      slot.ParentHash,
		LeaderPubkey:    slot.LeaderPubkey,
		MaxTransactions: e.cfg.MaxTransactionsPerBlock,
		MaxComputeUnits: e.cfg.MaxComputeUnitsPerBlock,
	}
	assembled := block.Assemble(tmpl, winners)

	var results []validator.Result
	if e.validators != nil {
		results = e.validators.SubmitAll(ctx, assembled)
	}

	log.Info("Engine: slot pipeline complete", "slot", slot.Slot, "winners", len(winners), "transactions", len(assembled.Transactions))

	return SlotResult{Slot: slot.Slot, Block: assembled, ValidatorResults: results}
}

// collectBundles pulls bundles for slot either from the external queue
// (if configured) or from the pool, validates each through admission,
// and feeds the survivors into window.
func (e *Engine) collectBundles(ctx context.Context, slot uint64, window *auction.Window) {
	var candidates []bundle.Bundle

	if e.queue != nil {
		popped, err := e.queue.PopAll(ctx, slot)
		if err != nil {
			log.Warn("Engine: queue pop failed", "slot", slot, "err", err)
		} else {
			candidates = popped
			if err := e.queue.Delete(ctx, slot); err != nil {
				log.Warn("Engine: queue delete failed", "slot", slot, "err", err)
			}
		}
	} else {
		candidates = e.pool.Pending(e.cfg.MaxPoolSize)
	}

	for _, b := range candidates {
		if err := e.filter.ValidateBundle(ctx, b); err != nil {
			log.Debug("Engine: bundle failed admission", "bundle", b.ID, "err", err)
			continue
		}
		window.TryAdd(b)
	}
}

// timeOrigin is a small seam so runSlot's sleep-to-deadline math reads
// off the window's own clock rather than duplicating time.Now() calls.
func timeOrigin(w *auction.Window) time.Time {
	return w.StartedAt()
}
