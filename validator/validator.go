// Package validator revalidates assembled blocks against per-validator
// limits and records accept/reject outcomes, singly and fanned out
// across a network of validators.
package validator

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
	"github.com/holiman/uint256"

	"github.com/flashauction/blockengine/block"
)

// Limits are a validator's own packing limits, which may be stricter
// than the assembler's template.
type Limits struct {
	MaxTransactions int
	MaxComputeUnits uint64
}

// Outcome is always returned as a value, never as an error — the
// validator is a peer, not a failure mode.
type Outcome struct {
	Accepted  bool
	Signature string
	Reason    string
}

// Stats aggregates a single validator's accept/reject history. Aggregate
// fields (fees, tips, transactions) include only accepted blocks.
type Stats struct {
	ID                string
	Accepted          int
	Rejected          int
	Total             int
	AcceptanceRate    float64
	TotalFees         uint64
	TotalTips         uint64
	TotalTransactions int
}

type rejectedRecord struct {
	Block  block.Block
	Reason string
}

// Local is a single, in-memory validator: it revalidates, optionally
// injects random failures for fault-injection testing, and records every
// outcome.
type Local struct {
	ID                string
	limits            Limits
	failureRate       float64
	verificationDelay time.Duration

	mu       sync.RWMutex
	accepted []block.Block
	rejected []rejectedRecord
}

// NewLocal constructs a validator identified by id, enforcing limits,
// with an optional injected failure rate in [0,1] and an optional
// simulated verification delay.
func NewLocal(id string, limits Limits, failureRate float64, verificationDelay time.Duration) *Local {
	return &Local{
		ID:                id,
		limits:            limits,
		failureRate:       failureRate,
		verificationDelay: verificationDelay,
	}
}

// Submit revalidates b against the validator's own limits, optionally
// rolls a fault-injected rejection, and records the outcome.
func (v *Local) Submit(ctx context.Context, b block.Block) Outcome {
	if v.verificationDelay > 0 {
		select {
		case <-time.After(v.verificationDelay):
		case <-ctx.Done():
			return v.reject(b, "context cancelled during verification delay")
		}
	}

	tmpl := block.Template{
		Slot:            b.Slot,
		ParentHash:      b.ParentHash,
		LeaderPubkey:    b.LeaderPubkey,
		MaxTransactions: v.limits.MaxTransactions,
		MaxComputeUnits: v.limits.MaxComputeUnits,
	}
	if err := block.Validate(tmpl, b); err != nil {
		return v.reject(b, err.Error())
	}

	if v.failureRate > 0 && injectedFailure(v.failureRate) {
		return v.reject(b, "injected random failure")
	}

	return v.accept(b)
}

func (v *Local) accept(b block.Block) Outcome {
	v.mu.Lock()
	v.accepted = append(v.accepted, b)
	v.mu.Unlock()

	sig := uuid.New().String()
	log.Info("Validator: accepted block", "validator", v.ID, "slot", b.Slot, "signature", sig)
	return Outcome{Accepted: true, Signature: sig}
}

func (v *Local) reject(b block.Block, reason string) Outcome {
	v.mu.Lock()
	v.rejected = append(v.rejected, rejectedRecord{Block: b, Reason: reason})
	v.mu.Unlock()

	log.Warn("Validator: rejected block", "validator", v.ID, "slot", b.Slot, "reason", reason)
	return Outcome{Accepted: false, Reason: reason}
}

// Stats returns a snapshot of this validator's accept/reject history.
func (v *Local) Stats() Stats {
	v.mu.RLock()
	defer v.mu.RUnlock()

	s := Stats{
		ID:       v.ID,
		Accepted: len(v.accepted),
		Rejected: len(v.rejected),
	}
	s.Total = s.Accepted + s.Rejected
	if s.Total > 0 {
		s.AcceptanceRate = float64(s.Accepted) / float64(s.Total)
	}

	// Accumulate in 256-bit integers before truncating back to the public
	// uint64 stats fields to avoid overflow across long-lived accumulation.
	totalFees := new(uint256.Int)
	totalTips := new(uint256.Int)
	for _, b := range v.accepted {
		totalFees.Add(totalFees, uint256.NewInt(b.TotalFees))
		totalTips.Add(totalTips, uint256.NewInt(b.TotalTips))
		s.TotalTransactions += len(b.Transactions)
	}
	s.TotalFees = totalFees.Uint64()
	s.TotalTips = totalTips.Uint64()

	return s
}

// injectedFailure draws a pseudo-random value from the current wall-clock
// time and compares it to rate. This is deliberately non-cryptographic
// and exists only for fault injection; it is not part of the safety
// model.
func injectedFailure(rate float64) bool {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d", time.Now().UnixNano())
	draw := float64(h.Sum64()%1_000_000) / 1_000_000
	return draw < rate
}
