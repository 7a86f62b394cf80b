// Package block packs ranked winning bundles into a size- and
// compute-budgeted block.
package block

import (
	"encoding/binary"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"

	"github.com/flashauction/blockengine/bundle"
)

// computeUnitsPerTransaction is the prevailing simplified estimator: a
// fixed per-transaction compute cost.
const computeUnitsPerTransaction = 5000

// Template is the slot's pre-committed frame the assembler packs against.
type Template struct {
	Slot            uint64
	ParentHash      common.Hash
	LeaderPubkey    common.Address
	MaxTransactions int
	MaxComputeUnits uint64
}

// Block is the output of assembly.
type Block struct {
	Slot                  uint64
	ParentHash            common.Hash
	Blockhash             common.Hash
	LeaderPubkey          common.Address
	Timestamp             time.Time
	Transactions          []bundle.RawTransaction
	Bundles               []bundle.Bundle
	TotalFees             uint64
	TotalTips             uint64
	EstimatedComputeUnits uint64
}

// Assemble packs winners, already tip-descending, into a Block that
// respects tmpl's transaction-count and compute-unit limits. Bundles that
// don't fit are silently dropped (logged at warn) — a later, smaller
// bundle may still fit, so packing never stops early.
func Assemble(tmpl Template, winners []bundle.Bundle) Block {
	now := time.Now()

	b := Block{
		Slot:         tmpl.Slot,
		ParentHash:   tmpl.ParentHash,
		LeaderPubkey: tmpl.LeaderPubkey,
		Timestamp:    now,
	}

	includedHashes := mapset.NewThreadUnsafeSet[[32]byte]()

	for _, candidate := range winners {
		cu := uint64(len(candidate.Transactions)) * computeUnitsPerTransaction

		if len(b.Transactions)+len(candidate.Transactions) > tmpl.MaxTransactions {
			log.Warn("Block: bundle skipped, exceeds transaction limit", "bundle", candidate.ID, "slot", tmpl.Slot)
			continue
		}
		if b.EstimatedComputeUnits+cu > tmpl.MaxComputeUnits {
			log.Warn("Block: bundle skipped, exceeds compute budget", "bundle", candidate.ID, "slot", tmpl.Slot)
			continue
		}
		if bundleOverlaps(candidate, includedHashes) {
			log.Warn("Block: bundle skipped, duplicate transaction already packed", "bundle", candidate.ID, "slot", tmpl.Slot)
			continue
		}

		for _, tx := range candidate.Transactions {
			includedHashes.Add(tx.Hash())
		}
		b.Transactions = append(b.Transactions, candidate.Transactions...)
		b.Bundles = append(b.Bundles, candidate)
		b.EstimatedComputeUnits += cu
		b.TotalTips += candidate.TipLamports
	}

	b.TotalFees = uint64(len(b.Transactions)) * computeUnitsPerTransaction
	b.Blockhash = computeBlockhash(now, b.Transactions, b.Bundles)

	return b
}

// bundleOverlaps reports whether any of candidate's transactions have
// already been packed, mirroring the bidTxsSet pattern used to track
// which transaction hashes a candidate bid already commits to.
func bundleOverlaps(candidate bundle.Bundle, included mapset.Set[[32]byte]) bool {
	for _, tx := range candidate.Transactions {
		if included.Contains(tx.Hash()) {
			return true
		}
	}
	return false
}

// computeBlockhash hashes the wall-clock timestamp, then every included
// transaction's canonical bytes, then every included bundle's id string
// bytes, all in order. Because it folds in wall-clock time, two
// assemblies of the same bundles at different instants hash differently
// — this is intentional replay differentiation, not a defect.
func computeBlockhash(ts time.Time, txs []bundle.RawTransaction, bundles []bundle.Bundle) common.Hash {
	data := make([]byte, 0, 8+len(txs)*32)

	var tsBuf [8]byte
	binary.LittleEndian.PutUint64(tsBuf[:], uint64(ts.UnixNano()))
	data = append(data, tsBuf[:]...)

	for _, tx := range txs {
		data = append(data, []byte(tx)...)
	}
	for _, bd := range bundles {
		data = append(data, []byte(bd.ID.String())...)
	}

	return crypto.Keccak256Hash(data)
}

// Validate re-checks an assembled block against tmpl's limits and the
// every-bundle-transaction-present invariant, independent of how it was
// built.
func Validate(tmpl Template, b Block) error {
	if len(b.Transactions) > tmpl.MaxTransactions {
		return ErrTooManyTransactions
	}
	if b.EstimatedComputeUnits > tmpl.MaxComputeUnits {
		return ErrComputeBudgetExceeded
	}

	present := make(map[[32]byte]struct{}, len(b.Transactions))
	for _, tx := range b.Transactions {
		present[tx.Hash()] = struct{}{}
	}
	for _, bd := range b.Bundles {
		for _, tx := range bd.Transactions {
			if _, ok := present[tx.Hash()]; !ok {
				return ErrMissingBundleTransaction
			}
		}
	}

	return nil
}
