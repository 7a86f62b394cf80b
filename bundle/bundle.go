// Package bundle defines the atomic unit of work the auction ranks and the
// block assembler packs: a searcher-submitted group of transactions sharing
// a single priority tip.
package bundle

import (
	"bytes"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
)

const (
	// MinTransactions is the minimum number of transactions a bundle may carry.
	MinTransactions = 1
	// MaxTransactions is the maximum number of transactions a bundle may carry.
	MaxTransactions = 5
)

var (
	// ErrEmptyBundle is returned when a bundle carries no transactions.
	ErrEmptyBundle = errors.New("bundle: cannot be empty")
	// ErrTooManyTransactions is returned when a bundle exceeds MaxTransactions.
	ErrTooManyTransactions = errors.New("bundle: too many transactions (max 5)")
)

// ID is a 128-bit globally unique bundle identifier with a total order on
// its byte representation, used as the deterministic ranking tie-break.
type ID = uuid.UUID

// RawTransaction is an opaque, already-serialized transaction. The core
// treats its content as a byte string; only its length and canonical bytes
// matter to admission, packing, and hashing.
type RawTransaction []byte

// Hash returns the canonical hash of the transaction, used for
// deduplication sets and block validation. The block hash itself folds in
// the raw transaction bytes, not this hash.
func (tx RawTransaction) Hash() [32]byte {
	return crypto.Keccak256Hash(tx)
}

// Bundle is immutable once constructed: Transactions, TipLamports, and
// SearcherPubkey never change after New returns.
type Bundle struct {
	ID             ID
	Transactions   []RawTransaction
	TipLamports    uint64
	SearcherPubkey string
	CreatedAt      time.Time
}

// New constructs a Bundle with a fresh random ID and the current wall-clock
// timestamp. It does not validate; call Validate explicitly to run
// admission checks separately from construction.
func New(transactions []RawTransaction, tipLamports uint64, searcherPubkey string) Bundle {
	return Bundle{
		ID:             uuid.New(),
		Transactions:   transactions,
		TipLamports:    tipLamports,
		SearcherPubkey: searcherPubkey,
		CreatedAt:      time.Now(),
	}
}

// Validate checks the structural invariant: 1 <= len(Transactions) <= 5.
func (b Bundle) Validate() error {
	switch {
	case len(b.Transactions) == 0:
		return ErrEmptyBundle
	case len(b.Transactions) > MaxTransactions:
		return ErrTooManyTransactions
	}
	return nil
}

// Less reports whether b should be ranked ahead of other under the
// auction's deterministic ordering: tip descending, then id ascending.
func (b Bundle) Less(other Bundle) bool {
	if b.TipLamports != other.TipLamports {
		return b.TipLamports > other.TipLamports
	}
	return bytes.Compare(b.ID[:], other.ID[:]) < 0
}
