package block

import "errors"

var (
	// ErrTooManyTransactions is returned by Validate when a block carries
	// more transactions than its template allows.
	ErrTooManyTransactions = errors.New("block: transaction count exceeds limit")
	// ErrComputeBudgetExceeded is returned by Validate when a block's
	// estimated compute units exceed its template's budget.
	ErrComputeBudgetExceeded = errors.New("block: compute unit budget exceeded")
	// ErrMissingBundleTransaction is returned by Validate when a listed
	// bundle's transaction is absent from the block's transaction list.
	ErrMissingBundleTransaction = errors.New("block: bundle transaction missing from block")
)
