// Package simclient abstracts the chain RPC endpoint the admission filter
// depends on. The core never references a concrete chain client; it only
// talks to the RPCClient capability set defined here.
package simclient

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/flashauction/blockengine/bundle"
)

// SimulationResult is the outcome of simulating a single transaction
// against current chain state.
type SimulationResult struct {
	Success              bool
	Logs                 []string
	AccountsAccessed     []common.Address
	ComputeUnitsConsumed uint64
	Error                string
}

// Account is a minimal account snapshot returned by GetAccount.
type Account struct {
	Address    common.Address
	Balance    uint64
	Owner      common.Address
	Executable bool
}

// RPCClient is the capability set the admission filter needs from the
// chain. Implementations may suspend on network I/O; callers impose any
// timeout externally; there is no built-in simulation timeout here.
type RPCClient interface {
	SimulateTransaction(ctx context.Context, tx bundle.RawTransaction) (SimulationResult, error)
	GetAccount(ctx context.Context, addr common.Address) (*Account, error)
	GetLatestBlockhash(ctx context.Context) (common.Hash, error)
}
