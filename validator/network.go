package validator

import (
	"context"
	"sync"

	"github.com/flashauction/blockengine/block"
)

// Network holds a heterogeneous set of validators and dispatches
// submissions to all of them in parallel.
type Network struct {
	validators []*Local
}

// NewNetwork constructs a Network over the given validators.
func NewNetwork(validators ...*Local) *Network {
	return &Network{validators: validators}
}

// Result pairs a validator id with the outcome it returned.
type Result struct {
	ValidatorID string
	Outcome     Outcome
}

// SubmitAll dispatches a copy of b to every validator in the network
// concurrently and returns one Result per validator. The consensus
// fraction (accepted / N) is left to the caller to compute; the network
// enforces no threshold itself.
func (n *Network) SubmitAll(ctx context.Context, b block.Block) []Result {
	results := make([]Result, len(n.validators))
	var wg sync.WaitGroup

	for i, v := range n.validators {
		wg.Add(1)
		go func(i int, v *Local) {
			defer wg.Done()
			results[i] = Result{ValidatorID: v.ID, Outcome: v.Submit(ctx, b)}
		}(i, v)
	}

	wg.Wait()
	return results
}

// ConsensusFraction returns accepted / N over results. Returns 0 for an
// empty result set.
func ConsensusFraction(results []Result) float64 {
	if len(results) == 0 {
		return 0
	}
	accepted := 0
	for _, r := range results {
		if r.Outcome.Accepted {
			accepted++
		}
	}
	return float64(accepted) / float64(len(results))
}
