// Package admission gates bundles into the pool by re-simulating every
// transaction they carry against current chain state.
package admission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"

	"github.com/flashauction/blockengine/bundle"
	"github.com/flashauction/blockengine/simclient"
)

var admissionTimer = metrics.NewRegisteredTimer("admission/validate/duration", nil)

// SimulationFailed wraps the first simulation failure encountered while
// validating a bundle. Detail carries the failing transaction's reported
// error text.
type SimulationFailed struct {
	Detail string
}

func (e *SimulationFailed) Error() string {
	return fmt.Sprintf("admission: simulation failed: %s", e.Detail)
}

// Filter validates bundles against a chain RPC client before they are
// admitted to the pool.
type Filter struct {
	client simclient.RPCClient
}

// New constructs a Filter backed by client.
func New(client simclient.RPCClient) *Filter {
	return &Filter{client: client}
}

// ValidateBundle rejects b if its structural check fails, then simulates
// every transaction sequentially in the bundle's intrinsic order, failing
// the whole bundle at the first unsuccessful simulation. No transaction
// after the first failure is simulated.
func (f *Filter) ValidateBundle(ctx context.Context, b bundle.Bundle) error {
	simStart := time.Now()
	defer admissionTimer.UpdateSince(simStart)

	if err := b.Validate(); err != nil {
		log.Debug("Admission: structural check failed", "bundle", b.ID, "err", err)
		return err
	}

	for i, tx := range b.Transactions {
		res, err := f.client.SimulateTransaction(ctx, tx)
		if err != nil {
			log.Warn("Admission: simulation RPC error", "bundle", b.ID, "index", i, "err", err)
			return &SimulationFailed{Detail: err.Error()}
		}
		if !res.Success {
			log.Debug("Admission: transaction simulation rejected bundle", "bundle", b.ID, "index", i, "reason", res.Error)
			return &SimulationFailed{Detail: res.Error}
		}
	}

	return nil
}

// AsSimulationFailed reports whether err is a *SimulationFailed and returns it.
func AsSimulationFailed(err error) (*SimulationFailed, bool) {
	var sf *SimulationFailed
	if errors.As(err, &sf) {
		return sf, true
	}
	return nil, false
}
