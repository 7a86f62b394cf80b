package simclient

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/flashauction/blockengine/bundle"
)

// MockClient is a test-only RPCClient that always succeeds unless a
// transaction's hash was explicitly marked to fail via FailTransaction.
// It never touches the network and is safe for concurrent use.
type MockClient struct {
	mu       sync.RWMutex
	accounts map[common.Address]Account
	failing  map[[32]byte]string
	blockhash common.Hash
}

// NewMockClient returns a MockClient with no accounts and no forced failures.
func NewMockClient() *MockClient {
	return &MockClient{
		accounts: make(map[common.Address]Account),
		failing:  make(map[[32]byte]string),
	}
}

// AddAccount registers an account snapshot returned by GetAccount.
func (m *MockClient) AddAccount(acc Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[acc.Address] = acc
}

// FailTransaction configures the given transaction (by its canonical hash)
// to fail simulation with reason, per §4.1's "test-only implementation ...
// configured to force a specified transaction signature to fail".
func (m *MockClient) FailTransaction(tx bundle.RawTransaction, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failing[tx.Hash()] = reason
}

// SetLatestBlockhash fixes the value returned by GetLatestBlockhash.
func (m *MockClient) SetLatestBlockhash(h common.Hash) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blockhash = h
}

func (m *MockClient) SimulateTransaction(_ context.Context, tx bundle.RawTransaction) (SimulationResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if reason, failed := m.failing[tx.Hash()]; failed {
		return SimulationResult{
			Success: false,
			Logs:    []string{"Program execution failed"},
			Error:   reason,
		}, nil
	}

	return SimulationResult{
		Success:              true,
		Logs:                 []string{"Program log: Success"},
		ComputeUnitsConsumed: 5000,
	}, nil
}

func (m *MockClient) GetAccount(_ context.Context, addr common.Address) (*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	acc, ok := m.accounts[addr]
	if !ok {
		return nil, nil
	}
	return &acc, nil
}

func (m *MockClient) GetLatestBlockhash(_ context.Context) (common.Hash, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.blockhash, nil
}
