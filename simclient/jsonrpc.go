package simclient

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/flashauction/blockengine/bundle"
)

// JSONRPCClient is the real, network-facing RPCClient implementation: it
// speaks the capability set in terms of raw JSON-RPC calls against a
// configured endpoint, using go-ethereum's own rpc.Client rather than a
// hand-rolled HTTP codec.
type JSONRPCClient struct {
	rpc *rpc.Client
}

// DialJSONRPC connects to a simulation RPC endpoint at url (http(s)://
// or ws(s)://, per go-ethereum/rpc's own dialer).
func DialJSONRPC(url string) (*JSONRPCClient, error) {
	client, err := rpc.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("simclient: dial %s: %w", url, err)
	}
	return &JSONRPCClient{rpc: client}, nil
}

// Close releases the underlying connection.
func (c *JSONRPCClient) Close() {
	c.rpc.Close()
}

// simulateTransactionReply mirrors the expected JSON shape of a
// simulateTransaction RPC response.
type simulateTransactionReply struct {
	Success              bool             `json:"success"`
	Logs                 []string         `json:"logs"`
	AccountsAccessed     []common.Address `json:"accountsAccessed"`
	ComputeUnitsConsumed uint64           `json:"computeUnitsConsumed"`
	Error                string           `json:"error"`
}

func (c *JSONRPCClient) SimulateTransaction(ctx context.Context, tx bundle.RawTransaction) (SimulationResult, error) {
	var reply simulateTransactionReply
	if err := c.rpc.CallContext(ctx, &reply, "simulation_simulateTransaction", fmt.Sprintf("%x", []byte(tx))); err != nil {
		return SimulationResult{}, fmt.Errorf("simclient: simulateTransaction: %w", err)
	}
	return SimulationResult{
		Success:              reply.Success,
		Logs:                 reply.Logs,
		AccountsAccessed:     reply.AccountsAccessed,
		ComputeUnitsConsumed: reply.ComputeUnitsConsumed,
		Error:                reply.Error,
	}, nil
}

func (c *JSONRPCClient) GetAccount(ctx context.Context, addr common.Address) (*Account, error) {
	var reply *Account
	if err := c.rpc.CallContext(ctx, &reply, "simulation_getAccount", addr); err != nil {
		return nil, fmt.Errorf("simclient: getAccount: %w", err)
	}
	return reply, nil
}

func (c *JSONRPCClient) GetLatestBlockhash(ctx context.Context) (common.Hash, error) {
	var reply common.Hash
	if err := c.rpc.CallContext(ctx, &reply, "simulation_getLatestBlockhash"); err != nil {
		return common.Hash{}, fmt.Errorf("simclient: getLatestBlockhash: %w", err)
	}
	return reply, nil
}
