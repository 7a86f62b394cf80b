package validator

import (
	"context"

	"github.com/flashauction/blockengine/block"
	"github.com/flashauction/blockengine/wire"
)

// RemoteClient submits blocks to a real validator process over HTTP,
// using the wire package's OrderedBlock codec and pooled transport. It
// does not itself record accept/reject history — the remote validator
// owns that bookkeeping.
type RemoteClient struct {
	ID       string
	URL      string
	WindowID uint64
}

// NewRemoteClient constructs a RemoteClient targeting url for the given
// window id.
func NewRemoteClient(id, url string, windowID uint64) *RemoteClient {
	return &RemoteClient{ID: id, URL: url, WindowID: windowID}
}

// Submit converts b to its wire form and POSTs it to the remote
// validator's /submit_block endpoint.
func (r *RemoteClient) Submit(ctx context.Context, b block.Block) Outcome {
	ob := wire.FromBlock(r.WindowID, b)
	if err := wire.Submit(ctx, r.URL, ob); err != nil {
		return Outcome{Accepted: false, Reason: err.Error()}
	}
	return Outcome{Accepted: true, Signature: ob.OrderedHash}
}
