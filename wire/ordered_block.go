// Package wire defines the stable JSON shape submitted to validators and
// the HTTP transport used to deliver it.
package wire

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/flashauction/blockengine/block"
)

var (
	dialer = &net.Dialer{
		Timeout:   time.Second,
		KeepAlive: 60 * time.Second,
	}

	transport = &http.Transport{
		DialContext:         dialer.DialContext,
		MaxIdleConnsPerHost: 50,
		MaxConnsPerHost:     50,
		IdleConnTimeout:     90 * time.Second,
	}

	client = &http.Client{
		Timeout:   5 * time.Second,
		Transport: transport,
	}
)

// OrderedBundle is one winning bundle as it appears on the wire.
type OrderedBundle struct {
	ID             string   `json:"id"`
	Transactions   []string `json:"transactions"`
	Tip            uint64   `json:"tip"`
	SearcherPubkey string   `json:"searcher_pubkey"`
	Timestamp      int64    `json:"timestamp"`
}

// OrderedBlock is the stable external wire shape for a submitted block.
type OrderedBlock struct {
	WindowID       uint64          `json:"window_id"`
	OrderedBundles []OrderedBundle `json:"ordered_bundles"`
	OrderedHash    string          `json:"ordered_hash"`
}

// FromBlock converts an assembled block into its wire representation for
// the given window id.
func FromBlock(windowID uint64, b block.Block) OrderedBlock {
	bundles := make([]OrderedBundle, 0, len(b.Bundles))
	for _, bd := range b.Bundles {
		txs := make([]string, 0, len(bd.Transactions))
		for _, tx := range bd.Transactions {
			txs = append(txs, fmt.Sprintf("%x", []byte(tx)))
		}
		bundles = append(bundles, OrderedBundle{
			ID:             bd.ID.String(),
			Transactions:   txs,
			Tip:            bd.TipLamports,
			SearcherPubkey: bd.SearcherPubkey,
			Timestamp:      bd.CreatedAt.Unix(),
		})
	}

	return OrderedBlock{
		WindowID:       windowID,
		OrderedBundles: bundles,
		OrderedHash:    b.Blockhash.Hex(),
	}
}

// Submit POSTs the ordered block to url + "/submit_block" using the
// shared, connection-pooled HTTP client.
func Submit(ctx context.Context, url string, ob OrderedBlock) error {
	payload, err := json.Marshal(ob)
	if err != nil {
		return fmt.Errorf("wire: marshal ordered block: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url+"/submit_block", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("wire: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("wire: submit block: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("wire: validator returned status %d", resp.StatusCode)
	}
	return nil
}
