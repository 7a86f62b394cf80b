// Command blockengine runs the block-building engine as a standalone
// service: an HTTP status surface plus the per-slot auction pipeline.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/gorilla/mux"
	"github.com/urfave/cli/v2"

	"github.com/flashauction/blockengine/config"
	"github.com/flashauction/blockengine/engine"
	"github.com/flashauction/blockengine/simclient"
	"github.com/flashauction/blockengine/validator"
)

var (
	bindAddressFlag = &cli.StringFlag{
		Name:  "bind-address",
		Usage: "host:port the status HTTP server listens on",
		Value: "127.0.0.1:8645",
	}
	rpcURLFlag = &cli.StringFlag{
		Name:  "rpc-url",
		Usage: "simulation RPC endpoint; empty uses the in-memory mock client",
	}
	configFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "path to a TOML configuration file",
	}
	auctionDurationFlag = &cli.Int64Flag{
		Name:  "auction-duration",
		Usage: "auction window duration in milliseconds",
		Value: 200,
	}
	maxPoolSizeFlag = &cli.IntFlag{
		Name:  "max-pool-size",
		Usage: "maximum number of bundles the pool may hold",
		Value: 10_000,
	}
)

func main() {
	app := &cli.App{
		Name:  "blockengine",
		Usage: "permissionless block-building auction engine",
		Flags: []cli.Flag{
			bindAddressFlag,
			rpcURLFlag,
			configFlag,
			auctionDurationFlag,
			maxPoolSizeFlag,
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Error("blockengine: fatal error", "err", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return fmt.Errorf("blockengine: load config: %w", err)
	}

	client := buildSimClient(cfg.RPCURL)
	validators := validator.NewNetwork(validator.NewLocal(
		"local",
		validator.Limits{MaxTransactions: cfg.MaxTransactionsPerBlock, MaxComputeUnits: cfg.MaxComputeUnitsPerBlock},
		cfg.ValidatorFailureRate,
		time.Duration(cfg.ValidatorVerificationDelayMS)*time.Millisecond,
	))

	eng := engine.New(cfg, client, validators, nil)
	eng.Start()
	defer eng.Close()

	server := &http.Server{
		Addr:    cfg.BindAddress,
		Handler: statusRouter(eng),
	}

	serveErrCh := make(chan error, 1)
	go func() {
		log.Info("blockengine: status server listening", "addr", cfg.BindAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErrCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErrCh:
		return fmt.Errorf("blockengine: status server: %w", err)
	case sig := <-sigCh:
		log.Info("blockengine: shutting down", "signal", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}

func loadConfig(c *cli.Context) (config.EngineConfig, error) {
	cfg := config.Defaults()
	if path := c.String(configFlag.Name); path != "" {
		loaded, err := config.LoadFile(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	if c.IsSet(bindAddressFlag.Name) {
		cfg.BindAddress = c.String(bindAddressFlag.Name)
	}
	if c.IsSet(rpcURLFlag.Name) {
		cfg.RPCURL = c.String(rpcURLFlag.Name)
	}
	if c.IsSet(auctionDurationFlag.Name) {
		cfg.AuctionDurationMS = c.Int64(auctionDurationFlag.Name)
	}
	if c.IsSet(maxPoolSizeFlag.Name) {
		cfg.MaxPoolSize = c.Int(maxPoolSizeFlag.Name)
	}
	return cfg, nil
}

// buildSimClient returns the mock client when no RPC URL is configured
// — useful for demos — or the real JSON-RPC client otherwise. If dialing
// the configured URL fails, it logs the error and also returns the mock
// client.
func buildSimClient(rpcURL string) simclient.RPCClient {
	if rpcURL == "" {
		log.Warn("blockengine: no --rpc-url set, using in-memory mock simulation client")
		return simclient.NewMockClient()
	}
	client, err := simclient.DialJSONRPC(rpcURL)
	if err != nil {
		log.Error("blockengine: failed to dial simulation RPC, falling back to mock client", "url", rpcURL, "err", err)
		return simclient.NewMockClient()
	}
	return client
}

func statusRouter(eng *engine.Engine) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	r.HandleFunc("/stats", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(eng.Pool().Stats())
	}).Methods(http.MethodGet)

	return r
}
