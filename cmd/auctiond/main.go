// Command auctiond runs the sealed-bid auction house daemon.
//
// The daemon serves the auction API over HTTP. Assets and bidder balances
// live in in-process registries seeded at startup; the audit trail is
// written to PostgreSQL when --db-host is set, or kept in memory otherwise.
//
// # Usage
//
//	go run ./cmd/auctiond --addr=:8080 --db-host=localhost --db-name=auctions
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sealedbid/auctionhouse/assets"
	"github.com/sealedbid/auctionhouse/auction"
	"github.com/sealedbid/auctionhouse/audit"
	"github.com/sealedbid/auctionhouse/bank"
	"github.com/sealedbid/auctionhouse/crypto"
	"github.com/sealedbid/auctionhouse/server"
)

func main() {
	var (
		addr        = flag.String("addr", ":8080", "HTTP listen address")
		enablePprof = flag.Bool("pprof", false, "Enable the pprof debugging API")
		logJSON     = flag.Bool("log-json", false, "Log in JSON format")
		demo        = flag.Bool("demo", false, "Seed a demo asset and funded accounts, printing their keys")
		dbHost      = flag.String("db-host", "", "PostgreSQL host for the audit store (in-memory if empty)")
		dbPort      = flag.Int("db-port", 5432, "PostgreSQL port")
		dbUser      = flag.String("db-user", "auctionhouse", "PostgreSQL user")
		dbPassword  = flag.String("db-password", "", "PostgreSQL password")
		dbName      = flag.String("db-name", "auctionhouse", "PostgreSQL database name")
	)
	flag.Parse()

	var handler slog.Handler = slog.NewTextHandler(os.Stdout, nil)
	if *logJSON {
		handler = slog.NewJSONHandler(os.Stdout, nil)
	}
	log := slog.New(handler)

	var store audit.Store
	if *dbHost != "" {
		pgStore, err := audit.NewPostgresStore(&audit.PostgresConfig{
			Host:     *dbHost,
			Port:     *dbPort,
			User:     *dbUser,
			Password: *dbPassword,
			Database: *dbName,
		})
		if err != nil {
			fmt.Printf("Audit store error: %v\n", err)
			os.Exit(1)
		}
		store = pgStore
		log.Info("Audit store backed by PostgreSQL", "host", *dbHost, "database", *dbName)
	} else {
		store = audit.NewInMemoryStore(nil)
		log.Warn("Audit store is in-memory; events are lost on restart")
	}
	defer store.Close()

	registry := assets.NewInMemoryRegistry()
	ledger := bank.NewLedger()
	house := auction.NewHouse(ledger, nil, store, log)

	if *demo {
		if err := seedDemo(registry, ledger, log); err != nil {
			fmt.Printf("Demo seed error: %v\n", err)
			os.Exit(1)
		}
	}

	apiHandler := server.NewHandler(house, registry, store, log)
	srv, err := server.New(&server.HTTPServerConfig{
		ListenAddr:               *addr,
		EnablePprof:              *enablePprof,
		Log:                      log,
		DrainDuration:            5 * time.Second,
		GracefulShutdownDuration: 10 * time.Second,
		ReadTimeout:              15 * time.Second,
		WriteTimeout:             15 * time.Second,
	}, apiHandler)
	if err != nil {
		fmt.Printf("Create server error: %v\n", err)
		os.Exit(1)
	}

	srv.RunInBackground()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down auctiond")
	srv.Shutdown()
}

// seedDemo populates the in-process registries so a fresh daemon can host
// an auction without external tooling: one asset and three funded accounts.
// Private keys are printed so the holder can sign API requests.
func seedDemo(registry *assets.InMemoryRegistry, ledger *bank.Ledger, log *slog.Logger) error {
	roles := []struct {
		name    string
		balance uint64
	}{
		{"seller", 0},
		{"bidder-1", 1_000},
		{"bidder-2", 1_000},
	}

	for i, role := range roles {
		pub, priv, err := crypto.GenerateKeyPair()
		if err != nil {
			return fmt.Errorf("generating %s key: %w", role.name, err)
		}
		if role.balance > 0 {
			ledger.Mint(pub, role.balance)
		}
		if i == 0 {
			registry.Mint(demoAssetID, pub)
		}
		log.Info("Demo account seeded",
			"role", role.name,
			"public_key", pub.String(),
			"private_key", fmt.Sprintf("%x", priv.Bytes()),
			"balance", role.balance,
		)
	}

	log.Info("Demo asset minted to the seller", "asset", demoAssetID)
	return nil
}

const demoAssetID = uint64(1)
