package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/erazemk/drazba/internal/api"
	"github.com/erazemk/drazba/internal/bidding"
	"github.com/erazemk/drazba/internal/cache"
	"github.com/erazemk/drazba/internal/db"
	"github.com/erazemk/drazba/internal/notify"
	"github.com/erazemk/drazba/internal/setup"
	"github.com/erazemk/drazba/internal/store"
)

// Login attempts allowed per username: a burst of 5, then one every 12 seconds.
const (
	loginRate  = 5.0 / 60
	loginBurst = 5
)

type config struct {
	dbDSN        string
	driver       string
	addr         string
	adminUser    string
	logPath      string
	minIncrement int64
	bidRate      float64
	bidBurst     int64
	redisURL     string
	natsURL      string
	otlpURL      string
}

func parseFlags() (*config, error) {
	fs := flag.NewFlagSet("drazba", flag.ContinueOnError)
	cfg := &config{}

	dbDefault := setup.Getenv("DRAZBA_DB", "drazba.sqlite3")
	fs.StringVar(&cfg.dbDSN, "db", dbDefault, "")
	fs.StringVar(&cfg.dbDSN, "d", dbDefault, "")

	fs.StringVar(&cfg.driver, "driver", setup.Getenv("DRAZBA_DRIVER", db.DriverSQLite), "")

	addrDefault := setup.Getenv("DRAZBA_ADDR", ":8080")
	fs.StringVar(&cfg.addr, "addr", addrDefault, "")
	fs.StringVar(&cfg.addr, "a", addrDefault, "")

	userDefault := setup.Getenv("DRAZBA_ADMIN", "Admin")
	fs.StringVar(&cfg.adminUser, "user", userDefault, "")
	fs.StringVar(&cfg.adminUser, "u", userDefault, "")

	logDefault := setup.Getenv("DRAZBA_LOG", "")
	fs.StringVar(&cfg.logPath, "log", logDefault, "")
	fs.StringVar(&cfg.logPath, "l", logDefault, "")

	fs.Int64Var(&cfg.minIncrement, "min-increment", setup.GetenvInt64("DRAZBA_MIN_INCREMENT", bidding.DefaultMinIncrement), "")
	fs.Float64Var(&cfg.bidRate, "bid-rate", setup.GetenvFloat("DRAZBA_BID_RATE", 2), "")
	fs.Int64Var(&cfg.bidBurst, "bid-burst", setup.GetenvInt64("DRAZBA_BID_BURST", 5), "")
	fs.StringVar(&cfg.redisURL, "redis", setup.Getenv("DRAZBA_REDIS", ""), "")
	fs.StringVar(&cfg.natsURL, "nats", setup.Getenv("DRAZBA_NATS", ""), "")
	fs.StringVar(&cfg.otlpURL, "otlp", setup.Getenv("DRAZBA_OTLP", ""), "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: drazba [flags]

Every flag can also be set with the environment variable in brackets.

Flags:
  -d, -db <dsn>            SQLite path or Postgres URL [DRAZBA_DB] (default: drazba.sqlite3)
  -driver <name>           sqlite or postgres [DRAZBA_DRIVER] (default: sqlite)
  -a, -addr <host:port>    listen address [DRAZBA_ADDR] (default: :8080)
  -u, -user <name>         admin username on first run [DRAZBA_ADMIN] (default: Admin)
  -l, -log <path>          log file path [DRAZBA_LOG] (default: stdout/stderr only)
  -min-increment <n>       minimum raise over the highest bid [DRAZBA_MIN_INCREMENT] (default: 100)
  -bid-rate <n>            bids per second per bidder, 0 disables [DRAZBA_BID_RATE] (default: 2)
  -bid-burst <n>           bid burst per bidder [DRAZBA_BID_BURST] (default: 5)
  -redis <url>             Redis URL for the highest bid cache [DRAZBA_REDIS] (default: off)
  -nats <url>              NATS URL for notification relay [DRAZBA_NATS] (default: off)
  -otlp <url>              OTLP/HTTP trace endpoint [DRAZBA_OTLP] (default: off)
  -h, -help                show this help and exit
`)
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected argument: %s\n", fs.Arg(0))
		fs.Usage()
		return nil, flag.ErrHelp
	}
	if cfg.bidBurst < 1 || cfg.bidBurst > 1000 {
		return nil, fmt.Errorf("bid burst must be between 1 and 1000, got %d", cfg.bidBurst)
	}
	return cfg, nil
}

func main() {
	cfg, err := parseFlags()
	if err == flag.ErrHelp {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	closeLog, err := setup.Logger(cfg.logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	if err := run(cfg); err != nil {
		slog.Error("server failed", "error", err)
		closeLog()
		os.Exit(1)
	}
}

func run(cfg *config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := setup.Tracing(ctx, cfg.otlpURL)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			slog.Warn("flushing traces failed", "error", err)
		}
	}()

	database, err := setup.OpenDatabase(cfg.driver, cfg.dbDSN)
	if err != nil {
		return err
	}
	defer database.Close()

	password, err := setup.EnsureAdmin(ctx, database, cfg.adminUser)
	if err != nil {
		return err
	}
	if password != "" {
		setup.PrintAdmin(cfg.adminUser, password)
		fmt.Println()
	}

	// The secret is generated on first run and kept in the database.
	jwtSecret, err := store.GetJWTSecret(ctx, database)
	if err != nil {
		return fmt.Errorf("getting JWT secret: %w", err)
	}

	var publishers []notify.Publisher
	if cfg.natsURL != "" {
		nc, err := nats.Connect(cfg.natsURL, nats.Name("drazba"))
		if err != nil {
			return fmt.Errorf("connecting to NATS: %w", err)
		}
		defer nc.Drain()

		js, err := notify.NewJetStreamPublisher(ctx, nc)
		if err != nil {
			return err
		}
		publishers = append(publishers, js)
		slog.Info("notification relay enabled", "stream", notify.StreamName)
	}

	opts := []bidding.Option{bidding.WithMinIncrement(cfg.minIncrement)}
	if cfg.redisURL != "" {
		rdb, err := cache.Connect(ctx, cfg.redisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()
		opts = append(opts, bidding.WithCache(cache.New(rdb, cache.DefaultTTL)))
		slog.Info("highest bid cache enabled")
	}

	svc, err := bidding.NewService(database, notify.NewDispatcher(database, publishers...), opts...)
	if err != nil {
		return err
	}

	handler := api.NewRouter(api.Config{
		DB:           database,
		Bidding:      svc,
		JWTSecret:    jwtSecret,
		BidLimiter:   api.NewLimiters(cfg.bidRate, int(cfg.bidBurst)),
		LoginLimiter: api.NewLimiters(loginRate, loginBurst),
	})

	server := &http.Server{
		Addr:              cfg.addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server started", "addr", cfg.addr, "min_increment", svc.MinIncrement())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("server stopped, closing database")
	return nil
}
