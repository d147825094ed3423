package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"optimex/config"
	"optimex/core"
	"optimex/observability"
	"optimex/observability/logging"
	telemetry "optimex/observability/otel"
	"optimex/rpc"
	"optimex/storage"
)

const envVar = "OPTIMEX_ENV"

func main() {
	configFile := flag.String("config", "./settlementd.toml", "Path to the configuration file (TOML or YAML)")
	flag.Parse()

	if err := run(*configFile); err != nil {
		fmt.Fprintf(os.Stderr, "settlementd: %v\n", err)
		os.Exit(1)
	}
}

func run(configFile string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	env := strings.TrimSpace(os.Getenv(envVar))
	if env == "" {
		env = cfg.Environment
	}

	logger, err := logging.Setup("settlementd", env, logging.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}

	shutdownTelemetry, err := telemetry.Init(context.Background(), telemetry.Config{
		ServiceName: "settlementd",
		Environment: env,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
		Headers:     telemetry.ParseHeaders(cfg.Telemetry.Headers),
		Metrics:     cfg.Telemetry.Metrics,
		Traces:      cfg.Telemetry.Traces,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(ctx); err != nil {
			logger.Warn("telemetry shutdown", "error", err)
		}
	}()

	runtime, err := cfg.Runtime()
	if err != nil {
		return fmt.Errorf("resolve protocol config: %w", err)
	}
	if runtime.UpgradeAuthority.IsZero() {
		logger.Warn("no upgrade authority configured; init will be rejected")
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	db, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "state"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	genesis := make([]core.Allocation, 0, len(runtime.Genesis))
	for _, credit := range runtime.Genesis {
		genesis = append(genesis, core.Allocation{Owner: credit.Owner, Mint: credit.Mint, Amount: credit.Amount})
	}
	node, err := core.NewNode(db, core.NodeConfig{
		Program:          runtime.Program,
		Policy:           runtime.Policy,
		UpgradeAuthority: runtime.UpgradeAuthority,
		RecordReserve:    runtime.RecordReserve,
		Genesis:          genesis,
		Logger:           logger,
	})
	if err != nil {
		return fmt.Errorf("start node: %w", err)
	}
	node.Subscribe(observability.NewEventRecorder())
	node.Subscribe(eventLogger{logger: logger})

	server := rpc.NewServer(node, rpc.ServerConfig{
		RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
		Burst:             cfg.RateLimit.Burst,
		Logger:            logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(cfg.ListenAddress)
	}()
	logger.Info("settlement node ready",
		"listen", cfg.ListenAddress,
		"variant", runtime.Policy.Name,
		"program", runtime.Program.String())

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("rpc server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("rpc shutdown: %w", err)
	}
	return nil
}
