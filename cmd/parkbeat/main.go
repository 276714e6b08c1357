// cmd/parkbeat/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/FairForge/parkbeat/internal/api"
	"github.com/FairForge/parkbeat/internal/artifacts"
	"github.com/FairForge/parkbeat/internal/config"
	"github.com/FairForge/parkbeat/internal/drivers"
	"github.com/FairForge/parkbeat/internal/engine"
	"github.com/FairForge/parkbeat/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "YAML configuration file")
	eventPath := flag.String("event", "", "invocation event file (default: stdin)")
	check := flag.Bool("check", false, "verify every artifact exists and exit")
	printMetrics := flag.Bool("metrics", false, "print metrics after the invocation")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := logging.New(&logging.LoggerConfig{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source, err := newSource(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to create artifact source", zap.Error(err))
	}

	policy := drivers.NewRetryPolicy(
		drivers.WithMaxAttempts(cfg.Artifacts.FetchAttempts),
		drivers.WithLogger(logger),
	)
	loader := artifacts.NewLoader(source, cfg.Store.Bucket, artifacts.KeysFromConfig(cfg.Artifacts), logger,
		artifacts.WithTimeout(cfg.Artifacts.FetchTimeout),
		artifacts.WithRetry(policy))

	if *check {
		if err := loader.Verify(ctx); err != nil {
			logger.Error("artifact check failed", zap.Error(err))
			os.Exit(1)
		}
		logger.Info("all artifacts present", zap.String("bucket", cfg.Store.Bucket))
		return
	}

	var metrics *api.Metrics
	if cfg.Metrics.Enabled {
		metrics = api.NewMetrics(cfg.Metrics.Prefix)
	}

	eng := engine.NewEngine(artifacts.NewCache(loader, logger), nil, nil, logger)
	handler, err := api.NewHandler(eng, metrics, logger)
	if err != nil {
		logger.Fatal("failed to create handler", zap.Error(err))
	}

	event, err := readEvent(*eventPath)
	if err != nil {
		logger.Fatal("failed to read event", zap.Error(err))
	}

	resp := handler.Handle(ctx, event)
	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		logger.Fatal("failed to encode response", zap.Error(err))
	}
	fmt.Println(string(out))

	if *printMetrics && metrics != nil {
		if err := metrics.WriteText(os.Stdout); err != nil {
			logger.Error("failed to write metrics", zap.Error(err))
		}
	}

	if resp.StatusCode != 200 {
		os.Exit(1)
	}
}

// newSource builds the artifact read chain: backend, optional bandwidth cap,
// then transparent decompression. Retries wrap the loader's fetch and decode
// instead, so a body that breaks mid-stream is downloaded again.
func newSource(ctx context.Context, cfg *config.Config, logger *zap.Logger) (drivers.Source, error) {
	var source drivers.Source
	switch cfg.Store.Mode {
	case config.StoreModeLocal:
		source = drivers.NewLocalDriver(cfg.Store.LocalPath, logger)
		logger.Info("using local artifacts", zap.String("path", cfg.Store.LocalPath))
	default:
		s3Driver, err := drivers.NewS3Driver(ctx, drivers.S3Options{
			Endpoint:  cfg.Store.Endpoint,
			Region:    cfg.Store.Region,
			AccessKey: cfg.Store.AccessKey,
			SecretKey: cfg.Store.SecretKey,
		}, logger)
		if err != nil {
			return nil, err
		}
		source = s3Driver
	}

	if cfg.Store.MaxBytesPerSecond > 0 {
		source = drivers.NewThrottledSource(source, cfg.Store.MaxBytesPerSecond, logger)
	}

	return drivers.NewDecompressingSource(source, logger), nil
}

func readEvent(path string) ([]byte, error) {
	if path == "" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
