// Command accidents assembles the Czech police traffic-accident dataset for a
// set of regions, prints a summary, and optionally exports every row to
// Kafka and keeps serving health, metrics, and summary endpoints.
//
// Usage:
//
//	go run ./cmd/accidents [REGION ...]
//
// Regions are short codes such as PHA or JHM; "all" selects every region.
// Without arguments STC, JHC, and PLK are assembled.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	httpadapter "github.com/couchcryptid/accident-data-etl/internal/adapter/http"
	"github.com/couchcryptid/accident-data-etl/internal/adapter/izv"
	kafkaadapter "github.com/couchcryptid/accident-data-etl/internal/adapter/kafka"
	"github.com/couchcryptid/accident-data-etl/internal/cache"
	"github.com/couchcryptid/accident-data-etl/internal/config"
	"github.com/couchcryptid/accident-data-etl/internal/domain"
	"github.com/couchcryptid/accident-data-etl/internal/observability"
	"github.com/couchcryptid/accident-data-etl/internal/parser"
	"github.com/couchcryptid/accident-data-etl/internal/pipeline"
	"github.com/couchcryptid/accident-data-etl/internal/report"
)

var defaultRegions = []domain.Region{domain.RegionSTC, domain.RegionJHC, domain.RegionPLK}

func main() {
	if code := run(os.Args[1:]); code != 0 {
		os.Exit(code)
	}
}

func run(args []string) int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	regions, err := selectRegions(args)
	if err != nil {
		logger.Error("invalid arguments", "error", err)
		return 2
	}

	policy, err := pipeline.ParsePolicy(cfg.ReusePolicy)
	if err != nil {
		logger.Error("invalid reuse policy", "error", err)
		return 1
	}

	assembler := newAssembler(cfg, policy, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var srv *httpadapter.Server
	if cfg.HTTPAddr != "" {
		srv = httpadapter.NewServer(cfg.HTTPAddr, assembler, assembler, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
	}

	code := assembleAndExport(ctx, os.Stdout, cfg, assembler, regions, logger, metrics)

	if srv != nil {
		if code == 0 {
			logger.Info("serving dataset summary", "addr", cfg.HTTPAddr)
			<-ctx.Done()
		}
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
	}

	logger.Info("shutdown complete")
	return code
}

// newAssembler wires the fetcher, parser, and cache over the data folder.
func newAssembler(cfg *config.Config, policy pipeline.Policy, logger *slog.Logger, metrics *observability.Metrics) *pipeline.Assembler {
	fetcher := izv.NewFetcher(cfg.BaseURL, cfg.DataDir, cfg.FetchTimeout, logger, metrics)
	regionParser := parser.New(cfg.DataDir, fetcher, logger, metrics)
	regionCache := cache.New(cfg.DataDir, cfg.CacheTemplate, logger, metrics)
	return pipeline.New(regionParser, regionCache, policy, logger, metrics)
}

func assembleAndExport(ctx context.Context, w io.Writer, cfg *config.Config, assembler *pipeline.Assembler, regions []domain.Region, logger *slog.Logger, metrics *observability.Metrics) int {
	start := time.Now()
	data, err := assembler.Get(ctx, regions...)
	if err != nil {
		logger.Error("assemble dataset", "error", err)
		return 1
	}

	if err := report.Render(w, report.Summarize(data), time.Since(start)); err != nil {
		logger.Error("render summary", "error", err)
		return 1
	}

	if !cfg.ExportEnabled {
		return 0
	}

	writer := kafkaadapter.NewWriter(cfg, logger)
	defer func() {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}()

	exporter := pipeline.NewExporter(writer, cfg.BatchSize, logger, metrics)
	n, err := exporter.Export(ctx, data)
	if err != nil {
		logger.Error("export dataset", "error", err, "exported", n)
		return 1
	}
	logger.Info("dataset exported", "records", n, "topic", cfg.KafkaTopic)
	return 0
}

// selectRegions turns command-line arguments into region codes.
func selectRegions(args []string) ([]domain.Region, error) {
	if len(args) == 0 {
		return defaultRegions, nil
	}
	if len(args) == 1 && strings.EqualFold(args[0], "all") {
		return domain.AllRegions(), nil
	}
	regions, err := domain.ParseRegions(args)
	if err != nil {
		return nil, fmt.Errorf("regions: %w", err)
	}
	return regions, nil
}
