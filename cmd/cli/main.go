package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/dmitrijs2005/pharmalink/internal/buildinfo"
	"github.com/dmitrijs2005/pharmalink/internal/client/classify"
	"github.com/dmitrijs2005/pharmalink/internal/client/cli"
	"github.com/dmitrijs2005/pharmalink/internal/client/client"
	"github.com/dmitrijs2005/pharmalink/internal/client/config"
	"github.com/dmitrijs2005/pharmalink/internal/client/events"
	"github.com/dmitrijs2005/pharmalink/internal/client/metrics"
	"github.com/dmitrijs2005/pharmalink/internal/client/recovery"
	"github.com/dmitrijs2005/pharmalink/internal/client/services"
	"github.com/dmitrijs2005/pharmalink/internal/logging"
)

func main() {
	buildinfo.PrintBuildData(os.Stdout)

	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("%v", err)
	}
	if err := run(cfg); err != nil {
		log.Fatalf("%v", err)
	}
}

func run(cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer cancel()

	logger, err := logging.New(os.Stderr, logging.Format(cfg.LogFormat), cfg.LogLevel)
	if err != nil {
		return err
	}

	storage, err := client.OpenStorage(ctx, cfg.StoreKind, cfg.StoreDSN)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.StoreKind, err)
	}
	defer storage.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	m := metrics.New(reg)
	if cfg.MetricsAddr != "" {
		stop := serveMetrics(ctx, cfg.MetricsAddr, reg, logger)
		defer stop()
	}

	otel.SetTextMapPropagator(propagation.TraceContext{})

	bus := events.NewBus(logger, events.DefaultBuffer)
	defer bus.Close()

	var app *cli.App
	onAuthRequired := func() {
		if app != nil {
			app.NotifyAuthRequired()
		}
	}

	c := client.New(cfg, client.Deps{
		Repo:           storage.Metadata,
		Logger:         logger,
		Metrics:        m,
		Tracer:         otel.Tracer("github.com/dmitrijs2005/pharmalink/client"),
		OnAuthRequired: onAuthRequired,
	})

	rec := recovery.New(classify.New(logger), bus,
		recovery.WithLogger(logger),
		recovery.WithMetrics(m),
		recovery.WithOnAuthRequired(onAuthRequired),
	)

	app = cli.NewApp(cli.Deps{
		Auth:     services.NewAuthService(c),
		Meds:     services.NewMedicineService(c),
		Recovery: rec,
		Bus:      bus,
		Logger:   logger,
		In:       os.Stdin,
		Out:      os.Stdout,
	})

	recCtx, stopRec := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		rec.Run(recCtx)
	}()

	app.Run(ctx)

	stopRec()
	<-done
	return nil
}

func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, logger logging.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "metrics server failed", "err", err)
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
}
