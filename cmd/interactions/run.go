package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/utfunderscore/serverless-discord/internal/interactions"
	"github.com/utfunderscore/serverless-discord/internal/lambdagw"
	"github.com/utfunderscore/serverless-discord/internal/platform/config"
	"github.com/utfunderscore/serverless-discord/internal/platform/server"
	"github.com/utfunderscore/serverless-discord/internal/platform/telemetry"
)

const version = "0.1.0"

// service is everything both the HTTP and Lambda modes share.
type service struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *telemetry.Metrics
	handler  *interactions.Handler
}

func setup(c *cli.Context) (*service, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := telemetry.NewLogger(cfg.Log.Level, cfg.Log.Format)
	telemetry.SetDefault(logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := telemetry.NewMetrics(reg)

	auth, err := interactions.NewAuthenticatorFromHex(cfg.Discord.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("loading discord public key: %w", err)
	}
	handler, err := interactions.NewHandler(auth, interactions.NewPolicy(nil), interactions.HandlerConfig{
		MaxBodyBytes: cfg.Discord.MaxBodyBytes,
		Metrics:      metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("building interaction handler: %w", err)
	}

	return &service{
		cfg:      cfg,
		logger:   logger,
		registry: reg,
		metrics:  metrics,
		handler:  handler,
	}, nil
}

func (rt *service) dependencies(exposeMetrics bool) server.Dependencies {
	deps := server.Dependencies{
		InteractionHandler: rt.handler,
		Logger:             rt.logger,
		OnPanic:            rt.metrics.ObservePanic,
		ShutdownTimeout:    time.Duration(rt.cfg.Server.ShutdownSecs) * time.Second,
	}
	if exposeMetrics {
		deps.MetricsHandler = telemetry.MetricsHandler(rt.registry)
		deps.MetricsPath = rt.cfg.Metrics.Path
	}
	return deps
}

func serve(c *cli.Context) error {
	rt, err := setup(c)
	if err != nil {
		return err
	}
	cfg := rt.cfg

	slog.Info("interactions starting",
		"version", version,
		"mode", "http",
		"port", cfg.Server.Port,
	)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	separateMetrics := cfg.Metrics.Enabled && cfg.Metrics.Addr != ""
	srv := server.New(cfg.Server.Addr(), rt.dependencies(cfg.Metrics.Enabled && !separateMetrics))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(gctx)
	})
	if separateMetrics {
		metricsSrv := server.NewMetricsServer(cfg.Metrics.Addr, cfg.Metrics.Path, telemetry.MetricsHandler(rt.registry))
		g.Go(func() error {
			return metricsSrv.Start(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	slog.Info("interactions stopped")
	return nil
}

// lambdaHandler builds the API Gateway entry point. Metrics are still
// recorded but there is no scrape endpoint in this mode.
func lambdaHandler(rt *service) http.Handler {
	return server.New("", rt.dependencies(false)).Handler()
}

func runLambda(c *cli.Context) error {
	rt, err := setup(c)
	if err != nil {
		return err
	}
	slog.Info("interactions starting", "version", version, "mode", "lambda")

	lambda.StartWithOptions(lambdagw.New(lambdaHandler(rt)).Handle, lambda.WithContext(c.Context))
	return nil
}
