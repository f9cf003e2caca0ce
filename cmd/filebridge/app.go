package main

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"filebridge/internal/agent"
	"filebridge/internal/config"
	"filebridge/internal/metrics"
	"filebridge/internal/remotefs"
	"filebridge/internal/render"
	"filebridge/internal/repo"
	"filebridge/internal/telemetry"
	"filebridge/internal/tools"
	"filebridge/internal/version"
	"filebridge/internal/workspace"
)

// app is the wired runtime shared by every subcommand.
type app struct {
	cfg        config.Config
	logger     *zap.Logger
	registry   *prometheus.Registry
	tracing    *telemetry.Provider
	renderer   render.Renderer
	dispatcher *agent.Dispatcher
}

func newApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(cmd)
	if err != nil {
		return nil, err
	}
	quiet, _ := cmd.Flags().GetBool("quiet")
	logger := buildLogger(cfg.Verbose)

	if err := os.MkdirAll(cfg.TempDir, 0o700); err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	ignorer, err := repo.NewIgnoreService(cfg.WorkspaceDirs, repo.IgnoreOptions{
		FileName:        cfg.IgnoreFile,
		RespectDenylist: cfg.RespectDenylist,
	})
	if err != nil {
		return nil, fmt.Errorf("load ignore patterns: %w", err)
	}
	sandbox, err := workspace.New(cfg.WorkspaceDirs, cfg.TempDir, ignorer)
	if err != nil {
		return nil, err
	}

	client := remotefs.NewHTTPClient(remotefs.Options{
		BaseURL:           cfg.BaseURL,
		APIKey:            cfg.APIKey,
		RetryMax:          cfg.Remote.RetryMax,
		RequestsPerSecond: cfg.Remote.RequestsPerSecond,
		Logger:            logger.Named("remotefs"),
	})
	toolsReg, err := tools.NewFileTools(client, tools.Meta{Sandbox: sandbox, AuthType: cfg.AuthType})
	if err != nil {
		return nil, err
	}

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector, err := metrics.NewCollector(promReg)
	if err != nil {
		return nil, err
	}

	tracing, err := telemetry.Setup(ctx, telemetry.Config{
		Endpoint:       cfg.Tracing.OTLPEndpoint,
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: version.Version,
	})
	if err != nil {
		return nil, err
	}

	var renderer render.Renderer
	if cfg.Verbose && cfg.OutputFormat == render.FormatJSON {
		renderer = render.NewJSONLRenderer(cmd.ErrOrStderr())
	} else {
		renderer = render.NewStdoutRenderer(cmd.ErrOrStderr(), cfg.Verbose, quiet)
	}

	dispatcher := agent.NewDispatcher(toolsReg, renderer, logger, agent.Options{
		Metrics:     collector,
		Tracer:      tracing.Tracer(),
		Concurrency: cfg.BatchConcurrency,
		Timeout:     cfg.Timeout,
	})

	logger.Debug("filebridge ready",
		zap.Strings("workspace_dirs", sandbox.Roots()),
		zap.String("temp_dir", sandbox.TempDir()),
		zap.String("auth_type", string(cfg.AuthType)),
	)
	return &app{
		cfg:        cfg,
		logger:     logger,
		registry:   promReg,
		tracing:    tracing,
		renderer:   renderer,
		dispatcher: dispatcher,
	}, nil
}

func (a *app) close() {
	_ = a.renderer.Close()
	_ = a.tracing.Shutdown(context.Background())
	_ = a.logger.Sync()
}
