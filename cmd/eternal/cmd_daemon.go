package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/tgifai/eternal/internal/config"
	"github.com/tgifai/eternal/internal/consts"
	"github.com/tgifai/eternal/internal/pkg/logs"
	"github.com/tgifai/eternal/internal/service"
)

const stopTimeout = 15 * time.Second

var daemonHwd = &DaemonRunner{}

type DaemonRunner struct{}

func (r *DaemonRunner) cmd() *cli.Command {
	return &cli.Command{
		Name:  "daemon",
		Usage: "Manage the mission daemon",
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Run the worker loop, recurring missions and the HTTP API",
				Flags:  []cli.Flag{configFlag()},
				Action: r.run,
			},
		},
	}
}

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to the runtime config file",
		Sources: cli.EnvVars("ETERNAL_CONFIG"),
	}
}

func (r *DaemonRunner) run(ctx context.Context, cmd *cli.Command) error {
	cfgPath := consts.ResolveConfigPath(cmd.String("config"))

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config error: %w", err)
	}

	if err = r.initLogger(cfg.Logging); err != nil {
		return fmt.Errorf("init logger error: %w", err)
	}

	hash, _ := config.Hash()
	logs.CtxInfo(ctx, "booting %s, using config file: %s (%.12s)...", consts.AppName, cfgPath, hash)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := service.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("build service: %w", err)
	}

	if err = svc.Start(ctx); err != nil {
		_ = svc.Stop(context.Background())
		return fmt.Errorf("start service: %w", err)
	}

	logs.CtxInfo(ctx, "ALL IS WELL!!! Listening on %s, press Ctrl+C to stop.", cfg.Server.Bind)

	if err = serve(ctx, svc); err != nil {
		return err
	}
	logs.CtxInfo(ctx, "all stopped, good bye!")
	return nil
}

type daemonRuntime interface {
	Serve(ctx context.Context) error
	Stop(ctx context.Context) error
}

// serve blocks on the HTTP surface until ctx is done or the listener fails,
// then stops the worker loop and the backends either way.
func serve(ctx context.Context, rt daemonRuntime) error {
	runErr := rt.Serve(ctx)
	if ctx.Err() != nil {
		logs.CtxInfo(ctx, "Shutdown requested. Stopping runtime...")
	} else if runErr != nil {
		logs.CtxError(ctx, "serve error: %v, stopping runtime...", runErr)
	}

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), stopTimeout)
	defer cancel()
	if err := rt.Stop(stopCtx); err != nil {
		logs.CtxError(ctx, "stop service error: %v", err)
	}
	return runErr
}

func (r *DaemonRunner) initLogger(cfg config.LoggingConfig) error {
	return logs.Init(logs.Options{
		Level:      cfg.Level,
		Format:     cfg.Format,
		Output:     cfg.Output,
		File:       cfg.File,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
	})
}
