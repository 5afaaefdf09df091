package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/enforcement"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/metrics"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/scheduler"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/server"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the scheduled analytics job",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *configPath)
		},
	}
}

func runServe(ctx context.Context, configPath string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	col := metrics.NewCollector()
	a, err := openApp(ctx, cfg, col)
	if err != nil {
		return err
	}
	defer a.close()

	gate := &enforcement.Gate{
		Policy:   a.service,
		Attempts: a.outcomes,
		Outcomes: a.outcomes,
		Metrics:  col,
		Log:      a.log,
	}

	deps := server.Deps{
		Gate:     gate,
		Policy:   a.service,
		Versions: a.policies,
		History:  a.outcomes,
		Metrics:  col,
		Log:      a.log,
	}

	if cfg.Analytics.Enabled {
		sched := scheduler.New(a.log, col)
		if err := sched.Add(scheduler.SuggestionsTask(cfg.Analytics.Schedule, a.service, a.log)); err != nil {
			return codeError(exitInput, "scheduling analytics: %s", err)
		}
		sched.Start()
		defer sched.Stop()
		deps.Scheduler = sched
	}

	srv := server.New(deps, cfg.Server.Mode)
	if err := srv.Run(ctx, cfg.ListenAddr()); err != nil {
		return codeError(exitStore, "serving: %s", err)
	}
	return nil
}
