package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/akyairhashvil/okrcap/internal/app"
	"github.com/akyairhashvil/okrcap/internal/scheduler"
)

func newServeMetricsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve-metrics",
		Short: "Expose Prometheus metrics for the plan of the selected user",
		Long: `Serve /metrics on --addr (default metrics.addr). The store is reloaded from
the database and the plan gauges recomputed every --interval.`,
		Args: cobra.NoArgs,
		RunE: withEnv(func(cmd *cobra.Command, _ []string, env *environment) error {
			addr := mustString(cmd.Flags(), "addr")
			if addr == "" {
				addr = env.cfg.Metrics.Addr
			}
			interval, _ := cmd.Flags().GetDuration("interval")

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error { return env.metrics.Serve(ctx, addr) })
			g.Go(func() error { return refreshPlan(ctx, env, interval) })
			return g.Wait()
		}),
	}
	cmd.Flags().String("addr", "", "listen address")
	cmd.Flags().Duration("interval", time.Minute, "how often to reload and replan")
	return cmd
}

// refreshPlan keeps the plan gauges current until ctx is done. Reload errors
// are logged and retried on the next tick.
func refreshPlan(ctx context.Context, env *environment, interval time.Duration) error {
	observe := func() {
		plan, err := env.svc.Plan(app.PlanQuery{
			UserID: env.svc.DefaultUser(),
			Range:  scheduler.NewRange(today(), env.cfg.Planner.HorizonDays),
		})
		if err != nil {
			env.log.Warn("plan failed", "error", err)
			return
		}
		env.metrics.ObservePlan(plan)
	}
	observe()
	if interval <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := env.svc.LoadAll(ctx); err != nil {
				env.log.Warn("reload failed", "error", err)
				continue
			}
			observe()
		}
	}
}
