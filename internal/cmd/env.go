package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/akyairhashvil/okrcap/internal/app"
	"github.com/akyairhashvil/okrcap/internal/capacity"
	"github.com/akyairhashvil/okrcap/internal/config"
	"github.com/akyairhashvil/okrcap/internal/database"
	okrerrors "github.com/akyairhashvil/okrcap/internal/errors"
	"github.com/akyairhashvil/okrcap/internal/event"
	"github.com/akyairhashvil/okrcap/internal/logging"
	"github.com/akyairhashvil/okrcap/internal/metrics"
	"github.com/akyairhashvil/okrcap/internal/okr"
)

var _ app.Persistence = (*database.Database)(nil)

// environment is everything a command needs, opened from the loaded config.
type environment struct {
	cfg     *config.Config
	log     *logging.Logger
	db      database.Repository
	bus     *event.Bus
	metrics *metrics.Metrics
	svc     *app.Service
}

func openEnv(ctx context.Context) (*environment, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logging.NopLogger()
	if cfg.Logging.Enabled {
		log, err = logging.NewLogger(cfg.Logging.ResolveDir(), cfg.Logging.Level)
		if err != nil {
			return nil, err
		}
	}

	db, err := database.Open(ctx, cfg.Database.ResolvePath(),
		database.WithTimeout(cfg.Database.QueryTimeout()),
		database.WithLogger(log),
	)
	if err != nil {
		_ = log.Close()
		return nil, err
	}

	bus := event.NewBus()
	m := metrics.New(log)
	m.Attach(bus)

	store := okr.NewStore(
		okr.WithDeletePolicy(okr.ParseDeletePolicy(cfg.Nodes.DeletePolicy)),
		okr.WithEventBus(bus),
		okr.WithLogger(log),
	)
	model := capacity.NewModel(capacity.Defaults{
		WeeklyCapacity: cfg.Capacity.WeeklyCapacity,
		DailyLimit:     cfg.Capacity.DailyLimit,
		OKRAllocation:  cfg.Capacity.OKRAllocation,
	}, capacity.WithEventBus(bus), capacity.WithLogger(log))

	svc := app.NewService(store, model, db,
		app.WithLogger(log),
		app.WithOrganization(cfg.Organization),
		app.WithDefaultUser(cfg.User),
	)

	env := &environment{cfg: cfg, log: log, db: db, bus: bus, metrics: m, svc: svc}
	if err := svc.LoadAll(ctx); err != nil {
		env.Close()
		return nil, err
	}
	return env, nil
}

func (e *environment) Close() {
	e.metrics.Detach()
	if err := e.db.Close(); err != nil {
		e.log.Error("close database", "error", err)
	}
	_ = e.log.Close()
}

// withEnv opens the environment around fn. A write that reached memory but
// not the database is retried once before the command fails.
func withEnv(fn func(cmd *cobra.Command, args []string, env *environment) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		env, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		err = fn(cmd, args, env)
		if okrerrors.Is(err, okrerrors.ErrPersistence) {
			if syncErr := env.svc.Sync(ctx); syncErr == nil {
				return nil
			}
		}
		return err
	}
}

// committed reports whether a command's change is in memory, even if the
// write behind it failed.
func committed(err error) bool {
	return err == nil || okrerrors.Is(err, okrerrors.ErrPersistence)
}
