package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/akyairhashvil/okrcap/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View the okrcap configuration",
		Long: `View the okrcap configuration.

Settings come from, in order of precedence: flags, OKRCAP_* environment
variables (OKRCAP_CAPACITY_DAILY_LIMIT for capacity.daily_limit), the config
file and built-in defaults.`,
		RunE: runConfigShow,
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show the effective configuration",
			Args:  cobra.NoArgs,
			RunE:  runConfigShow,
		},
		&cobra.Command{
			Use:   "path",
			Short: "Show the config file path",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				fmt.Fprintln(cmd.OutOrStdout(), config.ConfigFile())
				return nil
			},
		},
		&cobra.Command{
			Use:   "init",
			Short: "Write a config file with the defaults",
			Args:  cobra.NoArgs,
			RunE:  runConfigInit,
		},
	)
	return cmd
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if used := viper.ConfigFileUsed(); used != "" {
		fmt.Fprintf(out, "# config file: %s\n", used)
	} else {
		fmt.Fprintln(out, "# config file: (none, using defaults)")
	}
	data, err := yaml.Marshal(settingsOf(cfg))
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	path := config.ConfigFile()
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(settingsOf(config.Default()))
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", path)
	return nil
}

// settingsOf lays cfg out under the same keys the config file uses.
func settingsOf(cfg *config.Config) map[string]any {
	return map[string]any{
		"database": map[string]any{
			"path":       cfg.Database.Path,
			"timeout_ms": cfg.Database.TimeoutMs,
		},
		"logging": map[string]any{
			"enabled": cfg.Logging.Enabled,
			"level":   cfg.Logging.Level,
			"dir":     cfg.Logging.Dir,
		},
		"capacity": map[string]any{
			"weekly_capacity": cfg.Capacity.WeeklyCapacity,
			"daily_limit":     cfg.Capacity.DailyLimit,
			"okr_allocation":  cfg.Capacity.OKRAllocation,
		},
		"nodes":        map[string]any{"delete_policy": cfg.Nodes.DeletePolicy},
		"planner":      map[string]any{"horizon_days": cfg.Planner.HorizonDays},
		"metrics":      map[string]any{"addr": cfg.Metrics.Addr},
		"organization": cfg.Organization,
		"user":         cfg.User,
	}
}
