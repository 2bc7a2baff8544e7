// Package cmd implements the okrcap command line.
package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/akyairhashvil/okrcap/internal/config"
	"github.com/akyairhashvil/okrcap/internal/tui"
)

// NewRootCmd builds the full command tree. Each call returns fresh commands
// and flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "okrcap",
		Short: "OKR hierarchy tracking with capacity-aware feasibility planning",
		Long: `okrcap keeps a Goal -> Objective -> Key Result -> Task hierarchy with
progress rolled up from the leaves, tracks how many hours each person can
spend on OKR work, and projects whether the open tasks fit before their
due dates.`,
		Version:       tui.VersionLabel(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			initConfig()
			if name := viper.GetString("theme"); name != "" && !tui.SetTheme(name) {
				return fmt.Errorf("unknown theme %q", name)
			}
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringP("config", "c", "", "config file (default is $XDG_CONFIG_HOME/okrcap/config.yaml)")
	flags.String("db", "", "database file (default is $XDG_DATA_HOME/okrcap/okrcap.db)")
	flags.String("org", "", "organization to load")
	flags.String("user", "", "user who owns unassigned tasks")
	flags.String("theme", "", "color theme (default, dracula)")
	_ = viper.BindPFlag("config", flags.Lookup("config"))
	_ = viper.BindPFlag("database.path", flags.Lookup("db"))
	_ = viper.BindPFlag("organization", flags.Lookup("org"))
	_ = viper.BindPFlag("user", flags.Lookup("user"))
	_ = viper.BindPFlag("theme", flags.Lookup("theme"))

	root.AddCommand(
		newNodeCmd(),
		newCapacityCmd(),
		newPlanCmd(),
		newReportCmd(),
		newExportCmd(),
		newImportCmd(),
		newBrowseCmd(),
		newServeMetricsCmd(),
		newConfigCmd(),
	)
	return root
}

// Execute runs the command line until ctx is canceled.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

func initConfig() {
	// Defaults first so they apply without a config file.
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix(config.EnvPrefix)
	// OKRCAP_CAPACITY_DAILY_LIMIT for capacity.daily_limit
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// A missing config file is fine.
	_ = viper.ReadInConfig()
}
