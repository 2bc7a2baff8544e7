package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/akyairhashvil/okrcap/internal/capacity"
	"github.com/akyairhashvil/okrcap/internal/models"
	"github.com/akyairhashvil/okrcap/internal/tui"
)

func newCapacityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "capacity",
		Short: "Weekly capacity, daily limit, OKR allocation and dated exceptions",
		Long: `Capacity settings belong to the user selected with --user (default from
config). Daily OKR hours are min(daily limit, weekly / 7) scaled by the OKR
allocation, unless an exception overrides the date.`,
	}
	exception := &cobra.Command{
		Use:     "exception",
		Aliases: []string{"ex"},
		Short:   "Per-date availability overrides",
	}
	exception.AddCommand(newExceptionAddCmd(), newExceptionRemoveCmd())
	cmd.AddCommand(
		newCapacityShowCmd(),
		newCapacitySetCmd(),
		newCapacityResetCmd(),
		newCapacityAvailableCmd(),
		exception,
	)
	return cmd
}

func newCapacityShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show settings and the available hours per day",
		Args:  cobra.NoArgs,
		RunE: withEnv(func(cmd *cobra.Command, _ []string, env *environment) error {
			r, err := dateRange(cmd, env.cfg.Planner.HorizonDays)
			if err != nil {
				return err
			}
			user := env.svc.DefaultUser()
			days := env.svc.Capacity().AvailableRange(user, r.Start, r.End)
			fmt.Fprintln(cmd.OutOrStdout(), tui.NewRenderer(0).RenderCapacity(env.svc.Capacity().GetSettings(user), days))
			return nil
		}),
	}
	addRangeFlags(cmd)
	return cmd
}

func newCapacitySetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change capacity settings",
		Long: `Change capacity settings. Only the flags given are applied.

Example:
  okrcap --user alice capacity set --weekly 35 --daily 7 --allocation 50`,
		Args: cobra.NoArgs,
		RunE: withEnv(func(cmd *cobra.Command, _ []string, env *environment) error {
			f := cmd.Flags()
			patch := capacity.SettingsPatch{
				WeeklyCapacity: changedFloat(f, "weekly"),
				DailyLimit:     changedFloat(f, "daily"),
				OKRAllocation:  changedFloat(f, "allocation"),
			}
			s, err := env.svc.UpdateSettings(cmd.Context(), env.svc.DefaultUser(), patch)
			if !committed(err) {
				return err
			}
			printSettings(cmd, s)
			return err
		}),
	}
	f := cmd.Flags()
	f.Float64("weekly", 0, "weekly capacity in hours")
	f.Float64("daily", 0, "daily limit in hours")
	f.Float64("allocation", 0, "share of capacity for OKR work, 0-100")
	return cmd
}

func newCapacityResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore the configured defaults and drop every exception",
		Args:  cobra.NoArgs,
		RunE: withEnv(func(cmd *cobra.Command, _ []string, env *environment) error {
			s, err := env.svc.ResetSettings(cmd.Context(), env.svc.DefaultUser())
			if !committed(err) {
				return err
			}
			printSettings(cmd, s)
			return err
		}),
	}
}

func newCapacityAvailableCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "available",
		Short: "Print the OKR hours available on one date",
		Args:  cobra.NoArgs,
		RunE: withEnv(func(cmd *cobra.Command, _ []string, env *environment) error {
			day := today()
			if s := mustString(cmd.Flags(), "date"); s != "" {
				d, err := parseDate(s)
				if err != nil {
					return err
				}
				day = d
			}
			hours := env.svc.Capacity().AvailableHours(env.svc.DefaultUser(), day)
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", models.DateKey(day), tui.FormatHours(hours))
			return nil
		}),
	}
	cmd.Flags().String("date", "", "date YYYY-MM-DD (default today)")
	return cmd
}

func newExceptionAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Override the available hours on a date",
		Long: `Override the available hours on a date. A second exception for the same
date replaces the first.

Example:
  okrcap capacity exception add --date 2026-03-03 --hours 0 --reason holiday`,
		Args: cobra.NoArgs,
		RunE: withEnv(func(cmd *cobra.Command, _ []string, env *environment) error {
			f := cmd.Flags()
			in := capacity.ExceptionInput{
				Date:   mustString(f, "date"),
				Hours:  mustFloat(f, "hours"),
				Reason: mustString(f, "reason"),
			}
			ex, err := env.svc.AddException(cmd.Context(), env.svc.DefaultUser(), in)
			if !committed(err) {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exception %s: %s %s\n", ex.ID, ex.Date, tui.FormatHours(ex.Hours))
			return err
		}),
	}
	f := cmd.Flags()
	f.String("date", "", "date YYYY-MM-DD")
	f.Float64("hours", 0, "OKR hours available that day")
	f.String("reason", "", "note shown with the exception")
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("hours")
	return cmd
}

func newExceptionRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id>",
		Aliases: []string{"rm"},
		Short:   "Remove an exception",
		Args:    cobra.ExactArgs(1),
		RunE: withEnv(func(cmd *cobra.Command, args []string, env *environment) error {
			_, removed, err := env.svc.RemoveException(cmd.Context(), env.svc.DefaultUser(), args[0])
			if !committed(err) {
				return err
			}
			if !removed {
				fmt.Fprintf(cmd.OutOrStdout(), "no exception %s\n", args[0])
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed exception %s\n", args[0])
			return err
		}),
	}
}

func printSettings(cmd *cobra.Command, s models.CapacitySettings) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s: weekly %s, daily limit %s, OKR allocation %g%%, %d exceptions\n",
		s.UserID, tui.FormatHours(s.WeeklyCapacity), tui.FormatHours(s.DailyLimit), s.OKRAllocation, len(s.Exceptions))
}
