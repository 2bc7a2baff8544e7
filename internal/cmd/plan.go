package cmd

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/akyairhashvil/okrcap/internal/app"
	"github.com/akyairhashvil/okrcap/internal/config"
	"github.com/akyairhashvil/okrcap/internal/models"
	"github.com/akyairhashvil/okrcap/internal/okr"
	"github.com/akyairhashvil/okrcap/internal/scheduler"
	"github.com/akyairhashvil/okrcap/internal/tui"
	"github.com/akyairhashvil/okrcap/internal/util"
)

// now is replaced in tests.
var now = time.Now

func today() time.Time {
	return models.Day(now().UTC())
}

func addRangeFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("from", "", "first day YYYY-MM-DD (default today)")
	f.String("to", "", "last day YYYY-MM-DD (overrides --days)")
	f.Int("days", 0, "number of days (default planner.horizon_days)")
}

// dateRange reads --from/--to/--days, defaulting to horizon days from today.
func dateRange(cmd *cobra.Command, horizon int) (scheduler.DateRange, error) {
	f := cmd.Flags()
	start := today()
	if s := mustString(f, "from"); s != "" {
		d, err := parseDate(s)
		if err != nil {
			return scheduler.DateRange{}, err
		}
		start = d
	}
	days, _ := f.GetInt("days")
	if days <= 0 {
		days = horizon
	}
	r := scheduler.NewRange(start, days)
	if s := mustString(f, "to"); s != "" {
		end, err := parseDate(s)
		if err != nil {
			return scheduler.DateRange{}, err
		}
		r.End = end
	}
	if !r.Valid() {
		return r, fmt.Errorf("empty date range %s to %s", models.DateKey(r.Start), models.DateKey(r.End))
	}
	if n := len(r.Days()); n > config.MaxHorizonDays {
		return r, fmt.Errorf("date range of %d days exceeds %d", n, config.MaxHorizonDays)
	}
	return r, nil
}

func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Project whether the user's open tasks fit their capacity",
		Long: `Schedule the open tasks of --user (unassigned tasks count for the default
user) into the available OKR hours, earliest due date first, and report
completion dates, late tasks and hours that do not fit.`,
		Args: cobra.NoArgs,
		RunE: withEnv(func(cmd *cobra.Command, _ []string, env *environment) error {
			plan, err := runPlan(cmd, env)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch format := mustString(cmd.Flags(), "output"); format {
			case "json":
				data, err := json.MarshalIndent(plan, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
			case "yaml":
				data, err := yaml.Marshal(plan)
				if err != nil {
					return err
				}
				fmt.Fprint(out, string(data))
			case "", "text":
				fmt.Fprintln(out, tui.NewRenderer(0).RenderPlan(plan))
			default:
				return fmt.Errorf("unknown output %q (want text, json or yaml)", format)
			}
			return nil
		}),
	}
	addPlanFlags(cmd)
	cmd.Flags().StringP("output", "o", "text", "text, json or yaml")
	return cmd
}

func addPlanFlags(cmd *cobra.Command) {
	addRangeFlags(cmd)
	cmd.Flags().String("under", "", "only plan tasks beneath this node")
}

func runPlan(cmd *cobra.Command, env *environment) (scheduler.Plan, error) {
	r, err := dateRange(cmd, env.cfg.Planner.HorizonDays)
	if err != nil {
		return scheduler.Plan{}, err
	}
	plan, err := env.svc.Plan(app.PlanQuery{
		UserID:  env.svc.DefaultUser(),
		UnderID: mustString(cmd.Flags(), "under"),
		Range:   r,
	})
	if err != nil {
		return scheduler.Plan{}, err
	}
	env.metrics.ObservePlan(plan)
	return plan, nil
}

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate reports",
	}
	pdf := &cobra.Command{
		Use:   "pdf",
		Short: "Write a PDF feasibility report",
		Args:  cobra.NoArgs,
		RunE: withEnv(func(cmd *cobra.Command, _ []string, env *environment) error {
			plan, err := runPlan(cmd, env)
			if err != nil {
				return err
			}
			forest := env.svc.Store().Forest()
			if under := mustString(cmd.Flags(), "under"); under != "" {
				st, err := env.svc.Store().GetSubtree(under)
				if err != nil {
					return err
				}
				forest = []*okr.Subtree{st}
			}
			generated := now()
			path := mustString(cmd.Flags(), "out")
			if path == "" {
				path = filepath.Join(util.ReportsDir(config.AppName), tui.ReportFileName(plan.UserID, generated))
			}
			abs, err := tui.GeneratePlanReport(path, tui.Report{
				GeneratedAt: generated,
				Forest:      forest,
				Plan:        plan,
				Capacity:    env.svc.Capacity().GetSettings(plan.UserID),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "PDF report generated: %s\n", abs)
			return nil
		}),
	}
	addPlanFlags(pdf)
	pdf.Flags().String("out", "", "output file (default in the documents dir)")
	cmd.AddCommand(pdf)
	return cmd
}
