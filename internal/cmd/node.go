package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/akyairhashvil/okrcap/internal/models"
	"github.com/akyairhashvil/okrcap/internal/okr"
	"github.com/akyairhashvil/okrcap/internal/tui"
)

func newNodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "node",
		Aliases: []string{"nodes"},
		Short:   "Create, change and inspect goals, objectives, key results and tasks",
	}
	cmd.AddCommand(
		newNodeAddCmd(),
		newNodeUpdateCmd(),
		newNodeDeleteCmd(),
		newNodeShowCmd(),
		newNodeTreeCmd(),
		newNodeCheckCmd(),
	)
	return cmd
}

// addNodeFlags registers the fields shared by add and update.
func addNodeFlags(f *pflag.FlagSet) {
	f.String("title", "", "title")
	f.String("description", "", "description")
	f.String("status", "", "pending, in-progress or completed")
	f.Int("progress", 0, "manual progress 0-100 (leaves without a metric)")
	f.String("metric", "", "number, percentage, currency, checklist or boolean")
	f.Float64("start", 0, "metric start value")
	f.Float64("target", 0, "metric target value")
	f.Float64("current", 0, "metric current value")
	f.String("unit", "", "metric unit")
	f.Bool("descending", false, "lower metric values are better")
	f.StringArray("item", nil, "checklist item title (repeatable)")
	f.Float64("hours", 0, "estimated hours (tasks only)")
	f.String("due", "", "due date YYYY-MM-DD (tasks only)")
	f.String("assignee", "", "assigned user (tasks only)")
}

func newNodeAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a node",
		Long: `Add a node to the hierarchy. Goals are roots; every other type needs a
parent of the level directly above it.

Examples:
  okrcap node add --type goal --title "Grow revenue"
  okrcap node add --type kr --parent <objective> --title "Close deals" --metric number --target 10 --unit deals
  okrcap node add --type task --parent <kr> --title "Build API" --hours 6 --due 2026-03-10`,
		Args: cobra.NoArgs,
		RunE: withEnv(runNodeAdd),
	}
	f := cmd.Flags()
	f.String("type", "", "goal, objective, kr or task")
	f.String("parent", "", "parent node id")
	f.String("id", "", "explicit id (default: generated)")
	addNodeFlags(f)
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func runNodeAdd(cmd *cobra.Command, _ []string, env *environment) error {
	f := cmd.Flags()
	typ, err := parseNodeType(mustString(f, "type"))
	if err != nil {
		return err
	}
	in := okr.NodeInput{
		ID:             mustString(f, "id"),
		Type:           typ,
		Title:          mustString(f, "title"),
		Description:    mustString(f, "description"),
		Status:         models.NodeStatus(mustString(f, "status")),
		MetricUnit:     mustString(f, "unit"),
		MetricStart:    mustFloat(f, "start"),
		MetricTarget:   mustFloat(f, "target"),
		CurrentValue:   mustFloat(f, "current"),
		EstimatedHours: mustFloat(f, "hours"),
		AssigneeID:     mustString(f, "assignee"),
	}
	in.Progress, _ = f.GetInt("progress")
	if parent := mustString(f, "parent"); parent != "" {
		in.ParentID = &parent
	}
	if m := mustString(f, "metric"); m != "" {
		if in.MetricType, err = parseMetricType(m); err != nil {
			return err
		}
		descending, _ := f.GetBool("descending")
		in.MetricAsc = !descending
	}
	items, _ := f.GetStringArray("item")
	in.Checklist = checklist(items)
	if due := mustString(f, "due"); due != "" {
		d, err := parseDate(due)
		if err != nil {
			return err
		}
		in.DueDate = &d
	}

	m, err := env.svc.CreateNode(cmd.Context(), in)
	if !committed(err) {
		return err
	}
	printMutation(cmd.OutOrStdout(), "created", m)
	return err
}

func newNodeUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a node",
		Long: `Change fields of a node. Only the flags given are applied.

Examples:
  okrcap node update <kr> --current 7
  okrcap node update <task> --status completed
  okrcap node update <task> --clear-due`,
		Args: cobra.ExactArgs(1),
		RunE: withEnv(runNodeUpdate),
	}
	addNodeFlags(cmd.Flags())
	cmd.Flags().Bool("clear-due", false, "remove the due date")
	return cmd
}

func runNodeUpdate(cmd *cobra.Command, args []string, env *environment) error {
	patch, err := nodePatch(cmd.Flags())
	if err != nil {
		return err
	}
	m, err := env.svc.UpdateNode(cmd.Context(), args[0], patch)
	if !committed(err) {
		return err
	}
	printMutation(cmd.OutOrStdout(), "updated", m)
	return err
}

// nodePatch collects the flags that were set on the command line.
func nodePatch(f *pflag.FlagSet) (okr.NodePatch, error) {
	var p okr.NodePatch
	p.Title = changedString(f, "title")
	p.Description = changedString(f, "description")
	p.MetricUnit = changedString(f, "unit")
	p.AssigneeID = changedString(f, "assignee")
	p.MetricStart = changedFloat(f, "start")
	p.MetricTarget = changedFloat(f, "target")
	p.CurrentValue = changedFloat(f, "current")
	p.EstimatedHours = changedFloat(f, "hours")
	if f.Changed("status") {
		s := models.NodeStatus(mustString(f, "status"))
		p.Status = &s
	}
	if f.Changed("progress") {
		v, _ := f.GetInt("progress")
		p.Progress = &v
	}
	if f.Changed("metric") {
		mt, err := parseMetricType(mustString(f, "metric"))
		if err != nil {
			return p, err
		}
		p.MetricType = &mt
	}
	if f.Changed("descending") {
		descending, _ := f.GetBool("descending")
		asc := !descending
		p.MetricAsc = &asc
	}
	if f.Changed("item") {
		items, _ := f.GetStringArray("item")
		list := checklist(items)
		p.Checklist = &list
	}
	if f.Changed("due") {
		d, err := parseDate(mustString(f, "due"))
		if err != nil {
			return p, err
		}
		p.DueDate = &d
	}
	p.ClearDueDate, _ = f.GetBool("clear-due")
	return p, nil
}

func newNodeDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a node",
		Long: `Delete a node. With the cascade policy its whole subtree goes too; with
restrict (nodes.delete_policy) a node that has children is refused.`,
		Args: cobra.ExactArgs(1),
		RunE: withEnv(func(cmd *cobra.Command, args []string, env *environment) error {
			m, err := env.svc.DeleteNode(cmd.Context(), args[0])
			if !committed(err) {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "deleted %s (%d nodes removed)\n", args[0], len(m.Removed))
			printAncestors(out, m)
			return err
		}),
	}
}

func newNodeShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show every field of a node",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(func(cmd *cobra.Command, args []string, env *environment) error {
			n, err := env.svc.Store().Get(args[0])
			if err != nil {
				return err
			}
			kids, err := env.svc.Store().Children(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tui.NewRenderer(0).RenderNode(n, len(kids)))
			return nil
		}),
	}
}

func newNodeTreeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree [id]",
		Short: "Print the hierarchy with progress",
		Args:  cobra.MaximumNArgs(1),
		RunE: withEnv(func(cmd *cobra.Command, args []string, env *environment) error {
			depth, _ := cmd.Flags().GetInt("depth")
			forest := env.svc.Store().Forest()
			if len(args) == 1 {
				st, err := env.svc.Store().GetSubtree(args[0])
				if err != nil {
					return err
				}
				forest = []*okr.Subtree{st}
			}
			rows := okr.Flatten(forest, nil, depth)
			fmt.Fprintln(cmd.OutOrStdout(), tui.NewRenderer(0).RenderRows(rows, -1, nil))
			return nil
		}),
	}
	cmd.Flags().Int("depth", 0, "levels to show (0 = all)")
	return cmd
}

func newNodeCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <id> <item>",
		Short: "Tick a checklist item by id or position",
		Args:  cobra.ExactArgs(2),
		RunE: withEnv(func(cmd *cobra.Command, args []string, env *environment) error {
			n, err := env.svc.Store().Get(args[0])
			if err != nil {
				return err
			}
			undo, _ := cmd.Flags().GetBool("undo")
			list := append([]models.ChecklistItem(nil), n.Checklist...)
			i := findItem(list, args[1])
			if i < 0 {
				return fmt.Errorf("node %s has no checklist item %q", args[0], args[1])
			}
			list[i].Done = !undo
			m, err := env.svc.UpdateNode(cmd.Context(), args[0], okr.NodePatch{Checklist: &list})
			if !committed(err) {
				return err
			}
			printMutation(cmd.OutOrStdout(), "updated", m)
			return err
		}),
	}
	cmd.Flags().Bool("undo", false, "untick the item")
	return cmd
}

func findItem(list []models.ChecklistItem, ref string) int {
	for i, item := range list {
		if item.ID == ref {
			return i
		}
	}
	if pos, err := strconv.Atoi(ref); err == nil && pos >= 1 && pos <= len(list) {
		return pos - 1
	}
	return -1
}

func checklist(titles []string) []models.ChecklistItem {
	if len(titles) == 0 {
		return nil
	}
	out := make([]models.ChecklistItem, len(titles))
	for i, title := range titles {
		out[i] = models.ChecklistItem{ID: strconv.Itoa(i + 1), Title: title}
	}
	return out
}

func printMutation(w io.Writer, verb string, m okr.Mutation) {
	n := m.Node
	fmt.Fprintf(w, "%s %s %s %q %s\n", verb, tui.TypeLabel(n.Type), n.ID, n.Title, tui.FormatPercent(n.Progress))
	printAncestors(w, m)
}

func printAncestors(w io.Writer, m okr.Mutation) {
	for _, a := range m.Updated {
		fmt.Fprintf(w, "  %s %s -> %s\n", tui.TypeLabel(a.Type), a.ID, tui.FormatPercent(a.Progress))
	}
}

func parseNodeType(s string) (models.NodeType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "goal", "g":
		return models.NodeGoal, nil
	case "objective", "obj", "o":
		return models.NodeObjective, nil
	case "key_result", "key-result", "keyresult", "kr":
		return models.NodeKeyResult, nil
	case "task", "t":
		return models.NodeTask, nil
	}
	return "", fmt.Errorf("unknown node type %q (want goal, objective, kr or task)", s)
}

func parseMetricType(s string) (models.MetricType, error) {
	mt := models.MetricType(strings.ToLower(strings.TrimSpace(s)))
	if mt == models.MetricNone || !mt.Valid() {
		return "", fmt.Errorf("unknown metric type %q", s)
	}
	return mt, nil
}

func parseDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation(models.DateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return d, nil
}

func mustString(f *pflag.FlagSet, name string) string {
	v, _ := f.GetString(name)
	return v
}

func mustFloat(f *pflag.FlagSet, name string) float64 {
	v, _ := f.GetFloat64(name)
	return v
}

func changedString(f *pflag.FlagSet, name string) *string {
	if !f.Changed(name) {
		return nil
	}
	v := mustString(f, name)
	return &v
}

func changedFloat(f *pflag.FlagSet, name string) *float64 {
	if !f.Changed(name) {
		return nil
	}
	v := mustFloat(f, name)
	return &v
}
