package config

// Layout constants.
const (
	// MinTitleWidth is the narrowest title column the tree view renders.
	MinTitleWidth = 12

	// TargetTitleWidth is the preferred width for node titles.
	TargetTitleWidth = 40

	// ProgressBarWidth is the width of inline progress bars.
	ProgressBarWidth = 20

	// DefaultTerminalWidth is used when the output is not a terminal.
	DefaultTerminalWidth = 100

	// IndentWidth is the per-level indent in tree output.
	IndentWidth = 2
)

// Display limits.
const (
	// MaxPlanDaysShown caps the day table in terminal plan output.
	MaxPlanDaysShown = 31

	// TruncationSuffix appended to truncated strings.
	TruncationSuffix = "..."
)

// Input constraints.
const (
	// MaxTitleLength is the maximum node title length.
	MaxTitleLength = 200

	// MaxDescriptionLength is the maximum description length.
	MaxDescriptionLength = 2000
)
