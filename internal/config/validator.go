package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError is a single invalid config value.
type ValidationError struct {
	Field   string // config key, e.g. "capacity.daily_limit"
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors collects every failure found by Validate.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the accepted logging.level values.
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidDeletePolicies returns the accepted nodes.delete_policy values.
func ValidDeletePolicies() []string {
	return []string{DeletePolicyCascade, DeletePolicyRestrict}
}

// Validate checks the Config and returns every problem found.
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError
	errors = append(errors, c.validateDatabase()...)
	errors = append(errors, c.validateLogging()...)
	errors = append(errors, c.validateCapacity()...)
	errors = append(errors, c.validateNodes()...)
	errors = append(errors, c.validatePlanner()...)
	errors = append(errors, c.validateIdentity()...)
	return errors
}

func (c *Config) validateDatabase() []ValidationError {
	var errors []ValidationError
	if c.Database.TimeoutMs <= 0 {
		errors = append(errors, ValidationError{
			Field:   "database.timeout_ms",
			Value:   c.Database.TimeoutMs,
			Message: "must be positive",
		})
	}
	return errors
}

func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError
	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}
	return errors
}

func (c *Config) validateCapacity() []ValidationError {
	var errors []ValidationError
	nonNegative := []struct {
		field string
		value float64
	}{
		{"capacity.weekly_capacity", c.Capacity.WeeklyCapacity},
		{"capacity.daily_limit", c.Capacity.DailyLimit},
		{"capacity.okr_allocation", c.Capacity.OKRAllocation},
	}
	for _, f := range nonNegative {
		if f.value < 0 {
			errors = append(errors, ValidationError{Field: f.field, Value: f.value, Message: "must be non-negative"})
		}
	}
	if c.Capacity.OKRAllocation > 100 {
		errors = append(errors, ValidationError{
			Field:   "capacity.okr_allocation",
			Value:   c.Capacity.OKRAllocation,
			Message: "must be at most 100",
		})
	}
	return errors
}

func (c *Config) validateNodes() []ValidationError {
	var errors []ValidationError
	if !slices.Contains(ValidDeletePolicies(), c.Nodes.DeletePolicy) {
		errors = append(errors, ValidationError{
			Field:   "nodes.delete_policy",
			Value:   c.Nodes.DeletePolicy,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidDeletePolicies(), ", ")),
		})
	}
	return errors
}

func (c *Config) validatePlanner() []ValidationError {
	var errors []ValidationError
	if c.Planner.HorizonDays < 1 || c.Planner.HorizonDays > MaxHorizonDays {
		errors = append(errors, ValidationError{
			Field:   "planner.horizon_days",
			Value:   c.Planner.HorizonDays,
			Message: fmt.Sprintf("must be between 1 and %d", MaxHorizonDays),
		})
	}
	return errors
}

func (c *Config) validateIdentity() []ValidationError {
	var errors []ValidationError
	if strings.TrimSpace(c.Organization) == "" {
		errors = append(errors, ValidationError{Field: "organization", Value: c.Organization, Message: "is required"})
	}
	if strings.TrimSpace(c.User) == "" {
		errors = append(errors, ValidationError{Field: "user", Value: c.User, Message: "is required"})
	}
	return errors
}
