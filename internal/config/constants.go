package config

import "time"

// Application identity.
const (
	AppName        = "okrcap"
	DBFileName     = "okrcap.db"
	ConfigFileName = "config.yaml"
	EnvPrefix      = "OKRCAP"
)

// Storage timeouts.
const (
	DefaultQueryTimeout = 5 * time.Second
	MigrationTimeout    = 30 * time.Second
)

// Defaults for a user who has never configured capacity.
const (
	DefaultWeeklyCapacity = 40.0
	DefaultDailyLimit     = 8.0
	DefaultOKRAllocation  = 20.0
)

// Planner defaults.
const (
	DefaultHorizonDays = 28
	MaxHorizonDays     = 366
)

// Delete policies accepted by nodes.delete_policy.
const (
	DeletePolicyCascade  = "cascade"
	DeletePolicyRestrict = "restrict"
)

// Identity used when neither flags nor config name one.
const (
	DefaultOrganization = "default"
	DefaultUser         = "me"
)

// DefaultMetricsAddr is where serve-metrics listens.
const DefaultMetricsAddr = "127.0.0.1:9464"
