// Package config defines the structured run document the CLI loads:
// tick granularities and worker counts per work-group, the persistent
// store connection, and the logical-name-to-stored-procedure map the
// Periodic Loader and network loader resolve against.
package config

import "github.com/smart-fm/simkernel/simerr"

// MutexStrategy names one of the two historical concurrency strategies
// for protecting shared state outside the buffered-cell/barrier
// discipline (lane insertion, bus-stop queues).
type MutexStrategy string

const (
	MutexPooled MutexStrategy = "pooled"
	MutexLocked MutexStrategy = "locked"
)

// WorkGroupConfig is one work-group's tick granularity (in base ticks)
// and worker count.
type WorkGroupConfig struct {
	Granularity int64 `yaml:"granularity"`
	Workers     int   `yaml:"workers"`
}

// Input names the persistent store's connection string.
type Input struct {
	URI string `yaml:"uri"`
}

// Control holds simulation-wide behavior switches.
type Control struct {
	// Strict re-raises role failures instead of converting them into
	// agent removal. Debugging only.
	Strict bool `yaml:"strict,omitempty"`
}

// storedProcedureNames are the logical entity names a Config's
// StoredProcedures map may carry, per spec.md §6. Every name but
// "signal" is mandatory: an empty or missing string for a mandatory
// name is a fatal config error, while a missing "signal" entry is only
// a warning (a network with no traffic signals is plausible).
var storedProcedureNames = []string{
	"node", "section", "crossing", "lane", "turning",
	"polyline", "tripchain", "signal", "taxi_fleet", "day_activity_schedule",
}

// Config is the YAML document a run is configured from.
type Config struct {
	BaseGranMs        int64                      `yaml:"base_gran_ms"`
	TotalRuntimeTicks int64                      `yaml:"total_runtime_ticks"`
	TotalWarmupTicks  int64                      `yaml:"total_warmup_ticks"`
	WorkGroups        map[string]WorkGroupConfig `yaml:"work_groups"`
	Input             Input                      `yaml:"input"`
	MutexStrategy     MutexStrategy              `yaml:"mutex_strategy"`
	DynamicDispatch   bool                       `yaml:"dynamic_dispatch"`
	StoredProcedures  map[string]string          `yaml:"stored_procedures"`
	Control           Control                    `yaml:"control"`
}

// Validate checks the mandatory stored-procedure entries and the
// work-group tuples the driver needs (agents, signals, shortestPath).
// It returns a simerr.ConfigInvalid on the first problem found.
func (c Config) Validate() error {
	if c.BaseGranMs <= 0 {
		return simerr.New(simerr.ConfigInvalid, "config: base_gran_ms must be positive, got %d", c.BaseGranMs)
	}
	for _, name := range []string{"agents", "signals", "shortestPath"} {
		g, ok := c.WorkGroups[name]
		if !ok || g.Workers < 1 || g.Granularity < 1 {
			return simerr.New(simerr.ConfigInvalid, "config: work-group %q must specify at least one worker and a granularity of at least one base tick", name)
		}
	}
	for _, name := range storedProcedureNames {
		proc, ok := c.StoredProcedures[name]
		if ok && proc != "" {
			continue
		}
		if name == "signal" {
			log.Warnf("config: no stored procedure configured for %q; signal load path disabled", name)
			continue
		}
		return simerr.New(simerr.ConfigInvalid, "config: missing mandatory stored procedure for %q", name)
	}
	return nil
}

// RuntimeConfig derives the subset of Config a running simulation reads
// repeatedly, the way utils/config.NewRuntimeConfig projects Config
// into a run-time view.
type RuntimeConfig struct {
	All Config
	C   Control
}

// NewRuntimeConfig builds a RuntimeConfig from a validated Config.
func NewRuntimeConfig(c Config) *RuntimeConfig {
	return &RuntimeConfig{All: c, C: c.Control}
}
