package preflight

import (
	"vigil/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all preflight checks for the given config.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckRouteTable(),
		CheckDatabaseFile(cfg.DatabasePath()),
	}

	if cfg.Paths.APIBind != "" {
		results = append(results, CheckAPIBind(cfg.Paths.APIBind))
	}

	return results
}
