// Package health implements the liveness and deep-dependency healthchecks.
//
// The shallow check reports only process status and hostname. The full check
// probes every dependency (auth service, primary store, replica store) and
// aggregates: available only when every dependency is available. Timing and
// diagnostic metadata is attached opportunistically per dependency.
package health

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"
)

// Statuses reported by healthcheck endpoints.
const (
	StatusAvailable         = "available"
	StatusDependencyFailure = "dependency failure"
)

// Dependency is the probe result for one upstream dependency.
type Dependency struct {
	Available bool   `json:"available"`
	URL       string `json:"url,omitempty"`
	Duration  string `json:"duration,omitempty"`
	Warning   string `json:"warning,omitempty"`
	Info      string `json:"info,omitempty"`
}

// Report is the payload of the healthcheck endpoints. Dependencies is nil for
// the shallow liveness check.
type Report struct {
	Status       string                `json:"status"`
	Hostname     string                `json:"hostname"`
	Dependencies map[string]Dependency `json:"dependencies,omitempty"`
}

// Available reports whether every checked dependency is available.
// A report without dependencies is a liveness report and always available.
func (r Report) Available() bool {
	return r.Status == StatusAvailable
}

// Liveness builds the shallow report.
func Liveness() Report {
	return Report{Status: StatusAvailable, Hostname: hostname()}
}

// Aggregate builds the full report from individual dependency probes.
func Aggregate(deps map[string]Dependency) Report {
	status := StatusAvailable
	for _, dep := range deps {
		if !dep.Available {
			status = StatusDependencyFailure
			break
		}
	}
	return Report{Status: status, Hostname: hostname(), Dependencies: deps}
}

// CheckDB probes a database handle with a ping, recording the round-trip time.
// A nil handle reports unavailable rather than panicking, covering the
// unconfigured-replica case upstream of the caller.
func CheckDB(ctx context.Context, db *sql.DB, slowThreshold time.Duration) Dependency {
	if db == nil {
		return Dependency{Available: false, Info: "not configured"}
	}

	start := time.Now()
	err := db.PingContext(ctx)
	elapsed := time.Since(start)

	dep := Dependency{
		Available: err == nil,
		Duration:  elapsed.String(),
	}

	if err != nil {
		dep.Info = "An error occured while pinging the database"
	} else if slowThreshold > 0 && elapsed > slowThreshold {
		dep.Warning = fmt.Sprintf("Response slower than %s", slowThreshold)
	}

	return dep
}

func hostname() string {
	name, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return name
}
