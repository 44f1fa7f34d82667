package health

import (
	"context"
	"time"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure. Search keeps working on the local scan.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names used as report keys.
const (
	ComponentDatabase  = "database"
	ComponentEmbedding = "embedding"
	ComponentRemote    = "remote_search"
)

const checkTimeout = 2 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

type check struct {
	name string
	fn   func(ctx context.Context) error
}

// Service coordinates health checks.
type Service struct {
	checks []check
}

// New creates a Service. Any component can be nil and is then left out of the report.
func New(db DBPinger, embedding EmbeddingChecker, remote RemoteChecker) *Service {
	s := &Service{}
	if db != nil {
		s.checks = append(s.checks, check{ComponentDatabase, db.Ping})
	}
	if embedding != nil {
		s.checks = append(s.checks, check{ComponentEmbedding, embedding.HealthCheck})
	}
	if remote != nil {
		s.checks = append(s.checks, check{ComponentRemote, remote.HealthCheck})
	}
	return s
}

// Check runs health checks against all components, each with its own timeout.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult, len(s.checks))
	status := Healthy

	for _, c := range s.checks {
		cctx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := c.fn(cctx)
		cancel()

		if err != nil {
			checks[c.name] = CheckError
			status = Degraded
		} else {
			checks[c.name] = CheckOK
		}
	}

	return Report{Status: status, Checks: checks}
}
