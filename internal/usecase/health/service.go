package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates the service cannot answer queries yet.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status         Status
	Checks         map[string]CheckResult
	ProductsLoaded int
}

// Service coordinates health checks.
type Service struct {
	snapshots SnapshotProvider
	store     StorePinger
	embedding EmbeddingChecker
}

// New creates a Service. store and embedding can be nil when the deployment
// runs without an external index or a remote embedding provider.
func New(snapshots SnapshotProvider, store StorePinger, embedding EmbeddingChecker) *Service {
	return &Service{snapshots: snapshots, store: store, embedding: embedding}
}

// Check runs health checks against all components. The catalog check is the
// readiness barrier: queries fail until the first snapshot is published, so
// a missing snapshot reports the whole service unhealthy rather than degraded.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	products := 0
	snap, err := s.snapshots.Current()
	if err != nil {
		checks["catalog"] = CheckError
	} else {
		checks["catalog"] = CheckOK
		products = snap.Catalog.Len()
	}

	if s.store != nil {
		if err := s.store.Ping(ctx); err != nil {
			checks["index_store"] = CheckError
		} else {
			checks["index_store"] = CheckOK
		}
	}

	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			checks["embedding"] = CheckError
		} else {
			checks["embedding"] = CheckOK
		}
	}

	status := Healthy
	for name, v := range checks {
		if v != CheckError {
			continue
		}
		if name == "catalog" {
			status = Unhealthy
			break
		}
		status = Degraded
	}

	return Report{Status: status, Checks: checks, ProductsLoaded: products}
}
