package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// RemoteChecker checks the remote vector search collaborator.
type RemoteChecker interface {
	HealthCheck(ctx context.Context) error
}
