package health

import (
	"context"
	"errors"
	"testing"
)

// --- Mocks ---

type mockChecker struct {
	err error
}

func (m *mockChecker) Ping(_ context.Context) error        { return m.err }
func (m *mockChecker) HealthCheck(_ context.Context) error { return m.err }

// --- Tests ---

func TestCheck(t *testing.T) {
	down := errors.New("down")

	tests := []struct {
		name   string
		db     DBPinger
		emb    EmbeddingChecker
		remote RemoteChecker
		status Status
		checks map[string]CheckResult
	}{
		{
			name:   "embedding only",
			emb:    &mockChecker{},
			status: Healthy,
			checks: map[string]CheckResult{ComponentEmbedding: CheckOK},
		},
		{
			name:   "all healthy",
			db:     &mockChecker{},
			emb:    &mockChecker{},
			remote: &mockChecker{},
			status: Healthy,
			checks: map[string]CheckResult{
				ComponentDatabase: CheckOK, ComponentEmbedding: CheckOK, ComponentRemote: CheckOK,
			},
		},
		{
			name:   "database down",
			db:     &mockChecker{err: down},
			emb:    &mockChecker{},
			status: Degraded,
			checks: map[string]CheckResult{ComponentDatabase: CheckError, ComponentEmbedding: CheckOK},
		},
		{
			name:   "remote down",
			emb:    &mockChecker{},
			remote: &mockChecker{err: down},
			status: Degraded,
			checks: map[string]CheckResult{ComponentEmbedding: CheckOK, ComponentRemote: CheckError},
		},
		{
			name:   "nothing configured",
			status: Healthy,
			checks: map[string]CheckResult{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := New(tc.db, tc.emb, tc.remote).Check(context.Background())
			if r.Status != tc.status {
				t.Errorf("status = %q, want %q", r.Status, tc.status)
			}
			if len(r.Checks) != len(tc.checks) {
				t.Fatalf("checks = %v, want %v", r.Checks, tc.checks)
			}
			for k, v := range tc.checks {
				if r.Checks[k] != v {
					t.Errorf("%s = %q, want %q", k, r.Checks[k], v)
				}
			}
		})
	}
}

func TestCheck_AppliesTimeout(t *testing.T) {
	var hasDeadline bool
	emb := checkFunc(func(ctx context.Context) error {
		_, hasDeadline = ctx.Deadline()
		return nil
	})
	New(nil, emb, nil).Check(context.Background())
	if !hasDeadline {
		t.Error("expected a per-check deadline")
	}
}

type checkFunc func(ctx context.Context) error

func (f checkFunc) HealthCheck(ctx context.Context) error { return f(ctx) }
