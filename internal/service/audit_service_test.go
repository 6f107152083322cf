package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/psyscribe/psyscribe/internal/domain"
)

// gatedAuditRepo parks the first write until released so the channel buffer
// can be filled deterministically.
type gatedAuditRepo struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once

	mu    sync.Mutex
	count int
}

func newGatedAuditRepo() *gatedAuditRepo {
	return &gatedAuditRepo{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (r *gatedAuditRepo) Create(_ context.Context, _ *domain.AuditLog) error {
	r.once.Do(func() { close(r.started) })
	<-r.release

	r.mu.Lock()
	r.count++
	r.mu.Unlock()
	return nil
}

func (r *gatedAuditRepo) persisted() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

func TestAuditBufferDropsWhenFull(t *testing.T) {
	repo := newGatedAuditRepo()
	svc := NewAuditService(repo, nil, zap.NewNop())

	entry := AuditEntry{
		UserID:       uuid.New(),
		UserRole:     "clinician",
		Action:       "read",
		ResourceType: "patient",
	}

	// The worker takes this entry and parks inside Create.
	svc.LogAsync(context.Background(), entry)
	<-repo.started

	// Fill the buffer to capacity while the worker is parked.
	for i := 0; i < auditBufferSize; i++ {
		svc.LogAsync(context.Background(), entry)
	}

	// One past capacity: must be dropped, never block the caller.
	svc.LogAsync(context.Background(), entry)

	close(repo.release)
	svc.Shutdown()

	want := auditBufferSize + 1 // the in-flight entry plus a full buffer
	if got := repo.persisted(); got != want {
		t.Errorf("persisted %d entries, want %d (overflow entry must be dropped)", got, want)
	}
}
