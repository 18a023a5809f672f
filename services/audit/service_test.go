package audit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travelhub/travel-hub/models"
	"go.uber.org/zap"
)

// recordingRepo captures events in memory.
type recordingRepo struct {
	mu     sync.Mutex
	events []*models.AuthEvent
}

func (r *recordingRepo) Create(_ context.Context, event *models.AuthEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingRepo) ListRecent(context.Context, int) ([]*models.AuthEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*models.AuthEvent(nil), r.events...), nil
}

func (r *recordingRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestServiceRecordsEvents(t *testing.T) {
	repo := &recordingRepo{}
	svc := NewService(repo, zap.NewNop(), Config{BufferSize: 16, WorkerCount: 1})
	require.NoError(t, svc.Start())

	for i := 0; i < 5; i++ {
		svc.Record(models.NewAuthEvent(models.EventLoginSucceeded, "portal"))
	}

	require.NoError(t, svc.Stop(2*time.Second))
	assert.Equal(t, 5, repo.count())
}

func TestServiceDoubleStartFails(t *testing.T) {
	svc := NewService(nil, zap.NewNop(), DefaultConfig())
	require.NoError(t, svc.Start())
	assert.Error(t, svc.Start())
	require.NoError(t, svc.Stop(time.Second))
}

func TestServiceStopWithoutStart(t *testing.T) {
	svc := NewService(nil, zap.NewNop(), DefaultConfig())
	assert.NoError(t, svc.Stop(time.Second))
}

func TestServiceRecordBeforeStartPersistsDirectly(t *testing.T) {
	repo := &recordingRepo{}
	svc := NewService(repo, zap.NewNop(), DefaultConfig())

	svc.Record(models.NewAuthEvent(models.EventLogout, "hr-desk"))
	assert.Equal(t, 1, repo.count())
}

func TestServiceNilRepoLogsOnly(t *testing.T) {
	svc := NewService(nil, zap.NewNop(), Config{BufferSize: 4, WorkerCount: 1})
	require.NoError(t, svc.Start())
	svc.Record(models.NewAuthEvent(models.EventGuardRejected, "finance-desk"))
	assert.NoError(t, svc.Stop(time.Second))
}
