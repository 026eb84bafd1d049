package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/FlorianRuen/skillsync/config"
	"github.com/FlorianRuen/skillsync/model"
	"github.com/FlorianRuen/skillsync/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSyncer struct {
	mu    sync.Mutex
	modes []model.BatchMode
}

func (r *recordingSyncer) SyncUser(context.Context, string, string) (service.AnalysisResult, error) {
	return service.AnalysisResult{}, nil
}

func (r *recordingSyncer) SyncAll(_ context.Context, mode model.BatchMode) (service.BatchReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modes = append(r.modes, mode)
	return service.BatchReport{Mode: mode}, nil
}

func (r *recordingSyncer) seen() []model.BatchMode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.BatchMode{}, r.modes...)
}

func TestSchedulerRegistersBothJobs(t *testing.T) {
	cfg := config.GetDefault().Scheduler
	s := New(cfg, &recordingSyncer{})

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	assert.Equal(t, 2, s.Entries())
}

func TestSchedulerSkipsEmptySpec(t *testing.T) {
	cfg := config.GetDefault().Scheduler
	cfg.IncrementalSyncSpec = ""
	s := New(cfg, &recordingSyncer{})

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	assert.Equal(t, 1, s.Entries())
}

func TestSchedulerRejectsInvalidSpec(t *testing.T) {
	cfg := config.GetDefault().Scheduler
	cfg.FullSyncSpec = "every tuesday"
	s := New(cfg, &recordingSyncer{})

	assert.Error(t, s.Start(context.Background()))
}

func TestSchedulerRunsBatches(t *testing.T) {
	syncer := &recordingSyncer{}
	cfg := config.GetDefault().Scheduler
	cfg.FullSyncSpec = "@every 1s"
	cfg.IncrementalSyncSpec = ""

	s := New(cfg, syncer)
	require.NoError(t, s.Start(context.Background()))

	assert.Eventually(t, func() bool {
		return len(syncer.seen()) > 0
	}, 3*time.Second, 50*time.Millisecond)

	<-s.Stop().Done()
	assert.Equal(t, model.BatchFull, syncer.seen()[0])
}
