package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/highlights-sync/internal/entities"
	"github.com/mrlokans/highlights-sync/internal/syncengine"
)

type fakeSettings struct {
	enabled  bool
	schedule string
	hasToken bool
}

func (f fakeSettings) GetSyncEnabled() bool    { return f.enabled }
func (f fakeSettings) GetSyncSchedule() string { return f.schedule }
func (f fakeSettings) HasToken() bool          { return f.hasToken }

type fakeRunner struct {
	mu       sync.Mutex
	triggers []entities.SyncTrigger
	syncing  bool
	err      error
}

func (f *fakeRunner) Run(ctx context.Context, trigger entities.SyncTrigger) (*syncengine.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.triggers = append(f.triggers, trigger)
	if f.err != nil {
		return &syncengine.Result{Err: f.err}, f.err
	}
	return &syncengine.Result{Trigger: trigger}, nil
}

func (f *fakeRunner) IsSyncing() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.syncing
}

func (f *fakeRunner) Triggers() []entities.SyncTrigger {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]entities.SyncTrigger(nil), f.triggers...)
}

func TestSyncScheduler_StartDisabled(t *testing.T) {
	s := NewSyncScheduler(fakeSettings{enabled: false, schedule: "0 * * * *", hasToken: true}, &fakeRunner{})

	require.NoError(t, s.Start(context.Background()))
	assert.False(t, s.IsRunning())
	assert.Nil(t, s.GetNextRunTime())
}

func TestSyncScheduler_StartWithoutToken(t *testing.T) {
	s := NewSyncScheduler(fakeSettings{enabled: true, schedule: "0 * * * *"}, &fakeRunner{})

	require.NoError(t, s.Start(context.Background()))
	assert.False(t, s.IsRunning())
}

func TestSyncScheduler_InvalidSchedule(t *testing.T) {
	s := NewSyncScheduler(fakeSettings{enabled: true, schedule: "whenever", hasToken: true}, &fakeRunner{})

	err := s.Start(context.Background())
	assert.Error(t, err)
	assert.False(t, s.IsRunning())
}

func TestSyncScheduler_StartStop(t *testing.T) {
	s := NewSyncScheduler(fakeSettings{enabled: true, schedule: "0 */6 * * *", hasToken: true}, &fakeRunner{})

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())

	next := s.GetNextRunTime()
	require.NotNil(t, next)
	assert.True(t, next.After(time.Now()))

	s.Stop()
	assert.False(t, s.IsRunning())
	assert.Nil(t, s.GetNextRunTime())

	// Stopping twice is a no-op
	s.Stop()
}

func TestSyncScheduler_Reschedule(t *testing.T) {
	s := NewSyncScheduler(fakeSettings{enabled: true, schedule: "0 * * * *", hasToken: true}, &fakeRunner{})

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Reschedule())
	assert.True(t, s.IsRunning())
	s.Stop()
}

func TestSyncScheduler_StopsOnContextCancel(t *testing.T) {
	s := NewSyncScheduler(fakeSettings{enabled: true, schedule: "0 * * * *", hasToken: true}, &fakeRunner{})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))
	cancel()

	assert.Eventually(t, func() bool { return !s.IsRunning() }, time.Second, 10*time.Millisecond)
}

func TestSyncScheduler_RunNow(t *testing.T) {
	runner := &fakeRunner{}
	s := NewSyncScheduler(fakeSettings{}, runner)

	require.NoError(t, s.RunNow(entities.SyncTriggerManual))
	s.Wait()

	assert.Equal(t, []entities.SyncTrigger{entities.SyncTriggerManual}, runner.Triggers())
}

func TestSyncScheduler_RunNowWhileSyncing(t *testing.T) {
	runner := &fakeRunner{syncing: true}
	s := NewSyncScheduler(fakeSettings{}, runner)

	err := s.RunNow(entities.SyncTriggerManual)
	assert.ErrorIs(t, err, syncengine.ErrSyncInProgress)
	assert.True(t, s.IsSyncing())
	assert.Empty(t, runner.Triggers())
}
