package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/atinyakov/FoodScan/internal/errs"
	"github.com/atinyakov/FoodScan/internal/models"
	"github.com/atinyakov/FoodScan/internal/service"
)

type fakeLister struct {
	mu    sync.Mutex
	calls int
	fn    func(call int) ([]models.ScanRecord, error)
}

func (f *fakeLister) ListScans(_ context.Context, _ *models.Session) ([]models.ScanRecord, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	fn := f.fn
	f.mu.Unlock()
	return fn(call)
}

func (f *fakeLister) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func history() []models.ScanRecord {
	now := time.Now()
	return []models.ScanRecord{
		{ID: "r2", UserID: "u1", FoodName: "Burger", CreatedAt: now},
		{ID: "r1", UserID: "u1", FoodName: "Fried Rice", CreatedAt: now.Add(-time.Hour)},
	}
}

func TestSynchronizer_ActivateFetchesImmediately(t *testing.T) {
	t.Parallel()

	lister := &fakeLister{fn: func(int) ([]models.ScanRecord, error) {
		return history(), nil
	}}
	s := service.NewSynchronizer(lister, &fakeSessions{sess: sessionU1()}, time.Hour, zap.NewNop())
	defer s.Deactivate()

	s.Activate(context.Background())

	got := s.Snapshot()
	require.Len(t, got, 2)
	assert.Equal(t, "r2", got[0].ID, "newest first")
	assert.Equal(t, "r1", got[1].ID)
	assert.Equal(t, 1, lister.callCount())
}

func TestSynchronizer_NoSessionNoPolling(t *testing.T) {
	t.Parallel()

	lister := &fakeLister{fn: func(int) ([]models.ScanRecord, error) {
		return history(), nil
	}}
	s := service.NewSynchronizer(lister, &fakeSessions{err: errs.ErrNoSession}, 10*time.Millisecond, zap.NewNop())
	defer s.Deactivate()

	s.Activate(context.Background())

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, lister.callCount(), "no fetch and no ticker without a session")
	assert.Empty(t, s.Snapshot())
}

func TestSynchronizer_RefreshesOnInterval(t *testing.T) {
	t.Parallel()

	lister := &fakeLister{fn: func(call int) ([]models.ScanRecord, error) {
		if call == 1 {
			return history()[1:], nil
		}
		return history(), nil
	}}
	s := service.NewSynchronizer(lister, &fakeSessions{sess: sessionU1()}, 10*time.Millisecond, zap.NewNop())
	defer s.Deactivate()

	s.Activate(context.Background())
	require.Len(t, s.Snapshot(), 1)

	require.Eventually(t, func() bool {
		return len(s.Snapshot()) == 2
	}, 2*time.Second, 5*time.Millisecond, "a later tick must pick up the new record")
}

func TestSynchronizer_FailureKeepsStaleList(t *testing.T) {
	t.Parallel()

	lister := &fakeLister{fn: func(call int) ([]models.ScanRecord, error) {
		if call == 1 {
			return history(), nil
		}
		return nil, errors.New("store down")
	}}
	s := service.NewSynchronizer(lister, &fakeSessions{sess: sessionU1()}, 10*time.Millisecond, zap.NewNop())
	defer s.Deactivate()

	s.Activate(context.Background())
	require.Len(t, s.Snapshot(), 2)

	require.Eventually(t, func() bool {
		return lister.callCount() >= 3
	}, 2*time.Second, 5*time.Millisecond)

	assert.Len(t, s.Snapshot(), 2, "transient errors never clear the displayed list")
}

func TestSynchronizer_LateResponseNotAppliedAfterDeactivate(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	lister := &fakeLister{fn: func(call int) ([]models.ScanRecord, error) {
		if call == 1 {
			return history()[1:], nil
		}
		// Second fetch stays in flight until released.
		<-release
		return history(), nil
	}}
	s := service.NewSynchronizer(lister, &fakeSessions{sess: sessionU1()}, 10*time.Millisecond, zap.NewNop())

	s.Activate(context.Background())
	require.Len(t, s.Snapshot(), 1)

	// Wait for the in-flight tick, then close the overlay while it hangs.
	require.Eventually(t, func() bool {
		return lister.callCount() >= 2
	}, 2*time.Second, 5*time.Millisecond)
	s.Deactivate()
	close(release)

	time.Sleep(50 * time.Millisecond)
	assert.Len(t, s.Snapshot(), 1, "a fetch resolving after deactivation must not mutate the view")
}

func TestSynchronizer_ReactivateSupersedes(t *testing.T) {
	t.Parallel()

	lister := &fakeLister{fn: func(int) ([]models.ScanRecord, error) {
		return history(), nil
	}}
	s := service.NewSynchronizer(lister, &fakeSessions{sess: sessionU1()}, time.Hour, zap.NewNop())
	defer s.Deactivate()

	s.Activate(context.Background())
	s.Activate(context.Background())

	assert.Equal(t, 2, lister.callCount(), "each activation fetches once")
	assert.Len(t, s.Snapshot(), 2)
}
