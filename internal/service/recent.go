package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/FoodScan/internal/models"
)

// defaultPollInterval is how often the recent-scans view refreshes while open.
const defaultPollInterval = 10 * time.Second

// ScanLister reads a user's scan history from the data store.
type ScanLister interface {
	// ListScans returns the user's records newest first.
	ListScans(ctx context.Context, sess *models.Session) ([]models.ScanRecord, error)
}

// Synchronizer keeps a local view of the user's scan history fresh while the
// recent-scans overlay is open. It fetches once on activation and then on a
// fixed interval until deactivated. Consumers must tolerate up to one
// interval of staleness after a write.
type Synchronizer struct {
	store    ScanLister
	sessions SessionSource
	interval time.Duration
	log      *zap.Logger

	mu     sync.Mutex
	scans  []models.ScanRecord
	gen    uint64
	cancel context.CancelFunc
}

// NewSynchronizer constructs a Synchronizer. A non-positive interval falls
// back to the 10-second default.
func NewSynchronizer(store ScanLister, sessions SessionSource, interval time.Duration, log *zap.Logger) *Synchronizer {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Synchronizer{store: store, sessions: sessions, interval: interval, log: log}
}

// Activate starts one refresh lifecycle: an immediate fetch, then a ticker
// until Deactivate. If no session is present at the first fetch the view is
// left empty and no polling starts; re-opening the overlay after sign-in is
// the recovery path. A second Activate supersedes the previous lifecycle.
func (s *Synchronizer) Activate(ctx context.Context) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
	gen := s.gen

	sess, err := s.sessions.Session()
	if err != nil || sess == nil {
		s.scans = nil
		s.mu.Unlock()
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	s.fetch(runCtx, gen)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				s.fetch(runCtx, gen)
			}
		}
	}()
}

// Deactivate stops the refresh loop. An in-flight fetch may still complete,
// but its result is discarded by the generation guard.
func (s *Synchronizer) Deactivate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// Snapshot returns the current view, newest first.
func (s *Synchronizer) Snapshot() []models.ScanRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ScanRecord, len(s.scans))
	copy(out, s.scans)
	return out
}

// fetch reads the history once and applies it unless the lifecycle has moved
// on. Any failure leaves the previously displayed list untouched.
func (s *Synchronizer) fetch(ctx context.Context, gen uint64) {
	sess, err := s.sessions.Session()
	if err != nil || sess == nil {
		s.log.Warn("recent scans refresh skipped: no session")
		return
	}

	scans, err := s.store.ListScans(ctx, sess)
	if err != nil {
		s.log.Warn("recent scans refresh failed", zap.Error(err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		// Resolved after Deactivate; never applied.
		return
	}
	s.scans = scans
}
