// Package poller drives the periodic refresh of the selected token. The
// scheduler is an explicit Idle/Running state machine with a single owned
// ticker, replacing the ad hoc interval setup/teardown the view layer would
// otherwise scatter around.
package poller

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"token-watch/config"
	"token-watch/token"
)

// RefreshFunc produces a snapshot for one tick, normally
// Aggregator.RefreshSnapshot.
type RefreshFunc func(*config.TokenDescriptor) (*token.Snapshot, error)

type Scheduler struct {
	refresh RefreshFunc

	mu         sync.Mutex
	running    bool
	generation uint64
	stopCh     chan struct{}
}

func NewScheduler(refresh RefreshFunc) *Scheduler {
	return &Scheduler{refresh: refresh}
}

// Start moves the scheduler to Running for the given token: one immediate
// refresh, then one per interval. Errors are delivered to onError and never
// stop the loop — the next tick is the retry. Starting while Running stops
// the previous run first, so exactly one ticker exists at any time.
func (s *Scheduler) Start(tok *config.TokenDescriptor, interval time.Duration, onUpdate func(*token.Snapshot), onError func(error)) {
	s.Stop()

	s.mu.Lock()
	s.running = true
	s.generation++
	generation := s.generation
	stopCh := make(chan struct{})
	s.stopCh = stopCh
	s.mu.Unlock()

	logrus.Debugf("Polling %s every %s", tok.Symbol, interval)
	go s.run(tok, interval, generation, stopCh, onUpdate, onError)
}

func (s *Scheduler) run(tok *config.TokenDescriptor, interval time.Duration, generation uint64,
	stopCh chan struct{}, onUpdate func(*token.Snapshot), onError func(error)) {
	s.tick(tok, generation, onUpdate, onError)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			s.tick(tok, generation, onUpdate, onError)
		}
	}
}

// tick runs one refresh and delivers the result, unless the run it belongs
// to has been stopped while the fetch was in flight. The fetch itself is not
// aborted; its cache write is harmless, only the callback is suppressed.
func (s *Scheduler) tick(tok *config.TokenDescriptor, generation uint64, onUpdate func(*token.Snapshot), onError func(error)) {
	snapshot, err := s.refresh(tok)
	if !s.current(generation) {
		logrus.Debugf("Discarding %s refresh that finished after stop", tok.Symbol)
		return
	}
	if err != nil {
		if onError != nil {
			onError(err)
		}
		return
	}
	if onUpdate != nil {
		onUpdate(snapshot)
	}
}

func (s *Scheduler) current(generation uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running && s.generation == generation
}

// Stop moves the scheduler back to Idle. Safe to call in any state and
// safe to call while a fetch is in flight.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	close(s.stopCh)
	s.stopCh = nil
}

// Running reports whether a poll loop currently owns a ticker.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
