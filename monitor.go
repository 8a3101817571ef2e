package comply

import (
	"context"
	mathrand "math/rand"
	"sync"
	"time"

	"github.com/complyhq/comply/internal/rand"
)

// MonitorHandle cancels a running session monitor. Stop is safe to call any
// number of times, from any goroutine.
type MonitorHandle struct {
	stop chan struct{}
	once sync.Once
}

func (h *MonitorHandle) Stop() {
	h.once.Do(func() {
		close(h.stop)
	})
}

// StartMonitoring begins periodic liveness validation of the session. Only
// one monitor is ever active: starting while one is already running cancels
// the previous monitor first.
func (a *SessionAuthority) StartMonitoring() {
	h := &MonitorHandle{stop: make(chan struct{})}
	a.mu.Lock()
	previous := a.monitor
	a.monitor = h
	a.mu.Unlock()
	if previous != nil {
		previous.Stop()
	}
	go a.runMonitor(h)
}

// StopMonitoring cancels the active monitor, if any. Safe to call from any
// state, any number of times.
func (a *SessionAuthority) StopMonitoring() {
	a.mu.Lock()
	h := a.monitor
	a.monitor = nil
	a.mu.Unlock()
	if h != nil {
		h.Stop()
	}
}

// stopMonitorIf retires h without disturbing a newer monitor that may have
// replaced it in the meantime.
func (a *SessionAuthority) stopMonitorIf(h *MonitorHandle) {
	a.mu.Lock()
	if a.monitor == h {
		a.monitor = nil
	}
	a.mu.Unlock()
	h.Stop()
}

func (a *SessionAuthority) runMonitor(h *MonitorHandle) {
	seededRand := rand.NewSeeded()
	for {
		timer := time.NewTimer(a.nextCheckInterval(seededRand))
		select {
		case <-h.stop:
			timer.Stop()
			return
		case <-timer.C:
		}
		if a.idleExceeded() {
			a.stopMonitorIf(h)
			a.HandleSessionTimeout()
			return
		}
		// Checks are sequential from this loop's perspective. A check whose
		// round trip outlives the interval delays the next check rather than
		// overlapping it.
		if !a.ValidateSession(context.Background()) {
			// An unconfirmed session stops monitoring rather than retrying
			// indefinitely. Any subsequent privileged action re-triggers
			// validation and expiry naturally.
			a.stopMonitorIf(h)
			return
		}
	}
}

func (a *SessionAuthority) nextCheckInterval(
	seededRand *mathrand.Rand,
) time.Duration {
	interval := a.monitorInterval
	if a.monitorJitter > 0 {
		maxOffset := float64(interval) * a.monitorJitter
		interval += time.Duration((seededRand.Float64()*2 - 1) * maxOffset)
	}
	return interval
}
