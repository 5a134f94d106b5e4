package vote

import (
	"errors"
	"sync"
	"time"

	"github.com/coder/quartz"
)

var ErrWindowClosed = errors.New("vote window is closed")

// Window is a single-shot voting deadline. Starting a window cancels
// any deadline still pending, so at most one close callback is ever
// outstanding.
type Window struct {
	clock quartz.Clock

	mu       sync.Mutex
	timer    *quartz.Timer
	gen      uint64
	open     bool
	deadline time.Time
}

// NewWindow creates a closed window timed by clock
func NewWindow(clock quartz.Clock) *Window {
	return &Window{clock: clock}
}

// Start opens the window for d. onClose runs once when the deadline
// fires, unless the window is restarted or stopped first.
func (w *Window) Start(d time.Duration, onClose func()) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.cancelLocked()
	w.gen++
	gen := w.gen
	w.open = true
	w.deadline = w.clock.Now().Add(d)
	w.timer = w.clock.AfterFunc(d, func() {
		w.mu.Lock()
		if w.gen != gen || !w.open {
			w.mu.Unlock()
			return
		}
		w.open = false
		w.timer = nil
		w.mu.Unlock()

		if onClose != nil {
			onClose()
		}
	}, "vote", "deadline")
}

// Stop closes the window without running its callback. It reports
// whether a window was open.
func (w *Window) Stop() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	wasOpen := w.open
	w.cancelLocked()
	return wasOpen
}

func (w *Window) cancelLocked() {
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.open = false
}

// Open reports whether votes are being accepted
func (w *Window) Open() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.open
}

// Deadline returns when the current window closes
func (w *Window) Deadline() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.deadline
}

// Remaining returns the time left, zero once closed
func (w *Window) Remaining() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.open {
		return 0
	}
	if left := w.deadline.Sub(w.clock.Now()); left > 0 {
		return left
	}
	return 0
}
