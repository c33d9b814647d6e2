// Package debounce coalesces bursts of calls into one: every Trigger cancels
// the pending timer and starts a new one, and only the last function runs
// once the quiet period expires.
package debounce

import (
	"sync"
	"time"
)

// Debouncer runs the most recently triggered function after a fixed delay
// without further triggers. It is safe for concurrent use.
type Debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	pending func()
	gen     uint64
	stopped bool

	running sync.WaitGroup
}

// New returns a Debouncer with the given quiet period.
func New(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Delay returns the quiet period.
func (d *Debouncer) Delay() time.Duration {
	return d.delay
}

// Trigger schedules fn, replacing any pending function and restarting the timer.
// Calls after Stop are ignored.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.pending = fn
	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if d.stopped || gen != d.gen || d.pending == nil {
		d.mu.Unlock()
		return
	}
	fn := d.take()
	d.running.Add(1)
	d.mu.Unlock()

	defer d.running.Done()
	fn()
}

// take clears the pending function. Caller holds mu.
func (d *Debouncer) take() func() {
	fn := d.pending
	d.pending = nil
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	return fn
}

// Pending reports whether a function is waiting for its timer.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}

// Flush runs the pending function now, on the calling goroutine.
// It reports whether there was anything to run.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	if d.stopped || d.pending == nil {
		d.mu.Unlock()
		return false
	}
	fn := d.take()
	d.running.Add(1)
	d.mu.Unlock()

	defer d.running.Done()
	fn()
	return true
}

// Stop drops the pending function and rejects further triggers.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.stopped = true
	d.take()
}

// StopAndWait stops the debouncer and waits up to timeout for a function
// already running to return. It reports whether it finished in time.
func (d *Debouncer) StopAndWait(timeout time.Duration) bool {
	d.Stop()
	done := make(chan struct{})
	go func() {
		d.running.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Group keeps one Debouncer per key, so bursts on different keys do not
// cancel each other.
type Group struct {
	delay time.Duration

	mu      sync.Mutex
	members map[string]*Debouncer
	stopped bool
}

// NewGroup returns an empty Group whose members use delay.
func NewGroup(delay time.Duration) *Group {
	return &Group{delay: delay, members: make(map[string]*Debouncer)}
}

// Trigger schedules fn under key.
func (g *Group) Trigger(key string, fn func()) {
	g.mu.Lock()
	if g.stopped {
		g.mu.Unlock()
		return
	}
	d, ok := g.members[key]
	if !ok {
		d = New(g.delay)
		g.members[key] = d
	}
	g.mu.Unlock()
	d.Trigger(fn)
}

// StopAndWait stops every member and waits for running functions.
func (g *Group) StopAndWait(timeout time.Duration) bool {
	g.mu.Lock()
	g.stopped = true
	members := make([]*Debouncer, 0, len(g.members))
	for _, d := range g.members {
		members = append(members, d)
	}
	g.mu.Unlock()

	deadline := time.Now().Add(timeout)
	ok := true
	for _, d := range members {
		if !d.StopAndWait(time.Until(deadline)) {
			ok = false
		}
	}
	return ok
}
