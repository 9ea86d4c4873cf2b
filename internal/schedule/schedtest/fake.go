// Package schedtest provides a manually advanced scheduler for tests.
package schedtest

import (
	"sort"
	"sync"
	"time"

	"github.com/jmylchreest/toastify/internal/schedule"
)

// Fake is a deterministic schedule.Scheduler. Time only moves when
// Advance is called; due tasks run synchronously on the caller's
// goroutine in deadline order.
type Fake struct {
	mu    sync.Mutex
	now   time.Time
	seq   int
	tasks []*task
}

type task struct {
	fake    *Fake
	at      time.Time
	seq     int
	f       func()
	stopped bool
	fired   bool
}

var _ schedule.Scheduler = (*Fake)(nil)

// New returns a Fake starting at a fixed instant.
func New() *Fake {
	return &Fake{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

// Now returns the fake current time.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// AfterFunc schedules fn at Now()+d.
func (f *Fake) AfterFunc(d time.Duration, fn func()) schedule.Timer {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.seq++
	t := &task{fake: f, at: f.now.Add(d), seq: f.seq, f: fn}
	f.tasks = append(f.tasks, t)
	return t
}

// Advance moves time forward by d and runs every task that became due.
// Tasks scheduled by running tasks are honored if they fall inside the
// window.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.now.Add(d)
	f.mu.Unlock()

	for {
		f.mu.Lock()
		next := f.nextDueLocked(target)
		if next == nil {
			f.now = target
			f.mu.Unlock()
			return
		}
		f.now = next.at
		next.fired = true
		f.removeLocked(next)
		f.mu.Unlock()

		next.f()
	}
}

// Pending returns the number of tasks that have neither run nor been
// stopped.
func (f *Fake) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tasks)
}

func (f *Fake) nextDueLocked(target time.Time) *task {
	sort.SliceStable(f.tasks, func(i, j int) bool {
		if f.tasks[i].at.Equal(f.tasks[j].at) {
			return f.tasks[i].seq < f.tasks[j].seq
		}
		return f.tasks[i].at.Before(f.tasks[j].at)
	})
	if len(f.tasks) == 0 || f.tasks[0].at.After(target) {
		return nil
	}
	return f.tasks[0]
}

func (f *Fake) removeLocked(t *task) {
	for i, other := range f.tasks {
		if other == t {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return
		}
	}
}

// Stop cancels the task if it has not run yet.
func (t *task) Stop() bool {
	t.fake.mu.Lock()
	defer t.fake.mu.Unlock()

	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	t.fake.removeLocked(t)
	return true
}
