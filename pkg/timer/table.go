package timer

import (
	"errors"
	"math"
	"sort"

	"github.com/voicetimer/voicetimer-go/pkg/command"
)

// Table errors.
var (
	ErrTimerNotFound = errors.New("timer: not found")
	ErrCapacity      = errors.New("timer: table full")
)

const (
	// DefaultCapacity is the number of timers the device can show.
	DefaultCapacity = 4

	// DefaultRingSeconds is how long an expired timer rings before it is
	// removed.
	DefaultRingSeconds = 60
)

// Table holds the named timers.
type Table struct {
	timers      map[command.Name]*Timer
	capacity    int
	ringSeconds uint32
	seq         uint64
}

// TickResult lists the timers that changed during a Tick.
type TickResult struct {
	// Expired reached zero during this tick.
	Expired []Timer

	// Reaped finished ringing and were removed.
	Reaped []Timer
}

// Empty returns true if the tick changed no timer state.
func (r TickResult) Empty() bool {
	return len(r.Expired) == 0 && len(r.Reaped) == 0
}

// NewTable creates a table. Non-positive capacity selects DefaultCapacity.
func NewTable(capacity int, ringSeconds uint32) *Table {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Table{
		timers:      make(map[command.Name]*Timer, capacity),
		capacity:    capacity,
		ringSeconds: ringSeconds,
	}
}

// Capacity returns the maximum number of timers.
func (t *Table) Capacity() int {
	return t.capacity
}

// Len returns the number of timers, ringing ones included.
func (t *Table) Len() int {
	return len(t.timers)
}

// Running returns the number of Running timers.
func (t *Table) Running() int {
	n := 0
	for _, tm := range t.timers {
		if tm.State == StateRunning {
			n++
		}
	}
	return n
}

// Get returns a copy of the named timer.
func (t *Table) Get(name command.Name) (Timer, bool) {
	tm, ok := t.timers[name]
	if !ok {
		return Timer{}, false
	}
	return *tm, true
}

// Set creates or resets the named timer. A zero duration leaves it Expired.
func (t *Table) Set(name command.Name, seconds uint32) (Timer, error) {
	tm, ok := t.timers[name]
	if !ok {
		if len(t.timers) >= t.capacity {
			return Timer{}, ErrCapacity
		}
		t.seq++
		tm = &Timer{Name: name, Seq: t.seq}
		t.timers[name] = tm
	}
	tm.Total = seconds
	tm.Remaining = seconds
	tm.ExpiredFor = 0
	tm.State = StateRunning
	if seconds == 0 {
		tm.State = StateExpired
	}
	return *tm, nil
}

// Add extends a Running timer, saturating at the largest duration.
// An Expired timer is restarted with the added time.
func (t *Table) Add(name command.Name, seconds uint32) (Timer, error) {
	tm, ok := t.timers[name]
	if !ok {
		return Timer{}, ErrTimerNotFound
	}
	if tm.State != StateRunning {
		tm.Remaining = 0
		tm.ExpiredFor = 0
	}
	if uint64(tm.Remaining)+uint64(seconds) > math.MaxUint32 {
		tm.Remaining = math.MaxUint32
	} else {
		tm.Remaining += seconds
	}
	if tm.Remaining > tm.Total {
		tm.Total = tm.Remaining
	}
	if tm.Remaining > 0 {
		tm.State = StateRunning
	}
	return *tm, nil
}

// Subtract shortens the named timer, flooring at zero. Reaching zero
// expires the timer at once.
func (t *Table) Subtract(name command.Name, seconds uint32) (Timer, error) {
	tm, ok := t.timers[name]
	if !ok {
		return Timer{}, ErrTimerNotFound
	}
	if seconds >= tm.Remaining {
		if tm.State == StateRunning {
			tm.ExpiredFor = 0
		}
		tm.Remaining = 0
		tm.State = StateExpired
	} else {
		tm.Remaining -= seconds
	}
	return *tm, nil
}

// Remove deletes the named timer in any state. The returned copy is
// Cancelled.
func (t *Table) Remove(name command.Name) (Timer, bool) {
	tm, ok := t.timers[name]
	if !ok {
		return Timer{}, false
	}
	delete(t.timers, name)
	out := *tm
	out.State = StateCancelled
	return out, true
}

// Clear deletes every timer and returns Cancelled copies in creation order.
func (t *Table) Clear() []Timer {
	removed := t.Snapshot()
	for i := range removed {
		removed[i].State = StateCancelled
	}
	t.timers = make(map[command.Name]*Timer, t.capacity)
	return removed
}

// Tick advances every timer by elapsed seconds.
func (t *Table) Tick(elapsed uint32) TickResult {
	var res TickResult
	if elapsed == 0 {
		return res
	}
	for _, tm := range t.ordered() {
		switch tm.State {
		case StateRunning:
			if elapsed < tm.Remaining {
				tm.Remaining -= elapsed
				continue
			}
			tm.ExpiredFor = elapsed - tm.Remaining
			tm.Remaining = 0
			tm.State = StateExpired
			res.Expired = append(res.Expired, *tm)
		case StateExpired:
			if uint64(tm.ExpiredFor)+uint64(elapsed) > math.MaxUint32 {
				tm.ExpiredFor = math.MaxUint32
			} else {
				tm.ExpiredFor += elapsed
			}
		}
		if tm.State == StateExpired && tm.ExpiredFor >= t.ringSeconds {
			delete(t.timers, tm.Name)
			out := *tm
			out.State = StateIdle
			res.Reaped = append(res.Reaped, out)
		}
	}
	return res
}

// Snapshot returns copies of all timers in creation order.
func (t *Table) Snapshot() []Timer {
	ordered := t.ordered()
	out := make([]Timer, len(ordered))
	for i, tm := range ordered {
		out[i] = *tm
	}
	return out
}

func (t *Table) ordered() []*Timer {
	out := make([]*Timer, 0, len(t.timers))
	for _, tm := range t.timers {
		out = append(out, tm)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}
