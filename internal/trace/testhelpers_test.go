package trace

import "sync"

// recorder keeps every event it receives.
type recorder struct {
	mu     sync.Mutex
	level  Level
	events []Event
}

func (r *recorder) Emit(ev *Event) {
	r.mu.Lock()
	r.events = append(r.events, *ev)
	r.mu.Unlock()
}

func (r *recorder) Flush() error { return nil }
func (r *recorder) Close() error { return nil }
func (r *recorder) Level() Level { return r.level }
func (r *recorder) Enabled() bool { return r.level > LevelOff }

func (r *recorder) snapshot() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}
