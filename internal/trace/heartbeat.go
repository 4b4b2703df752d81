package trace

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// Heartbeat emits KindHeartbeat events on a fixed interval. A dump whose
// heartbeats keep reporting the same open spans points at a stuck span.
type Heartbeat struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// StartHeartbeat emits a heartbeat into t every interval until ctx is done or
// Stop is called. When open is non-nil its result is attached to every
// heartbeat as the "open" extra. It returns nil when t is disabled or
// interval is not positive; Stop on a nil Heartbeat is a no-op.
func StartHeartbeat(ctx context.Context, t Tracer, interval time.Duration, open func() int) *Heartbeat {
	if t == nil || !t.Enabled() || interval <= 0 {
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	h := &Heartbeat{cancel: cancel, done: make(chan struct{})}
	go h.run(ctx, t, interval, open)
	return h
}

func (h *Heartbeat) run(ctx context.Context, t Tracer, interval time.Duration, open func() int) {
	defer close(h.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	gid := getGoroutineID()
	for beat := 1; ; beat++ {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			ev := &Event{
				Time:   now,
				Seq:    NextSeq(),
				Kind:   KindHeartbeat,
				Level:  LevelInfo,
				GID:    gid,
				Name:   "heartbeat",
				Detail: "#" + strconv.Itoa(beat),
			}
			if open != nil {
				ev.Extra = map[string]string{"open": strconv.Itoa(open())}
			}
			t.Emit(ev)
		}
	}
}

// Stop ends the heartbeat goroutine and waits for it to exit.
func (h *Heartbeat) Stop() {
	if h == nil {
		return
	}
	h.once.Do(h.cancel)
	<-h.done
}
