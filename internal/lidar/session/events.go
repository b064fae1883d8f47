package session

import "github.com/banshee-data/lidar-active-learning/internal/lidar/selection"

// EventKind identifies what happened in the session.
type EventKind string

const (
	EventTick  EventKind = "tick"
	EventReset EventKind = "reset"
)

// Event is delivered to subscribers after every tick and reset.
type Event struct {
	Kind       EventKind
	Record     selection.TickRecord
	Decision   selection.Decision
	UsedBudget int
	Threshold  float64
}

// Subscribe registers a new event listener. Events are dropped for a
// listener whose queue is full.
func (r *Runner) Subscribe() (int, <-chan Event) {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	id := r.nextSub
	r.nextSub++
	ch := make(chan Event, subscriberBuffer)
	r.subs[id] = ch
	return id, ch
}

// Unsubscribe removes a listener and closes its channel.
func (r *Runner) Unsubscribe(id int) {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	if ch, ok := r.subs[id]; ok {
		close(ch)
		delete(r.subs, id)
	}
}

// UnsubscribeAll closes every listener channel.
func (r *Runner) UnsubscribeAll() {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	for id, ch := range r.subs {
		close(ch)
		delete(r.subs, id)
	}
}

// publish is called with r.mu held so subscribers see events in the order
// the state changed.
func (r *Runner) publish(ev Event) {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	for id, ch := range r.subs {
		select {
		case ch <- ev:
		default:
			r.dropped++
			if r.dropped == 1 || r.dropped%100 == 0 {
				logf("subscriber %d queue full, dropped %d events so far", id, r.dropped)
			}
		}
	}
}
