package events

import "time"

// Event is something that happened to an entity, captured for post-commit
// side effects. Events are buffered on the entity that raised them and only
// leave the buffer when the owning unit of work drains them at commit time.
type Event interface {
	EventName() string
	OccurredAt() time.Time
}

// Recorder is the per-entity event buffer. Embed it in any mutable entity
// whose state transitions raise events.
type Recorder struct {
	pending []Event
}

// Record appends an event to the buffer. Entities call this from inside
// their own transition methods so the state change and the event can never
// go out of sync.
func (r *Recorder) Record(e Event) {
	r.pending = append(r.pending, e)
}

// Drain returns the buffered events and clears the buffer in one step.
// The unit of work calls this during commit; a second Drain returns nil,
// so the same events cannot be collected twice.
func (r *Recorder) Drain() []Event {
	out := r.pending
	r.pending = nil
	return out
}

// Events returns a copy of the buffer without clearing it.
func (r *Recorder) Events() []Event {
	out := make([]Event, len(r.pending))
	copy(out, r.pending)
	return out
}

// Source is implemented by entities that buffer events.
type Source interface {
	Drain() []Event
}
