package events

import (
	"testing"
	"time"
)

type testEvent struct {
	name string
	at   time.Time
}

func (e testEvent) EventName() string     { return e.name }
func (e testEvent) OccurredAt() time.Time { return e.at }

func TestRecorder_RecordAndDrain(t *testing.T) {
	var r Recorder
	r.Record(testEvent{name: "a"})
	r.Record(testEvent{name: "b"})

	drained := r.Drain()
	if len(drained) != 2 {
		t.Fatalf("Drain() returned %d events, expected 2", len(drained))
	}
	if drained[0].EventName() != "a" || drained[1].EventName() != "b" {
		t.Errorf("Drain() order wrong: %s, %s", drained[0].EventName(), drained[1].EventName())
	}
}

func TestRecorder_DrainClearsBuffer(t *testing.T) {
	var r Recorder
	r.Record(testEvent{name: "a"})

	if got := r.Drain(); len(got) != 1 {
		t.Fatalf("first Drain() returned %d events, expected 1", len(got))
	}
	if got := r.Drain(); len(got) != 0 {
		t.Errorf("second Drain() returned %d events, expected 0", len(got))
	}
}

func TestRecorder_EventsDoesNotClear(t *testing.T) {
	var r Recorder
	r.Record(testEvent{name: "a"})

	if got := r.Events(); len(got) != 1 {
		t.Fatalf("Events() returned %d events, expected 1", len(got))
	}
	if got := r.Events(); len(got) != 1 {
		t.Errorf("Events() cleared the buffer")
	}
}

func TestRecorder_EventsReturnsCopy(t *testing.T) {
	var r Recorder
	r.Record(testEvent{name: "a"})

	view := r.Events()
	view[0] = testEvent{name: "tampered"}

	if r.Events()[0].EventName() != "a" {
		t.Error("mutating the Events() result changed the buffer")
	}
}
