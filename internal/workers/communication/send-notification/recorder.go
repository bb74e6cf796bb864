// internal/workers/communication/send-notification/recorder.go
package sendnotification

import (
	"context"
	"sync"
)

// Recorder is an in-memory Notifier. Callers use it in tests.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

func (r *Recorder) Notify(_ context.Context, subject, body string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, Message{Subject: subject, Body: body})
}

// NotifyEvent records the rendered event; unknown events are recorded with an empty subject.
func (r *Recorder) NotifyEvent(_ context.Context, event Event, data map[string]interface{}) {
	msg, _ := Compose(event, data)
	msg.Event = event

	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
}

func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}

// Events lists the recorded event names in order.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	events := make([]Event, 0, len(r.messages))
	for _, m := range r.messages {
		events = append(events, m.Event)
	}
	return events
}
