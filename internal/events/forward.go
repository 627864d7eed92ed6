package events

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"

	"github.com/mmynk/littertag/internal/metrics"
)

// DefaultTopic is the message bus topic events are forwarded to.
const DefaultTopic = "littertag.events"

// MetadataEvent is the message metadata key holding the event name.
const MetadataEvent = "event"

// Envelope is the wire form of a forwarded event.
type Envelope struct {
	ID         string          `json:"id"`
	Event      Name            `json:"event"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// Encode wraps ev in an Envelope and marshals it.
func Encode(ev Event) (*Envelope, []byte, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal %s: %w", ev.EventName(), err)
	}
	env := &Envelope{
		ID:         watermill.NewUUID(),
		Event:      ev.EventName(),
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal envelope: %w", err)
	}
	return env, data, nil
}

// Decode parses an Envelope.
func Decode(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal envelope: %w", err)
	}
	return &env, nil
}

// SetPublisher configures where Publish forwards events. A nil publisher
// disables forwarding.
func (d *Dispatcher) SetPublisher(pub message.Publisher, topic string) {
	if topic == "" {
		topic = DefaultTopic
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.publisher = pub
	d.topic = topic
}

// Publish forwards events to the message bus. It is called after the
// triggering transaction has committed. Failures are logged and counted,
// never returned: the write has already happened.
func (d *Dispatcher) Publish(ctx context.Context, evs ...Event) {
	d.mu.RLock()
	pub, topic := d.publisher, d.topic
	d.mu.RUnlock()

	if pub == nil {
		return
	}

	for _, ev := range evs {
		env, data, err := Encode(ev)
		if err != nil {
			metrics.EventsForwarded.WithLabelValues("error").Inc()
			d.logger.Error("Failed to encode event", "event", ev.EventName(), "error", err)
			continue
		}

		msg := message.NewMessage(env.ID, data)
		msg.Metadata.Set(MetadataEvent, string(env.Event))
		msg.SetContext(ctx)

		if err := pub.Publish(topic, msg); err != nil {
			metrics.EventsForwarded.WithLabelValues("error").Inc()
			d.logger.Error("Failed to forward event", "event", env.Event, "topic", topic, "error", err)
			continue
		}
		metrics.EventsForwarded.WithLabelValues("ok").Inc()
	}
}
