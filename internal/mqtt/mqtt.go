// Package mqtt publishes sensor transitions and system lifecycle events,
// with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"
)

// Topic is the MQTT topic for confirmed sensor transitions.
const Topic = "layout/sensors/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "layout/sensors/system"

// Event is one confirmed sensor transition.
type Event struct {
	Timestamp time.Time
	ID        uint16
	Active    bool
}

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a sensor transition to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (startup, shutdown,
// heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g. "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g. "SIGTERM" (shutdown only)
	RawPayload []byte // pre-formatted payload; if set it is published as-is
	Retained   bool
}

// Payload is the JSON envelope for a transition message.
type Payload struct {
	Sensor SensorPayload `json:"sensor"`
}

// SensorPayload carries the transition details.
type SensorPayload struct {
	Timestamp string `json:"timestamp"`
	ID        uint16 `json:"id"`
	State     string `json:"state"`
}

// StateString maps a confirmed state to its wire form.
func StateString(active bool) string {
	if active {
		return "ACTIVE"
	}
	return "INACTIVE"
}

// FormatPayload creates the JSON payload for a transition event.
func FormatPayload(event Event) ([]byte, error) {
	return json.Marshal(Payload{
		Sensor: SensorPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			ID:        event.ID,
			State:     StateString(event.Active),
		},
	})
}

// SystemPayload is the JSON envelope for system events that do not carry a
// full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner carries the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event. If
// event.RawPayload is set, it is returned directly (used for full status
// snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}
	return json.Marshal(SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	})
}
