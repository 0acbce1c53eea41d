// Package scan contains the sensor scan-and-debounce engine: a registry of
// binary inputs, a count-based debounce state machine, and an incremental
// scheduler that examines a bounded number of sensors per invocation.
// The package has NO hardware or transport dependencies — pins are read
// through the Source interface, time is injected, and confirmed transitions
// go to a Sink. This keeps the engine testable without GPIO or a broker.
package scan

import (
	"errors"
	"sync/atomic"
	"time"
)

// PinNone marks a sensor with no physical pin. Its raw state is driven only
// by SetState or a change notification, never by the scheduler's pin read.
const PinNone = -1

// Defaults match the hardware the engine was tuned on: a full read of 128
// expander-backed inputs fits comfortably inside one 10ms cycle, and 16
// sensors per invocation keeps a single call under the loop's latency budget.
const (
	DefaultCycleInterval = 10 * time.Millisecond
	DefaultQuantum       = 16
	DefaultThreshold     = 2
	DefaultMaxPin        = 4095
)

// ErrInvalidPin is returned by Create when the pin is outside the supported
// range. The registry is left unmodified.
var ErrInvalidPin = errors.New("scan: pin out of range")

// Source is the pin-level collaborator the engine reads through.
// Read returns true when the line is pulled low (sensors are active-low).
// A Source that detects input changes itself reports true from
// HasChangeNotification for the affected pins and delivers both-edge events
// to the callback registered via Subscribe; those pins are never polled.
type Source interface {
	Read(pin int) (bool, error)
	Configure(pin int, pullup bool) error
	HasChangeNotification(pin int) bool
	Subscribe(fn func(pin int, state bool))
}

// Sink receives confirmed transitions. Report is called at most once per
// scheduler invocation, from the loop goroutine, and must not block.
type Sink interface {
	Report(id uint16, active bool)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(id uint16, active bool)

func (f SinkFunc) Report(id uint16, active bool) { f(id, active) }

// Config tunes the engine. Zero values take the defaults above.
type Config struct {
	// CycleInterval is the minimum gap between the starts of two scan
	// cycles over the full registry.
	CycleInterval time.Duration

	// Quantum is the maximum number of sensors examined per Scan call.
	Quantum int

	// Threshold is the number of consecutive disagreeing samples, beyond
	// the first, required before a raw change is confirmed.
	Threshold uint8

	// MaxPin is the highest pin number Create accepts.
	MaxPin int

	// Now supplies the current time. Defaults to time.Now.
	Now func() time.Time
}

func (c Config) withDefaults() Config {
	if c.CycleInterval == 0 {
		c.CycleInterval = DefaultCycleInterval
	}
	if c.Quantum == 0 {
		c.Quantum = DefaultQuantum
	}
	if c.Threshold == 0 {
		c.Threshold = DefaultThreshold
	}
	if c.MaxPin == 0 {
		c.MaxPin = DefaultMaxPin
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// Sensor is one monitored input. The active and latch fields are written
// only by the scheduler; raw is additionally written by the notification
// bridge and SetState, which is why it is atomic.
type Sensor struct {
	ID     uint16
	Pin    int
	Pullup bool

	pollingRequired bool
	raw             atomic.Bool
	active          bool
	latch           uint8
}

// Active returns the last confirmed state — the only value reported
// downstream.
func (s *Sensor) Active() bool { return s.active }

// PollingRequired reports whether the scheduler reads this sensor's pin on
// each visit.
func (s *Sensor) PollingRequired() bool { return s.pollingRequired }

// State is a read-only view of one sensor, safe to hold after the registry
// has moved on.
type State struct {
	ID     uint16
	Pin    int
	Pullup bool
	Active bool
}
