package scan

import (
	"fmt"
	"sync"
)

// Registry owns the set of sensor records and the scan cursor.
//
// Structural mutation (Create, Remove) and scheduler access happen on the
// same loop goroutine, so they need no mutual exclusion between themselves.
// The mutex exists for the two paths that run concurrently with the loop:
// HandleNotify (driven by pin-source events) and Snapshot (status page).
// The notification path writes exactly one atomic field of one record and
// never touches active or latch; transitions are only ever confirmed by the
// scheduler.
type Registry struct {
	source    Source
	threshold uint8
	maxPin    int

	mu      sync.RWMutex
	sensors []*Sensor

	// cursor indexes the next sensor the scheduler will examine,
	// or -1 when no scan cycle is in flight.
	cursor int
}

// NewRegistry creates an empty registry reading pins through source.
func NewRegistry(source Source, cfg Config) *Registry {
	cfg = cfg.withDefaults()
	return &Registry{
		source:    source,
		threshold: cfg.Threshold,
		maxPin:    cfg.MaxPin,
		cursor:    -1,
	}
}

// Create registers a sensor, replacing any existing record with the same id.
// pin is either PinNone or a pin number no greater than the configured
// maximum. Real pins are configured on the source before the record is
// inserted; on configure failure no record is left behind.
func (r *Registry) Create(id uint16, pin int, pullup bool) (*Sensor, error) {
	if pin != PinNone && (pin < 0 || pin > r.maxPin) {
		return nil, ErrInvalidPin
	}

	r.Remove(id)

	s := &Sensor{
		ID:     id,
		Pin:    pin,
		Pullup: pullup,
		latch:  r.threshold,
	}
	s.pollingRequired = pin != PinNone && !r.source.HasChangeNotification(pin)

	if pin != PinNone {
		if err := r.source.Configure(pin, pullup); err != nil {
			return nil, fmt.Errorf("configure pin %d: %w", pin, err)
		}
	}

	// Append at the tail: a mid-flight scan still visits the new record,
	// and store/load round-trips preserve registration order.
	r.mu.Lock()
	r.sensors = append(r.sensors, s)
	r.mu.Unlock()

	return s, nil
}

// Remove unregisters the sensor with the given id. Returns false if no such
// sensor exists. If the scan cursor referenced the removed record it ends up
// on the record's successor.
func (r *Registry) Remove(id uint16) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, s := range r.sensors {
		if s.ID != id {
			continue
		}
		r.sensors = append(r.sensors[:i], r.sensors[i+1:]...)
		if r.cursor > i {
			r.cursor--
		}
		// cursor == i needs no adjustment: the successor shifted into
		// slot i. A cursor now past the end means the scan is over.
		if r.cursor >= len(r.sensors) {
			r.cursor = -1
		}
		return true
	}
	return false
}

// Get returns the sensor with the given id, or nil.
func (r *Registry) Get(id uint16) *Sensor {
	for _, s := range r.sensors {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// Len returns the number of registered sensors.
func (r *Registry) Len() int {
	return len(r.sensors)
}

// SetState drives the raw state of a sensor that has no physical pin (or
// overrides one that does), clearing the latch so the change is confirmed on
// the scheduler's next visit. Returns false if the id is unknown.
func (r *Registry) SetState(id uint16, value bool) bool {
	s := r.Get(id)
	if s == nil {
		return false
	}
	s.raw.Store(value)
	s.latch = 0
	return true
}

// HandleNotify is the change-notification bridge: it routes an asynchronous
// pin event into the matching sensor's raw state. It never confirms a
// transition — the debounce machinery still runs when the scheduler next
// visits the record.
func (r *Registry) HandleNotify(pin int, state bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.sensors {
		if s.Pin == pin {
			s.raw.Store(state)
			return
		}
	}
}

// Snapshot returns the confirmed state of every sensor in registration
// order. It reads only id, pin, pullup and active, so it is safe to call
// while a scan cycle is in flight.
func (r *Registry) Snapshot() []State {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]State, len(r.sensors))
	for i, s := range r.sensors {
		out[i] = State{ID: s.ID, Pin: s.Pin, Pullup: s.Pullup, Active: s.active}
	}
	return out
}

// Cursor plumbing for the scheduler. Runs on the loop goroutine only.

func (r *Registry) scanning() bool { return r.cursor >= 0 }

func (r *Registry) beginScan() {
	if len(r.sensors) > 0 {
		r.cursor = 0
	}
}

func (r *Registry) current() *Sensor {
	if r.cursor < 0 || r.cursor >= len(r.sensors) {
		return nil
	}
	return r.sensors[r.cursor]
}

func (r *Registry) advance() {
	if r.cursor < 0 {
		return
	}
	r.cursor++
	if r.cursor >= len(r.sensors) {
		r.cursor = -1
	}
}
