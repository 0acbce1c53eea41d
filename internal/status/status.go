// Package status provides a thread-safe status tracker for the
// station-sensor daemon. It is read by HTTP handlers and by the heartbeat
// publisher.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/station-sensor/internal/scan"
)

// Config contains daemon configuration for display.
type Config struct {
	ScanMs      int64
	CycleMs     int64
	Threshold   int
	Quantum     int
	HeartbeatMs int64
	Broker      string
	DBPath      string
	HTTPAddr    string
	EdgeEvents  bool
}

// Counts tracks reported transitions since startup.
type Counts struct {
	Activations   int
	Deactivations int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	Sensors       []scan.State
	Counts        Counts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update sets the sensor table and transition counts.
// Called from the run loop on every tick.
func (t *Tracker) Update(sensors []scan.State, counts Counts) {
	t.mu.Lock()
	t.snap.Sensors = sensors
	t.snap.Counts = counts
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a copy of the current state with Now set.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	snap := t.snap
	snap.Sensors = append([]scan.State(nil), t.snap.Sensors...)
	t.mu.RUnlock()
	snap.Now = time.Now()
	return snap
}
