package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/station-sensor/internal/mqtt"
	"github.com/sweeney/station-sensor/internal/scan"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Sensors       []SensorJSON `json:"sensors"`
	SensorCount   int          `json:"sensor_count"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"transition_counts"`
	Config        ConfigJSON   `json:"config"`
}

// SensorJSON is the JSON representation of one sensor's confirmed state.
type SensorJSON struct {
	ID     uint16 `json:"id"`
	Pin    int    `json:"pin"`
	Pullup bool   `json:"pullup"`
	State  string `json:"state"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of transition counts.
type CountsJSON struct {
	Activations   int `json:"activations"`
	Deactivations int `json:"deactivations"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	ScanMs      int64  `json:"scan_ms"`
	CycleMs     int64  `json:"cycle_ms"`
	Threshold   int    `json:"threshold"`
	Quantum     int    `json:"quantum"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	DBPath      string `json:"db_path"`
	HTTPAddr    string `json:"http_addr"`
	EdgeEvents  bool   `json:"edge_events"`
}

func buildInner(snap Snapshot) StatusInner {
	sensors := make([]SensorJSON, len(snap.Sensors))
	for i, s := range snap.Sensors {
		sensors[i] = sensorJSON(s)
	}

	return StatusInner{
		Sensors:       sensors,
		SensorCount:   len(sensors),
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Activations:   snap.Counts.Activations,
			Deactivations: snap.Counts.Deactivations,
		},
		Config: ConfigJSON{
			ScanMs:      snap.Config.ScanMs,
			CycleMs:     snap.Config.CycleMs,
			Threshold:   snap.Config.Threshold,
			Quantum:     snap.Config.Quantum,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			DBPath:      snap.Config.DBPath,
			HTTPAddr:    snap.Config.HTTPAddr,
			EdgeEvents:  snap.Config.EdgeEvents,
		},
	}
}

func sensorJSON(s scan.State) SensorJSON {
	return SensorJSON{
		ID:     s.ID,
		Pin:    s.Pin,
		Pullup: s.Pullup,
		State:  mqtt.StateString(s.Active),
	}
}

// FormatJSON renders a snapshot as the /index.json document.
func FormatJSON(snap Snapshot) []byte {
	out, _ := json.Marshal(StatusJSON{Status: buildInner(snap)})
	return out
}

// FormatStatusEvent renders a snapshot as a system event payload (STARTUP,
// SHUTDOWN, HEARTBEAT) with event and reason filled in.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	out, _ := json.Marshal(StatusJSON{Status: inner})
	return out
}
