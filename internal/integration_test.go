// End-to-end tests wiring the scan engine to the fake pin source and fake
// publisher, the way the daemon wires the real ones.
package internal

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/sweeney/station-sensor/internal/gpio"
	"github.com/sweeney/station-sensor/internal/mqtt"
	"github.com/sweeney/station-sensor/internal/scan"
	"github.com/sweeney/station-sensor/internal/status"
)

type harness struct {
	src   *gpio.FakeSource
	reg   *scan.Registry
	sched *scan.Scheduler
	pub   *mqtt.FakePublisher

	now time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		src: gpio.NewFakeSource(),
		pub: mqtt.NewFakePublisher(),
		now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	cfg := scan.Config{
		CycleInterval: 10 * time.Millisecond,
		Quantum:       16,
		Threshold:     2,
		MaxPin:        100,
		Now:           func() time.Time { return h.now },
	}
	h.reg = scan.NewRegistry(h.src, cfg)
	sink := scan.SinkFunc(func(id uint16, active bool) {
		h.pub.Publish(mqtt.Event{Timestamp: h.now, ID: id, Active: active})
	})
	h.sched = scan.NewScheduler(h.reg, sink, cfg)
	return h
}

// cycle advances time past the cycle interval and runs the scheduler until
// the pass over the registry completes.
func (h *harness) cycle() {
	h.now = h.now.Add(10 * time.Millisecond)
	h.sched.Scan()
	for h.sched.Scanning() {
		h.sched.Scan()
	}
}

func TestPolledSensorToMQTTPayload(t *testing.T) {
	h := newHarness(t)
	if _, err := h.reg.Create(27, 4, true); err != nil {
		t.Fatalf("Create: %v", err)
	}

	h.src.SetPin(4, true)
	for i := 0; i < 3; i++ {
		h.cycle()
	}

	if len(h.pub.Events) != 1 {
		t.Fatalf("events: got %d, want 1", len(h.pub.Events))
	}

	var p mqtt.Payload
	if err := json.Unmarshal(h.pub.Payloads[0], &p); err != nil {
		t.Fatalf("invalid payload: %v", err)
	}
	if p.Sensor.ID != 27 {
		t.Errorf("payload id: got %d, want 27", p.Sensor.ID)
	}
	if p.Sensor.State != "ACTIVE" {
		t.Errorf("payload state: got %q, want ACTIVE", p.Sensor.State)
	}
	if p.Sensor.Timestamp == "" {
		t.Error("payload timestamp empty")
	}

	// Release the line; the deactivation debounces the same way.
	h.src.SetPin(4, false)
	for i := 0; i < 3; i++ {
		h.cycle()
	}
	if len(h.pub.Events) != 2 {
		t.Fatalf("events after release: got %d, want 2", len(h.pub.Events))
	}
	if h.pub.Events[1].Active {
		t.Error("second event should be a deactivation")
	}
}

func TestNotifyingSensorIsNeverPolled(t *testing.T) {
	h := newHarness(t)
	h.src.NotifyPins[5] = true
	if _, err := h.reg.Create(30, 5, false); err != nil {
		t.Fatalf("Create: %v", err)
	}

	h.cycle() // first Scan subscribes the bridge
	h.src.Push(5, true)
	for i := 0; i < 3; i++ {
		h.cycle()
	}

	if len(h.pub.Events) != 1 || h.pub.Events[0].ID != 30 || !h.pub.Events[0].Active {
		t.Fatalf("events: %+v", h.pub.Events)
	}
	if h.src.Reads[5] != 0 {
		t.Errorf("notify-capable pin was polled %d times", h.src.Reads[5])
	}
}

func TestMixedRegistryReportsEachConfirmedChange(t *testing.T) {
	h := newHarness(t)
	h.src.NotifyPins[9] = true
	h.reg.Create(1, 4, false)            // polled
	h.reg.Create(2, 9, false)            // event-driven
	h.reg.Create(3, scan.PinNone, false) // virtual

	h.cycle()
	h.src.SetPin(4, true)
	h.src.Push(9, true)
	h.reg.SetState(3, true) // latch cleared: confirmed on next visit

	for i := 0; i < 4; i++ {
		h.cycle()
	}

	seen := map[uint16]bool{}
	for _, ev := range h.pub.Events {
		if !ev.Active {
			t.Errorf("unexpected deactivation for sensor %d", ev.ID)
		}
		if seen[ev.ID] {
			t.Errorf("sensor %d reported twice", ev.ID)
		}
		seen[ev.ID] = true
	}
	for _, id := range []uint16{1, 2, 3} {
		if !seen[id] {
			t.Errorf("sensor %d never reported", id)
		}
	}
}

func TestStatusJSONReflectsConfirmedStates(t *testing.T) {
	h := newHarness(t)
	h.reg.Create(1, 4, false)
	h.reg.Create(2, scan.PinNone, false)

	h.src.SetPin(4, true)
	for i := 0; i < 3; i++ {
		h.cycle()
	}

	tr := status.NewTracker(h.now, status.Config{Broker: "test"})
	tr.Update(h.reg.Snapshot(), status.Counts{Activations: len(h.pub.Events)})

	var sj status.StatusJSON
	if err := json.Unmarshal(status.FormatJSON(tr.Snapshot()), &sj); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if sj.Status.SensorCount != 2 {
		t.Fatalf("sensor_count: got %d, want 2", sj.Status.SensorCount)
	}
	if sj.Status.Sensors[0].State != "ACTIVE" || sj.Status.Sensors[1].State != "INACTIVE" {
		t.Errorf("sensor states: %+v", sj.Status.Sensors)
	}
	if sj.Status.Counts.Activations != 1 {
		t.Errorf("activations: got %d", sj.Status.Counts.Activations)
	}
}
