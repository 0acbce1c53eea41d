package scan

import "time"

// Scheduler walks the registry incrementally: each Scan call does at most
// one quantum of work and reports at most one confirmed transition, so a
// single invocation costs O(quantum) regardless of how many sensors are
// registered. A full pass over a large registry simply spans several calls,
// with the cursor carrying the position in between.
type Scheduler struct {
	reg    *Registry
	source Source
	sink   Sink

	cycleInterval time.Duration
	quantum       int
	now           func() time.Time

	lastCycle  time.Time
	subscribed bool
}

// NewScheduler creates a scheduler driving reg and reporting confirmed
// transitions to sink.
func NewScheduler(reg *Registry, sink Sink, cfg Config) *Scheduler {
	cfg = cfg.withDefaults()
	return &Scheduler{
		reg:           reg,
		source:        reg.source,
		sink:          sink,
		cycleInterval: cfg.CycleInterval,
		quantum:       cfg.Quantum,
		now:           cfg.Now,
	}
}

// Scan performs one bounded scheduler invocation. Call it repeatedly from
// the loop; it never blocks and never returns an error — a sensor that
// cannot be read simply looks inactive.
//
// Idle (no cycle in flight): starts a new cycle only if CycleInterval has
// elapsed since the last one began, otherwise returns immediately.
//
// Scanning: visits up to quantum sensors. Each visit polls the pin if the
// record requires it, then runs the debounce step. A confirmed transition is
// reported and ends the invocation early, so the sink sees at most one
// report per call and transitions are reported in discovery order.
func (s *Scheduler) Scan() {
	if !s.subscribed {
		// Register the notification bridge exactly once.
		s.source.Subscribe(s.reg.HandleNotify)
		s.subscribed = true
	}

	if s.reg.Len() == 0 {
		return
	}

	if !s.reg.scanning() {
		now := s.now()
		if now.Sub(s.lastCycle) < s.cycleInterval {
			return
		}
		s.lastCycle = now
		s.reg.beginScan()
	}

	for visited := 0; visited < s.quantum; visited++ {
		sen := s.reg.current()
		if sen == nil {
			// End of list: back to idle until the next cycle is due.
			return
		}

		if sen.pollingRequired && sen.Pin != PinNone {
			v, err := s.source.Read(sen.Pin)
			if err != nil {
				// A failed read is indistinguishable from an
				// inactive line; reliability is the source's job.
				v = false
			}
			sen.raw.Store(v)
		}

		active, latch, transitioned := debounce(sen.raw.Load(), sen.active, sen.latch, s.reg.threshold)
		sen.active = active
		sen.latch = latch
		s.reg.advance()

		if transitioned {
			s.sink.Report(sen.ID, sen.active)
			return
		}
	}
}

// Scanning reports whether a scan cycle is currently in flight.
func (s *Scheduler) Scanning() bool { return s.reg.scanning() }
