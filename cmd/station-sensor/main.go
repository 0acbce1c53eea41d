// Command station-sensor monitors debounced GPIO sensor inputs and publishes
// confirmed transitions to MQTT. Sensor definitions are edited over a stdin
// console and persisted to sqlite.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/station-sensor/internal/console"
	"github.com/sweeney/station-sensor/internal/gpio"
	"github.com/sweeney/station-sensor/internal/mqtt"
	"github.com/sweeney/station-sensor/internal/scan"
	"github.com/sweeney/station-sensor/internal/status"
	"github.com/sweeney/station-sensor/internal/store"
	"github.com/sweeney/station-sensor/internal/web"
)

func main() {
	tick := flag.Duration("tick", time.Millisecond, "scheduler invocation interval")
	cycle := flag.Duration("cycle", scan.DefaultCycleInterval, "minimum gap between scan cycle starts")
	threshold := flag.Uint("threshold", uint(scan.DefaultThreshold), "consecutive agreeing samples required to confirm a change")
	quantum := flag.Int("quantum", scan.DefaultQuantum, "max sensors examined per scheduler invocation")
	maxPin := flag.Int("max-pin", scan.DefaultMaxPin, "highest accepted pin number")
	chip := flag.String("chip", gpio.DefaultChip, "GPIO character device")
	edgeEvents := flag.Bool("edge-events", false, "use kernel edge events instead of polling where available")
	broker := flag.String("broker", "tcp://192.168.1.200:1883", "MQTT broker address")
	heartbeat := flag.Duration("heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	dbPath := flag.String("db", "/var/lib/station-sensor/sensors.db", "sqlite database holding sensor definitions")
	restore := flag.Bool("restore", true, "recreate sensors from the store at startup")
	httpAddr := flag.String("http", ":8080", "HTTP status address (empty to disable)")
	stdinConsole := flag.Bool("console", true, "read admin commands from stdin")

	flag.Parse()

	if *threshold > 255 {
		log.Fatalf("fatal: threshold must fit in a byte")
	}

	if err := run(*tick, *cycle, uint8(*threshold), *quantum, *maxPin, *chip, *edgeEvents,
		*broker, *heartbeat, *dbPath, *restore, *httpAddr, *stdinConsole); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(tick, cycle time.Duration, threshold uint8, quantum, maxPin int, chipName string, edgeEvents bool,
	broker string, heartbeat time.Duration, dbPath string, restore bool, httpAddr string, stdinConsole bool) error {
	ctx := context.Background()

	// Pin source
	source, err := gpio.NewChip(chipName, edgeEvents)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer source.Close()

	// Definition store
	st := store.NewSQLiteStore(dbPath)
	if err := st.Init(ctx); err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer st.Close()

	cfg := scan.Config{
		CycleInterval: cycle,
		Quantum:       quantum,
		Threshold:     threshold,
		MaxPin:        maxPin,
		Now:           time.Now,
	}
	reg := scan.NewRegistry(source, cfg)

	if restore {
		defs, err := st.LoadAll(ctx)
		if err != nil {
			return fmt.Errorf("load sensors: %w", err)
		}
		for _, d := range defs {
			if _, err := reg.Create(d.ID, d.Pin, d.Pullup); err != nil {
				log.Printf("restore sensor %d: %v", d.ID, err)
			}
		}
		log.Printf("restored %d sensors from %s", reg.Len(), dbPath)
	}

	// MQTT
	publisher, err := mqtt.NewRealPublisher(broker)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	// Status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		ScanMs:      tick.Milliseconds(),
		CycleMs:     cycle.Milliseconds(),
		Threshold:   int(threshold),
		Quantum:     quantum,
		HeartbeatMs: heartbeat.Milliseconds(),
		Broker:      broker,
		DBPath:      dbPath,
		HTTPAddr:    httpAddr,
		EdgeEvents:  edgeEvents,
	})
	tracker.Update(reg.Snapshot(), status.Counts{})

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	// HTTP status server
	if httpAddr != "" {
		srv := web.New(httpAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", httpAddr)
	}

	// Admin console
	cmds := make(chan console.Command, 16)
	if stdinConsole {
		go console.Run(os.Stdin, cmds, os.Stderr)
	}

	log.Printf("started: tick=%v cycle=%v threshold=%d quantum=%d broker=%s", tick, cycle, threshold, quantum, broker)

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(reg, cfg, publisher, publisher, tracker, st, heartbeat, ticker.C, cmds, sigCh, os.Stdout)
}

// runLoop is the cooperative core: scheduler invocations, console commands
// and shutdown all execute here, so the registry has a single writer. Only
// the pin source's notification callback runs elsewhere, and it touches
// nothing but a sensor's raw state.
func runLoop(reg *scan.Registry, cfg scan.Config, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus,
	tracker *status.Tracker, st store.Store, heartbeat time.Duration,
	tick <-chan time.Time, cmds <-chan console.Command, sig <-chan os.Signal, out io.Writer) error {

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	var counts status.Counts
	sink := scan.SinkFunc(func(id uint16, active bool) {
		state := mqtt.StateString(active)
		log.Printf("sensor %d -> %s", id, state)
		if err := publisher.Publish(mqtt.Event{Timestamp: now(), ID: id, Active: active}); err != nil {
			log.Printf("publish error: %v", err)
			// Don't crash on publish failure
		}
		if active {
			counts.Activations++
		} else {
			counts.Deactivations++
		}
	})
	sched := scan.NewScheduler(reg, sink, cfg)

	lastHeartbeat := now()

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				tracker.Update(reg.Snapshot(), counts)
				event.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case cmd, ok := <-cmds:
			if !ok {
				// Console input ended; keep scanning.
				cmds = nil
				continue
			}
			applyCommand(cmd, reg, st, out)

		case <-tick:
			sched.Scan()

			t := now()
			if heartbeat > 0 && t.Sub(lastHeartbeat) >= heartbeat {
				lastHeartbeat = t
				hbEvent := mqtt.SystemEvent{Timestamp: t, Event: "HEARTBEAT"}
				if tracker != nil {
					if mqttStatus != nil {
						tracker.SetMQTTConnected(mqttStatus.IsConnected())
					}
					tracker.Update(reg.Snapshot(), counts)
					hbEvent.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), "HEARTBEAT", "")
				}
				log.Printf("heartbeat: sensors=%d activations=%d deactivations=%d",
					reg.Len(), counts.Activations, counts.Deactivations)
				if err := publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}

			// Update status tracker for HTTP consumers
			if tracker != nil {
				tracker.Update(reg.Snapshot(), counts)
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
			}
		}
	}
}

// applyCommand executes one console command against the registry and store.
// Runs on the loop goroutine.
func applyCommand(cmd console.Command, reg *scan.Registry, st store.Store, out io.Writer) {
	switch cmd.Action {
	case console.ActionAdd:
		if _, err := reg.Create(cmd.ID, cmd.Pin, cmd.Pullup); err != nil {
			fmt.Fprintf(out, "add %d: %v\n", cmd.ID, err)
			return
		}
		fmt.Fprintf(out, "sensor %d registered\n", cmd.ID)

	case console.ActionRemove:
		if !reg.Remove(cmd.ID) {
			fmt.Fprintf(out, "del %d: no such sensor\n", cmd.ID)
			return
		}
		fmt.Fprintf(out, "sensor %d removed\n", cmd.ID)

	case console.ActionList:
		snap := reg.Snapshot()
		if len(snap) == 0 {
			fmt.Fprintln(out, "no sensors defined")
			return
		}
		for _, s := range snap {
			pin := "none"
			if s.Pin != scan.PinNone {
				pin = fmt.Sprintf("%d", s.Pin)
			}
			fmt.Fprintf(out, "sensor %d pin=%s pullup=%v %s\n", s.ID, pin, s.Pullup, mqtt.StateString(s.Active))
		}

	case console.ActionSet:
		if !reg.SetState(cmd.ID, cmd.State) {
			fmt.Fprintf(out, "set %d: no such sensor\n", cmd.ID)
			return
		}
		fmt.Fprintf(out, "sensor %d state set\n", cmd.ID)

	case console.ActionSave:
		if st == nil {
			fmt.Fprintln(out, "save: no store configured")
			return
		}
		snap := reg.Snapshot()
		defs := make([]store.Definition, len(snap))
		for i, s := range snap {
			defs[i] = store.Definition{ID: s.ID, Pin: s.Pin, Pullup: s.Pullup}
		}
		if err := st.StoreAll(context.Background(), defs); err != nil {
			fmt.Fprintf(out, "save: %v\n", err)
			return
		}
		fmt.Fprintf(out, "saved %d sensors\n", len(defs))

	case console.ActionHelp:
		fmt.Fprintln(out, console.Usage)
	}
}
