//go:build linux

package gpio

import (
	"fmt"
	"sync"

	"github.com/warthog618/go-gpiocdev"
)

// Chip reads input pins from a Linux GPIO character device.
//
// When built with edge events enabled, every configured line is requested
// with both-edge detection and kernel events are forwarded to the callback
// registered via Subscribe; the scan engine then skips polling those pins.
type Chip struct {
	chip   *gpiocdev.Chip
	events bool

	mu     sync.Mutex
	lines  map[int]*gpiocdev.Line
	notify func(pin int, state bool)
}

// NewChip opens the named GPIO character device. With events true, lines are
// requested with edge detection and the chip reports change-notification
// support for every pin.
func NewChip(name string, events bool) (*Chip, error) {
	chip, err := gpiocdev.NewChip(name)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", name, err)
	}
	return &Chip{
		chip:   chip,
		events: events,
		lines:  make(map[int]*gpiocdev.Line),
	}, nil
}

// Configure requests the pin as an input, with the internal pull-up when
// asked for. Reconfiguring a pin releases the previous request first.
func (c *Chip) Configure(pin int, pullup bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if prev, ok := c.lines[pin]; ok {
		prev.Close()
		delete(c.lines, pin)
	}

	opts := []gpiocdev.LineReqOption{gpiocdev.AsInput}
	if pullup {
		opts = append(opts, gpiocdev.WithPullUp)
	}
	if c.events {
		opts = append(opts, gpiocdev.WithBothEdges, gpiocdev.WithEventHandler(c.handleEvent))
	}

	line, err := c.chip.RequestLine(pin, opts...)
	if err != nil {
		return fmt.Errorf("request pin %d: %w", pin, err)
	}
	c.lines[pin] = line
	return nil
}

// Read returns the logical state of the pin: raw low (0) = active.
func (c *Chip) Read(pin int) (bool, error) {
	c.mu.Lock()
	line, ok := c.lines[pin]
	c.mu.Unlock()
	if !ok {
		return false, fmt.Errorf("pin %d not configured", pin)
	}

	raw, err := line.Value()
	if err != nil {
		return false, fmt.Errorf("read pin %d: %w", pin, err)
	}
	return raw == 0, nil
}

// HasChangeNotification reports whether pin changes are delivered as events
// rather than needing polls. It is a chip-wide capability.
func (c *Chip) HasChangeNotification(pin int) bool {
	return c.events
}

// Subscribe registers the callback that receives edge events. Called at most
// once by the scan engine.
func (c *Chip) Subscribe(fn func(pin int, state bool)) {
	c.mu.Lock()
	c.notify = fn
	c.mu.Unlock()
}

func (c *Chip) handleEvent(evt gpiocdev.LineEvent) {
	c.mu.Lock()
	fn := c.notify
	c.mu.Unlock()
	if fn == nil {
		return
	}
	// Falling edge means the line was pulled low: sensor active.
	fn(evt.Offset, evt.Type == gpiocdev.LineEventFallingEdge)
}

// Close releases all requested lines and the chip.
func (c *Chip) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for pin, line := range c.lines {
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pin %d: %w", pin, err))
		}
	}
	c.lines = make(map[int]*gpiocdev.Line)
	if err := c.chip.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close chip: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
