//go:build !linux

package gpio

import "errors"

// Chip is not available on non-Linux platforms.
type Chip struct{}

// NewChip returns an error on non-Linux platforms.
func NewChip(name string, events bool) (*Chip, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// Read is not implemented on non-Linux platforms.
func (c *Chip) Read(pin int) (bool, error) {
	return false, errors.New("gpio: not supported")
}

// Configure is not implemented on non-Linux platforms.
func (c *Chip) Configure(pin int, pullup bool) error {
	return errors.New("gpio: not supported")
}

// HasChangeNotification is not implemented on non-Linux platforms.
func (c *Chip) HasChangeNotification(pin int) bool { return false }

// Subscribe is not implemented on non-Linux platforms.
func (c *Chip) Subscribe(fn func(pin int, state bool)) {}

// Close is not implemented on non-Linux platforms.
func (c *Chip) Close() error { return nil }
