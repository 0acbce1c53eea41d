// Package store persists sensor definitions. Only (id, pin, pullup) are
// stored; runtime state (confirmed/raw/latch) always resets on reload.
package store

import "context"

// Definition is the persisted part of a sensor record.
type Definition struct {
	ID     uint16
	Pin    int
	Pullup bool
}

// Store loads and saves the full definition set. StoreAll overwrites any
// prior contents; LoadAll returns definitions in stored order.
type Store interface {
	LoadAll(ctx context.Context) ([]Definition, error)
	StoreAll(ctx context.Context, defs []Definition) error
	Close() error
}
