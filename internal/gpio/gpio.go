// Package gpio provides pin-level input access for the scan engine.
// The real implementation uses the Linux GPIO character device; the fake
// implementation allows testing without hardware. Both satisfy scan.Source.
//
// Inversion convention: an activated sensor pulls its line to ground, so a
// raw value of 0 reads as logically active (true).
package gpio

// DefaultChip is the GPIO character device used when none is specified.
const DefaultChip = "gpiochip0"
