package gpio

import "sync"

// FakeSource is a test double with settable pin states and an injectable
// change-notification path.
type FakeSource struct {
	mu sync.Mutex

	// pins holds the current logical state of each pin.
	pins map[int]bool

	// Pullups records the pullup argument of each Configure call.
	Pullups map[int]bool

	// NotifyPins marks pins that report native change notification.
	NotifyPins map[int]bool

	// ConfigureErr, if set, is returned by Configure.
	ConfigureErr error

	// ReadErr, if set, is returned by Read.
	ReadErr error

	// Reads counts Read calls, per pin.
	Reads map[int]int

	notify func(pin int, state bool)
}

// NewFakeSource creates a FakeSource with all pins inactive.
func NewFakeSource() *FakeSource {
	return &FakeSource{
		pins:       make(map[int]bool),
		Pullups:    make(map[int]bool),
		NotifyPins: make(map[int]bool),
		Reads:      make(map[int]int),
	}
}

// SetPin sets the state the next Read of pin returns.
func (f *FakeSource) SetPin(pin int, active bool) {
	f.mu.Lock()
	f.pins[pin] = active
	f.mu.Unlock()
}

// Push simulates a hardware change notification: it updates the pin state
// and invokes the subscribed callback, as the real chip's event handler
// would.
func (f *FakeSource) Push(pin int, active bool) {
	f.mu.Lock()
	f.pins[pin] = active
	fn := f.notify
	f.mu.Unlock()
	if fn != nil {
		fn(pin, active)
	}
}

// Read returns the current state of pin.
func (f *FakeSource) Read(pin int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ReadErr != nil {
		return false, f.ReadErr
	}
	f.Reads[pin]++
	return f.pins[pin], nil
}

// Configure records the requested pullup.
func (f *FakeSource) Configure(pin int, pullup bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ConfigureErr != nil {
		return f.ConfigureErr
	}
	f.Pullups[pin] = pullup
	return nil
}

// HasChangeNotification reports whether pin was marked in NotifyPins.
func (f *FakeSource) HasChangeNotification(pin int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.NotifyPins[pin]
}

// Subscribe stores the notification callback for Push to invoke.
func (f *FakeSource) Subscribe(fn func(pin int, state bool)) {
	f.mu.Lock()
	f.notify = fn
	f.mu.Unlock()
}

// Subscribed reports whether Subscribe has been called.
func (f *FakeSource) Subscribed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.notify != nil
}
