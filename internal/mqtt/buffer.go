package mqtt

// queuedMsg holds a serialized message awaiting delivery after reconnection.
type queuedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// ring is a fixed-capacity FIFO holding messages while disconnected; when
// full the oldest message is overwritten. Not safe for concurrent use —
// the caller synchronizes.
type ring struct {
	buf   []queuedMsg
	head  int // next write position
	count int
}

func newRing(capacity int) *ring {
	return &ring{buf: make([]queuedMsg, capacity)}
}

// push appends msg, dropping the oldest entry when at capacity. It reports
// whether an entry was dropped.
func (r *ring) push(msg queuedMsg) bool {
	dropped := r.count == len(r.buf)
	r.buf[r.head] = msg
	r.head = (r.head + 1) % len(r.buf)
	if !dropped {
		r.count++
	}
	return dropped
}

// drain returns the queued messages oldest-first and empties the ring.
func (r *ring) drain() []queuedMsg {
	if r.count == 0 {
		return nil
	}
	out := make([]queuedMsg, r.count)
	start := (r.head - r.count + len(r.buf)) % len(r.buf)
	for i := range out {
		out[i] = r.buf[(start+i)%len(r.buf)]
	}
	r.head = 0
	r.count = 0
	return out
}

func (r *ring) len() int { return r.count }
