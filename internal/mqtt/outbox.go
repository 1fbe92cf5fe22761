package mqtt

import "log"

// queuedMsg is a serialized message waiting for the broker to come back.
type queuedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// outbox is a fixed-capacity FIFO holding messages published while the
// broker link is down. When full, the oldest message is overwritten:
// recent pump events matter more than stale ones. Not safe for
// concurrent use — the owning publisher synchronizes.
type outbox struct {
	msgs    []queuedMsg
	next    int // next write position
	queued  int
	dropped int // messages lost to overflow since the last drain
}

func newOutbox(capacity int) *outbox {
	return &outbox{msgs: make([]queuedMsg, capacity)}
}

func (o *outbox) add(msg queuedMsg) {
	if o.queued == len(o.msgs) {
		// next already points at the oldest entry
		o.dropped++
		o.msgs[o.next] = msg
		o.next = (o.next + 1) % len(o.msgs)
		return
	}
	o.msgs[o.next] = msg
	o.next = (o.next + 1) % len(o.msgs)
	o.queued++
}

// drain returns the queued messages oldest first and empties the outbox.
func (o *outbox) drain() []queuedMsg {
	if o.queued == 0 {
		return nil
	}
	if o.dropped > 0 {
		log.Printf("mqtt: outbox overflowed, %d oldest messages lost", o.dropped)
	}

	out := make([]queuedMsg, o.queued)
	oldest := (o.next - o.queued + len(o.msgs)) % len(o.msgs)
	for i := range out {
		out[i] = o.msgs[(oldest+i)%len(o.msgs)]
	}

	o.queued = 0
	o.next = 0
	o.dropped = 0
	return out
}

func (o *outbox) len() int {
	return o.queued
}
