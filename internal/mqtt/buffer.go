package mqtt

import "go.uber.org/zap"

// bufferedMsg stores a serialized MQTT message for replay after reconnection.
type bufferedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// ringBuffer holds messages published while disconnected. When full, the
// oldest message is overwritten. Not safe for concurrent use.
type ringBuffer struct {
	buf     []bufferedMsg
	head    int // next write position
	count   int
	dropped int // messages overwritten since the last drain
	logger  *zap.SugaredLogger
}

func newRingBuffer(capacity int, logger *zap.SugaredLogger) *ringBuffer {
	return &ringBuffer{
		buf:    make([]bufferedMsg, capacity),
		logger: logger,
	}
}

func (r *ringBuffer) push(msg bufferedMsg) {
	r.buf[r.head] = msg
	r.head = (r.head + 1) % len(r.buf)
	if r.count < len(r.buf) {
		r.count++
		return
	}
	if r.dropped == 0 {
		r.logger.Warnw("mqtt buffer full, dropping oldest", "capacity", len(r.buf))
	}
	r.dropped++
}

// drainAll returns the buffered messages oldest first and empties the buffer.
func (r *ringBuffer) drainAll() []bufferedMsg {
	if r.count == 0 {
		return nil
	}

	out := make([]bufferedMsg, r.count)
	start := (r.head - r.count + len(r.buf)) % len(r.buf)
	for i := range out {
		out[i] = r.buf[(start+i)%len(r.buf)]
	}

	if r.dropped > 0 {
		r.logger.Warnw("mqtt buffer replay incomplete", "dropped", r.dropped)
	}
	r.count, r.head, r.dropped = 0, 0, 0
	return out
}

func (r *ringBuffer) len() int {
	return r.count
}
