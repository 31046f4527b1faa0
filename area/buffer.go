package area

import "bytes"

// DefaultFlushBytes is the output buffer high-water mark. Large enough that
// typical encoded areas fit many times over, so no area is ever split
// between two flushed buffers.
const DefaultFlushBytes = 1 << 20

// CallbackBuffer collects encoded areas and hands full buffers to a sink
// callback. Without a callback it runs in pull mode via Read.
//
// Assemblers append whole areas into Buffer(); the manager calls
// PossiblyFlush between areas, so a flush never cuts an area in half.
type CallbackBuffer struct {
	buf       *bytes.Buffer
	threshold int
	callback  func([]byte)
}

// NewCallbackBuffer returns a buffer flushing at the given threshold.
// A threshold <= 0 means DefaultFlushBytes.
func NewCallbackBuffer(threshold int, callback func([]byte)) *CallbackBuffer {
	if threshold <= 0 {
		threshold = DefaultFlushBytes
	}
	return &CallbackBuffer{
		buf:       &bytes.Buffer{},
		threshold: threshold,
		callback:  callback,
	}
}

// SetCallback installs the sink. A nil callback switches to pull mode.
func (b *CallbackBuffer) SetCallback(callback func([]byte)) {
	b.callback = callback
}

// Buffer returns the current buffer for assemblers to append into.
func (b *CallbackBuffer) Buffer() *bytes.Buffer {
	return b.buf
}

// PossiblyFlush flushes if the buffer reached the threshold.
func (b *CallbackBuffer) PossiblyFlush() {
	if b.buf.Len() >= b.threshold {
		b.Flush()
	}
}

// Flush hands the current buffer to the callback, regardless of size, and
// starts a fresh one. Without a callback, or with an empty buffer, it is a
// no-op. The callback runs synchronously on the caller's goroutine.
func (b *CallbackBuffer) Flush() {
	if b.callback == nil || b.buf.Len() == 0 {
		return
	}
	full := b.buf
	b.buf = &bytes.Buffer{}
	b.callback(full.Bytes())
}

// Read returns the buffered bytes and starts a fresh buffer. Used in pull
// mode instead of a callback.
func (b *CallbackBuffer) Read() []byte {
	data := b.buf.Bytes()
	b.buf = &bytes.Buffer{}
	return data
}

// Len returns the number of buffered bytes.
func (b *CallbackBuffer) Len() int {
	return b.buf.Len()
}
