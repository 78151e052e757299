// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package iscp

// ReceiveBuffer accumulates bytes read from a connection until they form
// complete frames. Leftover bytes stay buffered for the next call.
type ReceiveBuffer struct {
	buf       []byte
	discarded uint64
}

// Write appends p to the buffer. It never fails.
func (b *ReceiveBuffer) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	return len(p), nil
}

// Len returns the number of buffered bytes.
func (b *ReceiveBuffer) Len() int {
	return len(b.buf)
}

// Bytes returns the buffered bytes. The slice is only valid until the next
// call that modifies the buffer.
func (b *ReceiveBuffer) Bytes() []byte {
	return b.buf
}

// Discarded returns the total number of bytes dropped while scanning for
// frame boundaries.
func (b *ReceiveBuffer) Discarded() uint64 {
	return b.discarded
}

// Reset drops all buffered bytes.
func (b *ReceiveBuffer) Reset() {
	b.buf = b.buf[:0]
}

// Next decodes zero or one message from the buffer using codec.
// It returns ok=false when no complete frame is buffered yet. On a decode
// error the offending start byte is dropped so that the following call makes
// progress.
func (b *ReceiveBuffer) Next(codec Codec) (msg Message, ok bool, err error) {
	msg, skip, n, err := codec.Decode(b.buf)
	b.drop(skip)

	if err != nil {
		if len(b.buf) > 0 {
			b.drop(1)
		}
		return Message{}, false, err
	}
	if n == 0 {
		return Message{}, false, nil
	}

	b.buf = b.buf[n:]
	b.compact()
	return msg, true, nil
}

func (b *ReceiveBuffer) drop(n int) {
	if n <= 0 {
		return
	}
	b.discarded += uint64(n)
	b.buf = b.buf[n:]
	b.compact()
}

// compact releases the backing array once every byte has been consumed.
func (b *ReceiveBuffer) compact() {
	if len(b.buf) == 0 {
		b.buf = b.buf[:0:0]
	}
}
