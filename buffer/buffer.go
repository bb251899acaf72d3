// Copyright 2024 The libdc Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package buffer implements a growable, owned byte container used by
// device drivers to accumulate dive records before handing them to a
// parser. It deliberately does not implement io.Writer so that a failed
// Append can never partially mutate the buffer.
package buffer

// Buffer is a growable, owned byte container.
type Buffer struct {
	data []byte
}

// New returns an empty Buffer with the given initial capacity reserved.
func New(capacity int) *Buffer {
	b := &Buffer{}
	b.Reserve(capacity)
	return b
}

// Clear truncates the buffer to zero length without releasing capacity.
func (b *Buffer) Clear() {
	b.data = b.data[:0]
}

// Size returns the current length.
func (b *Buffer) Size() int {
	return len(b.data)
}

// Data returns the buffer's contents. The slice is invalidated by any
// subsequent mutating call.
func (b *Buffer) Data() []byte {
	return b.data
}

// Reserve grows capacity to at least n bytes without changing length.
func (b *Buffer) Reserve(n int) {
	if cap(b.data) >= n {
		return
	}
	grown := make([]byte, len(b.data), n)
	copy(grown, b.data)
	b.data = grown
}

// Resize sets the length to n, zero-filling any newly exposed bytes.
func (b *Buffer) Resize(n int) {
	if n <= len(b.data) {
		b.data = b.data[:n]
		return
	}
	b.Reserve(n)
	old := len(b.data)
	b.data = b.data[:n]
	for i := old; i < n; i++ {
		b.data[i] = 0
	}
}

// Append grows the buffer by len(p) bytes and copies p into the new space.
// It never fails; the name is kept to mirror the C API's two-phase
// "grow-then-append" discipline from which this type is derived.
func (b *Buffer) Append(p []byte) {
	b.data = append(b.data, p...)
}

// TryAppend behaves like Append but returns false without mutating the
// buffer if growing would require more than maxCapacity bytes. Device
// drivers use this to cap pathological device replies instead of trusting
// an on-wire length field.
func (b *Buffer) TryAppend(p []byte, maxCapacity int) bool {
	if len(b.data)+len(p) > maxCapacity {
		return false
	}
	b.Append(p)
	return true
}

// Slice returns the byte range [offset, offset+length). It panics on an
// out-of-range request, same as a plain Go slice expression would; callers
// operating on untrusted on-wire lengths must bounds-check first.
func (b *Buffer) Slice(offset, length int) []byte {
	return b.data[offset : offset+length]
}
