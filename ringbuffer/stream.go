// Copyright 2024 The libdc Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ringbuffer

import (
	"github.com/libdc-go/libdc/ioevent"
	"github.com/libdc-go/libdc/status"
)

// Direction selects which way a Stream walks the ring relative to its
// start address.
type Direction int

const (
	Forward Direction = iota
	Backward
)

// Reader is the minimal device read capability the stream needs: fetch
// size bytes starting at the given absolute device address. size is
// always a multiple of the Stream's page size and the read never crosses
// the ring's End boundary, so a single Reader implementation never has to
// reason about wraparound itself.
type Reader interface {
	ReadAt(address uint32, size int) ([]byte, error)
}

// Stream linearises a circular on-device memory region into a forward or
// backward byte stream, backed by a single page-aligned cache block so
// repeated small Read calls don't each trigger a device transfer.
//
// Internally the stream works in offsets relative to the region's Begin
// address (range [0, capacity]) so wraparound is a plain modulo on a
// non-negative int rather than unsigned-subtraction arithmetic that would
// be easy to get wrong at the wrap point.
type Stream struct {
	dev       Reader
	bus       *ioevent.Bus
	region    Range
	pageSize  int
	chunkSize int
	direction Direction

	// cursor is the next offset to be produced in the direction of travel
	// for Forward, or the exclusive upper bound of the not-yet-produced
	// region for Backward.
	cursor int

	cache       []byte
	cacheOffset int // offset of cache[0] within the region
}

// New constructs a Stream over region, reading page-sized, chunk-sized
// bursts via dev and reporting one Progress event per physical transfer
// through bus (which may be nil). startAddress is the first byte to
// produce for Forward, or one past the newest byte for Backward.
func New(dev Reader, bus *ioevent.Bus, pageSize, chunkSize int, region Range, startAddress uint32, direction Direction) *Stream {
	return &Stream{
		dev:       dev,
		bus:       bus,
		region:    region,
		pageSize:  pageSize,
		chunkSize: chunkSize,
		direction: direction,
		cursor:    int(startAddress - region.Begin),
	}
}

func (s *Stream) capacity() int {
	return int(s.region.Capacity())
}

// Read fills out with the next len(out) bytes in the stream's direction of
// travel.
func (s *Stream) Read(out []byte) error {
	if s.direction == Forward {
		return s.readForward(out)
	}
	return s.readBackward(out)
}

func (s *Stream) readForward(out []byte) error {
	n := 0
	cap := s.capacity()
	for n < len(out) {
		offset := s.cursor % cap
		runLen := len(out) - n
		if err := s.fill(offset, runLen, true); err != nil {
			return err
		}
		avail := len(s.cache) - (offset - s.cacheOffset)
		if avail > runLen {
			avail = runLen
		}
		start := offset - s.cacheOffset
		copy(out[n:n+avail], s.cache[start:start+avail])
		n += avail
		s.cursor += avail
	}
	return nil
}

func (s *Stream) readBackward(out []byte) error {
	n := len(out)
	cap := s.capacity()
	for n > 0 {
		end := s.cursor
		if end == 0 {
			s.cursor = cap
			end = cap
		}
		if err := s.fill(end, n, false); err != nil {
			return err
		}
		avail := end - s.cacheOffset
		if avail > n {
			avail = n
		}
		copy(out[n-avail:n], s.cache[end-avail-s.cacheOffset:end-s.cacheOffset])
		n -= avail
		s.cursor = end - avail
	}
	return nil
}

// fill ensures the cache covers the bytes needed for the next transfer,
// fetching one page-aligned, non-wrapping device read if it doesn't.
// forward selects whether the run being served extends upward from anchor
// (Forward) or downward to anchor (Backward).
func (s *Stream) fill(anchor, need int, forward bool) error {
	if len(s.cache) > 0 {
		if forward && anchor >= s.cacheOffset && anchor < s.cacheOffset+len(s.cache) {
			return nil
		}
		if !forward && anchor > s.cacheOffset && anchor <= s.cacheOffset+len(s.cache) {
			return nil
		}
	}
	cap := s.capacity()
	var pageStart, size int
	if forward {
		pageStart = (anchor / s.pageSize) * s.pageSize
		size = s.chunkSize
		if rounded := ((need + s.pageSize - 1) / s.pageSize) * s.pageSize; rounded > size {
			size = rounded
		}
		if pageStart+size > cap {
			size = cap - pageStart
		}
	} else {
		pageEnd := ((anchor + s.pageSize - 1) / s.pageSize) * s.pageSize
		if pageEnd > cap {
			pageEnd = cap
		}
		size = s.chunkSize
		if rounded := ((need + s.pageSize - 1) / s.pageSize) * s.pageSize; rounded > size {
			size = rounded
		}
		pageStart = pageEnd - size
		if pageStart < 0 {
			pageStart = 0
			size = pageEnd
		}
	}
	addr := s.region.Begin + uint32(pageStart)
	data, err := s.dev.ReadAt(addr, size)
	if err != nil {
		return err
	}
	if len(data) != size {
		return status.New(status.Protocol, "ringbuffer.Stream", "short read: got %d want %d", len(data), size)
	}
	s.cache = data
	s.cacheOffset = pageStart
	if s.bus != nil {
		s.bus.Emit(ioevent.Event{Kind: ioevent.Progress})
	}
	return nil
}
