// Copyright 2024 The libdc Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package device

import (
	"github.com/libdc-go/libdc/iostream"
	"github.com/libdc-go/libdc/status"
)

// ReadExact reads exactly len(buf) bytes from stream, looping over short
// reads until buf is full, a non-Timeout error occurs, or a read times out
// without delivering any byte (that Timeout is returned). Most transports
// (serial in particular) routinely hand back fewer bytes than requested
// even when more data is on the way, so every family driver that parses a
// fixed-size reply needs this rather than a single stream.Read call.
func ReadExact(stream iostream.Stream, buf []byte) error {
	n := 0
	for n < len(buf) {
		got, err := stream.Read(buf[n:])
		n += got
		if err != nil && status.Of(err) != status.Timeout {
			return err
		}
		if err != nil && got == 0 {
			return err
		}
	}
	return nil
}

// Transfer is the shared command/response state machine used by family
// protocols framed as "send a command packet, wait for a single-byte
// ACK/NAK, retry the whole packet on NAK or on a timed-out reply". In
// this module the Oceanic Atom2 driver is its only caller.
type Transfer struct {
	Stream     iostream.Stream
	ACK        byte
	NAK        byte
	MaxRetries int
}

// SendAndAwaitACK writes packet and reads a single status byte, retrying
// the full write up to MaxRetries additional times if the byte is NAK or
// the read times out. Any other read error is returned at once. It
// returns status.Protocol once retries are exhausted without an ACK.
func (t Transfer) SendAndAwaitACK(packet []byte) error {
	var last error
	for attempt := 0; attempt <= t.MaxRetries; attempt++ {
		if _, err := t.Stream.Write(packet); err != nil {
			return err
		}
		var reply [1]byte
		if err := ReadExact(t.Stream, reply[:]); err != nil {
			if status.Of(err) != status.Timeout {
				return err
			}
			last = err
			continue
		}
		switch reply[0] {
		case t.ACK:
			return nil
		case t.NAK:
			last = status.New(status.Protocol, "device.Transfer", "device replied NAK")
			continue
		default:
			return status.New(status.Protocol, "device.Transfer", "unexpected reply byte 0x%02x", reply[0])
		}
	}
	return status.New(status.Protocol, "device.Transfer", "no ACK after %d attempts: %v", t.MaxRetries+1, last)
}

// ReadFramedReply reads a fixed-size header, uses extractLength to decode
// the trailing payload length from it, then reads exactly that many more
// bytes. It is the common shape of a length-prefixed reply frame; the
// caller supplies extractLength since the length field's offset, size and
// endianness vary per family.
func ReadFramedReply(stream iostream.Stream, headerSize int, extractLength func(header []byte) int) ([]byte, error) {
	header := make([]byte, headerSize)
	if err := ReadExact(stream, header); err != nil {
		return nil, err
	}
	n := extractLength(header)
	if n < 0 {
		return nil, status.New(status.DataFormat, "device.ReadFramedReply", "negative payload length %d", n)
	}
	frame := make([]byte, headerSize+n)
	copy(frame, header)
	if n > 0 {
		if err := ReadExact(stream, frame[headerSize:]); err != nil {
			return nil, err
		}
	}
	return frame, nil
}
