// Copyright 2024 The libdc Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package oceanicatom2 implements device.Driver for the Oceanic Atom2
// family (Oceanic, Aeris, Sherwood, Hollis re-badges): a page-addressed
// request/reply protocol over serial or Bluetooth SPP, additive
// checksums, and a single dive-data ring buffer whose pointer page gives
// the begin/end addresses. Grounded on periph-extra's hostextra/d2xx
// request/reply handle pattern (dev.go) for the command framing shape,
// adapted to the family's byte-additive checksum and page size instead of
// FTDI's opaque control transfers.
package oceanicatom2

import (
	"github.com/libdc-go/libdc/array"
	"github.com/libdc-go/libdc/dcontext"
	"github.com/libdc-go/libdc/descriptor"
	"github.com/libdc-go/libdc/device"
	"github.com/libdc-go/libdc/ioevent"
	"github.com/libdc-go/libdc/iostream"
	"github.com/libdc-go/libdc/ringbuffer"
	"github.com/libdc-go/libdc/status"
)

const (
	cmdVersion   = 0xE7
	cmdReadPage  = 0x98
	cmdWritePage = 0x99
	ack          = 0x5A
	nak          = 0xA5

	pageSize = 256
	// pointerPage holds the ring's begin/end addresses as two
	// little-endian 16-bit page indices at offsets 0 and 2.
	pointerPage = 0
	// memorySize bounds Dump to the family's addressable page range;
	// Atom2-generation computers expose a flat 64KB page space.
	memorySize = 256 * pageSize
)

func init() {
	device.Register(descriptor.FamilyOceanicAtom2, Open)
}

type driver struct {
	ctx         *dcontext.Context
	stream      iostream.Stream
	bus         *ioevent.Bus
	fingerprint []byte
	cancel      device.CancelFunc
}

func (d *driver) cancelled() bool {
	return d.cancel != nil && d.cancel()
}

// Open implements device.Constructor for the Oceanic Atom2 family.
func Open(ctx *dcontext.Context, stream iostream.Stream, bus *ioevent.Bus) (device.Driver, error) {
	d := &driver{ctx: ctx, stream: stream, bus: bus}
	if err := d.readDevInfo(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *driver) readDevInfo() error {
	tr := device.Transfer{Stream: d.stream, ACK: ack, NAK: nak, MaxRetries: 2}
	if err := tr.SendAndAwaitACK([]byte{cmdVersion}); err != nil {
		return status.New(status.IO, "oceanicatom2.Open", "version request: %v", err)
	}
	reply := make([]byte, 8)
	if err := device.ReadExact(d.stream, reply); err != nil {
		return err
	}
	if array.AddChecksum8(reply[:7]) != reply[7] {
		return status.New(status.Protocol, "oceanicatom2.Open", "version reply checksum mismatch")
	}
	model := uint32(reply[0])
	serial := array.Uint32LE(reply[1:5], 0)
	firmware := uint32(array.Uint16LE(reply[5:7], 0))
	d.bus.Emit(ioevent.Event{Kind: ioevent.DevInfo, DevInfo: ioevent.DevInfoValue{
		Model: model, Firmware: firmware, Serial: serial,
	}})
	return nil
}

// readPage fetches one 256-byte page plus a trailing checksum byte and
// validates it.
func (d *driver) readPage(page uint16) ([]byte, error) {
	tr := device.Transfer{Stream: d.stream, ACK: ack, NAK: nak, MaxRetries: 2}
	cmd := []byte{cmdReadPage, byte(page), byte(page >> 8)}
	if err := tr.SendAndAwaitACK(cmd); err != nil {
		return nil, status.New(status.IO, "oceanicatom2.readPage", "page %d: %v", page, err)
	}
	reply := make([]byte, pageSize+1)
	if err := device.ReadExact(d.stream, reply); err != nil {
		return nil, err
	}
	if array.AddChecksum8(reply[:pageSize]) != reply[pageSize] {
		return nil, status.New(status.Protocol, "oceanicatom2.readPage", "page %d checksum mismatch", page)
	}
	return reply[:pageSize], nil
}

// ReadAt implements ringbuffer.Reader. address and size are always a
// multiple of pageSize, guaranteed by ringbuffer.Stream.
func (d *driver) ReadAt(address uint32, size int) ([]byte, error) {
	out := make([]byte, size)
	for off := 0; off < size; off += pageSize {
		if d.cancelled() {
			return nil, status.New(status.Cancelled, "oceanicatom2.ReadAt", "cancelled at offset %d", off)
		}
		page, err := d.readPage(uint16((address + uint32(off)) / pageSize))
		if err != nil {
			return nil, err
		}
		copy(out[off:], page)
	}
	return out, nil
}

// Read implements device.Reader, backed by the same paged transfer
// ReadAt uses to linearise the dive ring. address and size must both be
// multiples of pageSize.
func (d *driver) Read(address uint32, size int) ([]byte, error) {
	if address%pageSize != 0 || size%pageSize != 0 {
		return nil, status.New(status.InvalidArgs, "oceanicatom2.Read", "address and size must be multiples of %d", pageSize)
	}
	return d.ReadAt(address, size)
}

// writePage writes one pageSize-byte page plus its additive checksum.
func (d *driver) writePage(page uint16, data []byte) error {
	tr := device.Transfer{Stream: d.stream, ACK: ack, NAK: nak, MaxRetries: 2}
	cmd := append([]byte{cmdWritePage, byte(page), byte(page >> 8)}, data...)
	cmd = append(cmd, array.AddChecksum8(data))
	if err := tr.SendAndAwaitACK(cmd); err != nil {
		return status.New(status.IO, "oceanicatom2.writePage", "page %d: %v", page, err)
	}
	return nil
}

// Write implements device.Writer. address and len(data) must both be
// multiples of pageSize, matching the family's page-addressed protocol.
func (d *driver) Write(address uint32, data []byte) error {
	if address%pageSize != 0 || len(data)%pageSize != 0 {
		return status.New(status.InvalidArgs, "oceanicatom2.Write", "address and data length must be multiples of %d", pageSize)
	}
	for off := 0; off < len(data); off += pageSize {
		if d.cancelled() {
			return status.New(status.Cancelled, "oceanicatom2.Write", "cancelled at offset %d", off)
		}
		page := uint16((address + uint32(off)) / pageSize)
		if err := d.writePage(page, data[off:off+pageSize]); err != nil {
			return err
		}
	}
	return nil
}

// Dump implements device.Dumper by reading the whole addressable page
// range in one paged transfer.
func (d *driver) Dump() ([]byte, error) {
	return d.Read(0, memorySize)
}

func (d *driver) SetFingerprint(fp []byte) error {
	d.fingerprint = append([]byte(nil), fp...)
	return nil
}

func (d *driver) SetCancel(cb device.CancelFunc) error {
	d.cancel = cb
	return nil
}

// Foreach reads the ring pointer page, then walks dive records backward
// from the ring's End address. Each record is stored as
// [data...][length uint16 LE] where length covers data+2, so walking
// backward a 2-byte Read yields the trailer before its data.
func (d *driver) Foreach(fn device.DiveFunc) error {
	ptr, err := d.readPage(pointerPage)
	if err != nil {
		return err
	}
	begin := uint32(array.Uint16LE(ptr, 0)) * pageSize
	end := uint32(array.Uint16LE(ptr, 2)) * pageSize
	if begin >= memorySize || end > memorySize || begin > end {
		d.ctx.Warnf("oceanicatom2.Foreach", "pointer page out of range (begin=0x%x end=0x%x), falling back to the full %d-byte range", begin, end, memorySize)
		begin, end = 0, memorySize
	}
	if begin == end {
		return nil
	}
	region := ringbuffer.Range{Begin: begin, End: end}
	stream := ringbuffer.New(d, d.bus, pageSize, pageSize, region, end, ringbuffer.Backward)

	maxDives := region.Capacity() / pageSize
	if d.bus != nil {
		d.bus.Emit(ioevent.Event{Kind: ioevent.Progress, Progress: ioevent.ProgressValue{Current: 0, Maximum: maxDives}})
	}
	for i := uint32(0); i < maxDives; i++ {
		if d.cancelled() {
			return status.New(status.Cancelled, "oceanicatom2.Foreach", "cancelled after %d dive(s)", i)
		}
		trailer := make([]byte, 2)
		if err := stream.Read(trailer); err != nil {
			return err
		}
		if array.IsConstant(trailer, 0xff) || array.IsConstant(trailer, 0x00) {
			// Unwritten tail of the ring.
			return nil
		}
		length := int(array.Uint16LE(trailer, 0))
		if length < 2 {
			return status.New(status.DataFormat, "oceanicatom2.Foreach", "invalid record length %d", length)
		}
		data := make([]byte, length-2)
		if len(data) > 0 {
			if err := stream.Read(data); err != nil {
				return err
			}
		}
		if array.IsConstant(data, 0xff) {
			return nil
		}
		fp := fingerprintOf(data)
		if d.fingerprint != nil && string(fp) == string(d.fingerprint) {
			return nil
		}
		if d.bus != nil {
			d.bus.Emit(ioevent.Event{Kind: ioevent.Progress, Progress: ioevent.ProgressValue{Current: i + 1, Maximum: maxDives}})
		}
		if !fn(data, fp) {
			return nil
		}
	}
	return nil
}

// fingerprintOf derives a dive's stop-condition fingerprint from its
// leading 4-byte device timestamp, the same field the family parser reads
// as the dive's start time.
func fingerprintOf(data []byte) []byte {
	if len(data) < 4 {
		return nil
	}
	return append([]byte(nil), data[:4]...)
}

func (d *driver) Close() error { return nil }
