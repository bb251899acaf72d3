// Copyright 2024 The libdc Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package suuntovyper implements device.Driver for the Suunto Vyper/
// Cobra/Vytec/D-series family: a big-endian, length-prefixed serial
// protocol whose frames end in a 1-byte XOR checksum, and BCD-encoded
// dive timestamps used directly as the
// fingerprint. Grounded on periph-extra's hostextra/d2xx read/write
// request shape (dev.go), adapted from FTDI's raw byte transfers to this
// family's addressed read command.
package suuntovyper

import (
	"github.com/libdc-go/libdc/array"
	"github.com/libdc-go/libdc/dcontext"
	"github.com/libdc-go/libdc/descriptor"
	"github.com/libdc-go/libdc/device"
	"github.com/libdc-go/libdc/ioevent"
	"github.com/libdc-go/libdc/iostream"
	"github.com/libdc-go/libdc/status"
)

const (
	cmdReadMemory  = 0x05
	cmdWriteMemory = 0x06
	ack            = 0x06

	// indexTableAddress holds up to maxDiveSlots big-endian 16-bit dive
	// start addresses, most recent first, terminated by 0x0000.
	indexTableAddress = 0x0000
	maxDiveSlots      = 64

	// memorySize bounds Dump to the family's flat 16-bit address space.
	memorySize = 0x10000
)

func init() {
	device.Register(descriptor.FamilySuuntoVyper, Open)
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

// Open implements device.Constructor for the Suunto Vyper family.
func Open(ctx *dcontext.Context, stream iostream.Stream, bus *ioevent.Bus) (device.Driver, error) {
	d := &driver{ctx: ctx, stream: stream, bus: bus}
	return d, nil
}

// readMemory issues cmdReadMemory for a big-endian address and length and
// returns exactly length bytes, trailing a 1-byte XOR checksum over the
// command and payload.
func (d *driver) readMemory(addr uint16, length int) ([]byte, error) {
	cmd := []byte{cmdReadMemory, byte(addr >> 8), byte(addr), byte(length >> 8), byte(length)}
	if _, err := d.stream.Write(cmd); err != nil {
		return nil, err
	}
	reply := make([]byte, length+1)
	if err := device.ReadExact(d.stream, reply); err != nil {
		return nil, err
	}
	payload := reply[:length]
	want := array.XORChecksum8(append(append([]byte(nil), cmd...), payload...))
	if want != reply[length] {
		return nil, status.New(status.Protocol, "suuntovyper.readMemory", "checksum mismatch at 0x%04x", addr)
	}
	return payload, nil
}

func (d *driver) SetFingerprint(fp []byte) error {
	d.fingerprint = append([]byte(nil), fp...)
	return nil
}

func (d *driver) SetCancel(cb device.CancelFunc) error {
	d.cancel = cb
	return nil
}

// Read implements device.Reader over the family's 16-bit addressed
// memory space.
func (d *driver) Read(address uint32, size int) ([]byte, error) {
	if address > 0xFFFF {
		return nil, status.New(status.InvalidArgs, "suuntovyper.Read", "address 0x%x exceeds the 16-bit address space", address)
	}
	return d.readMemory(uint16(address), size)
}

// writeMemory issues cmdWriteMemory for a big-endian address and payload
// trailing a 1-byte XOR checksum, and awaits a single ACK byte.
func (d *driver) writeMemory(addr uint16, data []byte) error {
	cmd := append([]byte{cmdWriteMemory, byte(addr >> 8), byte(addr), byte(len(data) >> 8), byte(len(data))}, data...)
	cmd = append(cmd, array.XORChecksum8(cmd))
	if _, err := d.stream.Write(cmd); err != nil {
		return err
	}
	var reply [1]byte
	if err := device.ReadExact(d.stream, reply[:]); err != nil {
		return err
	}
	if reply[0] != ack {
		return status.New(status.Protocol, "suuntovyper.writeMemory", "unexpected reply byte 0x%02x at 0x%04x", reply[0], addr)
	}
	return nil
}

// Write implements device.Writer over the family's 16-bit addressed
// memory space.
func (d *driver) Write(address uint32, data []byte) error {
	if address > 0xFFFF {
		return status.New(status.InvalidArgs, "suuntovyper.Write", "address 0x%x exceeds the 16-bit address space", address)
	}
	return d.writeMemory(uint16(address), data)
}

// Dump implements device.Dumper by reading the whole 16-bit address
// space in two half-size requests, since a single request's 16-bit
// length field cannot express memorySize.
func (d *driver) Dump() ([]byte, error) {
	const half = memorySize / 2
	lo, err := d.Read(0, half)
	if err != nil {
		return nil, err
	}
	hi, err := d.Read(half, half)
	if err != nil {
		return nil, err
	}
	return append(lo, hi...), nil
}

// Foreach reads the index table, then each dive in order (already stored
// most-recent-first), stopping at the installed fingerprint, the cancel
// predicate, or the table's 0x0000 terminator.
func (d *driver) Foreach(fn device.DiveFunc) error {
	table, err := d.readMemory(indexTableAddress, maxDiveSlots*2)
	if err != nil {
		return err
	}
	total := 0
	for total < maxDiveSlots && array.Uint16BE(table, total*2) != 0x0000 {
		total++
	}
	if d.bus != nil {
		d.bus.Emit(ioevent.Event{Kind: ioevent.Progress, Progress: ioevent.ProgressValue{Current: 0, Maximum: uint32(total)}})
	}
	for i := 0; i < total; i++ {
		if d.cancelled() {
			return status.New(status.Cancelled, "suuntovyper.Foreach", "cancelled after %d dive(s)", i)
		}
		addr := array.Uint16BE(table, i*2)
		header, err := d.readMemory(addr, 2)
		if err != nil {
			return err
		}
		length := int(array.Uint16BE(header, 0))
		if length < 6 {
			return status.New(status.DataFormat, "suuntovyper.Foreach", "dive at 0x%04x has invalid length %d", addr, length)
		}
		data, err := d.readMemory(addr+2, length-2)
		if err != nil {
			return err
		}
		fp := fingerprintOf(data)
		if d.fingerprint != nil && string(fp) == string(d.fingerprint) {
			return nil
		}
		if d.bus != nil {
			d.bus.Emit(ioevent.Event{Kind: ioevent.Progress, Progress: ioevent.ProgressValue{Current: uint32(i + 1), Maximum: uint32(total)}})
		}
		if !fn(data, fp) {
			return nil
		}
	}
	return nil
}

// fingerprintOf returns the 4-byte BCD timestamp (year/month/day/hour
// condensed by the family's own layout) that opens every dive record.
func fingerprintOf(data []byte) []byte {
	if len(data) < 4 {
		return nil
	}
	return append([]byte(nil), data[:4]...)
}

func (d *driver) Close() error { return nil }
