// Copyright 2024 The libdc Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package maresiconhd implements device.Driver for the Mares Icon HD/
// Puck Pro/Quad Air family: an indexed dive-count-then-fetch-by-index
// protocol over serial or USB-HID, big-endian length-prefixed replies
// with a trailing XOR checksum. Grounded on periph-extra's
// hostextra/d2xx request/reply pattern (d2xx.go), adapted from FTDI's
// fixed control transfers to this family's framed byte-stream replies
// using device.ReadFramedReply.
package maresiconhd

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
	cmdDiveCount = 0xC4
	cmdDive      = 0xC6
)

func init() {
	device.Register(descriptor.FamilyMaresIconHD, Open)
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

// Open implements device.Constructor for the Mares Icon HD family.
func Open(ctx *dcontext.Context, stream iostream.Stream, bus *ioevent.Bus) (device.Driver, error) {
	return &driver{ctx: ctx, stream: stream, bus: bus}, nil
}

func (d *driver) diveCount() (int, error) {
	if _, err := d.stream.Write([]byte{cmdDiveCount}); err != nil {
		return 0, err
	}
	reply := make([]byte, 3)
	if err := device.ReadExact(d.stream, reply); err != nil {
		return 0, err
	}
	if array.XORChecksum8(reply[:2]) != reply[2] {
		return 0, status.New(status.Protocol, "maresiconhd.diveCount", "checksum mismatch")
	}
	return int(array.Uint16BE(reply, 0)), nil
}

// fetchDive requests dive index and returns its data, stripped of the
// framing header and trailing checksum, after validating both.
func (d *driver) fetchDive(index int) ([]byte, error) {
	if _, err := d.stream.Write([]byte{cmdDive, byte(index)}); err != nil {
		return nil, err
	}
	frame, err := device.ReadFramedReply(d.stream, 2, func(h []byte) int {
		return int(array.Uint16BE(h, 0))
	})
	if err != nil {
		return nil, err
	}
	body := frame[2:]
	if len(body) < 1 {
		return nil, status.New(status.DataFormat, "maresiconhd.fetchDive", "empty reply for dive %d", index)
	}
	data, checksum := body[:len(body)-1], body[len(body)-1]
	if array.XORChecksum8(data) != checksum {
		return nil, status.New(status.Protocol, "maresiconhd.fetchDive", "dive %d checksum mismatch", index)
	}
	return data, nil
}

func (d *driver) SetFingerprint(fp []byte) error {
	d.fingerprint = append([]byte(nil), fp...)
	return nil
}

func (d *driver) SetCancel(cb device.CancelFunc) error {
	d.cancel = cb
	return nil
}

// Foreach fetches the dive count, then walks indices from newest (count-1)
// down to 0, the order the device's index already stores them in.
func (d *driver) Foreach(fn device.DiveFunc) error {
	count, err := d.diveCount()
	if err != nil {
		return err
	}
	if d.bus != nil {
		d.bus.Emit(ioevent.Event{Kind: ioevent.Progress, Progress: ioevent.ProgressValue{Current: 0, Maximum: uint32(count)}})
	}
	for i := count - 1; i >= 0; i-- {
		if d.cancelled() {
			return status.New(status.Cancelled, "maresiconhd.Foreach", "cancelled after %d dive(s)", count-1-i)
		}
		data, err := d.fetchDive(i)
		if err != nil {
			return err
		}
		fp := fingerprintOf(data)
		if d.fingerprint != nil && string(fp) == string(d.fingerprint) {
			return nil
		}
		if d.bus != nil {
			d.bus.Emit(ioevent.Event{Kind: ioevent.Progress, Progress: ioevent.ProgressValue{
				Current: uint32(count - i), Maximum: uint32(count),
			}})
		}
		if !fn(data, fp) {
			return nil
		}
	}
	return nil
}

func fingerprintOf(data []byte) []byte {
	if len(data) < 4 {
		return nil
	}
	return append([]byte(nil), data[:4]...)
}

func (d *driver) Close() error { return nil }
