// Copyright 2024 The libdc Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package shearwaterpetrel implements device.Driver for the Shearwater
// Petrel/Perdix family over BLE GATT or legacy Bluetooth SPP: a manifest
// request that returns every logged dive's address and fingerprint in one
// shot, followed by an address-addressed fetch per dive. Grounded on
// periph-extra's hostextra/d2xx request/reply handle (dev.go), adapted
// from FTDI's synchronous control calls to this family's two-phase
// manifest-then-fetch shape.
package shearwaterpetrel

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
	cmdManifest = 0xE0
	cmdFetch    = 0xE2

	manifestEntrySize = 8 // 4-byte address + 4-byte fingerprint, both big-endian
)

func init() {
	device.Register(descriptor.FamilyShearwaterPetrel, Open)
}

type manifestEntry struct {
	address     uint32
	fingerprint []byte
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

// Open implements device.Constructor for the Shearwater Petrel family.
func Open(ctx *dcontext.Context, stream iostream.Stream, bus *ioevent.Bus) (device.Driver, error) {
	return &driver{ctx: ctx, stream: stream, bus: bus}, nil
}

func (d *driver) SetFingerprint(fp []byte) error {
	d.fingerprint = append([]byte(nil), fp...)
	return nil
}

func (d *driver) SetCancel(cb device.CancelFunc) error {
	d.cancel = cb
	return nil
}

func (d *driver) manifest() ([]manifestEntry, error) {
	if _, err := d.stream.Write([]byte{cmdManifest}); err != nil {
		return nil, err
	}
	countBuf := make([]byte, 2)
	if err := device.ReadExact(d.stream, countBuf); err != nil {
		return nil, err
	}
	count := int(array.Uint16BE(countBuf, 0))
	body := make([]byte, count*manifestEntrySize)
	if err := device.ReadExact(d.stream, body); err != nil {
		return nil, err
	}
	entries := make([]manifestEntry, count)
	for i := range entries {
		off := i * manifestEntrySize
		entries[i] = manifestEntry{
			address:     array.Uint32BE(body, off),
			fingerprint: append([]byte(nil), body[off+4:off+8]...),
		}
	}
	return entries, nil
}

func (d *driver) fetch(address uint32) ([]byte, error) {
	cmd := []byte{cmdFetch, byte(address >> 24), byte(address >> 16), byte(address >> 8), byte(address)}
	if _, err := d.stream.Write(cmd); err != nil {
		return nil, err
	}
	lengthBuf := make([]byte, 4)
	if err := device.ReadExact(d.stream, lengthBuf); err != nil {
		return nil, err
	}
	length := array.Uint32BE(lengthBuf, 0)
	if length == 0 {
		return nil, status.New(status.DataFormat, "shearwaterpetrel.fetch", "empty dive at 0x%08x", address)
	}
	data := make([]byte, length)
	if err := device.ReadExact(d.stream, data); err != nil {
		return nil, err
	}
	return data, nil
}

// Foreach requests the manifest once — already ordered most-recent-first
// by the device — then fetches each listed dive in turn until the
// installed fingerprint is reached.
func (d *driver) Foreach(fn device.DiveFunc) error {
	entries, err := d.manifest()
	if err != nil {
		return err
	}
	total := uint32(len(entries))
	if d.bus != nil {
		d.bus.Emit(ioevent.Event{Kind: ioevent.Progress, Progress: ioevent.ProgressValue{Current: 0, Maximum: total}})
	}
	for i, e := range entries {
		if d.cancelled() {
			return status.New(status.Cancelled, "shearwaterpetrel.Foreach", "cancelled after %d dive(s)", i)
		}
		if d.fingerprint != nil && string(e.fingerprint) == string(d.fingerprint) {
			return nil
		}
		data, err := d.fetch(e.address)
		if err != nil {
			return err
		}
		if d.bus != nil {
			d.bus.Emit(ioevent.Event{Kind: ioevent.Progress, Progress: ioevent.ProgressValue{
				Current: uint32(i + 1), Maximum: total,
			}})
		}
		if !fn(data, e.fingerprint) {
			return nil
		}
	}
	return nil
}

func (d *driver) Close() error { return nil }
