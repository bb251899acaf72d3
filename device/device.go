// Copyright 2024 The libdc Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package device implements the generic device driver framework: the
// per-family Driver vtable every concrete driver satisfies, the Device
// wrapper that owns a borrowed iostream.Stream and exposes the library's
// open/set-fingerprint/foreach/timesync/close lifecycle, and the
// constructor registry keyed by descriptor.Family that dispatches Open to
// the right family package without the caller importing it directly.
package device

import (
	"github.com/libdc-go/libdc/dcontext"
	"github.com/libdc-go/libdc/descriptor"
	"github.com/libdc-go/libdc/ioevent"
	"github.com/libdc-go/libdc/iostream"
	"github.com/libdc-go/libdc/status"
)

// DiveFunc is invoked once per dive record a driver's Foreach carves out
// of the device's ring buffer, most-recent dive first. data is the raw,
// family-specific encoding of that dive, ready for a parser.Parser.
// fingerprint is the opaque byte string a future SetFingerprint call can
// pass to stop before this dive again. Returning false stops the walk
// early without error.
type DiveFunc func(data, fingerprint []byte) bool

// CancelFunc is polled at every protocol boundary a driver crosses
// during Foreach, Read, Write or Dump — each dive fetched, each page
// transferred. It returns true once the caller wants the operation to
// stop; the driver then returns status.Cancelled instead of continuing.
type CancelFunc func() bool

// Driver is the vtable every family package implements. A Driver is
// always obtained through a Constructor registered for a descriptor.Family
// and is valid until Close.
type Driver interface {
	// SetFingerprint installs the stop condition for the next Foreach:
	// carving stops at the first dive whose own fingerprint equals fp. A
	// nil or empty fp disables the condition (walk every dive present).
	SetFingerprint(fp []byte) error

	// SetCancel installs cb as the cancellation predicate checked at
	// every protocol boundary by Foreach and, where implemented, Read/
	// Write/Dump. A nil cb clears it, the default, under which the
	// operation always runs to completion.
	SetCancel(cb CancelFunc) error

	// Foreach walks the device's dive ring buffer, most recent dive
	// first, invoking fn for each one until fn returns false, the
	// installed fingerprint is reached, the cancel predicate fires, or
	// the buffer is exhausted.
	Foreach(fn DiveFunc) error

	// Close releases any driver-side state. It does not close the
	// underlying iostream.Stream, which the caller owns.
	Close() error
}

// Reader is an optional capability: families whose protocol exposes
// addressed memory reads beyond dive-ring carving implement it. Use a
// type assertion, or Device.Read, to discover it.
type Reader interface {
	// Read returns size bytes read from address. The meaning of
	// address and any alignment constraint on size are family-specific.
	Read(address uint32, size int) ([]byte, error)
}

// Writer is an optional capability: families whose protocol accepts
// addressed memory writes implement it. Use a type assertion, or
// Device.Write, to discover it.
type Writer interface {
	// Write writes data at address.
	Write(address uint32, data []byte) error
}

// Dumper is an optional capability: families that can transfer their
// entire memory or log in a single pass, independent of dive-by-dive
// carving, implement it. Use a type assertion, or Device.Dump, to
// discover it.
type Dumper interface {
	// Dump returns the device's full memory or log contents.
	Dump() ([]byte, error)
}

// Timesyncer is an optional capability: families whose device clock can
// be read and compared against the host clock implement it so a caller
// can detect and correct drift. Not every family supports this; use a
// type assertion to discover it.
type Timesyncer interface {
	// Timesync reads the device's clock and reports it alongside the
	// host's current tick count through the driver's ioevent.Bus as a
	// Clock event; it does not alter the device.
	Timesync() error
}

// Constructor opens a Driver of one family over stream, given ctx for
// logging and bus to report DevInfo/Progress/Clock events during Open
// and subsequent calls. Registered per descriptor.Family by each family
// package's init().
type Constructor func(ctx *dcontext.Context, stream iostream.Stream, bus *ioevent.Bus) (Driver, error)

// Device is the library's handle on an open dive computer: a Driver bound
// to the iostream.Stream it drives and the event bus it reports through.
// Device does not own the Stream; the caller is responsible for closing
// it after Device.Close returns.
type Device struct {
	driver Driver
	bus    *ioevent.Bus
	desc   descriptor.Descriptor
}

// Open resolves desc.Family to a registered Constructor and opens it over
// stream. ctx may be nil, in which case logging is disabled.
func Open(desc descriptor.Descriptor, stream iostream.Stream, ctx *dcontext.Context) (*Device, error) {
	ctor, ok := lookup(desc.Family)
	if !ok {
		return nil, status.New(status.Unsupported, "device.Open", "no driver registered for family %q", desc.Family)
	}
	bus := &ioevent.Bus{}
	drv, err := ctor(ctx, stream, bus)
	if err != nil {
		return nil, err
	}
	return &Device{driver: drv, bus: bus, desc: desc}, nil
}

// Events returns the bus the driver reports Waiting/Progress/DevInfo/
// Clock/Vendor events through. Install a callback with bus.Set before
// calling Foreach to observe progress as it happens.
func (d *Device) Events() *ioevent.Bus { return d.bus }

// Descriptor returns the descriptor Device was opened with.
func (d *Device) Descriptor() descriptor.Descriptor { return d.desc }

// SetFingerprint installs fp as the next Foreach's stop condition.
func (d *Device) SetFingerprint(fp []byte) error {
	return d.driver.SetFingerprint(fp)
}

// SetCancel installs cb as the cancellation predicate for subsequent
// Foreach/Read/Write/Dump calls.
func (d *Device) SetCancel(cb CancelFunc) error {
	return d.driver.SetCancel(cb)
}

// Foreach walks the device's dives most-recent-first, invoking fn for
// each one.
func (d *Device) Foreach(fn DiveFunc) error {
	return d.driver.Foreach(fn)
}

// Read returns size bytes read from address, or status.Unsupported if
// the underlying driver has no addressed read capability.
func (d *Device) Read(address uint32, size int) ([]byte, error) {
	r, ok := d.driver.(Reader)
	if !ok {
		return nil, status.New(status.Unsupported, "device.Read", "family %q has no addressed read", d.desc.Family)
	}
	return r.Read(address, size)
}

// Write writes data at address, or returns status.Unsupported if the
// underlying driver has no addressed write capability.
func (d *Device) Write(address uint32, data []byte) error {
	w, ok := d.driver.(Writer)
	if !ok {
		return status.New(status.Unsupported, "device.Write", "family %q has no addressed write", d.desc.Family)
	}
	return w.Write(address, data)
}

// Dump returns the device's full memory or log contents, or returns
// status.Unsupported if the underlying driver has no single-pass dump
// capability.
func (d *Device) Dump() ([]byte, error) {
	dp, ok := d.driver.(Dumper)
	if !ok {
		return nil, status.New(status.Unsupported, "device.Dump", "family %q has no full dump", d.desc.Family)
	}
	return dp.Dump()
}

// Timesync reads the device clock if the underlying driver supports it,
// or returns status.Unsupported if it doesn't.
func (d *Device) Timesync() error {
	ts, ok := d.driver.(Timesyncer)
	if !ok {
		return status.New(status.Unsupported, "device.Timesync", "family %q has no clock", d.desc.Family)
	}
	return ts.Timesync()
}

// Close releases the driver. The caller must still close its own Stream.
func (d *Device) Close() error {
	return d.driver.Close()
}
