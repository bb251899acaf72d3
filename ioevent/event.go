// Copyright 2024 The libdc Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package ioevent defines the event bus that device drivers use to report
// progress, device identity, clock offsets and vendor-specific diagnostics
// to a host application while a blocking operation such as foreach is in
// flight. Progress/devinfo/clock are inherently multi-valued per
// operation, so they are modeled as an installable callback rather than a
// return value; the single terminal outcome of an operation stays a
// status.Status.
package ioevent

// Kind identifies which field of Event is populated.
type Kind int

const (
	Waiting Kind = 1 << iota
	Progress
	DevInfo
	Clock
	Vendor
)

// Mask is a bitwise-or of Kind values used to subscribe to a subset of the
// event stream.
type Mask = Kind

// All subscribes to every event kind.
const All Mask = Waiting | Progress | DevInfo | Clock | Vendor

// ProgressValue reports current/maximum progress toward a bounded
// operation such as foreach or dump. Maximum may shrink as the driver
// refines its estimate (e.g. a fingerprint short-circuit reduces the
// number of dives left to fetch) but never after it has reached the final
// total, and Current never decreases.
type ProgressValue struct {
	Current, Maximum uint32
}

// DevInfoValue is the device identity read during Open.
type DevInfoValue struct {
	Model    uint32
	Firmware uint32
	Serial   uint32
}

// ClockValue pairs the host's and device's notion of "now" in device tick
// units, used by timesync-capable families to compute clock drift.
type ClockValue struct {
	SystemTicks uint64
	DeviceTicks uint64
}

// Event is a tagged union over the five event kinds. Only the field named
// by Kind is populated.
type Event struct {
	Kind     Kind
	Progress ProgressValue
	DevInfo  DevInfoValue
	Clock    ClockValue
	Vendor   []byte
}

// Func receives events that pass a subscriber's Mask.
type Func func(Event)

// Bus filters events from a driver through an installed Func and Mask. The
// zero value is a valid, inert bus (no callback installed).
type Bus struct {
	mask Mask
	fn   Func

	lastDevInfo DevInfoValue
	lastClock   ClockValue
	haveDevInfo bool
	haveClock   bool
}

// Set installs fn to receive events matching mask. Passing a nil fn
// disables event delivery.
func (b *Bus) Set(mask Mask, fn Func) {
	b.mask = mask
	b.fn = fn
}

// Emit delivers ev to the installed callback if its Kind passes the mask.
// DevInfo and Clock are cached on the bus regardless of whether a callback
// is installed, since device.Device exposes the last-known value.
func (b *Bus) Emit(ev Event) {
	switch ev.Kind {
	case DevInfo:
		b.lastDevInfo = ev.DevInfo
		b.haveDevInfo = true
	case Clock:
		b.lastClock = ev.Clock
		b.haveClock = true
	}
	if b.fn == nil || b.mask&ev.Kind == 0 {
		return
	}
	b.fn(ev)
}

// LastDevInfo returns the most recently emitted DevInfo, if any.
func (b *Bus) LastDevInfo() (DevInfoValue, bool) {
	return b.lastDevInfo, b.haveDevInfo
}

// LastClock returns the most recently emitted Clock, if any.
func (b *Bus) LastClock() (ClockValue, bool) {
	return b.lastClock, b.haveClock
}
