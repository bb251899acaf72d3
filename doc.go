// Copyright 2024 The libdc Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package libdc is a cross-vendor library for extracting dive logs from
// recreational and technical dive computers.
//
// A computer is reached over one of several opaque byte-stream
// transports (serial, Bluetooth RFCOMM, Bluetooth LE GATT, IrDA,
// USB-HID, raw USB bulk) implemented by the iostream package. A
// descriptor.Descriptor identifies which vendor family a discovered
// transport endpoint belongs to; device.Open resolves that family to a
// registered driver, which speaks the family's wire protocol to carve
// raw dive records out of the computer's on-device ring buffer.
// parser.CreateFor then decodes a raw record into normalized samples —
// time, depth, temperature, gas mix, deco status, tank pressure, and
// discrete events — through the family-neutral parser.Parser interface.
//
// Applications only import descriptor, device, parser and iostream
// directly; the device/* and parser/* family subpackages register
// themselves through a blank import, in the style of Go's database/sql
// drivers.
package libdc
