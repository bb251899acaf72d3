// Copyright 2024 The libdc Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package iostream defines the capability trait every physical transport
// implements — serial, Bluetooth RFCOMM, Bluetooth LE GATT, IrDA,
// USB-HID, raw USB bulk — so that device drivers never depend on a
// concrete transport type. A stub implementation for a platform that
// doesn't support a given transport returns status.Unsupported, keeping
// the driver layer unchanged across build targets.
package iostream

import (
	"time"

	"github.com/libdc-go/libdc/status"
)

// Transport identifies the physical byte carrier a Descriptor admits.
// It is a bitmask so a single descriptor can list several.
type Transport uint32

const (
	Serial Transport = 1 << iota
	USB
	USBHID
	Bluetooth
	BLE
	IrDA
)

func (t Transport) String() string {
	names := map[Transport]string{
		Serial:    "serial",
		USB:       "usb",
		USBHID:    "usbhid",
		Bluetooth: "bluetooth",
		BLE:       "ble",
		IrDA:      "irda",
	}
	if n, ok := names[t]; ok {
		return n
	}
	return "transport(unknown)"
}

// Parity selects the serial parity bit scheme.
type Parity int

const (
	ParityNone Parity = iota
	ParityOdd
	ParityEven
	ParityMark
	ParitySpace
)

// StopBits selects the number of serial stop bits.
type StopBits int

const (
	StopBits1 StopBits = iota
	StopBits15
	StopBits2
)

// FlowControl selects the serial handshake scheme.
type FlowControl int

const (
	FlowNone FlowControl = iota
	FlowHardware
	FlowXonXoff
)

// LineConfig groups the parameters of Stream.Configure.
type LineConfig struct {
	BaudRate int
	DataBits int
	Parity   Parity
	StopBits StopBits
	Flow     FlowControl
}

// Timeout encodes Stream.SetTimeout's three-mode read deadline as a signed
// millisecond count: negative blocks indefinitely, zero returns
// immediately with whatever is buffered, positive returns when either the
// request is satisfied or the deadline elapses, whichever comes first —
// in which case Read returns status.Timeout along with the partial count.
type Timeout time.Duration

// Blocking waits forever for a read to be satisfied.
const Blocking Timeout = -1

// Immediate returns whatever is already buffered without waiting.
const Immediate Timeout = 0

// Lines reports the state of a serial control-line/modem-status register
// as returned by GetLines.
type Lines struct {
	DCD, CTS, DSR, RING bool
}

// Stream is the capability set every transport implements. Device drivers
// are written entirely against this interface; they never import a
// concrete transport package.
type Stream interface {
	// Configure sets the line parameters. Non-serial transports that have
	// no notion of baud rate etc. treat this as a no-op and return
	// status.Success, mirroring how a USB bulk pipe has nothing to
	// configure but shouldn't force every driver to special-case it.
	Configure(cfg LineConfig) error

	// SetTimeout installs the read deadline used by subsequent Read calls.
	SetTimeout(t Timeout) error

	// SetBreak asserts or clears a serial break condition.
	SetBreak(on bool) error
	// SetDTR drives the DTR line, used by families that power the device
	// handshake circuit from the serial adapter.
	SetDTR(on bool) error
	// SetRTS drives the RTS line.
	SetRTS(on bool) error
	// GetLines reads the current modem status lines.
	GetLines() (Lines, error)

	// GetAvailable returns the number of bytes currently buffered and
	// ready to read without blocking.
	GetAvailable() (int, error)

	// Read fills buf according to the installed Timeout and returns the
	// number of bytes actually read. A partial read before the deadline
	// returns status.Timeout together with n > 0.
	Read(buf []byte) (n int, err error)
	// Write sends buf in full or returns status.IO.
	Write(buf []byte) (n int, err error)

	// Flush waits for all written bytes to be transmitted.
	Flush() error
	// Purge discards buffered input, output, or both.
	Purge(input, output bool) error

	// Sleep blocks the calling goroutine for d; it exists on the
	// interface (rather than callers using time.Sleep directly) so a test
	// double can make device timing deterministic.
	Sleep(d time.Duration) error

	// Poll waits up to timeout for input to become available, returning
	// true if any arrived before the deadline.
	Poll(timeout time.Duration) (bool, error)

	// Ioctl issues a transport-specific control request; most transports
	// return status.Unsupported.
	Ioctl(request int, data []byte) error

	Close() error
}

// unsupportedLineConfig is embeddable by transports with no line
// parameters (BLE, USB-HID, raw USB, IrDA) so they only have to implement
// the methods that are meaningful for them.
type unsupportedLineConfig struct{}

func (unsupportedLineConfig) Configure(LineConfig) error { return nil }
func (unsupportedLineConfig) SetBreak(bool) error        { return status.New(status.Unsupported, "iostream", "break") }
func (unsupportedLineConfig) SetDTR(bool) error          { return status.New(status.Unsupported, "iostream", "dtr") }
func (unsupportedLineConfig) SetRTS(bool) error          { return status.New(status.Unsupported, "iostream", "rts") }
func (unsupportedLineConfig) GetLines() (Lines, error) {
	return Lines{}, status.New(status.Unsupported, "iostream", "lines")
}
func (unsupportedLineConfig) Ioctl(int, []byte) error {
	return status.New(status.Unsupported, "iostream", "ioctl")
}
