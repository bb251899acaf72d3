// Copyright 2024 The libdc Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package iostream

import (
	"time"

	"go.bug.st/serial"

	"github.com/libdc-go/libdc/status"
)

// serialStream adapts go.bug.st/serial.Port to the Stream capability
// trait. This is the transport used by the Oceanic, Suunto, Mares and HW
// OSTC families, all of which talk a framed command protocol over a plain
// RS-232-style UART, usually through a USB-to-serial adapter.
type serialStream struct {
	port    serial.Port
	timeout Timeout
	pending []byte // one byte consumed by Poll and pushed back for Read
}

// OpenSerial opens the named serial port (e.g. "/dev/ttyUSB0", "COM3")
// with sane defaults; callers then call Configure with the family's
// required baud rate before the handshake.
func OpenSerial(name string) (Stream, error) {
	port, err := serial.Open(name, &serial.Mode{BaudRate: 9600})
	if err != nil {
		return nil, status.New(status.IO, "iostream.OpenSerial", "%v", err)
	}
	return &serialStream{port: port, timeout: Blocking}, nil
}

func (s *serialStream) Configure(cfg LineConfig) error {
	mode := &serial.Mode{BaudRate: cfg.BaudRate}
	switch cfg.DataBits {
	case 7:
		mode.DataBits = 7
	default:
		mode.DataBits = 8
	}
	switch cfg.Parity {
	case ParityOdd:
		mode.Parity = serial.OddParity
	case ParityEven:
		mode.Parity = serial.EvenParity
	case ParityMark:
		mode.Parity = serial.MarkParity
	case ParitySpace:
		mode.Parity = serial.SpaceParity
	default:
		mode.Parity = serial.NoParity
	}
	switch cfg.StopBits {
	case StopBits15:
		mode.StopBits = serial.OnePointFiveStopBits
	case StopBits2:
		mode.StopBits = serial.TwoStopBits
	default:
		mode.StopBits = serial.OneStopBit
	}
	if err := s.port.SetMode(mode); err != nil {
		return status.New(status.IO, "iostream.Configure", "%v", err)
	}
	if cfg.Flow == FlowHardware {
		// go.bug.st/serial exposes hardware flow control through RTS/DTR
		// toggling rather than a mode flag; families needing it drive
		// SetRTS directly during the handshake.
		return nil
	}
	return nil
}

func (s *serialStream) SetTimeout(t Timeout) error {
	s.timeout = t
	if t < 0 {
		return s.port.SetReadTimeout(serial.NoTimeout)
	}
	return s.port.SetReadTimeout(time.Duration(t))
}

func (s *serialStream) SetBreak(on bool) error {
	if on {
		return s.port.Break(100 * time.Millisecond)
	}
	return nil
}

func (s *serialStream) SetDTR(on bool) error {
	if err := s.port.SetDTR(on); err != nil {
		return status.New(status.IO, "iostream.SetDTR", "%v", err)
	}
	return nil
}

func (s *serialStream) SetRTS(on bool) error {
	if err := s.port.SetRTS(on); err != nil {
		return status.New(status.IO, "iostream.SetRTS", "%v", err)
	}
	return nil
}

func (s *serialStream) GetLines() (Lines, error) {
	bits, err := s.port.GetModemStatusBits()
	if err != nil {
		return Lines{}, status.New(status.IO, "iostream.GetLines", "%v", err)
	}
	return Lines{DCD: bits.DCD, CTS: bits.CTS, DSR: bits.DSR, RING: bits.RI}, nil
}

func (s *serialStream) GetAvailable() (int, error) {
	// go.bug.st/serial has no portable "bytes buffered" query; the ring
	// buffer stream reader always issues sized reads and relies on the
	// timeout semantics instead, so this is acceptable to approximate.
	return 0, nil
}

func (s *serialStream) Read(buf []byte) (int, error) {
	n := 0
	if len(s.pending) > 0 {
		n = copy(buf, s.pending)
		s.pending = s.pending[n:]
		if n == len(buf) {
			return n, nil
		}
	}
	got, err := s.port.Read(buf[n:])
	n += got
	if err != nil {
		return n, status.New(status.IO, "iostream.Read", "%v", err)
	}
	if n < len(buf) && s.timeout > 0 {
		return n, status.New(status.Timeout, "iostream.Read", "got %d of %d bytes", n, len(buf))
	}
	return n, nil
}

func (s *serialStream) Write(buf []byte) (int, error) {
	n, err := s.port.Write(buf)
	if err != nil {
		return n, status.New(status.IO, "iostream.Write", "%v", err)
	}
	return n, nil
}

func (s *serialStream) Flush() error {
	if err := s.port.Drain(); err != nil {
		return status.New(status.IO, "iostream.Flush", "%v", err)
	}
	return nil
}

func (s *serialStream) Purge(input, output bool) error {
	var dir serial.ResetDirection
	switch {
	case input && output:
		dir = serial.ResetInputOutputBuffers
	case input:
		dir = serial.ResetInputBuffer
	case output:
		dir = serial.ResetOutputBuffer
	default:
		return nil
	}
	if err := s.port.ResetBuffers(dir); err != nil {
		return status.New(status.IO, "iostream.Purge", "%v", err)
	}
	return nil
}

func (s *serialStream) Sleep(d time.Duration) error {
	time.Sleep(d)
	return nil
}

func (s *serialStream) Poll(timeout time.Duration) (bool, error) {
	if len(s.pending) > 0 {
		return true, nil
	}
	prev := s.timeout
	_ = s.SetTimeout(Timeout(timeout))
	defer s.SetTimeout(prev)
	var b [1]byte
	n, err := s.port.Read(b[:])
	if n > 0 {
		s.pending = append(s.pending, b[:n]...)
	}
	if err != nil {
		return n > 0, nil
	}
	return n > 0, nil
}

func (s *serialStream) Ioctl(int, []byte) error {
	return status.New(status.Unsupported, "iostream.Ioctl", "serial")
}

func (s *serialStream) Close() error {
	if err := s.port.Close(); err != nil {
		return status.New(status.IO, "iostream.Close", "%v", err)
	}
	return nil
}
