// Copyright 2024 The libdc Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package iostreamtest provides an in-memory iostream.Stream double driven
// by a scripted exchange, used by device and parser family tests to
// exercise a wire protocol without real hardware.
package iostreamtest

import (
	"time"

	"github.com/libdc-go/libdc/iostream"
	"github.com/libdc-go/libdc/status"
)

// Exchange is one request/response pair: when the driver writes Want, the
// mock returns Give on the next Read (split across as many Read calls as
// the caller makes).
type Exchange struct {
	Want []byte
	Give []byte
}

// Mock is an iostream.Stream whose Read/Write are driven by a scripted
// list of Exchanges, in order. It fails the test (via a recorded error)
// if a Write doesn't match the next expected Want.
type Mock struct {
	exchanges []Exchange
	step      int
	inbuf     []byte
	cfg       iostream.LineConfig
	timeout   iostream.Timeout
	err       error
}

// New returns a Mock that will replay exchanges in order.
func New(exchanges []Exchange) *Mock {
	return &Mock{exchanges: exchanges}
}

var _ iostream.Stream = (*Mock)(nil)

// Err returns the first protocol mismatch the mock observed, if any.
func (m *Mock) Err() error { return m.err }

func (m *Mock) Configure(cfg iostream.LineConfig) error { m.cfg = cfg; return nil }
func (m *Mock) SetTimeout(t iostream.Timeout) error     { m.timeout = t; return nil }
func (m *Mock) SetBreak(bool) error                     { return nil }
func (m *Mock) SetDTR(bool) error                       { return nil }
func (m *Mock) SetRTS(bool) error                       { return nil }
func (m *Mock) GetLines() (iostream.Lines, error)       { return iostream.Lines{}, nil }
func (m *Mock) GetAvailable() (int, error)              { return len(m.inbuf), nil }
func (m *Mock) Flush() error                            { return nil }
func (m *Mock) Purge(bool, bool) error                  { return nil }
func (m *Mock) Sleep(time.Duration) error               { return nil }
func (m *Mock) Poll(time.Duration) (bool, error)        { return len(m.inbuf) > 0, nil }
func (m *Mock) Ioctl(int, []byte) error                 { return status.New(status.Unsupported, "mock", "ioctl") }
func (m *Mock) Close() error                            { return nil }

func (m *Mock) Write(p []byte) (int, error) {
	if m.step >= len(m.exchanges) {
		m.err = status.New(status.Protocol, "mock.Write", "unexpected write %x, script exhausted", p)
		return 0, m.err
	}
	want := m.exchanges[m.step].Want
	if string(want) != string(p) {
		m.err = status.New(status.Protocol, "mock.Write", "write %x, want %x", p, want)
		return 0, m.err
	}
	m.inbuf = append(m.inbuf, m.exchanges[m.step].Give...)
	m.step++
	return len(p), nil
}

func (m *Mock) Read(buf []byte) (int, error) {
	if len(m.inbuf) == 0 {
		return 0, status.New(status.Timeout, "mock.Read", "no data queued")
	}
	n := copy(buf, m.inbuf)
	m.inbuf = m.inbuf[n:]
	if n < len(buf) {
		return n, status.New(status.Timeout, "mock.Read", "got %d of %d", n, len(buf))
	}
	return n, nil
}
