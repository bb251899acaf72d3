// Copyright 2024 The libdc Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package iostream

import (
	"time"

	"github.com/google/gousb"

	"github.com/libdc-go/libdc/status"
)

// hidStream adapts a USB-HID interrupt IN/OUT endpoint pair to the Stream
// trait. Mares Puck-family dive computers that bridge their UART protocol
// through an HID report layer use this transport; the HID report framing
// (leading report-ID byte, fixed report size) is handled by the family
// driver, not here — this file only moves fixed-size reports.
type hidStream struct {
	unsupportedLineConfig

	ctx        *gousb.Context
	dev        *gousb.Device
	cfg        *gousb.Config
	intf       *gousb.Interface
	in         *gousb.InEndpoint
	out        *gousb.OutEndpoint
	reportSize int
	timeout    Timeout
	pending    []byte
}

// OpenUSBHID opens the HID interface on the first device matching vid/pid
// and binds its interrupt endpoints, each report fixed at reportSize
// bytes as HID requires.
func OpenUSBHID(vid, pid gousb.ID, iface, inEP, outEP, reportSize int) (Stream, error) {
	ctx := gousb.NewContext()
	dev, err := ctx.OpenDeviceWithVIDPID(vid, pid)
	if err != nil || dev == nil {
		ctx.Close()
		return nil, status.New(status.IO, "iostream.OpenUSBHID", "open %s:%s: %v", vid, pid, err)
	}
	_ = dev.SetAutoDetach(true)
	cfgNum, err := dev.ActiveConfigNum()
	if err != nil {
		dev.Close()
		ctx.Close()
		return nil, status.New(status.IO, "iostream.OpenUSBHID", "active config: %v", err)
	}
	cfg, err := dev.Config(cfgNum)
	if err != nil {
		dev.Close()
		ctx.Close()
		return nil, status.New(status.IO, "iostream.OpenUSBHID", "config: %v", err)
	}
	intf, err := cfg.Interface(iface, 0)
	if err != nil {
		cfg.Close()
		dev.Close()
		ctx.Close()
		return nil, status.New(status.IO, "iostream.OpenUSBHID", "interface: %v", err)
	}
	in, err := intf.InEndpoint(inEP)
	if err != nil {
		intf.Close()
		cfg.Close()
		dev.Close()
		ctx.Close()
		return nil, status.New(status.IO, "iostream.OpenUSBHID", "in endpoint: %v", err)
	}
	out, err := intf.OutEndpoint(outEP)
	if err != nil {
		intf.Close()
		cfg.Close()
		dev.Close()
		ctx.Close()
		return nil, status.New(status.IO, "iostream.OpenUSBHID", "out endpoint: %v", err)
	}
	return &hidStream{
		ctx: ctx, dev: dev, cfg: cfg, intf: intf, in: in, out: out,
		reportSize: reportSize, timeout: Blocking,
	}, nil
}

func (s *hidStream) SetTimeout(t Timeout) error {
	s.timeout = t
	return nil
}

func (s *hidStream) GetAvailable() (int, error) { return len(s.pending), nil }

// readReport fetches one full HID report into the pending buffer.
func (s *hidStream) readReport() error {
	report := make([]byte, s.reportSize)
	n, err := s.in.Read(report)
	if err != nil {
		return status.New(status.IO, "iostream.Read", "%v", err)
	}
	s.pending = append(s.pending, report[:n]...)
	return nil
}

func (s *hidStream) Read(buf []byte) (int, error) {
	for len(s.pending) < len(buf) {
		if err := s.readReport(); err != nil {
			return 0, err
		}
	}
	n := copy(buf, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

func (s *hidStream) Write(buf []byte) (int, error) {
	report := make([]byte, s.reportSize)
	copy(report, buf)
	n, err := s.out.Write(report)
	if err != nil {
		return n, status.New(status.IO, "iostream.Write", "%v", err)
	}
	if n > len(buf) {
		n = len(buf)
	}
	return n, nil
}

func (s *hidStream) Flush() error { return nil }

func (s *hidStream) Purge(input, output bool) error {
	if input {
		s.pending = nil
	}
	return nil
}

func (s *hidStream) Sleep(d time.Duration) error {
	time.Sleep(d)
	return nil
}

func (s *hidStream) Poll(timeout time.Duration) (bool, error) {
	if len(s.pending) > 0 {
		return true, nil
	}
	if err := s.readReport(); err != nil {
		return false, nil
	}
	return len(s.pending) > 0, nil
}

func (s *hidStream) Close() error {
	s.intf.Close()
	s.cfg.Close()
	s.dev.Close()
	s.ctx.Close()
	return nil
}
