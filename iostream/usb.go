// Copyright 2024 The libdc Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package iostream

import (
	"context"
	"time"

	"github.com/google/gousb"

	"github.com/libdc-go/libdc/status"
)

// usbStream adapts a pair of bulk endpoints to the Stream capability
// trait, used by families that speak their protocol directly over USB
// bulk transfers rather than through a USB-to-serial bridge (Suunto EON
// Steel/Core).
type usbStream struct {
	unsupportedLineConfig

	ctx     *gousb.Context
	dev     *gousb.Device
	cfg     *gousb.Config
	intf    *gousb.Interface
	in      *gousb.InEndpoint
	out     *gousb.OutEndpoint
	timeout Timeout
	pending []byte
}

// OpenUSB claims the given interface/alternate setting on the first device
// matching vid/pid and binds inEP/outEP as the bulk data pipes.
func OpenUSB(vid, pid gousb.ID, iface, alt, inEP, outEP int) (Stream, error) {
	ctx := gousb.NewContext()
	dev, err := ctx.OpenDeviceWithVIDPID(vid, pid)
	if err != nil || dev == nil {
		ctx.Close()
		return nil, status.New(status.IO, "iostream.OpenUSB", "open %s:%s: %v", vid, pid, err)
	}
	if err := dev.SetAutoDetach(true); err != nil {
		// Not fatal: some platforms don't need or support kernel driver
		// detach.
		_ = err
	}
	cfgNum, err := dev.ActiveConfigNum()
	if err != nil {
		dev.Close()
		ctx.Close()
		return nil, status.New(status.IO, "iostream.OpenUSB", "active config: %v", err)
	}
	cfg, err := dev.Config(cfgNum)
	if err != nil {
		dev.Close()
		ctx.Close()
		return nil, status.New(status.IO, "iostream.OpenUSB", "config: %v", err)
	}
	intf, err := cfg.Interface(iface, alt)
	if err != nil {
		cfg.Close()
		dev.Close()
		ctx.Close()
		return nil, status.New(status.IO, "iostream.OpenUSB", "interface: %v", err)
	}
	in, err := intf.InEndpoint(inEP)
	if err != nil {
		intf.Close()
		cfg.Close()
		dev.Close()
		ctx.Close()
		return nil, status.New(status.IO, "iostream.OpenUSB", "in endpoint: %v", err)
	}
	out, err := intf.OutEndpoint(outEP)
	if err != nil {
		intf.Close()
		cfg.Close()
		dev.Close()
		ctx.Close()
		return nil, status.New(status.IO, "iostream.OpenUSB", "out endpoint: %v", err)
	}
	return &usbStream{ctx: ctx, dev: dev, cfg: cfg, intf: intf, in: in, out: out, timeout: Blocking}, nil
}

func (s *usbStream) SetTimeout(t Timeout) error {
	s.timeout = t
	return nil
}

func (s *usbStream) GetAvailable() (int, error) { return 0, nil }

func (s *usbStream) Read(buf []byte) (int, error) {
	n := 0
	if len(s.pending) > 0 {
		n = copy(buf, s.pending)
		s.pending = s.pending[n:]
		if n == len(buf) {
			return n, nil
		}
	}
	ctx, cancel := context.WithCancel(context.Background())
	if s.timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), time.Duration(s.timeout))
	}
	defer cancel()
	got, err := s.in.ReadContext(ctx, buf[n:])
	n += got
	if err != nil {
		if ctx.Err() != nil {
			return n, status.New(status.Timeout, "iostream.Read", "got %d of %d bytes", n, len(buf))
		}
		return n, status.New(status.IO, "iostream.Read", "%v", err)
	}
	return n, nil
}

func (s *usbStream) Write(buf []byte) (int, error) {
	n, err := s.out.Write(buf)
	if err != nil {
		return n, status.New(status.IO, "iostream.Write", "%v", err)
	}
	return n, nil
}

func (s *usbStream) Flush() error { return nil }

func (s *usbStream) Purge(input, output bool) error { return nil }

func (s *usbStream) Sleep(d time.Duration) error {
	time.Sleep(d)
	return nil
}

func (s *usbStream) Poll(timeout time.Duration) (bool, error) {
	if len(s.pending) > 0 {
		return true, nil
	}
	buf := make([]byte, 1)
	prev := s.timeout
	s.SetTimeout(Timeout(timeout))
	defer s.SetTimeout(prev)
	n, err := s.Read(buf)
	if n > 0 {
		s.pending = append(s.pending, buf[:n]...)
	}
	if status.Is(err, status.Timeout) {
		return false, nil
	}
	return n > 0, err
}

func (s *usbStream) Close() error {
	s.intf.Close()
	s.cfg.Close()
	s.dev.Close()
	s.ctx.Close()
	return nil
}
