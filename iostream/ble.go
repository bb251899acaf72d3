// Copyright 2024 The libdc Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package iostream

import (
	"time"

	"tinygo.org/x/bluetooth"

	"github.com/libdc-go/libdc/status"
)

// bleStream adapts a pair of GATT characteristics (one notify/read, one
// write) to the Stream capability trait. Shearwater Petrel/Perdix-family
// devices speak their framed protocol over BLE instead of RFCOMM; the
// framing itself lives entirely in the device package, this file only
// moves bytes.
type bleStream struct {
	unsupportedLineConfig

	device  bluetooth.Device
	writeCh bluetooth.DeviceCharacteristic
	notify  bluetooth.DeviceCharacteristic

	incoming chan []byte
	timeout  Timeout
}

// BLECharacteristics identifies the GATT service and the write and notify
// characteristics a family's BLE framing runs over.
type BLECharacteristics struct {
	Service bluetooth.UUID
	Write   bluetooth.UUID
	Notify  bluetooth.UUID
}

// OpenBLE connects to addr and binds the family's write/notify
// characteristics, subscribing to notifications so Read can pull from an
// internal channel instead of polling the adapter.
func OpenBLE(adapter *bluetooth.Adapter, addr bluetooth.Address, chars BLECharacteristics) (Stream, error) {
	dev, err := adapter.Connect(addr, bluetooth.ConnectionParams{})
	if err != nil {
		return nil, status.New(status.IO, "iostream.OpenBLE", "%v", err)
	}
	services, err := dev.DiscoverServices([]bluetooth.UUID{chars.Service})
	if err != nil || len(services) == 0 {
		return nil, status.New(status.IO, "iostream.OpenBLE", "service discovery: %v", err)
	}
	characteristics, err := services[0].DiscoverCharacteristics([]bluetooth.UUID{chars.Write, chars.Notify})
	if err != nil || len(characteristics) < 2 {
		return nil, status.New(status.IO, "iostream.OpenBLE", "characteristic discovery: %v", err)
	}
	s := &bleStream{device: dev, timeout: Blocking, incoming: make(chan []byte, 32)}
	for _, c := range characteristics {
		if c.UUID() == chars.Write {
			s.writeCh = c
		}
		if c.UUID() == chars.Notify {
			s.notify = c
		}
	}
	if err := s.notify.EnableNotifications(func(buf []byte) {
		cp := append([]byte(nil), buf...)
		select {
		case s.incoming <- cp:
		default:
			// Drop on a full queue rather than block the adapter's
			// notification callback.
		}
	}); err != nil {
		return nil, status.New(status.IO, "iostream.OpenBLE", "enable notify: %v", err)
	}
	return s, nil
}

func (s *bleStream) SetTimeout(t Timeout) error {
	s.timeout = t
	return nil
}

func (s *bleStream) GetAvailable() (int, error) {
	return len(s.incoming), nil
}

func (s *bleStream) Read(buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		if s.timeout == Immediate && len(s.incoming) == 0 {
			return n, nil
		}
		var timer *time.Timer
		var deadline <-chan time.Time
		if s.timeout > 0 {
			timer = time.NewTimer(time.Duration(s.timeout))
			deadline = timer.C
		}
		select {
		case chunk := <-s.incoming:
			if timer != nil {
				timer.Stop()
			}
			got := copy(buf[n:], chunk)
			n += got
			if got < len(chunk) {
				// Push the remainder back for the next Read.
				s.incoming <- chunk[got:]
			}
		case <-deadline:
			return n, status.New(status.Timeout, "iostream.Read", "got %d of %d bytes", n, len(buf))
		}
	}
	return n, nil
}

func (s *bleStream) Write(buf []byte) (int, error) {
	n, err := s.writeCh.WriteWithoutResponse(buf)
	if err != nil {
		return n, status.New(status.IO, "iostream.Write", "%v", err)
	}
	return n, nil
}

func (s *bleStream) Flush() error { return nil }

func (s *bleStream) Purge(input, output bool) error {
	if input {
		for len(s.incoming) > 0 {
			<-s.incoming
		}
	}
	return nil
}

func (s *bleStream) Sleep(d time.Duration) error {
	time.Sleep(d)
	return nil
}

func (s *bleStream) Poll(timeout time.Duration) (bool, error) {
	select {
	case chunk := <-s.incoming:
		s.incoming <- chunk
		return true, nil
	case <-time.After(timeout):
		return false, nil
	}
}

func (s *bleStream) Close() error {
	if err := s.device.Disconnect(); err != nil {
		return status.New(status.IO, "iostream.Close", "%v", err)
	}
	return nil
}
