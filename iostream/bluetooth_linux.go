// Copyright 2024 The libdc Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

//go:build linux

package iostream

import (
	"time"

	"golang.org/x/sys/unix"

	"github.com/libdc-go/libdc/status"
)

// rfcommStream wraps a Linux AF_BLUETOOTH/BTPROTO_RFCOMM socket. It serves
// descriptors registered with the iostream.Bluetooth transport (classic
// serial port profile), such as Shearwater Predator and the Petrel/Perdix
// models.
type rfcommStream struct {
	unsupportedLineConfig

	fd      int
	timeout Timeout
}

// OpenRFCOMM connects to the given Bluetooth device address on channel.
func OpenRFCOMM(addr [6]byte, channel uint8) (Stream, error) {
	fd, err := unix.Socket(unix.AF_BLUETOOTH, unix.SOCK_STREAM, unix.BTPROTO_RFCOMM)
	if err != nil {
		return nil, status.New(status.IO, "iostream.OpenRFCOMM", "socket: %v", err)
	}
	sa := &unix.SockaddrRFCOMM{Addr: addr, Channel: channel}
	if err := unix.Connect(fd, sa); err != nil {
		unix.Close(fd)
		return nil, status.New(status.IO, "iostream.OpenRFCOMM", "connect: %v", err)
	}
	return &rfcommStream{fd: fd, timeout: Blocking}, nil
}

func (s *rfcommStream) SetTimeout(t Timeout) error {
	s.timeout = t
	var tv unix.Timeval
	if t > 0 {
		tv = unix.NsecToTimeval(int64(t))
	}
	// A zero Timeval clears SO_RCVTIMEO, giving the Immediate/Blocking
	// distinction to the read loop below instead of the kernel.
	return unix.SetsockoptTimeval(s.fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv)
}

func (s *rfcommStream) GetAvailable() (int, error) {
	n, err := unix.IoctlGetInt(s.fd, unix.FIONREAD)
	if err != nil {
		return 0, status.New(status.IO, "iostream.GetAvailable", "%v", err)
	}
	return n, nil
}

func (s *rfcommStream) Read(buf []byte) (int, error) {
	if s.timeout == Immediate {
		avail, _ := s.GetAvailable()
		if avail == 0 {
			return 0, nil
		}
	}
	n, err := unix.Read(s.fd, buf)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return 0, status.New(status.Timeout, "iostream.Read", "no data within timeout")
		}
		return n, status.New(status.IO, "iostream.Read", "%v", err)
	}
	if n < len(buf) && s.timeout > 0 {
		return n, status.New(status.Timeout, "iostream.Read", "got %d of %d bytes", n, len(buf))
	}
	return n, nil
}

func (s *rfcommStream) Write(buf []byte) (int, error) {
	n, err := unix.Write(s.fd, buf)
	if err != nil {
		return n, status.New(status.IO, "iostream.Write", "%v", err)
	}
	return n, nil
}

func (s *rfcommStream) Flush() error { return nil }

func (s *rfcommStream) Purge(input, output bool) error {
	// RFCOMM sockets have no user-facing purge ioctl; best effort drain.
	if input {
		buf := make([]byte, 256)
		prevTimeout := s.timeout
		s.SetTimeout(Immediate)
		defer s.SetTimeout(prevTimeout)
		for {
			n, _ := s.Read(buf)
			if n == 0 {
				break
			}
		}
	}
	return nil
}

func (s *rfcommStream) Sleep(d time.Duration) error {
	time.Sleep(d)
	return nil
}

func (s *rfcommStream) Poll(timeout time.Duration) (bool, error) {
	fds := []unix.PollFd{{Fd: int32(s.fd), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, int(timeout/time.Millisecond))
	if err != nil {
		return false, status.New(status.IO, "iostream.Poll", "%v", err)
	}
	return n > 0, nil
}

func (s *rfcommStream) Close() error {
	if err := unix.Close(s.fd); err != nil {
		return status.New(status.IO, "iostream.Close", "%v", err)
	}
	return nil
}
