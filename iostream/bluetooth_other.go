// Copyright 2024 The libdc Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

//go:build !linux

package iostream

import "github.com/libdc-go/libdc/status"

// OpenRFCOMM is only implemented on Linux, where AF_BLUETOOTH sockets are
// available. Other platforms return status.Unsupported so the driver
// layer above doesn't need build tags of its own.
func OpenRFCOMM(addr [6]byte, channel uint8) (Stream, error) {
	return nil, status.New(status.Unsupported, "iostream.OpenRFCOMM", "not available on this platform")
}
