// Copyright 2024 The libdc Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package iostream

import "github.com/libdc-go/libdc/status"

// OpenIrDA would open an IrDA socket for the handful of early-2000s
// families (e.g. some Uwatec Aladin) that predate Bluetooth. IrDA stacks
// have been removed from every mainstream OS kernel this library targets,
// so this is a stub that always reports status.Unsupported, matching
// §9's transport-selection guidance: keep it an interface implementation
// rather than a conditional compile, so the driver layer above is
// unchanged if a platform someday provides one.
func OpenIrDA(deviceName string) (Stream, error) {
	return nil, status.New(status.Unsupported, "iostream.OpenIrDA", "no IrDA stack available on this platform")
}
