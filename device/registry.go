// Copyright 2024 The libdc Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package device

import (
	"sync"

	"github.com/libdc-go/libdc/descriptor"
)

var (
	mu       sync.Mutex
	registry = map[descriptor.Family]Constructor{}
)

// Register installs ctor as the Constructor for family, overwriting any
// previous registration. Called from family package init() functions,
// mirroring descriptor.Register's self-registration pattern.
func Register(family descriptor.Family, ctor Constructor) {
	mu.Lock()
	defer mu.Unlock()
	registry[family] = ctor
}

func lookup(family descriptor.Family) (Constructor, bool) {
	mu.Lock()
	defer mu.Unlock()
	ctor, ok := registry[family]
	return ctor, ok
}

// Supported reports whether family has a registered driver Constructor,
// letting a caller filter descriptor.All() down to devices this build can
// actually open.
func Supported(family descriptor.Family) bool {
	_, ok := lookup(family)
	return ok
}
