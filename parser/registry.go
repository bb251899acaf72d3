// Copyright 2024 The libdc Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package parser

import (
	"sync"

	"github.com/libdc-go/libdc/dcontext"
	"github.com/libdc-go/libdc/descriptor"
	"github.com/libdc-go/libdc/status"
)

// Constructor builds a Parser bound to data, a borrowed dive record; data
// must outlive the returned Parser. model lets a family distinguish
// per-model quirks (e.g. a units byte that only some models carry).
type Constructor func(ctx *dcontext.Context, data []byte, model uint32) (Parser, error)

var (
	mu       sync.Mutex
	registry = map[descriptor.Family]Constructor{}
)

// Register installs ctor as the Constructor for family. Called from
// family package init() functions.
func Register(family descriptor.Family, ctor Constructor) {
	mu.Lock()
	defer mu.Unlock()
	registry[family] = ctor
}

// CreateFor resolves family to its registered Constructor and binds data.
func CreateFor(family descriptor.Family, ctx *dcontext.Context, data []byte, model uint32) (Parser, error) {
	mu.Lock()
	ctor, ok := registry[family]
	mu.Unlock()
	if !ok {
		return nil, status.New(status.Unsupported, "parser.CreateFor", "no parser registered for family %q", family)
	}
	return ctor(ctx, data, model)
}

// Supported reports whether family has a registered parser Constructor.
func Supported(family descriptor.Family) bool {
	mu.Lock()
	defer mu.Unlock()
	_, ok := registry[family]
	return ok
}
