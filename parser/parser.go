// Copyright 2024 The libdc Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package parser implements the family-neutral parser vtable: binding a
// borrowed dive record to family-specific decoding logic that answers
// datetime/field queries and replays the dive's sample stream. A Parser
// never takes ownership of its input bytes and is cheap enough to
// construct per-dive; family packages cache their first expensive walk
// behind a once-flag rather than re-deriving it per query, mirroring the
// C implementation's dirty/cached-flag idiom.
package parser

import (
	"time"

	"github.com/libdc-go/libdc/sample"
)

// FieldKind identifies a scalar or indexed fact a family parser may be
// able to answer about a dive, independent of the family's own record
// layout. Not every family supports every kind; GetField returns
// status.Unsupported for one it doesn't.
type FieldKind int

const (
	Divetime FieldKind = iota
	MaxDepth
	AvgDepth
	MinTemp
	AtmPressure
	GasmixCount
	Gasmix
	TankCount
	Tank
	Salinity
	Divemode
)

// GasMix is one breathing gas's oxygen/helium fraction, the rest assumed
// nitrogen. Fractions are in [0,1].
type GasMix struct {
	O2, He float64
}

// TankInfo is one tank's gas assignment and pressure bracket for a dive
// that logged tank pressure telemetry.
type TankInfo struct {
	GasMixIndex      int
	BeginBar, EndBar float64
}

// Field is the tagged result of a GetField call; only the member named by
// Kind is meaningful.
type Field struct {
	Kind FieldKind

	Seconds int     // Divetime
	Meters  float64 // MaxDepth, AvgDepth
	Celsius float64 // MinTemp
	Bar     float64 // AtmPressure
	Percent float64 // Salinity
	Count   int     // GasmixCount, TankCount
	GasMix  GasMix  // Gasmix(index)
	Tank    TankInfo
	Mode    int // Divemode
}

// Parser is the vtable every family package implements. A Parser is bound
// to one borrowed dive record for its whole lifetime.
type Parser interface {
	// GetDatetime returns the dive's start time in UTC.
	GetDatetime() (time.Time, error)

	// GetField answers a family-specific fact about the dive. index
	// selects among multiple instances for indexed kinds (Gasmix, Tank);
	// it is ignored for scalar kinds.
	GetField(kind FieldKind, index int) (Field, error)

	// SamplesForeach walks the dive's sample stream in chronological
	// order, invoking fn for each sample. Calling it twice on the same
	// Parser produces identical callbacks. fn may be nil, in which case
	// the walk still runs (populating any lazily-built cache, such as the
	// gas-mix table) but delivers no callbacks.
	SamplesForeach(fn sample.Func) error
}
