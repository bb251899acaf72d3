// Copyright 2024 The libdc Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package sample defines the normalized, tagged sample value every family
// parser emits through Parser.SamplesForeach, and the DecoKind/EventKind
// sub-enumerations it carries.
package sample

// Kind identifies which field of Sample is populated.
type Kind int

const (
	Time Kind = iota
	Depth
	Temperature
	Pressure
	GasMix
	SetPoint
	PPO2
	CNS
	RBT
	Deco
	Event
	Vendor
)

// DecoKind distinguishes the four deco-sample flavors a family may emit.
type DecoKind int

const (
	NDL DecoKind = iota
	Stop
	Deep
	Safety
)

// EventKind is a family-specific event code; the parser framework does
// not interpret it beyond passing it through, since event vocabularies
// differ per family (see the per-family parser's own constants).
type EventKind int

// PressureValue pairs a tank index with its cylinder pressure reading.
type PressureValue struct {
	TankIndex int
	Bar       float64
}

// DecoValue is one deco-obligation sample.
type DecoValue struct {
	Kind  DecoKind
	Depth float64 // meters; 0 for NDL
	Time  int     // minutes
}

// EventValue is one vendor/family event marker.
type EventValue struct {
	Kind  EventKind
	Time  int // milliseconds since dive start
	Flags uint32
	Value uint32
}

// Sample is a tagged union over every sample kind a family parser can
// emit. Only the field named by Kind is meaningful.
type Sample struct {
	Kind Kind

	TimeMS      int
	DepthMeters float64
	TempCelsius float64
	Pressure    PressureValue
	GasMixIndex int
	SetPointBar float64
	PPO2Bar     float64
	CNSFraction float64
	RBTMinutes  int
	Deco        DecoValue
	Event       EventValue
	Vendor      []byte
}

// Func receives one sample at a time, in the order samples occur in the
// dive. It never receives a Depth sample without a preceding Time sample
// for the same instant.
type Func func(Sample)
