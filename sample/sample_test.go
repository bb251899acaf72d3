// Copyright 2024 The libdc Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sample

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFuncReceivesTimeBeforeDepth(t *testing.T) {
	var seen []Kind
	fn := Func(func(s Sample) { seen = append(seen, s.Kind) })

	fn(Sample{Kind: Time, TimeMS: 1000})
	fn(Sample{Kind: Depth, DepthMeters: 12.3})

	assert.Equal(t, []Kind{Time, Depth}, seen)
}

func TestDecoValueNDLHasZeroDepth(t *testing.T) {
	d := DecoValue{Kind: NDL, Time: 99}
	assert.Equal(t, 0.0, d.Depth)
	assert.Equal(t, NDL, d.Kind)
}

func TestPressureValueCarriesTankIndex(t *testing.T) {
	p := PressureValue{TankIndex: 1, Bar: 189.5}
	s := Sample{Kind: Pressure, Pressure: p}
	assert.Equal(t, 1, s.Pressure.TankIndex)
	assert.InDelta(t, 189.5, s.Pressure.Bar, 0.0001)
}

func TestEventValueCarriesTimeAndFlags(t *testing.T) {
	e := EventValue{Kind: EventKind(3), Time: 4500, Flags: 0x01, Value: 18}
	s := Sample{Kind: Event, Event: e}
	assert.Equal(t, 4500, s.Event.Time)
	assert.Equal(t, uint32(0x01), s.Event.Flags)
	assert.Equal(t, uint32(18), s.Event.Value)
}
