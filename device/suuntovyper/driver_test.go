// Copyright 2024 The libdc Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package suuntovyper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libdc-go/libdc/array"
	"github.com/libdc-go/libdc/dcontext"
	"github.com/libdc-go/libdc/ioevent"
	"github.com/libdc-go/libdc/iostream/iostreamtest"
)

func TestForeachOneDiveThenTerminator(t *testing.T) {
	table := make([]byte, maxDiveSlots*2)
	table[0], table[1] = 0x01, 0x00 // dive 0 at address 0x0100

	header := []byte{0x00, 0x08} // total record length 8 (2-byte length + 6 data)
	data := []byte{0x20, 0x24, 0x01, 0x0F, 0xAA, 0xBB}

	m := iostreamtest.New([]iostreamtest.Exchange{
		{
			Want: []byte{cmdReadMemory, 0x00, 0x00, 0x00, 0x80},
			Give: append(append([]byte(nil), table...), array.XORChecksum8(append(append([]byte{cmdReadMemory, 0x00, 0x00, 0x00, 0x80}), table...))),
		},
		{
			Want: []byte{cmdReadMemory, 0x01, 0x00, 0x00, 0x02},
			Give: append(append([]byte(nil), header...), array.XORChecksum8(append(append([]byte{cmdReadMemory, 0x01, 0x00, 0x00, 0x02}), header...))),
		},
		{
			Want: []byte{cmdReadMemory, 0x01, 0x02, 0x00, 0x06},
			Give: append(append([]byte(nil), data...), array.XORChecksum8(append(append([]byte{cmdReadMemory, 0x01, 0x02, 0x00, 0x06}), data...))),
		},
	})

	drv, err := Open(dcontext.New(), m, nil)
	require.NoError(t, err)

	var got [][]byte
	err = drv.Foreach(func(d, fp []byte) bool {
		got = append(got, append([]byte(nil), d...))
		return true
	})
	require.NoError(t, err)
	require.NoError(t, m.Err())

	require.Len(t, got, 1)
	assert.Equal(t, data, got[0])
	require.NoError(t, drv.Close())
}

func TestSetFingerprintStopsWalk(t *testing.T) {
	table := make([]byte, maxDiveSlots*2)
	table[0], table[1] = 0x01, 0x00

	header := []byte{0x00, 0x08}
	data := []byte{0x20, 0x24, 0x01, 0x0F, 0xAA, 0xBB}

	m := iostreamtest.New([]iostreamtest.Exchange{
		{
			Want: []byte{cmdReadMemory, 0x00, 0x00, 0x00, 0x80},
			Give: append(append([]byte(nil), table...), array.XORChecksum8(append(append([]byte{cmdReadMemory, 0x00, 0x00, 0x00, 0x80}), table...))),
		},
		{
			Want: []byte{cmdReadMemory, 0x01, 0x00, 0x00, 0x02},
			Give: append(append([]byte(nil), header...), array.XORChecksum8(append(append([]byte{cmdReadMemory, 0x01, 0x00, 0x00, 0x02}), header...))),
		},
		{
			Want: []byte{cmdReadMemory, 0x01, 0x02, 0x00, 0x06},
			Give: append(append([]byte(nil), data...), array.XORChecksum8(append(append([]byte{cmdReadMemory, 0x01, 0x02, 0x00, 0x06}), data...))),
		},
	})

	drv, err := Open(dcontext.New(), m, nil)
	require.NoError(t, err)
	require.NoError(t, drv.SetFingerprint(data[:4]))

	var got [][]byte
	err = drv.Foreach(func(d, fp []byte) bool {
		got = append(got, d)
		return true
	})
	require.NoError(t, err)
	assert.Empty(t, got)
}

// TestForeachProgressNeverExceedsMaximum reproduces testable property 6:
// Current must never exceed Maximum, including the very first emission
// before any dive is fetched.
func TestForeachProgressNeverExceedsMaximum(t *testing.T) {
	table := make([]byte, maxDiveSlots*2)
	table[0], table[1] = 0x01, 0x00

	header := []byte{0x00, 0x08}
	data := []byte{0x20, 0x24, 0x01, 0x0F, 0xAA, 0xBB}

	m := iostreamtest.New([]iostreamtest.Exchange{
		{
			Want: []byte{cmdReadMemory, 0x00, 0x00, 0x00, 0x80},
			Give: append(append([]byte(nil), table...), array.XORChecksum8(append(append([]byte{cmdReadMemory, 0x00, 0x00, 0x00, 0x80}), table...))),
		},
		{
			Want: []byte{cmdReadMemory, 0x01, 0x00, 0x00, 0x02},
			Give: append(append([]byte(nil), header...), array.XORChecksum8(append(append([]byte{cmdReadMemory, 0x01, 0x00, 0x00, 0x02}), header...))),
		},
		{
			Want: []byte{cmdReadMemory, 0x01, 0x02, 0x00, 0x06},
			Give: append(append([]byte(nil), data...), array.XORChecksum8(append(append([]byte{cmdReadMemory, 0x01, 0x02, 0x00, 0x06}), data...))),
		},
	})

	var bus ioevent.Bus
	var events []ioevent.ProgressValue
	bus.Set(ioevent.Progress, func(ev ioevent.Event) { events = append(events, ev.Progress) })

	drv, err := Open(dcontext.New(), m, &bus)
	require.NoError(t, err)
	err = drv.Foreach(func(d, fp []byte) bool { return true })
	require.NoError(t, err)
	require.NoError(t, m.Err())

	require.Len(t, events, 2)
	assert.Equal(t, ioevent.ProgressValue{Current: 0, Maximum: 1}, events[0])
	assert.Equal(t, ioevent.ProgressValue{Current: 1, Maximum: 1}, events[1])
	for _, ev := range events {
		assert.LessOrEqual(t, ev.Current, ev.Maximum)
	}
}

// TestForeachStopsWhenCancelled mirrors oceanicatom2's cancellation
// contract for this family's indexed walk.
func TestForeachStopsWhenCancelled(t *testing.T) {
	table := make([]byte, maxDiveSlots*2)
	table[0], table[1] = 0x01, 0x00
	table[2], table[3] = 0x02, 0x00

	header := []byte{0x00, 0x08}
	data := []byte{0x20, 0x24, 0x01, 0x0F, 0xAA, 0xBB}

	m := iostreamtest.New([]iostreamtest.Exchange{
		{
			Want: []byte{cmdReadMemory, 0x00, 0x00, 0x00, 0x80},
			Give: append(append([]byte(nil), table...), array.XORChecksum8(append(append([]byte{cmdReadMemory, 0x00, 0x00, 0x00, 0x80}), table...))),
		},
		{
			Want: []byte{cmdReadMemory, 0x01, 0x00, 0x00, 0x02},
			Give: append(append([]byte(nil), header...), array.XORChecksum8(append(append([]byte{cmdReadMemory, 0x01, 0x00, 0x00, 0x02}), header...))),
		},
		{
			Want: []byte{cmdReadMemory, 0x01, 0x02, 0x00, 0x06},
			Give: append(append([]byte(nil), data...), array.XORChecksum8(append(append([]byte{cmdReadMemory, 0x01, 0x02, 0x00, 0x06}), data...))),
		},
	})

	drv, err := Open(dcontext.New(), m, nil)
	require.NoError(t, err)

	cancelled := false
	require.NoError(t, drv.SetCancel(func() bool { return cancelled }))

	var got [][]byte
	err = drv.Foreach(func(d, fp []byte) bool {
		got = append(got, d)
		cancelled = true
		return true
	})
	require.Error(t, err)
	require.Len(t, got, 1)
}

// TestReadWrite exercises device.Reader/Writer over the family's
// addressed memory command pair.
func TestReadWrite(t *testing.T) {
	payload := []byte{0x01, 0x02, 0x03, 0x04}
	readCmd := []byte{cmdReadMemory, 0x01, 0x00, 0x00, 0x04}
	m := iostreamtest.New([]iostreamtest.Exchange{
		{Want: readCmd, Give: append(append([]byte(nil), payload...), array.XORChecksum8(append(append([]byte(nil), readCmd...), payload...)))},
	})
	drv := &driver{stream: m}
	got, err := drv.Read(0x0100, 4)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
	require.NoError(t, m.Err())

	writeHeader := []byte{cmdWriteMemory, 0x01, 0x00, 0x00, 0x04}
	writeCmd := append(append([]byte(nil), writeHeader...), payload...)
	writeCmd = append(writeCmd, array.XORChecksum8(writeCmd))
	mw := iostreamtest.New([]iostreamtest.Exchange{
		{Want: writeCmd, Give: []byte{ack}},
	})
	drvW := &driver{stream: mw}
	require.NoError(t, drvW.Write(0x0100, payload))
	require.NoError(t, mw.Err())

	_, err = drv.Read(0x10000, 1)
	assert.Error(t, err)
	err = drv.Write(0x10000, payload)
	assert.Error(t, err)
}
