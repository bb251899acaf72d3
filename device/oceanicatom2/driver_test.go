// Copyright 2024 The libdc Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package oceanicatom2

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libdc-go/libdc/dcontext"
	"github.com/libdc-go/libdc/ioevent"
	"github.com/libdc-go/libdc/iostream/iostreamtest"
)

func buildPage1() []byte {
	page := make([]byte, 256)
	// This page covers device offsets [256,512). Local index = offset-256.
	page[248], page[249] = 0xFF, 0xFF // offsets 504,505: stop trailer
	page[250], page[251], page[252], page[253] = 0xAA, 0xBB, 0xCC, 0xDD
	page[254], page[255] = 0x06, 0x00 // offsets 510,511: record length trailer
	return page
}

func checksumOf(b []byte) byte {
	var c byte
	for _, v := range b {
		c += v
	}
	return c
}

func TestOpenAndForeachOneDive(t *testing.T) {
	versionReply := []byte{0x01, 0x78, 0x56, 0x34, 0x12, 0x02, 0x01}
	versionReply = append(versionReply, checksumOf(versionReply))

	pointerPageBytes := make([]byte, 256)
	pointerPageBytes[0], pointerPageBytes[1] = 0x00, 0x00 // begin page 0
	pointerPageBytes[2], pointerPageBytes[3] = 0x02, 0x00 // end page 2 -> end addr 512

	page1 := buildPage1()

	m := iostreamtest.New([]iostreamtest.Exchange{
		{Want: []byte{cmdVersion}, Give: append([]byte{ack}, versionReply...)},
		{Want: []byte{cmdReadPage, 0x00, 0x00}, Give: append(append([]byte{ack}, pointerPageBytes...), checksumOf(pointerPageBytes))},
		{Want: []byte{cmdReadPage, 0x01, 0x00}, Give: append(append([]byte{ack}, page1...), checksumOf(page1))},
	})

	var devInfo ioevent.DevInfoValue
	bus := &ioevent.Bus{}
	bus.Set(ioevent.DevInfo, func(ev ioevent.Event) { devInfo = ev.DevInfo })

	drv, err := Open(dcontext.New(), m, bus)
	require.NoError(t, err)
	require.NoError(t, m.Err())

	assert.Equal(t, uint32(0x01), devInfo.Model)
	assert.Equal(t, uint32(0x12345678), devInfo.Serial)
	assert.Equal(t, uint32(0x0102), devInfo.Firmware)

	var dives [][]byte
	var fps [][]byte
	err = drv.Foreach(func(data, fp []byte) bool {
		dives = append(dives, append([]byte(nil), data...))
		fps = append(fps, append([]byte(nil), fp...))
		return true
	})
	require.NoError(t, err)
	require.NoError(t, m.Err())

	require.Len(t, dives, 1)
	assert.Equal(t, []byte{0xAA, 0xBB, 0xCC, 0xDD}, dives[0])
	assert.Equal(t, []byte{0xAA, 0xBB, 0xCC, 0xDD}, fps[0])

	require.NoError(t, drv.SetFingerprint(fps[0]))
	require.NoError(t, drv.Close())
}

// TestForeachIsIdempotentOnceFingerprintMatches reproduces the same
// dive stream against a driver that already has last session's
// fingerprint installed: the already-seen dive must be skipped both the
// first and second time Foreach walks it, never re-delivered.
func TestForeachIsIdempotentOnceFingerprintMatches(t *testing.T) {
	versionReply := []byte{0x01, 0x78, 0x56, 0x34, 0x12, 0x02, 0x01}
	versionReply = append(versionReply, checksumOf(versionReply))

	pointerPageBytes := make([]byte, 256)
	pointerPageBytes[0], pointerPageBytes[1] = 0x00, 0x00
	pointerPageBytes[2], pointerPageBytes[3] = 0x02, 0x00

	page1 := buildPage1()
	knownFingerprint := []byte{0xAA, 0xBB, 0xCC, 0xDD}

	newDriver := func() *driver {
		m := iostreamtest.New([]iostreamtest.Exchange{
			{Want: []byte{cmdVersion}, Give: append([]byte{ack}, versionReply...)},
			{Want: []byte{cmdReadPage, 0x00, 0x00}, Give: append(append([]byte{ack}, pointerPageBytes...), checksumOf(pointerPageBytes))},
			{Want: []byte{cmdReadPage, 0x01, 0x00}, Give: append(append([]byte{ack}, page1...), checksumOf(page1))},
		})
		drv, err := Open(dcontext.New(), m, &ioevent.Bus{})
		require.NoError(t, err)
		return drv.(*driver)
	}

	for i := 0; i < 2; i++ {
		drv := newDriver()
		require.NoError(t, drv.SetFingerprint(knownFingerprint))
		var dives [][]byte
		err := drv.Foreach(func(data, fp []byte) bool {
			dives = append(dives, append([]byte(nil), data...))
			return true
		})
		require.NoError(t, err)
		assert.Empty(t, dives, "iteration %d", i)
	}
}

// TestForeachStopsWhenCancelled mirrors how a caller aborts a long
// Foreach walk mid-flight: SetCancel installs a predicate that flips
// true after the first dive, and the next protocol boundary must return
// status.Cancelled instead of fetching another page.
func TestForeachStopsWhenCancelled(t *testing.T) {
	versionReply := []byte{0x01, 0x78, 0x56, 0x34, 0x12, 0x02, 0x01}
	versionReply = append(versionReply, checksumOf(versionReply))

	pointerPageBytes := make([]byte, 256)
	pointerPageBytes[0], pointerPageBytes[1] = 0x00, 0x00
	pointerPageBytes[2], pointerPageBytes[3] = 0x02, 0x00

	page1 := buildPage1()

	m := iostreamtest.New([]iostreamtest.Exchange{
		{Want: []byte{cmdVersion}, Give: append([]byte{ack}, versionReply...)},
		{Want: []byte{cmdReadPage, 0x00, 0x00}, Give: append(append([]byte{ack}, pointerPageBytes...), checksumOf(pointerPageBytes))},
		{Want: []byte{cmdReadPage, 0x01, 0x00}, Give: append(append([]byte{ack}, page1...), checksumOf(page1))},
	})

	drv, err := Open(dcontext.New(), m, &ioevent.Bus{})
	require.NoError(t, err)

	cancelled := false
	require.NoError(t, drv.SetCancel(func() bool { return cancelled }))

	var got [][]byte
	err = drv.Foreach(func(data, fp []byte) bool {
		got = append(got, data)
		cancelled = true
		return true
	})
	require.Error(t, err)
	require.Len(t, got, 1, "the dive already fetched before cancellation must still be delivered")
}

// TestReadWriteDumpRoundTrip exercises device.Reader/Writer/Dumper
// backed by the same paged transfer Foreach uses.
func TestReadWriteDumpRoundTrip(t *testing.T) {
	page := make([]byte, 256)
	for i := range page {
		page[i] = byte(i)
	}

	m := iostreamtest.New([]iostreamtest.Exchange{
		{Want: []byte{cmdReadPage, 0x03, 0x00}, Give: append(append([]byte{ack}, page...), checksumOf(page))},
	})
	drv := &driver{stream: m, bus: &ioevent.Bus{}}

	got, err := drv.Read(3*pageSize, pageSize)
	require.NoError(t, err)
	assert.Equal(t, page, got)
	require.NoError(t, m.Err())

	_, err = drv.Read(1, pageSize)
	assert.Error(t, err, "unaligned address must be rejected")

	writePayload := make([]byte, pageSize)
	for i := range writePayload {
		writePayload[i] = byte(0xFF - i)
	}
	wantCmd := append([]byte{cmdWritePage, 0x05, 0x00}, writePayload...)
	wantCmd = append(wantCmd, checksumOf(writePayload))
	mw := iostreamtest.New([]iostreamtest.Exchange{
		{Want: wantCmd, Give: []byte{ack}},
	})
	drvW := &driver{stream: mw, bus: &ioevent.Bus{}}
	require.NoError(t, drvW.Write(5*pageSize, writePayload))
	require.NoError(t, mw.Err())

	var dumpScript []iostreamtest.Exchange
	for p := 0; p < memorySize/pageSize; p++ {
		dumpScript = append(dumpScript, iostreamtest.Exchange{
			Want: []byte{cmdReadPage, byte(p), byte(p >> 8)},
			Give: append(append([]byte{ack}, page...), checksumOf(page)),
		})
	}
	md := iostreamtest.New(dumpScript)
	drvD := &driver{stream: md, bus: &ioevent.Bus{}}
	dump, err := drvD.Dump()
	require.NoError(t, err)
	assert.Len(t, dump, memorySize)
	assert.Equal(t, page, dump[:pageSize])
	require.NoError(t, md.Err())
}
