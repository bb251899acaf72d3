// Copyright 2024 The libdc Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package shearwaterpetrel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libdc-go/libdc/dcontext"
	"github.com/libdc-go/libdc/iostream/iostreamtest"
)

func TestForeachFetchesEachManifestEntry(t *testing.T) {
	manifestBody := []byte{
		0x00, 0x00, 0x00, 0x10, 0xAA, 0xAA, 0xAA, 0xAA,
		0x00, 0x00, 0x00, 0x20, 0xBB, 0xBB, 0xBB, 0xBB,
	}
	m := iostreamtest.New([]iostreamtest.Exchange{
		{Want: []byte{cmdManifest}, Give: append([]byte{0x00, 0x02}, manifestBody...)},
		{Want: []byte{cmdFetch, 0x00, 0x00, 0x00, 0x10}, Give: append([]byte{0, 0, 0, 3}, 0x01, 0x02, 0x03)},
		{Want: []byte{cmdFetch, 0x00, 0x00, 0x00, 0x20}, Give: append([]byte{0, 0, 0, 2}, 0x09, 0x08)},
	})

	drv, err := Open(dcontext.New(), m, nil)
	require.NoError(t, err)

	var got [][]byte
	var fps [][]byte
	err = drv.Foreach(func(d, fp []byte) bool {
		got = append(got, append([]byte(nil), d...))
		fps = append(fps, append([]byte(nil), fp...))
		return true
	})
	require.NoError(t, err)
	require.NoError(t, m.Err())

	require.Len(t, got, 2)
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, got[0])
	assert.Equal(t, []byte{0x09, 0x08}, got[1])
	assert.Equal(t, []byte{0xAA, 0xAA, 0xAA, 0xAA}, fps[0])
}

func TestSetFingerprintStopsAtMatch(t *testing.T) {
	manifestBody := []byte{
		0x00, 0x00, 0x00, 0x10, 0xAA, 0xAA, 0xAA, 0xAA,
		0x00, 0x00, 0x00, 0x20, 0xBB, 0xBB, 0xBB, 0xBB,
	}
	m := iostreamtest.New([]iostreamtest.Exchange{
		{Want: []byte{cmdManifest}, Give: append([]byte{0x00, 0x02}, manifestBody...)},
	})

	drv, err := Open(dcontext.New(), m, nil)
	require.NoError(t, err)
	require.NoError(t, drv.SetFingerprint([]byte{0xAA, 0xAA, 0xAA, 0xAA}))

	var got [][]byte
	err = drv.Foreach(func(d, fp []byte) bool {
		got = append(got, d)
		return true
	})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestForeachStopsWhenCancelled(t *testing.T) {
	manifestBody := []byte{
		0x00, 0x00, 0x00, 0x10, 0xAA, 0xAA, 0xAA, 0xAA,
		0x00, 0x00, 0x00, 0x20, 0xBB, 0xBB, 0xBB, 0xBB,
	}
	m := iostreamtest.New([]iostreamtest.Exchange{
		{Want: []byte{cmdManifest}, Give: append([]byte{0x00, 0x02}, manifestBody...)},
		{Want: []byte{cmdFetch, 0x00, 0x00, 0x00, 0x10}, Give: append([]byte{0, 0, 0, 3}, 0x01, 0x02, 0x03)},
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
