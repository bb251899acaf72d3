// Copyright 2024 The libdc Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libdc-go/libdc/dcontext"
	"github.com/libdc-go/libdc/descriptor"
	"github.com/libdc-go/libdc/ioevent"
	"github.com/libdc-go/libdc/iostream"
	"github.com/libdc-go/libdc/iostream/iostreamtest"
	"github.com/libdc-go/libdc/status"
)

type fakeDriver struct {
	fp     []byte
	cancel CancelFunc
	closed bool
}

func (f *fakeDriver) SetFingerprint(fp []byte) error { f.fp = fp; return nil }
func (f *fakeDriver) SetCancel(cb CancelFunc) error  { f.cancel = cb; return nil }
func (f *fakeDriver) Foreach(fn DiveFunc) error {
	fn([]byte("dive1"), []byte("fp1"))
	return nil
}
func (f *fakeDriver) Close() error { f.closed = true; return nil }

const testFamily descriptor.Family = "test_fake_family"

func TestRegisterAndOpen(t *testing.T) {
	var opened *fakeDriver
	Register(testFamily, func(ctx *dcontext.Context, stream iostream.Stream, bus *ioevent.Bus) (Driver, error) {
		opened = &fakeDriver{}
		return opened, nil
	})

	dev, err := Open(descriptor.Descriptor{Family: testFamily}, iostreamtest.New(nil), dcontext.New())
	require.NoError(t, err)
	require.NotNil(t, opened)

	var dives []string
	err = dev.Foreach(func(data, fp []byte) bool {
		dives = append(dives, string(data))
		return true
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"dive1"}, dives)

	require.NoError(t, dev.SetFingerprint([]byte("fp1")))
	assert.Equal(t, []byte("fp1"), opened.fp)

	require.NoError(t, dev.Close())
	assert.True(t, opened.closed)
}

func TestOpenUnsupportedFamily(t *testing.T) {
	_, err := Open(descriptor.Descriptor{Family: "no_such_family"}, iostreamtest.New(nil), dcontext.New())
	require.Error(t, err)
	assert.Equal(t, status.Unsupported, status.Of(err))
}

func TestTimesyncUnsupportedByDefault(t *testing.T) {
	Register(testFamily, func(ctx *dcontext.Context, stream iostream.Stream, bus *ioevent.Bus) (Driver, error) {
		return &fakeDriver{}, nil
	})
	dev, err := Open(descriptor.Descriptor{Family: testFamily}, iostreamtest.New(nil), dcontext.New())
	require.NoError(t, err)
	assert.Equal(t, status.Unsupported, status.Of(dev.Timesync()))
}

func TestRawMemoryUnsupportedByDefault(t *testing.T) {
	var opened *fakeDriver
	Register(testFamily, func(ctx *dcontext.Context, stream iostream.Stream, bus *ioevent.Bus) (Driver, error) {
		opened = &fakeDriver{}
		return opened, nil
	})
	dev, err := Open(descriptor.Descriptor{Family: testFamily}, iostreamtest.New(nil), dcontext.New())
	require.NoError(t, err)

	_, err = dev.Read(0, 1)
	assert.Equal(t, status.Unsupported, status.Of(err))
	assert.Equal(t, status.Unsupported, status.Of(dev.Write(0, nil)))
	_, err = dev.Dump()
	assert.Equal(t, status.Unsupported, status.Of(err))
}

func TestSetCancelPassesThroughToDriver(t *testing.T) {
	var opened *fakeDriver
	Register(testFamily, func(ctx *dcontext.Context, stream iostream.Stream, bus *ioevent.Bus) (Driver, error) {
		opened = &fakeDriver{}
		return opened, nil
	})
	dev, err := Open(descriptor.Descriptor{Family: testFamily}, iostreamtest.New(nil), dcontext.New())
	require.NoError(t, err)

	cb := func() bool { return true }
	require.NoError(t, dev.SetCancel(cb))
	require.NotNil(t, opened.cancel)
	assert.True(t, opened.cancel())
}
