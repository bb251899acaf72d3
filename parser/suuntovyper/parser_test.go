// Copyright 2024 The libdc Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package suuntovyper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libdc-go/libdc/parser"
	"github.com/libdc-go/libdc/sample"
)

func buildRecord() []byte {
	header := []byte{0x24, 0x07, 0x15, 0x0A, 0x00, 0x78} // 2024-07-15 10:00, divetime 120s
	samples := []byte{
		0x01, 0xF4, 40, // depth 5.00m, temp 20.0C
		0x03, 0xE8, 38, // depth 10.00m, temp 19.0C
	}
	return append(header, samples...)
}

func TestGetDatetime(t *testing.T) {
	p, err := Open(nil, buildRecord(), 0)
	require.NoError(t, err)
	dt, err := p.GetDatetime()
	require.NoError(t, err)
	assert.Equal(t, "2024-07-15T10:00:00Z", dt.Format("2006-01-02T15:04:05Z"))
}

func TestGetFieldDivetime(t *testing.T) {
	p, err := Open(nil, buildRecord(), 0)
	require.NoError(t, err)
	f, err := p.GetField(parser.Divetime, 0)
	require.NoError(t, err)
	assert.Equal(t, 120, f.Seconds)
}

func TestGetFieldMaxAndAvgDepth(t *testing.T) {
	p, err := Open(nil, buildRecord(), 0)
	require.NoError(t, err)

	maxD, err := p.GetField(parser.MaxDepth, 0)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, maxD.Meters, 0.001)

	avgD, err := p.GetField(parser.AvgDepth, 0)
	require.NoError(t, err)
	assert.InDelta(t, 7.5, avgD.Meters, 0.001)
}

func TestSamplesForeachIntervalIsOneMinute(t *testing.T) {
	p, err := Open(nil, buildRecord(), 0)
	require.NoError(t, err)

	var times []int
	err = p.SamplesForeach(func(s sample.Sample) {
		if s.Kind == sample.Time {
			times = append(times, s.TimeMS)
		}
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 60000}, times)
}

func TestOpenRejectsShortRecord(t *testing.T) {
	_, err := Open(nil, []byte{0x24, 0x07}, 0)
	require.Error(t, err)
}

func TestOpenRejectsMisalignedSampleRegion(t *testing.T) {
	data := append(buildRecord(), 0x01)
	_, err := Open(nil, data, 0)
	require.Error(t, err)
}

func TestGetDatetimeRejectsInvalidBCD(t *testing.T) {
	data := buildRecord()
	data[1] = 0x99 // month 99, invalid
	p, err := Open(nil, data, 0)
	require.NoError(t, err)
	_, err = p.GetDatetime()
	require.Error(t, err)
}

func TestSamplesForeachDeterministicAcrossInstances(t *testing.T) {
	data := buildRecord()

	collect := func() []sample.Kind {
		p, err := Open(nil, data, 0)
		require.NoError(t, err)
		var kinds []sample.Kind
		require.NoError(t, p.SamplesForeach(func(s sample.Sample) { kinds = append(kinds, s.Kind) }))
		return kinds
	}

	assert.Equal(t, collect(), collect())
}
