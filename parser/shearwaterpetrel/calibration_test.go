// Copyright 2024 The libdc Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package shearwaterpetrel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildRecordWithCalibration(variant byte, sensorBits byte, word uint16) []byte {
	data := buildRecord()
	data[3] = variant
	offset := int(variant) + calibrationOffsetBase
	for len(data) < offset+3 {
		data = append(data, 0)
	}
	data[offset] = sensorBits
	data[offset+1] = byte(word)
	data[offset+2] = byte(word >> 8)
	return data
}

func TestIsCalibratedFalseWhenAllSensorsDefaultCalibration(t *testing.T) {
	data := buildRecordWithCalibration(0, allSensorsInstalled, defaultCalibrationWord)
	p, err := Open(nil, data, 0)
	require.NoError(t, err)
	calibrated, err := p.(*petrelParser).IsCalibrated()
	require.NoError(t, err)
	assert.False(t, calibrated)
}

func TestIsCalibratedTrueWhenWordDiffersFromDefault(t *testing.T) {
	data := buildRecordWithCalibration(0, allSensorsInstalled, 1500)
	p, err := Open(nil, data, 0)
	require.NoError(t, err)
	calibrated, err := p.(*petrelParser).IsCalibrated()
	require.NoError(t, err)
	assert.True(t, calibrated)
}

func TestIsCalibratedTrueWhenNotAllSensorsInstalled(t *testing.T) {
	data := buildRecordWithCalibration(0, sensor1Bit|sensor2Bit, defaultCalibrationWord)
	p, err := Open(nil, data, 0)
	require.NoError(t, err)
	calibrated, err := p.(*petrelParser).IsCalibrated()
	require.NoError(t, err)
	assert.True(t, calibrated)
}
