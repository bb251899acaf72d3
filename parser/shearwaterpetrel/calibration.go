// Copyright 2024 The libdc Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package shearwaterpetrel

import (
	"github.com/libdc-go/libdc/array"
	"github.com/libdc-go/libdc/status"
)

const (
	// calibrationOffsetBase plus the variant byte at opening[3] locates the
	// record's sensor-calibration subrecord; this family stores its
	// layout variant in that byte rather than at a fixed address.
	calibrationOffsetBase = 86 + 1

	// defaultCalibrationWord is the factory-default calibration constant.
	// A record still carrying it, with every sensor reporting installed,
	// means the user never ran a real calibration: the guard treats the
	// reading as uncalibrated rather than trusting the default.
	defaultCalibrationWord = 2100

	sensor1Bit = 1 << 0
	sensor2Bit = 1 << 1
	sensor3Bit = 1 << 2
	allSensorsInstalled = sensor1Bit | sensor2Bit | sensor3Bit
)

// IsCalibrated reports whether this record's oxygen sensors carry a real
// user calibration, applying the default-calibration guard: all three
// sensor-installed bits set alongside the untouched factory calibration
// word means the device never saw a calibration cycle.
func (p *petrelParser) IsCalibrated() (bool, error) {
	offset := int(p.data[3]) + calibrationOffsetBase
	if offset+3 > len(p.data) {
		return false, status.New(status.DataFormat, "shearwaterpetrel.IsCalibrated", "calibration subrecord out of range at offset %d", offset)
	}
	sensorBits := p.data[offset]
	word := array.Uint16LE(p.data, offset+1)
	if sensorBits&allSensorsInstalled == allSensorsInstalled && word == defaultCalibrationWord {
		return false, nil
	}
	return true, nil
}
