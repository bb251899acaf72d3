// Copyright 2024 The libdc Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package reefnetsensus implements parser.Parser for Reefnet Sensus
// Pro/Ultra dive records: an 8-byte header (4 reserved bytes, then a
// 4-byte big-endian interval count marking the dive's start relative to
// the device's own clock) followed by one depth byte per sample
// interval. The profile's true end is the first run of
// depthSurfaceRunLength consecutive near-zero depth samples (the device
// keeps logging briefly after surfacing); trailing bytes past that run
// are dive-to-dive padding, not samples, and must not be emitted.
package reefnetsensus

import (
	"time"

	"github.com/libdc-go/libdc/array"
	"github.com/libdc-go/libdc/dcontext"
	"github.com/libdc-go/libdc/descriptor"
	"github.com/libdc-go/libdc/parser"
	"github.com/libdc-go/libdc/sample"
	"github.com/libdc-go/libdc/status"
)

const (
	headerSize = 8
	// fingerprintOffset/fingerprintSize select the interval-count field
	// that doubles as this family's fingerprint.
	fingerprintOffset = 4
	fingerprintSize   = 4

	intervalSeconds = 1
	depthScale      = 0.3 // meters per raw depth unit

	// depthSurfaceThreshold and depthSurfaceRunLength together define
	// "surfaced": depthSurfaceRunLength consecutive samples at or below
	// depthSurfaceThreshold raw units end the logged profile.
	depthSurfaceThreshold = 16
	depthSurfaceRunLength = 17
)

func init() {
	parser.Register(descriptor.FamilyReefnetSensus, Open)
}

type sensusParser struct {
	data  []byte
	model uint32

	parsed   bool
	profile  []byte // the samples slice, truncated at the surface run
	maxDepth float64
}

// Open implements parser.Constructor for the Reefnet Sensus family.
func Open(ctx *dcontext.Context, data []byte, model uint32) (parser.Parser, error) {
	if len(data) < headerSize {
		return nil, status.New(status.DataFormat, "reefnetsensus.Open", "record too short: %d bytes", len(data))
	}
	return &sensusParser{data: data, model: model}, nil
}

func (p *sensusParser) GetDatetime() (time.Time, error) {
	interval := array.Uint32BE(p.data, fingerprintOffset)
	return time.Unix(int64(interval)*intervalSeconds, 0).UTC(), nil
}

func (p *sensusParser) GetField(kind parser.FieldKind, index int) (parser.Field, error) {
	switch kind {
	case parser.Divetime:
		if err := p.ensureParsed(); err != nil {
			return parser.Field{}, err
		}
		return parser.Field{Kind: parser.Divetime, Seconds: len(p.profile) * intervalSeconds}, nil
	case parser.MaxDepth:
		if err := p.ensureParsed(); err != nil {
			return parser.Field{}, err
		}
		return parser.Field{Kind: parser.MaxDepth, Meters: p.maxDepth}, nil
	default:
		return parser.Field{}, status.New(status.Unsupported, "reefnetsensus.GetField", "kind %d", kind)
	}
}

func (p *sensusParser) ensureParsed() error {
	if p.parsed {
		return nil
	}
	raw := p.data[headerSize:]
	run := 0
	cut := len(raw)
	for i, b := range raw {
		if b <= depthSurfaceThreshold {
			run++
			if run == depthSurfaceRunLength {
				cut = i + 1 - depthSurfaceRunLength
				break
			}
		} else {
			run = 0
		}
	}
	p.profile = raw[:cut]
	var max float64
	for _, b := range p.profile {
		d := float64(b) * depthScale
		if d > max {
			max = d
		}
	}
	p.maxDepth = max
	p.parsed = true
	return nil
}

// Fingerprint returns the interval-count field directly. The
// device/reefnetsensus driver does not compare this value in Foreach; it
// uses a one-byte XOR checksum of the dive instead.
func (p *sensusParser) Fingerprint() []byte {
	return append([]byte(nil), p.data[fingerprintOffset:fingerprintOffset+fingerprintSize]...)
}

func (p *sensusParser) SamplesForeach(fn sample.Func) error {
	if err := p.ensureParsed(); err != nil {
		return err
	}
	for i, b := range p.profile {
		if fn == nil {
			continue
		}
		t := i * intervalSeconds
		fn(sample.Sample{Kind: sample.Time, TimeMS: t * 1000})
		fn(sample.Sample{Kind: sample.Depth, DepthMeters: float64(b) * depthScale})
	}
	return nil
}
