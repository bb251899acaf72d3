// Copyright 2024 The libdc Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package maresiconhd implements parser.Parser for the Mares Icon HD
// family's dive record: an 8-byte big-endian header (a Unix-seconds
// clock, a divetime in seconds, and a single tank's begin/end pressure
// in half-bar units) followed by a fixed-interval run of 3-byte samples
// (big-endian centimeter depth plus a signed half-degree temperature).
// Grounded on the big-endian field layout already exercised by this
// family's device driver (device/maresiconhd).
package maresiconhd

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
	headerSize  = 8
	sampleSize  = 3
	intervalSec = 20
)

func init() {
	parser.Register(descriptor.FamilyMaresIconHD, Open)
}

type iconhdParser struct {
	data  []byte
	model uint32

	parsed   bool
	maxDepth float64
	avgDepth float64

	gasMixes *parser.GasMixTable
}

// Open implements parser.Constructor for the Mares Icon HD family.
func Open(ctx *dcontext.Context, data []byte, model uint32) (parser.Parser, error) {
	if len(data) < headerSize {
		return nil, status.New(status.DataFormat, "maresiconhd.Open", "record too short: %d bytes", len(data))
	}
	if (len(data)-headerSize)%sampleSize != 0 {
		return nil, status.New(status.DataFormat, "maresiconhd.Open", "sample region not a multiple of %d", sampleSize)
	}
	return &iconhdParser{data: data, model: model}, nil
}

func (p *iconhdParser) GetDatetime() (time.Time, error) {
	ticks := array.Uint32BE(p.data, 0)
	return time.Unix(int64(ticks), 0).UTC(), nil
}

func (p *iconhdParser) GetField(kind parser.FieldKind, index int) (parser.Field, error) {
	switch kind {
	case parser.Divetime:
		return parser.Field{Kind: parser.Divetime, Seconds: int(array.Uint16BE(p.data, 4))}, nil
	case parser.MaxDepth:
		if err := p.ensureParsed(); err != nil {
			return parser.Field{}, err
		}
		return parser.Field{Kind: parser.MaxDepth, Meters: p.maxDepth}, nil
	case parser.AvgDepth:
		if err := p.ensureParsed(); err != nil {
			return parser.Field{}, err
		}
		return parser.Field{Kind: parser.AvgDepth, Meters: p.avgDepth}, nil
	case parser.GasmixCount:
		return parser.Field{Kind: parser.GasmixCount, Count: 1}, nil
	case parser.Gasmix:
		idx, err := p.gasMixIndex()
		if err != nil {
			return parser.Field{}, err
		}
		if index != idx {
			return parser.Field{}, status.New(status.InvalidArgs, "maresiconhd.GetField", "gasmix index %d out of range", index)
		}
		mix, _ := p.gasMixes.At(idx)
		return parser.Field{Kind: parser.Gasmix, GasMix: mix}, nil
	case parser.TankCount:
		return parser.Field{Kind: parser.TankCount, Count: 1}, nil
	case parser.Tank:
		if index != 0 {
			return parser.Field{}, status.New(status.InvalidArgs, "maresiconhd.GetField", "tank index %d out of range", index)
		}
		return parser.Field{Kind: parser.Tank, Tank: parser.TankInfo{
			GasMixIndex: 0,
			BeginBar:    float64(p.data[6]) / 2.0,
			EndBar:      float64(p.data[7]) / 2.0,
		}}, nil
	default:
		return parser.Field{}, status.New(status.Unsupported, "maresiconhd.GetField", "kind %d", kind)
	}
}

func (p *iconhdParser) ensureParsed() error {
	if p.parsed {
		return nil
	}
	var max, sum float64
	count := 0
	err := p.walk(func(_ int, depthM, _ float64) {
		if depthM > max {
			max = depthM
		}
		sum += depthM
		count++
	})
	if err != nil {
		return err
	}
	p.maxDepth = max
	if count > 0 {
		p.avgDepth = sum / float64(count)
	}
	p.parsed = true
	return nil
}

// gasMixIndex returns the table index of the family's single fixed air
// mix, building the table on first use so GetField(Gasmix) and
// SamplesForeach's initial emission read through the same table instead
// of each hard-coding the value separately.
func (p *iconhdParser) gasMixIndex() (int, error) {
	if p.gasMixes == nil {
		p.gasMixes = parser.NewGasMixTable(1)
	}
	return p.gasMixes.Index(parser.GasMix{O2: 0.21})
}

func (p *iconhdParser) SamplesForeach(fn sample.Func) error {
	idx, err := p.gasMixIndex()
	if err != nil {
		return err
	}
	if fn == nil {
		return p.walk(func(int, float64, float64) {})
	}
	fn(sample.Sample{Kind: sample.GasMix, GasMixIndex: idx})
	return p.walk(func(t int, depthM, tempC float64) {
		fn(sample.Sample{Kind: sample.Time, TimeMS: t * 1000})
		fn(sample.Sample{Kind: sample.Depth, DepthMeters: depthM})
		fn(sample.Sample{Kind: sample.Temperature, TempCelsius: tempC})
	})
}

func (p *iconhdParser) walk(emit func(timeSec int, depthM, tempC float64)) error {
	samples := p.data[headerSize:]
	for i := 0; i*sampleSize < len(samples); i++ {
		rec := samples[i*sampleSize : i*sampleSize+sampleSize]
		depthM := float64(array.Uint16BE(rec, 0)) / 100.0
		tempC := float64(int8(rec[2])) / 2.0
		emit(i*intervalSec, depthM, tempC)
	}
	return nil
}
