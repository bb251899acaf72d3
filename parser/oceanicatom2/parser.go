// Copyright 2024 The libdc Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package oceanicatom2 implements parser.Parser for the Oceanic Atom2
// family's dive record: a 6-byte header (a little-endian Unix-seconds
// dive start, then a little-endian divetime in seconds) followed by
// fixed-size sample records. The family logs a single fixed air mix, so
// GasmixCount/Gasmix are constant rather than discovered from the stream.
package oceanicatom2

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
	headerSize = 6
	sampleSize = 4
)

func init() {
	parser.Register(descriptor.FamilyOceanicAtom2, Open)
}

type atom2Parser struct {
	data  []byte
	model uint32

	parsed   bool
	maxDepth float64
	avgDepth float64

	gasMixes *parser.GasMixTable
}

// Open implements parser.Constructor for the Oceanic Atom2 family.
func Open(ctx *dcontext.Context, data []byte, model uint32) (parser.Parser, error) {
	if len(data) < headerSize {
		return nil, status.New(status.DataFormat, "oceanicatom2.Open", "record too short: %d bytes", len(data))
	}
	if (len(data)-headerSize)%sampleSize != 0 {
		return nil, status.New(status.DataFormat, "oceanicatom2.Open", "sample region not a multiple of %d", sampleSize)
	}
	return &atom2Parser{data: data, model: model}, nil
}

func (p *atom2Parser) GetDatetime() (time.Time, error) {
	ticks := array.Uint32LE(p.data, 0)
	return time.Unix(int64(ticks), 0).UTC(), nil
}

func (p *atom2Parser) GetField(kind parser.FieldKind, index int) (parser.Field, error) {
	switch kind {
	case parser.Divetime:
		return parser.Field{Kind: parser.Divetime, Seconds: int(array.Uint16LE(p.data, 4))}, nil
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
			return parser.Field{}, status.New(status.InvalidArgs, "oceanicatom2.GetField", "gasmix index %d out of range", index)
		}
		mix, _ := p.gasMixes.At(idx)
		return parser.Field{Kind: parser.Gasmix, GasMix: mix}, nil
	default:
		return parser.Field{}, status.New(status.Unsupported, "oceanicatom2.GetField", "kind %d", kind)
	}
}

func (p *atom2Parser) ensureParsed() error {
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
// mix, building the table on first use so it is no longer a bare
// constant: GetField(Gasmix) and SamplesForeach's initial emission both
// read through it, rather than each hard-coding the value separately.
func (p *atom2Parser) gasMixIndex() (int, error) {
	if p.gasMixes == nil {
		p.gasMixes = parser.NewGasMixTable(1)
	}
	return p.gasMixes.Index(parser.GasMix{O2: 0.21})
}

func (p *atom2Parser) SamplesForeach(fn sample.Func) error {
	idx, err := p.gasMixIndex()
	if err != nil {
		return err
	}
	if fn == nil {
		return p.walk(func(int, float64, float64) {})
	}
	// The family logs a single fixed mix for the whole dive, so it is
	// known before the first timed sample and emitted at t=0.
	fn(sample.Sample{Kind: sample.GasMix, GasMixIndex: idx})
	return p.walk(func(t int, depthM, tempC float64) {
		fn(sample.Sample{Kind: sample.Time, TimeMS: t * 1000})
		fn(sample.Sample{Kind: sample.Depth, DepthMeters: depthM})
		fn(sample.Sample{Kind: sample.Temperature, TempCelsius: tempC})
	})
}

func (p *atom2Parser) walk(emit func(timeSec int, depthM, tempC float64)) error {
	samples := p.data[headerSize:]
	for i := 0; i*sampleSize < len(samples); i++ {
		rec := samples[i*sampleSize : i*sampleSize+sampleSize]
		depthM := float64(array.Uint16LE(rec, 0)) / 10.0
		tempC := float64(int8(rec[2])) / 2.0
		emit(i, depthM, tempC)
	}
	return nil
}
