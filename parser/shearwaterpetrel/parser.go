// Copyright 2024 The libdc Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package shearwaterpetrel implements parser.Parser for the Shearwater
// Petrel/Perdix family's "PNF" record layout: a fixed 16-byte opening
// block (type tag + a little-endian Unix-seconds clock), a run of
// fixed-size sample records at a constant interval, and a fixed trailing
// closing block carrying the authoritative dive duration as a 24-bit
// big-endian field. Grounded on the Uint24BE decoding already exercised
// by array.Uint24BE's own Shearwater-derived test vector.
package shearwaterpetrel

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
	typeOpening = 0x10
	typeClosing = 0x11

	openingSize = 16
	closingSize = 32
	sampleSize  = 4
	intervalSec = 10

	divetimeOffsetInClosing = 6
)

func init() {
	parser.Register(descriptor.FamilyShearwaterPetrel, Open)
}

type petrelParser struct {
	data  []byte
	model uint32

	parsed   bool
	maxDepth float64
	avgDepth float64
}

// Open implements parser.Constructor for the Shearwater Petrel family.
func Open(ctx *dcontext.Context, data []byte, model uint32) (parser.Parser, error) {
	if len(data) < openingSize+closingSize {
		return nil, status.New(status.DataFormat, "shearwaterpetrel.Open", "record too short: %d bytes", len(data))
	}
	if data[0] != typeOpening {
		return nil, status.New(status.DataFormat, "shearwaterpetrel.Open", "unexpected opening type 0x%02x", data[0])
	}
	return &petrelParser{data: data, model: model}, nil
}

func (p *petrelParser) closing() []byte {
	return p.data[len(p.data)-closingSize:]
}

func (p *petrelParser) samples() []byte {
	return p.data[openingSize : len(p.data)-closingSize]
}

func (p *petrelParser) GetDatetime() (time.Time, error) {
	ticks := array.Uint32LE(p.data, 4)
	return time.Unix(int64(ticks), 0).UTC(), nil
}

func (p *petrelParser) GetField(kind parser.FieldKind, index int) (parser.Field, error) {
	switch kind {
	case parser.Divetime:
		c := p.closing()
		if c[0] != typeClosing {
			return parser.Field{}, status.New(status.DataFormat, "shearwaterpetrel.GetField", "unexpected closing type 0x%02x", c[0])
		}
		seconds := int(array.Uint24BE(c, divetimeOffsetInClosing))
		return parser.Field{Kind: parser.Divetime, Seconds: seconds}, nil
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
	default:
		return parser.Field{}, status.New(status.Unsupported, "shearwaterpetrel.GetField", "kind %d", kind)
	}
}

// ensureParsed performs the single expensive walk over the sample stream
// needed to answer depth-derived field queries, memoising the result.
func (p *petrelParser) ensureParsed() error {
	if p.parsed {
		return nil
	}
	var maxDepth, sumDepth float64
	count := 0
	err := p.walk(func(_ int, depthM, _ float64) {
		if depthM > maxDepth {
			maxDepth = depthM
		}
		sumDepth += depthM
		count++
	})
	if err != nil {
		return err
	}
	p.maxDepth = maxDepth
	if count > 0 {
		p.avgDepth = sumDepth / float64(count)
	}
	p.parsed = true
	return nil
}

// SamplesForeach emits Time then Depth then Temperature for every sample
// at its recorded instant, in order.
func (p *petrelParser) SamplesForeach(fn sample.Func) error {
	return p.walk(func(t int, depthM, tempC float64) {
		if fn == nil {
			return
		}
		fn(sample.Sample{Kind: sample.Time, TimeMS: t * 1000})
		fn(sample.Sample{Kind: sample.Depth, DepthMeters: depthM})
		fn(sample.Sample{Kind: sample.Temperature, TempCelsius: tempC})
	})
}

func (p *petrelParser) walk(emit func(timeSec int, depthM, tempC float64)) error {
	samples := p.samples()
	if len(samples)%sampleSize != 0 {
		return status.New(status.DataFormat, "shearwaterpetrel.walk", "sample region not a multiple of %d bytes", sampleSize)
	}
	for i := 0; i*sampleSize < len(samples); i++ {
		rec := samples[i*sampleSize : i*sampleSize+sampleSize]
		if len(rec) < sampleSize {
			return status.New(status.DataFormat, "shearwaterpetrel.walk", "truncated sample at index %d", i)
		}
		depthCM := array.Uint16LE(rec, 0)
		tempRaw := int8(rec[2])
		depthM := float64(depthCM) / 100.0
		tempC := float64(tempRaw) / 2.0
		emit(i*intervalSec, depthM, tempC)
	}
	return nil
}
