// Copyright 2024 The libdc Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package suuntovyper implements parser.Parser for the Suunto Vyper
// family's dive record: a 4-byte BCD timestamp (year, month, day, hour,
// one BCD byte each) that doubles as the device's own fingerprint, a
// big-endian divetime in seconds, and a fixed-interval run of 3-byte
// samples (big-endian centimeter depth plus a signed half-degree
// temperature). Grounded on the BCD decoding idiom common to Suunto's
// memory layout and on array.Uint16BE already exercised elsewhere in
// this module.
package suuntovyper

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
	headerSize  = 6 // 4-byte BCD timestamp + 2-byte BE divetime
	sampleSize  = 3
	intervalSec = 60
)

func init() {
	parser.Register(descriptor.FamilySuuntoVyper, Open)
}

type vyperParser struct {
	data  []byte
	model uint32

	parsed   bool
	maxDepth float64
	avgDepth float64
}

// Open implements parser.Constructor for the Suunto Vyper family.
func Open(ctx *dcontext.Context, data []byte, model uint32) (parser.Parser, error) {
	if len(data) < headerSize {
		return nil, status.New(status.DataFormat, "suuntovyper.Open", "record too short: %d bytes", len(data))
	}
	if (len(data)-headerSize)%sampleSize != 0 {
		return nil, status.New(status.DataFormat, "suuntovyper.Open", "sample region not a multiple of %d", sampleSize)
	}
	return &vyperParser{data: data, model: model}, nil
}

func bcdByte(b byte) int {
	return int(b>>4)*10 + int(b&0x0F)
}

func (p *vyperParser) GetDatetime() (time.Time, error) {
	year := 2000 + bcdByte(p.data[0])
	month := bcdByte(p.data[1])
	day := bcdByte(p.data[2])
	hour := bcdByte(p.data[3])
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, status.New(status.DataFormat, "suuntovyper.GetDatetime", "invalid BCD date %02x%02x%02x", p.data[0], p.data[1], p.data[2])
	}
	return time.Date(year, time.Month(month), day, hour, 0, 0, 0, time.UTC), nil
}

func (p *vyperParser) GetField(kind parser.FieldKind, index int) (parser.Field, error) {
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
	default:
		return parser.Field{}, status.New(status.Unsupported, "suuntovyper.GetField", "kind %d", kind)
	}
}

func (p *vyperParser) ensureParsed() error {
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

func (p *vyperParser) SamplesForeach(fn sample.Func) error {
	return p.walk(func(t int, depthM, tempC float64) {
		if fn == nil {
			return
		}
		fn(sample.Sample{Kind: sample.Time, TimeMS: t * 1000})
		fn(sample.Sample{Kind: sample.Depth, DepthMeters: depthM})
		fn(sample.Sample{Kind: sample.Temperature, TempCelsius: tempC})
	})
}

func (p *vyperParser) walk(emit func(timeSec int, depthM, tempC float64)) error {
	samples := p.data[headerSize:]
	for i := 0; i*sampleSize < len(samples); i++ {
		rec := samples[i*sampleSize : i*sampleSize+sampleSize]
		depthM := float64(array.Uint16BE(rec, 0)) / 100.0
		tempC := float64(int8(rec[2])) / 2.0
		emit(i*intervalSec, depthM, tempC)
	}
	return nil
}
