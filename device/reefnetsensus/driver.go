// Copyright 2024 The libdc Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package reefnetsensus implements device.Driver for the Reefnet Sensus
// Pro/Ultra family: a single "download everything" command that streams
// the device's entire sample log as one length-prefixed, XOR-checksummed
// blob, with individual dives delimited inline by a 4-byte 0xFFFFFFFF
// separator rather than addressed independently. Grounded on
// periph-extra's hostextra/d2xx bulk-read pattern (d2xx.go's Read loop),
// adapted to a single large streamed transfer instead of polled small
// reads.
package reefnetsensus

import (
	"bytes"

	"github.com/libdc-go/libdc/array"
	"github.com/libdc-go/libdc/dcontext"
	"github.com/libdc-go/libdc/descriptor"
	"github.com/libdc-go/libdc/device"
	"github.com/libdc-go/libdc/ioevent"
	"github.com/libdc-go/libdc/iostream"
	"github.com/libdc-go/libdc/status"
)

const (
	cmdDownload = 'a'

	separator = "\xff\xff\xff\xff"

	// maxDumpSize bounds a single download so a corrupt length field can't
	// force an unbounded allocation.
	maxDumpSize = 16 * 1024 * 1024
)

func init() {
	device.Register(descriptor.FamilyReefnetSensus, Open)
}

type driver struct {
	ctx         *dcontext.Context
	stream      iostream.Stream
	bus         *ioevent.Bus
	fingerprint []byte
	cancel      device.CancelFunc
}

func (d *driver) cancelled() bool {
	return d.cancel != nil && d.cancel()
}

// Open implements device.Constructor for the Reefnet Sensus family.
func Open(ctx *dcontext.Context, stream iostream.Stream, bus *ioevent.Bus) (device.Driver, error) {
	return &driver{ctx: ctx, stream: stream, bus: bus}, nil
}

func (d *driver) SetFingerprint(fp []byte) error {
	d.fingerprint = append([]byte(nil), fp...)
	return nil
}

func (d *driver) SetCancel(cb device.CancelFunc) error {
	d.cancel = cb
	return nil
}

// Dump implements device.Dumper: the family's only transfer primitive is
// already a single full-log download, so Dump and the internal download
// used by Foreach are the same operation.
func (d *driver) Dump() ([]byte, error) {
	return d.download()
}

// download issues the single streaming read command and returns the full
// checksummed dump payload.
func (d *driver) download() ([]byte, error) {
	if _, err := d.stream.Write([]byte{cmdDownload}); err != nil {
		return nil, err
	}
	header := make([]byte, 4)
	if err := device.ReadExact(d.stream, header); err != nil {
		return nil, err
	}
	length := int(array.Uint32LE(header, 0))
	if length < 0 || length > maxDumpSize {
		return nil, status.New(status.DataFormat, "reefnetsensus.download", "implausible dump length %d", length)
	}
	payload := make([]byte, length+1) // +1 trailing XOR checksum
	if err := device.ReadExact(d.stream, payload); err != nil {
		return nil, err
	}
	data, checksum := payload[:length], payload[length]
	if array.XORChecksum8(data) != checksum {
		return nil, status.New(status.Protocol, "reefnetsensus.download", "dump checksum mismatch")
	}
	return data, nil
}

// Foreach downloads the full log once, splits it on the inline
// 0xFFFFFFFF dive separator, and walks the resulting dives most-recent
// first (the device stores them oldest-first).
func (d *driver) Foreach(fn device.DiveFunc) error {
	dump, err := d.download()
	if err != nil {
		return err
	}
	segments := splitDives(dump)
	total := uint32(len(segments))
	if d.bus != nil {
		d.bus.Emit(ioevent.Event{Kind: ioevent.Progress, Progress: ioevent.ProgressValue{Current: 0, Maximum: total}})
	}
	for i := len(segments) - 1; i >= 0; i-- {
		if d.cancelled() {
			return status.New(status.Cancelled, "reefnetsensus.Foreach", "cancelled after %d dive(s)", total-uint32(i)-1)
		}
		seg := segments[i]
		if len(seg) == 0 {
			continue
		}
		fp := fingerprintOf(seg)
		if d.fingerprint != nil && string(fp) == string(d.fingerprint) {
			return nil
		}
		if d.bus != nil {
			d.bus.Emit(ioevent.Event{Kind: ioevent.Progress, Progress: ioevent.ProgressValue{
				Current: total - uint32(i), Maximum: total,
			}})
		}
		if !fn(seg, fp) {
			return nil
		}
	}
	return nil
}

func splitDives(dump []byte) [][]byte {
	return bytes.Split(dump, []byte(separator))
}

// fingerprintOf is the dive's own XOR checksum as a one-byte slice. It is
// not cut from the dive's header, and two different dives with the same
// checksum have equal fingerprints.
func fingerprintOf(seg []byte) []byte {
	return []byte{array.XORChecksum8(seg)}
}

func (d *driver) Close() error { return nil }
