// Copyright 2024 The libdc Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package descriptor implements the process-wide, read-only registry of
// (vendor, product, family, model) records and the filter predicate that
// lets a host application narrow a discovered transport endpoint (a BT
// name, a USB vid:pid, a device-node path) down to the one descriptor
// that can plausibly drive it, without instantiating every driver in
// turn. The registry is modeled directly on periph.Driver's
// self-registering global table.
package descriptor

import (
	"strings"
	"sync"

	"github.com/libdc-go/libdc/array"
	"github.com/libdc-go/libdc/iostream"
)

// Family tags the wire-protocol/record-format group a model belongs to.
// It is the key device.Registry and parser.Registry dispatch on.
type Family string

const (
	FamilyOceanicAtom2       Family = "oceanic_atom2"
	FamilySuuntoVyper        Family = "suunto_vyper"
	FamilyReefnetSensus      Family = "reefnet_sensus"
	FamilyMaresIconHD        Family = "mares_iconhd"
	FamilyShearwaterPetrel   Family = "shearwater_petrel"
	FamilyHWOSTC             Family = "hw_ostc"
	FamilyDivesystemIDive    Family = "divesystem_idive"
	FamilyTecdiving          Family = "tecdiving"
	FamilyUwatecSmart        Family = "uwatec_smart"
	FamilyCressiEdy          Family = "cressi_edy"
	FamilyAtomics2           Family = "atomics2"
	FamilySuuntoEonSteel     Family = "suunto_eonsteel"
	FamilyMaresGenius        Family = "mares_genius"
	FamilyShearwaterPredator Family = "shearwater_predator"
)

// Key is the set of identifying facts a host application can present
// about a discovered transport endpoint; a Descriptor's Filter inspects
// whichever fields are relevant to it and ignores the rest.
type Key struct {
	Transport iostream.Transport

	// USB identifies a vid:pid pair for Transport==USB/USBHID.
	USBVendorID, USBProductID uint16

	// BluetoothName is the advertised name for Transport==Bluetooth/BLE.
	BluetoothName string

	// DevicePath is a serial device-node path for Transport==Serial/IrDA.
	DevicePath string
}

// FilterFunc answers "can this descriptor plausibly match key", beyond
// the basic transport-bitmask check every Descriptor gets for free.
type FilterFunc func(key Key) bool

// Descriptor is an immutable registry record. Descriptors are never
// mutated after registration; the zero value is not meaningful on its
// own, only as returned by Iterate/Lookup.
type Descriptor struct {
	Vendor    string
	Product   string
	Family    Family
	Model     uint32
	Transport iostream.Transport
	Filter    FilterFunc
}

// Matches reports whether d admits key's transport and, if d carries a
// Filter, whether the filter accepts key too.
func (d Descriptor) Matches(key Key) bool {
	if d.Transport&key.Transport == 0 {
		return false
	}
	if d.Filter == nil {
		return true
	}
	return d.Filter(key)
}

var (
	mu       sync.Mutex
	registry []Descriptor
)

// Register appends d to the process-wide registry. Called from package
// init() by each family's descriptor table, mirroring periph.Driver
// self-registration.
func Register(d Descriptor) {
	mu.Lock()
	defer mu.Unlock()
	registry = append(registry, d)
}

// All returns every registered descriptor, in registration order. The
// returned slice is a copy; mutating it does not affect the registry.
func All() []Descriptor {
	mu.Lock()
	defer mu.Unlock()
	out := make([]Descriptor, len(registry))
	copy(out, registry)
	return out
}

// Lookup returns the first registered descriptor for the given family and
// model, or ok==false if none is registered.
func Lookup(family Family, model uint32) (Descriptor, bool) {
	mu.Lock()
	defer mu.Unlock()
	for _, d := range registry {
		if d.Family == family && d.Model == model {
			return d, true
		}
	}
	return Descriptor{}, false
}

// FilterUSBVidPid is a reusable FilterFunc for families identified purely
// by a USB vid/pid pair.
func FilterUSBVidPid(vid, pid uint16) FilterFunc {
	return func(key Key) bool {
		return key.USBVendorID == vid && key.USBProductID == pid
	}
}

// FilterBluetoothNamePrefix is a reusable FilterFunc for families whose
// BLE/RFCOMM advertised name always starts with prefix (e.g. Shearwater's
// "Petrel").
func FilterBluetoothNamePrefix(prefix string) FilterFunc {
	return func(key Key) bool {
		return strings.HasPrefix(key.BluetoothName, prefix)
	}
}

// FilterDevicePathPrefix is a reusable FilterFunc for families that only
// ever show up under a specific serial device-node prefix.
func FilterDevicePathPrefix(prefix string) FilterFunc {
	return func(key Key) bool {
		return strings.HasPrefix(key.DevicePath, prefix)
	}
}

// FilterOceanicHexModel matches Oceanic's scheme of encoding the model id
// as a hex-prefixed numeric string inside the BLE/serial advertised name,
// e.g. "OCEA0307" for model 0x0307.
func FilterOceanicHexModel(model uint32) FilterFunc {
	return func(key Key) bool {
		const prefix = "OCEA"
		if !strings.HasPrefix(key.BluetoothName, prefix) {
			return false
		}
		suffix := key.BluetoothName[len(prefix):]
		var got uint32
		for _, c := range []byte(suffix) {
			d := array.HexDigit(c)
			if d < 0 {
				return false
			}
			got = got<<4 | uint32(d)
		}
		return got == model
	}
}
