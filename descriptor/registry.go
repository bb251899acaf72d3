// Copyright 2024 The libdc Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package descriptor

import "github.com/libdc-go/libdc/iostream"

// init populates the process-wide registry. Real libdivecomputer lists on
// the order of 40 models per family tag; this table carries enough
// entries per family to exercise descriptor.All/Lookup/Matches
// meaningfully, while device.Registry/parser.Registry only provide a
// fully engineered driver+parser pair for the five families listed under
// DESIGN.md's "Device layer". Models outside that set still round-trip
// through the registry; device.Open on them returns status.Unsupported,
// same as the real library does for any model it has a descriptor for
// but no vtable implementation of.
func init() {
	for _, d := range []Descriptor{
		// Oceanic / Aeris / Sherwood / Hollis — all re-badge the Atom2
		// family protocol.
		{Vendor: "Oceanic", Product: "Atom 2.0", Family: FamilyOceanicAtom2, Model: 0x4745,
			Transport: iostream.Serial | iostream.Bluetooth, Filter: FilterOceanicHexModel(0x4745)},
		{Vendor: "Oceanic", Product: "Veo 2.0", Family: FamilyOceanicAtom2, Model: 0x4742,
			Transport: iostream.Serial, Filter: FilterOceanicHexModel(0x4742)},
		{Vendor: "Oceanic", Product: "Pro Plus 2.1", Family: FamilyOceanicAtom2, Model: 0x4357,
			Transport: iostream.Serial, Filter: FilterOceanicHexModel(0x4357)},
		{Vendor: "Oceanic", Product: "VT3", Family: FamilyOceanicAtom2, Model: 0x4349,
			Transport: iostream.Serial, Filter: FilterOceanicHexModel(0x4349)},
		{Vendor: "Aeris", Product: "Epic", Family: FamilyOceanicAtom2, Model: 0x4250,
			Transport: iostream.Serial, Filter: FilterOceanicHexModel(0x4250)},
		{Vendor: "Sherwood", Product: "Wisdom 3", Family: FamilyOceanicAtom2, Model: 0x4442,
			Transport: iostream.Serial, Filter: FilterOceanicHexModel(0x4442)},
		{Vendor: "Hollis", Product: "DG03", Family: FamilyOceanicAtom2, Model: 0x4741,
			Transport: iostream.Serial, Filter: FilterOceanicHexModel(0x4741)},

		// Suunto Vyper family (serial, Spyder/Vyper/Cobra/D-series).
		{Vendor: "Suunto", Product: "Vyper", Family: FamilySuuntoVyper, Model: 0x03,
			Transport: iostream.Serial, Filter: FilterDevicePathPrefix("/dev/ttyUSB")},
		{Vendor: "Suunto", Product: "Cobra", Family: FamilySuuntoVyper, Model: 0x02,
			Transport: iostream.Serial},
		{Vendor: "Suunto", Product: "Vytec", Family: FamilySuuntoVyper, Model: 0x05,
			Transport: iostream.Serial},
		{Vendor: "Suunto", Product: "D9", Family: FamilySuuntoVyper, Model: 0x0E,
			Transport: iostream.Serial},
		{Vendor: "Suunto", Product: "Vyper Air", Family: FamilySuuntoVyper, Model: 0x19,
			Transport: iostream.Serial},

		// Suunto EON Steel/Core — USB bulk, different protocol generation.
		{Vendor: "Suunto", Product: "EON Steel", Family: FamilySuuntoEonSteel, Model: 0x04,
			Transport: iostream.USB, Filter: FilterUSBVidPid(0x1493, 0x0030)},
		{Vendor: "Suunto", Product: "EON Core", Family: FamilySuuntoEonSteel, Model: 0x05,
			Transport: iostream.USB, Filter: FilterUSBVidPid(0x1493, 0x0033)},

		// Reefnet Sensus — serial, delimiter-scanned dive stream.
		{Vendor: "Reefnet", Product: "Sensus Pro", Family: FamilyReefnetSensus, Model: 0x01,
			Transport: iostream.Serial},
		{Vendor: "Reefnet", Product: "Sensus Ultra", Family: FamilyReefnetSensus, Model: 0x02,
			Transport: iostream.Serial},

		// Mares Icon HD family — serial, fixed-size ACK/EOF framing.
		{Vendor: "Mares", Product: "Icon HD", Family: FamilyMaresIconHD, Model: 0x0F,
			Transport: iostream.Serial},
		{Vendor: "Mares", Product: "Puck Pro", Family: FamilyMaresIconHD, Model: 0x18,
			Transport: iostream.Serial | iostream.USBHID},
		{Vendor: "Mares", Product: "Quad Air", Family: FamilyMaresIconHD, Model: 0x23,
			Transport: iostream.Serial},

		// Mares Genius — BLE, newer protocol generation.
		{Vendor: "Mares", Product: "Genius", Family: FamilyMaresGenius, Model: 0x01,
			Transport: iostream.BLE, Filter: FilterBluetoothNamePrefix("Mares Genius")},

		// Shearwater Petrel/Perdix family — BLE with the same framing as
		// the legacy Bluetooth SPP transport.
		{Vendor: "Shearwater", Product: "Petrel", Family: FamilyShearwaterPetrel, Model: 0x03,
			Transport: iostream.Bluetooth | iostream.BLE, Filter: FilterBluetoothNamePrefix("Petrel")},
		{Vendor: "Shearwater", Product: "Petrel 2", Family: FamilyShearwaterPetrel, Model: 0x04,
			Transport: iostream.Bluetooth | iostream.BLE, Filter: FilterBluetoothNamePrefix("Petrel")},
		{Vendor: "Shearwater", Product: "Perdix", Family: FamilyShearwaterPetrel, Model: 0x05,
			Transport: iostream.Bluetooth | iostream.BLE, Filter: FilterBluetoothNamePrefix("Perdix")},
		{Vendor: "Shearwater", Product: "Perdix AI", Family: FamilyShearwaterPetrel, Model: 0x06,
			Transport: iostream.Bluetooth | iostream.BLE, Filter: FilterBluetoothNamePrefix("Perdix")},

		// Shearwater Predator — older BT SPP-only, distinct closing record
		// layout from Petrel.
		{Vendor: "Shearwater", Product: "Predator", Family: FamilyShearwaterPredator, Model: 0x02,
			Transport: iostream.Bluetooth, Filter: FilterBluetoothNamePrefix("Predator")},

		// HW OSTC family — serial/BT pass-through, per-opcode fixed replies.
		{Vendor: "Heinrichs Weikamp", Product: "OSTC 2", Family: FamilyHWOSTC, Model: 0x0B,
			Transport: iostream.Serial | iostream.Bluetooth},
		{Vendor: "Heinrichs Weikamp", Product: "OSTC 3", Family: FamilyHWOSTC, Model: 0x0C,
			Transport: iostream.Serial | iostream.Bluetooth},
		{Vendor: "Heinrichs Weikamp", Product: "OSTC 4", Family: FamilyHWOSTC, Model: 0x3B,
			Transport: iostream.Bluetooth},

		// Divesystem iDive/iX3M — CRC16-CCITT framed serial.
		{Vendor: "Divesystem", Product: "iDive", Family: FamilyDivesystemIDive, Model: 0x01,
			Transport: iostream.Serial},
		{Vendor: "Divesystem", Product: "iX3M", Family: FamilyDivesystemIDive, Model: 0x02,
			Transport: iostream.Serial | iostream.USB},

		// Tecdiving — packet-addressed dive list over serial.
		{Vendor: "Tecdiving", Product: "DiveComputer.eu", Family: FamilyTecdiving, Model: 0x01,
			Transport: iostream.Serial},

		// Uwatec Smart family — IrDA historically, now serial/BT pass-through.
		{Vendor: "Uwatec", Product: "Smart Com", Family: FamilyUwatecSmart, Model: 0x01,
			Transport: iostream.IrDA | iostream.Serial},
		{Vendor: "Uwatec", Product: "Smart Z", Family: FamilyUwatecSmart, Model: 0x05,
			Transport: iostream.IrDA | iostream.Bluetooth},

		// Cressi Edy/Leonardo family — serial.
		{Vendor: "Cressi", Product: "Edy", Family: FamilyCressiEdy, Model: 0x01,
			Transport: iostream.Serial},
		{Vendor: "Cressi", Product: "Leonardo", Family: FamilyCressiEdy, Model: 0x03,
			Transport: iostream.Serial},

		// Atomic Aquatics Cobalt — USB bulk.
		{Vendor: "Atomic Aquatics", Product: "Cobalt", Family: FamilyAtomics2, Model: 0x01,
			Transport: iostream.USB, Filter: FilterUSBVidPid(0x0DE0, 0xF101)},
		{Vendor: "Atomic Aquatics", Product: "Cobalt 2", Family: FamilyAtomics2, Model: 0x02,
			Transport: iostream.USB, Filter: FilterUSBVidPid(0x0DE0, 0xF102)},
	} {
		Register(d)
	}
}
