// Copyright 2024 The libdc Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// dctool lists descriptors known to libdc, downloads dives off a
// connected computer into a flat record file, and parses a record file
// into human-readable summaries. It is a thin driver for the library,
// not a replacement for a real desktop application.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/libdc-go/libdc/dcontext"
	"github.com/libdc-go/libdc/descriptor"
	"github.com/libdc-go/libdc/device"
	"github.com/libdc-go/libdc/ioevent"
	"github.com/libdc-go/libdc/iostream"
	"github.com/libdc-go/libdc/parser"
	"github.com/libdc-go/libdc/sample"

	_ "github.com/libdc-go/libdc/device/maresiconhd"
	_ "github.com/libdc-go/libdc/device/oceanicatom2"
	_ "github.com/libdc-go/libdc/device/reefnetsensus"
	_ "github.com/libdc-go/libdc/device/shearwaterpetrel"
	_ "github.com/libdc-go/libdc/device/suuntovyper"

	_ "github.com/libdc-go/libdc/parser/maresiconhd"
	_ "github.com/libdc-go/libdc/parser/oceanicatom2"
	_ "github.com/libdc-go/libdc/parser/reefnetsensus"
	_ "github.com/libdc-go/libdc/parser/shearwaterpetrel"
	_ "github.com/libdc-go/libdc/parser/suuntovyper"
)

func main() {
	log.SetFlags(0)
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "list":
		err = runList(os.Args[2:])
	case "dump":
		err = runDump(os.Args[2:])
	case "parse":
		err = runParse(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: dctool <list|dump|parse> [flags]")
}

func runList(args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	fs.Parse(args)

	for _, d := range descriptor.All() {
		fmt.Printf("%-20s %-20s family=%-20s model=0x%04x transport=%s\n", d.Vendor, d.Product, d.Family, d.Model, d.Transport)
	}
	return nil
}

func runDump(args []string) error {
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	transport := fs.String("transport", "serial", "serial|usb|usbhid|bluetooth|ble|irda")
	path := fs.String("path", "", "serial device path or IrDA device name")
	family := fs.String("family", "", "descriptor family, e.g. oceanic_atom2")
	model := fs.Uint("model", 0, "descriptor model id")
	out := fs.String("out", "", "output record file (defaults to stdout)")
	fs.Parse(args)

	if *family == "" {
		return fmt.Errorf("dump: -family is required")
	}
	desc, ok := descriptor.Lookup(descriptor.Family(*family), uint32(*model))
	if !ok {
		return fmt.Errorf("dump: no descriptor for family %q model 0x%x", *family, *model)
	}

	stream, err := openTransport(*transport, *path)
	if err != nil {
		return err
	}
	defer stream.Close()

	w := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	bar := newProgressBar()
	ctx := dcontext.New()
	dev, err := device.Open(desc, stream, ctx)
	if err != nil {
		return err
	}
	defer dev.Close()
	dev.Events().Set(ioevent.All, bar.onEvent)

	count := 0
	err = dev.Foreach(func(data, fp []byte) bool {
		if werr := writeRecord(w, data); werr != nil {
			err = werr
			return false
		}
		count++
		return true
	})
	bar.done()
	if err != nil {
		return err
	}
	log.Printf("dump: wrote %d dive(s)", count)
	return nil
}

func runParse(args []string) error {
	fs := flag.NewFlagSet("parse", flag.ExitOnError)
	family := fs.String("family", "", "descriptor family, e.g. oceanic_atom2")
	model := fs.Uint("model", 0, "descriptor model id")
	in := fs.String("in", "", "input record file (defaults to stdin)")
	fs.Parse(args)

	if *family == "" {
		return fmt.Errorf("parse: -family is required")
	}

	r := io.Reader(os.Stdin)
	if *in != "" {
		f, err := os.Open(*in)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	ctx := dcontext.New()
	index := 0
	for {
		data, err := readRecord(r)
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		index++
		p, err := parser.CreateFor(descriptor.Family(*family), ctx, data, uint32(*model))
		if err != nil {
			return fmt.Errorf("dive %d: %w", index, err)
		}
		if err := printDive(index, p); err != nil {
			return err
		}
	}
	return nil
}

func printDive(index int, p parser.Parser) error {
	dt, err := p.GetDatetime()
	if err != nil {
		return err
	}
	fmt.Printf("dive %d: start=%s\n", index, dt.Format("2006-01-02T15:04:05Z"))

	if f, err := p.GetField(parser.Divetime, 0); err == nil {
		fmt.Printf("  divetime:  %ds\n", f.Seconds)
	}
	if f, err := p.GetField(parser.MaxDepth, 0); err == nil {
		fmt.Printf("  max depth: %.1fm\n", f.Meters)
	}
	if f, err := p.GetField(parser.AvgDepth, 0); err == nil {
		fmt.Printf("  avg depth: %.1fm\n", f.Meters)
	}

	samples := 0
	if err := p.SamplesForeach(func(s sample.Sample) {
		if s.Kind == sample.Time {
			samples++
		}
	}); err != nil {
		return err
	}
	fmt.Printf("  samples:   %d\n", samples)
	return nil
}

// writeRecord/readRecord frame each raw dive as a 4-byte big-endian
// length followed by that many bytes, the simplest format that survives
// a pipe between dump and parse without needing a real container.
func writeRecord(w io.Writer, data []byte) error {
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(data)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := w.Write(data)
	return err
}

func readRecord(r io.Reader) ([]byte, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	data := make([]byte, binary.BigEndian.Uint32(hdr[:]))
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}
	return data, nil
}

func openTransport(name, path string) (iostream.Stream, error) {
	switch name {
	case "serial":
		return iostream.OpenSerial(path)
	case "irda":
		return iostream.OpenIrDA(path)
	default:
		return nil, fmt.Errorf("openTransport: transport %q requires device-specific addressing; use the library directly", name)
	}
}
