// Copyright 2024 The libdc Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"github.com/libdc-go/libdc/ioevent"
)

// progressBar renders ioevent.Progress events as a single overwritten
// terminal line, using colorable.NewColorableStdout to get ANSI escapes
// working on Windows consoles too. It degrades to one line per event when stdout isn't a
// terminal, so piping dctool's output to a file or another process
// doesn't interleave garbage control codes into a log.
type progressBar struct {
	w        io.Writer
	isATTY   bool
	lastLine int
}

func newProgressBar() *progressBar {
	fd := os.Stdout.Fd()
	return &progressBar{
		w:      colorable.NewColorableStdout(),
		isATTY: isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd),
	}
}

func (p *progressBar) onEvent(ev ioevent.Event) {
	switch ev.Kind {
	case ioevent.Progress:
		p.render(ev.Progress)
	case ioevent.DevInfo:
		fmt.Fprintf(p.w, "device: model=0x%x firmware=0x%x serial=%d\n", ev.DevInfo.Model, ev.DevInfo.Firmware, ev.DevInfo.Serial)
	}
}

func (p *progressBar) render(v ioevent.ProgressValue) {
	const width = 30
	filled := width
	if v.Maximum > 0 {
		filled = int(uint64(v.Current) * width / uint64(v.Maximum))
	}
	if filled > width {
		filled = width
	}
	bar := make([]byte, width)
	for i := range bar {
		if i < filled {
			bar[i] = '='
		} else {
			bar[i] = ' '
		}
	}
	line := fmt.Sprintf("[%s] %d/%d dives", bar, v.Current, v.Maximum)
	if p.isATTY {
		fmt.Fprintf(p.w, "\r%s", line)
	} else {
		fmt.Fprintln(p.w, line)
	}
	p.lastLine = len(line)
}

func (p *progressBar) done() {
	if p.isATTY && p.lastLine > 0 {
		fmt.Fprintln(p.w)
	}
}
