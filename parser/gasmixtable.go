// Copyright 2024 The libdc Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package parser

import "github.com/libdc-go/libdc/status"

// GasMixTable accumulates the distinct (O2, He) pairs a family parser
// observes while walking a dive's sample stream, building the table
// incrementally and deduplicating by the integer pair so repeated gas
// switches back to an already-seen mix don't grow it. Shared by every
// family parser rather than reimplemented per package.
type GasMixTable struct {
	max  int
	mixe []GasMix
}

// NewGasMixTable returns an empty table capped at max entries, the
// family's NGASMIXES limit.
func NewGasMixTable(max int) *GasMixTable {
	return &GasMixTable{max: max}
}

// Index returns the table index of mix, adding it if not already present.
// It returns status.NoMemory if the table is full and mix is new.
func (t *GasMixTable) Index(mix GasMix) (int, error) {
	for i, m := range t.mixe {
		if m == mix {
			return i, nil
		}
	}
	if len(t.mixe) >= t.max {
		return 0, status.New(status.NoMemory, "parser.GasMixTable", "exceeded %d gas mixes", t.max)
	}
	t.mixe = append(t.mixe, mix)
	return len(t.mixe) - 1, nil
}

// Len returns the number of distinct mixes observed so far.
func (t *GasMixTable) Len() int { return len(t.mixe) }

// At returns the mix at index, or ok==false if out of range.
func (t *GasMixTable) At(index int) (GasMix, bool) {
	if index < 0 || index >= len(t.mixe) {
		return GasMix{}, false
	}
	return t.mixe[index], true
}
