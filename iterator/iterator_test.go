// Copyright 2024 The libdc Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package iterator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOfAndCollect(t *testing.T) {
	seq := Of([]int{1, 2, 3})
	assert.Equal(t, []int{1, 2, 3}, Collect(seq))
}

func TestForEachStopsEarly(t *testing.T) {
	var seen []int
	ForEach(Of([]int{1, 2, 3, 4}), func(v int) bool {
		seen = append(seen, v)
		return v < 2
	})
	assert.Equal(t, []int{1, 2}, seen)
}

func TestFuncSeq(t *testing.T) {
	n := 0
	seq := FuncSeq[int](func() (int, bool) {
		if n >= 3 {
			return 0, false
		}
		n++
		return n, true
	})
	assert.Equal(t, []int{1, 2, 3}, Collect[int](seq))
}
