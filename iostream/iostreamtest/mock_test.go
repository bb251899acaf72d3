// Copyright 2024 The libdc Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package iostreamtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockReplaysScript(t *testing.T) {
	m := New([]Exchange{
		{Want: []byte{0x01}, Give: []byte{0xaa, 0xbb}},
	})
	n, err := m.Write([]byte{0x01})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	buf := make([]byte, 2)
	n, err = m.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xaa, 0xbb}, buf[:n])
}

func TestMockRejectsUnexpectedWrite(t *testing.T) {
	m := New([]Exchange{{Want: []byte{0x01}, Give: nil}})
	_, err := m.Write([]byte{0x02})
	assert.Error(t, err)
	assert.Same(t, err, m.Err())
}
