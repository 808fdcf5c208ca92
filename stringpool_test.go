// Copyright 2021 Daniel Basedow. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package apk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func parsePool(t *testing.T, encoded []byte) *StringPool {
	t.Helper()
	c, err := parseChunk(newDataReader(encoded))
	require.NoError(t, err)
	pool, err := parseStringPoolChunk(c)
	require.NoError(t, err)
	return pool
}

func TestStringPoolRoundTrip(t *testing.T) {
	strs := []string{
		"",
		"ns",
		"hello world",
		"straße",
		"日本語",
		"mixed ascii + ünïcode",
		strings.Repeat("x", 200), // forces the two-byte length form
	}

	for _, utf8 := range []bool{true, false} {
		name := "utf16"
		if utf8 {
			name = "utf8"
		}
		t.Run(name, func(t *testing.T) {
			require := require.New(t)

			pool := parsePool(t, buildStringPoolChunk(strs, utf8, nil))
			require.Equal(len(strs), pool.Len())
			for i, want := range strs {
				got, err := pool.Get(uint32(i))
				require.NoError(err)
				require.Equal(want, got)
			}
		})
	}
}

func TestStringPoolGetOutOfRange(t *testing.T) {
	require := require.New(t)

	pool := parsePool(t, buildStringPoolChunk([]string{"only"}, true, nil))

	_, err := pool.Get(1)
	require.ErrorIs(err, ErrInvalidData)

	s, ok, err := pool.GetOptional(0)
	require.NoError(err)
	require.True(ok)
	require.Equal("only", s)

	_, ok, err = pool.GetOptional(sentinelIndex)
	require.NoError(err)
	require.False(ok)
}

func TestStringPoolStyles(t *testing.T) {
	require := require.New(t)

	styles := [][]StyleRun{
		{{Name: 2, Start: 0, End: 4}},
		{{Name: 2, Start: 1, End: 2}, {Name: 2, Start: 3, End: 5}},
	}
	pool := parsePool(t, buildStringPoolChunk([]string{"bold text", "both runs", "b"}, true, styles))

	require.Equal(styles[0], pool.Styles(0))
	require.Equal(styles[1], pool.Styles(1))
	require.Nil(pool.Styles(2))
}

func TestStringPoolWrongChunkType(t *testing.T) {
	encoded := buildChunk(chunkTypeXML, make([]byte, 20), nil)
	c, err := parseChunk(newDataReader(encoded))
	require.NoError(t, err)

	_, err = parseStringPoolChunk(c)
	require.ErrorIs(t, err, ErrWrongChunkType)
}

func TestStringPoolUnterminatedString(t *testing.T) {
	// A UTF-8 entry whose terminator byte is nonzero must be rejected.
	encoded := buildStringPoolChunk([]string{"abc"}, true, nil)
	encoded[len(encoded)-1] = 0xFF

	c, err := parseChunk(newDataReader(encoded))
	require.NoError(t, err)
	_, err = parseStringPoolChunk(c)
	require.ErrorIs(t, err, ErrInvalidData)
}
