// Copyright 2019 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package lcd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func states(p string) []State {
	s := make([]State, len(p))
	for i, c := range p {
		switch c {
		case '1':
			s[i] = On
		case '0':
			s[i] = Off
		default:
			s[i] = Unknown
		}
	}
	return s
}

func TestDecodeSeven(t *testing.T) {
	d, err := NewDecoder(nil)
	require.NoError(t, err)
	tests := []struct {
		pattern string
		want    int
	}{
		{"1111110", 0},
		{"0110000", 1},
		{"0111100", 1},
		{"0111101", 1},
		{"1101101", 2},
		{"1111001", 3},
		{"0110011", 4},
		{"1011011", 5},
		{"1011111", 6},
		{"1110000", 7},
		{"1110010", 7},
		{"1111111", 8},
		{"1111011", 9},
	}
	for _, tc := range tests {
		t.Run(tc.pattern, func(t *testing.T) {
			got := d.Decode(states(tc.pattern))
			assert.True(t, got.Valid)
			assert.Equal(t, tc.want, got.Value)
		})
	}
}

func TestDecodeIsRepeatable(t *testing.T) {
	d, err := NewDecoder(nil)
	require.NoError(t, err)
	for p := range d.Patterns(Seven) {
		first := d.Decode(states(p))
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, d.Decode(states(p)), "pattern %s", p)
		}
	}
}

func TestDecodeUndecodable(t *testing.T) {
	d, err := NewDecoder(nil)
	require.NoError(t, err)
	for _, p := range []string{"0000000", "1000000", "0101010", "11111?0"} {
		got := d.Decode(states(p))
		assert.False(t, got.Valid, "pattern %s", p)
		assert.Equal(t, "?", got.String())
	}
	// Unsupported kind.
	assert.False(t, d.Decode(states("101")).Valid)
}

func TestDecodeReducedKinds(t *testing.T) {
	d, err := NewDecoder(nil)
	require.NoError(t, err)
	assert.Equal(t, Digit{Value: 0, Valid: true}, d.Decode(states("0")))
	assert.Equal(t, Digit{Value: 1, Valid: true}, d.Decode(states("1")))
	assert.Equal(t, Digit{Value: 0, Valid: true}, d.Decode(states("00")))
	assert.Equal(t, Digit{Value: 1, Valid: true}, d.Decode(states("10")))
	assert.Equal(t, Digit{Value: 1, Valid: true}, d.Decode(states("01")))
	assert.Equal(t, Digit{Value: 1, Valid: true}, d.Decode(states("11")))
	assert.False(t, d.Decode(states("?")).Valid)
	assert.False(t, d.Decode(states("1?")).Valid)
}

func TestNewDecoderExtraPatterns(t *testing.T) {
	d, err := NewDecoder(Patterns{Seven: {"0100000": 1, "0110000": 1}})
	require.NoError(t, err)
	assert.Equal(t, Digit{Value: 1, Valid: true}, d.Decode(states("0100000")))

	// The default tables are not changed by another decoder's extras.
	d2, err := NewDecoder(nil)
	require.NoError(t, err)
	assert.False(t, d2.Decode(states("0100000")).Valid)
}

func TestNewDecoderErrors(t *testing.T) {
	tests := []struct {
		name  string
		extra Patterns
	}{
		{"conflict", Patterns{Seven: {"1111110": 8}}},
		{"alternate seven", Patterns{Seven: {"1110010": 1}}},
		{"length", Patterns{Seven: {"111": 1}}},
		{"character", Patterns{Dual: {"1x": 1}}},
		{"range", Patterns{Single: {"1": 10}}},
		{"kind", Patterns{Kind(3): {"111": 1}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewDecoder(tc.extra)
			assert.Error(t, err)
		})
	}
}

func TestPatternFormat(t *testing.T) {
	m, err := ParsePattern("0110000", Seven)
	require.NoError(t, err)
	assert.Equal(t, M_TR|M_BR, m)
	assert.Equal(t, "0110000", FormatPattern(m, Seven))

	p, ok := DigitToPattern(1, Seven)
	require.True(t, ok)
	assert.Equal(t, "0110000", p)
	p, ok = DigitToPattern(7, Seven)
	require.True(t, ok)
	assert.Equal(t, "1110000", p)
	p, ok = DigitToPattern(1, Dual)
	require.True(t, ok)
	assert.Equal(t, "11", p)
	p, ok = DigitToPattern(0, Dual)
	require.True(t, ok)
	assert.Equal(t, "00", p)
	p, ok = DigitToPattern(1, Single)
	require.True(t, ok)
	assert.Equal(t, "1", p)
	_, ok = DigitToPattern(5, Single)
	assert.False(t, ok)
}

func TestKind(t *testing.T) {
	for _, s := range []string{"single", "dual", "seven"} {
		k, err := ParseKind(s)
		require.NoError(t, err)
		assert.Equal(t, s, k.String())
	}
	_, err := ParseKind("three")
	assert.Error(t, err)
	assert.False(t, Kind(0).Valid())
}
