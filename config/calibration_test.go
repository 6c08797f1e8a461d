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

package config

import (
	"bytes"
	"image"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aamcrae/bpreader/lcd"
	"github.com/aamcrae/bpreader/reader"
)

func TestReadCalibrationTestdata(t *testing.T) {
	tests := []struct {
		file   string
		digits int
		kinds  map[lcd.Kind]int
		width  int
		pol    lcd.Polarity
	}{
		{"testdata/nine-dual.yaml", 9, map[lcd.Kind]int{lcd.Seven: 8, lcd.Dual: 1}, 1920, lcd.DarkOn},
		{"testdata/nine-single.yaml", 9, map[lcd.Kind]int{lcd.Seven: 8, lcd.Single: 1}, 1920, lcd.DarkOn},
		{"testdata/five.yaml", 5, map[lcd.Kind]int{lcd.Seven: 5}, 4096, lcd.DarkOn},
		{"testdata/bright.yaml", 9, map[lcd.Kind]int{lcd.Seven: 8, lcd.Single: 1}, 1920, lcd.BrightOn},
	}
	for _, tc := range tests {
		t.Run(tc.file, func(t *testing.T) {
			c, err := ReadCalibration(tc.file)
			require.NoError(t, err)
			assert.Len(t, c.Digits, tc.digits)
			assert.Equal(t, tc.width, c.Width)
			assert.Equal(t, tc.pol, c.Polarity)
			kinds := make(map[lcd.Kind]int)
			for i := range c.Digits {
				kinds[c.Digits[i].Kind()]++
			}
			assert.Equal(t, tc.kinds, kinds)
			_, err = reader.New(c)
			assert.NoError(t, err)
		})
	}
}

func TestFiveDigitRescale(t *testing.T) {
	c, err := ReadCalibration("testdata/five.yaml")
	require.NoError(t, err)
	assert.Equal(t, []string{reader.Systolic, reader.Diastolic}, c.Groups())
	r, err := reader.New(c, reader.WithResolution(1920, 1080))
	require.NoError(t, err)
	small, err := r.CalibrationFor(1920, 1080)
	require.NoError(t, err)
	// 3155 * 1920 / 4096 = 1478.9
	assert.Equal(t, 1479, small.Digits[0].Segments[0].Min.X)
}

func TestDecodeCalibration(t *testing.T) {
	const y = `
width: 640
height: 480
threshold: 71
polarity: dark
patterns:
  seven:
    "0000000": 0
digits:
  - id: p
    reading: pulse
    weight: 0
    threshold: 120
    polarity: bright
    segments:
      - [30, 40, 10, 20]
`
	c, err := DecodeCalibration(strings.NewReader(y))
	require.NoError(t, err)
	require.Len(t, c.Digits, 1)
	d := &c.Digits[0]
	assert.Equal(t, image.Rect(10, 20, 30, 40), d.Segments[0])
	assert.Equal(t, lcd.Single, d.Kind())
	th, p := c.Levels(d)
	assert.Equal(t, 120.0, th)
	assert.Equal(t, lcd.BrightOn, p)
	assert.Equal(t, map[string]int{"0000000": 0}, c.Patterns[lcd.Seven])
}

func TestDecodeCalibrationErrors(t *testing.T) {
	const base = "width: 640\nheight: 480\n"
	tests := []struct {
		name string
		y    string
	}{
		{"unknown field", base + "threshold: 71\npolarity: dark\ncolour: red\ndigits:\n  - {id: p, reading: pulse, segments: [[0, 0, 5, 5]]}\n"},
		{"no threshold", base + "polarity: dark\ndigits:\n  - {id: p, reading: pulse, segments: [[0, 0, 5, 5]]}\n"},
		{"no polarity", base + "threshold: 71\ndigits:\n  - {id: p, reading: pulse, segments: [[0, 0, 5, 5]]}\n"},
		{"bad digit polarity", base + "threshold: 71\npolarity: dark\ndigits:\n  - {id: p, reading: pulse, polarity: grey, segments: [[0, 0, 5, 5]]}\n"},
		{"short segment", base + "threshold: 71\npolarity: dark\ndigits:\n  - {id: p, reading: pulse, segments: [[0, 0, 5]]}\n"},
		{"three segments", base + "threshold: 71\npolarity: dark\ndigits:\n  - {id: p, reading: pulse, segments: [[0, 0, 5, 5], [0, 6, 5, 9], [0, 10, 5, 15]]}\n"},
		{"zero area", base + "threshold: 71\npolarity: dark\ndigits:\n  - {id: p, reading: pulse, segments: [[0, 0, 0, 5]]}\n"},
		{"bad kind", base + "threshold: 71\npolarity: dark\npatterns:\n  triple: {\"111\": 1}\ndigits:\n  - {id: p, reading: pulse, segments: [[0, 0, 5, 5]]}\n"},
		{"no resolution", "threshold: 71\npolarity: dark\ndigits:\n  - {id: p, reading: pulse, segments: [[0, 0, 5, 5]]}\n"},
		{"bad yaml", "width: [\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeCalibration(strings.NewReader(tc.y))
			assert.ErrorIs(t, err, lcd.ErrCalibration)
		})
	}
}

func TestReadCalibrationMissingFile(t *testing.T) {
	_, err := ReadCalibration("testdata/missing.yaml")
	assert.Error(t, err)
}

func TestEncodeCalibrationRoundTrip(t *testing.T) {
	c, err := ReadCalibration("testdata/nine-dual.yaml")
	require.NoError(t, err)
	th := 60.0
	c.Digits[3].Threshold = &th
	c.Digits[3].Polarity = lcd.BrightOn

	var b bytes.Buffer
	require.NoError(t, EncodeCalibration(&b, c))
	c2, err := DecodeCalibration(&b)
	require.NoError(t, err)
	assert.Equal(t, c, c2)
}
