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
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testCalibration returns a 5 digit calibration measured at 4096x2304,
// with corners given in mixed order.
func testCalibration() *Calibration {
	seven := func(x, y int) []image.Rectangle {
		return []image.Rectangle{
			NewRect(x+20, y, x+60, y+15),
			NewRect(x+80, y+20, x+65, y+80),
			NewRect(x+65, y+100, x+80, y+160),
			NewRect(x+20, y+165, x+60, y+180),
			NewRect(x, y+100, x+15, y+160),
			NewRect(x, y+20, x+15, y+80),
			NewRect(x+20, y+83, x+60, y+97),
		}
	}
	return &Calibration{
		Width:     4096,
		Height:    2304,
		Threshold: 71,
		Polarity:  DarkOn,
		Digits: []DigitSpec{
			{ID: "sys-1", Group: "systolic", Weight: 2, Segments: []image.Rectangle{NewRect(1801, 1211, 1833, 1372)}},
			{ID: "sys-2", Group: "systolic", Weight: 1, Segments: seven(1900, 1200)},
			{ID: "sys-3", Group: "systolic", Weight: 0, Segments: seven(2017, 1200)},
			{ID: "dia-1", Group: "diastolic", Weight: 1, Segments: seven(1900, 1500)},
			{ID: "dia-2", Group: "diastolic", Weight: 0, Segments: seven(2017, 1500)},
		},
	}
}

func TestNewRect(t *testing.T) {
	r := NewRect(30, 40, 10, 20)
	assert.Equal(t, image.Rect(10, 20, 30, 40), r)
	assert.Equal(t, r, NewRect(10, 20, 30, 40))
}

func TestRescaleIdentity(t *testing.T) {
	c := testCalibration()
	n, err := Rescale(c, c.Width, c.Height, c.Width, c.Height)
	require.NoError(t, err)
	assert.Equal(t, c.Digits, n.Digits)

	same, err := c.RescaleTo(c.Width, c.Height)
	require.NoError(t, err)
	assert.Same(t, c, same)
}

func TestRescaleRoundTrip(t *testing.T) {
	c := testCalibration()
	for _, size := range []image.Point{{1920, 1080}, {3000, 2000}, {4096, 2304}} {
		down, err := c.RescaleTo(size.X, size.Y)
		require.NoError(t, err)
		assert.Equal(t, size.X, down.Width)
		assert.Equal(t, size.Y, down.Height)
		back, err := down.RescaleTo(c.Width, c.Height)
		require.NoError(t, err)
		for i, d := range c.Digits {
			for s, r := range d.Segments {
				b := back.Digits[i].Segments[s]
				assert.InDelta(t, r.Min.X, b.Min.X, 1, "%s/%d %v %v", d.ID, s, r, b)
				assert.InDelta(t, r.Min.Y, b.Min.Y, 1, "%s/%d %v %v", d.ID, s, r, b)
				assert.InDelta(t, r.Max.X, b.Max.X, 1, "%s/%d %v %v", d.ID, s, r, b)
				assert.InDelta(t, r.Max.Y, b.Max.Y, 1, "%s/%d %v %v", d.ID, s, r, b)
			}
		}
	}
}

func TestRescaleDoesNotModifySource(t *testing.T) {
	c := testCalibration()
	orig := c.Digits[1].Segments[0]
	_, err := c.RescaleTo(1920, 1080)
	require.NoError(t, err)
	assert.Equal(t, orig, c.Digits[1].Segments[0])
}

func TestRescaleZeroSource(t *testing.T) {
	c := testCalibration()
	_, err := Rescale(c, 0, 1080, 1920, 1080)
	assert.ErrorIs(t, err, ErrCalibration)
	_, err = Rescale(c, 1920, 0, 1920, 1080)
	assert.ErrorIs(t, err, ErrCalibration)
}

func TestRescaleCollapse(t *testing.T) {
	c := testCalibration()
	n, err := c.RescaleTo(4, 2)
	require.NoError(t, err)
	assert.ErrorIs(t, n.Validate(), ErrCalibration)
}

func TestValidate(t *testing.T) {
	require.NoError(t, testCalibration().Validate())
	tests := []struct {
		name   string
		modify func(c *Calibration)
	}{
		{"resolution", func(c *Calibration) { c.Width = 0 }},
		{"polarity", func(c *Calibration) { c.Polarity = 0 }},
		{"no digits", func(c *Calibration) { c.Digits = nil }},
		{"no id", func(c *Calibration) { c.Digits[0].ID = "" }},
		{"duplicate", func(c *Calibration) { c.Digits[1].ID = c.Digits[0].ID }},
		{"group", func(c *Calibration) { c.Digits[2].Group = "" }},
		{"segments", func(c *Calibration) { c.Digits[1].Segments = c.Digits[1].Segments[:3] }},
		{"weight", func(c *Calibration) { c.Digits[0].Weight = -1 }},
		{"digit polarity", func(c *Calibration) { c.Digits[0].Polarity = 7 }},
		{"empty rect", func(c *Calibration) { c.Digits[0].Segments[0] = NewRect(5, 5, 5, 20) }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := testCalibration()
			tc.modify(c)
			assert.ErrorIs(t, c.Validate(), ErrCalibration)
		})
	}
}

func TestLevels(t *testing.T) {
	c := testCalibration()
	th, p := c.Levels(&c.Digits[0])
	assert.Equal(t, 71.0, th)
	assert.Equal(t, DarkOn, p)
	override := 150.0
	c.Digits[0].Threshold = &override
	c.Digits[0].Polarity = BrightOn
	th, p = c.Levels(&c.Digits[0])
	assert.Equal(t, 150.0, th)
	assert.Equal(t, BrightOn, p)
}

func TestGroups(t *testing.T) {
	assert.Equal(t, []string{"systolic", "diastolic"}, testCalibration().Groups())
}
