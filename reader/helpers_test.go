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

package reader

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/aamcrae/bpreader/lcd"
)

// sevenAt returns the segment rectangles of a digit with its top left corner at x,y.
func sevenAt(x, y int) []image.Rectangle {
	return []image.Rectangle{
		lcd.NewRect(x+20, y, x+60, y+14),
		lcd.NewRect(x+66, y+20, x+80, y+80),
		lcd.NewRect(x+66, y+100, x+80, y+160),
		lcd.NewRect(x+20, y+166, x+60, y+180),
		lcd.NewRect(x, y+100, x+14, y+160),
		lcd.NewRect(x, y+20, x+14, y+80),
		lcd.NewRect(x+20, y+83, x+60, y+97),
	}
}

// testCalibration is a 9 digit display at 1000x800, with a two segment
// pulse hundreds digit.
func testCalibration() *lcd.Calibration {
	col := func(c int) int { return 100 + c*120 }
	return &lcd.Calibration{
		Width:     1000,
		Height:    800,
		Threshold: 71,
		Polarity:  lcd.DarkOn,
		Digits: []lcd.DigitSpec{
			{ID: "sys-h", Group: Systolic, Weight: 2, Segments: sevenAt(col(0), 50)},
			{ID: "sys-t", Group: Systolic, Weight: 1, Segments: sevenAt(col(1), 50)},
			{ID: "sys-u", Group: Systolic, Weight: 0, Segments: sevenAt(col(2), 50)},
			{ID: "dia-h", Group: Diastolic, Weight: 2, Segments: sevenAt(col(0), 300)},
			{ID: "dia-t", Group: Diastolic, Weight: 1, Segments: sevenAt(col(1), 300)},
			{ID: "dia-u", Group: Diastolic, Weight: 0, Segments: sevenAt(col(2), 300)},
			{ID: "pul-h", Group: Pulse, Weight: 2, Segments: []image.Rectangle{
				lcd.NewRect(col(0)+66, 570, col(0)+80, 630),
				lcd.NewRect(col(0)+66, 650, col(0)+80, 710),
			}},
			{ID: "pul-t", Group: Pulse, Weight: 1, Segments: sevenAt(col(1), 550)},
			{ID: "pul-u", Group: Pulse, Weight: 0, Segments: sevenAt(col(2), 550)},
		},
	}
}

// paintDigit overwrites the segments of a digit with the pattern.
func paintDigit(img *image.Gray, d *lcd.DigitSpec, pattern string, on, off uint8) {
	for s, r := range d.Segments {
		c := off
		if pattern[s] == '1' {
			c = on
		}
		draw.Draw(img, r, &image.Uniform{C: color.Gray{Y: c}}, image.Point{}, draw.Src)
	}
}

func values(sys, dia, pul int) map[string]int {
	return map[string]int{Systolic: sys, Diastolic: dia, Pulse: pul}
}
