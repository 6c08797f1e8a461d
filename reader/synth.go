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
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sort"

	"github.com/aamcrae/bpreader/lcd"
)

// Synthesize paints an image of the display described by the calibration,
// showing the values of each group. If blank is set, leading zeros of
// seven segment digits are left unlit as a real display would show them.
// The image is used to check a calibration and to build test images.
func Synthesize(cal *lcd.Calibration, values map[string]int, blank bool) (*image.Gray, error) {
	img := image.NewGray(image.Rect(0, 0, cal.Width, cal.Height))
	_, bg := levels(cal.Threshold, cal.Polarity)
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.Gray{Y: bg}}, image.Point{}, draw.Src)
	for _, g := range cal.Groups() {
		v, ok := values[g]
		if !ok {
			return nil, fmt.Errorf("no value for %s", g)
		}
		if v < 0 {
			return nil, fmt.Errorf("%s: negative value %d", g, v)
		}
		// Highest weight first, so that leading zeros can be found.
		leading := true
		for _, i := range byWeight(cal, g) {
			d := &cal.Digits[i]
			dv := (v / pow10(d.Weight)) % 10
			pattern, ok := lcd.DigitToPattern(dv, d.Kind())
			if !ok {
				return nil, fmt.Errorf("%s: digit %s cannot show %d", g, d.ID, dv)
			}
			if dv != 0 || d.Weight == 0 {
				leading = false
			}
			if leading && blank && d.Kind() == lcd.Seven {
				pattern = lcd.FormatPattern(0, lcd.Seven)
			}
			on, off := levels(cal.Levels(d))
			for s, r := range d.Segments {
				c := off
				if pattern[s] == '1' {
					c = on
				}
				draw.Draw(img, r, &image.Uniform{C: color.Gray{Y: c}}, image.Point{}, draw.Src)
			}
		}
	}
	return img, nil
}

// levels returns the intensities used for lit and unlit segments.
func levels(threshold float64, p lcd.Polarity) (on, off uint8) {
	lo := uint8(threshold / 2)
	hi := uint8((threshold + 255) / 2)
	if p == lcd.BrightOn {
		return hi, lo
	}
	return lo, hi
}

// byWeight returns the indices of the group's digits, highest weight first.
func byWeight(cal *lcd.Calibration, g string) []int {
	var idx []int
	for i := range cal.Digits {
		if cal.Digits[i].Group == g {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return cal.Digits[idx[a]].Weight > cal.Digits[idx[b]].Weight
	})
	return idx
}

func pow10(n int) int {
	p := 1
	for ; n > 0; n-- {
		p *= 10
	}
	return p
}
