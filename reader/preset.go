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
	"errors"
	"fmt"
	"image"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/aamcrae/bpreader/lcd"
)

// Preset is a threshold suggested from a photo showing a known reading.
type Preset struct {
	Threshold float64 // Midpoint of the on and off means
	OnMean    float64
	OnStdDev  float64
	OffMean   float64
	OffStdDev float64
	Margin    float64 // Gap between the closest on and off segments, negative if they overlap
	On, Off   int     // Number of segments sampled in each state
}

// Overlaps returns true if no single threshold separates every segment.
func (p *Preset) Overlaps() bool {
	return p.Margin <= 0
}

// SuggestThreshold samples every segment of the calibration in img, which must
// show the reading expect, and suggests a threshold that separates the
// segments that should be on from those that should be off.
// If blank is set, leading zeros of seven segment digits are expected to be unlit.
// Per-digit thresholds are ignored, the digit polarity is used to order the means.
func SuggestThreshold(cal *lcd.Calibration, img *image.Gray, expect Reading, blank bool) (*Preset, error) {
	b := img.Bounds()
	c, err := rescale(cal, b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}
	if b.Min != (image.Point{}) {
		img = &image.Gray{Pix: img.Pix, Stride: img.Stride, Rect: b.Sub(b.Min)}
	}
	values := expect.Values()
	var on, off []float64
	var polarity lcd.Polarity
	for _, g := range c.Groups() {
		v, ok := values[g]
		if !ok {
			return nil, fmt.Errorf("no expected value for %s", g)
		}
		leading := true
		for _, i := range byWeight(c, g) {
			d := &c.Digits[i]
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
			_, p := c.Levels(d)
			if polarity == 0 {
				polarity = p
			} else if p != polarity {
				return nil, fmt.Errorf("digit %s: mixed polarity", d.ID)
			}
			for s, r := range d.Segments {
				mean, ok := lcd.SampleRegion(img, r)
				if !ok {
					continue
				}
				if pattern[s] == '1' {
					on = append(on, mean)
				} else {
					off = append(off, mean)
				}
			}
		}
	}
	if len(on) == 0 || len(off) == 0 {
		return nil, errors.New("reading must light some segments and leave some unlit")
	}
	p := &Preset{On: len(on), Off: len(off)}
	p.OnMean, p.OnStdDev = stat.MeanStdDev(on, nil)
	p.OffMean, p.OffStdDev = stat.MeanStdDev(off, nil)
	p.Threshold = (p.OnMean + p.OffMean) / 2
	if polarity == lcd.BrightOn {
		p.Margin = slices.Min(on) - slices.Max(off)
	} else {
		p.Margin = slices.Min(off) - slices.Max(on)
	}
	return p, nil
}
