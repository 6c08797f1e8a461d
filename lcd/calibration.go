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
	"errors"
	"fmt"
	"image"
)

// ErrCalibration is wrapped by all calibration configuration errors.
var ErrCalibration = errors.New("invalid calibration")

// Calibration holds the digit layout of one display, as measured against
// an image of Width x Height pixels.
// A Calibration is treated as read-only once it has been loaded;
// Rescale returns a new copy.
type Calibration struct {
	Width     int         // Measured image width
	Height    int         // Measured image height
	Threshold float64     // Default on/off threshold
	Polarity  Polarity    // Default polarity
	Digits    []DigitSpec // Digit positions, in display order
	Patterns  Patterns    // Extra accepted patterns
}

// Validate checks the calibration, returning an error wrapping ErrCalibration
// if it cannot be used for decoding.
func (c *Calibration) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: resolution %dx%d", ErrCalibration, c.Width, c.Height)
	}
	if !c.Polarity.Valid() {
		return fmt.Errorf("%w: polarity not set", ErrCalibration)
	}
	if len(c.Digits) == 0 {
		return fmt.Errorf("%w: no digits", ErrCalibration)
	}
	ids := make(map[string]struct{})
	for i := range c.Digits {
		d := &c.Digits[i]
		if len(d.ID) == 0 {
			return fmt.Errorf("%w: digit %d has no id", ErrCalibration, i)
		}
		if _, ok := ids[d.ID]; ok {
			return fmt.Errorf("%w: duplicate digit %s", ErrCalibration, d.ID)
		}
		ids[d.ID] = struct{}{}
		if len(d.Group) == 0 {
			return fmt.Errorf("%w: digit %s has no reading", ErrCalibration, d.ID)
		}
		if !d.Kind().Valid() {
			return fmt.Errorf("%w: digit %s has %d segments (expected 1, 2 or 7)", ErrCalibration, d.ID, len(d.Segments))
		}
		if d.Weight < 0 {
			return fmt.Errorf("%w: digit %s has negative weight %d", ErrCalibration, d.ID, d.Weight)
		}
		if d.Polarity != 0 && !d.Polarity.Valid() {
			return fmt.Errorf("%w: digit %s has bad polarity", ErrCalibration, d.ID)
		}
		for s, r := range d.Segments {
			if r.Dx() <= 0 || r.Dy() <= 0 {
				return fmt.Errorf("%w: digit %s segment %d is empty (%v)", ErrCalibration, d.ID, s, r)
			}
		}
	}
	return nil
}

// Levels returns the threshold and polarity to use for the digit,
// taking any per-digit override into account.
func (c *Calibration) Levels(d *DigitSpec) (float64, Polarity) {
	th := c.Threshold
	if d.Threshold != nil {
		th = *d.Threshold
	}
	p := c.Polarity
	if d.Polarity != 0 {
		p = d.Polarity
	}
	return th, p
}

// Groups returns the distinct group names, in order of first appearance.
func (c *Calibration) Groups() []string {
	var g []string
	seen := make(map[string]bool)
	for _, d := range c.Digits {
		if !seen[d.Group] {
			seen[d.Group] = true
			g = append(g, d.Group)
		}
	}
	return g
}

// Rescale returns a copy of the calibration with every segment rectangle
// scaled from a fromW x fromH image to a toW x toH image.
// The only error is a zero source dimension. Scaling to a size that collapses
// rectangles is caught by Validate.
func Rescale(c *Calibration, fromW, fromH, toW, toH int) (*Calibration, error) {
	if fromW == 0 || fromH == 0 {
		return nil, fmt.Errorf("%w: cannot rescale from %dx%d", ErrCalibration, fromW, fromH)
	}
	sx := float64(toW) / float64(fromW)
	sy := float64(toH) / float64(fromH)
	nc := *c
	nc.Width = toW
	nc.Height = toH
	nc.Digits = make([]DigitSpec, len(c.Digits))
	for i, d := range c.Digits {
		nd := d
		nd.Segments = make([]image.Rectangle, len(d.Segments))
		for s, r := range d.Segments {
			nd.Segments[s] = ScaleRect(r, sx, sy)
		}
		nc.Digits[i] = nd
	}
	return &nc, nil
}

// RescaleTo rescales the calibration from its measured resolution.
// If the resolution is unchanged the calibration itself is returned.
func (c *Calibration) RescaleTo(w, h int) (*Calibration, error) {
	if w == c.Width && h == c.Height {
		return c, nil
	}
	return Rescale(c, c.Width, c.Height, w, h)
}
