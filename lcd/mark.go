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

	"github.com/fogleman/gg"
)

// MarkSamples draws the segment rectangles over a copy of the image.
// Segments that are on are filled red, segments that are off are
// outlined green, and degenerate segments are outlined yellow.
// Digits that could not be decoded are boxed in white.
func MarkSamples(img image.Image, scans [][]Sample, digits []Digit) image.Image {
	c := gg.NewContextForImage(img)
	c.SetLineWidth(2)
	for i, samples := range scans {
		for _, s := range samples {
			x, y := float64(s.Rect.Min.X), float64(s.Rect.Min.Y)
			w, h := float64(s.Rect.Dx()), float64(s.Rect.Dy())
			c.DrawRectangle(x, y, w, h)
			switch s.State {
			case On:
				c.SetRGBA255(255, 0, 0, 96)
				c.FillPreserve()
				c.SetRGB255(255, 0, 0)
			case Off:
				c.SetRGB255(0, 255, 0)
			default:
				c.SetRGB255(255, 255, 0)
			}
			c.Stroke()
		}
		if i < len(digits) && !digits[i].Valid {
			if bb, ok := bounds(samples); ok {
				c.SetRGB255(255, 255, 255)
				c.DrawRectangle(float64(bb.Min.X-3), float64(bb.Min.Y-3), float64(bb.Dx()+6), float64(bb.Dy()+6))
				c.Stroke()
			}
		}
	}
	return c.Image()
}

// bounds returns the rectangle enclosing all the samples.
func bounds(samples []Sample) (image.Rectangle, bool) {
	if len(samples) == 0 {
		return image.Rectangle{}, false
	}
	bb := samples[0].Rect
	for _, s := range samples[1:] {
		bb = bb.Union(s.Rect)
	}
	return bb, true
}
