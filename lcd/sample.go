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
)

// Sample is the scanned result of one segment.
type Sample struct {
	Rect  image.Rectangle // Region that was sampled
	Mean  float64         // Mean intensity (0-255)
	State State           // Segment state, Unknown if the region was empty
}

// Degenerate returns true if the region could not be sampled.
func (s Sample) Degenerate() bool {
	return s.State == Unknown
}

// SampleRegion returns the mean intensity of the pixels inside r.
// Min is inclusive and Max is exclusive. The region is clamped to the
// image bounds, and if nothing is left, 0 and false is returned.
func SampleRegion(img *image.Gray, r image.Rectangle) (float64, bool) {
	r = r.Canon().Intersect(img.Bounds())
	if r.Empty() {
		return 0, false
	}
	var acc int
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := img.Pix[img.PixOffset(r.Min.X, y):img.PixOffset(r.Max.X, y)]
		for _, p := range row {
			acc += int(p)
		}
	}
	return float64(acc) / float64(r.Dx()*r.Dy()), true
}

// ScanDigit samples each segment of the digit and converts the
// means to segment states using the threshold and polarity.
func ScanDigit(img *image.Gray, d *DigitSpec, threshold float64, p Polarity) []Sample {
	samples := make([]Sample, len(d.Segments))
	for i, r := range d.Segments {
		s := &samples[i]
		s.Rect = r
		mean, ok := SampleRegion(img, r)
		if !ok {
			// Leave state as Unknown.
			continue
		}
		s.Mean = mean
		s.State = ToState(mean, threshold, p)
	}
	return samples
}

// SampleStates extracts the states from the samples.
func SampleStates(samples []Sample) []State {
	st := make([]State, len(samples))
	for i := range samples {
		st[i] = samples[i].State
	}
	return st
}
