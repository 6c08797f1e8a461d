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
	"strconv"
)

// DigitSpec describes one digit position of the display.
// The segment rectangles are absolute pixel locations in an image
// of the calibration's resolution.
type DigitSpec struct {
	ID        string            // Identifier e.g "systolic-hundreds"
	Group     string            // Name of the value this digit contributes to
	Weight    int               // Power of ten of this position
	Segments  []image.Rectangle // One rectangle per segment
	Threshold *float64          // Optional override of the calibration threshold
	Polarity  Polarity          // Optional override of the calibration polarity
}

// Kind returns the kind of digit, derived from the number of segments.
func (d *DigitSpec) Kind() Kind {
	return Kind(len(d.Segments))
}

// Digit is the decoded value of one digit position.
// Valid is false if the segment pattern was not recognised.
type Digit struct {
	Value int
	Valid bool
}

func (d Digit) String() string {
	if !d.Valid {
		return "?"
	}
	return strconv.Itoa(d.Value)
}
