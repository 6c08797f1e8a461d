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
	"math"
)

// NewRect creates a segment rectangle from two corners.
// The corners may be in any order, since hand annotated corners
// are not always top left and bottom right.
func NewRect(x1, y1, x2, y2 int) image.Rectangle {
	return image.Rectangle{
		Min: image.Point{X: min(x1, x2), Y: min(y1, y2)},
		Max: image.Point{X: max(x1, x2), Y: max(y1, y2)},
	}
}

// ScaleRect scales each coordinate independently, rounding to the
// nearest pixel, and normalises the result.
func ScaleRect(r image.Rectangle, sx, sy float64) image.Rectangle {
	return NewRect(scale(r.Min.X, sx), scale(r.Min.Y, sy), scale(r.Max.X, sx), scale(r.Max.Y, sy))
}

func scale(v int, s float64) int {
	return int(math.Round(float64(v) * s))
}
