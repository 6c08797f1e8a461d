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

// package acquire loads photos of the display from files or a network
// camera, and converts them to the single channel images that are decoded.
package acquire

import (
	"errors"
	"image"
	"io"
	"math"

	"github.com/disintegration/imaging"

	lcdimg "github.com/aamcrae/lcd"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ErrNoImage is returned when there is nothing to decode.
var ErrNoImage = errors.New("no image data")

// Decode reads an image, applying any EXIF orientation so that a phone
// photo is the right way up.
func Decode(r io.Reader) (image.Image, error) {
	return imaging.Decode(r, imaging.AutoOrientation(true))
}

// Open reads an image file, applying any EXIF orientation.
func Open(name string) (image.Image, error) {
	return imaging.Open(name, imaging.AutoOrientation(true))
}

// Rotate rotates the image clockwise by angle degrees.
// Multiples of 90 degrees are exact; other angles are drawn onto a
// canvas large enough to hold the rotated image.
func Rotate(img image.Image, angle float64) image.Image {
	a := math.Mod(angle, 360)
	if a < 0 {
		a += 360
	}
	switch a {
	case 0:
		return img
	case 90:
		return imaging.Rotate270(img)
	case 180:
		return imaging.Rotate180(img)
	case 270:
		return imaging.Rotate90(img)
	}
	return lcdimg.RotateImage(img, a)
}

// Gray converts the image to a single channel intensity image, using the
// ITU-R 601 luma weights. The result always has its origin at 0,0.
func Gray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Rect.Min == (image.Point{}) {
		return g
	}
	n := imaging.Grayscale(img)
	b := n.Bounds()
	g := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		src := n.Pix[y*n.Stride : y*n.Stride+b.Dx()*4]
		dst := g.Pix[y*g.Stride : y*g.Stride+b.Dx()]
		for x := range dst {
			dst[x] = src[x*4]
		}
	}
	return g
}

// Prepare rotates the image and converts it to gray.
func Prepare(img image.Image, angle float64) *image.Gray {
	return Gray(Rotate(img, angle))
}
