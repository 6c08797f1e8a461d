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
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cucumber/godog"

	"github.com/aamcrae/bpreader/lcd"
)

// decodeContext holds the state of one scenario.
type decodeContext struct {
	states []lcd.State
	digit  lcd.Digit
	cal    *lcd.Calibration
	img    *image.Gray
	src    Source
	res    *Result
	err    error
}

func (c *decodeContext) aSevenSegmentDigitWithStates(s string) error {
	c.states = nil
	for _, ch := range s {
		switch ch {
		case '1':
			c.states = append(c.states, lcd.On)
		case '0':
			c.states = append(c.states, lcd.Off)
		default:
			return fmt.Errorf("bad state %q", ch)
		}
	}
	return nil
}

func (c *decodeContext) theDigitIsDecoded() error {
	d, err := lcd.NewDecoder(nil)
	if err != nil {
		return err
	}
	c.digit = d.Decode(c.states)
	return nil
}

func (c *decodeContext) theDigitIs(v int) error {
	if !c.digit.Valid || c.digit.Value != v {
		return fmt.Errorf("expected %d, got %s", v, c.digit)
	}
	return nil
}

func (c *decodeContext) theDigitIsUndecodable() error {
	if c.digit.Valid {
		return fmt.Errorf("expected undecodable, got %s", c.digit)
	}
	return nil
}

func (c *decodeContext) theTestDisplay() error {
	c.cal = testCalibration()
	return nil
}

func (c *decodeContext) theTestDisplayWithSingleSegment() error {
	c.cal = testCalibration()
	d := &c.cal.Digits[6]
	d.Segments = d.Segments[:1]
	return nil
}

func (c *decodeContext) theDisplayShows(sys, dia, pul int) error {
	img, err := Synthesize(c.cal, values(sys, dia, pul), false)
	c.img = img
	return err
}

func (c *decodeContext) digitShowsPattern(id, pattern string) error {
	for i := range c.cal.Digits {
		if c.cal.Digits[i].ID == id {
			paintDigit(c.img, &c.cal.Digits[i], pattern, 20, 200)
			return nil
		}
	}
	return fmt.Errorf("no digit %s", id)
}

func (c *decodeContext) pulseHundredsHasIntensity(mean int) error {
	r := c.cal.Digits[6].Segments[0]
	draw.Draw(c.img, r, &image.Uniform{C: color.Gray{Y: uint8(mean)}}, image.Point{}, draw.Src)
	return nil
}

func (c *decodeContext) theCameraIsOffline() error {
	c.src = &imageSource{err: errors.New("connection refused")}
	return nil
}

func (c *decodeContext) thePhotoIsDecoded() error {
	r, err := New(c.cal)
	if err != nil {
		return err
	}
	c.res, c.err = r.Decode(c.img)
	return c.err
}

func (c *decodeContext) thePhotoIsRead() error {
	r, err := New(c.cal)
	if err != nil {
		return err
	}
	c.res, c.err = r.Read(context.Background(), c.src)
	return nil
}

func (c *decodeContext) theReadingIs(sys, dia, pul int) error {
	want := Reading{Systolic: sys, Diastolic: dia, Pulse: pul}
	if c.res.Reading != want {
		return fmt.Errorf("expected %v, got %v", want, c.res.Reading)
	}
	return nil
}

func (c *decodeContext) thePulseIs(v int) error {
	if c.res.Reading.Pulse != v {
		return fmt.Errorf("expected pulse %d, got %d", v, c.res.Reading.Pulse)
	}
	return nil
}

func (c *decodeContext) digitsAreUndecodable(n int) error {
	if c.res.Invalid != n {
		return fmt.Errorf("expected %d undecodable digits, got %d (%s)", n, c.res.Invalid, c.res.Text())
	}
	return nil
}

func (c *decodeContext) thereIsNoReading() error {
	if c.res != nil {
		return fmt.Errorf("unexpected reading %v", c.res.Reading)
	}
	return nil
}

func (c *decodeContext) theErrorIsAnAcquisitionFailure() error {
	if !errors.Is(c.err, ErrAcquisition) {
		return fmt.Errorf("expected acquisition failure, got %v", c.err)
	}
	return nil
}

func initializeScenario(sc *godog.ScenarioContext) {
	c := &decodeContext{}
	sc.Step(`^a seven segment digit with states "([01]+)"$`, c.aSevenSegmentDigitWithStates)
	sc.Step(`^the digit is decoded$`, c.theDigitIsDecoded)
	sc.Step(`^the digit is (\d)$`, c.theDigitIs)
	sc.Step(`^the digit is undecodable$`, c.theDigitIsUndecodable)
	sc.Step(`^the test display$`, c.theTestDisplay)
	sc.Step(`^the test display with a single segment pulse hundreds digit$`, c.theTestDisplayWithSingleSegment)
	sc.Step(`^the display shows (\d+)/(\d+)/(\d+)$`, c.theDisplayShows)
	sc.Step(`^digit "([^"]+)" shows the pattern "([01]+)"$`, c.digitShowsPattern)
	sc.Step(`^the pulse hundreds segment has intensity (\d+)$`, c.pulseHundredsHasIntensity)
	sc.Step(`^the camera is offline$`, c.theCameraIsOffline)
	sc.Step(`^the photo is decoded$`, c.thePhotoIsDecoded)
	sc.Step(`^the photo is read$`, c.thePhotoIsRead)
	sc.Step(`^the reading is (\d+)/(\d+)/(\d+)$`, c.theReadingIs)
	sc.Step(`^the pulse is (\d+)$`, c.thePulseIs)
	sc.Step(`^(\d+) digits are undecodable$`, c.digitsAreUndecodable)
	sc.Step(`^there is no reading$`, c.thereIsNoReading)
	sc.Step(`^the error is an acquisition failure$`, c.theErrorIsAnAcquisitionFailure)
}

func TestFeatures(t *testing.T) {
	entries, err := os.ReadDir("features")
	if err != nil {
		t.Fatalf("failed to read features directory: %v", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".feature") {
			continue
		}
		path := filepath.Join("features", e.Name())
		t.Run(e.Name(), func(t *testing.T) {
			suite := godog.TestSuite{
				ScenarioInitializer: initializeScenario,
				Options: &godog.Options{
					Format:   "progress",
					Paths:    []string{path},
					TestingT: t,
				},
			}
			if suite.Run() != 0 {
				t.Fatalf("non-zero status returned for %s", path)
			}
		})
	}
}
