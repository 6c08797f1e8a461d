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

package config

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/aamcrae/bpreader/lcd"
)

// calibrationFile is the YAML form of a calibration.
type calibrationFile struct {
	Width     int                       `yaml:"width"`
	Height    int                       `yaml:"height"`
	Threshold *float64                  `yaml:"threshold"`
	Polarity  string                    `yaml:"polarity"`
	Patterns  map[string]map[string]int `yaml:"patterns,omitempty"`
	Digits    []digitFile               `yaml:"digits"`
}

type digitFile struct {
	ID        string   `yaml:"id"`
	Reading   string   `yaml:"reading"`
	Weight    int      `yaml:"weight"`
	Segments  [][]int  `yaml:"segments"`
	Threshold *float64 `yaml:"threshold,omitempty"`
	Polarity  string   `yaml:"polarity,omitempty"`
}

// ReadCalibration reads and validates a calibration file.
func ReadCalibration(name string) (*lcd.Calibration, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	c, err := DecodeCalibration(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return c, nil
}

// DecodeCalibration decodes and validates a YAML calibration.
// Unknown fields are rejected so that misspelt keys are not silently ignored.
func DecodeCalibration(r io.Reader) (*lcd.Calibration, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var cf calibrationFile
	if err := dec.Decode(&cf); err != nil {
		return nil, fmt.Errorf("%w: %w", lcd.ErrCalibration, err)
	}
	if cf.Threshold == nil {
		return nil, fmt.Errorf("%w: threshold not set", lcd.ErrCalibration)
	}
	c := &lcd.Calibration{
		Width:     cf.Width,
		Height:    cf.Height,
		Threshold: *cf.Threshold,
	}
	var err error
	if c.Polarity, err = lcd.ParsePolarity(cf.Polarity); err != nil {
		return nil, fmt.Errorf("%w: %w", lcd.ErrCalibration, err)
	}
	if len(cf.Patterns) != 0 {
		c.Patterns = make(lcd.Patterns)
		for k, p := range cf.Patterns {
			kind, err := lcd.ParseKind(k)
			if err != nil {
				return nil, fmt.Errorf("%w: patterns: %w", lcd.ErrCalibration, err)
			}
			c.Patterns[kind] = p
		}
	}
	for _, df := range cf.Digits {
		d := lcd.DigitSpec{
			ID:        df.ID,
			Group:     df.Reading,
			Weight:    df.Weight,
			Threshold: df.Threshold,
		}
		if len(df.Polarity) != 0 {
			if d.Polarity, err = lcd.ParsePolarity(df.Polarity); err != nil {
				return nil, fmt.Errorf("%w: digit %s: %w", lcd.ErrCalibration, df.ID, err)
			}
		}
		for i, s := range df.Segments {
			if len(s) != 4 {
				return nil, fmt.Errorf("%w: digit %s segment %d: expected 4 coordinates, got %d", lcd.ErrCalibration, df.ID, i, len(s))
			}
			d.Segments = append(d.Segments, lcd.NewRect(s[0], s[1], s[2], s[3]))
		}
		c.Digits = append(c.Digits, d)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// EncodeCalibration writes the calibration as YAML.
func EncodeCalibration(w io.Writer, c *lcd.Calibration) error {
	th := c.Threshold
	cf := calibrationFile{
		Width:     c.Width,
		Height:    c.Height,
		Threshold: &th,
		Polarity:  c.Polarity.String(),
	}
	if len(c.Patterns) != 0 {
		cf.Patterns = make(map[string]map[string]int)
		for k, p := range c.Patterns {
			cf.Patterns[k.String()] = p
		}
	}
	for _, d := range c.Digits {
		df := digitFile{
			ID:        d.ID,
			Reading:   d.Group,
			Weight:    d.Weight,
			Threshold: d.Threshold,
		}
		if d.Polarity != 0 {
			df.Polarity = d.Polarity.String()
		}
		for _, r := range d.Segments {
			df.Segments = append(df.Segments, rectCoords(r))
		}
		cf.Digits = append(cf.Digits, df)
	}
	var b bytes.Buffer
	enc := yaml.NewEncoder(&b)
	enc.SetIndent(2)
	if err := enc.Encode(&cf); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := w.Write(b.Bytes())
	return err
}

func rectCoords(r image.Rectangle) []int {
	return []int{r.Min.X, r.Min.Y, r.Max.X, r.Max.Y}
}
