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
	"sort"
	"strings"

	"github.com/aamcrae/bpreader/lcd"
)

// Fill selects what happens to a reading that has an undecodable digit.
type Fill int

const (
	FillZero    Fill = iota // Undecodable digits count as 0
	FillDefault             // The whole reading is replaced by its default
)

func (f Fill) String() string {
	if f == FillDefault {
		return "default"
	}
	return "zero"
}

// ParseFill converts a fill name to a Fill.
func ParseFill(s string) (Fill, error) {
	switch strings.ToLower(s) {
	case "", "zero":
		return FillZero, nil
	case "default":
		return FillDefault, nil
	}
	return 0, fmt.Errorf("unknown fill policy %q", s)
}

// Policy controls how undecodable digits are handled.
type Policy struct {
	Fill     Fill
	Defaults map[string]int // Default value per reading, used with FillDefault
}

func (p Policy) fill(group string) (int, bool) {
	if p.Fill != FillDefault {
		return 0, false
	}
	v, ok := p.Defaults[group]
	return v, ok
}

func (p Policy) validate(cal *lcd.Calibration) error {
	if p.Fill != FillDefault {
		return nil
	}
	for _, g := range cal.Groups() {
		if _, ok := p.Defaults[g]; !ok {
			return fmt.Errorf("%w: fill policy has no default for %s", lcd.ErrCalibration, g)
		}
	}
	return nil
}

// Range is an inclusive range of plausible values.
type Range struct {
	Min int `mapstructure:"min" json:"min"`
	Max int `mapstructure:"max" json:"max"`
}

// Limits holds the plausible range of each reading.
type Limits map[string]Range

// DefaultLimits returns physiologically plausible ranges.
func DefaultLimits() Limits {
	return Limits{
		Systolic:  {Min: 70, Max: 200},
		Diastolic: {Min: 40, Max: 130},
		Pulse:     {Min: 40, Max: 180},
	}
}

// Check returns a description of every reading that is out of range.
// An empty result means the reading is plausible.
func (l Limits) Check(r Reading) []string {
	names := make([]string, 0, len(l))
	for n := range l {
		names = append(names, n)
	}
	sort.Strings(names)
	var v []string
	for _, n := range names {
		val, ok := r.Get(n)
		if !ok {
			continue
		}
		rg := l[n]
		if val < rg.Min || val > rg.Max {
			v = append(v, fmt.Sprintf("%s %d outside %d-%d", n, val, rg.Min, rg.Max))
		}
	}
	return v
}
