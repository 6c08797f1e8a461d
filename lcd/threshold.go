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
	"fmt"
	"strings"
)

// Polarity selects whether darker or lighter regions are considered 'on'.
type Polarity int

const (
	DarkOn   Polarity = iota + 1 // Darker values are 'on' e.g when a LCD image is scanned.
	BrightOn                     // Lighter values are 'on' e.g when a LED image is scanned.
)

func (p Polarity) Valid() bool {
	return p == DarkOn || p == BrightOn
}

func (p Polarity) String() string {
	switch p {
	case DarkOn:
		return "dark"
	case BrightOn:
		return "bright"
	}
	return ""
}

// ParsePolarity converts a polarity name to a Polarity.
func ParsePolarity(s string) (Polarity, error) {
	switch strings.ToLower(s) {
	case "dark", "dark-is-on", "lcd":
		return DarkOn, nil
	case "bright", "bright-is-on", "led":
		return BrightOn, nil
	}
	return 0, fmt.Errorf("unknown polarity %q", s)
}

// State is the state of one segment.
type State int

const (
	Unknown State = iota // Not sampled, or region was empty
	Off
	On
)

func (s State) String() string {
	switch s {
	case Off:
		return "0"
	case On:
		return "1"
	}
	return "?"
}

// ToState converts a mean intensity to a segment state.
// A mean equal to the threshold is always 'off'.
func ToState(mean, threshold float64, p Polarity) State {
	switch p {
	case DarkOn:
		if mean < threshold {
			return On
		}
	case BrightOn:
		if mean > threshold {
			return On
		}
	default:
		return Unknown
	}
	return Off
}

// States formats a list of states as a string e.g "1111110".
func States(states []State) string {
	var b strings.Builder
	for _, s := range states {
		b.WriteString(s.String())
	}
	return b.String()
}
