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

// package lcd decodes the seven segment digits of a LCD or LED panel
// from a single channel image.
//
// Each digit is described by a fixed list of rectangles, one per segment,
// measured against a known image resolution. Decoding a digit consists of:
//   - sampling the mean intensity inside each segment rectangle
//   - converting each mean to an on/off state using a threshold and polarity
//   - looking up the resulting segment mask in a table for the digit's kind.
//
// Digits are then combined into integer values using their positional weights.
package lcd

import (
	"fmt"
	"sort"
	"strings"
)

// Segments of a 7 segment digit, in the order they are listed in
// the calibration (top, upper right, lower right, bottom, lower left,
// upper left, middle).
const (
	S_TM, M_TM = iota, 1 << iota // Top middle
	S_TR, M_TR = iota, 1 << iota // Top right
	S_BR, M_BR = iota, 1 << iota // Bottom right
	S_BM, M_BM = iota, 1 << iota // Bottom middle
	S_BL, M_BL = iota, 1 << iota // Bottom left
	S_TL, M_TL = iota, 1 << iota // Top left
	S_MM, M_MM = iota, 1 << iota // Middle
	SEGMENTS   = iota
)

// Kind is the number of segments a digit position carries.
type Kind int

const (
	Single Kind = 1        // One segment, digit is 0 or 1
	Dual   Kind = 2        // Two segments, digit is 0 or 1
	Seven  Kind = SEGMENTS // Full 7 segment digit
)

func (k Kind) String() string {
	switch k {
	case Single:
		return "single"
	case Dual:
		return "dual"
	case Seven:
		return "seven"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind converts a kind name to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "single", "1":
		return Single, nil
	case "dual", "2":
		return Dual, nil
	case "seven", "7":
		return Seven, nil
	}
	return 0, fmt.Errorf("unknown digit kind %q", s)
}

// Valid returns true if k is a supported kind.
func (k Kind) Valid() bool {
	return k == Single || k == Dual || k == Seven
}

// Table maps a segment bit mask to a digit value.
type Table map[int]int

// Patterns holds extra accepted patterns per kind. Each pattern is a string
// of '0' and '1' characters, one per segment in calibration order.
type Patterns map[Kind]map[string]int

// There are 128 possible values in a 7 segment digit, and only the
// ten digits are of interest. Some displays light an extra segment or two
// on a '1' depending on camera angle and lighting, so more than one mask
// may map to the same digit.
const ____ = 0

var sevenTable = Table{
	M_TM | M_TR | M_BR | M_BM | M_BL | M_TL | ____: 0,
	____ | M_TR | M_BR | ____ | ____ | ____ | ____: 1,
	____ | M_TR | M_BR | M_BM | M_BL | ____ | ____: 1, // Alternate '1'
	____ | M_TR | M_BR | M_BM | M_BL | ____ | M_MM: 1, // Alternate '1'
	M_TM | M_TR | ____ | M_BM | M_BL | ____ | M_MM: 2,
	M_TM | M_TR | M_BR | M_BM | ____ | ____ | M_MM: 3,
	____ | M_TR | M_BR | ____ | ____ | M_TL | M_MM: 4,
	M_TM | ____ | M_BR | M_BM | ____ | M_TL | M_MM: 5,
	M_TM | ____ | M_BR | M_BM | M_BL | M_TL | M_MM: 6,
	M_TM | M_TR | M_BR | ____ | ____ | ____ | ____: 7,
	M_TM | M_TR | M_BR | ____ | ____ | M_TL | ____: 7, // Alternate '7'
	M_TM | M_TR | M_BR | M_BM | M_BL | M_TL | M_MM: 8,
	M_TM | M_TR | M_BR | M_BM | ____ | M_TL | M_MM: 9,
}

// A single segment position is only ever blank or '1'.
var singleTable = Table{
	0: 0,
	1: 1,
}

// Two segment positions show '1' when either stroke registers.
var dualTable = Table{
	0: 0,
	1: 1,
	2: 1,
	3: 1,
}

func defaultTables() map[Kind]Table {
	return map[Kind]Table{
		Seven:  copyTable(sevenTable),
		Single: copyTable(singleTable),
		Dual:   copyTable(dualTable),
	}
}

func copyTable(t Table) Table {
	n := make(Table, len(t))
	for k, v := range t {
		n[k] = v
	}
	return n
}

// Decoder maps segment states to digits. A Decoder is not modified after
// it is created, so it may be shared between goroutines.
type Decoder struct {
	tables map[Kind]Table
}

// NewDecoder creates a decoder using the default tables, with the
// extra patterns added.
func NewDecoder(extra Patterns) (*Decoder, error) {
	d := &Decoder{tables: defaultTables()}
	// Add in a fixed order so that errors are repeatable.
	kinds := make([]int, 0, len(extra))
	for k := range extra {
		kinds = append(kinds, int(k))
	}
	sort.Ints(kinds)
	for _, k := range kinds {
		kind := Kind(k)
		if !kind.Valid() {
			return nil, fmt.Errorf("patterns: %v", kind)
		}
		for p, v := range extra[kind] {
			mask, err := ParsePattern(p, kind)
			if err != nil {
				return nil, err
			}
			if v < 0 || v > 9 {
				return nil, fmt.Errorf("pattern %s: digit %d out of range", p, v)
			}
			if old, ok := d.tables[kind][mask]; ok && old != v {
				return nil, fmt.Errorf("pattern %s (%v) already maps to %d", p, kind, old)
			}
			d.tables[kind][mask] = v
		}
	}
	return d, nil
}

// Decode looks up the segment states in the table for the kind implied
// by the number of states. Any unknown state, or a mask that is not
// in the table, results in an invalid digit. There is no attempt
// to find the closest match.
func (d *Decoder) Decode(states []State) Digit {
	t, ok := d.tables[Kind(len(states))]
	if !ok {
		return Digit{}
	}
	mask, ok := Mask(states)
	if !ok {
		return Digit{}
	}
	v, ok := t[mask]
	return Digit{Value: v, Valid: ok}
}

// Patterns returns the accepted patterns for the kind, mapped to their digit.
func (d *Decoder) Patterns(k Kind) map[string]int {
	m := make(map[string]int)
	for mask, v := range d.tables[k] {
		m[FormatPattern(mask, k)] = v
	}
	return m
}

// Mask builds the segment bit mask from the states.
// false is returned if any state is unknown.
func Mask(states []State) (int, bool) {
	var mask int
	for i, s := range states {
		switch s {
		case On:
			mask |= 1 << uint(i)
		case Off:
		default:
			return 0, false
		}
	}
	return mask, true
}

// ParsePattern converts a string of '0' and '1' to a segment mask.
func ParsePattern(p string, k Kind) (int, error) {
	if len(p) != int(k) {
		return 0, fmt.Errorf("pattern %q: expected %d segments for %v", p, int(k), k)
	}
	var mask int
	for i, c := range p {
		switch c {
		case '1':
			mask |= 1 << uint(i)
		case '0':
		default:
			return 0, fmt.Errorf("pattern %q: bad character %q", p, c)
		}
	}
	return mask, nil
}

// FormatPattern converts a mask to a string of '0' and '1'.
func FormatPattern(mask int, k Kind) string {
	b := make([]byte, int(k))
	for i := range b {
		if mask&(1<<uint(i)) != 0 {
			b[i] = '1'
		} else {
			b[i] = '0'
		}
	}
	return string(b)
}

// DigitToPattern returns the canonical pattern for a digit of the given kind.
// A seven segment digit uses the pattern with the least segments on.
// A reduced digit shows '1' with every stroke lit.
func DigitToPattern(v int, k Kind) (string, bool) {
	switch k {
	case Single, Dual:
		switch v {
		case 0:
			return FormatPattern(0, k), true
		case 1:
			return FormatPattern(1<<uint(k)-1, k), true
		}
		return "", false
	}
	t, ok := defaultTables()[k]
	if !ok {
		return "", false
	}
	best := -1
	for mask, dv := range t {
		if dv != v {
			continue
		}
		if best < 0 || onCount(mask) < onCount(best) || (onCount(mask) == onCount(best) && mask < best) {
			best = mask
		}
	}
	if best < 0 {
		return "", false
	}
	return FormatPattern(best, k), true
}

func onCount(mask int) int {
	var n int
	for ; mask != 0; mask &= mask - 1 {
		n++
	}
	return n
}
