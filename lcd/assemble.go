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
)

// Assemble combines the digits into a single value, using weights as
// the power of ten of each digit. An invalid digit counts as 0, so that
// a partially unreadable number still yields a value.
func Assemble(digits []Digit, weights []int) int {
	if len(digits) != len(weights) {
		panic(fmt.Sprintf("lcd.Assemble: %d digits, %d weights", len(digits), len(weights)))
	}
	var v int
	for i, d := range digits {
		if d.Valid {
			v += d.Value * pow10(weights[i])
		}
	}
	return v
}

func pow10(n int) int {
	p := 1
	for ; n > 0; n-- {
		p *= 10
	}
	return p
}
