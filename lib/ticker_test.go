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

package lib

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNext(t *testing.T) {
	tk := NewTicker(5 * time.Minute)
	now := time.Date(2025, 3, 4, 8, 31, 12, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 3, 4, 8, 35, 0, 0, time.UTC), tk.Next(now))
	assert.Equal(t, time.Date(2025, 3, 4, 8, 40, 0, 0, time.UTC), tk.Next(tk.Next(now)))
	assert.Equal(t, 5*time.Minute, tk.Tick())
}

func TestRun(t *testing.T) {
	tk := NewTicker(20 * time.Millisecond)
	var mu sync.Mutex
	var ticks []time.Time
	tk.AddCB(func(ctx context.Context, tm time.Time) {
		mu.Lock()
		defer mu.Unlock()
		ticks = append(ticks, tm)
	})
	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	err := tk.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, len(ticks), 3)
	for _, tm := range ticks {
		assert.Equal(t, tm, tm.Truncate(20*time.Millisecond))
	}
}
