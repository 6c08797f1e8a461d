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
	"log/slog"
	"time"
)

// The callbacks are passed the time the ticker ticked over
type Callback func(context.Context, time.Time)

// Ticker invokes callbacks at the specified period (e.g every 5 minutes),
// aligned to the wall clock so that a 5 minute ticker fires on 00, 05, 10 etc.
type Ticker struct {
	tick      time.Duration // Interval duration
	callbacks []Callback    // List of callbacks
}

// NewTicker creates and initialises a new ticker
func NewTicker(tick time.Duration) *Ticker {
	return &Ticker{tick: tick}
}

// AddCB adds a callback to this ticker's callbacks
func (t *Ticker) AddCB(cb Callback) {
	t.callbacks = append(t.callbacks, cb)
}

// Tick returns the interval duration for this ticker.
func (t *Ticker) Tick() time.Duration {
	return t.tick
}

// Next returns the next time the ticker will tick over after now.
func (t *Ticker) Next(now time.Time) time.Time {
	return now.Add(t.tick).Truncate(t.tick)
}

// Run invokes the callbacks each time the interval ticks over, until
// the context is cancelled. The callbacks are run in order on the
// caller's goroutine, so a slow callback delays the next tick.
func (t *Ticker) Run(ctx context.Context) error {
	slog.Debug("ticker started", "interval", t.tick.String())
	for {
		// Calculate the next time an event should be sent, and
		// sleep until then.
		now := time.Now()
		next := t.Next(now)
		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		for _, cb := range t.callbacks {
			cb(ctx, next)
		}
	}
}
