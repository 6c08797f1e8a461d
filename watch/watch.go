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

// package watch periodically acquires a photo of the monitor from a
// source, decodes it, and records the reading.
package watch

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/aamcrae/bpreader/archive"
	"github.com/aamcrae/bpreader/csv"
	"github.com/aamcrae/bpreader/lib"
	"github.com/aamcrae/bpreader/metrics"
	"github.com/aamcrae/bpreader/reader"
)

// Event is the outcome of one sample.
type Event struct {
	Time       time.Time      `json:"time"`
	Reading    reader.Reading `json:"reading"`
	Text       string         `json:"text,omitempty"`
	Clean      bool           `json:"clean"`
	Filled     []string       `json:"filled,omitempty"`
	Violations []string       `json:"violations,omitempty"`
	Archived   string         `json:"archived,omitempty"`
	Error      string         `json:"error,omitempty"`
	Err        error          `json:"-"`
}

// NewEvent builds an event from a decode result.
func NewEvent(t time.Time, res *reader.Result, violations []string) Event {
	return Event{
		Time:       t,
		Reading:    res.Reading,
		Text:       res.Text(),
		Clean:      res.Clean(),
		Filled:     res.Filled,
		Violations: violations,
	}
}

// Watcher samples a source at a fixed interval.
type Watcher struct {
	reader  *reader.Reader
	source  reader.Source
	limits  reader.Limits
	csv     *csv.Writer
	sink    archive.Sink
	saveAll bool
	notify  []func(Event)
	log     *slog.Logger

	mu   sync.Mutex
	last *Event
}

type Option func(*Watcher)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) { w.log = l }
}

// WithLimits sets the plausibility limits checked on each reading.
func WithLimits(l reader.Limits) Option {
	return func(w *Watcher) { w.limits = l }
}

// WithCSV appends each decoded reading to the writer.
func WithCSV(c *csv.Writer) Option {
	return func(w *Watcher) { w.csv = c }
}

// WithArchive saves photos to the sink. If all is false, only photos
// that did not decode cleanly or failed the limits are saved.
func WithArchive(s archive.Sink, all bool) Option {
	return func(w *Watcher) {
		w.sink = s
		w.saveAll = all
	}
}

// OnEvent adds a callback invoked after every sample.
func OnEvent(f func(Event)) Option {
	return func(w *Watcher) { w.notify = append(w.notify, f) }
}

// New creates a watcher reading photos from src.
func New(r *reader.Reader, src reader.Source, opts ...Option) *Watcher {
	w := &Watcher{reader: r, source: src, log: slog.Default()}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Run samples the source each interval until the context is cancelled.
func (w *Watcher) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return errors.New("watch: interval must be positive")
	}
	t := lib.NewTicker(interval)
	t.AddCB(func(ctx context.Context, now time.Time) {
		w.Sample(ctx, now)
	})
	w.log.Info("watching", "source", w.source, "interval", interval.String())
	return t.Run(ctx)
}

// Sample acquires and decodes one photo, taken at t.
func (w *Watcher) Sample(ctx context.Context, t time.Time) Event {
	start := time.Now()
	ev := Event{Time: t}
	src := &keep{Source: w.source}
	res, err := w.reader.Read(ctx, src)
	if err != nil {
		ev.Error = err.Error()
		ev.Err = err
		if errors.Is(err, reader.ErrAcquisition) {
			metrics.AcquireFailed("watch")
		} else {
			w.log.Error("decode failed", "error", err)
			ev.Archived = w.archive(ctx, t, src.img)
		}
		w.publish(ev)
		return ev
	}
	violations := w.limits.Check(res.Reading)
	metrics.Decoded("watch", res, violations, time.Since(start))
	ev = NewEvent(t, res, violations)
	if len(violations) != 0 {
		w.log.Warn("implausible reading", "reading", res.Reading.String(), "limits", violations)
	}
	if w.saveAll || !res.Clean() || len(violations) != 0 {
		ev.Archived = w.archive(ctx, t, src.img)
	}
	if w.csv != nil {
		if err := w.csv.Write(t, res, violations); err != nil {
			w.log.Error("csv write", "error", err)
		}
	}
	w.log.Info("reading", "reading", res.Reading.String(), "text", ev.Text, "clean", ev.Clean)
	w.publish(ev)
	return ev
}

// Last returns the most recent event.
func (w *Watcher) Last() (Event, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.last == nil {
		return Event{}, false
	}
	return *w.last, true
}

// Close flushes and closes any CSV file.
func (w *Watcher) Close() error {
	if w.csv != nil {
		return w.csv.Close()
	}
	return nil
}

// keep holds on to the acquired image so that it can be archived.
type keep struct {
	reader.Source
	img *image.Gray
}

func (k *keep) Acquire(ctx context.Context) (*image.Gray, error) {
	img, err := k.Source.Acquire(ctx)
	k.img = img
	return img, err
}

func (k *keep) String() string {
	if s, ok := k.Source.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", k.Source)
}

func (w *Watcher) archive(ctx context.Context, t time.Time, img image.Image) string {
	if w.sink == nil {
		return ""
	}
	name, err := w.sink.Save(ctx, archive.Name(t), img)
	if err != nil {
		w.log.Error("archive failed", "error", err)
		return ""
	}
	w.log.Debug("archived", "name", name)
	return name
}

func (w *Watcher) publish(ev Event) {
	w.mu.Lock()
	w.last = &ev
	w.mu.Unlock()
	for _, f := range w.notify {
		f(ev)
	}
}
