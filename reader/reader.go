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

// package reader decodes a photograph of a blood pressure monitor into
// a systolic, diastolic and pulse reading, using a fixed calibration
// of the display's segment positions.
package reader

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strconv"
	"strings"

	"github.com/aamcrae/bpreader/lcd"
)

// Names of the readings that digits are grouped into.
const (
	Systolic  = "systolic"
	Diastolic = "diastolic"
	Pulse     = "pulse"
)

// State of a decode run.
type State int

const (
	Idle State = iota
	Sampling
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Sampling:
		return "sampling"
	case Done:
		return "done"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Reading is the final value triple.
type Reading struct {
	Systolic  int `json:"systolic"`
	Diastolic int `json:"diastolic"`
	Pulse     int `json:"pulse"`
}

// Get returns the value of the named reading.
func (r *Reading) Get(name string) (int, bool) {
	switch name {
	case Systolic:
		return r.Systolic, true
	case Diastolic:
		return r.Diastolic, true
	case Pulse:
		return r.Pulse, true
	}
	return 0, false
}

func (r *Reading) set(name string, v int) {
	switch name {
	case Systolic:
		r.Systolic = v
	case Diastolic:
		r.Diastolic = v
	case Pulse:
		r.Pulse = v
	}
}

func (r Reading) String() string {
	return fmt.Sprintf("%d/%d/%d", r.Systolic, r.Diastolic, r.Pulse)
}

// ParseReading parses a reading in the form "120/80/72".
func ParseReading(s string) (Reading, error) {
	var r Reading
	f := strings.Split(strings.TrimSpace(s), "/")
	if len(f) != 3 {
		return r, fmt.Errorf("reading %q: expected systolic/diastolic/pulse", s)
	}
	for i, name := range []string{Systolic, Diastolic, Pulse} {
		v, err := strconv.Atoi(strings.TrimSpace(f[i]))
		if err != nil || v < 0 {
			return r, fmt.Errorf("reading %q: bad %s value %q", s, name, f[i])
		}
		r.set(name, v)
	}
	return r, nil
}

// Values returns the reading as a map of group name to value.
func (r Reading) Values() map[string]int {
	return map[string]int{Systolic: r.Systolic, Diastolic: r.Diastolic, Pulse: r.Pulse}
}

// DigitResult is the diagnostic record of one decoded digit.
type DigitResult struct {
	ID        string
	Group     string
	Kind      lcd.Kind
	Weight    int
	Threshold float64
	Polarity  lcd.Polarity
	Digit     lcd.Digit
	Samples   []lcd.Sample
}

// States returns the segment states as a pattern string.
func (d *DigitResult) States() string {
	return lcd.States(lcd.SampleStates(d.Samples))
}

// Degenerate returns the number of segments that could not be sampled.
func (d *DigitResult) Degenerate() int {
	var n int
	for _, s := range d.Samples {
		if s.Degenerate() {
			n++
		}
	}
	return n
}

// Result holds the reading and the diagnostics of one decode.
type Result struct {
	State      State
	Reading    Reading
	Values     map[string]int // Every group, including ones other than the three readings
	Digits     []DigitResult
	Invalid    int      // Number of undecodable digits
	Degenerate int      // Number of segments that could not be sampled
	Filled     []string // Readings replaced by their default
	Width      int
	Height     int
}

// Clean returns true if every digit was decoded.
func (r *Result) Clean() bool {
	return r.Invalid == 0 && r.Degenerate == 0
}

// Text returns the decoded digits as a string, with '?' for
// undecodable digits, e.g "12?/80/072".
func (r *Result) Text() string {
	var b []byte
	var last string
	for i, d := range r.Digits {
		if i > 0 && d.Group != last {
			b = append(b, '/')
		}
		last = d.Group
		b = append(b, d.Digit.String()...)
	}
	return string(b)
}

// Source supplies images to be decoded.
type Source interface {
	Acquire(ctx context.Context) (*image.Gray, error)
}

// ErrAcquisition is matched by any error from a Source.
var ErrAcquisition = errors.New("image acquisition failed")

// ErrNoImage is wrapped when a Source returns neither an image nor an error.
var ErrNoImage = errors.New("no image")

// AcquireError is returned when a Source fails to provide an image.
type AcquireError struct {
	Source string
	Err    error
}

func (e *AcquireError) Error() string {
	return fmt.Sprintf("acquire %s: %v", e.Source, e.Err)
}

func (e *AcquireError) Unwrap() error {
	return e.Err
}

func (e *AcquireError) Is(target error) bool {
	return target == ErrAcquisition
}

// State is the terminal state of a run that could not get an image.
func (e *AcquireError) State() State {
	return Failed
}

// Reader decodes images using a calibration. A Reader holds no state that
// changes after it is created, so one Reader may be shared between goroutines.
type Reader struct {
	cal    *lcd.Calibration
	dec    *lcd.Decoder
	scaled map[image.Point]*lcd.Calibration
	policy Policy
	log    *slog.Logger
}

// Option configures a Reader.
type Option func(*options)

type options struct {
	log    *slog.Logger
	policy Policy
	sizes  []image.Point
}

// WithLogger sets the logger, the default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

// WithPolicy sets the fill policy for undecodable digits.
func WithPolicy(p Policy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithResolution rescales the calibration for images of w x h pixels when the
// Reader is created, so that a bad rescale is reported at startup.
func WithResolution(w, h int) Option {
	return func(o *options) {
		o.sizes = append(o.sizes, image.Pt(w, h))
	}
}

// New creates a Reader. Any problem with the calibration is returned
// as an error wrapping lcd.ErrCalibration.
func New(cal *lcd.Calibration, opts ...Option) (*Reader, error) {
	o := options{log: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if cal == nil {
		return nil, fmt.Errorf("%w: no calibration", lcd.ErrCalibration)
	}
	if err := cal.Validate(); err != nil {
		return nil, err
	}
	if err := o.policy.validate(cal); err != nil {
		return nil, err
	}
	dec, err := lcd.NewDecoder(cal.Patterns)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", lcd.ErrCalibration, err)
	}
	r := &Reader{
		cal:    cal,
		dec:    dec,
		scaled: make(map[image.Point]*lcd.Calibration),
		policy: o.policy,
		log:    o.log,
	}
	for _, sz := range o.sizes {
		c, err := rescale(cal, sz.X, sz.Y)
		if err != nil {
			return nil, err
		}
		r.scaled[sz] = c
	}
	return r, nil
}

// Calibration returns the calibration at its measured resolution.
func (r *Reader) Calibration() *lcd.Calibration {
	return r.cal
}

// CalibrationFor returns the calibration to use for an image of w x h pixels.
func (r *Reader) CalibrationFor(w, h int) (*lcd.Calibration, error) {
	if w == r.cal.Width && h == r.cal.Height {
		return r.cal, nil
	}
	if c, ok := r.scaled[image.Pt(w, h)]; ok {
		return c, nil
	}
	return rescale(r.cal, w, h)
}

func rescale(cal *lcd.Calibration, w, h int) (*lcd.Calibration, error) {
	c, err := cal.RescaleTo(w, h)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("rescale to %dx%d: %w", w, h, err)
	}
	return c, nil
}

// Read acquires an image from the source and decodes it.
// If the image cannot be acquired, an *AcquireError is returned and no Result.
func (r *Reader) Read(ctx context.Context, src Source) (*Result, error) {
	img, err := src.Acquire(ctx)
	if err == nil && img == nil {
		err = ErrNoImage
	}
	if err != nil {
		r.log.Warn("acquire failed", "source", sourceName(src), "error", err)
		return nil, &AcquireError{Source: sourceName(src), Err: err}
	}
	return r.Decode(img)
}

func sourceName(src Source) string {
	if s, ok := src.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", src)
}

// Decode samples and decodes every digit of the calibration, and assembles
// the readings. Segment rectangles are relative to the image bounds.
// Undecodable digits do not cause an error, they are counted in the Result.
// An error is only returned if there is no image, or the calibration cannot
// be rescaled to the image size.
func (r *Reader) Decode(img *image.Gray) (*Result, error) {
	if img == nil {
		return nil, &AcquireError{Source: "decode", Err: ErrNoImage}
	}
	b := img.Bounds()
	cal, err := r.CalibrationFor(b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}
	res := &Result{State: Idle, Width: b.Dx(), Height: b.Dy()}
	if b.Min != (image.Point{}) {
		// Sample in the image's own coordinate space.
		img = &image.Gray{Pix: img.Pix, Stride: img.Stride, Rect: b.Sub(b.Min)}
	}
	res.State = Sampling
	res.Digits = make([]DigitResult, len(cal.Digits))
	for i := range cal.Digits {
		d := &cal.Digits[i]
		th, p := cal.Levels(d)
		samples := lcd.ScanDigit(img, d, th, p)
		dr := &res.Digits[i]
		*dr = DigitResult{
			ID:        d.ID,
			Group:     d.Group,
			Kind:      d.Kind(),
			Weight:    d.Weight,
			Threshold: th,
			Polarity:  p,
			Digit:     r.dec.Decode(lcd.SampleStates(samples)),
			Samples:   samples,
		}
		res.Degenerate += dr.Degenerate()
		if !dr.Digit.Valid {
			res.Invalid++
		}
		if r.log.Enabled(context.Background(), slog.LevelDebug) {
			means := make([]float64, len(samples))
			for s := range samples {
				means[s] = samples[s].Mean
			}
			r.log.Debug("digit", "id", d.ID, "means", means, "states", dr.States(), "digit", dr.Digit.String())
		}
	}
	r.assemble(res, cal.Groups())
	res.State = Done
	if !res.Clean() {
		r.log.Info("unclean decode", "text", res.Text(), "invalid", res.Invalid, "degenerate", res.Degenerate)
	}
	return res, nil
}

// assemble builds the value of each group from its digits.
func (r *Reader) assemble(res *Result, groups []string) {
	res.Values = make(map[string]int, len(groups))
	for _, g := range groups {
		var digits []lcd.Digit
		var weights []int
		bad := false
		for _, d := range res.Digits {
			if d.Group != g {
				continue
			}
			digits = append(digits, d.Digit)
			weights = append(weights, d.Weight)
			bad = bad || !d.Digit.Valid
		}
		v := lcd.Assemble(digits, weights)
		if bad {
			if dv, ok := r.policy.fill(g); ok {
				v = dv
				res.Filled = append(res.Filled, g)
			}
		}
		res.Values[g] = v
		res.Reading.set(g, v)
	}
}
