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

// package eval measures how well a calibration reads a set of photos
// with known readings.
package eval

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/arbovm/levenshtein"
	"github.com/codycollier/wer"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"

	"github.com/aamcrae/bpreader/acquire"
	"github.com/aamcrae/bpreader/reader"
)

// Photo is one labelled photo.
type Photo struct {
	File   string
	Expect reader.Reading
}

type labelFile struct {
	Rotate float64 `yaml:"rotate"`
	Photos []struct {
		File    string `yaml:"file"`
		Reading string `yaml:"reading"`
	} `yaml:"photos"`
}

// Set is a labelled set of photos.
type Set struct {
	Rotate float64 // Rotation applied to every photo
	Photos []Photo
}

// LoadSet reads a label file. Photo paths are relative to the
// directory holding the file.
func LoadSet(name string) (*Set, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	s, err := DecodeSet(f, filepath.Dir(name))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return s, nil
}

// DecodeSet decodes a label file, resolving relative photo paths against dir.
func DecodeSet(r io.Reader, dir string) (*Set, error) {
	var lf labelFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&lf); err != nil {
		return nil, err
	}
	if len(lf.Photos) == 0 {
		return nil, errors.New("no photos")
	}
	s := &Set{Rotate: lf.Rotate}
	for i, p := range lf.Photos {
		if len(p.File) == 0 {
			return nil, fmt.Errorf("photo %d: no file", i)
		}
		exp, err := reader.ParseReading(p.Reading)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.File, err)
		}
		fn := p.File
		if !filepath.IsAbs(fn) {
			fn = filepath.Join(dir, fn)
		}
		s.Photos = append(s.Photos, Photo{File: fn, Expect: exp})
	}
	return s, nil
}

// Outcome is the result of decoding one photo.
type Outcome struct {
	Photo
	Got      reader.Reading
	Text     string // Decoded digits, with '?' for undecodable ones
	Clean    bool
	Correct  bool
	Distance int   // Edit distance between the expected and decoded reading
	Err      error // Acquisition or decode failure
}

// Report summarises the decoding of a set.
type Report struct {
	Outcomes  []Outcome
	Correct   int
	Failed    int     // Photos that could not be decoded at all
	Accuracy  float64 // Fraction of photos read exactly
	CER       float64 // Digit edit distance over expected digits
	WER       float64 // Wrong readings over all readings
	MeanError map[string]float64
	StdDev    map[string]float64
}

// Run decodes every photo of the set with the given number of workers.
func Run(ctx context.Context, r *reader.Reader, s *Set, workers int, log *slog.Logger) *Report {
	if log == nil {
		log = slog.Default()
	}
	out := make([]Outcome, len(s.Photos))
	pool := NewPool(workers)
	pool.Start()
	for i, p := range s.Photos {
		i, p := i, p
		pool.Submit(func() {
			out[i] = decode(ctx, r, p, s.Rotate)
			o := &out[i]
			if o.Err != nil {
				log.Warn("eval failed", "file", p.File, "error", o.Err)
			} else if !o.Correct {
				log.Info("eval mismatch", "file", p.File, "expect", p.Expect.String(), "got", o.Text)
			}
		})
	}
	pool.Wait()
	pool.Close()
	return Summarise(out)
}

func decode(ctx context.Context, r *reader.Reader, p Photo, rotate float64) Outcome {
	o := Outcome{Photo: p}
	res, err := r.Read(ctx, &acquire.File{Path: p.File, Rotate: rotate})
	if err != nil {
		o.Err = err
		o.Distance = len(digits(p.Expect))
		return o
	}
	o.Got = res.Reading
	o.Text = res.Text()
	o.Clean = res.Clean()
	o.Correct = o.Clean && o.Got == p.Expect
	o.Distance = levenshtein.Distance(digits(p.Expect), digits(o.Got))
	if !o.Clean {
		// Undecodable digits are errors even if the fill policy guessed right.
		o.Distance = max(o.Distance, strings.Count(o.Text, "?"))
	}
	return o
}

func digits(r reader.Reading) string {
	return strings.ReplaceAll(r.String(), "/", "")
}

func fields(r reader.Reading) []string {
	return strings.Split(r.String(), "/")
}

// Summarise computes the statistics over a list of outcomes.
func Summarise(out []Outcome) *Report {
	rep := &Report{Outcomes: out, MeanError: map[string]float64{}, StdDev: map[string]float64{}}
	if len(out) == 0 {
		return rep
	}
	names := []string{reader.Systolic, reader.Diastolic, reader.Pulse}
	errs := make(map[string][]float64)
	var dist, chars, wrong, words int
	for i := range out {
		o := &out[i]
		chars += len(digits(o.Expect))
		dist += o.Distance
		if o.Correct {
			rep.Correct++
		}
		ref := fields(o.Expect)
		if o.Err != nil {
			rep.Failed++
			wrong += len(ref)
			words += len(ref)
			continue
		}
		hyp := fields(o.Got)
		if !o.Clean {
			hyp = strings.Split(o.Text, "/")
		}
		rate, _ := wer.WER(ref, hyp)
		wrong += int(math.Round(rate * float64(len(ref))))
		words += len(ref)
		exp, got := o.Expect.Values(), o.Got.Values()
		for _, name := range names {
			d := got[name] - exp[name]
			if d < 0 {
				d = -d
			}
			errs[name] = append(errs[name], float64(d))
		}
	}
	rep.Accuracy = float64(rep.Correct) / float64(len(out))
	if chars > 0 {
		rep.CER = float64(dist) / float64(chars)
	}
	if words > 0 {
		rep.WER = float64(wrong) / float64(words)
	}
	for _, name := range names {
		if e := errs[name]; len(e) > 0 {
			rep.MeanError[name], rep.StdDev[name] = stat.MeanStdDev(e, nil)
		}
	}
	return rep
}

// Write prints the report as a table.
func (rep *Report) Write(w io.Writer) {
	for _, o := range rep.Outcomes {
		status := "ok"
		switch {
		case o.Err != nil:
			status = "error: " + o.Err.Error()
		case !o.Correct:
			status = fmt.Sprintf("got %s (%s), distance %d", o.Got, o.Text, o.Distance)
		}
		fmt.Fprintf(w, "%-40s %-12s %s\n", filepath.Base(o.File), o.Expect, status)
	}
	fmt.Fprintf(w, "photos %d, correct %d, failed %d, accuracy %.1f%%, CER %.3f, WER %.3f\n",
		len(rep.Outcomes), rep.Correct, rep.Failed, rep.Accuracy*100, rep.CER, rep.WER)
	for _, name := range []string{reader.Systolic, reader.Diastolic, reader.Pulse} {
		if m, ok := rep.MeanError[name]; ok {
			fmt.Fprintf(w, "%-10s mean abs error %.2f, stddev %.2f\n", name, m, rep.StdDev[name])
		}
	}
}
