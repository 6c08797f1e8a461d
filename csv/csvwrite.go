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

// package csv writes readings to daily CSV files in the form
// path/year/month/year-month-day.csv
package csv

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aamcrae/bpreader/reader"
)

const header = "#date,time,systolic,diastolic,pulse,clean,text,limits\n"

// Writer appends readings to the file for the current day,
// switching files when the day changes.
type Writer struct {
	dir  string
	day  string
	name string
	file *os.File
	buf  *bufio.Writer
	log  *slog.Logger
}

// NewWriter creates a writer for files below dir.
func NewWriter(dir string, log *slog.Logger) *Writer {
	if log == nil {
		log = slog.Default()
	}
	return &Writer{dir: dir, log: log}
}

// Write appends one reading, taken at t, to the day's file.
// violations are any plausibility limits the reading failed.
func (wr *Writer) Write(t time.Time, res *reader.Result, violations []string) error {
	day := t.Format("2006-01-02")
	if day != wr.day {
		if err := wr.Close(); err != nil {
			wr.log.Warn("csv close", "file", wr.name, "error", err)
		}
		if err := wr.open(t); err != nil {
			return err
		}
		wr.day = day
	}
	r := res.Reading
	fmt.Fprintf(wr.buf, "%s,%d,%d,%d,%t,%s,%s\n", t.Format("2006-01-02,15:04:05"),
		r.Systolic, r.Diastolic, r.Pulse, res.Clean(), res.Text(), strings.Join(violations, ";"))
	wr.log.Debug("csv write", "file", wr.name, "reading", r.String())
	return wr.buf.Flush()
}

// open opens the file for the day, writing the header if the file is new.
func (wr *Writer) open(t time.Time) error {
	dir := filepath.Join(wr.dir, t.Format("2006"), t.Format("01"))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	fn := filepath.Join(dir, t.Format("2006-01-02")+".csv")
	created := false
	f, err := os.OpenFile(fn, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		// Create new file and write initial header.
		f, err = os.OpenFile(fn, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("create %s: %w", fn, err)
		}
		created = true
	}
	wr.name = fn
	wr.file = f
	wr.buf = bufio.NewWriter(f)
	if created {
		wr.buf.WriteString(header)
	}
	return nil
}

// Name returns the current file name.
func (wr *Writer) Name() string {
	return wr.name
}

// Close flushes and closes the current file, if any.
func (wr *Writer) Close() error {
	if wr.file == nil {
		return nil
	}
	wr.buf.Flush()
	err := wr.file.Close()
	wr.file = nil
	wr.buf = nil
	wr.day = ""
	return err
}
