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

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"

	"github.com/aamcrae/bpreader/lcd"
	"github.com/aamcrae/bpreader/metrics"
	"github.com/aamcrae/bpreader/watch"
)

func (a *app) decodeCommand() *cobra.Command {
	var verbose, asJSON, strict bool
	cmd := &cobra.Command{
		Use:   "decode [photo]",
		Short: "Decode a photo of the display",
		Long: `Decode a photo and print the systolic, diastolic and pulse reading.
If no photo is given, the configured source is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.newReader()
			if err != nil {
				return err
			}
			src, err := a.source(args)
			if err != nil {
				return err
			}
			start := time.Now()
			res, err := r.Read(cmd.Context(), src)
			if err != nil {
				return err
			}
			violations := a.cfg.Limits().Check(res.Reading)
			metrics.Decoded("cli", res, violations, time.Since(start))
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(watch.NewEvent(start, res, violations)); err != nil {
					return err
				}
			} else {
				fmt.Fprintln(out, res.Reading)
				if verbose {
					fmt.Fprintf(out, "digits %s, %dx%d\n", res.Text(), res.Width, res.Height)
					for _, d := range res.Digits {
						fmt.Fprintf(out, "%-16s %-10s %s %s", d.ID, d.Group, d.States(), d.Digit)
						for _, s := range d.Samples {
							fmt.Fprintf(out, " %5.1f", s.Mean)
						}
						fmt.Fprintln(out)
					}
				}
				for _, f := range res.Filled {
					fmt.Fprintf(out, "%s: undecodable, default used\n", f)
				}
				for _, v := range violations {
					fmt.Fprintf(out, "implausible: %s\n", v)
				}
			}
			if strict && (!res.Clean() || len(violations) != 0) {
				return errors.New("photo did not decode cleanly")
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print the states and means of every digit")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the reading as JSON")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail if any digit is undecodable or the reading is implausible")
	return cmd
}

func (a *app) markCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mark <photo> <output>",
		Short: "Draw the sampled segments over a photo",
		Long: `Decode a photo and write a copy with every segment rectangle drawn:
lit segments filled red, unlit outlined green, unsampled outlined yellow,
and undecodable digits boxed in white. The format is taken from the
output file suffix.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.newReader()
			if err != nil {
				return err
			}
			src, err := a.source(args[:1])
			if err != nil {
				return err
			}
			img, err := src.Acquire(cmd.Context())
			if err != nil {
				return err
			}
			res, err := r.Decode(img)
			if err != nil {
				return err
			}
			scans := make([][]lcd.Sample, len(res.Digits))
			digits := make([]lcd.Digit, len(res.Digits))
			for i, d := range res.Digits {
				scans[i] = d.Samples
				digits[i] = d.Digit
			}
			if err := imaging.Save(lcd.MarkSamples(img, scans, digits), args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", args[1], res.Text())
			return nil
		},
	}
}
