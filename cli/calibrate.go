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
	"fmt"
	"io"
	"os"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"

	"github.com/aamcrae/bpreader/config"
	"github.com/aamcrae/bpreader/lcd"
	"github.com/aamcrae/bpreader/reader"
)

// writeCalibration writes the calibration to the named file, or to w if name is empty.
func writeCalibration(w io.Writer, name string, c *lcd.Calibration) error {
	if name == "" {
		return config.EncodeCalibration(w, c)
	}
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := config.EncodeCalibration(f, c); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (a *app) rescaleCommand() *cobra.Command {
	var to, out string
	cmd := &cobra.Command{
		Use:   "rescale",
		Short: "Rescale a calibration to a new photo resolution",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, h, err := parseSize(to)
			if err != nil {
				return err
			}
			cal, err := a.calibration()
			if err != nil {
				return err
			}
			nc, err := cal.RescaleTo(w, h)
			if err != nil {
				return err
			}
			if err := nc.Validate(); err != nil {
				return err
			}
			return writeCalibration(cmd.OutOrStdout(), out, nc)
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "new resolution, as WxH")
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default stdout)")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func (a *app) calibrateCommand() *cobra.Command {
	var expect, out string
	var blank bool
	cmd := &cobra.Command{
		Use:   "calibrate <photo>",
		Short: "Suggest a threshold from a photo with a known reading",
		Long: `Sample every segment of a photo showing a known reading, and
suggest the threshold midway between the lit and unlit segments.
With --output, the calibration is written with the new threshold.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exp, err := reader.ParseReading(expect)
			if err != nil {
				return err
			}
			cal, err := a.calibration()
			if err != nil {
				return err
			}
			src, err := a.source(args)
			if err != nil {
				return err
			}
			img, err := src.Acquire(cmd.Context())
			if err != nil {
				return err
			}
			p, err := reader.SuggestThreshold(cal, img, exp, blank)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "lit:   %d segments, mean %.1f, stddev %.1f\n", p.On, p.OnMean, p.OnStdDev)
			fmt.Fprintf(w, "unlit: %d segments, mean %.1f, stddev %.1f\n", p.Off, p.OffMean, p.OffStdDev)
			fmt.Fprintf(w, "threshold %.1f (current %.1f), margin %.1f\n", p.Threshold, cal.Threshold, p.Margin)
			if p.Overlaps() {
				a.log.Warn("lit and unlit segments overlap, check the calibration with mark")
			}
			if out != "" {
				nc := *cal
				nc.Threshold = p.Threshold
				return writeCalibration(w, out, &nc)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&expect, "expect", "", "reading shown in the photo, as SYS/DIA/PUL")
	cmd.Flags().BoolVar(&blank, "blank", false, "leading zeros are not shown on the display")
	cmd.Flags().StringVarP(&out, "output", "o", "", "write the calibration with the suggested threshold")
	_ = cmd.MarkFlagRequired("expect")
	return cmd
}

func (a *app) synthCommand() *cobra.Command {
	var values string
	var blank bool
	cmd := &cobra.Command{
		Use:   "synth <output>",
		Short: "Draw the display showing a reading",
		Long: `Draw an image of the calibrated display showing a reading, for
checking a calibration or building test photos.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := reader.ParseReading(values)
			if err != nil {
				return err
			}
			cal, err := a.calibration()
			if err != nil {
				return err
			}
			img, err := reader.Synthesize(cal, r.Values(), blank)
			if err != nil {
				return err
			}
			return imaging.Save(img, args[0])
		},
	}
	cmd.Flags().StringVar(&values, "values", "", "reading to show, as SYS/DIA/PUL")
	cmd.Flags().BoolVar(&blank, "blank", false, "leave leading zeros unlit")
	_ = cmd.MarkFlagRequired("values")
	return cmd
}
