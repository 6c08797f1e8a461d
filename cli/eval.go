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

	"github.com/spf13/cobra"

	"github.com/aamcrae/bpreader/eval"
)

func (a *app) evalCommand() *cobra.Command {
	var workers int
	var minAccuracy float64
	cmd := &cobra.Command{
		Use:   "eval <labels.yaml>",
		Short: "Score the calibration against photos with known readings",
		Long: `Decode every photo listed in a label file and report how many were
read exactly, with the digit and reading error rates. The label file is:

  rotate: 0
  photos:
    - file: 2024-05-01.jpg
      reading: 128/84/66`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := eval.LoadSet(args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("rotate") {
				set.Rotate = a.cfg.Source.Rotate
			}
			r, err := a.newReader()
			if err != nil {
				return err
			}
			rep := eval.Run(cmd.Context(), r, set, workers, a.log)
			rep.Write(cmd.OutOrStdout())
			if rep.Accuracy < minAccuracy {
				return fmt.Errorf("accuracy %.1f%% is below %.1f%%", rep.Accuracy*100, minAccuracy*100)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "number of photos decoded at once (default one per CPU)")
	cmd.Flags().Float64Var(&minAccuracy, "min-accuracy", 0, "fail if fewer than this fraction of photos are read exactly")
	return cmd
}
