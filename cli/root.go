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

// package cli implements the bpreader command line.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	_ "net/http/pprof"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aamcrae/bpreader/acquire"
	"github.com/aamcrae/bpreader/archive"
	"github.com/aamcrae/bpreader/config"
	"github.com/aamcrae/bpreader/lcd"
	"github.com/aamcrae/bpreader/reader"
)

// Version is set at build time.
var Version = "dev"

// Commands that run as long lived services log JSON by default.
const serviceAnnotation = "service"

type app struct {
	loader      *config.Loader
	cfgFile     string
	profilePort int
	cfg         *config.Config
	log         *slog.Logger
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	a := &app{loader: config.NewLoader()}
	root := &cobra.Command{
		Use:   "bpreader",
		Short: "Read blood pressure monitor photos",
		Long: `bpreader decodes the seven segment display of a blood pressure
monitor from a photo, using a calibration file that gives the position
of every segment.

Examples:
  bpreader decode photo.jpg
  bpreader calibrate photo.jpg --expect 120/80/72
  bpreader serve --port 8080`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default is search in ., $HOME/.config/bpreader, /etc/bpreader)")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.String("log-format", "", "log format (text or json)")
	pf.StringP("calibration", "c", "calibration.yaml", "calibration file")
	pf.Float64("rotate", 0, "degrees to rotate photos clockwise")
	pf.IntVar(&a.profilePort, "profile-port", 0, "serve pprof on localhost at this port")
	v := a.loader.Viper()
	_ = v.BindPFlag("log_level", pf.Lookup("log-level"))
	_ = v.BindPFlag("log_format", pf.Lookup("log-format"))
	_ = v.BindPFlag("calibration", pf.Lookup("calibration"))
	_ = v.BindPFlag("source.rotate", pf.Lookup("rotate"))

	root.AddCommand(
		a.decodeCommand(),
		a.markCommand(),
		a.rescaleCommand(),
		a.calibrateCommand(),
		a.synthCommand(),
		a.evalCommand(),
		a.watchCommand(),
		a.serveCommand(),
	)
	return root
}

// Execute runs the command line, exiting non-zero on error.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// init loads the configuration and sets up logging.
func (a *app) init(cmd *cobra.Command) error {
	cfg, err := a.loader.Load(a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = newLogger(cmd.ErrOrStderr(), cfg, cmd.Annotations[serviceAnnotation] == "true")
	slog.SetDefault(a.log)
	if f := a.loader.ConfigFileUsed(); f != "" {
		a.log.Debug("loaded config", "file", f)
	}
	if a.profilePort > 0 {
		go func() {
			addr := fmt.Sprintf("localhost:%d", a.profilePort)
			a.log.Info("profiling server", "addr", addr)
			if err := http.ListenAndServe(addr, nil); err != nil {
				a.log.Error("profiling server", "error", err)
			}
		}()
	}
	return nil
}

func newLogger(w io.Writer, cfg *config.Config, service bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.Level()}
	if cfg.JSONLogs(service) {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func (a *app) calibration() (*lcd.Calibration, error) {
	return config.ReadCalibration(a.cfg.Calibration)
}

// newReader loads the calibration and creates a reader using the
// configured fill policy.
func (a *app) newReader() (*reader.Reader, error) {
	cal, err := a.calibration()
	if err != nil {
		return nil, err
	}
	p, err := a.cfg.ReaderPolicy()
	if err != nil {
		return nil, err
	}
	return reader.New(cal, reader.WithLogger(a.log), reader.WithPolicy(p))
}

// source returns the photo file if one is given, otherwise the configured source.
func (a *app) source(args []string) (reader.Source, error) {
	s := a.cfg.Source
	switch {
	case len(args) > 0:
		return &acquire.File{Path: args[0], Rotate: s.Rotate}, nil
	case s.URL != "":
		return acquire.NewCamera(s.URL, s.Timeout, s.Rotate), nil
	case s.File != "":
		return &acquire.File{Path: s.File, Rotate: s.Rotate}, nil
	}
	return nil, fmt.Errorf("no photo source: set source.url or source.file")
}

// sink returns where photos are archived.
func (a *app) sink() (archive.Sink, error) {
	ac := a.cfg.Archive
	if ac.Account != "" {
		return archive.NewAzure(ac.Account, ac.Key, ac.Container, ac.Endpoint)
	}
	return &archive.Dir{Path: ac.Dir}, nil
}

// parseSize parses a size in the form WxH.
func parseSize(s string) (int, int, error) {
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("size %q: expected WxH", s)
	}
	w, err := strconv.Atoi(ws)
	if err != nil || w <= 0 {
		return 0, 0, fmt.Errorf("size %q: bad width", s)
	}
	h, err := strconv.Atoi(hs)
	if err != nil || h <= 0 {
		return 0, 0, fmt.Errorf("size %q: bad height", s)
	}
	return w, h, nil
}
