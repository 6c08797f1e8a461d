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
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aamcrae/bpreader/csv"
	"github.com/aamcrae/bpreader/reader"
	"github.com/aamcrae/bpreader/server"
	"github.com/aamcrae/bpreader/watch"
)

// newWatcher creates a watcher for the configured source.
func (a *app) newWatcher(r *reader.Reader, src reader.Source, opts ...watch.Option) (*watch.Watcher, error) {
	wc := a.cfg.Watch
	opts = append(opts, watch.WithLogger(a.log), watch.WithLimits(a.cfg.Limits()))
	if wc.CSVDir != "" {
		opts = append(opts, watch.WithCSV(csv.NewWriter(wc.CSVDir, a.log)))
	}
	if wc.SaveBad {
		sink, err := a.sink()
		if err != nil {
			return nil, fmt.Errorf("archive: %w", err)
		}
		opts = append(opts, watch.WithArchive(sink, false))
	}
	return watch.New(r, src, opts...), nil
}

func signalContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
}

func (a *app) watchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "watch",
		Short:       "Decode photos from the configured source at a fixed interval",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{serviceAnnotation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.newReader()
			if err != nil {
				return err
			}
			src, err := a.source(nil)
			if err != nil {
				return err
			}
			w, err := a.newWatcher(r, src)
			if err != nil {
				return err
			}
			defer w.Close()
			ctx, stop := signalContext(cmd.Context())
			defer stop()
			err = w.Run(ctx, a.cfg.Watch.Interval)
			if errors.Is(err, context.Canceled) {
				a.log.Info("watch stopped")
				return nil
			}
			return err
		},
	}
	cmd.Flags().Duration("interval", 0, "sample interval")
	_ = a.loader.Viper().BindPFlag("watch.interval", cmd.Flags().Lookup("interval"))
	return cmd
}

func (a *app) serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API. Photos can be posted to /decode, and if a source
is configured it is watched and each reading is streamed to /ws.`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{serviceAnnotation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.newReader()
			if err != nil {
				return err
			}
			sc := a.cfg.Server
			srv := server.New(r, server.Config{
				MaxUpload: sc.MaxUploadMB << 20,
				Timeout:   a.cfg.Source.Timeout,
				Limits:    a.cfg.Limits(),
				Version:   Version,
				Log:       a.log,
			})
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			var watchErr chan error
			if a.cfg.Source.URL != "" || a.cfg.Source.File != "" {
				src, err := a.source(nil)
				if err != nil {
					return err
				}
				w, err := a.newWatcher(r, src, watch.OnEvent(srv.Publish))
				if err != nil {
					return err
				}
				defer w.Close()
				watchErr = make(chan error, 1)
				go func() {
					watchErr <- w.Run(ctx, a.cfg.Watch.Interval)
				}()
			}
			err = srv.ListenAndServe(ctx, fmt.Sprintf("%s:%d", sc.Host, sc.Port))
			stop()
			if watchErr != nil {
				if werr := <-watchErr; werr != nil && !errors.Is(werr, context.Canceled) {
					a.log.Error("watch failed", "error", werr)
				}
			}
			return err
		},
	}
	f := cmd.Flags()
	f.String("host", "", "address to listen on")
	f.Int("port", 0, "port to listen on")
	v := a.loader.Viper()
	_ = v.BindPFlag("server.host", f.Lookup("host"))
	_ = v.BindPFlag("server.port", f.Lookup("port"))
	return cmd
}
