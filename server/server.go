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

// package server implements a HTTP API for decoding photos and
// following the readings of a watcher.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aamcrae/bpreader/acquire"
	"github.com/aamcrae/bpreader/lcd"
	"github.com/aamcrae/bpreader/metrics"
	"github.com/aamcrae/bpreader/reader"
	"github.com/aamcrae/bpreader/watch"
)

const defaultMaxUpload = 10 << 20

type Config struct {
	MaxUpload int64         // Maximum request body size in bytes
	Timeout   time.Duration // Per request decode timeout
	Limits    reader.Limits
	Version   string
	Log       *slog.Logger
}

type Server struct {
	reader *reader.Reader
	conf   Config
	log    *slog.Logger
	hub    *Hub
	engine *gin.Engine

	mu   sync.Mutex
	last *watch.Event
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// DigitResponse describes one decoded digit.
type DigitResponse struct {
	ID      string    `json:"id"`
	Reading string    `json:"reading"`
	States  string    `json:"states"`
	Digit   string    `json:"digit"`
	Means   []float64 `json:"means"`
}

type DecodeResponse struct {
	watch.Event
	Width  int             `json:"width"`
	Height int             `json:"height"`
	Digits []DigitResponse `json:"digits,omitempty"`
}

// New creates a server decoding with r.
func New(r *reader.Reader, conf Config) *Server {
	if conf.MaxUpload <= 0 {
		conf.MaxUpload = defaultMaxUpload
	}
	if conf.Timeout <= 0 {
		conf.Timeout = 20 * time.Second
	}
	if conf.Log == nil {
		conf.Log = slog.Default()
	}
	s := &Server{reader: r, conf: conf, log: conf.Log, hub: NewHub(conf.Log)}
	gin.SetMode(gin.ReleaseMode)
	e := gin.New()
	e.Use(gin.Recovery(), s.requestLogger(), requestSizeLimiter(conf.MaxUpload))
	e.GET("/health", s.health)
	e.GET("/metrics", gin.WrapH(promhttp.Handler()))
	e.GET("/reading", s.reading)
	e.GET("/ws", func(c *gin.Context) {
		s.hub.ServeWS(c.Writer, c.Request)
	})
	e.POST("/decode", s.decode)
	e.POST("/mark", s.mark)
	s.engine = e
	return s
}

// Handler returns the HTTP handler for the API.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Hub returns the websocket hub that readings are broadcast on.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Publish records the event as the latest reading and sends it to
// every websocket client. It is suitable for watch.OnEvent.
func (s *Server) Publish(ev watch.Event) {
	s.mu.Lock()
	s.last = &ev
	s.mu.Unlock()
	s.hub.Broadcast(Message{Type: "reading", Payload: ev})
}

// Last returns the latest published reading.
func (s *Server) Last() (watch.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return watch.Event{}, false
	}
	return *s.last, true
}

// ListenAndServe serves on addr until the context is cancelled, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.log.Info("starting HTTP server", "addr", addr)
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.log.Info("HTTP server stopped")
	return nil
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": s.conf.Version,
		"time":    time.Now().UTC().Format(time.RFC3339),
		"clients": s.hub.Len(),
	})
}

func (s *Server) reading(c *gin.Context) {
	ev, ok := s.Last()
	if !ok {
		respondError(c, http.StatusNotFound, "no reading yet", nil)
		return
	}
	c.JSON(http.StatusOK, ev)
}

// upload reads the photo from the multipart "image" field, and decodes it.
func (s *Server) upload(c *gin.Context) (*reader.Result, *acquire.Bytes, bool) {
	fh, err := c.FormFile("image")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			respondError(c, http.StatusRequestEntityTooLarge, "photo too large", err)
		} else {
			respondError(c, http.StatusBadRequest, "missing image field", err)
		}
		return nil, nil, false
	}
	f, err := fh.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, "cannot open upload", err)
		return nil, nil, false
	}
	data, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		respondError(c, http.StatusBadRequest, "cannot read upload", err)
		return nil, nil, false
	}
	src := &acquire.Bytes{Name: fh.Filename, Data: data}
	if r := c.Query("rotate"); r != "" {
		angle, err := strconv.ParseFloat(r, 64)
		if err != nil {
			respondError(c, http.StatusBadRequest, "bad rotate parameter", err)
			return nil, nil, false
		}
		src.Rotate = angle
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.conf.Timeout)
	defer cancel()
	start := time.Now()
	res, err := s.reader.Read(ctx, src)
	if err != nil {
		if errors.Is(err, reader.ErrAcquisition) {
			metrics.AcquireFailed("http")
			respondError(c, http.StatusBadRequest, "cannot decode photo", err)
		} else {
			respondError(c, http.StatusUnprocessableEntity, "cannot read display", err)
		}
		return nil, nil, false
	}
	metrics.Decoded("http", res, s.conf.Limits.Check(res.Reading), time.Since(start))
	return res, src, true
}

func (s *Server) decode(c *gin.Context) {
	res, src, ok := s.upload(c)
	if !ok {
		return
	}
	ev := watch.NewEvent(time.Now(), res, s.conf.Limits.Check(res.Reading))
	resp := DecodeResponse{Event: ev, Width: res.Width, Height: res.Height}
	if verbose, _ := strconv.ParseBool(c.Query("verbose")); verbose {
		for _, d := range res.Digits {
			means := make([]float64, len(d.Samples))
			for i, sm := range d.Samples {
				means[i] = sm.Mean
			}
			resp.Digits = append(resp.Digits, DigitResponse{
				ID:      d.ID,
				Reading: d.Group,
				States:  d.States(),
				Digit:   d.Digit.String(),
				Means:   means,
			})
		}
	}
	s.log.Info("decoded upload", "name", src.Name, "reading", res.Reading.String(), "clean", ev.Clean)
	if publish, _ := strconv.ParseBool(c.Query("publish")); publish {
		s.Publish(ev)
	}
	c.JSON(http.StatusOK, resp)
}

// mark returns the uploaded photo with the sampled segments drawn over it.
func (s *Server) mark(c *gin.Context) {
	res, src, ok := s.upload(c)
	if !ok {
		return
	}
	img, err := src.Acquire(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusBadRequest, "cannot decode photo", err)
		return
	}
	scans := make([][]lcd.Sample, len(res.Digits))
	digits := make([]lcd.Digit, len(res.Digits))
	for i, d := range res.Digits {
		scans[i] = d.Samples
		digits[i] = d.Digit
	}
	c.Header("Content-Type", "image/png")
	c.Status(http.StatusOK)
	if err := imaging.Encode(c.Writer, lcd.MarkSamples(img, scans, digits), imaging.PNG); err != nil {
		s.log.Error("encode marked image", "error", err)
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.Request(c.Request.Method, path, c.Writer.Status())
		s.log.Debug("request", "method", c.Request.Method, "path", c.Request.URL.Path,
			"status", c.Writer.Status(), "duration", time.Since(start).String(), "ip", c.ClientIP())
	}
}

func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func respondError(c *gin.Context, code int, message string, err error) {
	resp := ErrorResponse{Error: http.StatusText(code), Message: message}
	if err != nil {
		resp.Message = message + ": " + err.Error()
	}
	c.AbortWithStatusJSON(code, resp)
}
