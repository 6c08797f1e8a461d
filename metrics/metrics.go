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

// package metrics exports Prometheus instruments for decodes.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/aamcrae/bpreader/reader"
)

var (
	decodesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bpreader_decodes_total",
			Help: "Total number of decoded photos",
		},
		[]string{"origin", "result"}, // result: clean, partial
	)

	acquireFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bpreader_acquire_failures_total",
			Help: "Total number of photos that could not be acquired",
		},
		[]string{"origin"},
	)

	decodeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bpreader_decode_duration_seconds",
			Help:    "Time to acquire and decode a photo",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 20},
		},
		[]string{"origin"},
	)

	undecodableDigits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bpreader_undecodable_digits_total",
			Help: "Total number of digits whose segment pattern was not recognised",
		},
	)

	degenerateSegments = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bpreader_degenerate_segments_total",
			Help: "Total number of segments that could not be sampled",
		},
	)

	readingValue = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bpreader_reading",
			Help: "Last decoded reading",
		},
		[]string{"reading"}, // systolic, diastolic, pulse
	)

	limitViolations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bpreader_limit_violations_total",
			Help: "Total number of decodes with an implausible reading",
		},
		[]string{"origin"},
	)

	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bpreader_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	websocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bpreader_websocket_clients",
			Help: "Number of connected WebSocket clients",
		},
	)
)

// Decoded records a completed decode. origin is the caller, e.g "watch" or "http".
func Decoded(origin string, res *reader.Result, violations []string, d time.Duration) {
	result := "clean"
	if !res.Clean() {
		result = "partial"
	}
	decodesTotal.WithLabelValues(origin, result).Inc()
	decodeDuration.WithLabelValues(origin).Observe(d.Seconds())
	undecodableDigits.Add(float64(res.Invalid))
	degenerateSegments.Add(float64(res.Degenerate))
	readingValue.WithLabelValues(reader.Systolic).Set(float64(res.Reading.Systolic))
	readingValue.WithLabelValues(reader.Diastolic).Set(float64(res.Reading.Diastolic))
	readingValue.WithLabelValues(reader.Pulse).Set(float64(res.Reading.Pulse))
	if len(violations) != 0 {
		limitViolations.WithLabelValues(origin).Inc()
	}
}

// AcquireFailed records a photo that could not be acquired.
func AcquireFailed(origin string) {
	acquireFailures.WithLabelValues(origin).Inc()
}

// Request records a served HTTP request.
func Request(method, path string, status int) {
	httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
}

// ClientConnected adjusts the count of WebSocket clients.
func ClientConnected(delta int) {
	websocketClients.Add(float64(delta))
}
