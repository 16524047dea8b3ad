// Package metrics has prometheus metric variables/functions.
package metrics

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricDNSLookup = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mailcheck_dns_lookup_duration_seconds",
			Help:    "DNS lookups.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.100, 0.5, 1, 5, 10},
		},
		[]string{
			"pkg",
			"type",   // txt, mx, ip
			"result", // ok, nxdomain, servfail, timeout, canceled, error
		},
	)

	metricEvaluation = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mailcheck_evaluation_total",
			Help: "Evaluations by test type and outcome.",
		},
		[]string{
			"test",   // dmarc, spf, dkim, mail_server
			"result", // configured, unconfigured, failed
		},
	)

	metricScore = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mailcheck_evaluation_score",
			Help:    "Scores of completed evaluations.",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
		[]string{
			"test",
		},
	)

	metricConnect = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mailcheck_smtp_connect_duration_seconds",
			Help:    "TCP connect attempts to mail exchangers.",
			Buckets: []float64{0.01, 0.05, 0.100, 0.5, 1, 2.5, 5, 10},
		},
		[]string{
			"port",
			"result", // ok, timeout, error
		},
	)
)

// DNSLookupObserve tracks a DNS lookup in a metric. The result is
// classified by the caller.
func DNSLookupObserve(pkg, typ, result string, start time.Time) {
	metricDNSLookup.WithLabelValues(pkg, typ, result).Observe(float64(time.Since(start)) / float64(time.Second))
}

// EvaluationInc counts a finished evaluation, and records its score unless
// the evaluation failed.
func EvaluationInc(test, result string, score int) {
	metricEvaluation.WithLabelValues(test, result).Inc()
	if result != "failed" {
		metricScore.WithLabelValues(test).Observe(float64(score))
	}
}

// ConnectObserve tracks a TCP connect attempt.
func ConnectObserve(port string, err error, start time.Time) {
	result := "ok"
	if err != nil {
		result = "error"
		if errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
			result = "timeout"
		}
	}
	metricConnect.WithLabelValues(port, result).Observe(float64(time.Since(start)) / float64(time.Second))
}

// WriteTextfile writes all registered metrics in the Prometheus text format,
// for the node_exporter textfile collector.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
