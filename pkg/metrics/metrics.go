// Package metrics provides metrics collection for the Web3 Shield SDK.
// It includes a collection interface, a Prometheus-backed implementation,
// and an in-memory implementation for tests.
package metrics

import "net/http"

// Collector is the interface for collecting and reporting metrics.
// Implement it to plug in a custom backend.
type Collector interface {
	CounterInc(name string, labels ...string)
	CounterAdd(name string, value float64, labels ...string)

	GaugeSet(name string, value float64, labels ...string)
	GaugeInc(name string, labels ...string)
	GaugeDec(name string, labels ...string)

	HistogramObserve(name string, value float64, labels ...string)

	// Handler returns an HTTP handler for the metrics endpoint.
	Handler() http.Handler
}

// MetricType represents the type of metric.
type MetricType string

const (
	MetricTypeCounter   MetricType = "counter"
	MetricTypeGauge     MetricType = "gauge"
	MetricTypeHistogram MetricType = "histogram"
)

// MetricDefinition defines a metric with its metadata.
type MetricDefinition struct {
	Name    string     `json:"name"`
	Type    MetricType `json:"type"`
	Help    string     `json:"help"`
	Labels  []string   `json:"labels,omitempty"`
	Buckets []float64  `json:"buckets,omitempty"`
}

// Standard SDK metrics.
var (
	ScansTotal = MetricDefinition{
		Name:   "shield_scans_total",
		Type:   MetricTypeCounter,
		Help:   "Total number of scan submissions",
		Labels: []string{"mode", "outcome"},
	}
	ScanDuration = MetricDefinition{
		Name:    "shield_scan_duration_seconds",
		Type:    MetricTypeHistogram,
		Help:    "Duration of scan requests in seconds",
		Labels:  []string{"mode"},
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
	}
	ScansInFlight = MetricDefinition{
		Name:   "shield_scans_in_flight",
		Type:   MetricTypeGauge,
		Help:   "Number of scans currently awaiting a response",
		Labels: []string{},
	}
	CreditRefreshTotal = MetricDefinition{
		Name:   "shield_credit_refresh_total",
		Type:   MetricTypeCounter,
		Help:   "Total number of credit balance refreshes",
		Labels: []string{"result"},
	}
	CaptchaVerificationsTotal = MetricDefinition{
		Name:   "shield_captcha_verifications_total",
		Type:   MetricTypeCounter,
		Help:   "Total number of captcha verification attempts",
		Labels: []string{"result"},
	}
	ReportDownloadsTotal = MetricDefinition{
		Name:   "shield_report_downloads_total",
		Type:   MetricTypeCounter,
		Help:   "Total number of PDF report downloads",
		Labels: []string{"status"},
	}
)

// Nop is a Collector that discards everything.
type Nop struct{}

func (Nop) CounterInc(string, ...string)                {}
func (Nop) CounterAdd(string, float64, ...string)       {}
func (Nop) GaugeSet(string, float64, ...string)         {}
func (Nop) GaugeInc(string, ...string)                  {}
func (Nop) GaugeDec(string, ...string)                  {}
func (Nop) HistogramObserve(string, float64, ...string) {}
func (Nop) Handler() http.Handler                       { return http.NotFoundHandler() }

// labelsToValues extracts label values from alternating key/value pairs.
func labelsToValues(labels []string) []string {
	values := make([]string, 0, len(labels)/2)
	for i := 1; i < len(labels); i += 2 {
		values = append(values, labels[i])
	}
	return values
}
