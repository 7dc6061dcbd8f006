package metrics

import (
	"time"

	"github.com/KNICEX/perp-sentinel/internal/service/monitor"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "perp_sentinel"

var (
	_ monitor.Observer      = (*Recorder)(nil)
	_ monitor.CycleRecorder = (*Recorder)(nil)
)

// Recorder 周期/拉取/告警/投递的 prometheus 指标
type Recorder struct {
	cycleDuration    *prometheus.HistogramVec
	cycles           *prometheus.CounterVec
	cyclesSkipped    *prometheus.CounterVec
	fetchFailures    *prometheus.CounterVec
	alerts           *prometheus.CounterVec
	dispatchFailures prometheus.Counter
	instruments      *prometheus.GaugeVec
}

func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		cycleDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "cycle_duration_seconds",
				Help:      "Duration of monitor cycles in seconds",
				Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
			[]string{"report"},
		),
		cycles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cycles_total",
				Help:      "Finished monitor cycles by result",
			},
			[]string{"report", "result"},
		),
		cyclesSkipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cycles_skipped_total",
				Help:      "Cycles skipped because another cycle held the provider lock",
			},
			[]string{"report"},
		),
		fetchFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fetch_failures_total",
				Help:      "Failed per-instrument metric fetches",
			},
			[]string{"report", "source"},
		),
		alerts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "alerts_total",
				Help:      "Alert records raised by category",
			},
			[]string{"report", "category"},
		),
		dispatchFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dispatch_failures_total",
				Help:      "Notification chunks that failed to send",
			},
		),
		instruments: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "instruments",
				Help:      "Instruments above the volume threshold in the last cycle",
			},
			[]string{"report"},
		),
	}
	reg.MustRegister(r.cycleDuration, r.cycles, r.cyclesSkipped, r.fetchFailures, r.alerts, r.dispatchFailures, r.instruments)
	return r
}

func (r *Recorder) CycleFinished(report string, result string, d time.Duration) {
	r.cycleDuration.WithLabelValues(report).Observe(d.Seconds())
	r.cycles.WithLabelValues(report, result).Inc()
}

func (r *Recorder) CycleSkipped(report string) {
	r.cyclesSkipped.WithLabelValues(report).Inc()
}

func (r *Recorder) InstrumentsRanked(report string, n int) {
	r.instruments.WithLabelValues(report).Set(float64(n))
}

func (r *Recorder) FetchFailed(report string, source string) {
	r.fetchFailures.WithLabelValues(report, source).Inc()
}

func (r *Recorder) AlertsRaised(report string, category string, n int) {
	r.alerts.WithLabelValues(report, category).Add(float64(n))
}

func (r *Recorder) DispatchFailed(err error) {
	r.dispatchFailures.Inc()
}
