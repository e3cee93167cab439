// Package metrics provides Prometheus metrics for RoboClone jobs.
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"roboclone/internal/engine"
)

var (
	// Job metrics
	jobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roboclone_jobs_total",
			Help: "Total number of finished jobs by final status",
		},
		[]string{"status"},
	)

	jobDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "roboclone_job_duration_seconds",
			Help:    "Time the copy tool ran per job",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		},
	)

	jobActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "roboclone_job_active",
			Help: "1 while a copy is running",
		},
	)

	jobPercent = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "roboclone_job_percent",
			Help: "Progress of the running job",
		},
	)

	// Output metrics
	logLinesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roboclone_log_lines_total",
			Help: "Tool output lines by how the parser handled them",
		},
		[]string{"kind"},
	)

	bytesProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "roboclone_bytes_processed_total",
			Help: "Bytes of files the tool has finished with",
		},
	)

	filesProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "roboclone_files_processed_total",
			Help: "Files the tool has reported",
		},
	)

	// Post-action and pre-flight metrics
	postActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roboclone_post_actions_total",
			Help: "Post-actions by action and outcome",
		},
		[]string{"action", "outcome"},
	)

	preflightFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roboclone_preflight_failures_total",
			Help: "Jobs rejected before launch by error kind",
		},
		[]string{"kind"},
	)

	warningsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roboclone_warnings_total",
			Help: "Warnings raised during jobs by error kind",
		},
		[]string{"kind"},
	)
)

// Line kinds for roboclone_log_lines_total.
const (
	LinesParsed   = "parsed"
	LinesUnparsed = "unparsed"
	LinesError    = "error"
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordPreflightFailure counts a job that Engine.Start rejected.
func RecordPreflightFailure(err error) {
	preflightFailures.WithLabelValues(engine.KindOf(err).String()).Inc()
}

// Reporter turns engine reports into metric updates. Progress states are cumulative,
// so it counts the difference from the previous state of the same job.
type Reporter struct {
	mu   sync.Mutex
	last engine.ProgressState
}

// NewReporter returns a Reporter ready for the first job.
func NewReporter() *Reporter {
	return &Reporter{}
}

func (r *Reporter) ReportProgress(s engine.ProgressState) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// A fresh job starts its counters from zero again.
	if s.Lines < r.last.Lines {
		r.last = engine.ProgressState{}
	}

	unparsed := s.Degraded - r.last.Degraded
	errs := s.Errors - r.last.Errors
	parsed := (s.Lines - r.last.Lines) - unparsed - errs
	addLines(LinesParsed, parsed)
	addLines(LinesUnparsed, unparsed)
	addLines(LinesError, errs)

	if d := s.BytesProcessed - r.last.BytesProcessed; d > 0 {
		bytesProcessed.Add(float64(d))
	}
	if d := s.FilesProcessed - r.last.FilesProcessed; d > 0 {
		filesProcessed.Add(float64(d))
	}

	jobPercent.Set(s.Percent)
	if s.Terminal {
		jobActive.Set(0)
	} else {
		jobActive.Set(1)
	}
	r.last = s
}

func addLines(kind string, n int) {
	if n > 0 {
		logLinesTotal.WithLabelValues(kind).Add(float64(n))
	}
}

func (r *Reporter) ReportResult(res engine.JobResult) {
	jobsTotal.WithLabelValues(res.Status.String()).Inc()
	jobDuration.Observe(res.Duration().Seconds())
	jobActive.Set(0)

	r.mu.Lock()
	r.last = engine.ProgressState{}
	r.mu.Unlock()
}

func (r *Reporter) ReportCountdown(engine.CountdownState) {}

func (r *Reporter) ReportPostAction(o engine.Outcome) {
	outcome := o.State.String()
	if o.Err != nil {
		outcome = "failed"
	}
	postActionsTotal.WithLabelValues(o.Action.String(), outcome).Inc()
}

func (r *Reporter) ReportWarning(err error) {
	warningsTotal.WithLabelValues(engine.KindOf(err).String()).Inc()
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, log *zap.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return serve(ctx, ln, log)
}

func serve(ctx context.Context, ln net.Listener, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info("metrics endpoint listening", zap.String("addr", ln.Addr().String()))
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
