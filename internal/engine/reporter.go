package engine

import "sync"

// Reporter receives everything the engine has to tell a user interface.
// Calls come from the job goroutine in order; implementations should return quickly.
type Reporter interface {
	ReportProgress(state ProgressState)
	ReportResult(result JobResult)
	ReportCountdown(state CountdownState)
	ReportPostAction(outcome Outcome)
	ReportWarning(err error)
}

// NopReporter discards every report.
type NopReporter struct{}

func (NopReporter) ReportProgress(ProgressState)   {}
func (NopReporter) ReportResult(JobResult)         {}
func (NopReporter) ReportCountdown(CountdownState) {}
func (NopReporter) ReportPostAction(Outcome)       {}
func (NopReporter) ReportWarning(error)            {}

// MultiReporter broadcasts reports to multiple reporters.
type MultiReporter struct {
	mu        sync.Mutex
	reporters []Reporter
}

// NewMultiReporter returns a MultiReporter over the non-nil reporters given.
func NewMultiReporter(reporters ...Reporter) *MultiReporter {
	m := &MultiReporter{}
	for _, r := range reporters {
		m.Add(r)
	}
	return m
}

// Add registers another reporter.
func (m *MultiReporter) Add(r Reporter) {
	if r == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reporters = append(m.reporters, r)
}

func (m *MultiReporter) snapshot() []Reporter {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Reporter, len(m.reporters))
	copy(out, m.reporters)
	return out
}

func (m *MultiReporter) ReportProgress(state ProgressState) {
	for _, r := range m.snapshot() {
		r.ReportProgress(state)
	}
}

func (m *MultiReporter) ReportResult(result JobResult) {
	for _, r := range m.snapshot() {
		r.ReportResult(result)
	}
}

func (m *MultiReporter) ReportCountdown(state CountdownState) {
	for _, r := range m.snapshot() {
		r.ReportCountdown(state)
	}
}

func (m *MultiReporter) ReportPostAction(outcome Outcome) {
	for _, r := range m.snapshot() {
		r.ReportPostAction(outcome)
	}
}

func (m *MultiReporter) ReportWarning(err error) {
	for _, r := range m.snapshot() {
		r.ReportWarning(err)
	}
}
