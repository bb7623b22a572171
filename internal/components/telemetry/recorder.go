package telemetry

import (
	"strings"
	"sync"
)

type ReportKind int

const (
	REPORT_BROKEN ReportKind = iota
	REPORT_WARNING
	REPORT_DEBUG
	REPORT_COUNT
)

type Report struct {
	Kind   ReportKind
	Id     string
	Params []any
	Count  int64
}

// Recorder is an in-memory API, it is meant to be used in tests to assert
// that a component reports what it should.
type Recorder struct {
	mutex   sync.Mutex
	reports []Report
}

func (r *Recorder) add(report Report) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.reports = append(r.reports, report)
}

func (r *Recorder) ReportBroken(id string, params ...any) {
	r.add(Report{Kind: REPORT_BROKEN, Id: id, Params: params})
}

func (r *Recorder) ReportWarning(id string, params ...any) {
	r.add(Report{Kind: REPORT_WARNING, Id: id, Params: params})
}

func (r *Recorder) ReportDebug(msg string, params ...any) {
	r.add(Report{Kind: REPORT_DEBUG, Id: msg, Params: params})
}

func (r *Recorder) ReportCount(id string, count int64) {
	r.add(Report{Kind: REPORT_COUNT, Id: id, Count: count})
}

// Find returns every report of the given kind whose id ends with suffix.
func (r *Recorder) Find(kind ReportKind, suffix string) []Report {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var out []Report
	for _, report := range r.reports {
		if report.Kind == kind && strings.HasSuffix(report.Id, suffix) {
			out = append(out, report)
		}
	}
	return out
}

// Counts returns the last reported value of every count id.
func (r *Recorder) Counts() map[string]int64 {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	out := map[string]int64{}
	for _, report := range r.reports {
		if report.Kind == REPORT_COUNT {
			out[report.Id] = report.Count
		}
	}
	return out
}
