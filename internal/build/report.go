package build

import (
	"time"
)

// Outcome classifies how a build ended.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// Report carries timing and counters across stages and summarizes the build.
type Report struct {
	BuildID        string
	Start          time.Time
	End            time.Time
	StageDurations map[string]time.Duration
	PagesRendered  int
	ImageVariants  int
	Outcome        Outcome
	Err            error
}

func newReport(buildID string) *Report {
	return &Report{
		BuildID:        buildID,
		Start:          time.Now(),
		StageDurations: map[string]time.Duration{},
		Outcome:        OutcomeSuccess,
	}
}

// Duration is the wall-clock time of the whole build.
func (r *Report) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

func (r *Report) finish(err error, canceled bool) {
	r.End = time.Now()
	r.Err = err
	switch {
	case err == nil:
		r.Outcome = OutcomeSuccess
	case canceled:
		r.Outcome = OutcomeCanceled
	default:
		r.Outcome = OutcomeFailed
	}
}
