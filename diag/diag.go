// Package diag collects the outcome of a translation run: which methods
// were translated, which failed and which were abandoned part way.
package diag

import (
	"sort"
	"sync"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog"
)

// Unfinished is a method whose translation was abandoned.
type Unfinished struct {
	Method string `json:"method"`
	// Remaining is the number of instructions left untranslated.
	Remaining int `json:"remaining"`
}

// Failure is a method that produced no control-flow graph.
type Failure struct {
	Method string `json:"method"`
	Error  string `json:"error"`
}

// Report summarizes a translation run.
type Report struct {
	RunID      uuid.UUID    `json:"run_id"`
	Translated int          `json:"translated"`
	Failed     []Failure    `json:"failed"`
	Unfinished []Unfinished `json:"unfinished"`
}

// Recorder accumulates translation outcomes. It is safe for concurrent use.
type Recorder struct {
	mu         sync.Mutex
	logger     zerolog.Logger
	runID      uuid.UUID
	translated int
	failed     []Failure
	unfinished []Unfinished
}

// NewRecorder returns a Recorder with a fresh run ID.
func NewRecorder(logger zerolog.Logger) *Recorder {
	runID := uuid.Must(uuid.NewV4())
	return &Recorder{
		logger: logger.With().Str("run_id", runID.String()).Logger(),
		runID:  runID,
	}
}

// RunID returns the ID correlating this run's log events and report.
func (r *Recorder) RunID() uuid.UUID {
	return r.runID
}

// RecordUnfinishedMethod records that translation of the named method was
// abandoned with remaining instructions left untranslated.
func (r *Recorder) RecordUnfinishedMethod(name string, remaining int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unfinished = append(r.unfinished, Unfinished{Method: name, Remaining: remaining})
	r.logger.Warn().Str("method", name).Int("remaining", remaining).Msg("unfinished method")
}

// RecordTranslated counts a successfully translated method.
func (r *Recorder) RecordTranslated(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.translated++
	r.logger.Debug().Str("method", name).Msg("method translated")
}

// RecordFailed records a method that produced no graph.
func (r *Recorder) RecordFailed(name string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = append(r.failed, Failure{Method: name, Error: err.Error()})
	r.logger.Error().Err(err).Str("method", name).Msg("method failed")
}

// Report returns a snapshot of the recorded outcomes, sorted by method
// name.
func (r *Recorder) Report() *Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	report := &Report{
		RunID:      r.runID,
		Translated: r.translated,
		Failed:     append([]Failure{}, r.failed...),
		Unfinished: append([]Unfinished{}, r.unfinished...),
	}
	sort.SliceStable(report.Failed, func(i, j int) bool {
		return report.Failed[i].Method < report.Failed[j].Method
	})
	sort.SliceStable(report.Unfinished, func(i, j int) bool {
		return report.Unfinished[i].Method < report.Unfinished[j].Method
	})
	return report
}

// UnfinishedMethod reports whether the named method was recorded as unfinished
// and how many instructions it left untranslated.
func (r *Report) UnfinishedMethod(name string) (int, bool) {
	for _, u := range r.Unfinished {
		if u.Method == name {
			return u.Remaining, true
		}
	}
	return 0, false
}
