package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/slidebuilder/internal/htmlpatch"
	"git.home.luguber.info/inful/slidebuilder/internal/logfields"
	"git.home.luguber.info/inful/slidebuilder/internal/metrics"
)

// PageFinding is an audit finding located in one published page.
type PageFinding struct {
	Slug string
	File string
	htmlpatch.Finding
}

// Report captures what one build did.
type Report struct {
	BuildID        string
	Start          time.Time
	End            time.Time
	StageOrder     []StageName
	StageDurations map[StageName]time.Duration
	StageResults   map[StageName]metrics.ResultLabel

	Talks        int
	DecksBuilt   int
	SharedAssets []string // shared directories and favicon published at the output root
	PagesPatched int
	Replacements int
	Findings     []PageFinding
	Warnings     []string
	ManifestPath string // final location of the manifest; empty unless published

	Err     error
	Outcome metrics.BuildOutcomeLabel
}

// NewReport starts a report for the build identified by buildID.
func NewReport(buildID string) *Report {
	return &Report{
		BuildID:        buildID,
		Start:          time.Now(),
		StageDurations: make(map[StageName]time.Duration),
		StageResults:   make(map[StageName]metrics.ResultLabel),
	}
}

// RecordStageResult stores the stage result and forwards it to the recorder.
func (r *Report) RecordStageResult(stage StageName, res metrics.ResultLabel, recorder metrics.Recorder) {
	if _, seen := r.StageResults[stage]; !seen {
		r.StageOrder = append(r.StageOrder, stage)
	}
	r.StageResults[stage] = res
	if recorder != nil {
		recorder.IncStageResult(string(stage), res)
	}
}

// AddWarning records a non-fatal issue.
func (r *Report) AddWarning(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Finish stamps the end time.
func (r *Report) Finish() { r.End = time.Now() }

// Duration is the wall time of the build so far.
func (r *Report) Duration() time.Duration {
	if r.End.IsZero() {
		return time.Since(r.Start)
	}
	return r.End.Sub(r.Start)
}

// DeriveOutcome sets Outcome from the terminal error, findings and warnings.
func (r *Report) DeriveOutcome(err error) {
	r.Err = err
	switch {
	case err != nil && (stderrors.Is(err, context.Canceled) || r.canceledStage()):
		r.Outcome = metrics.BuildOutcomeCanceled
	case err != nil:
		r.Outcome = metrics.BuildOutcomeFailed
	case len(r.Findings) > 0 || len(r.Warnings) > 0:
		r.Outcome = metrics.BuildOutcomeWarning
	default:
		r.Outcome = metrics.BuildOutcomeSuccess
	}
}

func (r *Report) canceledStage() bool {
	for _, res := range r.StageResults {
		if res == metrics.ResultCanceled {
			return true
		}
	}
	return false
}

// Summary is a one-line description for logs.
func (r *Report) Summary() string {
	return fmt.Sprintf("talks=%d decks=%d pages=%d rewrites=%d findings=%d warnings=%d stages=%d duration=%s outcome=%s",
		r.Talks, r.DecksBuilt, r.PagesPatched, r.Replacements, len(r.Findings), len(r.Warnings),
		len(r.StageOrder), r.Duration().Truncate(time.Millisecond), r.Outcome)
}

// Log writes the summary and, at debug level, per-stage timings.
func (r *Report) Log(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	for _, stage := range r.StageOrder {
		logger.Debug("Stage timing",
			logfields.BuildID(r.BuildID),
			logfields.Stage(string(stage)),
			slog.String("result", string(r.StageResults[stage])),
			logfields.DurationMS(float64(r.StageDurations[stage].Microseconds())/1000))
	}
	level := slog.LevelInfo
	if r.Outcome == metrics.BuildOutcomeFailed || r.Outcome == metrics.BuildOutcomeCanceled {
		level = slog.LevelError
	}
	logger.Log(context.Background(), level, "Build finished: "+r.Summary(), logfields.BuildID(r.BuildID))
}
