package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/slidebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/slidebuilder/internal/logfields"
	"git.home.luguber.info/inful/slidebuilder/internal/metrics"
)

// RunStages executes stages in order, recording timing and stopping on the first error.
// Classified errors are returned unchanged; anything else becomes an internal error.
func RunStages(ctx context.Context, bs *BuildState, stages []StageDef) error {
	recorder := bs.Recorder
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}

	for _, st := range stages {
		select {
		case <-ctx.Done():
			bs.Report.RecordStageResult(st.Name, metrics.ResultCanceled, recorder)
			return fmt.Errorf("build canceled before stage %s: %w", st.Name, ctx.Err())
		default:
		}

		slog.Debug("Stage start", logfields.Stage(string(st.Name)), logfields.BuildID(bs.Report.BuildID))
		t0 := time.Now()
		err := st.Fn(ctx, bs)
		dur := time.Since(t0)

		bs.Report.StageDurations[st.Name] = dur
		recorder.ObserveStageDuration(string(st.Name), dur)

		switch {
		case err == nil:
			bs.Report.RecordStageResult(st.Name, metrics.ResultSuccess, recorder)
		case stderrors.Is(err, errSkipStage):
			bs.Report.RecordStageResult(st.Name, metrics.ResultSkipped, recorder)
			slog.Debug("Stage skipped", logfields.Stage(string(st.Name)))
		case ctx.Err() != nil:
			bs.Report.RecordStageResult(st.Name, metrics.ResultCanceled, recorder)
			return fmt.Errorf("build canceled during stage %s: %w", st.Name, stderrors.Join(ctx.Err(), err))
		default:
			bs.Report.RecordStageResult(st.Name, metrics.ResultFatal, recorder)
			return classifyStageError(st.Name, err)
		}
	}
	return nil
}

func classifyStageError(stage StageName, err error) error {
	if ce, ok := errors.AsClassified(err); ok {
		if _, has := ce.Context().Get("stage"); has {
			return err
		}
		return ce.WithContext("stage", string(stage))
	}
	return errors.InternalError(fmt.Sprintf("stage %s failed", stage)).
		WithCause(err).
		WithContext("stage", string(stage)).
		Build()
}
