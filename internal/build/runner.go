package build

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jorenvanhee/joren.co/internal/metrics"
)

// StageName identifies a build stage in logs and metrics.
type StageName string

const (
	StagePrepareOutput StageName = "prepare_output"
	StageLoadContent   StageName = "load_content"
	StageRenderPages   StageName = "render_pages"
	StageCompileCSS    StageName = "compile_css"
	StageCopyStatic    StageName = "copy_static"
	StageWriteFeeds    StageName = "write_feeds"
)

// StageDef pairs a stage name with its executing function.
type StageDef struct {
	Name StageName
	Fn   func(ctx context.Context, st *State) error
}

// runStages executes stages in order, recording timing and stopping on the
// first error. Cancellation is checked between stages; a long-running stage
// is expected to honor ctx itself.
func runStages(ctx context.Context, st *State, stages []StageDef, rec metrics.Recorder) error {
	for _, sd := range stages {
		select {
		case <-ctx.Done():
			rec.IncStageResult(string(sd.Name), metrics.ResultCanceled)
			return fmt.Errorf("stage %s: %w", sd.Name, ctx.Err())
		default:
		}

		t0 := time.Now()
		err := sd.Fn(ctx, st)
		dur := time.Since(t0)

		st.Report.StageDurations[string(sd.Name)] = dur
		rec.ObserveStageDuration(string(sd.Name), dur)

		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				rec.IncStageResult(string(sd.Name), metrics.ResultCanceled)
			} else {
				rec.IncStageResult(string(sd.Name), metrics.ResultFatal)
			}
			return fmt.Errorf("stage %s: %w", sd.Name, err)
		}

		rec.IncStageResult(string(sd.Name), metrics.ResultSuccess)
		slog.Debug("Stage complete", "stage", sd.Name, "duration", dur)
	}
	return nil
}
