// Package pipeline runs validate, bootstrap, scan and organize as one job off
// the caller's goroutine.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/quidome/photosort/pkg/journal"
	"github.com/quidome/photosort/pkg/organize"
	"github.com/quidome/photosort/pkg/scan"
)

// Request describes one job. Build it with NewRequest; a literal Request has
// MaxDepth 0 and only scans the top of the source.
type Request struct {
	Source string
	Target string
	DryRun bool

	// MaxDepth is passed to scan.Options: -1 is unlimited, 0 is the source
	// directory alone.
	MaxDepth int

	Logger logrus.FieldLogger

	// Journal, when set, records live runs.
	Journal *journal.Journal

	// Scanned is called once the inventory is known, before anything moves.
	Scanned func(records []scan.Record)

	// Progress is passed through to organize.
	Progress organize.ProgressFunc
}

// NewRequest returns a request for source and target that scans the whole tree.
func NewRequest(source, target string) Request {
	return Request{
		Source:   source,
		Target:   target,
		MaxDepth: scan.DefaultOptions().MaxDepth,
	}
}

// Completion is the single message a job delivers.
type Completion struct {
	Result organize.Result

	// Err is set when the job failed before organizing started. A
	// *organize.ValidationError means nothing was touched.
	Err error
}

// Start runs req on its own goroutine. The returned channel yields exactly one
// Completion and is then closed.
func Start(ctx context.Context, req Request) <-chan Completion {
	done := make(chan Completion, 1)
	go func() {
		defer close(done)
		res, err := Run(ctx, req)
		done <- Completion{Result: res, Err: err}
	}()
	return done
}

// Run executes req on the calling goroutine.
func Run(ctx context.Context, req Request) (organize.Result, error) {
	log := req.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	runID := uuid.NewString()
	log = log.WithField("run_id", runID)

	if err := organize.Validate(req.Source, req.Target); err != nil {
		return organize.Result{}, err
	}

	// A dry run must not write, not even the archive skeleton.
	if !req.DryRun {
		if err := organize.CreateTargetStructure(req.Target); err != nil {
			return organize.Result{}, err
		}
	}

	opts := scan.DefaultOptions()
	opts.MaxDepth = req.MaxDepth
	opts.Logger = log
	records, err := scan.Scan(req.Source, opts)
	if err != nil {
		return organize.Result{}, err
	}
	log.WithField("files", len(records)).Info("scan finished")
	if req.Scanned != nil {
		req.Scanned(records)
	}

	settings := organize.Settings{
		Target:   req.Target,
		DryRun:   req.DryRun,
		RunID:    runID,
		Logger:   log,
		Progress: req.Progress,
	}

	live := req.Journal != nil && !req.DryRun
	if live {
		if err := req.Journal.BeginRun(ctx, runID, req.Source, req.Target, time.Now()); err != nil {
			log.WithError(err).Warn("journal unavailable for this run")
			live = false
		} else {
			settings.Journal = req.Journal
		}
	}

	res := organize.Organize(ctx, records, settings)

	if live {
		// The run context may already be canceled; the summary row is still wanted.
		if err := req.Journal.FinishRun(context.WithoutCancel(ctx), res, time.Now()); err != nil {
			log.WithError(err).Warn("journal summary not written")
		}
	}
	return res, nil
}
