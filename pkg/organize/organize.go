// Package organize moves scanned media into the year-partitioned archive.
//
// Records are handled one at a time, in order. For each one the engine picks
// <target>/<Photos|Videos>/<year>/<name>; if that name is already taken the two
// files are hashed and the record goes either to Duplicates (same content) or to
// a numbered variant next to the existing file (different content). Failures are
// collected in the Result and never stop the run.
package organize

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/quidome/photosort/pkg/move"
	"github.com/quidome/photosort/pkg/plan"
	"github.com/quidome/photosort/pkg/reconcile"
	"github.com/quidome/photosort/pkg/scan"
)

// Recorder receives every placement of a live run.
type Recorder interface {
	Record(ctx context.Context, runID string, p Placement) error
}

// ProgressFunc is called after each record with the number handled so far.
type ProgressFunc func(done, total int, p Placement)

// Settings configures Organize.
type Settings struct {
	// Target is the archive root. CreateTargetStructure should have run already.
	Target string

	// DryRun computes the full plan and result without touching the filesystem.
	DryRun bool

	// RunID identifies the run in logs and the journal. Generated when empty.
	RunID string

	Logger   logrus.FieldLogger
	Journal  Recorder
	Progress ProgressFunc
}

// Organize places every record and returns what happened.
//
// The context is checked between records only; a record that has started is
// always finished. When the context ends early Result.Canceled is set and the
// remaining records are not counted as processed.
func Organize(ctx context.Context, records []scan.Record, s Settings) Result {
	runID := s.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	log := s.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithFields(logrus.Fields{"run_id": runID, "dry_run": s.DryRun})

	e := &engine{
		target:  s.Target,
		dryRun:  s.DryRun,
		log:     log,
		planned: make(map[string]string),
	}

	res := newResult(runID, s.DryRun)
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			log.WithError(err).WithField("remaining", len(records)-i).Warn("organize canceled")
			res.Canceled = true
			break
		}

		ent := e.process(rec)
		res = res.apply(ent)

		if s.Journal != nil && !s.DryRun {
			// The record is already on disk, so its journal row is written even after cancellation.
			if err := s.Journal.Record(context.WithoutCancel(ctx), runID, ent.placement); err != nil {
				log.WithError(err).WithField("path", rec.Path).Warn("journal write failed")
			}
		}
		if s.Progress != nil {
			s.Progress(i+1, len(records), ent.placement)
		}
	}

	log.WithFields(logrus.Fields{
		"processed":  res.Processed,
		"moved":      res.Moved,
		"duplicates": res.Duplicates,
		"errors":     len(res.Errors),
		"warnings":   len(res.Warnings),
	}).Info("organize finished")
	return res
}

type engine struct {
	target string
	dryRun bool
	log    logrus.FieldLogger

	// planned maps destinations claimed during a dry run to the source that
	// would have been moved there.
	planned map[string]string
}

func (e *engine) process(rec scan.Record) entry {
	log := e.log.WithFields(logrus.Fields{"path": rec.Path, "category": rec.Category})

	p := Placement{
		Source:      rec.Path,
		Category:    rec.Category,
		Year:        rec.Year(),
		Approximate: rec.Approximate,
		Size:        rec.Size,
	}
	fail := func(format string, args ...any) entry {
		p.Outcome = Failed
		p.Error = fmt.Sprintf(format, args...)
		log.Error(p.Error)
		return entry{placement: p}
	}

	yearDir := plan.YearDir(e.target, rec.Category, p.Year)
	if !e.dryRun {
		if err := os.MkdirAll(yearDir, 0o755); err != nil {
			return fail("create directory %s for %s: %v", yearDir, rec.Path, err)
		}
	}

	var warnings []string
	standard := filepath.Join(yearDir, rec.Name())
	if existing, ok := e.occupant(standard); !ok {
		p.Outcome = Standard
		p.Destination = standard
	} else {
		cmp, err := reconcile.Compare(rec.Path, existing)
		if err != nil {
			return fail("hash %s: %v", rec.Path, err)
		}
		p.Hash = cmp.SourceHash

		switch cmp.Verdict {
		case reconcile.Identical:
			p.Outcome = Duplicate
			p.Destination = plan.Unique(plan.DuplicatesPath(e.target), rec.Path, e.taken)
		case reconcile.Unknown:
			msg := fmt.Sprintf("cannot hash existing %s, treating %s as a name collision: %v", existing, rec.Path, cmp.ExistingErr)
			log.Warn(msg)
			warnings = append(warnings, msg)
			fallthrough
		case reconcile.Different:
			p.Outcome = Collision
			p.Destination = plan.Unique(yearDir, rec.Path, e.taken)
		}
	}
	log = log.WithFields(logrus.Fields{"dest": p.Destination, "outcome": p.Outcome})

	if e.dryRun {
		e.planned[p.Destination] = rec.Path
		log.Info("dry run: would move")
		return entry{placement: p, warnings: warnings}
	}

	// Parent creation is best effort; a failure surfaces through the move below.
	parent := filepath.Dir(p.Destination)
	mkdirErr := os.MkdirAll(parent, 0o755)
	if mkdirErr != nil {
		log.WithError(mkdirErr).Debug("create destination directory failed")
	}

	out := move.Move(rec.Path, p.Destination)
	p.Method = out.State.String()
	if !out.OK() {
		if mkdirErr != nil {
			return fail("move %s to %s: %v (creating %s failed: %v)", rec.Path, p.Destination, out.Err, parent, mkdirErr)
		}
		return fail("move %s to %s: %v", rec.Path, p.Destination, out.Err)
	}
	switch out.State {
	case move.CopiedSourceRetained:
		msg := fmt.Sprintf("copied %s to %s but could not remove the source: %v", rec.Path, p.Destination, out.Err)
		log.Warn(msg)
		warnings = append(warnings, msg)
	case move.Copied:
		log.WithField("rename_error", out.RenameErr).Debug("rename failed, copied instead")
	}

	log.Info("moved")
	return entry{placement: p, warnings: warnings}
}

// occupant returns the file whose content decides what happens to a record
// headed for path, if any.
func (e *engine) occupant(path string) (string, bool) {
	if src, ok := e.planned[path]; ok {
		return src, true
	}
	if plan.OnDisk(path) {
		return path, true
	}
	return "", false
}

func (e *engine) taken(path string) bool {
	if _, ok := e.planned[path]; ok {
		return true
	}
	return plan.OnDisk(path)
}
