package main

import (
	"errors"
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/quidome/photosort/pkg/journal"
	"github.com/quidome/photosort/pkg/organize"
	"github.com/quidome/photosort/pkg/pipeline"
	"github.com/quidome/photosort/pkg/prefs"
	"github.com/quidome/photosort/pkg/report"
	"github.com/quidome/photosort/pkg/scan"
)

func newOrganizeCmd(a *app) *cobra.Command {
	organizeCmd := &cobra.Command{
		Use:   "organize [source] [target]",
		Short: "Move media from source into the target archive",
		Long: "Move every photo and video under source into target/Photos/<year> or target/Videos/<year>. " +
			"A file whose name is taken by an identical file goes to target/Duplicates; one whose name is " +
			"taken by a different file gets a _copy_<n> suffix. Missing arguments fall back to the config " +
			"file, then to the directories of the previous run.",
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.prefsStore()
			if err != nil {
				return err
			}
			source, target, err := a.directories(args, store)
			if err != nil {
				return err
			}

			req := pipeline.NewRequest(source, target)
			req.DryRun = a.cfg.DryRun
			req.MaxDepth = a.cfg.MaxDepth
			req.Logger = a.log

			if a.cfg.Journal != "" {
				j, err := journal.Open(a.cfg.Journal)
				if err != nil {
					return err
				}
				defer j.Close()
				req.Journal = j
			}

			var bar *progressbar.ProgressBar
			if a.cfg.Progress {
				req.Scanned = func(records []scan.Record) {
					bar = progressbar.NewOptions(len(records),
						progressbar.OptionSetWriter(cmd.ErrOrStderr()),
						progressbar.OptionSetDescription("organizing"),
						progressbar.OptionSetWidth(20),
						progressbar.OptionShowCount(),
						progressbar.OptionClearOnFinish(),
					)
				}
				req.Progress = func(done, total int, p organize.Placement) {
					_ = bar.Add(1)
				}
			}

			c := <-pipeline.Start(cmd.Context(), req)
			if bar != nil {
				_ = bar.Finish()
			}
			if c.Err != nil {
				return c.Err
			}

			remember := func(p *prefs.Prefs) {
				p.LastSourceDir, p.LastTargetDir = source, target
			}
			if err := store.Update(remember); err != nil {
				a.log.WithError(err).Warn("could not remember directories")
			}

			res := c.Result
			if a.cfg.JSON {
				err = report.JSON(cmd.OutOrStdout(), res)
			} else {
				err = report.Text(cmd.OutOrStdout(), res)
			}
			if err != nil {
				return err
			}

			switch {
			case res.Canceled:
				return errors.New("canceled before every file was organized")
			case len(res.Errors) > 0:
				return fmt.Errorf("%d of %d files could not be organized", len(res.Errors), res.Processed)
			}
			return nil
		},
	}

	organizeCmd.Flags().Int("max-depth", -1, "maximum recursion depth (-1 = unlimited, 0 = no recursion)")
	organizeCmd.Flags().Bool("progress", false, "show a progress bar on stderr")

	return organizeCmd
}

// directories picks source and target from the arguments, then the config, then
// the remembered prefs.
func (a *app) directories(args []string, store *prefs.Store) (string, string, error) {
	source, target := a.cfg.Source, a.cfg.Target
	if len(args) > 0 {
		source = args[0]
	}
	if len(args) > 1 {
		target = args[1]
	}

	if source == "" || target == "" {
		p, err := store.Load()
		if err != nil {
			a.log.WithError(err).Warn("ignoring unreadable preferences")
		}
		if source == "" {
			source = p.LastSourceDir
		}
		if target == "" {
			target = p.LastTargetDir
		}
	}

	if source == "" || target == "" {
		return "", "", errors.New("source and target are required: pass them as arguments or set them in the config file")
	}
	return source, target, nil
}
