package main

import (
	"encoding/json"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/quidome/photosort/pkg/journal"
	"github.com/quidome/photosort/pkg/prefs"
)

func newPrefsCmd(a *app) *cobra.Command {
	prefsCmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show the remembered source and target directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.prefsStore()
			if err != nil {
				return err
			}
			p, err := store.Load()
			if err != nil {
				a.log.WithError(err).Warn("ignoring unreadable preferences")
			}

			if a.cfg.JSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]string{
					"last_source_dir": p.LastSourceDir,
					"last_target_dir": p.LastTargetDir,
				})
			}
			cmd.Printf("Source: %s\n", orNone(p.LastSourceDir))
			cmd.Printf("Target: %s\n", orNone(p.LastTargetDir))
			return nil
		},
	}

	prefsCmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Forget the remembered directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.prefsStore()
			if err != nil {
				return err
			}
			return store.Save(prefs.Prefs{})
		},
	})

	return prefsCmd
}

func newHistoryCmd(a *app) *cobra.Command {
	var limit int

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List organize runs recorded in the journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Journal == "" {
				return fmt.Errorf("no journal configured: pass --journal or set journal in the config file")
			}
			j, err := journal.Open(a.cfg.Journal)
			if err != nil {
				return err
			}
			defer j.Close()

			runs, err := j.Runs(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if a.cfg.JSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if runs == nil {
					runs = []journal.Run{}
				}
				return enc.Encode(runs)
			}
			for _, r := range runs {
				status := "finished"
				switch {
				case r.FinishedAt.IsZero():
					status = "unfinished"
				case r.Canceled:
					status = "canceled"
				}
				cmd.Printf("%s  %s  %s -> %s  moved %d, duplicates %d, errors %d (%s)\n",
					r.ID, humanize.Time(r.StartedAt), r.Source, r.Target, r.Moved, r.Duplicates, r.Errors, status)
			}
			return nil
		},
	}

	historyCmd.Flags().IntVar(&limit, "limit", 10, "number of runs to show (0 = all)")

	return historyCmd
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
