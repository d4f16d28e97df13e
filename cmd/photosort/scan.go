package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/quidome/photosort/pkg/report"
	"github.com/quidome/photosort/pkg/scan"
)

func newScanCmd(a *app) *cobra.Command {
	scanCmd := &cobra.Command{
		Use:   "scan [directory]",
		Short: "Scan a directory and report the media found",
		Long: "Scan a directory recursively, following symbolic links, and report every photo and video " +
			"with its resolved capture date. Nothing is moved. Without an argument the configured or " +
			"last used source directory is scanned.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			directory := a.cfg.Source
			if len(args) == 1 {
				directory = args[0]
			}
			if directory == "" {
				if store, err := a.prefsStore(); err == nil {
					p, loadErr := store.Load()
					if loadErr != nil {
						a.log.WithError(loadErr).Warn("ignoring unreadable preferences")
					}
					directory = p.LastSourceDir
				}
			}
			if directory == "" {
				return errors.New("no directory to scan: pass one as an argument")
			}

			opts := scan.DefaultOptions()
			opts.MaxDepth = a.cfg.MaxDepth
			opts.Logger = a.log

			records, err := scan.Scan(directory, opts)
			if err != nil {
				return err
			}

			inv := report.Summarize(records)
			if a.cfg.JSON {
				return report.InventoryJSON(cmd.OutOrStdout(), inv)
			}
			return report.InventoryText(cmd.OutOrStdout(), inv, a.cfg.Verbose)
		},
	}

	scanCmd.Flags().Int("max-depth", -1, "maximum recursion depth (-1 = unlimited, 0 = no recursion)")

	return scanCmd
}
