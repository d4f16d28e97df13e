package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/quidome/photosort/pkg/config"
	"github.com/quidome/photosort/pkg/prefs"
)

const version = "0.2.0"

// app carries what every subcommand needs once flags and config are resolved.
type app struct {
	configFile string
	prefsFile  string

	cfg config.Config
	log *logrus.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "photosort",
		Short: "Sort photos and videos into a year-based archive",
		Long: "photosort moves photos and videos into <target>/Photos/<year> and <target>/Videos/<year>, " +
			"using the EXIF capture time when there is one and the file modification time otherwise. " +
			"Files that are byte-identical to one already in the archive go to <target>/Duplicates.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println("photosort")
			cmd.Printf("Version: %s\n", version)
			if a.cfg.Verbose {
				cmd.Println("Verbose mode: enabled")
			}
			if a.cfg.DryRun {
				cmd.Println("Dry run mode: enabled")
			}
			cmd.Println("")
			cmd.Println("Use --help to see available commands and options")
		},
	}

	rootCmd.SetOut(os.Stdout)
	rootCmd.SetErr(os.Stderr)

	pf := rootCmd.PersistentFlags()
	pf.BoolP("verbose", "v", false, "enable debug logging")
	pf.BoolP("dry-run", "n", false, "show what would happen without changing anything")
	pf.String("log-format", "text", "log format: text or json")
	pf.Bool("json", false, "print results as JSON")
	pf.String("journal", "", "record live runs in this SQLite file")
	pf.StringVar(&a.configFile, "config", "", "config file (default: photosort.yaml in the user config dir or the working dir)")
	pf.StringVar(&a.prefsFile, "prefs", "", "preferences file (default: <user config dir>/photosort/prefs.yaml)")

	rootCmd.AddCommand(newScanCmd(a))
	rootCmd.AddCommand(newOrganizeCmd(a))
	rootCmd.AddCommand(newPrefsCmd(a))
	rootCmd.AddCommand(newHistoryCmd(a))

	return rootCmd
}

// load resolves flags, environment and config file into a.cfg and sets up logging.
func (a *app) load(cmd *cobra.Command) error {
	v := config.New()
	if err := config.BindFlags(v, cmd.Flags()); err != nil {
		return err
	}
	if err := config.ReadFile(v, a.configFile); err != nil {
		return err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.log = config.NewLogger(cfg, cmd.ErrOrStderr())
	if used := v.ConfigFileUsed(); used != "" {
		a.log.WithField("path", used).Debug("config file loaded")
	}
	return nil
}

func (a *app) prefsStore() (*prefs.Store, error) {
	return prefs.NewStore(a.prefsFile)
}
