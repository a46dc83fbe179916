package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"file-indexer/internal/database"
	"file-indexer/internal/indexer"
	"file-indexer/internal/logging"
	"file-indexer/internal/progress"
	"file-indexer/internal/startup"
)

// app carries state shared by the subcommands.
type app struct {
	v      *viper.Viper
	cfg    *startup.Config
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	configFile string
	envFile    string
}

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	a := &app{v: viper.New(), in: in, out: out, errOut: errOut}

	root := &cobra.Command{
		Use:   "file-indexer",
		Short: "Index and search files on slow or remote filesystems",
		Long: `file-indexer walks a directory tree, records the name, path, size and
modification time of every entry in a local SQLite index, and answers
searches against that index without touching the filesystem again.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.interactive() {
				return a.runMenu(cmd.Context())
			}
			return cmd.Help()
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			_ = logging.Close()
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default ./file-indexer.yaml)")
	flags.StringVar(&a.envFile, "env-file", ".env", "environment file loaded before configuration")
	flags.String("db", "", "path to the index database (DATABASE_PATH)")
	flags.Int("workers", 0, "number of scan workers, 0 for automatic (INDEX_WORKERS)")
	flags.String("mode", "", "scan mode for scan: streaming or batch (SCAN_MODE)")
	flags.String("log-level", "", "log level: debug, info, warn, error (LOG_LEVEL)")
	flags.String("log-file", "", "log file, empty to disable (LOG_FILE)")

	for flag, key := range map[string]string{
		"db":        startup.KeyDatabasePath,
		"workers":   startup.KeyIndexWorkers,
		"mode":      startup.KeyScanMode,
		"log-level": startup.KeyLogLevel,
		"log-file":  startup.KeyLogFile,
	} {
		_ = a.v.BindPFlag(key, flags.Lookup(flag))
	}

	root.AddCommand(
		a.newScanCmd("scan", "Index every file under PATH", ""),
		a.newScanCmd("scan-batch", "Index every file under PATH, collecting the tree first", indexer.ModeBatch),
		a.newScanCmd("scan-folders", "Index every folder under PATH", indexer.ModeFolders),
		a.newSearchCmd(),
		a.newSearchFoldersCmd(),
		a.newSearchExtCmd(),
		a.newStatsCmd(),
		a.newClearCmd(),
		a.newServeCmd(),
		a.newMenuCmd(),
		newVersionCmd(),
	)

	return root
}

// setup loads the .env file and configuration, then applies logging.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "version" {
		return nil
	}

	if err := startup.LoadDotEnv(a.envFile); err != nil {
		return err
	}
	if a.configFile != "" {
		a.v.SetConfigFile(a.configFile)
	}

	cfg, err := startup.LoadConfig(a.v)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if err := cfg.ApplyLogging(); err != nil {
		return err
	}
	cfg.ApplyMemoryLimit()

	a.cfg = cfg
	logging.Debug("Configuration loaded (database %s, %d workers, %s mode)", cfg.DatabasePath, cfg.Workers, cfg.ScanMode)
	return nil
}

// openDB ensures the database directory exists and opens the index.
func (a *app) openDB(ctx context.Context) (*database.Database, error) {
	if err := startup.EnsureDatabaseDir(a.cfg.DatabasePath); err != nil {
		return nil, err
	}

	start := time.Now()
	db, err := database.New(ctx, a.cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	logging.Debug("Index %s opened in %v", a.cfg.DatabasePath, time.Since(start))
	return db, nil
}

// open opens the index and wraps it in an Indexer that reports progress to
// rep. The caller closes it.
func (a *app) open(ctx context.Context, rep *progress.Reporter) (*indexer.Indexer, error) {
	db, err := a.openDB(ctx)
	if err != nil {
		return nil, err
	}

	cfg := a.cfg.IndexerConfig()
	if rep != nil {
		cfg.OnProgress = rep.Update
	}
	return indexer.New(db, cfg), nil
}

// interactive reports whether input comes from a terminal.
func (a *app) interactive() bool {
	f, ok := a.in.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func closeIndexer(idx *indexer.Indexer) {
	if err := idx.Close(); err != nil {
		logging.Warn("Failed to close index: %v", err)
	}
}
