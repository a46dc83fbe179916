package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"file-indexer/internal/indexer"
	"file-indexer/internal/progress"
	"file-indexer/internal/startup"
)

// errAborted is returned when the user declines a confirmation prompt.
var errAborted = errors.New("aborted")

func (a *app) newScanCmd(use, short string, mode indexer.Mode) *cobra.Command {
	return &cobra.Command{
		Use:   use + " PATH",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rep := progress.New(cmd.ErrOrStderr())
			idx, err := a.open(cmd.Context(), rep)
			if err != nil {
				return err
			}
			defer closeIndexer(idx)

			m := mode
			if m == "" {
				m = a.cfg.ScanMode
			}
			return a.scan(cmd.Context(), idx, rep, args[0], m)
		},
	}
}

// scan runs one scan and prints its summary. A canceled scan still prints
// what it indexed before stopping.
func (a *app) scan(ctx context.Context, idx *indexer.Indexer, rep *progress.Reporter, root string, mode indexer.Mode) error {
	fmt.Fprintf(a.out, "Scanning %s (%s mode)\n", root, mode)

	res, err := idx.ScanWithMode(ctx, root, mode)
	if errors.Is(err, indexer.ErrPathNotFound) {
		return fmt.Errorf("path not found: %s", root)
	}
	if snap, ok := idx.Progress(); ok {
		rep.Finish(snap)
	}
	printScanResult(a.out, res)

	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(a.out, "Scan interrupted; entries handled so far were saved.")
	}
	return err
}

func (a *app) newSearchCmd() *cobra.Command {
	var exact bool
	cmd := &cobra.Command{
		Use:   "search TERM",
		Short: "Search indexed files by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withIndexer(cmd, func(idx *indexer.Indexer) error {
				matches, err := idx.Search(cmd.Context(), args[0], exact)
				if err != nil {
					return err
				}
				printFiles(a.out, matches)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&exact, "exact", false, "match the whole file name")
	return cmd
}

func (a *app) newSearchFoldersCmd() *cobra.Command {
	var exact bool
	cmd := &cobra.Command{
		Use:   "search-folders TERM",
		Short: "Search indexed folders by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withIndexer(cmd, func(idx *indexer.Indexer) error {
				matches, err := idx.SearchFolders(cmd.Context(), args[0], exact)
				if err != nil {
					return err
				}
				printFolders(a.out, matches)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&exact, "exact", false, "match the whole folder name")
	return cmd
}

func (a *app) newSearchExtCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "search-ext EXT",
		Short:   "List indexed files with an extension",
		Example: "  file-indexer search-ext pdf\n  file-indexer search-ext .tar.gz",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withIndexer(cmd, func(idx *indexer.Indexer) error {
				matches, err := idx.SearchByExtension(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printFiles(a.out, matches)
				return nil
			})
		},
	}
}

func (a *app) newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show index statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withIndexer(cmd, func(idx *indexer.Indexer) error {
				stats, err := idx.Stats(cmd.Context())
				if err != nil {
					return err
				}
				printStats(a.out, stats)
				return nil
			})
		},
	}
}

func (a *app) newClearCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every record from the index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				if !a.interactive() {
					return errors.New("refusing to clear the index without --yes when input is not a terminal")
				}
				if !newPrompter(a.in, a.out).confirm("Delete every record from the index?") {
					return errAborted
				}
			}

			return a.withIndexer(cmd, func(idx *indexer.Indexer) error {
				return a.clear(cmd.Context(), idx)
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func (a *app) clear(ctx context.Context, idx *indexer.Indexer) error {
	n, err := idx.Clear(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Index cleared (%d records removed).\n", n)
	return nil
}

func (a *app) newMenuCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "Run the interactive menu",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runMenu(cmd.Context())
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			info := startup.GetBuildInfo()
			fmt.Fprintf(cmd.OutOrStdout(), "file-indexer %s\n", info.Version)
			fmt.Fprintf(cmd.OutOrStdout(), "  commit:  %s\n", info.Commit)
			fmt.Fprintf(cmd.OutOrStdout(), "  built:   %s\n", info.BuildTime)
			fmt.Fprintf(cmd.OutOrStdout(), "  go:      %s %s/%s\n", info.GoVersion, info.OS, info.Arch)
		},
	}
}

// withIndexer opens the index for a query command and closes it afterwards.
func (a *app) withIndexer(cmd *cobra.Command, fn func(*indexer.Indexer) error) error {
	idx, err := a.open(cmd.Context(), nil)
	if err != nil {
		return err
	}
	defer closeIndexer(idx)
	return fn(idx)
}
