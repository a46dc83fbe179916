package main

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"

	"file-indexer/internal/database"
	"file-indexer/internal/indexer"
)

func printFiles(w io.Writer, matches []database.FileMatch) {
	if len(matches) == 0 {
		fmt.Fprintln(w, "No files found.")
		return
	}

	fmt.Fprintf(w, "Found %s file(s):\n", humanize.Comma(int64(len(matches))))
	for _, m := range matches {
		fmt.Fprintf(w, "\n  %s\n", m.Filename)
		fmt.Fprintf(w, "    Path:     %s\n", m.FullPath)
		fmt.Fprintf(w, "    Size:     %s\n", humanize.IBytes(uint64(max(m.FileSize, 0))))
		fmt.Fprintf(w, "    Modified: %s\n", m.ModifiedDate)
	}
}

func printFolders(w io.Writer, matches []database.FolderMatch) {
	if len(matches) == 0 {
		fmt.Fprintln(w, "No folders found.")
		return
	}

	fmt.Fprintf(w, "Found %s folder(s):\n", humanize.Comma(int64(len(matches))))
	for _, m := range matches {
		fmt.Fprintf(w, "\n  %s\n", m.Name)
		fmt.Fprintf(w, "    Path:   %s\n", m.Path)
		fmt.Fprintf(w, "    Parent: %s\n", m.ParentPath)
	}
}

func printStats(w io.Writer, stats database.IndexStats) {
	fmt.Fprintln(w, "Index statistics")
	fmt.Fprintln(w, "----------------")
	fmt.Fprintf(w, "Files:      %s\n", humanize.Comma(stats.TotalFiles))
	fmt.Fprintf(w, "Folders:    %s\n", humanize.Comma(stats.TotalFolders))
	fmt.Fprintf(w, "Total size: %.2f MB\n", stats.TotalSizeMB)

	if len(stats.TopExtensions) == 0 {
		return
	}
	fmt.Fprintln(w, "\nMost common extensions:")
	for _, ec := range stats.TopExtensions {
		fmt.Fprintf(w, "  %-12s %s\n", ec.Extension, humanize.Comma(ec.Count))
	}
}

func printScanResult(w io.Writer, res indexer.ScanResult) {
	fmt.Fprintf(w, "Indexed %s of %s entries under %s (%s errors, %.1f%% success) in %v\n",
		humanize.Comma(res.Processed),
		humanize.Comma(res.Discovered),
		res.Root,
		humanize.Comma(res.Errors),
		res.SuccessRate(),
		res.Duration.Round(time.Millisecond),
	)
}
