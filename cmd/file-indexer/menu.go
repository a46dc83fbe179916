package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"file-indexer/internal/indexer"
	"file-indexer/internal/logging"
	"file-indexer/internal/progress"
)

// prompter reads line-oriented answers from the user.
type prompter struct {
	sc  *bufio.Scanner
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{sc: bufio.NewScanner(in), out: out}
}

// ask prints prompt and returns the trimmed answer. ok is false once input
// is exhausted.
func (p *prompter) ask(prompt string) (answer string, ok bool) {
	fmt.Fprint(p.out, prompt)
	if !p.sc.Scan() {
		fmt.Fprintln(p.out)
		return "", false
	}
	return strings.TrimSpace(p.sc.Text()), true
}

// confirm asks a yes/no question that defaults to no.
func (p *prompter) confirm(question string) bool {
	answer, ok := p.ask(question + " (y/N): ")
	if !ok {
		return false
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

type menuItem struct {
	label string
	run   func(ctx context.Context, idx *indexer.Indexer) error
}

// runMenu drives the interactive menu until the user exits, input ends or
// ctx is canceled. Errors from a single action are reported and the menu
// continues.
func (a *app) runMenu(ctx context.Context) error {
	rep := progress.New(a.errOut)
	idx, err := a.open(ctx, rep)
	if err != nil {
		return err
	}
	defer closeIndexer(idx)

	p := newPrompter(a.in, a.out)
	items := a.menuItems(p, rep)

	for ctx.Err() == nil {
		fmt.Fprintln(a.out)
		fmt.Fprintln(a.out, "File indexer")
		fmt.Fprintln(a.out, "------------")
		for i, item := range items {
			fmt.Fprintf(a.out, "%d. %s\n", i+1, item.label)
		}
		fmt.Fprintln(a.out, "0. Exit")

		choice, ok := p.ask("\nChoose an option: ")
		if !ok || choice == "0" {
			return nil
		}

		n, err := strconv.Atoi(choice)
		if err != nil || n < 1 || n > len(items) {
			fmt.Fprintln(a.out, "Invalid option.")
			continue
		}

		if err := items[n-1].run(ctx, idx); err != nil {
			if errors.Is(err, errAborted) {
				fmt.Fprintln(a.out, "Cancelled.")
				continue
			}
			logging.Debug("Menu action %q failed: %v", items[n-1].label, err)
			fmt.Fprintf(a.out, "Error: %v\n", err)
		}
	}
	return ctx.Err()
}

func (a *app) menuItems(p *prompter, rep *progress.Reporter) []menuItem {
	scanWith := func(mode indexer.Mode) func(context.Context, *indexer.Indexer) error {
		return func(ctx context.Context, idx *indexer.Indexer) error {
			root, ok := p.ask("Path to scan: ")
			if !ok || root == "" {
				return errAborted
			}
			err := a.scan(ctx, idx, rep, root, mode)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
	}

	return []menuItem{
		{label: "Scan files (streaming)", run: scanWith(indexer.ModeStreaming)},
		{label: "Scan files (batch)", run: scanWith(indexer.ModeBatch)},
		{label: "Scan folders", run: scanWith(indexer.ModeFolders)},
		{label: "Search files", run: func(ctx context.Context, idx *indexer.Indexer) error {
			term, exact, ok := a.askTerm(p)
			if !ok {
				return errAborted
			}
			matches, err := idx.Search(ctx, term, exact)
			if err != nil {
				return err
			}
			printFiles(a.out, matches)
			return nil
		}},
		{label: "Search folders", run: func(ctx context.Context, idx *indexer.Indexer) error {
			term, exact, ok := a.askTerm(p)
			if !ok {
				return errAborted
			}
			matches, err := idx.SearchFolders(ctx, term, exact)
			if err != nil {
				return err
			}
			printFolders(a.out, matches)
			return nil
		}},
		{label: "Search by extension", run: func(ctx context.Context, idx *indexer.Indexer) error {
			ext, ok := p.ask("Extension (e.g. pdf): ")
			if !ok || ext == "" {
				return errAborted
			}
			matches, err := idx.SearchByExtension(ctx, ext)
			if err != nil {
				return err
			}
			printFiles(a.out, matches)
			return nil
		}},
		{label: "Statistics", run: func(ctx context.Context, idx *indexer.Indexer) error {
			stats, err := idx.Stats(ctx)
			if err != nil {
				return err
			}
			printStats(a.out, stats)
			return nil
		}},
		{label: "Clear index", run: func(ctx context.Context, idx *indexer.Indexer) error {
			if !p.confirm("Delete every record from the index?") {
				return errAborted
			}
			return a.clear(ctx, idx)
		}},
	}
}

func (a *app) askTerm(p *prompter) (term string, exact, ok bool) {
	term, ok = p.ask("Search term: ")
	if !ok || term == "" {
		return "", false, false
	}
	return term, p.confirm("Exact match?"), true
}
