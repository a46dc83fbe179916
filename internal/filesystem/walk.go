package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// WalkFunc is called once per visited directory with the base names of its
// subdirectories and files. Returning fs.SkipAll stops the walk without error.
type WalkFunc func(dir string, subdirs, files []string) error

// WalkOptions tunes Walk.
type WalkOptions struct {
	Retry RetryConfig
	// OnError is called for directories below the root that cannot be read.
	// They are skipped either way.
	OnError func(dir string, err error)
}

// Exists reports whether path can be stat'ed.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Walk visits root and every directory beneath it depth-first, top-down.
//
// Symlinks to directories are reported in subdirs but never descended.
// Broken symlinks and other non-directories are reported in files.
// A root that is not a directory yields no callbacks.
func Walk(ctx context.Context, root string, opts WalkOptions, fn WalkFunc) error {
	info, err := StatWithRetry(root, opts.Retry)
	if err != nil {
		return fmt.Errorf("failed to stat walk root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil
	}

	entries, err := ReadDirWithRetry(root, opts.Retry)
	if err != nil {
		return fmt.Errorf("failed to read walk root %s: %w", root, err)
	}

	err = walkDir(ctx, root, entries, opts, fn)
	if errors.Is(err, fs.SkipAll) {
		return nil
	}
	return err
}

func walkDir(ctx context.Context, dir string, entries []os.DirEntry, opts WalkOptions, fn WalkFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	subdirs, descend, files := classify(dir, entries)
	if err := fn(dir, subdirs, files); err != nil {
		return err
	}

	for _, name := range descend {
		path := filepath.Join(dir, name)
		children, err := ReadDirWithRetry(path, opts.Retry)
		if err != nil {
			if opts.OnError != nil {
				opts.OnError(path, err)
			}
			continue
		}
		if err := walkDir(ctx, path, children, opts, fn); err != nil {
			return err
		}
	}

	return nil
}

// classify splits entries into subdirectory names, the subset safe to
// descend into, and file names.
func classify(dir string, entries []os.DirEntry) (subdirs, descend, files []string) {
	for _, entry := range entries {
		name := entry.Name()
		switch {
		case entry.IsDir():
			subdirs = append(subdirs, name)
			descend = append(descend, name)
		case entry.Type()&fs.ModeSymlink != 0:
			if info, err := os.Stat(filepath.Join(dir, name)); err == nil && info.IsDir() {
				subdirs = append(subdirs, name)
			} else {
				files = append(files, name)
			}
		default:
			files = append(files, name)
		}
	}
	return subdirs, descend, files
}
