/*
Package filesystem provides the primitives the indexer consumes from the
operating system: an existence check, a recursive directory enumeration that
yields (dir, subdirs, files) per visited directory, and a stat call.

# Stale Handles

StatWithRetry and ReadDirWithRetry wrap os.Stat and os.ReadDir. When the
RetryConfig allows it they retry ESTALE (stale NFS file handle, errno 116)
with exponential backoff:

	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())

Every other error is returned immediately. The indexer passes NoRetry()
unless STALE_RETRIES is set, so a scan performs each stat exactly once by
default.

# Walking

	err := filesystem.Walk(ctx, root, filesystem.WalkOptions{}, func(dir string, subdirs, files []string) error {
	    // enqueue entries
	    return nil
	})

Unreadable directories below the root are reported through
WalkOptions.OnError and skipped. Failure to read the root itself is returned.
*/
package filesystem
