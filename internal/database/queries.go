package database

import (
	"context"
	"database/sql"
	"math"
	"strings"
	"time"

	"file-indexer/internal/logging"
	"file-indexer/internal/metrics"
)

// topExtensionsLimit bounds the extension ranking returned by Stats.
const topExtensionsLimit = 10

// likeEscaper escapes LIKE wildcards so search terms match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likeContains(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

func likeSuffix(suffix string) string {
	return "%" + likeEscaper.Replace(suffix)
}

// NormalizeExtension returns ext with exactly one leading dot.
func NormalizeExtension(ext string) string {
	ext = strings.TrimSpace(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// SearchFiles finds file records by name. exact selects equality on the
// filename, otherwise term matches any substring of it.
func (d *Database) SearchFiles(ctx context.Context, term string, exact bool) ([]FileMatch, error) {
	query := `SELECT filename, full_path, file_size, modified_date FROM files
		WHERE item_type = 'file' AND filename = ? ORDER BY full_path`
	arg := term
	if !exact {
		query = `SELECT filename, full_path, file_size, modified_date FROM files
			WHERE item_type = 'file' AND filename LIKE ? ESCAPE '\' ORDER BY full_path`
		arg = likeContains(term)
	}

	logging.Debug("SearchFiles: term=%q exact=%v", term, exact)
	return d.queryFiles(ctx, "search_files", query, arg)
}

// SearchByExtension finds files whose name ends in ext. "pdf" and ".pdf"
// are equivalent.
func (d *Database) SearchByExtension(ctx context.Context, ext string) ([]FileMatch, error) {
	ext = NormalizeExtension(ext)
	logging.Debug("SearchByExtension: ext=%q", ext)
	return d.queryFiles(ctx, "search_extension", `
		SELECT filename, full_path, file_size, modified_date FROM files
		WHERE item_type = 'file' AND filename LIKE ? ESCAPE '\' ORDER BY full_path
	`, likeSuffix(ext))
}

func (d *Database) queryFiles(ctx context.Context, operation, query string, args ...interface{}) ([]FileMatch, error) {
	start := time.Now()
	matches := []FileMatch{}

	err := d.withReader(ctx, func(q querier) error {
		rows, err := q.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				m        FileMatch
				size     sql.NullInt64
				modified sql.NullString
			)
			if err := rows.Scan(&m.Filename, &m.FullPath, &size, &modified); err != nil {
				return err
			}
			m.FileSize = size.Int64
			m.ModifiedDate = modified.String
			matches = append(matches, m)
		}
		return rows.Err()
	})

	recordQuery(operation, start, err)
	if err != nil {
		logging.Error("%s failed: %v", operation, err)
		return nil, err
	}
	return matches, nil
}

// SearchFolders finds folder records by name with the same matching rules
// as SearchFiles.
func (d *Database) SearchFolders(ctx context.Context, term string, exact bool) ([]FolderMatch, error) {
	start := time.Now()
	query := `SELECT filename, full_path, parent_path FROM files
		WHERE item_type = 'folder' AND filename = ? ORDER BY full_path`
	arg := term
	if !exact {
		query = `SELECT filename, full_path, parent_path FROM files
			WHERE item_type = 'folder' AND filename LIKE ? ESCAPE '\' ORDER BY full_path`
		arg = likeContains(term)
	}

	logging.Debug("SearchFolders: term=%q exact=%v", term, exact)
	matches := []FolderMatch{}

	err := d.withReader(ctx, func(q querier) error {
		rows, err := q.QueryContext(ctx, query, arg)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				m      FolderMatch
				parent sql.NullString
			)
			if err := rows.Scan(&m.Name, &m.Path, &parent); err != nil {
				return err
			}
			m.ParentPath = parent.String
			matches = append(matches, m)
		}
		return rows.Err()
	})

	recordQuery("search_folders", start, err)
	if err != nil {
		logging.Error("search_folders failed: %v", err)
		return nil, err
	}
	return matches, nil
}

// Stats returns record counts, the total file size in megabytes rounded to
// two decimals and the ten most frequent extensions. The extension of a
// name is everything from its first dot; names without a dot are not ranked.
func (d *Database) Stats(ctx context.Context) (IndexStats, error) {
	start := time.Now()
	stats := IndexStats{TopExtensions: []ExtensionCount{}}

	err := d.withReader(ctx, func(q querier) error {
		var totalSize int64
		err := q.QueryRowContext(ctx, `
			SELECT
				COALESCE(SUM(CASE WHEN item_type = 'file' THEN 1 ELSE 0 END), 0),
				COALESCE(SUM(CASE WHEN item_type = 'folder' THEN 1 ELSE 0 END), 0),
				COALESCE(SUM(CASE WHEN item_type = 'file' THEN file_size ELSE 0 END), 0)
			FROM files
		`).Scan(&stats.TotalFiles, &stats.TotalFolders, &totalSize)
		if err != nil {
			return err
		}
		stats.TotalSizeMB = math.Round(float64(totalSize)/(1024*1024)*100) / 100

		rows, err := q.QueryContext(ctx, `
			SELECT SUBSTR(filename, INSTR(filename, '.')) AS extension, COUNT(*) AS count
			FROM files
			WHERE filename LIKE '%.%' AND item_type = 'file'
			GROUP BY extension
			ORDER BY count DESC, extension ASC
			LIMIT ?
		`, topExtensionsLimit)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var ec ExtensionCount
			if err := rows.Scan(&ec.Extension, &ec.Count); err != nil {
				return err
			}
			stats.TopExtensions = append(stats.TopExtensions, ec)
		}
		return rows.Err()
	})

	recordQuery("stats", start, err)
	if err != nil {
		logging.Error("stats failed: %v", err)
		return IndexStats{}, err
	}
	return stats, nil
}

// MetricsSnapshot adapts Stats for the metrics Collector.
func (d *Database) MetricsSnapshot(ctx context.Context) (metrics.Snapshot, error) {
	stats, err := d.Stats(ctx)
	if err != nil {
		return metrics.Snapshot{}, err
	}
	return metrics.Snapshot{
		TotalFiles:   stats.TotalFiles,
		TotalFolders: stats.TotalFolders,
		TotalSizeMB:  stats.TotalSizeMB,
	}, nil
}

// Clear deletes every record and returns how many were removed. The schema
// and indices are kept.
func (d *Database) Clear(ctx context.Context) (int64, error) {
	start := time.Now()
	var removed int64

	err := d.withConn(ctx, func(conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx, `DELETE FROM files`)
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		return err
	})

	recordQuery("clear", start, err)
	if err != nil {
		logging.Error("Failed to clear index: %v", err)
		return 0, err
	}
	logging.Info("Index cleared: %d record(s) removed", removed)
	return removed, nil
}
