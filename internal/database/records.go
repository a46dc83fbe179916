package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"file-indexer/internal/logging"
	"file-indexer/internal/metrics"
)

// upsertSQL overwrites the row sharing full_path. A row whose item_type
// differs is left untouched, so a path never changes type.
const upsertSQL = `
	INSERT INTO files (filename, full_path, parent_path, file_size, modified_date, item_type)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(full_path) DO UPDATE SET
		filename = excluded.filename,
		parent_path = excluded.parent_path,
		file_size = excluded.file_size,
		modified_date = excluded.modified_date,
		indexed_date = CURRENT_TIMESTAMP
	WHERE files.item_type = excluded.item_type
`

// UpsertOne writes a single record in its own transaction on the caller's
// registry connection.
func (d *Database) UpsertOne(ctx context.Context, rec Record) error {
	return d.upsert(ctx, "upsert_one", []Record{rec})
}

// UpsertMany writes records in one transaction on the caller's registry
// connection. Either every record is applied or none is.
func (d *Database) UpsertMany(ctx context.Context, recs []Record) error {
	if len(recs) == 0 {
		return nil
	}
	return d.upsert(ctx, "upsert_many", recs)
}

func (d *Database) upsert(ctx context.Context, operation string, recs []Record) error {
	start := time.Now()

	err := d.withConn(ctx, func(conn *sql.Conn) error {
		txStart := time.Now()
		tx, err := conn.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, upsertSQL)
		if err != nil {
			return endTx(tx, txStart, fmt.Errorf("failed to prepare upsert: %w", err))
		}
		defer stmt.Close()

		for _, rec := range recs {
			if _, err := stmt.ExecContext(ctx,
				rec.Filename, rec.FullPath, rec.ParentPath, rec.FileSize, rec.ModifiedDate, string(rec.ItemType),
			); err != nil {
				return endTx(tx, txStart, fmt.Errorf("failed to upsert %s: %w", rec.FullPath, err))
			}
		}

		return endTx(tx, txStart, nil)
	})

	recordQuery(operation, start, err)
	if err != nil {
		logging.Error("Store write of %d record(s) starting at %s failed (owner %s): %v",
			len(recs), recs[0].FullPath, OwnerFrom(ctx), err)
		return err
	}

	metrics.DBRowsWritten.Add(float64(len(recs)))
	return nil
}

// endTx commits tx when err is nil and rolls it back otherwise.
func endTx(tx *sql.Tx, txStart time.Time, err error) error {
	duration := time.Since(txStart).Seconds()

	if err != nil {
		metrics.DBTransactionDuration.WithLabelValues("rollback").Observe(duration)
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback also failed: %w", rbErr))
		}
		return err
	}

	metrics.DBTransactionDuration.WithLabelValues("commit").Observe(duration)
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetRecord returns the record stored for fullPath, or nil if there is none.
func (d *Database) GetRecord(ctx context.Context, fullPath string) (*Record, error) {
	start := time.Now()
	var rec *Record

	err := d.withReader(ctx, func(q querier) error {
		var (
			r          Record
			parentPath sql.NullString
			size       sql.NullInt64
			modified   sql.NullString
			indexed    sql.NullString
			itemType   string
		)
		err := q.QueryRowContext(ctx, `
			SELECT filename, full_path, parent_path, file_size, modified_date, item_type, indexed_date
			FROM files WHERE full_path = ?
		`, fullPath).Scan(&r.Filename, &r.FullPath, &parentPath, &size, &modified, &itemType, &indexed)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}

		r.ParentPath = parentPath.String
		r.ItemType = ItemType(itemType)
		r.IndexedDate = indexed.String
		if size.Valid {
			r.FileSize = &size.Int64
		}
		if modified.Valid {
			r.ModifiedDate = &modified.String
		}
		rec = &r
		return nil
	})

	recordQuery("get_record", start, err)
	return rec, err
}
