// Package warehouse persists transformed datasets into SQLite so the
// reporting facade can aggregate over them. The pipeline treats it as an
// opaque sink behind the Loader.
package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	tbl "github.com/rehabmetrics/gaitetl/pkg/table"
)

type DB struct {
	sql *sql.DB
}

// Open opens (or creates) the warehouse database.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	schema := `
	CREATE TABLE IF NOT EXISTS run_summaries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		table_name TEXT NOT NULL,
		summary TEXT NOT NULL,
		processed_at DATETIME NOT NULL
	);`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (w *DB) Close() error { return w.sql.Close() }

// Store replaces the dataset's table and records its run summary in one
// transaction. Re-running a dataset overwrites its prior contents.
func (w *DB) Store(ctx context.Context, runID, name string, t *tbl.Table, summaryJSON []byte, processedAt time.Time) error {
	table := sanitizeIdent(name)
	tx, err := w.sql.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %q`, table)); err != nil {
		return err
	}

	cols := t.Schema().Columns
	defs := make([]string, len(cols))
	names := make([]string, len(cols))
	marks := make([]string, len(cols))
	for i, cs := range cols {
		names[i] = fmt.Sprintf("%q", sanitizeIdent(cs.Name))
		marks[i] = "?"
		defs[i] = names[i] + " " + sqlType(cs.Type)
	}
	create := fmt.Sprintf(`CREATE TABLE %q (%s)`, table, strings.Join(defs, ", "))
	if _, err := tx.ExecContext(ctx, create); err != nil {
		return err
	}

	insert := fmt.Sprintf(`INSERT INTO %q (%s) VALUES (%s)`,
		table, strings.Join(names, ", "), strings.Join(marks, ", "))
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	args := make([]any, len(cols))
	for r := 0; r < t.Rows(); r++ {
		for i, cs := range cols {
			v, ok := t.Value(r, cs.Name)
			if !ok {
				args[i] = nil
				continue
			}
			if d, isDate := v.(time.Time); isDate {
				v = d.Format(tbl.DateFormat)
			}
			args[i] = v
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return err
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO run_summaries (run_id, table_name, summary, processed_at) VALUES (?, ?, ?, ?)`,
		runID, table, string(summaryJSON), processedAt.UTC())
	if err != nil {
		return err
	}
	return tx.Commit()
}

func sqlType(k tbl.Kind) string {
	switch k {
	case tbl.KindInt, tbl.KindBool:
		return "INTEGER"
	case tbl.KindFloat:
		return "REAL"
	}
	return "TEXT"
}

// sanitizeIdent keeps identifiers to the character set the extractor's
// inferred column names are expected to use.
func sanitizeIdent(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}
