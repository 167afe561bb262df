package adapters

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"clipsleuth/config"
	"clipsleuth/entry"
	"clipsleuth/logger"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/time/rate"
)

// SQLiteAdapter walks every table of a clipboard manager database and
// probes each row for clipboard content. Schemas differ per manager, so
// no table or column names are assumed; the row probe decides.
type SQLiteAdapter struct {
	name       string
	path       string
	opts       entry.RowOptions
	limiter    *rate.Limiter
	maxEntries int
}

func NewSQLiteAdapter(name, path string, cfg *config.Config, limiter *rate.Limiter) *SQLiteAdapter {
	return &SQLiteAdapter{
		name: name,
		path: path,
		opts: entry.RowOptions{
			SourceApp:    name,
			PreviewLimit: cfg.PreviewLimit,
		},
		limiter:    limiter,
		maxEntries: cfg.MaxEntries,
	}
}

func (a *SQLiteAdapter) Name() string {
	return a.name
}

func (a *SQLiteAdapter) Extract(ctx context.Context) ([]*entry.Entry, error) {
	db, err := sql.Open("sqlite3", "file:"+a.path+"?mode=ro&immutable=1")
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", a.path, err)
	}
	defer db.Close()

	tables, err := listTables(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("list tables in %s: %w", a.path, err)
	}

	limit := a.maxEntries
	if limit <= 0 {
		limit = int(^uint(0) >> 1)
	}

	var entries []*entry.Entry
	for _, table := range tables {
		if len(entries) >= limit {
			logger.Warnf("Entry cap reached reading %s, remaining tables skipped", a.path)
			break
		}
		rows, err := a.readTable(ctx, db, table, limit-len(entries))
		if err != nil {
			logger.Debugf("Table %s in %s unreadable: %v", table, a.path, err)
			continue
		}
		entries = append(entries, rows...)
	}
	return entries, nil
}

func (a *SQLiteAdapter) readTable(ctx context.Context, db *sql.DB, table string, remaining int) ([]*entry.Entry, error) {
	rows, err := db.QueryContext(ctx, "SELECT * FROM "+quoteIdent(table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var entries []*entry.Entry
	values := make([]interface{}, len(cols))
	scan := make([]interface{}, len(cols))
	for i := range values {
		scan[i] = &values[i]
	}

	for rows.Next() && len(entries) < remaining {
		if err := a.limiter.Wait(ctx); err != nil {
			return entries, err
		}
		if err := rows.Scan(scan...); err != nil {
			logger.Debugf("Row scan failed in %s: %v", table, err)
			continue
		}
		row := make(map[string]interface{}, len(cols))
		for i, col := range cols {
			row[strings.ToLower(col)] = normalizeValue(values[i])
		}
		if e, ok := entry.FromRow(row, a.opts); ok {
			entries = append(entries, e)
		}
	}
	return entries, rows.Err()
}

func listTables(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// normalizeValue makes driver values JSON-friendly. BLOB columns come
// back as []byte; textual payloads are common there.
func normalizeValue(v interface{}) interface{} {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
