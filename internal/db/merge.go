// Package db holds the Postgres bulk-write helpers used by the series store.
package db

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// Merge describes a keyed bulk write. Rows are staged with COPY, merged into
// Table on Keys and, when Scope is set, rows of that scope missing from the
// batch are deleted so the table mirrors the batch.
type Merge struct {
	Table   string   // schema-qualified, e.g. "covid.series"
	Columns []string // column order of each staged row
	Keys    []string // unique constraint columns
	Scope   *Scope
}

// Scope limits pruning to rows where Column = Value.
type Scope struct {
	Column string
	Value  any
}

// MergeResult counts rows written and rows pruned.
type MergeResult struct {
	Written int64
	Pruned  int64
}

// Apply runs m over rows in one transaction. An empty batch is a no-op and
// never prunes.
func Apply(ctx context.Context, pool Pool, m Merge, rows [][]any) (MergeResult, error) {
	var res MergeResult
	if len(rows) == 0 {
		return res, nil
	}
	if err := m.validate(); err != nil {
		return res, err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return res, eris.Wrapf(err, "db: merge %s: begin", m.Table)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, m.stageSQL()); err != nil {
		return res, eris.Wrapf(err, "db: merge %s: create stage", m.Table)
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{m.stage()}, m.Columns, pgx.CopyFromRows(rows)); err != nil {
		return res, eris.Wrapf(err, "db: merge %s: copy into stage", m.Table)
	}

	tag, err := tx.Exec(ctx, m.upsertSQL())
	if err != nil {
		return res, eris.Wrapf(err, "db: merge %s: upsert", m.Table)
	}
	res.Written = tag.RowsAffected()

	if m.Scope != nil {
		tag, err := tx.Exec(ctx, m.pruneSQL(), m.Scope.Value)
		if err != nil {
			return res, eris.Wrapf(err, "db: merge %s: prune", m.Table)
		}
		res.Pruned = tag.RowsAffected()
	}

	if err := tx.Commit(ctx); err != nil {
		return res, eris.Wrapf(err, "db: merge %s: commit", m.Table)
	}
	return res, nil
}

// CopyInto bulk-inserts rows into a schema-qualified table with COPY.
func CopyInto(ctx context.Context, pool Pool, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	n, err := pool.CopyFrom(ctx, identifier(table), columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, eris.Wrapf(err, "db: copy into %s", table)
	}
	return n, nil
}

func (m Merge) validate() error {
	switch {
	case m.Table == "":
		return eris.New("db: merge: no table")
	case len(m.Columns) == 0:
		return eris.Errorf("db: merge %s: no columns", m.Table)
	case len(m.Keys) == 0:
		return eris.Errorf("db: merge %s: no keys", m.Table)
	}
	return nil
}

// stage is the temp table name, e.g. "_stage_covid_series".
func (m Merge) stage() string {
	return "_stage_" + strings.ReplaceAll(m.Table, ".", "_")
}

func (m Merge) stageSQL() string {
	return "CREATE TEMP TABLE " + pgx.Identifier{m.stage()}.Sanitize() +
		" (LIKE " + identifier(m.Table).Sanitize() + " INCLUDING DEFAULTS) ON COMMIT DROP"
}

func (m Merge) upsertSQL() string {
	keys := make(map[string]bool, len(m.Keys))
	for _, k := range m.Keys {
		keys[k] = true
	}
	var set []string
	for _, c := range m.Columns {
		if !keys[c] {
			q := pgx.Identifier{c}.Sanitize()
			set = append(set, q+" = EXCLUDED."+q)
		}
	}
	action := "DO NOTHING"
	if len(set) > 0 {
		action = "DO UPDATE SET " + strings.Join(set, ", ")
	}

	cols := quoteAll(m.Columns)
	return "INSERT INTO " + identifier(m.Table).Sanitize() + " (" + cols + ") SELECT " + cols +
		" FROM " + pgx.Identifier{m.stage()}.Sanitize() +
		" ON CONFLICT (" + quoteAll(m.Keys) + ") " + action
}

func (m Merge) pruneSQL() string {
	match := make([]string, len(m.Keys))
	for i, k := range m.Keys {
		q := pgx.Identifier{k}.Sanitize()
		match[i] = "s." + q + " = t." + q
	}
	return "DELETE FROM " + identifier(m.Table).Sanitize() + " t WHERE t." +
		pgx.Identifier{m.Scope.Column}.Sanitize() + " = $1 AND NOT EXISTS (SELECT 1 FROM " +
		pgx.Identifier{m.stage()}.Sanitize() + " s WHERE " + strings.Join(match, " AND ") + ")"
}

// identifier splits "schema.table" into a pgx identifier.
func identifier(table string) pgx.Identifier {
	return pgx.Identifier(strings.SplitN(table, ".", 2))
}

func quoteAll(cols []string) string {
	q := make([]string, len(cols))
	for i, c := range cols {
		q[i] = pgx.Identifier{c}.Sanitize()
	}
	return strings.Join(q, ", ")
}
