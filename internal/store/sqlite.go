package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/covidsync/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck,gosec
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	variant      TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'running',
	result       TEXT,
	error        TEXT,
	started_at   DATETIME NOT NULL,
	completed_at DATETIME
);

CREATE TABLE IF NOT EXISTS series (
	variant              TEXT NOT NULL,
	entity               TEXT NOT NULL,
	date                 TEXT NOT NULL,
	confirmed            INTEGER NOT NULL,
	deaths               INTEGER NOT NULL,
	recovered            INTEGER NOT NULL,
	active               INTEGER NOT NULL,
	total_test_results   INTEGER NOT NULL,
	people_hospitalized  INTEGER NOT NULL,
	incident_rate        REAL NOT NULL,
	testing_rate         REAL NOT NULL,
	hospitalization_rate REAL NOT NULL,
	case_fatality_ratio  REAL NOT NULL,
	new_confirmed        INTEGER NOT NULL,
	new_deaths           INTEGER NOT NULL,
	new_recovered        INTEGER NOT NULL,
	new_active           INTEGER NOT NULL,
	new_confirmed_ma7    REAL NOT NULL,
	new_deaths_ma7       REAL NOT NULL,
	new_recovered_ma7    REAL NOT NULL,
	new_active_ma7       REAL NOT NULL,
	PRIMARY KEY (variant, entity, date)
);

CREATE TABLE IF NOT EXISTS reports (
	variant              TEXT NOT NULL,
	date                 TEXT NOT NULL,
	fips                 TEXT,
	admin2               TEXT,
	province_state       TEXT,
	country_region       TEXT,
	last_update          TEXT,
	lat                  REAL,
	long                 REAL,
	confirmed            INTEGER NOT NULL,
	deaths               INTEGER NOT NULL,
	recovered            INTEGER NOT NULL,
	active               INTEGER NOT NULL,
	combined_key         TEXT,
	incident_rate        REAL,
	total_test_results   INTEGER,
	people_hospitalized  INTEGER,
	case_fatality_ratio  REAL,
	testing_rate         REAL,
	hospitalization_rate REAL
);

CREATE INDEX IF NOT EXISTS idx_runs_variant ON runs(variant);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
CREATE INDEX IF NOT EXISTS idx_reports_variant_date ON reports(variant, date);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteMigration); err != nil {
		return eris.Wrap(err, "sqlite: migrate")
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) StartRun(ctx context.Context, variant string) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, variant, status, started_at) VALUES (?, ?, ?, ?)`,
		id, variant, string(model.RunStatusRunning), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{
		ID:        id,
		Variant:   variant,
		Status:    model.RunStatusRunning,
		StartedAt: now,
	}, nil
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, result *model.RunResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal result")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, result = ?, completed_at = ? WHERE id = ?`,
		string(model.RunStatusComplete), string(resultJSON), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", runID)
	}
	return checkRowsAffected(res, runID)
}

func (s *SQLiteStore) FailRun(ctx context.Context, runID string, errMsg string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error = ?, completed_at = ? WHERE id = ?`,
		string(model.RunStatusFailed), errMsg, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail run %s", runID)
	}
	return checkRowsAffected(res, runID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, variant, status, result, error, started_at, completed_at FROM runs WHERE id = ?`,
		runID,
	)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(ErrRunNotFound, "sqlite: get run %s", runID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get run")
	}
	return r, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	var (
		where []string
		args  []any
	)
	if filter.Variant != "" {
		where = append(where, "variant = ?")
		args = append(args, filter.Variant)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}

	query := `SELECT id, variant, status, result, error, started_at, completed_at FROM runs`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY started_at DESC, rowid DESC LIMIT ?`
	args = append(args, listLimit(filter))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		runs = append(runs, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs iterate")
	}
	return runs, nil
}

func (s *SQLiteStore) SaveSeries(ctx context.Context, variant string, rows []model.SeriesRow) (int64, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(seriesColumns)), ", ")
	insert := `INSERT INTO series (` + strings.Join(seriesColumns, ", ") + `) VALUES (` + placeholders + `)`

	return s.replace(ctx, "series", variant, insert, len(rows), func(stmt *sql.Stmt, i int) error {
		_, err := stmt.ExecContext(ctx, seriesArgs(variant, rows[i])...)
		return err
	})
}

func (s *SQLiteStore) SaveReports(ctx context.Context, variant string, rows []model.Report) (int64, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(reportColumns)), ", ")
	insert := `INSERT INTO reports (` + strings.Join(reportColumns, ", ") + `) VALUES (` + placeholders + `)`

	return s.replace(ctx, "reports", variant, insert, len(rows), func(stmt *sql.Stmt, i int) error {
		_, err := stmt.ExecContext(ctx, reportArgs(variant, rows[i])...)
		return err
	})
}

// replace deletes the variant's rows from table and inserts n new ones in a
// single transaction.
func (s *SQLiteStore) replace(ctx context.Context, table, variant, insert string, n int, exec func(*sql.Stmt, int) error) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: begin %s", table)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE variant = ?`, variant); err != nil {
		return 0, eris.Wrapf(err, "sqlite: clear %s for %s", table, variant)
	}

	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: prepare %s insert", table)
	}
	defer stmt.Close() //nolint:errcheck

	for i := 0; i < n; i++ {
		if err := exec(stmt, i); err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert %s row %d", table, i)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrapf(err, "sqlite: commit %s", table)
	}
	return int64(n), nil
}

// helpers

func checkRowsAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrRunNotFound, "run %s", id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.Run, error) {
	var (
		r           model.Run
		resultJSON  sql.NullString
		errMsg      sql.NullString
		completedAt sql.NullTime
	)
	if err := row.Scan(&r.ID, &r.Variant, &r.Status, &resultJSON, &errMsg, &r.StartedAt, &completedAt); err != nil {
		return nil, err
	}

	if resultJSON.Valid {
		r.Result = &model.RunResult{}
		if err := json.Unmarshal([]byte(resultJSON.String), r.Result); err != nil {
			return nil, eris.Wrap(err, "unmarshal result")
		}
	}
	r.Error = errMsg.String
	if completedAt.Valid {
		t := completedAt.Time
		r.CompletedAt = &t
	}
	return &r, nil
}
