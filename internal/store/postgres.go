package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/covidsync/internal/db"
	"github.com/sells-group/covidsync/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	return MigratePostgres(ctx, s.pool)
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) StartRun(ctx context.Context, variant string) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO covid.runs (id, variant, status, started_at) VALUES ($1, $2, $3, $4)`,
		id, variant, string(model.RunStatusRunning), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &model.Run{
		ID:        id,
		Variant:   variant,
		Status:    model.RunStatusRunning,
		StartedAt: now,
	}, nil
}

func (s *PostgresStore) CompleteRun(ctx context.Context, runID string, result *model.RunResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal result")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE covid.runs SET status = $1, result = $2, completed_at = now() WHERE id = $3`,
		string(model.RunStatusComplete), resultJSON, runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrRunNotFound, "run %s", runID)
	}
	return nil
}

func (s *PostgresStore) FailRun(ctx context.Context, runID string, errMsg string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE covid.runs SET status = $1, error = $2, completed_at = now() WHERE id = $3`,
		string(model.RunStatusFailed), errMsg, runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrRunNotFound, "run %s", runID)
	}
	return nil
}

const runColumns = `id, variant, status, result, error, started_at, completed_at`

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+runColumns+` FROM covid.runs WHERE id = $1`,
		runID,
	)
	r, err := scanPgRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrRunNotFound, "postgres: get run %s", runID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get run")
	}
	return r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	var (
		where []string
		args  []any
	)
	if filter.Variant != "" {
		args = append(args, filter.Variant)
		where = append(where, "variant = $"+strconv.Itoa(len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, "status = $"+strconv.Itoa(len(args)))
	}

	query := `SELECT ` + runColumns + ` FROM covid.runs`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, listLimit(filter))
	query += ` ORDER BY started_at DESC LIMIT $` + strconv.Itoa(len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanPgRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: list runs iterate")
	}
	return runs, nil
}

// SaveSeries merges the variant's series rows keyed on (variant, entity, date)
// and prunes the variant's rows that are no longer produced.
func (s *PostgresStore) SaveSeries(ctx context.Context, variant string, rows []model.SeriesRow) (int64, error) {
	data := make([][]any, len(rows))
	for i, r := range rows {
		args := seriesArgs(variant, r)
		args[2] = r.Date.Time
		data[i] = args
	}
	res, err := db.Apply(ctx, s.pool, db.Merge{
		Table:   "covid.series",
		Columns: seriesColumns,
		Keys:    []string{"variant", "entity", "date"},
		Scope:   &db.Scope{Column: "variant", Value: variant},
	}, data)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: save series for %s", variant)
	}
	if res.Pruned > 0 {
		zap.L().Info("pruned stale series rows",
			zap.String("component", "store"),
			zap.String("variant", variant),
			zap.Int64("pruned", res.Pruned),
		)
	}
	return res.Written, nil
}

// SaveReports replaces the variant's cleaned reports using COPY.
func (s *PostgresStore) SaveReports(ctx context.Context, variant string, rows []model.Report) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: begin reports")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM covid.reports WHERE variant = $1`, variant); err != nil {
		return 0, eris.Wrapf(err, "postgres: clear reports for %s", variant)
	}

	data := make([][]any, len(rows))
	for i, r := range rows {
		args := reportArgs(variant, r)
		args[1] = r.Date.Time
		data[i] = args
	}
	n, err := db.CopyInto(ctx, tx, "covid.reports", reportColumns, data)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: copy reports for %s", variant)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "postgres: commit reports")
	}
	return n, nil
}

func scanPgRun(row pgx.Row) (*model.Run, error) {
	var (
		r           model.Run
		status      string
		resultJSON  []byte
		errMsg      *string
		completedAt *time.Time
	)
	if err := row.Scan(&r.ID, &r.Variant, &status, &resultJSON, &errMsg, &r.StartedAt, &completedAt); err != nil {
		return nil, err
	}
	r.Status = model.RunStatus(status)
	if resultJSON != nil {
		r.Result = &model.RunResult{}
		if err := json.Unmarshal(resultJSON, r.Result); err != nil {
			return nil, eris.Wrap(err, "unmarshal result")
		}
	}
	if errMsg != nil {
		r.Error = *errMsg
	}
	r.CompletedAt = completedAt
	return &r, nil
}
