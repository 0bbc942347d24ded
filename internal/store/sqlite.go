package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/seantiz/batchcam/internal/model"

	_ "modernc.org/sqlite"
)

const createRunsTable = `
CREATE TABLE IF NOT EXISTS runs (
    id          TEXT PRIMARY KEY,
    process     TEXT NOT NULL,
    status      TEXT NOT NULL,
    inputs      TEXT NOT NULL,
    outputs     TEXT NOT NULL,
    error       TEXT NOT NULL DEFAULT '',
    timeout_s   INTEGER,
    duration_ms INTEGER,
    created_at  DATETIME NOT NULL,
    started_at  DATETIME,
    finished_at DATETIME
)`

const createRunLogsTable = `
CREATE TABLE IF NOT EXISTS run_logs (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id     TEXT NOT NULL,
    seq        INTEGER NOT NULL,
    line       TEXT NOT NULL,
    created_at DATETIME NOT NULL
)`

const createRunLogsIndex = `
CREATE INDEX IF NOT EXISTS idx_run_logs_run_seq ON run_logs (run_id, seq)`

// AUTOINCREMENT keeps value ids unique for the life of the database, so a
// released handle is never reissued.
const createValuesTable = `
CREATE TABLE IF NOT EXISTS run_values (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id     TEXT NOT NULL,
    type       TEXT NOT NULL,
    data       BLOB,
    created_at DATETIME NOT NULL
)`

var migrations = []string{
	createRunsTable,
	createRunLogsTable,
	createRunLogsIndex,
	createValuesTable,
}

const runColumns = `id, process, status, inputs, outputs, error, timeout_s,
	duration_ms, created_at, started_at, finished_at`

// ErrNotFound is returned when a run or value is not found.
var ErrNotFound = errors.New("not found")

// Compile-time interface satisfaction check.
var _ Store = (*SQLiteStore)(nil)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the SQLite database at dbPath and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection to :memory: opens a separate database.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	for _, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(sc rowScanner) (*model.Run, error) {
	r := &model.Run{}
	var inputs, outputs string
	if err := sc.Scan(
		&r.ID, &r.Process, &r.Status, &inputs, &outputs, &r.Error, &r.TimeoutS,
		&r.DurationMS, &r.CreatedAt, &r.StartedAt, &r.FinishedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(inputs), &r.Inputs); err != nil {
		return nil, fmt.Errorf("decode inputs of run %s: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(outputs), &r.Outputs); err != nil {
		return nil, fmt.Errorf("decode outputs of run %s: %w", r.ID, err)
	}
	return r, nil
}

func encodeRunValues(r *model.Run) (inputs, outputs string, err error) {
	in, err := json.Marshal(r.Inputs)
	if err != nil {
		return "", "", fmt.Errorf("encode inputs: %w", err)
	}
	out, err := json.Marshal(r.Outputs)
	if err != nil {
		return "", "", fmt.Errorf("encode outputs: %w", err)
	}
	return string(in), string(out), nil
}

// CreateRun inserts a new run record.
func (s *SQLiteStore) CreateRun(ctx context.Context, r *model.Run) error {
	inputs, outputs, err := encodeRunValues(r)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (`+runColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Process, r.Status, inputs, outputs, r.Error, r.TimeoutS,
		r.DurationMS, r.CreatedAt, r.StartedAt, r.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*model.Run, error) {
	r, err := scanRun(s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return r, nil
}

// ListRuns returns a paginated list of runs ordered by created_at DESC,
// along with the total count of all runs.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit, offset int) ([]*model.Run, int, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, 0, fmt.Errorf("begin read tx: %w", err)
	}
	defer tx.Rollback()

	var total int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count runs: %w", err)
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate runs: %w", err)
	}

	return runs, total, nil
}

// checkTransition loads the current status of run id inside tx and verifies
// that moving to status is allowed. With allowSame, writing the current
// status again is accepted so that other fields can be saved.
func checkTransition(ctx context.Context, tx *sql.Tx, id, status string, allowSame bool) error {
	var current string
	err := tx.QueryRowContext(ctx, "SELECT status FROM runs WHERE id = ?", id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("read run status: %w", err)
	}
	if current == status && allowSame {
		return nil
	}
	if !model.ValidTransition(current, status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, status)
	}
	return nil
}

// UpdateRunStatus moves a run to status. Entering running sets started_at;
// terminal statuses (killed, completed, failed) set finished_at.
func (s *SQLiteStore) UpdateRunStatus(ctx context.Context, id, status string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := checkTransition(ctx, tx, id, status, false); err != nil {
		return err
	}

	now := time.Now().UTC()
	switch {
	case model.IsTerminal(status):
		_, err = tx.ExecContext(ctx,
			"UPDATE runs SET status = ?, finished_at = ? WHERE id = ?",
			status, now, id,
		)
	case status == model.StatusRunning:
		_, err = tx.ExecContext(ctx,
			"UPDATE runs SET status = ?, started_at = ? WHERE id = ?",
			status, now, id,
		)
	default:
		_, err = tx.ExecContext(ctx,
			"UPDATE runs SET status = ? WHERE id = ?",
			status, id,
		)
	}
	if err != nil {
		return fmt.Errorf("update run status: %w", err)
	}

	return tx.Commit()
}

// UpdateRun writes every mutable field of r, enforcing the status machine.
func (s *SQLiteStore) UpdateRun(ctx context.Context, r *model.Run) error {
	inputs, outputs, err := encodeRunValues(r)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := checkTransition(ctx, tx, r.ID, r.Status, true); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE runs SET status = ?, inputs = ?, outputs = ?, error = ?, timeout_s = ?,
			duration_ms = ?, started_at = ?, finished_at = ?
		WHERE id = ?`,
		r.Status, inputs, outputs, r.Error, r.TimeoutS,
		r.DurationMS, r.StartedAt, r.FinishedAt, r.ID,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}

	return tx.Commit()
}

// GetRunStats aggregates run counts by status and process, and the mean
// duration of runs that recorded one.
func (s *SQLiteStore) GetRunStats(ctx context.Context) (*RunStats, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("begin read tx: %w", err)
	}
	defer tx.Rollback()

	stats := &RunStats{
		CountByStatus:  map[string]int{},
		CountByProcess: map[string]int{},
	}

	var avg sql.NullFloat64
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*), AVG(duration_ms) FROM runs",
	).Scan(&stats.Total, &avg); err != nil {
		return nil, fmt.Errorf("count runs: %w", err)
	}
	if avg.Valid {
		stats.AvgDurationMS = avg.Float64
	}

	if err := countBy(ctx, tx, "status", stats.CountByStatus); err != nil {
		return nil, err
	}
	if err := countBy(ctx, tx, "process", stats.CountByProcess); err != nil {
		return nil, err
	}
	return stats, nil
}

// countBy fills into with run counts grouped by column, which must be a
// trusted column name.
func countBy(ctx context.Context, tx *sql.Tx, column string, into map[string]int) error {
	rows, err := tx.QueryContext(ctx,
		"SELECT "+column+", COUNT(*) FROM runs GROUP BY "+column,
	)
	if err != nil {
		return fmt.Errorf("count runs by %s: %w", column, err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return fmt.Errorf("scan %s count: %w", column, err)
		}
		into[key] = n
	}
	return rows.Err()
}

// InsertLogLine appends one line of process output to a run's log.
func (s *SQLiteStore) InsertLogLine(ctx context.Context, runID string, seq int, line string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO run_logs (run_id, seq, line, created_at) VALUES (?, ?, ?, ?)",
		runID, seq, line, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert log line: %w", err)
	}
	return nil
}

// GetLogLines returns the log lines of a run ordered by seq. A run with no
// output yields an empty, non-nil slice.
func (s *SQLiteStore) GetLogLines(ctx context.Context, runID string) ([]model.LogLine, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, run_id, seq, line, created_at FROM run_logs WHERE run_id = ? ORDER BY seq ASC",
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("get log lines: %w", err)
	}
	defer rows.Close()

	lines := []model.LogLine{}
	for rows.Next() {
		var l model.LogLine
		if err := rows.Scan(&l.ID, &l.RunID, &l.Seq, &l.Line, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan log line: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate log lines: %w", err)
	}
	return lines, nil
}

// PutValue stores v in the value database on behalf of runID and returns
// its id. Ids start at 1.
func (s *SQLiteStore) PutValue(ctx context.Context, runID string, v model.Value) (uint64, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO run_values (run_id, type, data, created_at) VALUES (?, ?, ?, ?)",
		runID, string(v.Type), []byte(v.Data), time.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert value: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("value id: %w", err)
	}
	return uint64(id), nil
}

// GetValue returns the value stored under id.
func (s *SQLiteStore) GetValue(ctx context.Context, id uint64) (model.Value, error) {
	var typ string
	var data []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT type, data FROM run_values WHERE id = ?", int64(id),
	).Scan(&typ, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Value{}, ErrNotFound
	}
	if err != nil {
		return model.Value{}, fmt.Errorf("get value: %w", err)
	}
	return model.Value{Type: model.Type(typ), Data: data}, nil
}

// DeleteValue removes the value stored under id.
func (s *SQLiteStore) DeleteValue(ctx context.Context, id uint64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM run_values WHERE id = ?", int64(id))
	if err != nil {
		return fmt.Errorf("delete value: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
