package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"BoostKeeper/internal/model"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists the claim journal to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL so the status endpoint and ad-hoc queries can read while the loop writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS cycles (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			cycle_id     TEXT NOT NULL,
			timestamp    INTEGER NOT NULL,
			duration_ms  INTEGER,
			pending      INTEGER,
			balance      INTEGER,
			claimed      INTEGER,
			race_lost    INTEGER,
			failed       INTEGER,
			skipped      INTEGER,
			fatal_error  TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cycles_ts ON cycles(timestamp)`,

		`CREATE TABLE IF NOT EXISTS claim_events (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp      INTEGER NOT NULL,
			cycle_id       TEXT,
			request_id     INTEGER NOT NULL,
			txid           TEXT,
			amount         INTEGER,
			fee_percentage REAL,
			expected_fee   INTEGER,
			result         TEXT,
			message        TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_claim_ts ON claim_events(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_claim_request ON claim_events(request_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordCycle(sum *model.CycleSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO cycles
		(cycle_id, timestamp, duration_ms, pending, balance, claimed, race_lost, failed, skipped, fatal_error)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		sum.CycleID, sum.StartedAt.Unix(), sum.Duration.Milliseconds(),
		sum.Pending, int64(sum.Balance), sum.Claimed, sum.RaceLost, sum.Failed, sum.Skipped,
		sum.FatalError,
	)
	return err
}

func (r *SQLiteRecorder) RecordClaim(evt *ClaimEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO claim_events
		(timestamp, cycle_id, request_id, txid, amount, fee_percentage, expected_fee, result, message)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), evt.CycleID, int64(evt.RequestID), evt.TxID,
		int64(evt.Amount), evt.FeePercentage, int64(evt.ExpectedFee),
		string(evt.Result), evt.Message,
	)
	return err
}

func (r *SQLiteRecorder) Summary(since time.Time) (*Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := &Summary{Since: since}
	ts := since.Unix()

	if err := r.db.QueryRow(`SELECT COUNT(*) FROM cycles WHERE timestamp >= ?`, ts).Scan(&s.Cycles); err != nil {
		return nil, fmt.Errorf("count cycles: %w", err)
	}

	rows, err := r.db.Query(`SELECT result, COUNT(*), COALESCE(SUM(amount),0), COALESCE(SUM(expected_fee),0)
		FROM claim_events WHERE timestamp >= ? GROUP BY result`, ts)
	if err != nil {
		return nil, fmt.Errorf("summarize claims: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			result       string
			count        int
			volume, fees int64
		)
		if err := rows.Scan(&result, &count, &volume, &fees); err != nil {
			return nil, fmt.Errorf("scan claim summary: %w", err)
		}
		switch model.RequestState(result) {
		case model.StateClaimed:
			s.Claimed = count
			s.Volume = uint64(volume)
			s.ExpectedFees = uint64(fees)
		case model.StateRaceLost:
			s.RaceLost = count
		case model.StateFailed:
			s.Failed = count
		}
	}
	return s, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
