package journal

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	mu sync.Mutex
	db *sql.DB
}

var _ Journal = (*SQLite)(nil)

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// RecordPurchase stores a purchase. A loan already journaled for the account
// is replaced.
func (j *SQLite) RecordPurchase(p PurchaseRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.Exec(`
		INSERT OR REPLACE INTO purchases
		(run_id, account_id, loan_id, amount, rate, grade, region, status, time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.RunID, p.AccountID, p.LoanID, p.Amount.String(), p.Rate,
		p.Grade, p.Region, p.Status, p.Time.UTC(),
	)
	if err != nil {
		return fmt.Errorf("record purchase %d: %w", p.LoanID, err)
	}
	return nil
}

func (j *SQLite) RecordRun(r RunRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.Exec(`
		INSERT OR REPLACE INTO runs
		(run_id, account_id, started, finished, reason, cycles, purchased, invested, cash_left, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.AccountID, r.Started.UTC(), r.Finished.UTC(), r.Reason,
		r.Cycles, r.Purchased, r.Invested.String(), r.CashLeft.String(), r.Error,
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", r.RunID, err)
	}
	return nil
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
