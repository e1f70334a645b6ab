package journal

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("not found")

const purchaseColumns = `run_id, account_id, loan_id, amount, rate, grade, region, status, time`

const runColumns = `run_id, account_id, started, finished, reason, cycles, purchased, invested, cash_left, error`

type scanner interface {
	Scan(dest ...any) error
}

// GetRun returns a single run by id.
func (j *SQLite) GetRun(runID string) (RunRecord, error) {
	row := j.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)

	rec, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RunRecord{}, fmt.Errorf("run %q: %w", runID, ErrNotFound)
		}
		return RunRecord{}, err
	}
	return rec, nil
}

// ListRuns returns the most recent runs, newest first. limit <= 0 returns all.
func (j *SQLite) ListRuns(limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := j.db.Query(`
		SELECT `+runColumns+`
		FROM runs
		ORDER BY started DESC, run_id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListPurchases returns an account's purchases in the order they were made.
func (j *SQLite) ListPurchases(accountID int64) ([]PurchaseRecord, error) {
	return j.queryPurchases(`
		SELECT `+purchaseColumns+`
		FROM purchases
		WHERE account_id = ?
		ORDER BY time ASC, loan_id ASC`, accountID)
}

// ListPurchasesByRun returns the purchases made during one run.
func (j *SQLite) ListPurchasesByRun(runID string) ([]PurchaseRecord, error) {
	return j.queryPurchases(`
		SELECT `+purchaseColumns+`
		FROM purchases
		WHERE run_id = ?
		ORDER BY time ASC, loan_id ASC`, runID)
}

// OwnedLoans returns every loan id journaled for an account.
func (j *SQLite) OwnedLoans(accountID int64) ([]int64, error) {
	rows, err := j.db.Query(`SELECT loan_id FROM purchases WHERE account_id = ? ORDER BY loan_id`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (j *SQLite) queryPurchases(query string, args ...any) ([]PurchaseRecord, error) {
	rows, err := j.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PurchaseRecord
	for rows.Next() {
		var (
			rec    PurchaseRecord
			amount string
		)
		if err := rows.Scan(
			&rec.RunID,
			&rec.AccountID,
			&rec.LoanID,
			&amount,
			&rec.Rate,
			&rec.Grade,
			&rec.Region,
			&rec.Status,
			&rec.Time,
		); err != nil {
			return nil, err
		}
		if rec.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("purchase %d amount %q: %w", rec.LoanID, amount, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanRun(s scanner) (RunRecord, error) {
	var (
		rec      RunRecord
		invested string
		cashLeft string
	)
	if err := s.Scan(
		&rec.RunID,
		&rec.AccountID,
		&rec.Started,
		&rec.Finished,
		&rec.Reason,
		&rec.Cycles,
		&rec.Purchased,
		&invested,
		&cashLeft,
		&rec.Error,
	); err != nil {
		return RunRecord{}, err
	}

	var err error
	if rec.Invested, err = decimal.NewFromString(invested); err != nil {
		return RunRecord{}, fmt.Errorf("run %s invested %q: %w", rec.RunID, invested, err)
	}
	if rec.CashLeft, err = decimal.NewFromString(cashLeft); err != nil {
		return RunRecord{}, fmt.Errorf("run %s cash %q: %w", rec.RunID, cashLeft, err)
	}
	return rec, nil
}
