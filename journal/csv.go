package journal

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"
)

var (
	purchaseHeader = []string{"run_id", "account_id", "loan_id", "amount", "rate", "grade", "region", "status", "time"}
	runHeader      = []string{"run_id", "account_id", "started", "finished", "reason", "cycles", "purchased", "invested", "cash_left", "error"}
)

// CSVJournal appends purchases and runs to two CSV files.
type CSVJournal struct {
	mu        sync.Mutex
	purchases *csv.Writer
	runs      *csv.Writer
	pf, rf    *os.File
}

var _ Journal = (*CSVJournal)(nil)

// NewCSV opens both files for appending and writes headers to empty ones.
func NewCSV(purchasesPath, runsPath string) (*CSVJournal, error) {
	pf, pw, err := openAppend(purchasesPath, purchaseHeader)
	if err != nil {
		return nil, err
	}
	rf, rw, err := openAppend(runsPath, runHeader)
	if err != nil {
		_ = pf.Close()
		return nil, err
	}
	return &CSVJournal{purchases: pw, runs: rw, pf: pf, rf: rf}, nil
}

func openAppend(path string, header []string) (*os.File, *csv.Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("stat %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if st.Size() == 0 {
		if err := w.Write(header); err != nil {
			_ = f.Close()
			return nil, nil, err
		}
		w.Flush()
		if err := w.Error(); err != nil {
			_ = f.Close()
			return nil, nil, err
		}
	}
	return f, w, nil
}

func (j *CSVJournal) RecordPurchase(p PurchaseRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	err := j.purchases.Write([]string{
		p.RunID,
		i64(p.AccountID),
		i64(p.LoanID),
		p.Amount.StringFixed(2),
		strconv.FormatFloat(p.Rate, 'f', 2, 64),
		p.Grade,
		p.Region,
		p.Status,
		p.Time.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	j.purchases.Flush()
	return j.purchases.Error()
}

func (j *CSVJournal) RecordRun(r RunRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	err := j.runs.Write([]string{
		r.RunID,
		i64(r.AccountID),
		r.Started.UTC().Format(time.RFC3339),
		r.Finished.UTC().Format(time.RFC3339),
		r.Reason,
		strconv.Itoa(r.Cycles),
		strconv.Itoa(r.Purchased),
		r.Invested.StringFixed(2),
		r.CashLeft.StringFixed(2),
		r.Error,
	})
	if err != nil {
		return err
	}
	j.runs.Flush()
	return j.runs.Error()
}

func (j *CSVJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.purchases.Flush()
	j.runs.Flush()
	return errors.Join(j.purchases.Error(), j.runs.Error(), j.pf.Close(), j.rf.Close())
}

func i64(v int64) string {
	return strconv.FormatInt(v, 10)
}
