// journal/schema.go
package journal

const Schema = `
CREATE TABLE IF NOT EXISTS purchases (
	run_id TEXT NOT NULL,
	account_id INTEGER NOT NULL,
	loan_id INTEGER NOT NULL,
	amount TEXT NOT NULL,
	rate REAL NOT NULL,
	grade TEXT NOT NULL,
	region TEXT NOT NULL,
	status TEXT NOT NULL,
	time DATETIME NOT NULL,
	PRIMARY KEY (account_id, loan_id)
);

CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	account_id INTEGER NOT NULL,
	started DATETIME NOT NULL,
	finished DATETIME NOT NULL,
	reason TEXT NOT NULL,
	cycles INTEGER NOT NULL,
	purchased INTEGER NOT NULL,
	invested TEXT NOT NULL,
	cash_left TEXT NOT NULL,
	error TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_purchases_run ON purchases(run_id);
CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started);
`
