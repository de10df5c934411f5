// Package journal persists the terminal outcome of every submitted
// transaction so callers can look a submission up again by hash.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/LeJamon/xrplrest/internal/submit"
)

// ErrNotFound is returned when no submission with the given hash has been
// journaled.
var ErrNotFound = errors.New("no journaled submission")

// Record is one journaled submission outcome.
type Record struct {
	Hash        string    `json:"hash"`
	Account     string    `json:"account"`
	Kind        string    `json:"type"`
	State       string    `json:"state"`
	Result      string    `json:"engine_result"`
	LastLedger  uint32    `json:"last_ledger"`
	SubmittedAt time.Time `json:"submitted_at"`
}

const schema = `
CREATE TABLE IF NOT EXISTS submissions (
	hash         TEXT PRIMARY KEY,
	account      TEXT NOT NULL,
	kind         TEXT NOT NULL,
	state        TEXT NOT NULL,
	result       TEXT NOT NULL,
	last_ledger  INTEGER NOT NULL,
	submitted_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS submissions_account ON submissions (account);
`

// Journal is a SQL-backed submission store. The sqlite driver is the
// default; postgres is supported through the same interface.
type Journal struct {
	db     *sql.DB
	driver string
}

// Open opens (and if necessary initializes) the journal database.
func Open(driver, dsn string) (*Journal, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init journal schema: %w", err)
	}
	return &Journal{db: db, driver: driver}, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// RecordOutcome upserts the terminal outcome of a submission. A later
// outcome for the same hash (a provisional acceptance followed by
// validation) replaces the earlier one.
func (j *Journal) RecordOutcome(ctx context.Context, account, kind string, out *submit.Outcome) error {
	if out.Hash == "" {
		return nil
	}
	query := j.rebind(`
		INSERT INTO submissions (hash, account, kind, state, result, last_ledger, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (hash) DO UPDATE SET state = excluded.state, result = excluded.result`)
	_, err := j.db.ExecContext(ctx, query,
		strings.ToUpper(out.Hash), account, kind, out.State.String(), out.Result,
		out.LastLedger, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("journal outcome: %w", err)
	}
	return nil
}

// Lookup fetches a journaled submission by hash, scoped to the owning
// account.
func (j *Journal) Lookup(ctx context.Context, account, hash string) (*Record, error) {
	query := j.rebind(`
		SELECT hash, account, kind, state, result, last_ledger, submitted_at
		FROM submissions WHERE account = ? AND hash = ?`)

	var rec Record
	err := j.db.QueryRowContext(ctx, query, account, strings.ToUpper(hash)).Scan(
		&rec.Hash, &rec.Account, &rec.Kind, &rec.State, &rec.Result,
		&rec.LastLedger, &rec.SubmittedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("journal lookup: %w", err)
	}
	return &rec, nil
}

// rebind rewrites ? placeholders to the $n form postgres expects. The
// sqlite driver takes ? as is.
func (j *Journal) rebind(query string) string {
	if j.driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
