// Package sqlmirror maintains a queryable mirror of the ledger's
// entries in a local SQLite database, grounded on the same
// database/sql-over-modernc.org/sqlite access pattern the teacher
// corpus uses for its local knowledge-base store. The JSONL ledger
// remains authoritative; this mirror exists only so operators can run
// ad-hoc SQL over session history without replaying the chain, and it
// is write-only from the verifier's point of view — never consulted
// during hash/signature recomputation.
package sqlmirror

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/govkernel/chain/internal/ledger"
)

const schema = `
CREATE TABLE IF NOT EXISTS ledger_entries (
	seq INTEGER NOT NULL,
	ts TEXT NOT NULL,
	session_id TEXT NOT NULL,
	role TEXT NOT NULL,
	action TEXT NOT NULL,
	payload_hash TEXT NOT NULL,
	prev_hash TEXT NOT NULL,
	config_hash TEXT NOT NULL,
	this_hash TEXT NOT NULL,
	signer_key_id TEXT NOT NULL,
	PRIMARY KEY (session_id, seq)
);
`

// Mirror writes ledger entries into a local SQLite file for fast
// querying.
type Mirror struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite mirror at path.
func Open(path string) (*Mirror, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlmirror: open: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlmirror: create schema: %w", err)
	}
	return &Mirror{db: db}, nil
}

// Record inserts one ledger entry into the mirror table. Failures here
// never block the chain — the JSONL ledger is authoritative and the
// caller should log and continue rather than fail a role turn over a
// mirror write.
func (m *Mirror) Record(ctx context.Context, e ledger.Entry) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO ledger_entries
			(seq, ts, session_id, role, action, payload_hash, prev_hash, config_hash, this_hash, signer_key_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.Seq, e.TS, e.SessionID, e.Role, e.Action, e.PayloadHash, e.PrevHash, e.ConfigHash, e.ThisHash, e.SignerKeyID)
	if err != nil {
		return fmt.Errorf("sqlmirror: insert entry seq=%d: %w", e.Seq, err)
	}
	return nil
}

// SessionEntries returns every mirrored entry for a session, ordered
// by seq, for operator querying.
func (m *Mirror) SessionEntries(ctx context.Context, sessionID string) ([]ledger.Entry, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT seq, ts, session_id, role, action, payload_hash, prev_hash, config_hash, this_hash, signer_key_id
		FROM ledger_entries WHERE session_id = ? ORDER BY seq ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("sqlmirror: query session entries: %w", err)
	}
	defer rows.Close()

	var out []ledger.Entry
	for rows.Next() {
		var e ledger.Entry
		if err := rows.Scan(&e.Seq, &e.TS, &e.SessionID, &e.Role, &e.Action, &e.PayloadHash, &e.PrevHash, &e.ConfigHash, &e.ThisHash, &e.SignerKeyID); err != nil {
			return nil, fmt.Errorf("sqlmirror: scan entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close closes the underlying database handle.
func (m *Mirror) Close() error {
	return m.db.Close()
}
