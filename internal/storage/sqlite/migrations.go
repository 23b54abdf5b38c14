package sqlite

import "database/sql"

// schema sets up the session storage table.
// Rows are keyed by (session_id, key); updated_at lets the web layer sweep
// abandoned sessions.
const schema = `
CREATE TABLE IF NOT EXISTS session_items (
    session_id TEXT NOT NULL,
    key TEXT NOT NULL,
    value TEXT NOT NULL,
    updated_at INTEGER NOT NULL,
    PRIMARY KEY (session_id, key)
);

CREATE INDEX IF NOT EXISTS idx_session_items_updated_at ON session_items(updated_at);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
