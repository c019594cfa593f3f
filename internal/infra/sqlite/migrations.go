package sqlite

import "database/sql"

// schema contains the SQL statements to set up the local database.
// These run on startup to ensure tables exist. The partial unique index on
// external_ref is what makes engine-generated backfill inserts idempotent:
// replaying the same delta hits the index instead of double-counting income.
const schema = `
CREATE TABLE IF NOT EXISTS clients (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    company TEXT NOT NULL DEFAULT '',
    total_invoice REAL NOT NULL DEFAULT 0,
    total_paid REAL NOT NULL DEFAULT 0,
    my_cost REAL NOT NULL DEFAULT 0,
    total_charged REAL NOT NULL DEFAULT 0,
    payment_method TEXT NOT NULL DEFAULT '',
    last_payment_date TEXT
);

CREATE TABLE IF NOT EXISTS payment_methods (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    type TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS transactions (
    id TEXT PRIMARY KEY,
    date TEXT NOT NULL,
    type TEXT NOT NULL,
    amount REAL NOT NULL,
    category TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    payment_method_id TEXT,
    income_payment_method TEXT,
    client_id TEXT,
    external_ref TEXT
);

CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(date);
CREATE INDEX IF NOT EXISTS idx_transactions_client_id ON transactions(client_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_transactions_external_ref
    ON transactions(external_ref) WHERE external_ref IS NOT NULL AND external_ref != '';
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
