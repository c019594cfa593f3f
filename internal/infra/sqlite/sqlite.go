// Package sqlite provides a SQLite-backed implementation of the ledger.Store
// interface, used for local/offline operation and tests.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/aguilartradesfx/financetracker/internal/domain"
	"github.com/aguilartradesfx/financetracker/internal/ledger"
)

// Ensure Store implements ledger.Store
var _ ledger.Store = (*Store)(nil)

// Store implements ledger.Store using SQLite.
type Store struct {
	db *sql.DB
}

// New creates a new Store with the given database path. It creates the
// parent directories and runs migrations automatically.
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

const txColumns = `id, date, type, amount, category, description,
	payment_method_id, income_payment_method, client_id, external_ref`

// ListTransactions returns transactions matching the filter, newest first.
func (s *Store) ListTransactions(ctx context.Context, filter ledger.TransactionFilter) ([]*domain.Transaction, error) {
	query := "SELECT " + txColumns + " FROM transactions WHERE 1=1"
	var args []any

	if filter.StartDate != nil {
		query += " AND date >= ?"
		args = append(args, filter.StartDate.UTC().Format(time.RFC3339Nano))
	}
	if filter.EndDate != nil {
		query += " AND date <= ?"
		args = append(args, filter.EndDate.UTC().Format(time.RFC3339Nano))
	}
	if filter.Type != "" {
		query += " AND type = ?"
		args = append(args, string(filter.Type))
	}
	if filter.ClientID != "" {
		query += " AND client_id = ?"
		args = append(args, filter.ClientID)
	}
	query += " ORDER BY date DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var out []*domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return out, nil
}

// InsertTransaction persists a new transaction, generating its ID when empty.
// An insert that collides on external_ref returns ledger.ErrDuplicateRef.
func (s *Store) InsertTransaction(ctx context.Context, t *domain.Transaction) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.Date.IsZero() {
		t.Date = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO transactions ("+txColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		t.ID, t.Date.UTC().Format(time.RFC3339Nano), string(t.Type), t.Amount,
		t.Category, t.Description,
		nullable(t.PaymentMethodID), nullable(string(t.IncomePaymentMethod)),
		nullable(t.ClientID), nullable(t.ExternalRef),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert transaction %s: %w", t.ExternalRef, ledger.ErrDuplicateRef)
		}
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// UpdateTransaction rewrites all mutable fields of an existing transaction.
func (s *Store) UpdateTransaction(ctx context.Context, t *domain.Transaction) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE transactions SET date = ?, type = ?, amount = ?, category = ?,
		 description = ?, payment_method_id = ?, income_payment_method = ?, client_id = ?
		 WHERE id = ?`,
		t.Date.UTC().Format(time.RFC3339Nano), string(t.Type), t.Amount, t.Category,
		t.Description, nullable(t.PaymentMethodID), nullable(string(t.IncomePaymentMethod)),
		nullable(t.ClientID), t.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	return requireRow(res, t.ID)
}

// DeleteTransaction removes a transaction by ID.
func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM transactions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return requireRow(res, id)
}

const clientColumns = `id, name, company, total_invoice, total_paid, my_cost,
	total_charged, payment_method, last_payment_date`

// ListClients returns all clients ordered by name.
func (s *Store) ListClients(ctx context.Context) ([]*domain.Client, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+clientColumns+" FROM clients ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query clients: %w", err)
	}
	defer rows.Close()

	var out []*domain.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate clients: %w", err)
	}
	return out, nil
}

// GetClient retrieves one client by ID.
func (s *Store) GetClient(ctx context.Context, id string) (*domain.Client, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+clientColumns+" FROM clients WHERE id = ?", id)
	c, err := scanClient(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("client %s: %w", id, ledger.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// InsertClient persists a new client, generating its ID when empty.
func (s *Store) InsertClient(ctx context.Context, c *domain.Client) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO clients ("+clientColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		c.ID, c.Name, c.Company, c.TotalInvoice, c.TotalPaid, c.MyCost,
		c.TotalCharged, string(c.PaymentMethod), nullableTime(c.LastPaymentDate),
	)
	if err != nil {
		return fmt.Errorf("failed to insert client: %w", err)
	}
	return nil
}

// UpdateClient applies a partial update to a client.
func (s *Store) UpdateClient(ctx context.Context, id string, update domain.ClientUpdate) error {
	current, err := s.GetClient(ctx, id)
	if err != nil {
		return err
	}
	next := update.Apply(*current)

	res, err := s.db.ExecContext(ctx,
		`UPDATE clients SET name = ?, company = ?, total_invoice = ?, total_paid = ?,
		 my_cost = ?, total_charged = ?, payment_method = ?, last_payment_date = ?
		 WHERE id = ?`,
		next.Name, next.Company, next.TotalInvoice, next.TotalPaid,
		next.MyCost, next.TotalCharged, string(next.PaymentMethod),
		nullableTime(next.LastPaymentDate), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update client: %w", err)
	}
	return requireRow(res, id)
}

// DeleteClient removes a client. Linked transactions stay in the ledger;
// financial history outlives the client record.
func (s *Store) DeleteClient(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM clients WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}
	return requireRow(res, id)
}

// ListPaymentMethods returns all payment methods ordered by name.
func (s *Store) ListPaymentMethods(ctx context.Context) ([]*domain.PaymentMethod, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, type FROM payment_methods ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query payment methods: %w", err)
	}
	defer rows.Close()

	var out []*domain.PaymentMethod
	for rows.Next() {
		var m domain.PaymentMethod
		var typ string
		if err := rows.Scan(&m.ID, &m.Name, &typ); err != nil {
			return nil, fmt.Errorf("failed to scan payment method: %w", err)
		}
		m.Type = domain.PaymentMethodType(typ)
		out = append(out, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payment methods: %w", err)
	}
	return out, nil
}

// InsertPaymentMethod persists a new payment method.
func (s *Store) InsertPaymentMethod(ctx context.Context, m *domain.PaymentMethod) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO payment_methods (id, name, type) VALUES (?, ?, ?)",
		m.ID, m.Name, string(m.Type))
	if err != nil {
		return fmt.Errorf("failed to insert payment method: %w", err)
	}
	return nil
}

// UpdatePaymentMethod rewrites a payment method.
func (s *Store) UpdatePaymentMethod(ctx context.Context, m *domain.PaymentMethod) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE payment_methods SET name = ?, type = ? WHERE id = ?",
		m.Name, string(m.Type), m.ID)
	if err != nil {
		return fmt.Errorf("failed to update payment method: %w", err)
	}
	return requireRow(res, m.ID)
}

// DeletePaymentMethod removes a payment method by ID.
func (s *Store) DeletePaymentMethod(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM payment_methods WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete payment method: %w", err)
	}
	return requireRow(res, id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*domain.Transaction, error) {
	var t domain.Transaction
	var date string
	var typ string
	var pmID, incomeMethod, clientID, externalRef sql.NullString

	if err := row.Scan(&t.ID, &date, &typ, &t.Amount, &t.Category, &t.Description,
		&pmID, &incomeMethod, &clientID, &externalRef); err != nil {
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}

	parsed, err := time.Parse(time.RFC3339Nano, date)
	if err != nil {
		return nil, fmt.Errorf("failed to parse transaction date %q: %w", date, err)
	}
	t.Date = parsed
	t.Type = domain.TransactionType(typ)
	t.PaymentMethodID = pmID.String
	t.IncomePaymentMethod = domain.IncomePaymentMethod(incomeMethod.String)
	t.ClientID = clientID.String
	t.ExternalRef = externalRef.String
	return &t, nil
}

func scanClient(row rowScanner) (*domain.Client, error) {
	var c domain.Client
	var method string
	var lastPayment sql.NullString

	err := row.Scan(&c.ID, &c.Name, &c.Company, &c.TotalInvoice, &c.TotalPaid,
		&c.MyCost, &c.TotalCharged, &method, &lastPayment)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan client: %w", err)
	}

	c.PaymentMethod = domain.IncomePaymentMethod(method)
	if lastPayment.Valid && lastPayment.String != "" {
		parsed, err := time.Parse(time.RFC3339Nano, lastPayment.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse last payment date %q: %w", lastPayment.String, err)
		}
		c.LastPaymentDate = &parsed
	}
	return &c, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", id, ledger.ErrNotFound)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
