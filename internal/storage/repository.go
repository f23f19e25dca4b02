package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"spendtrack/internal/core"

	_ "modernc.org/sqlite"
)

var (
	ErrUserExists   = errors.New("username or email already exists")
	ErrUserNotFound = errors.New("user not found")
)

// User is a stored account row. PasswordHash is empty for accounts
// created through Google sign-in.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Email        string
	CreatedAt    time.Time
}

// AnomalyFlag is a persisted per-record anomaly label, written by the
// scoring worker and read by the entries view.
type AnomalyFlag struct {
	ExpenseID int64
	Label     string
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateUser inserts a new account. Username and email uniqueness is
// enforced by the schema; violations surface as ErrUserExists.
func (r *SQLiteRepository) CreateUser(ctx context.Context, username, passwordHash, email string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, email) VALUES (?, ?, NULLIF(?, ''))`,
		username, passwordHash, email)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrUserExists
		}
		return 0, fmt.Errorf("create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create user id: %w", err)
	}

	slog.InfoContext(ctx, "User created", "user_id", id, "username", username)
	return id, nil
}

// GetUserByLogin resolves a user by username or email, matching the
// login form which accepts either.
func (r *SQLiteRepository) GetUserByLogin(ctx context.Context, identifier string) (*User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, COALESCE(email, ''), created_at
		 FROM users WHERE username = ? OR email = ?`, identifier, identifier))
}

// GetOrCreateGoogleUser maps a verified Google e-mail claim onto a local
// account, creating one on first sign-in. Google accounts carry no
// password hash.
func (r *SQLiteRepository) GetOrCreateGoogleUser(ctx context.Context, email string) (*User, error) {
	u, err := r.scanUser(r.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, COALESCE(email, ''), created_at
		 FROM users WHERE email = ?`, email))
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	id, err := r.CreateUser(ctx, email, "", email)
	if err != nil {
		return nil, err
	}
	return &User{ID: id, Username: email, Email: email}, nil
}

func (r *SQLiteRepository) scanUser(row *sql.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Email, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

// ListUserIDs returns the ids of all accounts, used by the scoring worker
// to walk every ledger.
func (r *SQLiteRepository) ListUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query user ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Append persists one expense record for the given user and returns its
// id. This is the sole mutation entry point: records are never updated
// or deleted. Validation happens here, at write time.
func (r *SQLiteRepository) Append(ctx context.Context, userID int64, e core.ExpenseRecord) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, fmt.Errorf("validate expense: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (user_id, amount_cents, category, date, is_necessary, description)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		userID, e.Amount.Cents, e.Category.String(), e.Date.Format("2006-01-02"),
		boolToInt(e.IsNecessary), e.Description)
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("expense id: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		"id", id,
		"user_id", userID,
		"amount_cents", e.Amount.Cents,
		"category", e.Category.String())

	return id, nil
}

// Fetch returns the full ledger for one user, newest first. It may be
// empty but never partial: every returned record passed write-time
// validation.
func (r *SQLiteRepository) Fetch(ctx context.Context, userID int64) (core.Ledger, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, amount_cents, category, date, is_necessary, COALESCE(description, '')
		 FROM expenses WHERE user_id = ? ORDER BY date DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var ledger core.Ledger
	for rows.Next() {
		var (
			e         core.ExpenseRecord
			category  string
			date      string
			necessary int
		)
		if err := rows.Scan(&e.ID, &e.Amount.Cents, &category, &date, &necessary, &e.Description); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		parsed, err := time.Parse("2006-01-02", date)
		if err != nil {
			return nil, fmt.Errorf("parse expense date %q: %w", date, err)
		}
		e.Category = core.Category(category)
		e.Date = core.Date{Time: parsed}
		e.IsNecessary = necessary != 0
		ledger = append(ledger, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return ledger, nil
}

// ReplaceAnomalyFlags atomically swaps the stored anomaly labels for
// one user with a freshly scored set.
func (r *SQLiteRepository) ReplaceAnomalyFlags(ctx context.Context, userID int64, flags []AnomalyFlag) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin anomaly tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM anomaly_flags WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("clear anomaly flags: %w", err)
	}
	for _, f := range flags {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO anomaly_flags (expense_id, user_id, label) VALUES (?, ?, ?)`,
			f.ExpenseID, userID, f.Label); err != nil {
			return fmt.Errorf("insert anomaly flag for expense %d: %w", f.ExpenseID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit anomaly flags: %w", err)
	}

	slog.InfoContext(ctx, "Anomaly flags replaced", "user_id", userID, "count", len(flags))
	return nil
}

// FetchAnomalyFlags returns the stored labels keyed by expense id.
func (r *SQLiteRepository) FetchAnomalyFlags(ctx context.Context, userID int64) (map[int64]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT expense_id, label FROM anomaly_flags WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("query anomaly flags: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]string)
	for rows.Next() {
		var id int64
		var label string
		if err := rows.Scan(&id, &label); err != nil {
			return nil, fmt.Errorf("scan anomaly flag: %w", err)
		}
		out[id] = label
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
