package store

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

	"github.com/Tcordeir0/vpsurge-fin/internal/core"

	_ "modernc.org/sqlite"
)

// MirrorState tracks whether a row has been copied to the spreadsheet.
type MirrorState string

const (
	MirrorPending MirrorState = "pending"
	MirrorDone    MirrorState = "done"
	MirrorError   MirrorState = "error"
)

// SQLiteStore implements Store on an embedded SQLite database, plus the
// mirror bookkeeping the worker consumes.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
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

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

const txColumns = `id, owner, amount_cents, kind, occurred_at, created_at, description, counterparty, category`

func (s *SQLiteStore) ListByOwner(ctx context.Context, owner string) ([]core.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+txColumns+`
		FROM transactions
		WHERE owner = ?
		ORDER BY COALESCE(occurred_at, created_at) DESC, id ASC`, owner)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	list := []core.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		list = append(list, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return list, nil
}

func (s *SQLiteStore) Insert(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	now := time.Now().UTC()
	var occurred any
	if !t.OccurredAt.IsZero() {
		occurred = t.OccurredAt.UTC()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (owner, amount_cents, kind, occurred_at, created_at, description, counterparty, category)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Owner, t.Amount.Cents, string(t.Kind), occurred, now,
		t.Description, t.Counterparty, t.Category)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("last insert id: %w", err)
	}

	t.ID = id
	t.CreatedAt = now

	slog.InfoContext(ctx, "Transaction saved",
		"id", t.ID,
		"owner", t.Owner,
		"kind", t.Kind,
		"amount_cents", t.Amount.Cents)

	return t, nil
}

func (s *SQLiteStore) Update(ctx context.Context, owner string, id int64, fields UpdateFields) error {
	sets := make([]string, 0, 6)
	args := make([]any, 0, 8)

	if fields.Amount != nil {
		sets = append(sets, "amount_cents = ?")
		args = append(args, fields.Amount.Cents)
	}
	if fields.Kind != nil {
		sets = append(sets, "kind = ?")
		args = append(args, string(*fields.Kind))
	}
	if fields.OccurredAt != nil {
		sets = append(sets, "occurred_at = ?")
		args = append(args, fields.OccurredAt.UTC())
	}
	if fields.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *fields.Description)
	}
	if fields.Counterparty != nil {
		sets = append(sets, "counterparty = ?")
		args = append(args, *fields.Counterparty)
	}
	if fields.Category != nil {
		sets = append(sets, "category = ?")
		args = append(args, *fields.Category)
	}
	if len(sets) == 0 {
		return nil
	}

	// Any change re-enters the mirror queue.
	sets = append(sets, "mirror_state = ?")
	args = append(args, string(MirrorPending))

	args = append(args, id, owner)
	res, err := s.db.ExecContext(ctx,
		"UPDATE transactions SET "+strings.Join(sets, ", ")+" WHERE id = ? AND owner = ?", args...)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return requireRow(res, "update")
}

func (s *SQLiteStore) Delete(ctx context.Context, owner string, id int64) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM transactions WHERE id = ? AND owner = ?", id, owner)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return requireRow(res, "delete")
}

func (s *SQLiteStore) Get(ctx context.Context, id int64) (core.Transaction, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+txColumns+`
		FROM transactions
		WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

// ListPendingMirror returns up to limit rows awaiting a spreadsheet copy,
// oldest first.
func (s *SQLiteStore) ListPendingMirror(ctx context.Context, limit int) ([]core.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+txColumns+`
		FROM transactions
		WHERE mirror_state = ?
		ORDER BY id ASC
		LIMIT ?`, string(MirrorPending), limit)
	if err != nil {
		return nil, fmt.Errorf("list pending mirror: %w", err)
	}
	defer rows.Close()

	var list []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		list = append(list, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending mirror: %w", err)
	}
	return list, nil
}

// SetMirrorState records the mirror outcome for one row.
func (s *SQLiteStore) SetMirrorState(ctx context.Context, id int64, state MirrorState) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE transactions SET mirror_state = ? WHERE id = ?", string(state), id)
	if err != nil {
		return fmt.Errorf("set mirror state: %w", err)
	}
	return requireRow(res, "set mirror state")
}

func requireRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t        core.Transaction
		kind     string
		occurred sql.NullTime
	)
	err := row.Scan(&t.ID, &t.Owner, &t.Amount.Cents, &kind, &occurred,
		&t.CreatedAt, &t.Description, &t.Counterparty, &t.Category)
	if err != nil {
		return core.Transaction{}, err
	}
	t.Kind = core.Kind(kind)
	if occurred.Valid {
		t.OccurredAt = occurred.Time
	}
	return t, nil
}
