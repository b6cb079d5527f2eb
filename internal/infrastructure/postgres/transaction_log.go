package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"corebank/internal/domain/ledger"

	"github.com/lib/pq"
)

// TransactionLog implements ledger.Log for PostgreSQL. The table carries a
// unique index on reference_number and a secondary index on
// (from_account_id, created_at) / (to_account_id, created_at) for history
// queries. Rows are never deleted; the only permitted update is moving a
// pending row to its terminal status.
type TransactionLog struct {
	db *DB
}

// NewTransactionLog creates a new PostgreSQL transaction log.
func NewTransactionLog(db *DB) *TransactionLog {
	return &TransactionLog{db: db}
}

const txColumns = `id, from_account_id, to_account_id, amount, type, description, reference_number, status, created_at`

func (l *TransactionLog) Append(ctx context.Context, tx *ledger.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO transactions (id, from_account_id, to_account_id, amount, type, description, reference_number, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := l.db.ExecContext(ctx, query,
		tx.ID, nullString(tx.FromAccountID), nullString(tx.ToAccountID),
		tx.Amount, tx.Type, tx.Description, tx.ReferenceNumber, tx.Status, tx.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ledger.ErrDuplicateReference
		}
		return fmt.Errorf("failed to append transaction: %w", err)
	}
	return nil
}

func (l *TransactionLog) SetStatus(ctx context.Context, id string, status ledger.TxStatus) error {
	query := `UPDATE transactions SET status = $1 WHERE id = $2 AND status = 'pending'`

	res, err := l.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to set transaction status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to set transaction status: %w", err)
	}
	if affected == 1 {
		return nil
	}

	// Zero rows: either the record is missing or already terminal.
	var existing string
	err = l.db.QueryRowContext(ctx, `SELECT status FROM transactions WHERE id = $1`, id).Scan(&existing)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.ErrTxNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to set transaction status: %w", err)
	}
	return ledger.ErrTxImmutable
}

func (l *TransactionLog) GetByReference(ctx context.Context, reference string) (*ledger.Transaction, error) {
	query := `SELECT ` + txColumns + ` FROM transactions WHERE reference_number = $1`

	tx, err := scanTransaction(l.db.QueryRowContext(ctx, query, reference))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrTxNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return tx, nil
}

func (l *TransactionLog) ListByAccount(ctx context.Context, accountID string, f ledger.Filter) ([]*ledger.Transaction, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	var b strings.Builder
	b.WriteString(`SELECT ` + txColumns + ` FROM transactions WHERE (from_account_id = $1 OR to_account_id = $1)`)
	args := []any{accountID}

	if f.Type != "" {
		args = append(args, f.Type)
		b.WriteString(` AND type = $` + strconv.Itoa(len(args)))
	}
	if !f.From.IsZero() {
		args = append(args, f.From)
		b.WriteString(` AND created_at >= $` + strconv.Itoa(len(args)))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		b.WriteString(` AND created_at < $` + strconv.Itoa(len(args)))
	}

	args = append(args, limit)
	b.WriteString(` ORDER BY created_at DESC, id DESC LIMIT $` + strconv.Itoa(len(args)))
	args = append(args, f.Offset)
	b.WriteString(` OFFSET $` + strconv.Itoa(len(args)))

	rows, err := l.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var out []*ledger.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return out, nil
}

func scanTransaction(row rowScanner) (*ledger.Transaction, error) {
	var tx ledger.Transaction
	var from, to sql.NullString

	err := row.Scan(
		&tx.ID, &from, &to, &tx.Amount, &tx.Type,
		&tx.Description, &tx.ReferenceNumber, &tx.Status, &tx.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if from.Valid {
		tx.FromAccountID = from.String
	}
	if to.Valid {
		tx.ToAccountID = to.String
	}
	return &tx, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
