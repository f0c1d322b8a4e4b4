package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"beestore/internal/domain"
	"beestore/internal/ledger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerRepository reads the BeeCoin ledger and applies balance changes that
// are not part of a checkout.
type LedgerRepository interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.BeeCoinTransaction, error)
	Sum(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
	Apply(ctx context.Context, userID uuid.UUID, fn func(acct *ledger.Account) error) (*ledger.Account, error)
}

type ledgerRepository struct {
	db *sql.DB
}

// NewLedgerRepository creates a new instance of LedgerRepository
func NewLedgerRepository(db *sql.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

// ListByUser returns a user's ledger entries, newest first
func (r *ledgerRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.BeeCoinTransaction, error) {
	query := `
		SELECT id, user_id, amount, transaction_type, description, created_at
		FROM bee_coin_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	entries := []domain.BeeCoinTransaction{}
	for rows.Next() {
		var e domain.BeeCoinTransaction
		if err := rows.Scan(&e.ID, &e.UserID, &e.Amount, &e.Type, &e.Description, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		entries = append(entries, e)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return entries, nil
}

// Sum adds up a user's ledger entries. It equals users.bee_coins when the
// ledger is consistent.
func (r *ledgerRepository) Sum(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.db.QueryRowContext(
		ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM bee_coin_transactions WHERE user_id = $1`,
		userID,
	).Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum transactions: %w", err)
	}
	return sum, nil
}

// Apply locks the user's balance, hands fn an Account opened at that balance,
// and persists whatever entries fn appended together with the new balance.
func (r *ledgerRepository) Apply(ctx context.Context, userID uuid.UUID, fn func(acct *ledger.Account) error) (*ledger.Account, error) {
	var acct *ledger.Account

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		balance, err := lockBalance(ctx, tx, userID)
		if err != nil {
			return err
		}

		acct = ledger.NewAccount(userID, balance)
		if err := fn(acct); err != nil {
			return err
		}

		if err := insertTransactions(ctx, tx, acct.Entries); err != nil {
			return err
		}
		return setBalance(ctx, tx, userID, acct.Balance)
	})
	if err != nil {
		return nil, err
	}

	return acct, nil
}

// lockBalance reads a user's balance and holds the row lock until the
// transaction ends, serializing concurrent balance changes for that user.
func lockBalance(ctx context.Context, tx *sql.Tx, userID uuid.UUID) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := tx.QueryRowContext(ctx, `SELECT bee_coins FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, ErrUserNotFound
		}
		return decimal.Zero, fmt.Errorf("failed to lock balance: %w", err)
	}
	return balance, nil
}

func setBalance(ctx context.Context, tx *sql.Tx, userID uuid.UUID, balance decimal.Decimal) error {
	result, err := tx.ExecContext(ctx, `UPDATE users SET bee_coins = $2 WHERE id = $1`, userID, balance)
	if err != nil {
		if isCheckViolation(err) {
			return ErrBalanceConstraint
		}
		if isNumericOutOfRange(err) {
			return fmt.Errorf("%w: balance %s", ErrAmountOutOfRange, balance)
		}
		return fmt.Errorf("failed to update balance: %w", err)
	}
	return rowsAffectedOr(result, ErrUserNotFound)
}

func insertTransactions(ctx context.Context, tx *sql.Tx, entries []domain.BeeCoinTransaction) error {
	query := `
		INSERT INTO bee_coin_transactions (id, user_id, amount, transaction_type, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	for _, e := range entries {
		_, err := tx.ExecContext(ctx, query, e.ID, e.UserID, e.Amount, string(e.Type), e.Description, e.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to record %s transaction: %w", e.Type, err)
		}
	}
	return nil
}
