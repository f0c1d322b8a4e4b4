// Package ledger holds the BeeCoin earn/redeem rules. An Account is an in-memory
// view of one user's balance; every mutation appends a signed transaction so the
// running balance always equals the sum of the entries it produced on top of the
// opening balance.
package ledger

import (
	"errors"
	"fmt"
	"time"

	"beestore/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNonPositiveAmount   = errors.New("amount must be greater than zero")
	ErrInsufficientBalance = errors.New("insufficient BeeCoin balance")
)

// Account accumulates ledger entries for a single user.
type Account struct {
	UserID  uuid.UUID
	Balance decimal.Decimal
	Entries []domain.BeeCoinTransaction
}

// NewAccount opens an account view at the given balance.
func NewAccount(userID uuid.UUID, balance decimal.Decimal) *Account {
	return &Account{UserID: userID, Balance: balance}
}

// Earn credits amount and appends an earn entry.
func (a *Account) Earn(amount decimal.Decimal, description string, at time.Time) (*domain.BeeCoinTransaction, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("earn %s: %w", amount, ErrNonPositiveAmount)
	}
	a.Balance = a.Balance.Add(amount)
	return a.append(amount, domain.TransactionEarn, description, at), nil
}

// Redeem debits amount and appends a redeem entry with a negative amount.
func (a *Account) Redeem(amount decimal.Decimal, description string, at time.Time) (*domain.BeeCoinTransaction, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("redeem %s: %w", amount, ErrNonPositiveAmount)
	}
	if amount.GreaterThan(a.Balance) {
		return nil, fmt.Errorf("redeem %s of %s: %w", amount, a.Balance, ErrInsufficientBalance)
	}
	a.Balance = a.Balance.Sub(amount)
	return a.append(amount.Neg(), domain.TransactionRedeem, description, at), nil
}

// Adjust applies a signed correction: positive amounts earn, negative amounts redeem.
func (a *Account) Adjust(delta decimal.Decimal, description string, at time.Time) (*domain.BeeCoinTransaction, error) {
	if delta.IsNegative() {
		return a.Redeem(delta.Neg(), description, at)
	}
	return a.Earn(delta, description, at)
}

func (a *Account) append(amount decimal.Decimal, typ domain.TransactionType, description string, at time.Time) *domain.BeeCoinTransaction {
	a.Entries = append(a.Entries, domain.BeeCoinTransaction{
		ID:          uuid.New(),
		UserID:      a.UserID,
		Amount:      amount,
		Type:        typ,
		Description: description,
		CreatedAt:   at,
	})
	return &a.Entries[len(a.Entries)-1]
}

// Sum adds up the signed amounts of entries.
func Sum(entries []domain.BeeCoinTransaction) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Amount)
	}
	return total
}
