package service

import (
	"context"
	"fmt"

	"beestore/internal/domain"
	"beestore/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LoyaltyStatement is a user's BeeCoin balance with its history
type LoyaltyStatement struct {
	Balance      decimal.Decimal             `json:"balance"`
	Transactions []domain.BeeCoinTransaction `json:"transactions"`
}

// LoyaltyService defines the interface for reading the BeeCoin ledger
type LoyaltyService interface {
	Statement(ctx context.Context, userID uuid.UUID) (*LoyaltyStatement, error)
}

type loyaltyService struct {
	userRepo   repository.UserRepository
	ledgerRepo repository.LedgerRepository
}

// NewLoyaltyService creates a new instance of LoyaltyService
func NewLoyaltyService(userRepo repository.UserRepository, ledgerRepo repository.LedgerRepository) LoyaltyService {
	return &loyaltyService{userRepo: userRepo, ledgerRepo: ledgerRepo}
}

// Statement returns the current balance and every ledger entry, newest first
func (s *loyaltyService) Statement(ctx context.Context, userID uuid.UUID) (*LoyaltyStatement, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	transactions, err := s.ledgerRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	if transactions == nil {
		transactions = []domain.BeeCoinTransaction{}
	}
	return &LoyaltyStatement{Balance: user.BeeCoins, Transactions: transactions}, nil
}
