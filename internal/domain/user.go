package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User represents a storefront account
type User struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	Login        string          `json:"login" db:"login"`
	Email        string          `json:"email" db:"email"`
	PasswordHash string          `json:"-" db:"password_hash"`
	FullName     string          `json:"full_name" db:"full_name"`
	Phone        string          `json:"phone" db:"phone"`
	Address      string          `json:"address" db:"address"`
	Avatar       string          `json:"avatar,omitempty" db:"avatar"`
	Role         Role            `json:"role" db:"role"`
	BeeCoins     decimal.Decimal `json:"bee_coins" db:"bee_coins"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

// IsAdmin reports whether the user may use the admin console.
func (u *User) IsAdmin() bool {
	return u.Role.IsAdmin()
}

// RefreshToken is a long-lived token used to mint new access tokens
type RefreshToken struct {
	ID        uuid.UUID `db:"id"`
	UserID    uuid.UUID `db:"user_id"`
	Token     string    `db:"token"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
	Revoked   bool      `db:"revoked"`
}

// Stats are the admin dashboard counters.
type Stats struct {
	Products int `json:"product_count"`
	Users    int `json:"user_count"`
	Admins   int `json:"admin_count"`
}
