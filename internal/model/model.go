package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role values are stored as-is in the users table. Registration always
// assigns RoleCustomer; admins are promoted directly in the database.
const (
	RoleCustomer = "cliente"
	RoleAdmin    = "admin"
)

type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Product struct {
	ID          int64
	Name        string
	Price       decimal.Decimal
	Description *string
	Stock       int
	Category    *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CartLine reserves Quantity units of one product for one user. UserID is
// nil for anonymous carts. A live line owns the stock it reserved: the sum
// of line quantities plus the product's remaining stock is constant.
type CartLine struct {
	ID        int64
	UserID    *int64
	ProductID int64
	Quantity  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CartEntry is a cart line joined with its product for display.
type CartEntry struct {
	LineID      int64
	ProductID   int64
	ProductName string
	Price       decimal.Decimal
	Quantity    int
	Subtotal    decimal.Decimal
}

// CartOverviewRow is one line of the admin view across every cart.
type CartOverviewRow struct {
	LineID      int64
	UserName    string
	ProductName string
	Quantity    int
	Subtotal    decimal.Decimal
}
