// Package model holds the ledger entities shared by storage, HTTP handlers
// and the suggestion engine.
package model

import (
	"github.com/shopspring/decimal"
)

// TransactionRecord is the part of a categorized transaction the suggestion
// engine reads.
type TransactionRecord struct {
	Description  string `json:"description"`
	CategoryName string `json:"category_name"`
}

// User is an account owner. PasswordHash never leaves the server.
type User struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash []byte `json:"-"`
}

// DefaultCategoryColor is used when a category is created without a color.
const DefaultCategoryColor = "#167ec5"

// Category groups a user's transactions.
type Category struct {
	ID           int64            `json:"id"`
	UserID       int64            `json:"user"`
	Name         string           `json:"name"`
	Color        string           `json:"color"`
	MonthlyLimit *decimal.Decimal `json:"monthly_limit"`
}

// TransactionType distinguishes money in from money out.
type TransactionType string

const (
	// TypeIncome is money received.
	TypeIncome TransactionType = "income"
	// TypeExpense is money spent.
	TypeExpense TransactionType = "expense"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

// DateLayout is the wire and storage format of transaction dates.
const DateLayout = "2006-01-02"

// Transaction is a single income or expense entry. CategoryID is nil for
// uncategorized transactions.
type Transaction struct {
	ID           int64           `json:"id"`
	UserID       int64           `json:"user"`
	Description  string          `json:"description"`
	Value        decimal.Decimal `json:"value"`
	Type         TransactionType `json:"transaction_type"`
	Date         string          `json:"date"`
	CategoryID   *int64          `json:"category"`
	CategoryName string          `json:"category_name,omitempty"`
}

// Page is a slice of results plus the total number of matching rows.
type Page[T any] struct {
	Count   int `json:"count"`
	Results []T `json:"results"`
}

// TransactionFilter narrows a transaction listing.
type TransactionFilter struct {
	Type       TransactionType
	CategoryID *int64
	Date       string
	Search     string
	Ordering   string
	Limit      int
	Offset     int
}

// Orderings accepted by TransactionFilter.Ordering.
var Orderings = map[string]bool{
	"date":   true,
	"-date":  true,
	"value":  true,
	"-value": true,
}

// Stats is an aggregate view of the ledger used for metrics.
type Stats struct {
	Users         int64
	Categories    int64
	IncomeCount   int64
	ExpenseCount  int64
	Uncategorized int64
}
