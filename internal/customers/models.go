// Package customers reads the customer, account and installment records the
// dialog looks up. Money is held in minor units (paise).
package customers

import (
	"context"
	"errors"
	"time"
)

type Customer struct {
	ID          string `json:"customer_id" db:"customer_id"`
	FullName    string `json:"full_name" db:"full_name"`
	PhoneNumber string `json:"phone_number" db:"phone_number"`
	AccountID   string `json:"account_id" db:"account_id"`
}

// Installment is the latest EMI row for a customer's loan.
type Installment struct {
	LoanID         string  `json:"loan_id" db:"loan_id"`
	LoanType       string  `json:"loan_type" db:"loan_type"`
	PrincipalMinor int64   `json:"principal_minor" db:"principal_minor"`
	InterestRate   float64 `json:"interest_rate" db:"interest_rate"`
	TenureMonths   int     `json:"tenure_months" db:"tenure_months"`

	DueDate         *time.Time `json:"due_date,omitempty" db:"due_date"`
	AmountDueMinor  *int64     `json:"amount_due_minor,omitempty" db:"amount_due_minor"`
	AmountPaidMinor *int64     `json:"amount_paid_minor,omitempty" db:"amount_paid_minor"`
	PaymentDate     *time.Time `json:"payment_date,omitempty" db:"payment_date"`
	Status          string     `json:"status" db:"status"`
}

var ErrNotFound = errors.New("customers: not found")

// Directory is the lookup contract used by the dialog.
// Account ids are matched on their digits only, the way callers speak them.
type Directory interface {
	FindByAccountID(ctx context.Context, accountDigits string) (Customer, error)
	LatestInstallment(ctx context.Context, customerID string) (Installment, error)
}
