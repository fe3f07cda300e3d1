package customers

import (
	"context"
	"database/sql"
	"errors"
)

// PostgresDirectory reads customer, customer_account, loan and emi.
type PostgresDirectory struct {
	db *sql.DB
}

func NewPostgresDirectory(db *sql.DB) *PostgresDirectory { return &PostgresDirectory{db: db} }

// FindByAccountID matches on the digits of the account id. The schema keeps
// those unique; the ordering picks the oldest account if a legacy table
// still holds duplicates.
func (r *PostgresDirectory) FindByAccountID(ctx context.Context, accountDigits string) (Customer, error) {
	if r.db == nil {
		return Customer{}, errors.New("customers: db is nil")
	}
	if accountDigits == "" {
		return Customer{}, ErrNotFound
	}
	var c Customer
	err := r.db.QueryRowContext(ctx, `
SELECT c.customer_id, c.full_name, c.phone_number, a.account_id
FROM customer_account a
JOIN customer c ON c.customer_id = a.customer_id
WHERE a.account_digits = $1
ORDER BY a.created_at, a.account_id
LIMIT 1
`, accountDigits).Scan(&c.ID, &c.FullName, &c.PhoneNumber, &c.AccountID)
	if errors.Is(err, sql.ErrNoRows) {
		return Customer{}, ErrNotFound
	}
	if err != nil {
		return Customer{}, err
	}
	return c, nil
}

func (r *PostgresDirectory) LatestInstallment(ctx context.Context, customerID string) (Installment, error) {
	if r.db == nil {
		return Installment{}, errors.New("customers: db is nil")
	}
	var (
		inst        Installment
		due, paidAt sql.NullTime
		amountDue   sql.NullInt64
		amountPaid  sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx, `
SELECT l.loan_id, l.loan_type, l.principal_minor, l.interest_rate, l.tenure_months,
       e.due_date, e.amount_due_minor, e.amount_paid_minor, e.payment_date, e.status
FROM emi e
JOIN loan l ON l.loan_id = e.loan_id
WHERE l.customer_id = $1
ORDER BY e.due_date DESC NULLS LAST
LIMIT 1
`, customerID).Scan(
		&inst.LoanID, &inst.LoanType, &inst.PrincipalMinor, &inst.InterestRate, &inst.TenureMonths,
		&due, &amountDue, &amountPaid, &paidAt, &inst.Status,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Installment{}, ErrNotFound
	}
	if err != nil {
		return Installment{}, err
	}
	if due.Valid {
		t := due.Time
		inst.DueDate = &t
	}
	if paidAt.Valid {
		t := paidAt.Time
		inst.PaymentDate = &t
	}
	if amountDue.Valid {
		v := amountDue.Int64
		inst.AmountDueMinor = &v
	}
	if amountPaid.Valid {
		v := amountPaid.Int64
		inst.AmountPaidMinor = &v
	}
	return inst, nil
}
