// Package storage owns the Postgres schema and the sample data set.
package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/Kushalsharma0702/financial-voice-chatbot/pkg/utils"

	"github.com/google/uuid"
)

//go:embed schema.sql
var schema string

// Migrate applies the idempotent schema in one transaction.
func Migrate(ctx context.Context, db *sql.DB) error {
	return utils.WithTx(ctx, db, nil, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, schema); err != nil {
			return fmt.Errorf("storage: apply schema: %w", err)
		}
		return nil
	})
}

// Sample customer used for demos and smoke tests.
const (
	SampleCustomerID = "CID1000095"
	SampleAccountID  = "CC62287740"
	SampleLoanID     = "LN54375877301289"
	SamplePhone      = "+917417119014"
)

// Seed replaces the sample customer and its loan, EMI and account rows.
// The EMI falls due 30 days after now.
func Seed(ctx context.Context, db *sql.DB, now time.Time) error {
	return utils.WithTx(ctx, db, nil, func(ctx context.Context, tx *sql.Tx) error {
		stmts := []struct {
			q    string
			args []any
		}{
			{`DELETE FROM otps WHERE phone_number = $1`, []any{SamplePhone}},
			{`DELETE FROM customer WHERE customer_id = $1`, []any{SampleCustomerID}},
			{`INSERT INTO customer (customer_id, full_name, phone_number, email, kyc_status) VALUES ($1, $2, $3, $4, $5)`,
				[]any{SampleCustomerID, "John Doe", SamplePhone, "john.doe@example.com", "Verified"}},
			{`INSERT INTO loan (loan_id, customer_id, loan_type, principal_minor, interest_rate, tenure_months, start_date, status) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				[]any{SampleLoanID, SampleCustomerID, "Personal Loan", int64(138071100), 8.5, 24, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "Active"}},
			{`INSERT INTO emi (emi_id, loan_id, due_date, amount_due_minor, amount_paid_minor, status) VALUES ($1, $2, $3, $4, $5, $6)`,
				[]any{uuid.NewString(), SampleLoanID, now.UTC().AddDate(0, 0, 30), int64(3744031), int64(0), "Pending"}},
			{`INSERT INTO customer_account (account_id, customer_id, account_type, status) VALUES ($1, $2, $3, $4)`,
				[]any{SampleAccountID, SampleCustomerID, "Savings", "Active"}},
		}
		for _, s := range stmts {
			if _, err := tx.ExecContext(ctx, s.q, s.args...); err != nil {
				return fmt.Errorf("storage: seed: %w", err)
			}
		}
		return nil
	})
}
