package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestSchemaDeclaresTables(t *testing.T) {
	for _, table := range []string{"customer", "customer_account", "loan", "emi", "otps", "client_interaction", "unresolved_chats"} {
		if !strings.Contains(schema, "CREATE TABLE IF NOT EXISTS "+table+" (") {
			t.Fatalf("expected table %s in schema", table)
		}
	}
}

func TestSchemaKeepsAccountDigitsUnique(t *testing.T) {
	if !strings.Contains(schema, "CREATE UNIQUE INDEX IF NOT EXISTS customer_account_digits_key ON customer_account (account_digits)") {
		t.Fatalf("expected unique index on account_digits")
	}
	if !strings.Contains(schema, "DROP INDEX IF EXISTS customer_account_digits_idx;") {
		t.Fatalf("expected the plain digits index to be replaced")
	}
}

func TestMigrate_RunsInTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS customer").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	if err := Migrate(context.Background(), db); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSeed_ReplacesSampleCustomer(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM otps").WithArgs(SamplePhone).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM customer").WithArgs(SampleCustomerID).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO customer ").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO loan").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO emi").
		WithArgs(sqlmock.AnyArg(), SampleLoanID, now.AddDate(0, 0, 30), int64(3744031), int64(0), "Pending").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO customer_account").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := Seed(context.Background(), db, now); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
