package interactions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

const testSession = "7b1f3c2e-9a4d-4e5b-8c6f-0d1e2f3a4b5c"

func TestService_AppendRequiresCallSenderAndText(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	ctx := context.Background()

	if err := svc.Append(ctx, Interaction{SessionID: testSession, Sender: SenderBot, Text: "hi"}); err == nil {
		t.Fatalf("expected error without call id")
	}
	if err := svc.Append(ctx, Interaction{SessionID: testSession, CallID: "CA1", Sender: "agent", Text: "hi"}); err == nil {
		t.Fatalf("expected error for unknown sender")
	}
	if err := svc.Append(ctx, Interaction{SessionID: testSession, CallID: "CA1", Sender: SenderUser}); err == nil {
		t.Fatalf("expected error without text")
	}
}

func TestService_RejectsNonUUIDSession(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	for _, id := range []string{"", "s1", "CA100"} {
		err := svc.LogUtterance(ctx, id, "CA1", "", SenderBot, "Hello!", "", "greeting")
		if !errors.Is(err, ErrInvalidInteraction) {
			t.Fatalf("session %q: expected ErrInvalidInteraction, got %v", id, err)
		}
		err = svc.RecordUnresolved(ctx, UnresolvedSummary{SessionID: id, CallID: "CA1", Summary: "handoff"})
		if !errors.Is(err, ErrInvalidInteraction) {
			t.Fatalf("summary session %q: expected ErrInvalidInteraction, got %v", id, err)
		}
	}
	if len(repo.Interactions()) != 0 || len(repo.Summaries()) != 0 {
		t.Fatalf("expected nothing stored")
	}
}

func TestService_LogUtteranceFillsIDAndTime(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	fixed := time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)
	svc.clock = func() time.Time { return fixed }

	if err := svc.LogUtterance(context.Background(), testSession, "CA1", "", SenderBot, "Hello!", "", "greeting"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	got := repo.Interactions()
	if len(got) != 1 {
		t.Fatalf("expected 1 interaction, got %d", len(got))
	}
	if got[0].ID == "" || !got[0].CreatedAt.Equal(fixed) || got[0].Stage != "greeting" {
		t.Fatalf("unexpected interaction %+v", got[0])
	}
}

func TestService_RecordUnresolvedDefaultsUnknown(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	err := svc.RecordUnresolved(context.Background(), UnresolvedSummary{SessionID: testSession, CallID: "CA1", Summary: "handoff"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	sums := repo.Summaries()
	if len(sums) != 1 || sums[0].CustomerID != Unknown || sums[0].AccountID != Unknown {
		t.Fatalf("expected unknown ids, got %+v", sums)
	}
}

func TestService_UnresolvedNewestFirst(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()
	for _, s := range []string{"first", "second", "third"} {
		if err := svc.RecordUnresolved(ctx, UnresolvedSummary{SessionID: testSession, Summary: s}); err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
	}
	got, err := svc.Unresolved(ctx, 2)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 2 || got[0].Summary != "third" || got[1].Summary != "second" {
		t.Fatalf("unexpected order %+v", got)
	}
}

func TestPostgresRepo_Append(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	at := time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO client_interaction").
		WithArgs("i1", "s1", "CA1", "", "user", "what is my emi", "", "awaiting_query", at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewPostgresRepo(db)
	err = repo.Append(context.Background(), Interaction{
		ID: "i1", SessionID: "s1", CallID: "CA1", Sender: SenderUser,
		Text: "what is my emi", Stage: "awaiting_query", CreatedAt: at,
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresRepo_ListUnresolved(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	at := time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT id, customer_id, account_id, session_id, call_id, summary, created_at FROM unresolved_chats").
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "customer_id", "account_id", "session_id", "call_id", "summary", "created_at"}).
			AddRow("u1", "unknown", "unknown", "s1", "CA1", "Voice call handoff requested", at))

	got, err := NewPostgresRepo(db).ListUnresolved(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 1 || got[0].CallID != "CA1" || !got[0].CreatedAt.Equal(at) {
		t.Fatalf("unexpected rows %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
