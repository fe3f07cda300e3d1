package interactions

import (
	"context"
	"database/sql"
	"errors"
)

// PostgresRepo stores interactions in client_interaction and unresolved_chats.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Append(ctx context.Context, in Interaction) error {
	if r.db == nil {
		return errors.New("interactions: db is nil")
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO client_interaction (interaction_id, session_id, call_id, customer_id, sender, message_text, intent, stage, created_at)
VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, NULLIF($7, ''), NULLIF($8, ''), $9)
`, in.ID, in.SessionID, in.CallID, in.CustomerID, string(in.Sender), in.Text, in.Intent, in.Stage, in.CreatedAt)
	return err
}

func (r *PostgresRepo) AppendUnresolved(ctx context.Context, s UnresolvedSummary) error {
	if r.db == nil {
		return errors.New("interactions: db is nil")
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO unresolved_chats (id, customer_id, account_id, session_id, call_id, summary, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`, s.ID, s.CustomerID, s.AccountID, s.SessionID, s.CallID, s.Summary, s.CreatedAt)
	return err
}

func (r *PostgresRepo) ListByCall(ctx context.Context, callID string) ([]Interaction, error) {
	if r.db == nil {
		return nil, errors.New("interactions: db is nil")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT interaction_id, session_id, call_id, COALESCE(customer_id, ''), sender, message_text,
       COALESCE(intent, ''), COALESCE(stage, ''), created_at
FROM client_interaction
WHERE call_id = $1
ORDER BY created_at ASC
`, callID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Interaction
	for rows.Next() {
		var in Interaction
		var sender string
		if err := rows.Scan(&in.ID, &in.SessionID, &in.CallID, &in.CustomerID, &sender, &in.Text, &in.Intent, &in.Stage, &in.CreatedAt); err != nil {
			return nil, err
		}
		in.Sender = Sender(sender)
		out = append(out, in)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) ListUnresolved(ctx context.Context, limit int) ([]UnresolvedSummary, error) {
	if r.db == nil {
		return nil, errors.New("interactions: db is nil")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, customer_id, account_id, session_id, call_id, summary, created_at
FROM unresolved_chats
ORDER BY created_at DESC
LIMIT $1
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []UnresolvedSummary
	for rows.Next() {
		var s UnresolvedSummary
		if err := rows.Scan(&s.ID, &s.CustomerID, &s.AccountID, &s.SessionID, &s.CallID, &s.Summary, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
