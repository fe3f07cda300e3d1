package otp

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PostgresStore keeps codes in the otps table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore { return &PostgresStore{db: db} }

func (s *PostgresStore) Save(ctx context.Context, c Code) (Code, error) {
	if s.db == nil {
		return Code{}, errors.New("otp: db is nil")
	}
	err := s.db.QueryRowContext(ctx, `
INSERT INTO otps (phone_number, otp_code, created_at, expires_at)
VALUES ($1, $2, $3, $4)
RETURNING id
`, c.Phone, c.Value, c.CreatedAt, c.ExpiresAt).Scan(&c.ID)
	if err != nil {
		return Code{}, err
	}
	return c, nil
}

func (s *PostgresStore) LatestActive(ctx context.Context, phone string, now time.Time) (Code, error) {
	if s.db == nil {
		return Code{}, errors.New("otp: db is nil")
	}
	var c Code
	err := s.db.QueryRowContext(ctx, `
SELECT id, phone_number, otp_code, created_at, expires_at
FROM otps
WHERE phone_number = $1 AND expires_at > $2
ORDER BY created_at DESC, id DESC
LIMIT 1
`, phone, now).Scan(&c.ID, &c.Phone, &c.Value, &c.CreatedAt, &c.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Code{}, ErrNoActiveCode
	}
	if err != nil {
		return Code{}, err
	}
	return c, nil
}

// Consume deletes the code; zero affected rows means another verifier won.
func (s *PostgresStore) Consume(ctx context.Context, id int64) error {
	if s.db == nil {
		return errors.New("otp: db is nil")
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM otps WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNoActiveCode
	}
	return nil
}

func (s *PostgresStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	if s.db == nil {
		return 0, errors.New("otp: db is nil")
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM otps WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
