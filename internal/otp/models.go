package otp

import (
	"context"
	"errors"
	"time"
)

// Code is a persisted one-time verification code.
type Code struct {
	ID        int64     `json:"id" db:"id"`
	Phone     string    `json:"phone_number" db:"phone_number"`
	Value     string    `json:"otp_code" db:"otp_code"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
}

// Store persists codes. LatestActive returns the most recently created code
// for phone whose expiry is after now.
type Store interface {
	Save(ctx context.Context, c Code) (Code, error)
	LatestActive(ctx context.Context, phone string, now time.Time) (Code, error)
	Consume(ctx context.Context, id int64) error
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// Sender delivers the code text to the phone on file.
type Sender interface {
	Send(ctx context.Context, to, body string) error
}

var (
	ErrNoActiveCode   = errors.New("otp: no active code")
	ErrDispatchFailed = errors.New("otp: dispatch failed")
	ErrInvalidPhone   = errors.New("otp: phone number is required")
)
