package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var Validate = validator.New()

var (
	ErrNotFound          = errors.New("record not found")
	ErrAlreadyJoined     = errors.New("user already joined the event")
	ErrEventFull         = errors.New("event is full")
	ErrDuplicateRequest  = errors.New("a pending friend request already exists")
	ErrAlreadyFriends    = errors.New("users are already friends")
	ErrRequestNotPending = errors.New("friend request is no longer pending")
	ErrDuplicateGroup    = errors.New("a group with that name already exists")
)

// SQLRepo implements every repository interface on top of database/sql.
// All statements are parameterized and written to run on both the pgx and
// sqlite3 drivers: placeholders are numbered in order of first use and
// timestamps are always supplied by the caller in UTC.
type SQLRepo struct {
	db *sql.DB
}

func NewSQLRepo(db *sql.DB) *SQLRepo {
	return &SQLRepo{db: db}
}

// Ping reports whether the store is reachable.
func (r *SQLRepo) Ping(ctx context.Context) error {
	if r.db == nil {
		return fmt.Errorf("database is not initialized")
	}
	return r.db.PingContext(ctx)
}

func (r *SQLRepo) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func notFoundOr(err error, format string, args ...interface{}) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
