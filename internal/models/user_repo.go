package models

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

type UserRepo interface {
	UpsertUser(ctx context.Context, user *User) (firstLogin bool, err error)
	GetUser(ctx context.Context, id string) (*User, error)
	UserExists(ctx context.Context, id string) (bool, error)
	UpdateProfile(ctx context.Context, id string, update ProfileUpdate, now time.Time) (*User, error)
	UpdateAvatar(ctx context.Context, id, avatarURL string, now time.Time) error
}

const userColumns = "id, email, name, avatar_url, phone, region, commune, created_at, updated_at"

func scanUser(row interface{ Scan(...interface{}) error }) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.AvatarURL, &u.Phone, &u.Region, &u.Commune, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpsertUser inserts the user on first sign-in. Existing rows are left as they
// are so profile edits survive later logins.
func (r *SQLRepo) UpsertUser(ctx context.Context, user *User) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, name, avatar_url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO NOTHING`,
		user.ID, user.Email, user.Name, user.AvatarURL, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to upsert user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read upsert result: %w", err)
	}
	return n == 1, nil
}

func (r *SQLRepo) GetUser(ctx context.Context, id string) (*User, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id)
	u, err := scanUser(row)
	if err != nil {
		return nil, notFoundOr(err, "failed to get user %s", id)
	}
	return u, nil
}

func (r *SQLRepo) UserExists(ctx context.Context, id string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, "SELECT 1 FROM users WHERE id = $1", id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check user: %w", err)
	}
	return true, nil
}

func (r *SQLRepo) UpdateProfile(ctx context.Context, id string, update ProfileUpdate, now time.Time) (*User, error) {
	sets := []string{}
	args := []interface{}{}
	add := func(col string, v *string) {
		if v == nil {
			return
		}
		args = append(args, strings.TrimSpace(*v))
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	add("name", update.Name)
	add("phone", update.Phone)
	add("region", update.Region)
	add("commune", update.Commune)
	if len(sets) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}

	args = append(args, now)
	sets = append(sets, fmt.Sprintf("updated_at = $%d", len(args)))
	args = append(args, id)
	query := fmt.Sprintf("UPDATE users SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return r.GetUser(ctx, id)
}

func (r *SQLRepo) UpdateAvatar(ctx context.Context, id, avatarURL string, now time.Time) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE users SET avatar_url = $1, updated_at = $2 WHERE id = $3",
		avatarURL, now, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update avatar: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
