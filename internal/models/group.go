package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type Group struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name" validate:"required,min=2,max=80"`
	Description string    `db:"description" json:"description" validate:"max=500"`
	ImageURL    string    `db:"image_url" json:"image_url" validate:"omitempty,url"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type GroupRepo interface {
	CreateGroup(ctx context.Context, group *Group) (*Group, error)
	ListGroups(ctx context.Context) ([]*Group, error)
	GroupExists(ctx context.Context, id int64) (bool, error)
}

func (r *SQLRepo) CreateGroup(ctx context.Context, group *Group) (*Group, error) {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO sport_groups (name, description, image_url, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (name) DO NOTHING
		 RETURNING id`,
		group.Name, group.Description, group.ImageURL, group.CreatedAt,
	).Scan(&group.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDuplicateGroup
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}
	return group, nil
}

func (r *SQLRepo) ListGroups(ctx context.Context) ([]*Group, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, description, image_url, created_at FROM sport_groups ORDER BY name ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	groups := []*Group{}
	for rows.Next() {
		var g Group
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.ImageURL, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, &g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("group rows error: %w", err)
	}
	return groups, nil
}

func (r *SQLRepo) GroupExists(ctx context.Context, id int64) (bool, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sport_groups WHERE id = $1", id).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check group: %w", err)
	}
	return n > 0, nil
}
