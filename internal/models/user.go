package models

import "time"

type User struct {
	ID        string    `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Name      string    `db:"name" json:"name"`
	AvatarURL string    `db:"avatar_url" json:"avatar_url"`
	Phone     string    `db:"phone" json:"phone"`
	Region    string    `db:"region" json:"region"`
	Commune   string    `db:"commune" json:"commune"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ProfileUpdate carries the editable profile fields. Nil fields are left untouched.
type ProfileUpdate struct {
	Name    *string `json:"name" validate:"omitempty,min=1,max=120"`
	Phone   *string `json:"phone" validate:"omitempty,max=32,startswith=+"`
	Region  *string `json:"region" validate:"omitempty,max=120"`
	Commune *string `json:"commune" validate:"omitempty,max=120"`
}

func (p ProfileUpdate) IsEmpty() bool {
	return p.Name == nil && p.Phone == nil && p.Region == nil && p.Commune == nil
}
