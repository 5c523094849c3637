package models

import "time"

type User struct {
	ID           string    `json:"user_id" db:"id"`
	Handle       string    `json:"handle" db:"handle"`
	PasswordHash string    `json:"-" db:"password_hash"`
	AvatarKey    *string   `json:"-" db:"avatar_key"`
	AvatarURL    *string   `json:"avatar_url,omitempty" db:"-"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

type Credentials struct {
	Handle   string `json:"handle"`
	Password string `json:"password"`
}
