package models

import "time"

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	ProfilePic   *string   `json:"profilePic"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UpdateUserInput carries the optional profile fields a user may change.
// Nil means "leave unchanged".
type UpdateUserInput struct {
	Username   *string
	Email      *string
	Password   *string
	ProfilePic *string
}
