package models

import "time"

// User is an account profile. PasswordHash is only populated by the
// credentials lookup and never serialized.
type User struct {
	ID           int64     `db:"id" json:"id"`
	FullName     string    `db:"full_name" json:"fullName"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Bio          string    `db:"bio" json:"bio"`
	ProfilePic   string    `db:"profile_pic" json:"profilePic"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}
