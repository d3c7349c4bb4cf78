package models

import "time"

// Roles known to the authorizer.
const (
	RoleAdmin = "admin"
	RoleMP    = "mp"
)

// User is an account allowed to author projects.
type User struct {
	ID           string    `db:"id"`
	UserName     string    `db:"username"`
	PasswordHash []byte    `db:"password_hash"`
	Role         string    `db:"role"`
	CreatedAt    time.Time `db:"created_at"`
}
