// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is an account. Email is stored lower-cased; Username as typed.
// PasswordHash is an opaque encoded string (algorithm, salt and digest).
type User struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string
	FirstName    string
	LastName     string
	IsActive     bool
	IsStaff      bool
	CreatedAt    time.Time
	LastLoginAt  *time.Time
	LastLoginIP  string
}
