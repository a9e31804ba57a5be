// Package model defines the data structures used throughout the application.
package model

import "time"

// Account is a registered player.
//
// Username and Email are each unique across all accounts. The storage layer
// enforces that with UNIQUE constraints, so the check in the service layer is
// only a fast path for the common case.
//
// PasswordHash is a bcrypt string (cost and salt embedded). It is tagged
// json:"-" so it can never leak through a response body.
type Account struct {
	ID           int64     `json:"id"        db:"id"`
	Username     string    `json:"username"  db:"username"`
	Name         string    `json:"name"      db:"name"`
	Family       string    `json:"family"    db:"family"`
	Email        string    `json:"email"     db:"email"`
	Phone        string    `json:"phone"     db:"phone"` // optional, empty when not given
	PasswordHash string    `json:"-"         db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// ProfileUpdate carries the optional fields of a profile edit.
// A nil pointer means "leave unchanged".
type ProfileUpdate struct {
	Name   *string
	Family *string
	Phone  *string
	Email  *string
}

// Apply copies the provided fields onto a.
func (u ProfileUpdate) Apply(a *Account) {
	if u.Name != nil {
		a.Name = *u.Name
	}
	if u.Family != nil {
		a.Family = *u.Family
	}
	if u.Phone != nil {
		a.Phone = *u.Phone
	}
	if u.Email != nil {
		a.Email = *u.Email
	}
}
