package types

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User represents an account in the system.
// It contains identity, role, aggregate counters and audit metadata.
type User struct {
	// ID is the unique identifier of the user, assigned at creation.
	ID uuid.UUID `json:"id" db:"id"`

	// Username is the unique login name, always stored lower-cased.
	Username string `json:"username" db:"username"`

	// Name is the user's given name.
	Name string `json:"name" db:"name"`

	// Surname is the user's family name.
	Surname string `json:"surname" db:"surname"`

	// BirthDate is the user's birth date in epoch milliseconds.
	BirthDate int64 `json:"birth_date" db:"birth_date"`

	// Email is the unique email address, always stored lower-cased.
	Email string `json:"email" db:"email"`

	// Password stores the bcrypt hash of the user's password.
	// This field is never exposed in API responses.
	Password string `json:"-" db:"password"`

	// Created is the creation timestamp in epoch milliseconds.
	Created int64 `json:"created" db:"created"`

	// Updated is the timestamp of the most recent update, if any.
	Updated *int64 `json:"updated" db:"updated"`

	// Photo is an optional object storage key for the profile picture.
	Photo *string `json:"photo" db:"photo"`

	// IsActive reports whether the account is enabled.
	IsActive bool `json:"is_active" db:"is_active"`

	// MoneySpent is the sum of total_price over the user's publications.
	// It is derived and recomputed, never written by clients.
	MoneySpent decimal.Decimal `json:"money_spent" db:"money_spent"`

	// PublicationsNumber is the number of publications by the user.
	// It is derived and recomputed, never written by clients.
	PublicationsNumber int `json:"publications_number" db:"publications_number"`

	// Role indicates the user's authorization level (e.g., "admin", "user").
	Role string `json:"role" db:"role"`

	// RecoveryCode is a short numeric code used to recover the account.
	RecoveryCode *int64 `json:"recovery_code" db:"recovery_code"`
}

// UserInput is the client-supplied part of a user record.
type UserInput struct {
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	Surname   string    `json:"surname"`
	BirthDate FlexInt64 `json:"birth_date"`
	Email     string    `json:"email"`
	Password  string    `json:"password"`
	Role      string    `json:"role"`
	Photo     *string   `json:"photo"`
}

// UserUpdate is a full-record replacement of a user's client-owned fields.
type UserUpdate struct {
	ID uuid.UUID `json:"id"`
	UserInput
	IsActive     *bool  `json:"is_active"`
	RecoveryCode *int64 `json:"recovery_code"`
}

// PasswordUpdate carries a new plaintext password for an account.
type PasswordUpdate struct {
	ID       uuid.UUID `json:"id"`
	Password string    `json:"password"`
}

// RecoverAccount is the view of an account returned to the recovery flow.
type RecoverAccount struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	RecoveryCode *int64    `json:"recovery_code"`
}
