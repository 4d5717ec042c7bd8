package types

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Establishment represents a venue users visit and publish about.
type Establishment struct {
	// ID is the unique identifier of the establishment.
	ID uuid.UUID `json:"id" db:"id"`

	// Name is the display name of the establishment.
	Name string `json:"name" db:"name"`

	// Created is the creation timestamp in epoch milliseconds.
	Created int64 `json:"created" db:"created"`

	// Updated is the timestamp of the most recent update, if any.
	Updated *int64 `json:"updated" db:"updated"`

	// Location is a free-form address or area description.
	Location string `json:"location" db:"location"`

	// IsOpen reports whether the establishment is currently operating.
	IsOpen bool `json:"is_open" db:"is_open"`

	// IsComputerAllowed reports whether laptops are welcome.
	IsComputerAllowed bool `json:"is_computer_allowed" db:"is_computer_allowed"`

	// MapsID is the identifier of the place in an external maps provider.
	MapsID *string `json:"maps_id" db:"maps_id"`

	// Score is the average total_score of all publications referencing
	// this establishment, rounded to two decimals. It is derived.
	Score decimal.Decimal `json:"score" db:"score"`
}

// EstablishmentInput is the client-supplied part of an establishment.
type EstablishmentInput struct {
	Name              string  `json:"name"`
	Location          string  `json:"location"`
	IsOpen            *bool   `json:"is_open"`
	IsComputerAllowed bool    `json:"is_computer_allowed"`
	MapsID            *string `json:"maps_id"`
}

// EstablishmentUpdate replaces every client-owned field of an establishment.
type EstablishmentUpdate struct {
	ID uuid.UUID `json:"id"`
	EstablishmentInput
}
