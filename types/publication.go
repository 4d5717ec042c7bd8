package types

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Publication represents a user's post about a visit to an establishment.
type Publication struct {
	// ID is the unique identifier of the publication.
	ID uuid.UUID `json:"id" db:"id"`

	// Created is the creation timestamp in epoch milliseconds.
	Created int64 `json:"created" db:"created"`

	// Updated is the timestamp of the most recent update, if any.
	Updated *int64 `json:"updated" db:"updated"`

	// TotalPrice is the amount spent during the visit.
	TotalPrice decimal.Decimal `json:"total_price" db:"total_price"`

	// TotalScore is the overall score given to the visit.
	TotalScore decimal.Decimal `json:"total_score" db:"total_score"`

	// Photo is the object storage key of the attached photo.
	Photo string `json:"photo" db:"photo"`

	// Comment is optional free text.
	Comment *string `json:"comment" db:"comment"`

	// EstablishmentID references the visited establishment.
	// It is cleared when the establishment is deleted.
	EstablishmentID *uuid.UUID `json:"establishment_id" db:"establishment_id"`

	// UserID references the author. It is cleared when the user is deleted.
	UserID *uuid.UUID `json:"user_id" db:"user_id"`

	// Products are attached at read time. It is null when the product
	// lookup failed for this publication.
	Products []Product `json:"products" db:"-"`
}

// PublicationInput is the client-supplied part of a publication.
type PublicationInput struct {
	TotalPrice      decimal.Decimal `json:"total_price"`
	TotalScore      decimal.Decimal `json:"total_score"`
	Photo           string          `json:"photo"`
	Comment         *string         `json:"comment"`
	EstablishmentID uuid.UUID       `json:"establishment_id"`
	UserID          uuid.UUID       `json:"user_id"`
}

type PublicationUpdate struct {
	ID uuid.UUID `json:"id"`
	PublicationInput
}
