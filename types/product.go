package types

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product represents a single reviewed item, optionally part of a menu
// and optionally attached to a publication.
type Product struct {
	// ID is the unique identifier of the product.
	ID uuid.UUID `json:"id" db:"id"`

	// Name is the product name.
	Name string `json:"name" db:"name"`

	// Created is the creation timestamp in epoch milliseconds.
	Created int64 `json:"created" db:"created"`

	// Updated is the timestamp of the most recent update, if any.
	Updated *int64 `json:"updated" db:"updated"`

	// InMenu reports whether the product was consumed as part of a menu.
	InMenu bool `json:"in_menu" db:"in_menu"`

	// Price is the optional price paid for the product.
	Price decimal.NullDecimal `json:"price" db:"price"`

	// Score is the optional score given to the product.
	Score decimal.NullDecimal `json:"score" db:"score"`

	// PublicationID references the publication the product was reviewed in.
	// It is cleared when the publication is deleted.
	PublicationID *uuid.UUID `json:"publication_id" db:"publication_id"`

	// MenuID references the menu the product belongs to.
	// It is cleared when the menu is deleted.
	MenuID *uuid.UUID `json:"menu_id" db:"menu_id"`
}

// ProductInput is the client-supplied part of a product.
type ProductInput struct {
	Name          string              `json:"name"`
	InMenu        bool                `json:"in_menu"`
	Price         decimal.NullDecimal `json:"price"`
	Score         decimal.NullDecimal `json:"score"`
	PublicationID *uuid.UUID          `json:"publication_id"`
	MenuID        *uuid.UUID          `json:"menu_id"`
}

type ProductUpdate struct {
	ID uuid.UUID `json:"id"`
	ProductInput
}
