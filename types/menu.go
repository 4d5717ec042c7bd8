package types

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Menu represents a priced, scored set of products.
type Menu struct {
	ID      uuid.UUID       `json:"id" db:"id"`
	Created int64           `json:"created" db:"created"`
	Updated *int64          `json:"updated" db:"updated"`
	Price   decimal.Decimal `json:"price" db:"price"`
	Score   decimal.Decimal `json:"score" db:"score"`
}

type MenuInput struct {
	Price decimal.Decimal `json:"price"`
	Score decimal.Decimal `json:"score"`
}

type MenuUpdate struct {
	ID uuid.UUID `json:"id"`
	MenuInput
}
