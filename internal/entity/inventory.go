package entity

import "github.com/joseph-ayodele/inventory-scanner/constants"

// Item is a product tracked in inventory.
type Item struct {
	ID   string             `json:"id" validate:"required"`
	Name string             `json:"name" validate:"required"`
	Type constants.ItemType `json:"type,omitempty"`
}

// Transaction is a recorded stock movement of a single item.
type Transaction struct {
	ID          string                    `json:"id"`
	Type        constants.TransactionType `json:"type" validate:"required,oneof=INCOME OUTCOME"`
	ItemID      string                    `json:"itemId" validate:"required"`
	Quantity    int                       `json:"quantity" validate:"gt=0"`
	PartnerID   string                    `json:"partnerId,omitempty"`
	Destination string                    `json:"destination,omitempty"`
	// CreatedAt is kept as text; unparseable values sort ahead of dated ones.
	CreatedAt string `json:"createdAt,omitempty"`
}

// Partner is a registered customer or supplier.
type Partner struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name" validate:"required"`
}

// Inventory is the on-disk snapshot of the three collections.
type Inventory struct {
	Items        []Item        `json:"items" validate:"dive"`
	Transactions []Transaction `json:"transactions" validate:"dive"`
	Partners     []Partner     `json:"partners" validate:"dive"`
}
