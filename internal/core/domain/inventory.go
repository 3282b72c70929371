package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemSequence is the counter that backs inventory item identifiers.
const ItemSequence = "inventoryId"

type ItemStatus string

const (
	ItemStatusActive       ItemStatus = "active"
	ItemStatusInactive     ItemStatus = "inactive"
	ItemStatusOutOfStock   ItemStatus = "out_of_stock"
	ItemStatusDiscontinued ItemStatus = "discontinued"
)

// ItemFields are the business attributes of an inventory item, everything
// except the generated identifier and timestamps.
type ItemFields struct {
	Name         string
	DisplayName  string
	Tag          string
	CostPrice    decimal.Decimal
	SellingPrice decimal.Decimal
	VolumeWeight string
	Supplier     string
	Quantity     int
	Status       ItemStatus
}

type InventoryItem struct {
	ID string // ID001, ID002, ... never reassigned
	ItemFields
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewInventoryItem builds a record for a freshly allocated id.
func NewInventoryItem(id string, fields ItemFields, now time.Time) InventoryItem {
	return InventoryItem{
		ID:         id,
		ItemFields: fields,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
