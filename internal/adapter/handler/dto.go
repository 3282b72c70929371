package handler

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/rl1809/inventory-service/internal/core/domain"
)

// ItemRequest is the body of create and update calls. Pointers distinguish a
// missing field from a zero value.
type ItemRequest struct {
	Name         string           `json:"name" binding:"required"`
	DisplayName  string           `json:"displayName" binding:"required"`
	Tag          string           `json:"tag" binding:"required"`
	CostPrice    *decimal.Decimal `json:"costPrice" binding:"required"`
	SellingPrice *decimal.Decimal `json:"sellingPrice" binding:"required"`
	VolumeWeight string           `json:"volumeWeight" binding:"required"`
	Supplier     string           `json:"supplier" binding:"required"`
	Quantity     *int             `json:"quantity" binding:"required,min=0"`
	Status       string           `json:"status" binding:"required"`
}

func (r ItemRequest) Fields() domain.ItemFields {
	return domain.ItemFields{
		Name:         r.Name,
		DisplayName:  r.DisplayName,
		Tag:          r.Tag,
		CostPrice:    *r.CostPrice,
		SellingPrice: *r.SellingPrice,
		VolumeWeight: r.VolumeWeight,
		Supplier:     r.Supplier,
		Quantity:     *r.Quantity,
		Status:       domain.ItemStatus(r.Status),
	}
}

type ItemResponse struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	DisplayName  string          `json:"displayName"`
	Tag          string          `json:"tag"`
	CostPrice    decimal.Decimal `json:"costPrice"`
	SellingPrice decimal.Decimal `json:"sellingPrice"`
	VolumeWeight string          `json:"volumeWeight"`
	Supplier     string          `json:"supplier"`
	Quantity     int             `json:"quantity"`
	Status       string          `json:"status"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

func newItemResponse(item domain.InventoryItem) ItemResponse {
	return ItemResponse{
		ID:           item.ID,
		Name:         item.Name,
		DisplayName:  item.DisplayName,
		Tag:          item.Tag,
		CostPrice:    item.CostPrice,
		SellingPrice: item.SellingPrice,
		VolumeWeight: item.VolumeWeight,
		Supplier:     item.Supplier,
		Quantity:     item.Quantity,
		Status:       string(item.Status),
		CreatedAt:    item.CreatedAt,
		UpdatedAt:    item.UpdatedAt,
	}
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var fieldLabels = map[string]string{
	"Name":         "Name",
	"DisplayName":  "Display Name",
	"Tag":          "Tag",
	"CostPrice":    "Cost Price",
	"SellingPrice": "Selling Price",
	"VolumeWeight": "Volume Weight",
	"Supplier":     "Supplier",
	"Quantity":     "Quantity",
	"Status":       "Status",
}

// fieldErrors turns validator output into per-field messages. It returns nil
// when err is not a validation failure.
func fieldErrors(err error) []FieldError {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return nil
	}

	out := make([]FieldError, 0, len(ve))
	for _, fe := range ve {
		label, ok := fieldLabels[fe.StructField()]
		if !ok {
			label = fe.StructField()
		}
		msg := "Enter " + label
		if fe.Tag() != "required" {
			msg = "Invalid " + label
		}
		out = append(out, FieldError{Field: jsonName(fe.StructField()), Message: msg})
	}
	return out
}

func jsonName(structField string) string {
	if structField == "" {
		return ""
	}
	return strings.ToLower(structField[:1]) + structField[1:]
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	return v
}
