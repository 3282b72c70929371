package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Sale struct {
	ID           string
	CustomerName string
	ItemNames    []string
	TotalAmount  decimal.Decimal
	CreatedAt    time.Time
}

type Expense struct {
	ID    string
	Name  string
	Price decimal.Decimal
	Date  time.Time
}

// Period is an inclusive time range covering one calendar month.
type Period struct {
	Start time.Time
	End   time.Time
}

func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && !t.After(p.End)
}
