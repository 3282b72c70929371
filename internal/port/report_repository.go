package port

import (
	"context"
	"time"

	"github.com/rl1809/inventory-service/internal/core/domain"
)

// ReportRepository answers inclusive time-range queries over sales and expenses.
type ReportRepository interface {
	SalesBetween(ctx context.Context, from, to time.Time) ([]domain.Sale, error)
	ExpensesBetween(ctx context.Context, from, to time.Time) ([]domain.Expense, error)
}
