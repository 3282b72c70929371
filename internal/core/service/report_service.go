package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/inventory-service/internal/core/domain"
	"github.com/rl1809/inventory-service/internal/port"
)

var ErrInvalidPeriod = errors.New("invalid report period")

const unknownCustomer = "N/A"

type ProfitReport struct {
	Period        domain.Period
	TotalSales    decimal.Decimal
	TotalExpenses decimal.Decimal
	Profit        decimal.Decimal
}

type ReportService struct {
	repo port.ReportRepository
}

func NewReportService(repo port.ReportRepository) *ReportService {
	return &ReportService{repo: repo}
}

// MonthRange covers the whole calendar month in UTC, both ends inclusive.
func MonthRange(month, year int) (domain.Period, error) {
	if month < 1 || month > 12 || year < 1 {
		return domain.Period{}, fmt.Errorf("%w: month %d, year %d", ErrInvalidPeriod, month, year)
	}

	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return domain.Period{Start: start, End: end}, nil
}

func (s *ReportService) Sales(ctx context.Context, month, year int) ([]domain.Sale, error) {
	period, err := MonthRange(month, year)
	if err != nil {
		return nil, err
	}

	sales, err := s.repo.SalesBetween(ctx, period.Start, period.End)
	if err != nil {
		return nil, fmt.Errorf("query sales: %w", err)
	}
	for i := range sales {
		if sales[i].CustomerName == "" {
			sales[i].CustomerName = unknownCustomer
		}
	}
	return sales, nil
}

func (s *ReportService) Expenses(ctx context.Context, month, year int) ([]domain.Expense, error) {
	period, err := MonthRange(month, year)
	if err != nil {
		return nil, err
	}

	expenses, err := s.repo.ExpensesBetween(ctx, period.Start, period.End)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	return expenses, nil
}

func (s *ReportService) Profit(ctx context.Context, month, year int) (*ProfitReport, error) {
	period, err := MonthRange(month, year)
	if err != nil {
		return nil, err
	}

	sales, err := s.repo.SalesBetween(ctx, period.Start, period.End)
	if err != nil {
		return nil, fmt.Errorf("query sales: %w", err)
	}
	expenses, err := s.repo.ExpensesBetween(ctx, period.Start, period.End)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}

	report := &ProfitReport{
		Period:        period,
		TotalSales:    decimal.Zero,
		TotalExpenses: decimal.Zero,
	}
	for _, sale := range sales {
		report.TotalSales = report.TotalSales.Add(sale.TotalAmount)
	}
	for _, expense := range expenses {
		report.TotalExpenses = report.TotalExpenses.Add(expense.Price)
	}
	report.Profit = report.TotalSales.Sub(report.TotalExpenses)

	return report, nil
}
