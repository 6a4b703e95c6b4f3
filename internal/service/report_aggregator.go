package service

import (
	"strings"
	"time"

	"inventory-service/internal/models"
	"inventory-service/internal/stock"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire format of report dates
const DateLayout = "2006-01-02"

// ReportSnapshot is the aggregate of the current item set, labelled with a period.
// The dates label the snapshot; they never filter the items.
type ReportSnapshot struct {
	Period          string
	StartDate       time.Time
	EndDate         time.Time
	TotalItems      int64
	TotalValue      decimal.Decimal
	LowStockCount   int
	OutOfStockCount int
}

// Aggregate sums the item snapshot. endDate before startDate is accepted.
func Aggregate(items []models.Item, period, startDate, endDate string) (ReportSnapshot, error) {
	period = strings.TrimSpace(period)
	if period == "" {
		return ReportSnapshot{}, validationError("period is required")
	}
	start, err := parseReportDate("startDate", startDate)
	if err != nil {
		return ReportSnapshot{}, err
	}
	end, err := parseReportDate("endDate", endDate)
	if err != nil {
		return ReportSnapshot{}, err
	}

	snap := ReportSnapshot{
		Period:     period,
		StartDate:  start,
		EndDate:    end,
		TotalValue: decimal.Zero,
	}
	for _, item := range items {
		snap.TotalItems += int64(item.Quantity)
		snap.TotalValue = snap.TotalValue.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))

		switch stock.StatusOf(item.Quantity, item.MinQuantity) {
		case stock.StatusOutOfStock:
			snap.OutOfStockCount++
		case stock.StatusLowStock:
			snap.LowStockCount++
		}
	}
	return snap, nil
}

func parseReportDate(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, validationError("%s is required", field)
	}
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, validationError("%s must be formatted as YYYY-MM-DD", field)
	}
	return t, nil
}
