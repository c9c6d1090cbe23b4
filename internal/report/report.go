// Package report folds windows of persisted transactions into sales
// summaries. Window boundaries are half-open: [from, to).
package report

import (
	"time"

	"github.com/MH-Project10/Kasir-App/internal/domain"
)

const (
	PeriodDaily   = "daily"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
	PeriodRange   = "range"
)

// Summarize aggregates every listed transaction regardless of status.
// The breakdown maps hold summed revenue: per payment method, and per
// customer type keyed by its display name. Maps are always non-nil so
// an empty window serializes as {} not null.
func Summarize(period string, from time.Time, to time.Time, txs []domain.Transaction) domain.ReportSummary {
	summary := domain.ReportSummary{
		Period:         period,
		StartDate:      from.Format("2006-01-02"),
		EndDate:        to.AddDate(0, 0, -1).Format("2006-01-02"),
		PaymentMethods: map[string]int64{},
		CustomerTypes:  map[string]int64{},
	}

	for _, tx := range txs {
		summary.TotalTransactions++
		summary.TotalRevenueCents += tx.TotalCents
		for _, item := range tx.Items {
			summary.TotalItemsSold += int64(item.Qty)
		}
		summary.PaymentMethods[tx.PaymentMethod] += tx.TotalCents
		summary.CustomerTypes[tx.CustomerTypeName] += tx.TotalCents
	}

	return summary
}

// DailyWindow covers one calendar day.
func DailyWindow(day time.Time) (time.Time, time.Time) {
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 0, 1)
}

// WeeklyWindow covers seven days starting at the given date. AddDate
// carries month and year boundaries, so a week starting Jan 29 ends in
// February without special cases.
func WeeklyWindow(start time.Time) (time.Time, time.Time) {
	from := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 0, 7)
}

// MonthlyWindow covers [first of month, first of next month) so a
// transaction at the next month's midnight is excluded.
func MonthlyWindow(year int, month time.Month) (time.Time, time.Time) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0)
}
