package report

import (
	"testing"
	"time"

	"github.com/MH-Project10/Kasir-App/internal/domain"
)

func TestSummarizeCountsRevenueItemsAndBreakdowns(t *testing.T) {
	from := time.Date(2025, time.June, 5, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)

	txs := []domain.Transaction{
		{
			CustomerType:     "regular",
			CustomerTypeName: "Pelanggan Biasa",
			PaymentMethod:    "cash",
			TotalCents:       5000,
			Items: []domain.TransactionLine{
				{Qty: 2},
				{Qty: 1},
			},
		},
		{
			CustomerType:     "sales",
			CustomerTypeName: "Sales",
			PaymentMethod:    "transfer",
			TotalCents:       3000,
			Items: []domain.TransactionLine{
				{Qty: 4},
			},
		},
	}

	got := Summarize(PeriodDaily, from, to, txs)

	if got.TotalTransactions != 2 {
		t.Fatalf("total transactions %d", got.TotalTransactions)
	}
	if got.TotalRevenueCents != 8000 {
		t.Fatalf("total revenue %d, want 8000", got.TotalRevenueCents)
	}
	if got.TotalItemsSold != 7 {
		t.Fatalf("items sold %d, want 7", got.TotalItemsSold)
	}
	if got.PaymentMethods["cash"] != 5000 || got.PaymentMethods["transfer"] != 3000 {
		t.Fatalf("payment breakdown %+v", got.PaymentMethods)
	}
	if got.CustomerTypes["Pelanggan Biasa"] != 5000 || got.CustomerTypes["Sales"] != 3000 {
		t.Fatalf("customer type breakdown %+v", got.CustomerTypes)
	}
	if got.StartDate != "2025-06-05" || got.EndDate != "2025-06-05" {
		t.Fatalf("window dates %s .. %s", got.StartDate, got.EndDate)
	}
}

func TestSummarizeBreakdownsSumRevenuePerBucket(t *testing.T) {
	from := time.Date(2025, time.June, 5, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)

	txs := []domain.Transaction{
		{CustomerType: "regular", CustomerTypeName: "Pelanggan Biasa", PaymentMethod: "cash", TotalCents: 50},
		{CustomerType: "sales", CustomerTypeName: "Sales", PaymentMethod: "transfer", TotalCents: 30},
		{CustomerType: "regular", CustomerTypeName: "Pelanggan Biasa", PaymentMethod: "cash", TotalCents: 20},
	}

	got := Summarize(PeriodDaily, from, to, txs)

	// Buckets accumulate revenue, not transaction counts.
	if got.PaymentMethods["cash"] != 70 {
		t.Fatalf("cash bucket %d, want 70", got.PaymentMethods["cash"])
	}
	if got.PaymentMethods["transfer"] != 30 {
		t.Fatalf("transfer bucket %d, want 30", got.PaymentMethods["transfer"])
	}
	if got.CustomerTypes["Pelanggan Biasa"] != 70 {
		t.Fatalf("Pelanggan Biasa bucket %d, want 70", got.CustomerTypes["Pelanggan Biasa"])
	}
	if got.CustomerTypes["Sales"] != 30 {
		t.Fatalf("Sales bucket %d, want 30", got.CustomerTypes["Sales"])
	}
	if _, keyed := got.CustomerTypes["regular"]; keyed {
		t.Fatal("customer type buckets must be keyed by display name")
	}
}

func TestSummarizeEmptyWindowHasNonNilMaps(t *testing.T) {
	from := time.Date(2025, time.June, 5, 0, 0, 0, 0, time.UTC)
	got := Summarize(PeriodDaily, from, from.AddDate(0, 0, 1), nil)

	if got.TotalTransactions != 0 || got.TotalRevenueCents != 0 || got.TotalItemsSold != 0 {
		t.Fatalf("empty window summary not zero: %+v", got)
	}
	if got.PaymentMethods == nil || got.CustomerTypes == nil {
		t.Fatalf("breakdown maps must be non-nil")
	}
}

func TestSummarizeEndDateLabelsLastIncludedDay(t *testing.T) {
	from := time.Date(2025, time.January, 29, 0, 0, 0, 0, time.UTC)
	_, to := WeeklyWindow(from)

	got := Summarize(PeriodWeekly, from, to, nil)
	if got.EndDate != "2025-02-04" {
		t.Fatalf("end date %s, want 2025-02-04", got.EndDate)
	}
}

func TestWeeklyWindowCrossesMonthBoundary(t *testing.T) {
	from, to := WeeklyWindow(time.Date(2025, time.January, 29, 0, 0, 0, 0, time.UTC))
	if !from.Equal(time.Date(2025, time.January, 29, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("window start %s", from)
	}
	if !to.Equal(time.Date(2025, time.February, 5, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("window end %s, want 2025-02-05", to)
	}
}

func TestWeeklyWindowCrossesYearBoundary(t *testing.T) {
	_, to := WeeklyWindow(time.Date(2024, time.December, 30, 0, 0, 0, 0, time.UTC))
	if !to.Equal(time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("window end %s, want 2025-01-06", to)
	}
}

func TestMonthlyWindowIsHalfOpen(t *testing.T) {
	from, to := MonthlyWindow(2025, time.February)
	if !from.Equal(time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("window start %s", from)
	}
	if !to.Equal(time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("window end %s, want 2025-03-01", to)
	}

	// A transaction at the next month's midnight sits outside the window.
	boundary := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	if boundary.Before(to) {
		t.Fatalf("boundary instant must not be inside the window")
	}
}

func TestDailyWindow(t *testing.T) {
	from, to := DailyWindow(time.Date(2025, time.June, 5, 15, 30, 0, 0, time.UTC))
	if !from.Equal(time.Date(2025, time.June, 5, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("window start %s", from)
	}
	if to.Sub(from) != 24*time.Hour {
		t.Fatalf("window length %s", to.Sub(from))
	}
}
