package postgres

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/MH-Project10/Kasir-App/internal/domain"
)

func TestCheckoutDecrementsStockAndAllocatesNumber(t *testing.T) {
	databaseURL := os.Getenv("KASIR_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set KASIR_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})

	stamp := time.Now().UnixNano()
	sku := fmt.Sprintf("SKU-CHK-IT-%d", stamp)

	product, err := s.CreateProduct(ctx, domain.Product{
		Name:               "Produk Checkout IT",
		SKU:                sku,
		Category:           "sparepart",
		PriceRegularCents:  12000,
		PriceSalesCents:    11500,
		PriceWorkshopCents: 11000,
		StockQty:           10,
		MinStockQty:        5,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	var txID string
	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM transaction_items WHERE product_id = $1`, product.ID)
		if txID != "" {
			_, _ = s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, txID)
		}
		_, _ = s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, product.ID)
	})

	created, err := s.CreateTransaction(ctx, domain.Transaction{
		CustomerType:     domain.CustomerTypeRegular,
		CustomerTypeName: "Pelanggan Biasa",
		Items: []domain.TransactionLine{{
			ProductID:      product.ID,
			ProductName:    product.Name,
			ProductSKU:     product.SKU,
			Qty:            2,
			UnitPriceCents: 12000,
			TotalCents:     24000,
		}},
		SubtotalCents: 24000,
		TotalCents:    24000,
		PaymentMethod: domain.PaymentMethodCash,
		PaymentCents:  25000,
		ChangeCents:   1000,
	})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	txID = created.ID

	dateKey := created.CreatedAt.UTC().Format("20060102")
	if !strings.HasPrefix(created.Number, "TRX"+dateKey) || len(created.Number) != len("TRX")+8+4 {
		t.Fatalf("unexpected transaction number %q", created.Number)
	}

	got, err := s.GetProductByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if got.StockQty != 8 {
		t.Fatalf("stock %d after checkout, want 8", got.StockQty)
	}

	fetched, err := s.GetTransactionByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get transaction: %v", err)
	}
	if len(fetched.Items) != 1 || fetched.Items[0].Qty != 2 {
		t.Fatalf("unexpected persisted items: %+v", fetched.Items)
	}
}
