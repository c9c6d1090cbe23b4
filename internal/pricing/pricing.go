// Package pricing resolves the price tier and per-line discount for a
// customer type. It is pure; callers feed it catalog snapshots.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/MH-Project10/Kasir-App/internal/domain"
)

type Tier int

const (
	TierRegular Tier = iota
	TierSales
	TierWorkshop
)

func (t Tier) String() string {
	switch t {
	case TierRegular:
		return "regular"
	case TierSales:
		return "sales"
	default:
		return "workshop"
	}
}

// TierFor maps a customer type name to its price tier. Any type that is
// neither regular nor sales sells at the workshop price.
func TierFor(customerType string) Tier {
	switch customerType {
	case domain.CustomerTypeRegular:
		return TierRegular
	case domain.CustomerTypeSales:
		return TierSales
	default:
		return TierWorkshop
	}
}

// UnitPriceCents picks the product price for the tier.
func (t Tier) UnitPriceCents(p domain.Product) int64 {
	switch t {
	case TierRegular:
		return p.PriceRegularCents
	case TierSales:
		return p.PriceSalesCents
	default:
		return p.PriceWorkshopCents
	}
}

type Quote struct {
	UnitPriceCents    int64
	UnitDiscountCents int64
}

// Resolve quotes one unit of the product for the tier. The unit discount
// is unitPrice * discountPercent / 100, rounded to the nearest cent.
func Resolve(tier Tier, p domain.Product, discountPercent float64) Quote {
	unit := tier.UnitPriceCents(p)
	discount := decimal.NewFromInt(unit).
		Mul(decimal.NewFromFloat(discountPercent)).
		Div(decimal.NewFromInt(100)).
		Round(0).
		IntPart()
	if discount < 0 {
		discount = 0
	}
	return Quote{UnitPriceCents: unit, UnitDiscountCents: discount}
}

// Line converts a quote into snapshot amounts for a quantity.
func (q Quote) Line(qty int) (discountCents int64, totalCents int64) {
	gross := q.UnitPriceCents * int64(qty)
	discountCents = q.UnitDiscountCents * int64(qty)
	return discountCents, gross - discountCents
}
