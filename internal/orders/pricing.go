package orders

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/srejanashetty/efarm-backend/pkg/config"
	"github.com/srejanashetty/efarm-backend/pkg/db/models"
)

// Pricing derives the order summary from an item subtotal.
type Pricing struct {
	flatShipping          decimal.Decimal
	freeShippingThreshold decimal.Decimal
	taxRate               decimal.Decimal
}

func NewPricing(cfg config.MarketplaceConfig) (Pricing, error) {
	flat, err := decimal.NewFromString(cfg.FlatShippingFee)
	if err != nil {
		return Pricing{}, fmt.Errorf("parse flat shipping fee: %w", err)
	}
	threshold, err := decimal.NewFromString(cfg.FreeShippingThreshold)
	if err != nil {
		return Pricing{}, fmt.Errorf("parse free shipping threshold: %w", err)
	}
	rate, err := decimal.NewFromString(cfg.TaxRate)
	if err != nil {
		return Pricing{}, fmt.Errorf("parse tax rate: %w", err)
	}
	if flat.IsNegative() || threshold.IsNegative() || rate.IsNegative() {
		return Pricing{}, fmt.Errorf("pricing values must not be negative")
	}
	return Pricing{flatShipping: flat, freeShippingThreshold: threshold, taxRate: rate}, nil
}

// DefaultPricing is flat 10 shipping, free above 50, 8% tax.
func DefaultPricing() Pricing {
	return Pricing{
		flatShipping:          decimal.NewFromInt(10),
		freeShippingThreshold: decimal.NewFromInt(50),
		taxRate:               decimal.RequireFromString("0.08"),
	}
}

// Summarize applies shipping (free strictly above the threshold), tax
// rounded to cents, and no discount.
func (p Pricing) Summarize(subtotal decimal.Decimal) models.OrderSummary {
	shipping := p.flatShipping
	if subtotal.GreaterThan(p.freeShippingThreshold) {
		shipping = decimal.Zero
	}
	tax := subtotal.Mul(p.taxRate).Round(2)
	discount := decimal.Zero
	return models.OrderSummary{
		Subtotal:     subtotal,
		ShippingCost: shipping,
		Tax:          tax,
		Discount:     discount,
		Total:        subtotal.Add(shipping).Add(tax).Sub(discount),
	}
}

// LineTotal is the price snapshot times quantity.
func LineTotal(price decimal.Decimal, qty int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(qty)))
}
