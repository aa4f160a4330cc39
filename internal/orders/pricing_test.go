package orders

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srejanashetty/efarm-backend/pkg/config"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestSummarize(t *testing.T) {
	p := DefaultPricing()

	cases := []struct {
		name                           string
		subtotal                       string
		shipping, tax, total, discount string
	}{
		{"small basket pays shipping", "25", "10", "2", "37", "0"},
		{"threshold itself still pays shipping", "50", "10", "4", "64", "0"},
		{"above threshold ships free", "50.01", "0", "4", "54.01", "0"},
		{"tax rounds half up to cents", "10.5625", "10", "0.85", "21.4125", "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := p.Summarize(dec(tc.subtotal))
			assert.True(t, s.ShippingCost.Equal(dec(tc.shipping)), "shipping %s", s.ShippingCost)
			assert.True(t, s.Tax.Equal(dec(tc.tax)), "tax %s", s.Tax)
			assert.True(t, s.Discount.Equal(dec(tc.discount)), "discount %s", s.Discount)
			assert.True(t, s.Total.Equal(dec(tc.total)), "total %s", s.Total)
			assert.True(t, s.Total.Equal(s.Subtotal.Add(s.ShippingCost).Add(s.Tax).Sub(s.Discount)))
		})
	}
}

func TestNewPricingFromConfig(t *testing.T) {
	p, err := NewPricing(config.MarketplaceConfig{FlatShippingFee: "5", FreeShippingThreshold: "100", TaxRate: "0.1"})
	require.NoError(t, err)

	s := p.Summarize(dec("60"))
	assert.True(t, s.ShippingCost.Equal(dec("5")))
	assert.True(t, s.Tax.Equal(dec("6")))

	_, err = NewPricing(config.MarketplaceConfig{FlatShippingFee: "x", FreeShippingThreshold: "1", TaxRate: "0"})
	assert.Error(t, err)
	_, err = NewPricing(config.MarketplaceConfig{FlatShippingFee: "1", FreeShippingThreshold: "1", TaxRate: "-0.1"})
	assert.Error(t, err)
}

func TestLineTotal(t *testing.T) {
	assert.True(t, LineTotal(dec("2.50"), 4).Equal(dec("10")))
}
