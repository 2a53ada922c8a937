package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MoneyPlaces — точность денежных сумм (центы).
const MoneyPlaces = 2

// Имена встроенных профилей ценообразования.
const (
	// PricingProfileBilling — форма выставления счёта и быстрая продажа: 15% налог, без доставки.
	PricingProfileBilling = "billing"
	// PricingProfileCheckout — оформление корзины: 10% налог и платная доставка.
	PricingProfileCheckout = "checkout"
)

// RoundMoney округляет сумму до центов (половина округляется от нуля).
func RoundMoney(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(MoneyPlaces)
}

// ParseMoney разбирает строковое представление суммы и округляет его до центов.
func ParseMoney(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", raw, err)
	}
	return RoundMoney(d), nil
}

// ShippingPolicy описывает стоимость доставки. Нулевое значение означает «без доставки».
type ShippingPolicy struct {
	// Fee — фиксированная стоимость доставки.
	Fee decimal.Decimal
	// FreeOver — порог subtotal, выше которого доставка бесплатна. Ноль отключает порог.
	FreeOver decimal.Decimal
}

// Charge возвращает стоимость доставки для указанного subtotal.
func (s ShippingPolicy) Charge(subtotal decimal.Decimal) decimal.Decimal {
	if s.Fee.IsZero() || !subtotal.IsPositive() {
		return decimal.Zero
	}
	if !s.FreeOver.IsZero() && subtotal.GreaterThan(s.FreeOver) {
		return decimal.Zero
	}
	return RoundMoney(s.Fee)
}

// Pricing задаёт налоговую ставку и политику доставки, которые выбирает место вызова.
type Pricing struct {
	Profile  string
	TaxRate  decimal.Decimal
	Shipping ShippingPolicy
}

// Totals — итоговые суммы заказа или счёта.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Shipping decimal.Decimal
	Total    decimal.Decimal
}

// BillingPricing — 15% налог без доставки.
func BillingPricing() Pricing {
	return Pricing{
		Profile: PricingProfileBilling,
		TaxRate: decimal.RequireFromString("0.15"),
	}
}

// CheckoutPricing — 10% налог, доставка 15.00, бесплатная при subtotal > 100.00.
func CheckoutPricing() Pricing {
	return Pricing{
		Profile: PricingProfileCheckout,
		TaxRate: decimal.RequireFromString("0.10"),
		Shipping: ShippingPolicy{
			Fee:      decimal.RequireFromString("15.00"),
			FreeOver: decimal.RequireFromString("100.00"),
		},
	}
}

// PricingFor возвращает встроенный профиль по имени; пустое имя означает billing.
func PricingFor(profile string) (Pricing, error) {
	switch strings.ToLower(strings.TrimSpace(profile)) {
	case "", PricingProfileBilling:
		return BillingPricing(), nil
	case PricingProfileCheckout:
		return CheckoutPricing(), nil
	default:
		return Pricing{}, fmt.Errorf("%w: %q", ErrUnknownPricingProfile, profile)
	}
}

// Tax считает налог с subtotal с округлением до центов.
func (p Pricing) Tax(subtotal decimal.Decimal) decimal.Decimal {
	return RoundMoney(subtotal.Mul(p.TaxRate))
}

// Compute собирает все итоговые суммы для subtotal.
func (p Pricing) Compute(subtotal decimal.Decimal) Totals {
	subtotal = RoundMoney(subtotal)
	tax := p.Tax(subtotal)
	shipping := p.Shipping.Charge(subtotal)
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Total:    subtotal.Add(tax).Add(shipping),
	}
}
