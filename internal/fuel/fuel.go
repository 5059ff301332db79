// Package fuel holds the pricing arithmetic for kiosk fuel sales. Every
// function here is pure: no storage, no clock, no network.
package fuel

import (
	"math"

	"efuelpos/backend/internal/domain"
)

// Default prices in rupiah, used when store settings are absent.
const (
	BasePricePerLiter int64 = 12000
	CostPricePerLiter int64 = 10000
)

// Result is the outcome of pricing one cash amount.
type Result struct {
	Nominal       int64   `json:"nominal"`
	Liter         float64 `json:"liter"`
	Cost          int64   `json:"cost"`
	Profit        int64   `json:"profit"`
	IsSpecialRule bool    `json:"is_special_rule"`
}

// defaultSpecialRules maps fixed nominal amounts to liter overrides that
// bypass the per-liter formula. Kiosks sell these denominations with
// rounder volumes than the formula would give.
var defaultSpecialRules = map[int64]float64{
	6000:  0.5,
	10000: 0.7,
	15000: 1.2,
}

// Calculate prices a cash amount with the default prices and the default
// special-rule set.
func Calculate(nominal int64) Result {
	return CalculateWithPrices(nominal, BasePricePerLiter, CostPricePerLiter, defaultSpecialRules)
}

// CalculateWithPrices prices a cash amount against explicit prices and
// special-rule overrides. A nil rules map means no overrides. Liter is
// rounded to 2 decimal places, cost to whole rupiah; profit is the exact
// remainder of nominal minus cost.
func CalculateWithPrices(nominal int64, basePrice int64, costPrice int64, rules map[int64]float64) Result {
	if basePrice < 1 {
		basePrice = BasePricePerLiter
	}
	if costPrice < 1 {
		costPrice = CostPricePerLiter
	}

	var liter float64
	special := false
	if override, ok := rules[nominal]; ok && override > 0 {
		liter = override
		special = true
	} else {
		liter = round2(float64(nominal) / float64(basePrice))
	}

	cost := int64(math.Round(liter * float64(costPrice)))
	return Result{
		Nominal:       nominal,
		Liter:         liter,
		Cost:          cost,
		Profit:        nominal - cost,
		IsSpecialRule: special,
	}
}

// RulesFromPricing converts active pricing-rule records into the override
// map consumed by CalculateWithPrices. Inactive rules are skipped.
func RulesFromPricing(rules []domain.PricingRule) map[int64]float64 {
	overrides := make(map[int64]float64, len(rules))
	for _, rule := range rules {
		if rule.IsActive && rule.Nominal > 0 && rule.Liter > 0 {
			overrides[rule.Nominal] = rule.Liter
		}
	}
	return overrides
}

// DefaultSpecialRules returns a copy of the built-in override set, used to
// seed the pricing_rules collection on first run.
func DefaultSpecialRules() map[int64]float64 {
	rules := make(map[int64]float64, len(defaultSpecialRules))
	for nominal, liter := range defaultSpecialRules {
		rules[nominal] = liter
	}
	return rules
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
