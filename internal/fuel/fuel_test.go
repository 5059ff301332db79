package fuel

import (
	"math"
	"testing"

	"efuelpos/backend/internal/domain"
)

func TestCalculateSpecialRules(t *testing.T) {
	cases := []struct {
		nominal int64
		liter   float64
		cost    int64
		profit  int64
	}{
		{6000, 0.5, 5000, 1000},
		{10000, 0.7, 7000, 3000},
		{15000, 1.2, 12000, 3000},
	}

	for _, tc := range cases {
		got := Calculate(tc.nominal)
		if !got.IsSpecialRule {
			t.Errorf("nominal %d: expected special rule", tc.nominal)
		}
		if got.Liter != tc.liter {
			t.Errorf("nominal %d: liter = %v, want %v", tc.nominal, got.Liter, tc.liter)
		}
		if got.Cost != tc.cost {
			t.Errorf("nominal %d: cost = %d, want %d", tc.nominal, got.Cost, tc.cost)
		}
		if got.Profit != tc.profit {
			t.Errorf("nominal %d: profit = %d, want %d", tc.nominal, got.Profit, tc.profit)
		}
	}
}

func TestCalculateFormula(t *testing.T) {
	cases := []struct {
		nominal int64
		liter   float64
		cost    int64
		profit  int64
	}{
		{12000, 1.0, 10000, 2000},
		{24000, 2.0, 20000, 4000},
		{13000, 1.08, 10800, 2200},
		{100, 0.01, 100, 0},
	}

	for _, tc := range cases {
		got := Calculate(tc.nominal)
		if got.IsSpecialRule {
			t.Errorf("nominal %d: unexpected special rule", tc.nominal)
		}
		if got.Liter != tc.liter {
			t.Errorf("nominal %d: liter = %v, want %v", tc.nominal, got.Liter, tc.liter)
		}
		if got.Cost != tc.cost {
			t.Errorf("nominal %d: cost = %d, want %d", tc.nominal, got.Cost, tc.cost)
		}
		if got.Profit != tc.profit {
			t.Errorf("nominal %d: profit = %d, want %d", tc.nominal, got.Profit, tc.profit)
		}
	}
}

func TestProfitIsNominalMinusCost(t *testing.T) {
	for nominal := int64(100); nominal <= 50000; nominal += 700 {
		got := Calculate(nominal)
		if got.Profit != nominal-got.Cost {
			t.Fatalf("nominal %d: profit %d != nominal - cost %d", nominal, got.Profit, nominal-got.Cost)
		}
	}
}

func TestCalculateWithPricesOverrides(t *testing.T) {
	got := CalculateWithPrices(11000, 11000, 9000, nil)
	if got.Liter != 1.0 {
		t.Fatalf("liter = %v, want 1.0", got.Liter)
	}
	if got.Cost != 9000 {
		t.Fatalf("cost = %d, want 9000", got.Cost)
	}
	if got.Profit != 2000 {
		t.Fatalf("profit = %d, want 2000", got.Profit)
	}
}

func TestCalculateWithPricesDefaultsBadPrices(t *testing.T) {
	got := CalculateWithPrices(12000, 0, -5, nil)
	if got.Liter != 1.0 || got.Cost != 10000 {
		t.Fatalf("zero prices should fall back to defaults, got liter=%v cost=%d", got.Liter, got.Cost)
	}
}

func TestRulesFromPricingSkipsInactive(t *testing.T) {
	rules := RulesFromPricing([]domain.PricingRule{
		{Nominal: 6000, Liter: 0.5, IsActive: true},
		{Nominal: 10000, Liter: 0.7, IsActive: false},
		{Nominal: 0, Liter: 1.0, IsActive: true},
	})
	if len(rules) != 1 {
		t.Fatalf("expected 1 active rule, got %d", len(rules))
	}
	if rules[6000] != 0.5 {
		t.Fatalf("rules[6000] = %v, want 0.5", rules[6000])
	}
}

func TestLiterRounding(t *testing.T) {
	got := Calculate(5000)
	want := math.Round(5000.0/12000.0*100) / 100
	if got.Liter != want {
		t.Fatalf("liter = %v, want %v", got.Liter, want)
	}
}
