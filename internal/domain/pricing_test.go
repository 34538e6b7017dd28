package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func price(s string) Product {
	return Product{ID: s, Price: decimal.RequireFromString(s)}
}

func TestCalculateTotal(t *testing.T) {
	tests := []struct {
		name     string
		products []Product
		want     string
	}{
		{name: "two products", products: []Product{price("10.00"), price("5.00")}, want: "18.00"},
		{name: "single product", products: []Product{price("19.99")}, want: "23.99"},
		{name: "no products", products: nil, want: "0.00"},
		{name: "half rounds to even down", products: []Product{price("0.0375")}, want: "0.04"},
		{name: "half rounds to even up", products: []Product{price("0.0125")}, want: "0.02"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateTotal(tt.products)
			if got.StringFixed(CurrencyPrecision) != tt.want {
				t.Fatalf("CalculateTotal() = %s, want %s", got.StringFixed(CurrencyPrecision), tt.want)
			}
		})
	}
}

func TestCalculateTotal_IsDeterministic(t *testing.T) {
	products := []Product{price("3.33"), price("3.33"), price("3.34")}
	first := CalculateTotal(products)
	for i := 0; i < 10; i++ {
		if got := CalculateTotal(products); !got.Equal(first) {
			t.Fatalf("iteration %d: total %s differs from %s", i, got, first)
		}
	}
	if first.StringFixed(CurrencyPrecision) != "12.00" {
		t.Fatalf("unexpected total %s", first)
	}
}

func TestValidPrice(t *testing.T) {
	for raw, want := range map[string]bool{
		"0.01":           true,
		"12.500":         true,
		"9999999999.99":  true,
		"0":              false,
		"-1.00":          false,
		"0.004":          false,
		"0.125":          false,
		"10000000000.00": false,
	} {
		if got := ValidPrice(decimal.RequireFromString(raw)); got != want {
			t.Errorf("ValidPrice(%s) = %v, want %v", raw, got, want)
		}
	}
}
