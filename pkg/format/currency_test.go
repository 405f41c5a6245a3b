package format

import "testing"

func TestNumericCurrency(t *testing.T) {
	tests := []struct {
		name     string
		amount   float64
		expected string
	}{
		{"Small", 12.5, "12.50"},
		{"Thousands", 1234.567, "1,234.57"},
		{"Millions", 1234567.891, "1,234,567.89"},
		{"Negative", -1234.5, "-1,234.50"},
		{"Negative rounding to zero", -0.001, "0.00"},
		{"Zero", 0, "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NumericCurrency(tt.amount); got != tt.expected {
				t.Errorf("NumericCurrency(%v) = %q, expected %q", tt.amount, got, tt.expected)
			}
		})
	}
}

func TestUPX(t *testing.T) {
	if got := UPX(2500); got != "2,500.00 UPX" {
		t.Errorf("UPX(2500) = %q, expected %q", got, "2,500.00 UPX")
	}
}

func TestMint(t *testing.T) {
	tests := []struct {
		name     string
		price    float64
		expected string
	}{
		{"Whole thousands", 12000, "12 k"},
		{"Fraction", 12500, "12.5 k"},
		{"Small", 250, "0.25 k"},
		{"Zero", 0, "0 k"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Mint(tt.price); got != tt.expected {
				t.Errorf("Mint(%v) = %q, expected %q", tt.price, got, tt.expected)
			}
		})
	}
}
