// Package format renders yields and prices for the reports.
package format

import (
	"fmt"
	"math"
	"strings"
)

// UPX returns an amount with thousands separators and the UPX suffix (e.g., "-1,234.56 UPX").
func UPX(amount float64) string {
	return NumericCurrency(amount) + " UPX"
}

// NumericCurrency returns a currency string without a currency symbol but with separators (e.g., "-1,234.56").
func NumericCurrency(amount float64) string {
	sign := ""
	if amount < 0 && math.Abs(amount) >= 0.005 {
		sign = "-"
	}
	formatted := formatPositiveCurrency(math.Abs(amount))
	return sign + formatted
}

// Mint renders a mint price in thousands, the way the game lists it (e.g., "12.5 k").
func Mint(price float64) string {
	return fmt.Sprintf("%s k", strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.3f", price/1000), "0"), "."))
}

func formatPositiveCurrency(value float64) string {
	formatted := fmt.Sprintf("%.2f", value)
	parts := strings.SplitN(formatted, ".", 2)
	intPart := parts[0]
	decPart := "00"
	if len(parts) == 2 {
		decPart = parts[1]
	}

	if len(intPart) > 3 {
		var builder strings.Builder
		for i, digit := range intPart {
			if i > 0 && (len(intPart)-i)%3 == 0 {
				builder.WriteByte(',')
			}
			builder.WriteRune(digit)
		}
		intPart = builder.String()
	}

	return intPart + "." + decPart
}
