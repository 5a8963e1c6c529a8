package helpers

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	half    = decimal.New(5, -1)
)

// Percent returns part/total*100 rounded half-up to one decimal. A zero total
// yields zero.
func Percent(part, total int64) decimal.Decimal {
	if total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(part).Mul(hundred).DivRound(decimal.NewFromInt(total), 1)
}

// PercentChange returns (current-previous)/previous*100 rounded to the given
// number of places. ok is false when previous is zero.
func PercentChange(current, previous int64, places int32) (decimal.Decimal, bool) {
	if previous == 0 {
		return decimal.Zero, false
	}
	diff := decimal.NewFromInt(current - previous)
	exact := diff.Mul(hundred).DivRound(decimal.NewFromInt(previous), places+16)
	return RoundHalfCeil(exact, places), true
}

// RoundHalfCeil rounds d to places with halves going toward positive infinity,
// so -12.5 becomes -12 and 12.5 becomes 13.
func RoundHalfCeil(d decimal.Decimal, places int32) decimal.Decimal {
	return d.Shift(places).Add(half).Floor().Shift(-places)
}

// FormatNumber formats n with Italian thousands grouping (12.345)
func FormatNumber(n int64) string {
	return NumberFormatWithSeparator(decimal.NewFromInt(n), 0, ",", ".")
}

// FormatPercent formats a percentage with one decimal and an Italian decimal
// comma (12,3%)
func FormatPercent(d decimal.Decimal) string {
	return NumberFormatWithSeparator(d, 1, ",", ".") + "%"
}

// NumberFormatWithSeparator formats a number with thousand separators and decimals
func NumberFormatWithSeparator(num decimal.Decimal, decimals int32, decPoint, thousandsSep string) string {
	formatted := num.StringFixed(decimals)

	parts := strings.SplitN(formatted, ".", 2)
	intPart := parts[0]
	decPart := ""
	if len(parts) > 1 {
		decPart = parts[1]
	}

	var result strings.Builder
	if strings.HasPrefix(intPart, "-") {
		intPart = intPart[1:]
		result.WriteString("-")
	}

	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			result.WriteString(thousandsSep)
		}
		result.WriteRune(digit)
	}

	if decPart != "" {
		result.WriteString(decPoint)
		result.WriteString(decPart)
	}
	return result.String()
}

// ParseInt parses a string to int64 leniently, returning 0 for anything that
// is not a base-10 integer
func ParseInt(s string) int64 {
	val, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return val
}
