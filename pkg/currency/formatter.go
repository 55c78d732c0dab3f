package currency

import (
	"strconv"
	"strings"
)

// Formatter renders a price held in the currency's smallest unit.
type Formatter interface {
	Format(amount uint64) string
}

// UnitFormatter scales an integer amount down by 10^Decimals and appends
// the unit symbol, e.g. 1500000000000000000 wei -> "1.5 ETH".
type UnitFormatter struct {
	Symbol    string
	Decimals  int
	Separator string
}

func NewEtherFormatter() UnitFormatter {
	return UnitFormatter{
		Symbol:   "ETH",
		Decimals: 18,
	}
}

func (f UnitFormatter) Format(amount uint64) string {
	digits := strconv.FormatUint(amount, 10)

	intPart, fracPart := digits, ""
	if f.Decimals > 0 {
		if len(digits) <= f.Decimals {
			digits = strings.Repeat("0", f.Decimals-len(digits)+1) + digits
		}
		split := len(digits) - f.Decimals
		intPart = digits[:split]
		fracPart = strings.TrimRight(digits[split:], "0")
	}

	if f.Separator != "" {
		intPart = addThousandsSeparator(intPart, f.Separator)
	}

	result := intPart
	if fracPart != "" {
		result += "." + fracPart
	}
	if f.Symbol != "" {
		result += " " + f.Symbol
	}
	return result
}

type FormatFunc func(amount uint64) string

func (fn FormatFunc) Format(amount uint64) string {
	return fn(amount)
}

func addThousandsSeparator(s string, sep string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	var b strings.Builder
	b.Grow(n + (n-1)/3*len(sep))

	lead := n % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(s[:lead])
	for i := lead; i < n; i += 3 {
		b.WriteString(sep)
		b.WriteString(s[i : i+3])
	}

	return b.String()
}
