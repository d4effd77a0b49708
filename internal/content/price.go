package content

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidPrice indicates a price string that does not parse to a
// non-negative decimal amount.
var ErrInvalidPrice = errors.New("content: invalid price")

// ParsePrice converts an operator-entered decimal price string into integer
// minor currency units, rounding half away from zero ("12.5" -> 1250).
func ParsePrice(value string) (int64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidPrice)
	}
	amount, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPrice, value)
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPrice, value)
	}
	return int64(math.Round(amount * 100)), nil
}

// FormatPrice renders minor currency units as a decimal display string
// (1250 -> "12.50").
func FormatPrice(cents int64) string {
	if cents < 0 {
		return "-" + FormatPrice(-cents)
	}
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}
