// README: Common money value object used across modules.
package types

import (
	"fmt"
	"math"
)

type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// MoneyFromFloat rounds a provider price to whole currency units.
func MoneyFromFloat(v float64, currency string) Money {
	return Money{Amount: int64(math.Round(v)), Currency: currency}
}

func (m Money) IsZero() bool {
	return m.Amount == 0
}

func (m Money) String() string {
	if m.Currency == "KRW" {
		return fmt.Sprintf("%s원", groupThousands(m.Amount))
	}
	return fmt.Sprintf("%s %s", groupThousands(m.Amount), m.Currency)
}

func groupThousands(n int64) string {
	s := fmt.Sprintf("%d", n)
	neg := false
	if n < 0 {
		neg = true
		s = s[1:]
	}
	var out []byte
	for i := range len(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, s[i])
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}
