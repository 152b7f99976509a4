package usage

import "errors"

// ErrInsufficientTokens is returned when a user has no model calls left for the current month.
var ErrInsufficientTokens = errors.New("insufficient tokens")

// DefaultMonthlyTokens is the number of model calls granted per user per month.
const DefaultMonthlyTokens = 200
