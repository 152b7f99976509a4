// README: Korean numeral parsing for party sizes and stay lengths.
package slots

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnparseableNumber is returned for tokens outside the recognised numeral forms.
// Callers treat it as "unset", never as zero.
var ErrUnparseableNumber = errors.New("unparseable number")

const tensMarker = "십"

// sinoDigits are the Sino-Korean digit words used in dates and stay lengths.
var sinoDigits = map[string]int{
	"일": 1, "이": 2, "삼": 3, "사": 4, "오": 5,
	"육": 6, "칠": 7, "팔": 8, "구": 9,
}

// nativeCounts are the native counting words used with 명/개 ("성인 두 명").
var nativeCounts = map[string]int{
	"한": 1, "하나": 1,
	"두": 2, "둘": 2,
	"세": 3, "셋": 3,
	"네": 4, "넷": 4,
	"다섯": 5, "여섯": 6, "일곱": 7, "여덟": 8, "아홉": 9, "열": 10,
}

// ParseNumber converts a digit string or a Korean numeral word into an integer.
// Compounds around 십 cover [1,99]: "십" is 10, "십오" is 15, "이십" is 20.
func ParseNumber(token string) (int, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, ErrUnparseableNumber
	}
	if isDigits(token) {
		n, err := strconv.Atoi(token)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrUnparseableNumber, token)
		}
		return n, nil
	}

	if tens, ones, ok := strings.Cut(token, tensMarker); ok {
		if strings.Contains(ones, tensMarker) {
			return 0, fmt.Errorf("%w: %q", ErrUnparseableNumber, token)
		}
		n := 10
		if tens != "" {
			d, ok := sinoDigits[tens]
			if !ok {
				return 0, fmt.Errorf("%w: %q", ErrUnparseableNumber, token)
			}
			n = d * 10
		}
		if ones != "" {
			d, ok := sinoDigits[ones]
			if !ok {
				return 0, fmt.Errorf("%w: %q", ErrUnparseableNumber, token)
			}
			n += d
		}
		return n, nil
	}

	if d, ok := sinoDigits[token]; ok {
		return d, nil
	}
	if d, ok := nativeCounts[token]; ok {
		return d, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnparseableNumber, token)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
