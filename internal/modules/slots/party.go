// README: Party size and room count patterns.
package slots

import (
	"regexp"
	"strings"
	"unicode"
)

const (
	// A word numeral must be separated from the label so a particle ("성인이",
	// "아이가 이번") is never read as a count. Digits may be attached.
	wordNumeral = `(하나|한|둘|두|셋|세|넷|네|다섯|여섯|일곱|여덟|아홉|열|[일이삼사오육칠팔구십]+)`
	countTail   = `(?:\s*([0-9]+)|\s+` + wordNumeral + `)`
	particles   = `(?:들)?(?:이|가|은|는|도)?`
)

var (
	adultsRe   = regexp.MustCompile(`(?:성인|어른|대인)` + particles + countTail + `\s*(?:명|분)`)
	childrenRe = regexp.MustCompile(`(?:어린이|아이|아동|소아|유아|아기)` + particles + countTail + `\s*(?:명|분)`)
	roomsRe    = regexp.MustCompile(`(?:방|객실)` + particles + countTail + `\s*(?:개|실)`)
	bareIntRe  = regexp.MustCompile(`[0-9]+`)
)

// bareIntUnits follow integers that are not head counts (dates, stays, money, rooms, ages).
const bareIntUnits = "년월일박시분만천원개실층살세%"

func labeledCount(re *regexp.Regexp, message string) Result[int] {
	m := re.FindStringSubmatch(message)
	if m == nil {
		return NotPresent[int]()
	}
	token := m[1]
	if token == "" {
		token = m[2]
	}
	n, err := ParseNumber(token)
	if err != nil {
		return Failed[int](err)
	}
	return FoundValue(n)
}

// AdultsLabeled reads "성인 2명", "어른 두 명".
func AdultsLabeled(message string) Result[int] {
	return labeledCount(adultsRe, message)
}

// Children reads "아이 1명", "어린이 두 명".
func Children(message string) Result[int] {
	return labeledCount(childrenRe, message)
}

// Rooms reads "방 2개", "객실 두 실".
func Rooms(message string) Result[int] {
	return labeledCount(roomsRe, message)
}

// AdultsBare takes the first integer that is not part of a date, stay, money
// or child count expression. Values below 1 are rejected.
func AdultsBare(message string) Result[int] {
	var skip [][]int
	skip = append(skip, childrenRe.FindAllStringIndex(message, -1)...)
	skip = append(skip, roomsRe.FindAllStringIndex(message, -1)...)

	for _, loc := range bareIntRe.FindAllStringIndex(message, -1) {
		if within(loc, skip) || followedByUnit(message[loc[1]:]) {
			continue
		}
		n, err := ParseNumber(message[loc[0]:loc[1]])
		if err != nil {
			return Failed[int](err)
		}
		if n < 1 {
			return NotPresent[int]()
		}
		return FoundValue(n)
	}
	return NotPresent[int]()
}

func within(loc []int, spans [][]int) bool {
	for _, s := range spans {
		if loc[0] >= s[0] && loc[1] <= s[1] {
			return true
		}
	}
	return false
}

func followedByUnit(rest string) bool {
	rest = strings.TrimLeftFunc(rest, unicode.IsSpace)
	for _, r := range rest {
		return strings.ContainsRune(bareIntUnits, r)
	}
	return false
}
