// README: Departure date and stay length extraction ("2026년 3월 5일부터 2박 3일").
package slots

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// NaturalDateParser resolves free-form date phrases ("내일", "다음 주 금요일").
type NaturalDateParser interface {
	// FirstDate returns the first date found in text and the span it was read from.
	FirstDate(text, locale string, now time.Time) (civil.Date, string, bool)
}

// Stay is a resolved check-in/check-out pair.
type Stay struct {
	Checkin  civil.Date
	Checkout civil.Date
	Days     int
}

const numeralPattern = `([0-9]+|[일이삼사오육칠팔구십]+)`

var (
	fullDateRe    = regexp.MustCompile(`(\d{4})년\s*(\d{1,2})월\s*(\d{1,2})일`)
	monthDayRe    = regexp.MustCompile(`(\d{1,2})월\s*(\d{1,2})일`)
	nightsDaysRe  = regexp.MustCompile(numeralPattern + `\s*박\s*` + numeralPattern + `\s*일`)
	daysOnlyRe    = regexp.MustCompile(numeralPattern + `\s*일`)
	defaultLocale = "ko"
)

type DateConfig struct {
	Location *time.Location
	Locale   string
	Natural  NaturalDateParser
	Now      func() time.Time
}

type DateExtractor struct {
	loc     *time.Location
	locale  string
	natural NaturalDateParser
	now     func() time.Time
}

func NewDateExtractor(cfg DateConfig) *DateExtractor {
	e := &DateExtractor{
		loc:     cfg.Location,
		locale:  cfg.Locale,
		natural: cfg.Natural,
		now:     cfg.Now,
	}
	if e.loc == nil {
		e.loc = time.Local
	}
	if e.locale == "" {
		e.locale = defaultLocale
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// Extract returns the stay described by message. A date without a stay length
// or a second date, or a stay length without a date, yields false.
func (e *DateExtractor) Extract(message string) (Stay, bool) {
	now := e.now().In(e.loc)

	if dates := explicitDates(message); len(dates) > 0 {
		return explicitStay(message, dates, now)
	}

	if e.natural == nil {
		return Stay{}, false
	}
	departure, span, ok := e.natural.FirstDate(message, e.locale, now)
	if !ok {
		return Stay{}, false
	}
	rest := message
	if span != "" {
		rest = strings.Replace(message, span, " ", 1)
	}
	return lengthStay(departure, rest)
}

// explicitDate is a literal "[YYYY년] M월 D일" match. Year is 0 when omitted.
type explicitDate struct {
	start, end int
	year       int
	month      time.Month
	day        int
}

func (d explicitDate) date() civil.Date {
	return civil.Date{Year: d.year, Month: d.month, Day: d.day}
}

// explicitDates lists literal dates in message order.
func explicitDates(message string) []explicitDate {
	var out []explicitDate
	var full [][]int
	for _, m := range fullDateRe.FindAllStringSubmatchIndex(message, -1) {
		full = append(full, m[:2])
		out = append(out, explicitDate{
			start: m[0], end: m[1],
			year:  atoi(message[m[2]:m[3]]),
			month: time.Month(atoi(message[m[4]:m[5]])),
			day:   atoi(message[m[6]:m[7]]),
		})
	}
	for _, m := range monthDayRe.FindAllStringSubmatchIndex(message, -1) {
		if within(m[:2], full) {
			continue
		}
		out = append(out, explicitDate{
			start: m[0], end: m[1],
			month: time.Month(atoi(message[m[2]:m[3]])),
			day:   atoi(message[m[4]:m[5]]),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].start < out[j].start })
	return out
}

// explicitStay picks the departure (a dated literal wins over a month-day) and
// reads the checkout from the next literal, else from the stay length.
// A literal that is not a calendar date stops the search.
func explicitStay(message string, dates []explicitDate, now time.Time) (Stay, bool) {
	first := 0
	for i, d := range dates {
		if d.year != 0 {
			first = i
			break
		}
	}

	dep := dates[first]
	if dep.year == 0 {
		dep.year = now.Year()
		if dep.month < now.Month() {
			dep.year++
		}
	}
	departure := dep.date()
	if !departure.IsValid() {
		return Stay{}, false
	}

	// "3월 5일부터 3월 8일까지": the later literal is the checkout.
	if first+1 < len(dates) {
		ret := dates[first+1]
		if ret.year == 0 {
			ret.year = departure.Year
			if ret.date().Before(departure) {
				ret.year++
			}
		}
		checkout := ret.date()
		if !checkout.IsValid() || !departure.Before(checkout) {
			return Stay{}, false
		}
		return Stay{Checkin: departure, Checkout: checkout, Days: checkout.DaysSince(departure)}, true
	}

	// Every literal span is removed so "3월 5일" is never read as a 5-day stay.
	var rest strings.Builder
	prev := 0
	for _, d := range dates {
		rest.WriteString(message[prev:d.start])
		rest.WriteByte(' ')
		prev = d.end
	}
	rest.WriteString(message[prev:])
	return lengthStay(departure, rest.String())
}

func lengthStay(departure civil.Date, rest string) (Stay, bool) {
	days, ok := StayLength(rest)
	if !ok || days < 1 {
		return Stay{}, false
	}
	return Stay{Checkin: departure, Checkout: departure.AddDays(days), Days: days}, true
}

// StayLength reads "N박 M일" (M days) or "M일".
func StayLength(text string) (int, bool) {
	if m := nightsDaysRe.FindStringSubmatch(text); m != nil {
		n, err := ParseNumber(m[2])
		if err != nil {
			return 0, false
		}
		return n, true
	}
	if m := daysOnlyRe.FindStringSubmatch(text); m != nil {
		n, err := ParseNumber(m[1])
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
