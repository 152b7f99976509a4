package slots

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
)

type fakeNatural struct {
	date  civil.Date
	span  string
	ok    bool
	calls int
}

func (f *fakeNatural) FirstDate(text, locale string, now time.Time) (civil.Date, string, bool) {
	f.calls++
	return f.date, f.span, f.ok
}

func fixedNow(y int, m time.Month, d int) func() time.Time {
	return func() time.Time { return time.Date(y, m, d, 12, 0, 0, 0, time.UTC) }
}

func newTestDates(now func() time.Time, natural NaturalDateParser) *DateExtractor {
	return NewDateExtractor(DateConfig{Location: time.UTC, Locale: "ko", Natural: natural, Now: now})
}

func TestExtractFullDateWithNightsDays(t *testing.T) {
	e := newTestDates(fixedNow(2026, time.January, 10), nil)
	stay, ok := e.Extract("2026년 3월 5일부터 2박 3일")
	if !ok {
		t.Fatalf("expected stay")
	}
	if stay.Checkin != (civil.Date{Year: 2026, Month: time.March, Day: 5}) {
		t.Fatalf("checkin = %s", stay.Checkin)
	}
	if stay.Checkout != (civil.Date{Year: 2026, Month: time.March, Day: 8}) {
		t.Fatalf("checkout = %s", stay.Checkout)
	}
	if stay.Days != 3 {
		t.Fatalf("days = %d, want 3", stay.Days)
	}
}

func TestExtractMonthDayRollsForward(t *testing.T) {
	e := newTestDates(fixedNow(2026, time.October, 16), nil)
	stay, ok := e.Extract("3월 5일 2일")
	if !ok {
		t.Fatalf("expected stay")
	}
	if stay.Checkin != (civil.Date{Year: 2027, Month: time.March, Day: 5}) {
		t.Fatalf("checkin = %s, want 2027-03-05", stay.Checkin)
	}
	if stay.Checkout != (civil.Date{Year: 2027, Month: time.March, Day: 7}) {
		t.Fatalf("checkout = %s, want 2027-03-07", stay.Checkout)
	}
}

func TestExtractMonthDayKeepsCurrentYear(t *testing.T) {
	e := newTestDates(fixedNow(2026, time.February, 1), nil)
	stay, ok := e.Extract("3월 5일부터 삼일")
	if !ok {
		t.Fatalf("expected stay")
	}
	if stay.Checkin.Year != 2026 {
		t.Fatalf("year = %d, want 2026", stay.Checkin.Year)
	}
	if stay.Days != 3 {
		t.Fatalf("days = %d, want 3", stay.Days)
	}
}

func TestExtractWordNumeralNightsDays(t *testing.T) {
	e := newTestDates(fixedNow(2026, time.January, 1), nil)
	stay, ok := e.Extract("5월 1일에 이박삼일 여행")
	if !ok {
		t.Fatalf("expected stay")
	}
	if stay.Days != 3 || stay.Checkout != (civil.Date{Year: 2026, Month: time.May, Day: 4}) {
		t.Fatalf("stay = %+v", stay)
	}
}

func TestExtractRequiresBothParts(t *testing.T) {
	e := newTestDates(fixedNow(2026, time.January, 1), &fakeNatural{})
	for _, msg := range []string{
		"3월 5일에 가요",
		"2박 3일 일정이에요",
		"부산 가고 싶어",
	} {
		if stay, ok := e.Extract(msg); ok {
			t.Fatalf("Extract(%q) = %+v, want none", msg, stay)
		}
	}
}

func TestExtractInvalidExplicitDateDoesNotFallThrough(t *testing.T) {
	natural := &fakeNatural{date: civil.Date{Year: 2026, Month: time.March, Day: 1}, span: "내일", ok: true}
	e := newTestDates(fixedNow(2026, time.January, 1), natural)
	if _, ok := e.Extract("2월 30일부터 3일"); ok {
		t.Fatalf("expected no stay for 2월 30일")
	}
	if natural.calls != 0 {
		t.Fatalf("natural parser consulted %d times after an explicit match", natural.calls)
	}
}

func TestExtractDateRange(t *testing.T) {
	cases := []struct {
		now      func() time.Time
		msg      string
		checkin  civil.Date
		checkout civil.Date
		days     int
	}{
		{
			fixedNow(2026, time.January, 10), "3월 5일부터 3월 8일까지 부산",
			civil.Date{Year: 2026, Month: time.March, Day: 5}, civil.Date{Year: 2026, Month: time.March, Day: 8}, 3,
		},
		{
			fixedNow(2026, time.October, 16), "12월 30일부터 1월 2일까지",
			civil.Date{Year: 2026, Month: time.December, Day: 30}, civil.Date{Year: 2027, Month: time.January, Day: 2}, 3,
		},
		{
			fixedNow(2026, time.January, 10), "2026년 3월 5일 ~ 2026년 3월 7일, 2박 3일",
			civil.Date{Year: 2026, Month: time.March, Day: 5}, civil.Date{Year: 2026, Month: time.March, Day: 7}, 2,
		},
	}
	for _, tc := range cases {
		stay, ok := newTestDates(tc.now, nil).Extract(tc.msg)
		if !ok {
			t.Fatalf("Extract(%q): expected stay", tc.msg)
		}
		if stay.Checkin != tc.checkin || stay.Checkout != tc.checkout || stay.Days != tc.days {
			t.Fatalf("Extract(%q) = %+v, want %s..%s (%d)", tc.msg, stay, tc.checkin, tc.checkout, tc.days)
		}
	}
}

func TestExtractDateRangeRejectsBadCheckout(t *testing.T) {
	e := newTestDates(fixedNow(2026, time.January, 10), nil)
	for _, msg := range []string{
		"2026년 3월 8일부터 2026년 3월 5일까지",
		"3월 5일부터 2월 30일까지",
	} {
		if stay, ok := e.Extract(msg); ok {
			t.Fatalf("Extract(%q) = %+v, want none", msg, stay)
		}
	}
}

func TestExtractIgnoresDaysOfEveryDateSpan(t *testing.T) {
	// The dated literal is the departure; the month-day before it must not
	// leave "5일" behind as a stay length.
	e := newTestDates(fixedNow(2026, time.January, 10), nil)
	if stay, ok := e.Extract("3월 5일 말고 2026년 4월 1일"); ok {
		t.Fatalf("stay = %+v, want none", stay)
	}
}

func TestExtractNaturalTier(t *testing.T) {
	tomorrow := civil.Date{Year: 2026, Month: time.January, Day: 2}
	natural := &fakeNatural{date: tomorrow, span: "내일", ok: true}
	e := newTestDates(fixedNow(2026, time.January, 1), natural)
	stay, ok := e.Extract("내일부터 2박 3일")
	if !ok {
		t.Fatalf("expected stay")
	}
	if stay.Checkin != tomorrow || stay.Checkout != tomorrow.AddDays(3) {
		t.Fatalf("stay = %+v", stay)
	}
	if natural.calls != 1 {
		t.Fatalf("natural calls = %d, want 1", natural.calls)
	}
}

func TestStayLength(t *testing.T) {
	cases := []struct {
		text string
		want int
		ok   bool
	}{
		{"2박 3일", 3, true},
		{"3박4일", 4, true},
		{"사박 오일", 5, true},
		{"5일 동안", 5, true},
		{"십일 일정", 11, true},
		{"그냥 놀러", 0, false},
	}
	for _, tc := range cases {
		got, ok := StayLength(tc.text)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("StayLength(%q) = %d,%v want %d,%v", tc.text, got, ok, tc.want, tc.ok)
		}
	}
}
