// README: Natural-language date search ("내일", "다음 주 금요일") backed by go-dateparser.
package dateparse

import (
	"time"

	"cloud.google.com/go/civil"
	dps "github.com/markusmobius/go-dateparser"
)

// Parser finds the first date phrase in a message. Future dates are preferred
// since travel plans point forward.
type Parser struct{}

func New() *Parser {
	return &Parser{}
}

func (p *Parser) FirstDate(text, locale string, now time.Time) (civil.Date, string, bool) {
	cfg := &dps.Configuration{
		Languages:           []string{locale},
		CurrentTime:         now,
		PreferredDateSource: dps.Future,
	}
	_, results, err := dps.Search(cfg, text)
	if err != nil || len(results) == 0 {
		return civil.Date{}, "", false
	}
	first := results[0]
	if first.Date.Time.IsZero() {
		return civil.Date{}, "", false
	}
	return civil.DateOf(first.Date.Time.In(now.Location())), first.Text, true
}
