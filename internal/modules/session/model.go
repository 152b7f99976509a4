// README: Per-conversation trip context, its keys and its slot invariants.
package session

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"cloud.google.com/go/civil"
)

const (
	// DefaultID is used when a caller omits user_id or chat_id.
	DefaultID = "default"
	maxIDLen  = 64
)

var (
	ErrInvalidKey = errors.New("invalid conversation key")
	// ErrUnavailable wraps infrastructure failures of a store backend.
	ErrUnavailable = errors.New("session store unavailable")
)

// Key identifies one conversation.
type Key struct {
	UserID string
	ChatID string
}

// NewKey applies defaults and rejects ids that could collide once joined.
func NewKey(userID, chatID string) (Key, error) {
	userID = strings.TrimSpace(userID)
	chatID = strings.TrimSpace(chatID)
	if userID == "" {
		userID = DefaultID
	}
	if chatID == "" {
		chatID = DefaultID
	}
	if !validID(userID) {
		return Key{}, fmt.Errorf("%w: user_id", ErrInvalidKey)
	}
	if !validID(chatID) {
		return Key{}, fmt.Errorf("%w: chat_id", ErrInvalidKey)
	}
	return Key{UserID: userID, ChatID: chatID}, nil
}

func (k Key) String() string {
	return k.UserID + ":" + k.ChatID
}

func validID(v string) bool {
	if len(v) > maxIDLen {
		return false
	}
	for _, c := range v {
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '-' || c == '_' {
			continue
		}
		return false
	}
	return true
}

type Slot string

const (
	SlotDestination Slot = "destination"
	SlotDuration    Slot = "duration"
	SlotAdults      Slot = "adults_number"
)

// RequiredSlots is the order missing slots are reported in.
var RequiredSlots = []Slot{SlotDestination, SlotDuration, SlotAdults}

// Context is the structured state of one conversation.
type Context struct {
	Destination    *string     `json:"destination"`
	DepartureDate  *civil.Date `json:"departure_date"`
	ReturnDate     *civil.Date `json:"return_date"`
	Duration       *int        `json:"duration"`
	AdultsNumber   *int        `json:"adults_number"`
	ChildrenNumber int         `json:"children_number"`
	NoRooms        int         `json:"no_rooms"`
	HotelAsked     bool        `json:"hotel_asked"`
	FoodAsked      bool        `json:"food_asked"`
	HotelFilter    []string    `json:"hotel_filter"`
	FoodFilter     *string     `json:"food_filter"`
}

func New() Context {
	return Context{NoRooms: 1}
}

// Clone returns a deep copy; the copy shares no pointers with c.
func (c Context) Clone() Context {
	out := c
	out.Destination = clonePtr(c.Destination)
	out.DepartureDate = clonePtr(c.DepartureDate)
	out.ReturnDate = clonePtr(c.ReturnDate)
	out.Duration = clonePtr(c.Duration)
	out.AdultsNumber = clonePtr(c.AdultsNumber)
	out.FoodFilter = clonePtr(c.FoodFilter)
	if c.HotelFilter != nil {
		out.HotelFilter = slices.Clone(c.HotelFilter)
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// SetDestination populates the destination once; later values are ignored.
func (c *Context) SetDestination(v string) bool {
	v = strings.TrimSpace(v)
	if c.Destination != nil || v == "" {
		return false
	}
	c.Destination = &v
	return true
}

// SetStay sets both dates and the duration between them. It refuses to
// overwrite existing dates and requires checkout after checkin.
func (c *Context) SetStay(checkin, checkout civil.Date) bool {
	if c.DepartureDate != nil || c.ReturnDate != nil {
		return false
	}
	if !checkin.IsValid() || !checkout.IsValid() || !checkout.After(checkin) {
		return false
	}
	days := checkout.DaysSince(checkin)
	c.DepartureDate = &checkin
	c.ReturnDate = &checkout
	c.Duration = &days
	return true
}

func (c *Context) SetAdults(n int) bool {
	if c.AdultsNumber != nil || n < 1 {
		return false
	}
	c.AdultsNumber = &n
	return true
}

func (c *Context) SetChildren(n int) bool {
	if c.ChildrenNumber != 0 || n < 1 {
		return false
	}
	c.ChildrenNumber = n
	return true
}

func (c *Context) SetRooms(n int) bool {
	if c.NoRooms > 1 || n < 1 {
		return false
	}
	c.NoRooms = n
	return true
}

func (c *Context) SetFoodFilter(v string) bool {
	v = strings.TrimSpace(v)
	if c.FoodFilter != nil || v == "" {
		return false
	}
	c.FoodFilter = &v
	return true
}

// AddHotelFilters unions keywords into HotelFilter and reports how many were new.
func (c *Context) AddHotelFilters(keywords ...string) int {
	added := 0
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" || slices.Contains(c.HotelFilter, kw) {
			continue
		}
		c.HotelFilter = append(c.HotelFilter, kw)
		added++
	}
	return added
}

// Missing lists the unset required slots in RequiredSlots order.
func (c Context) Missing() []Slot {
	var out []Slot
	for _, s := range RequiredSlots {
		switch s {
		case SlotDestination:
			if c.Destination == nil {
				out = append(out, s)
			}
		case SlotDuration:
			if c.Duration == nil {
				out = append(out, s)
			}
		case SlotAdults:
			if c.AdultsNumber == nil || *c.AdultsNumber < 1 {
				out = append(out, s)
			}
		}
	}
	return out
}

func (c Context) Ready() bool {
	return len(c.Missing()) == 0
}

// ClearIntents drops the per-turn request flags.
func (c *Context) ClearIntents() {
	c.HotelAsked = false
	c.FoodAsked = false
}
