// README: Booking.com (RapidAPI) HTTP client: destination lookup and hotel search.
package lodging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultHost    = "booking-com.p.rapidapi.com"
	DefaultBaseURL = "https://booking-com.p.rapidapi.com"
)

var (
	ErrNoDestination = errors.New("lodging: destination not found")
	ErrStatus        = errors.New("lodging: unexpected status")
)

// Destination is the provider's id for a searchable place.
type Destination struct {
	ID   string `json:"dest_id"`
	Type string `json:"dest_type"`
	Name string `json:"name"`
}

type hotelRecord struct {
	HotelName     string   `json:"hotel_name"`
	MinTotalPrice float64  `json:"min_total_price"`
	ReviewScore   *float64 `json:"review_score"`
	CurrencyCode  string   `json:"currency_code"`
}

type searchResponse struct {
	Result []hotelRecord `json:"result"`
}

type Client struct {
	apiKey  string
	host    string
	baseURL string
	http    *http.Client
}

func NewClient(apiKey, host, baseURL string) *Client {
	if host == "" {
		host = DefaultHost
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		host:    host,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// LookupDestination resolves a place name to the first matching provider destination.
func (c *Client) LookupDestination(ctx context.Context, name, locale string) (Destination, error) {
	q := url.Values{}
	q.Set("name", name)
	q.Set("locale", locale)

	var out []Destination
	if err := c.get(ctx, "/v1/hotels/locations", q, &out); err != nil {
		return Destination{}, err
	}
	for _, d := range out {
		if d.ID != "" {
			if d.Type == "" {
				d.Type = "city"
			}
			return d, nil
		}
	}
	return Destination{}, ErrNoDestination
}

func (c *Client) Search(ctx context.Context, params url.Values) ([]hotelRecord, error) {
	var out searchResponse
	if err := c.get(ctx, "/v1/hotels/search", params, &out); err != nil {
		return nil, err
	}
	return out.Result, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("lodging: build request: %w", err)
	}
	req.Header.Set("X-RapidAPI-Key", c.apiKey)
	req.Header.Set("X-RapidAPI-Host", c.host)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("lodging: do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("lodging: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w %d: %s", ErrStatus, resp.StatusCode, truncate(string(body), 200))
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("lodging: unmarshal response: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
