package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/wanderpaws/wanderpaws/internal/domain/trip"
)

const defaultBaseURL = "https://maps.googleapis.com/maps/api/place"

// SearchOptions bias and filter a text search.
type SearchOptions struct {
	Type         string
	Latitude     float64
	Longitude    float64
	RadiusMeters int
	MinPrice     *int
	MaxPrice     *int
	MaxResults   int
}

// Client queries the places text-search and details endpoints.
type Client struct {
	apiKey        string
	baseURL       string
	detailsFields string
	httpClient    *http.Client
}

var defaultDetailsFields = []string{
	"place_id", "name", "formatted_address", "geometry", "types", "rating",
	"user_ratings_total", "price_level", "website", "formatted_phone_number",
	"opening_hours", "photos",
}

// NewClient builds an API client. detailsFields controls which fields the
// details endpoint returns; nil selects the default set.
func NewClient(apiKey, baseURL string, detailsFields []string, timeout time.Duration) *Client {
	base := strings.TrimSpace(baseURL)
	if base == "" {
		base = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if len(detailsFields) == 0 {
		detailsFields = defaultDetailsFields
	}
	return &Client{
		apiKey:        strings.TrimSpace(apiKey),
		baseURL:       strings.TrimRight(base, "/"),
		detailsFields: strings.Join(detailsFields, ","),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// TextSearch runs a free-text place search. Zero results yield an empty slice
// and a nil error; transport and API status failures are returned so callers
// can decide whether to degrade.
func (c *Client) TextSearch(ctx context.Context, query string, opts SearchOptions) ([]trip.Place, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("key", c.apiKey)
	if opts.Type != "" {
		params.Set("type", opts.Type)
	}
	if opts.RadiusMeters > 0 && (opts.Latitude != 0 || opts.Longitude != 0) {
		params.Set("location", fmt.Sprintf("%f,%f", opts.Latitude, opts.Longitude))
		params.Set("radius", strconv.Itoa(opts.RadiusMeters))
	}
	if opts.MinPrice != nil {
		params.Set("minprice", strconv.Itoa(*opts.MinPrice))
	}
	if opts.MaxPrice != nil {
		params.Set("maxprice", strconv.Itoa(*opts.MaxPrice))
	}

	body, err := c.get(ctx, "/textsearch/json?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var raw searchResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	switch raw.Status {
	case "OK", "ZERO_RESULTS":
	default:
		return nil, fmt.Errorf("places api status %s: %s", raw.Status, raw.ErrorMessage)
	}

	limit := opts.MaxResults
	if limit <= 0 || limit > len(raw.Results) {
		limit = len(raw.Results)
	}
	out := make([]trip.Place, 0, limit)
	for _, item := range raw.Results[:limit] {
		out = append(out, item.toPlace())
	}
	return out, nil
}

// PlaceDetails fetches the rich fields for one place.
func (c *Client) PlaceDetails(ctx context.Context, placeID string) (trip.Place, error) {
	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("key", c.apiKey)
	params.Set("fields", c.detailsFields)

	body, err := c.get(ctx, "/details/json?"+params.Encode())
	if err != nil {
		return trip.Place{}, err
	}

	var raw detailsResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return trip.Place{}, fmt.Errorf("decode details response: %w", err)
	}
	if raw.Status != "OK" {
		return trip.Place{}, fmt.Errorf("places api status %s: %s", raw.Status, raw.ErrorMessage)
	}
	return raw.Result.toPlace(), nil
}

func (c *Client) get(ctx context.Context, pathAndQuery string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+pathAndQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("build places request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("places request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("places request error: status=%d body=%s", resp.StatusCode, string(payload))
	}
	return io.ReadAll(resp.Body)
}

type searchResponse struct {
	Status       string     `json:"status"`
	ErrorMessage string     `json:"error_message"`
	Results      []wirePlace `json:"results"`
}

type detailsResponse struct {
	Status       string    `json:"status"`
	ErrorMessage string    `json:"error_message"`
	Result       wirePlace `json:"result"`
}

type wirePlace struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	FormattedAddress string   `json:"formatted_address"`
	Vicinity         string   `json:"vicinity"`
	Geometry         struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
	Types            []string `json:"types"`
	Rating           float64  `json:"rating"`
	UserRatingsTotal int      `json:"user_ratings_total"`
	PriceLevel       *int     `json:"price_level"`
	Website          string   `json:"website"`
	Phone            string   `json:"formatted_phone_number"`
	OpeningHours     struct {
		WeekdayText []string `json:"weekday_text"`
	} `json:"opening_hours"`
	Photos []struct {
		PhotoReference string `json:"photo_reference"`
	} `json:"photos"`
}

func (w wirePlace) toPlace() trip.Place {
	address := w.FormattedAddress
	if address == "" {
		address = w.Vicinity
	}
	photos := make([]string, 0, len(w.Photos))
	for _, photo := range w.Photos {
		if photo.PhotoReference != "" {
			photos = append(photos, photo.PhotoReference)
		}
	}
	return trip.Place{
		ID:               w.PlaceID,
		Name:             w.Name,
		Address:          address,
		Latitude:         w.Geometry.Location.Lat,
		Longitude:        w.Geometry.Location.Lng,
		Types:            w.Types,
		Rating:           w.Rating,
		UserRatingsTotal: w.UserRatingsTotal,
		PriceLevel:       w.PriceLevel,
		Website:          w.Website,
		Phone:            w.Phone,
		OpeningHours:     w.OpeningHours.WeekdayText,
		PhotoRefs:        photos,
	}
}
