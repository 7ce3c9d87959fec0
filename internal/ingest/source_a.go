package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"vinohub/internal/grapes"
	"vinohub/pkg/models"
)

// SourceA fetches the public wine list API that serves one endpoint per
// style. Entries arrive as display strings (label with vintage baked in,
// "Region · Country" location) and get normalized here.
type SourceA struct {
	BaseURL string
	Client  *http.Client
}

func NewSourceA(baseURL string) *SourceA {
	return &SourceA{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 12 * time.Second},
	}
}

func (s *SourceA) Name() string { return "sampleapis" }

// endpoint path -> the wine type its entries carry
var styleEndpoints = []struct {
	path     string
	wineType string
}{
	{"reds", "red"},
	{"whites", "white"},
	{"sparkling", "sparkling"},
	{"rose", "rosé"},
	{"port", "fortified"},
	{"dessert", "dessert"},
}

type aEntry struct {
	ID       int     `json:"id"`
	Winery   string  `json:"winery"`
	Wine     string  `json:"wine"`
	Location string  `json:"location"`
	Image    string  `json:"image"`
	Rating   aRating `json:"rating"`
}

type aRating struct {
	Average flexFloat `json:"average"`
	Reviews string    `json:"reviews"`
}

func (s *SourceA) FetchAll(ctx context.Context) ([]models.WineCanonical, error) {
	var all []models.WineCanonical

	for _, ep := range styleEndpoints {
		entries, err := s.fetchEndpoint(ctx, ep.path)
		if err != nil {
			return nil, err
		}

		for _, e := range entries {
			label := strings.TrimSpace(e.Wine)
			if label == "" {
				continue
			}

			name, vintage := splitVintage(label)
			region, country := splitLocation(e.Location)

			w := models.WineCanonical{
				Name:    name,
				Winery:  strings.TrimSpace(e.Winery),
				Variety: grapes.FindIn(name),
				Region:  region,
				Country: country,
				Vintage: vintage,
				Type:    ep.wineType,
				SourceIDs: map[string]string{
					"sampleapis": fmt.Sprintf("%s/%d", ep.path, e.ID),
				},
			}
			if avg := float64(e.Rating.Average); avg > 0 {
				w.Rating = &avg
				w.RatingCount = parseReviewCount(e.Rating.Reviews)
			}
			all = append(all, w)
		}
	}

	return all, nil
}

func (s *SourceA) fetchEndpoint(ctx context.Context, path string) ([]aEntry, error) {
	url := strings.TrimRight(s.BaseURL, "/") + "/" + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("sampleapis: build request: %w", err)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sampleapis: request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("sampleapis: %s status %d: %s", path, resp.StatusCode, string(body))
	}

	var entries []aEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("sampleapis: decode %s: %w", path, err)
	}
	return entries, nil
}

var trailingYear = regexp.MustCompile(`\s+((?:19|20)\d{2})$`)

// splitVintage takes "Emporda 2012" apart into the label name and the
// vintage year. Labels without a plausible trailing year pass through
// unchanged with a nil vintage.
func splitVintage(label string) (string, *int) {
	m := trailingYear.FindStringSubmatch(label)
	if m == nil {
		return label, nil
	}
	year, err := strconv.Atoi(m[1])
	if err != nil {
		return label, nil
	}
	name := strings.TrimSpace(strings.TrimSuffix(label, m[0]))
	if name == "" {
		return label, nil
	}
	return name, &year
}

// splitLocation parses "Region · Country". A single segment is taken as
// the country. Sources are sloppy with whitespace and line breaks around
// the separator, so everything gets trimmed.
func splitLocation(loc string) (region, country string) {
	parts := strings.Split(loc, "·")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	switch {
	case len(parts) >= 2 && parts[0] != "" && parts[1] != "":
		return parts[0], parts[1]
	case len(parts) >= 1 && parts[0] != "":
		return "", parts[0]
	default:
		return "", ""
	}
}

// parseReviewCount pulls the leading integer off strings like "88 ratings".
func parseReviewCount(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

// flexFloat tolerates numbers that arrive quoted. The public API flips
// between `"average": 4.9` and `"average": "4.9"` depending on the entry.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("parse float %q: %w", s, err)
	}
	*f = flexFloat(v)
	return nil
}
