package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"vinohub/pkg/models"
)

// SourceB reads a catalog mirror: a JSON dump in the canonical format, the
// same one export-mirror writes and mirror-server hosts. Useful for seeding
// one instance from another or for offline fixtures.
type SourceB struct {
	BaseURL string
	Client  *http.Client
}

func NewSourceB(baseURL string) *SourceB {
	return &SourceB{
		BaseURL: baseURL,
		Client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (s *SourceB) Name() string {
	return "mirror"
}

// FetchAll fetches {BaseURL}/wines, which answers with a JSON array of
// canonical entries.
func (s *SourceB) FetchAll(ctx context.Context) ([]models.WineCanonical, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+"/wines", nil)
	if err != nil {
		return nil, fmt.Errorf("mirror: build request: %w", err)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mirror: do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("mirror: status %d: %s", resp.StatusCode, string(body))
	}

	var raw []models.WineCanonical
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("mirror: decode json: %w", err)
	}

	result := make([]models.WineCanonical, 0, len(raw))
	for _, w := range raw {
		if w.Name == "" {
			continue
		}
		if w.SourceIDs == nil {
			w.SourceIDs = make(map[string]string)
		}
		if _, ok := w.SourceIDs["mirror"]; !ok && w.ID != "" {
			w.SourceIDs["mirror"] = w.ID
		}
		result = append(result, w)
	}
	return result, nil
}
