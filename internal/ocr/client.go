// Package ocr talks to an external text-recognition service. The service
// contract is a single endpoint that accepts an image and answers with the
// text lines it found; everything smarter than that lives in menuscan.
package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// Recognizer extracts raw text lines from an image.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte, filename string) ([]string, error)
}

// Client posts images to a recognition service over HTTP.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

type recognizeResponse struct {
	Lines []string `json:"lines"`
}

func (c *Client) Recognize(ctx context.Context, image []byte, filename string) ([]string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", filename)
	if err != nil {
		return nil, fmt.Errorf("build form: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, fmt.Errorf("write image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/recognize", &body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("recognize: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		log.Warn().Int("status", resp.StatusCode).Bytes("body", b).Msg("ocr service error")
		return nil, fmt.Errorf("recognize: status %d", resp.StatusCode)
	}

	var out recognizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return out.Lines, nil
}

// Disabled is the Recognizer used when no service is configured. Scans
// still work, callers just have to supply the text lines themselves.
type Disabled struct{}

func (Disabled) Recognize(ctx context.Context, image []byte, filename string) ([]string, error) {
	return nil, fmt.Errorf("ocr service not configured")
}
