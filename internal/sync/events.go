package sync

import "time"

// Event payloads pushed to every connected sync client. Each carries a
// dotted type tag so line-oriented consumers can route without decoding
// the whole object.

type WineEvent struct {
	Type   string    `json:"type"` // "wine.update" or "wine.delete"
	UserID string    `json:"user_id"`
	WineID string    `json:"wine_id"`
	Name   string    `json:"name,omitempty"`
	At     time.Time `json:"at"`
}

type RatingEvent struct {
	Type     string    `json:"type"` // "rating.create" or "rating.delete"
	UserID   string    `json:"user_id"`
	RatingID int64     `json:"rating_id"`
	WineID   string    `json:"wine_id"`
	Rating   float64   `json:"rating,omitempty"`
	At       time.Time `json:"at"`
}

type CellarEvent struct {
	Type     string    `json:"type"` // "cellar.update" or "cellar.delete"
	UserID   string    `json:"user_id"`
	WineID   string    `json:"wine_id"`
	Status   string    `json:"status,omitempty"`
	Quantity int       `json:"quantity"`
	At       time.Time `json:"at"`
}

type ScanEvent struct {
	Type    string    `json:"type"` // "scan.create" or "scan.delete"
	UserID  string    `json:"user_id"`
	ScanID  string    `json:"scan_id"`
	Matches int       `json:"matches,omitempty"`
	At      time.Time `json:"at"`
}
