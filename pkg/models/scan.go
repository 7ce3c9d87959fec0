package models

import "time"

// Scan records one menu-scan event: which lines survived classification and
// which wines they resolved to. Scans are written once and only ever deleted
// whole.
type Scan struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	ImagePath string          `json:"image_path,omitempty"`
	Detected  []DetectedEntry `json:"detected"`
	Matches   []ScanMatch     `json:"matches"`
	CreatedAt time.Time       `json:"created_at"`
}

// DetectedEntry is a menu line that classified as a wine entry, with the
// grape variety carried over from the nearest section header above it.
type DetectedEntry struct {
	Text    string `json:"text"`
	Variety string `json:"variety,omitempty"`
}

// ScanMatch links a detected entry to the record that resolved it: a journal
// wine (WineID) or a catalog record (CatalogID), never both.
type ScanMatch struct {
	Text      string `json:"text"`
	Variety   string `json:"variety,omitempty"`
	WineID    string `json:"wine_id,omitempty"`
	CatalogID string `json:"catalog_id,omitempty"`
	Name      string `json:"name"`
	Winery    string `json:"winery,omitempty"`
}
