package models

import "time"

// Wine is a journal entry: a wine the user has rated, scanned, or added by
// hand. It starts as a copy of a catalog record (when one matched) and the
// descriptive fields stay editable afterwards.
type Wine struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CatalogID string    `json:"catalog_id,omitempty"`
	Name      string    `json:"name"`
	Winery    string    `json:"winery,omitempty"`
	Variety   string    `json:"variety,omitempty"`
	Region    string    `json:"region,omitempty"`
	Country   string    `json:"country,omitempty"`
	Vintage   *int      `json:"vintage,omitempty"`
	Rating    *float64  `json:"rating,omitempty"` // community average, if known
	Price     *float64  `json:"price,omitempty"`
	Type      string    `json:"type,omitempty"` // red, white, rosé, sparkling, dessert, fortified
	Body      string    `json:"body,omitempty"`
	Acidity   string    `json:"acidity,omitempty"`
	Pairings  []string  `json:"pairings,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
