package models

// WineCanonical is the normalized, internal form of a catalog entry
// used by the ingest and database layer.
//
// All external sources are mapped into this structure first,
// then we write to the catalog from this representation.
type WineCanonical struct {
	ID          string            `json:"id"`                     // our canonical ID (slug)
	Name        string            `json:"name"`                   // label name without vintage
	Winery      string            `json:"winery"`                 // producer
	Variety     string            `json:"variety,omitempty"`      // primary grape, if known
	Region      string            `json:"region,omitempty"`       // appellation / region
	Country     string            `json:"country,omitempty"`      //
	Vintage     *int              `json:"vintage,omitempty"`      // nil when non-vintage or unknown
	Rating      *float64          `json:"rating,omitempty"`       // community average, 0-5
	RatingCount int               `json:"rating_count,omitempty"` // reviews behind the average
	Price       *float64          `json:"price,omitempty"`        //
	Type        string            `json:"type,omitempty"`         // red, white, rosé, ...
	Body        string            `json:"body,omitempty"`         //
	Acidity     string            `json:"acidity,omitempty"`      //
	Pairings    []string          `json:"pairings,omitempty"`     // ordered food pairings
	SourceIDs   map[string]string `json:"source_ids,omitempty"`   // e.g. {"source_a": "...", "source_b": "..."}
}
