package models

type CatalogWine struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Winery      string   `json:"winery,omitempty"`
	Variety     string   `json:"variety,omitempty"`
	Region      string   `json:"region,omitempty"`
	Country     string   `json:"country,omitempty"`
	Vintage     *int     `json:"vintage,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
	RatingCount int      `json:"rating_count,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Type        string   `json:"type,omitempty"`
	Body        string   `json:"body,omitempty"`
	Acidity     string   `json:"acidity,omitempty"`
	Pairings    []string `json:"pairings,omitempty"`
}
