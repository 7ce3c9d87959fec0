package models

import "time"

type Rating struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	WineID    string    `json:"wine_id"`
	Rating    float64   `json:"rating"`
	Note      string    `json:"note,omitempty"`
	Vintage   *int      `json:"vintage,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
