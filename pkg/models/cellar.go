package models

import "time"

type CellarItem struct {
	UserID    string    `json:"user_id"`
	WineID    string    `json:"wine_id"`
	Status    string    `json:"status"`
	Quantity  int       `json:"quantity"`
	UpdatedAt time.Time `json:"updated_at"`
}
