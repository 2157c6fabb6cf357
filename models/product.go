package models

import "time"

type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Brand       string    `json:"brand"`
	PriceCents  int64     `json:"priceCents"`
	Stock       int       `json:"stock"`
	Description string    `json:"description"`
	Images      []string  `json:"images"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (p Product) ImageURL() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}
