package search

import "github.com/Nikhi-l37/local-inventory-project/internal/availability"

// Result is one ranked search hit, product or shop.
type Result struct {
	Type           Target              `json:"type"`
	ID             int64               `json:"id"`
	Name           string              `json:"name"`
	Category       string              `json:"category"`
	DistanceMeters float64             `json:"distanceMeters"`
	Score          float64             `json:"score"`
	Status         availability.Status `json:"status"`
	ImageURL       string              `json:"imageUrl,omitempty"`
	Latitude       float64             `json:"latitude"`
	Longitude      float64             `json:"longitude"`
	IsOpen         *bool               `json:"isOpen"`

	// product searches only
	Price       *float64     `json:"price,omitempty"`
	IsAvailable *bool        `json:"isAvailable,omitempty"`
	Description string       `json:"description,omitempty"`
	Shop        *ShopSummary `json:"shop,omitempty"`
}

// ShopSummary is the owning shop attached to a product result.
type ShopSummary struct {
	ID          int64               `json:"id"`
	Name        string              `json:"name"`
	Category    string              `json:"category"`
	Latitude    float64             `json:"latitude"`
	Longitude   float64             `json:"longitude"`
	IsOpen      *bool               `json:"isOpen"`
	OpeningTime *string             `json:"openingTime"`
	ClosingTime *string             `json:"closingTime"`
	TownVillage string              `json:"townVillage,omitempty"`
	Status      availability.Status `json:"status"`
}
