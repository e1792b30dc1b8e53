package model

import (
	"time"

	"github.com/Nikhi-l37/local-inventory-project/internal/availability"
	"github.com/Nikhi-l37/local-inventory-project/internal/geo"
)

// Shop mirrors tb_shop. IsOpen is the seller's master switch: nil or true lets
// the opening/closing schedule decide, an explicit false pauses the shop.
type Shop struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	SellerID    int64     `gorm:"column:seller_id;uniqueIndex" json:"sellerId"`
	Name        string    `gorm:"column:name;size:255;not null" json:"name"`
	Category    string    `gorm:"column:category;size:255" json:"category"`
	Description string    `gorm:"column:description" json:"description"`
	ImageURL    string    `gorm:"column:image_url;size:512" json:"imageUrl"`
	Latitude    float64   `gorm:"column:latitude" json:"latitude"`
	Longitude   float64   `gorm:"column:longitude" json:"longitude"`
	OpeningTime *string   `gorm:"column:opening_time;size:8" json:"openingTime"`
	ClosingTime *string   `gorm:"column:closing_time;size:8" json:"closingTime"`
	IsOpen      *bool     `gorm:"column:is_open" json:"isOpen"`
	TownVillage string    `gorm:"column:town_village;size:255" json:"townVillage"`
	Mandal      string    `gorm:"column:mandal;size:255" json:"mandal"`
	District    string    `gorm:"column:district;size:255" json:"district"`
	State       string    `gorm:"column:state;size:255" json:"state"`
	CreateTime  time.Time `gorm:"column:create_time;autoCreateTime" json:"createTime"`
	UpdateTime  time.Time `gorm:"column:update_time;autoUpdateTime" json:"updateTime"`

	Distance *float64             `gorm:"-" json:"distance,omitempty"`
	Status   *availability.Status `gorm:"-" json:"status,omitempty"`
}

func (Shop) TableName() string { return "tb_shop" }

// Coordinate returns the shop location as a geo point.
func (s *Shop) Coordinate() geo.Coordinate {
	return geo.Coordinate{Latitude: s.Latitude, Longitude: s.Longitude}
}

// MasterSwitchOn reports whether the persisted is_open flag is explicitly true.
func (s *Shop) MasterSwitchOn() bool {
	return s.IsOpen != nil && *s.IsOpen
}
