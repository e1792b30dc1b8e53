package model

import "time"

// Product mirrors tb_product. Every product belongs to exactly one shop.
type Product struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ShopID      int64     `gorm:"column:shop_id;index;not null" json:"shopId"`
	CategoryID  *int64    `gorm:"column:category_id;index" json:"categoryId"`
	Name        string    `gorm:"column:name;size:255;not null" json:"name"`
	Category    string    `gorm:"column:category;size:255" json:"category"`
	Price       float64   `gorm:"column:price" json:"price"`
	IsAvailable bool      `gorm:"column:is_available" json:"isAvailable"`
	Description string    `gorm:"column:description" json:"description"`
	ImageURL    string    `gorm:"column:image_url;size:512" json:"imageUrl"`
	LastUpdated time.Time `gorm:"column:last_updated;autoUpdateTime" json:"lastUpdated"`
	CreateTime  time.Time `gorm:"column:create_time;autoCreateTime" json:"createTime"`
}

func (Product) TableName() string { return "tb_product" }
