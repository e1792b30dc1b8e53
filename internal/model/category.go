package model

import "time"

// Category mirrors tb_category, a seller-defined product grouping inside one shop.
type Category struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ShopID      int64     `gorm:"column:shop_id;index;not null" json:"shopId"`
	Name        string    `gorm:"column:name;size:255;not null" json:"name"`
	Description string    `gorm:"column:description" json:"description"`
	ImageURL    string    `gorm:"column:image_url;size:512" json:"imageUrl"`
	CreateTime  time.Time `gorm:"column:create_time;autoCreateTime" json:"createTime"`
}

func (Category) TableName() string { return "tb_category" }
