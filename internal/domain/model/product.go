package model

import "time"

// カタログ商品。注文側からは読み取りのみ
type Product struct {
	ID          string    `gorm:"type:varchar(64);primaryKey" bson:"_id" json:"_id"`
	Name        string    `gorm:"type:varchar(255);not null" bson:"name" json:"name"`
	Description string    `gorm:"type:text" bson:"description" json:"description"`
	Price       float64   `gorm:"not null" bson:"price" json:"price"`
	Images      []string  `gorm:"type:jsonb;serializer:json" bson:"image" json:"image"`
	Category    string    `gorm:"type:varchar(100);index" bson:"category" json:"category"`
	Sizes       []string  `gorm:"type:jsonb;serializer:json" bson:"sizes" json:"sizes"`
	CreatedAt   time.Time `bson:"date" json:"date"`
}

// HasSize はサイズ指定が商品に存在するか。サイズ無し商品は空文字のみ許可
func (p Product) HasSize(size string) bool {
	if len(p.Sizes) == 0 {
		return size == ""
	}
	for _, s := range p.Sizes {
		if s == size {
			return true
		}
	}
	return false
}
