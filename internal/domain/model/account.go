package model

import "time"

// アカウント。Google連携ユーザーはパスワードを持たない
type Account struct {
	ID        string            `gorm:"type:varchar(64);primaryKey" bson:"_id" json:"id"`
	Name      string            `gorm:"type:varchar(255);not null" bson:"name" json:"name"`
	Email     string            `gorm:"type:varchar(255);uniqueIndex;not null" bson:"email" json:"email"`
	Cart      Cart              `gorm:"column:cart_data;type:jsonb;serializer:json" bson:"cartData" json:"cartData"`
	Wishlist  []string          `gorm:"column:wishlist_data;type:jsonb;serializer:json" bson:"wishlistData" json:"wishlistData"`
	Addresses []ShippingAddress `gorm:"type:jsonb;serializer:json" bson:"address" json:"address"`
	CreatedAt time.Time         `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time         `bson:"updatedAt" json:"updatedAt"`
}
