package model

// 注文明細。注文時点のカタログ値を保存する（価格固定）
type OrderItem struct {
	ID        int64    `gorm:"primaryKey;autoIncrement" bson:"-" json:"-"`
	OrderID   string   `gorm:"type:varchar(64);not null;index" bson:"-" json:"-"`
	ProductID string   `gorm:"type:varchar(64);not null" bson:"productId" json:"productId"`
	Name      string   `gorm:"type:varchar(255);not null" bson:"name" json:"name"`
	Price     float64  `gorm:"not null" bson:"price" json:"price"`
	Size      string   `gorm:"type:varchar(32)" bson:"size" json:"size"`
	Quantity  int      `gorm:"not null" bson:"quantity" json:"quantity"`
	Images    []string `gorm:"type:jsonb;serializer:json" bson:"image" json:"image"`
}
