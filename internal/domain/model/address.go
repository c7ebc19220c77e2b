package model

// 配送先スナップショット。住所録とは独立
type ShippingAddress struct {
	FirstName string `gorm:"type:varchar(100)" bson:"firstName" json:"firstName"`
	LastName  string `gorm:"type:varchar(100)" bson:"lastName" json:"lastName"`
	Email     string `gorm:"type:varchar(255)" bson:"email" json:"email"`
	Street    string `gorm:"type:varchar(255)" bson:"street" json:"street"`
	City      string `gorm:"type:varchar(100)" bson:"city" json:"city"`
	State     string `gorm:"type:varchar(100)" bson:"state" json:"state"`
	Zipcode   string `gorm:"type:varchar(20)" bson:"zipcode" json:"zipcode"`
	Country   string `gorm:"type:varchar(100)" bson:"country" json:"country"`
	Phone     string `gorm:"type:varchar(30)" bson:"phone" json:"phone"`
}
