package idgen

import (
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UUIDGenerator はPostgres・インメモリ構成の注文ID
type UUIDGenerator struct{}

func (g UUIDGenerator) NewID() string {
	return uuid.NewString()
}

// ObjectIDGenerator はMongo構成の注文ID。既存データと同じ24桁hex
type ObjectIDGenerator struct{}

func (g ObjectIDGenerator) NewID() string {
	return primitive.NewObjectID().Hex()
}
