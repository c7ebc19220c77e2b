package repository

import (
	"context"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type auditLogMongoRepository struct {
	col *mongo.Collection
}

func NewAuditLogMongoRepository(col *mongo.Collection) repo.AuditLogRepository {
	return &auditLogMongoRepository{col: col}
}

func (r *auditLogMongoRepository) Create(ctx context.Context, log model.AuditLog) error {
	_, err := r.col.InsertOne(ctx, log)
	return err
}

func (r *auditLogMongoRepository) ListByResource(ctx context.Context, resourceType model.AuditResourceType, resourceID string) ([]model.AuditLog, error) {
	filter := bson.M{"resourceType": resourceType, "resourceId": resourceID}
	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var logs []model.AuditLog
	if err := cur.All(ctx, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}
