package repository

import (
	"context"
	"errors"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type OrderMongoRepository struct {
	col *mongo.Collection
}

func NewOrderMongoRepository(col *mongo.Collection) *OrderMongoRepository {
	return &OrderMongoRepository{col: col}
}

func (r *OrderMongoRepository) Create(ctx context.Context, order model.Order) error {
	if order.Items == nil {
		order.Items = []model.OrderItem{}
	}
	_, err := r.col.InsertOne(ctx, order)
	return err
}

func (r *OrderMongoRepository) FindByID(ctx context.Context, id string) (model.Order, error) {
	var o model.Order
	err := r.col.FindOne(ctx, idFilter(id)).Decode(&o)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Order{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Order{}, err
	}
	return o, nil
}

func (r *OrderMongoRepository) List(ctx context.Context, f repo.OrderListFilter) ([]model.Order, error) {
	filter := bson.M{}
	if f.OwnerID != "" {
		filter["userId"] = f.OwnerID
	}
	if f.PaymentMethod != "" {
		filter["paymentMethod"] = f.PaymentMethod
	}
	if f.Paid != nil {
		filter["payment"] = *f.Paid
	}
	if f.Before != nil {
		filter["date"] = bson.M{"$lt": *f.Before}
	}

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	return r.find(ctx, filter, opts)
}

func (r *OrderMongoRepository) ListByCancellationStatus(ctx context.Context, status model.CancellationStatus) ([]model.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})
	return r.find(ctx, cancellationFilter(status), opts)
}

func (r *OrderMongoRepository) Update(ctx context.Context, id string, patch model.OrderPatch, now time.Time) error {
	res, err := r.col.UpdateOne(ctx, idFilter(id), bson.M{"$set": patchDocument(patch, now)})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *OrderMongoRepository) AdvanceCancellation(ctx context.Context, id string, from, to model.CancellationStatus, now time.Time) (bool, error) {
	filter := idFilter(id)
	for k, v := range cancellationFilter(from) {
		filter[k] = v
	}

	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": bson.M{
		"cancellationStatus": to,
		"updatedAt":          now,
	}})
	if err != nil {
		return false, err
	}
	if res.MatchedCount > 0 {
		return true, nil
	}

	n, err := r.col.CountDocuments(ctx, idFilter(id))
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, repo.ErrNotFound
	}
	return false, nil
}

func (r *OrderMongoRepository) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, idFilter(id))
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *OrderMongoRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]model.Order, error) {
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return []model.Order{}, err
	}
	defer cur.Close(ctx)

	orders := []model.Order{}
	if err := cur.All(ctx, &orders); err != nil {
		return []model.Order{}, err
	}
	return orders, nil
}

// 未申請は空文字かフィールド無し
func cancellationFilter(status model.CancellationStatus) bson.M {
	if status == model.CancellationNone {
		return bson.M{"cancellationStatus": bson.M{"$in": bson.A{"", nil}}}
	}
	return bson.M{"cancellationStatus": status}
}

func patchDocument(p model.OrderPatch, now time.Time) bson.M {
	set := bson.M{"updatedAt": now}
	if p.Payment != nil {
		set["payment"] = *p.Payment
	}
	if p.Status != nil {
		set["status"] = *p.Status
	}
	if p.CancellationStatus != nil {
		set["cancellationStatus"] = *p.CancellationStatus
	}
	if p.CancellationReason != nil {
		set["cancellationReason"] = *p.CancellationReason
	}
	if p.CancellationRequestedAt != nil {
		set["cancellationRequestedAt"] = *p.CancellationRequestedAt
	}
	if p.Refunded != nil {
		set["refunded"] = *p.Refunded
	}
	return set
}
