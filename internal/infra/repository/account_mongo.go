package repository

import (
	"context"
	"errors"
	"time"

	"storefront/internal/domain/model"
	domainrepo "storefront/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type accountMongoRepository struct {
	col *mongo.Collection
}

func NewAccountMongoRepository(col *mongo.Collection) domainrepo.AccountRepository {
	return &accountMongoRepository{col: col}
}

func (r *accountMongoRepository) FindByID(ctx context.Context, id string) (model.Account, error) {
	var a model.Account
	err := r.col.FindOne(ctx, idFilter(id)).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Account{}, domainrepo.ErrNotFound
	}
	if err != nil {
		return model.Account{}, err
	}
	return a, nil
}

func (r *accountMongoRepository) ClearCart(ctx context.Context, id string) error {
	res, err := r.col.UpdateOne(ctx, idFilter(id), bson.M{"$set": bson.M{
		"cartData":  bson.M{},
		"updatedAt": time.Now(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domainrepo.ErrNotFound
	}
	return nil
}

func (r *accountMongoRepository) ListAll(ctx context.Context) ([]model.Account, error) {
	cur, err := r.col.Find(ctx, bson.M{})
	if err != nil {
		return []model.Account{}, err
	}
	defer cur.Close(ctx)

	accounts := []model.Account{}
	if err := cur.All(ctx, &accounts); err != nil {
		return []model.Account{}, err
	}
	return accounts, nil
}
