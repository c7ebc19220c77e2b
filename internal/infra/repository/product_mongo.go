package repository

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"go.mongodb.org/mongo-driver/mongo"
)

type ProductMongoRepository struct {
	col *mongo.Collection
}

func NewProductMongoRepository(col *mongo.Collection) *ProductMongoRepository {
	return &ProductMongoRepository{col: col}
}

func (r *ProductMongoRepository) FindByID(ctx context.Context, id string) (model.Product, error) {
	var p model.Product
	err := r.col.FindOne(ctx, idFilter(id)).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Product{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Product{}, err
	}
	return p, nil
}

func (r *ProductMongoRepository) FindByIDs(ctx context.Context, ids []string) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}
	cur, err := r.col.Find(ctx, idsFilter(ids))
	if err != nil {
		return []model.Product{}, err
	}
	defer cur.Close(ctx)

	products := []model.Product{}
	if err := cur.All(ctx, &products); err != nil {
		return []model.Product{}, err
	}
	return products, nil
}
