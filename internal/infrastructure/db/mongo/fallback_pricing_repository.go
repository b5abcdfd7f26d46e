package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/parcelmarket/shipping-marketplace/internal/core/domain"
)

const collectionPricingRows = "fallback_pricing"

// FallbackPricingRepository serves the database pricing tables the fallback
// ladder reads when live quoting is unavailable.
type FallbackPricingRepository struct {
	col *mongo.Collection
}

func NewFallbackPricingRepository(db *mongo.Database) *FallbackPricingRepository {
	return &FallbackPricingRepository{col: db.Collection(collectionPricingRows)}
}

// FindRow returns the pricing row for serviceType whose weight breakpoints
// contain weight, or nil when none matches. A max_weight of 0 means
// unbounded.
func (r *FallbackPricingRepository) FindRow(ctx context.Context, serviceType string, weight float64) (*domain.PricingRow, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"service_type": serviceType,
		"min_weight":   bson.M{"$lte": weight},
		"$or": []bson.M{
			{"max_weight": bson.M{"$gte": weight}},
			{"max_weight": 0},
		},
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "min_weight", Value: -1}})

	var row domain.PricingRow
	if err := r.col.FindOne(ctx, filter, opts).Decode(&row); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find pricing row: %w", err)
	}
	return &row, nil
}
