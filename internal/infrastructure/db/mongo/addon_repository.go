package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/parcelmarket/shipping-marketplace/internal/core/domain"
)

const collectionAddons = "carrier_addons"

// AddonRepository serves the addon catalog.
type AddonRepository struct {
	col *mongo.Collection
}

func NewAddonRepository(db *mongo.Database) *AddonRepository {
	return &AddonRepository{col: db.Collection(collectionAddons)}
}

func (r *AddonRepository) ListActive(ctx context.Context) ([]domain.AddonDefinition, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{"active": true})
	if err != nil {
		return nil, fmt.Errorf("list addons: %w", err)
	}
	defer cur.Close(ctx)

	var defs []domain.AddonDefinition
	if err := cur.All(ctx, &defs); err != nil {
		return nil, fmt.Errorf("decode addons: %w", err)
	}
	return defs, nil
}

func (r *AddonRepository) FindByIDs(ctx context.Context, ids []string) ([]domain.AddonDefinition, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}, "active": true})
	if err != nil {
		return nil, fmt.Errorf("find addons: %w", err)
	}
	defer cur.Close(ctx)

	var defs []domain.AddonDefinition
	if err := cur.All(ctx, &defs); err != nil {
		return nil, fmt.Errorf("decode addons: %w", err)
	}
	return defs, nil
}

// Upsert inserts or replaces a catalog entry, returning its id.
func (r *AddonRepository) Upsert(ctx context.Context, def domain.AddonDefinition) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if def.ID == "" {
		def.ID = primitive.NewObjectID().Hex()
		if _, err := r.col.InsertOne(ctx, def); err != nil {
			return "", fmt.Errorf("insert addon: %w", err)
		}
		return def.ID, nil
	}

	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": def.ID}, def)
	if err != nil {
		return "", fmt.Errorf("replace addon: %w", err)
	}
	if res.MatchedCount == 0 {
		return "", errors.New("addon not found")
	}
	return def.ID, nil
}

func (r *AddonRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete addon: %w", err)
	}
	if res.DeletedCount == 0 {
		return errors.New("addon not found")
	}
	return nil
}

// EnsureIndexes creates the unique code index on the addon catalog.
func (r *AddonRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "code", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
