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

const (
	collectionCommissions = "commission_settings"
	collectionMarkupRules = "markup_rules"
)

// PricingConfigRepository persists commission settings and markup rules and
// serves the per-request pricing snapshot.
type PricingConfigRepository struct {
	commissions *mongo.Collection
	rules       *mongo.Collection
	floorPct    float64
}

func NewPricingConfigRepository(db *mongo.Database, floorPct float64) *PricingConfigRepository {
	if floorPct <= 0 {
		floorPct = domain.CommissionFloorPct
	}
	return &PricingConfigRepository{
		commissions: db.Collection(collectionCommissions),
		rules:       db.Collection(collectionMarkupRules),
		floorPct:    floorPct,
	}
}

// LoadSnapshot reads the full pricing configuration in one pass.
func (r *PricingConfigRepository) LoadSnapshot(ctx context.Context) (domain.PricingSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	snap := domain.PricingSnapshot{
		Commissions: make(map[domain.CarrierCode]float64),
		FloorPct:    r.floorPct,
	}

	settings, err := r.listCommissions(ctx)
	if err != nil {
		return domain.PricingSnapshot{}, err
	}
	for _, s := range settings {
		snap.Commissions[s.Carrier] = s.Percent
	}

	rules, err := r.listMarkupRules(ctx, true)
	if err != nil {
		return domain.PricingSnapshot{}, err
	}
	snap.Rules = rules

	return snap, nil
}

func (r *PricingConfigRepository) ListCommissions(ctx context.Context) ([]domain.CommissionSetting, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return r.listCommissions(ctx)
}

func (r *PricingConfigRepository) listCommissions(ctx context.Context) ([]domain.CommissionSetting, error) {
	cur, err := r.commissions.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list commissions: %w", err)
	}
	defer cur.Close(ctx)

	var settings []domain.CommissionSetting
	if err := cur.All(ctx, &settings); err != nil {
		return nil, fmt.Errorf("decode commissions: %w", err)
	}
	return settings, nil
}

// UpsertCommission writes the commission percentage for a carrier.
func (r *PricingConfigRepository) UpsertCommission(ctx context.Context, setting domain.CommissionSetting) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	setting.UpdatedAt = time.Now().UTC()
	_, err := r.commissions.UpdateOne(ctx,
		bson.M{"carrier": setting.Carrier},
		bson.M{"$set": setting},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("upsert commission: %w", err)
	}
	return nil
}

func (r *PricingConfigRepository) ListMarkupRules(ctx context.Context) ([]domain.MarkupRule, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return r.listMarkupRules(ctx, false)
}

func (r *PricingConfigRepository) listMarkupRules(ctx context.Context, activeOnly bool) ([]domain.MarkupRule, error) {
	filter := bson.M{}
	if activeOnly {
		filter["active"] = true
	}

	opts := options.Find().SetSort(bson.D{{Key: "priority", Value: 1}})
	cur, err := r.rules.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list markup rules: %w", err)
	}
	defer cur.Close(ctx)

	var rules []domain.MarkupRule
	if err := cur.All(ctx, &rules); err != nil {
		return nil, fmt.Errorf("decode markup rules: %w", err)
	}
	return rules, nil
}

// UpsertMarkupRule inserts or replaces a markup rule, returning its id.
func (r *PricingConfigRepository) UpsertMarkupRule(ctx context.Context, rule domain.MarkupRule) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if rule.ID == "" {
		rule.ID = primitive.NewObjectID().Hex()
		if _, err := r.rules.InsertOne(ctx, rule); err != nil {
			return "", fmt.Errorf("insert markup rule: %w", err)
		}
		return rule.ID, nil
	}

	res, err := r.rules.ReplaceOne(ctx, bson.M{"_id": rule.ID}, rule)
	if err != nil {
		return "", fmt.Errorf("replace markup rule: %w", err)
	}
	if res.MatchedCount == 0 {
		return "", errors.New("markup rule not found")
	}
	return rule.ID, nil
}

func (r *PricingConfigRepository) DeleteMarkupRule(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.rules.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete markup rule: %w", err)
	}
	if res.DeletedCount == 0 {
		return errors.New("markup rule not found")
	}
	return nil
}

// EnsureIndexes creates the indexes the pricing configuration queries use.
func (r *PricingConfigRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.commissions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "carrier", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	_, err = r.rules.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "active", Value: 1}, {Key: "priority", Value: 1}}},
	})
	return err
}
