package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/parcelmarket/shipping-marketplace/internal/core/domain"
)

const collectionAuditEvents = "pricing_audit_events"

// AuditRepository persists pricing audit events.
type AuditRepository struct {
	col *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{col: db.Collection(collectionAuditEvents)}
}

// Insert persists one audit event.
func (r *AuditRepository) Insert(ctx context.Context, event *domain.AuditEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := bson.M{
		"reference":    event.Reference,
		"stage":        string(event.Stage),
		"carrier":      event.Carrier,
		"amount":       event.Amount,
		"detail":       event.Detail,
		"timestamp":    event.Timestamp.UTC(),
		"processed_at": time.Now().UTC(),
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListByReference returns the audit trail for one quote or shipment,
// chronological order.
func (r *AuditRepository) ListByReference(ctx context.Context, reference string) ([]domain.AuditEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"reference": reference}, opts)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer cur.Close(ctx)

	var events []domain.AuditEvent
	for cur.Next(ctx) {
		var doc struct {
			Reference string    `bson:"reference"`
			Stage     string    `bson:"stage"`
			Carrier   string    `bson:"carrier"`
			Amount    float64   `bson:"amount"`
			Detail    string    `bson:"detail"`
			Timestamp time.Time `bson:"timestamp"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode audit event: %w", err)
		}
		events = append(events, domain.AuditEvent{
			Reference: doc.Reference,
			Stage:     domain.AuditStage(doc.Stage),
			Carrier:   doc.Carrier,
			Amount:    doc.Amount,
			Detail:    doc.Detail,
			Timestamp: doc.Timestamp,
		})
	}
	return events, cur.Err()
}

// EnsureIndexes creates the reference index the audit lookups use.
func (r *AuditRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "reference", Value: 1}, {Key: "timestamp", Value: 1}},
	})
	return err
}
