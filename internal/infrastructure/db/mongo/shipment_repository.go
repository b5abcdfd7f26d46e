package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/parcelmarket/shipping-marketplace/internal/core/domain"
	"github.com/parcelmarket/shipping-marketplace/internal/core/ports"
)

const (
	collectionShipments    = "shipments"
	collectionTransactions = "payment_transactions"
)

// ShipmentRepository implements ports.ShipmentRepository using MongoDB. The
// checkout writes (MarkPaid, RecordTransaction) run inside the session
// started by WithTransaction so a declined payment rolls back both.
type ShipmentRepository struct {
	client       *mongo.Client
	shipments    *mongo.Collection
	transactions *mongo.Collection
}

func NewShipmentRepository(client *mongo.Client, db *mongo.Database) *ShipmentRepository {
	return &ShipmentRepository{
		client:       client,
		shipments:    db.Collection(collectionShipments),
		transactions: db.Collection(collectionTransactions),
	}
}

// Create inserts a new shipment document.
func (r *ShipmentRepository) Create(ctx context.Context, s *domain.Shipment) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if s.ID == "" {
		s.ID = primitive.NewObjectID().Hex()
	}
	if _, err := r.shipments.InsertOne(ctx, s); err != nil {
		return fmt.Errorf("insert shipment: %w", err)
	}
	return nil
}

// FindByID retrieves a shipment. When clientID is non-empty, an additional
// filter by client_id is applied.
func (r *ShipmentRepository) FindByID(ctx context.Context, id string, clientID string) (*domain.Shipment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"_id": id}
	if clientID != "" {
		filter["client_id"] = clientID
	}

	var s domain.Shipment
	if err := r.shipments.FindOne(ctx, filter).Decode(&s); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrShipmentNotFound
		}
		return nil, fmt.Errorf("find shipment: %w", err)
	}
	return &s, nil
}

// MarkPaid applies the checkout update and transitions the shipment to paid.
func (r *ShipmentRepository) MarkPaid(ctx context.Context, id string, update ports.CheckoutUpdate) error {
	res, err := r.shipments.UpdateOne(ctx,
		bson.M{"_id": id, "status": domain.StatusQuoted},
		bson.M{"$set": bson.M{
			"status":          domain.StatusPaid,
			"service":         update.Service,
			"selected_addons": update.SelectedAddons,
			"verified_price":  update.VerifiedPrice,
			"transaction_id":  update.TransactionID,
			"paid_at":         update.PaidAt,
		}},
	)
	if err != nil {
		return fmt.Errorf("mark paid: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrShipmentNotFound
	}
	return nil
}

// RecordTransaction persists the payment transaction record.
func (r *ShipmentRepository) RecordTransaction(ctx context.Context, shipmentID, transactionID string, amount float64) error {
	_, err := r.transactions.InsertOne(ctx, bson.M{
		"shipment_id":    shipmentID,
		"transaction_id": transactionID,
		"amount":         amount,
		"created_at":     time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("record transaction: %w", err)
	}
	return nil
}

// MarkSubmitted records a successful carrier submission.
func (r *ShipmentRepository) MarkSubmitted(ctx context.Context, id, trackingNumber string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.shipments.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"status":          domain.StatusSubmitted,
			"tracking_number": trackingNumber,
		}, "$unset": bson.M{"submission_error": ""}},
	)
	if err != nil {
		return fmt.Errorf("mark submitted: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrShipmentNotFound
	}
	return nil
}

// MarkSubmissionFailed records a retryable carrier submission failure. The
// shipment stays paid.
func (r *ShipmentRepository) MarkSubmissionFailed(ctx context.Context, id string, subErr domain.SubmissionError) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.shipments.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"status":           domain.StatusSubmissionFailed,
			"submission_error": subErr,
		}},
	)
	if err != nil {
		return fmt.Errorf("mark submission failed: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrShipmentNotFound
	}
	return nil
}

// WithTransaction runs fn inside a single MongoDB transaction. fn returning
// an error aborts the transaction and rolls back every write made through
// the session context.
func (r *ShipmentRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})
	return err
}

// EnsureIndexes creates the shipment collection indexes.
func (r *ShipmentRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "client_id", Value: 1}}},
		{Keys: bson.D{{Key: "tracking_number", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	}
	if _, err := r.shipments.Indexes().CreateMany(ctx, indexes); err != nil {
		return err
	}

	_, err := r.transactions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "shipment_id", Value: 1}},
	})
	return err
}
