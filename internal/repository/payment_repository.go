package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"ecommerce-api/internal/models"
)

type PaymentRepository struct {
	payments *mongo.Collection
	events   *mongo.Collection
}

func NewPaymentRepository(db *mongo.Database) *PaymentRepository {
	return &PaymentRepository{
		payments: db.Collection("payments"),
		events:   db.Collection("webhook_events"),
	}
}

// Create inserta el pago; el índice único sobre order_id garantiza un
// pago por orden.
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	payment.ID = primitive.NewObjectID()
	payment.CreatedAt = time.Now()
	payment.UpdatedAt = time.Now()

	_, err := r.payments.InsertOne(ctx, payment)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

func (r *PaymentRepository) FindByOrder(ctx context.Context, orderID primitive.ObjectID) (*models.Payment, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var payment models.Payment
	err := r.payments.FindOne(ctx, bson.M{"order_id": orderID}).Decode(&payment)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &payment, nil
}

func (r *PaymentRepository) FindByTransaction(ctx context.Context, transactionID string) (*models.Payment, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var payment models.Payment
	err := r.payments.FindOne(ctx, bson.M{"transaction_id": transactionID}).Decode(&payment)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &payment, nil
}

func (r *PaymentRepository) SetTransaction(ctx context.Context, id primitive.ObjectID, transactionID string, details map[string]string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.payments.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"transaction_id": transactionID,
			"details":        details,
			"updated_at":     time.Now(),
		}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrPaymentNotFound
	}
	return nil
}

// TransitionStatus cambia el estado solo si el pago sigue en `from`.
// Es la guarda contra el doble reembolso: de dos llamadas concurrentes
// completed→refunded solo una encuentra el documento.
func (r *PaymentRepository) TransitionStatus(ctx context.Context, id primitive.ObjectID, from, to models.PaymentStatus) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.payments.UpdateOne(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": bson.M{"status": to, "updated_at": time.Now()}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		exists, err := r.payments.CountDocuments(ctx, bson.M{"_id": id})
		if err != nil {
			return err
		}
		if exists == 0 {
			return ErrPaymentNotFound
		}
		return ErrConflict
	}
	return nil
}

// RecordWebhookEvent inserta el evento en el libro de procesados.
// Devuelve false sin error cuando el evento ya estaba registrado: el
// llamador debe descartar el webhook como repetido.
func (r *PaymentRepository) RecordWebhookEvent(ctx context.Context, event *models.WebhookEvent) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	event.ID = primitive.NewObjectID()
	event.ProcessedAt = time.Now()

	_, err := r.events.InsertOne(ctx, event)
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// RemoveWebhookEvent quita un evento del libro. Se usa cuando el
// procesamiento falló después de registrarlo: el reintento del
// proveedor con el mismo event id debe poder aplicarse.
func (r *PaymentRepository) RemoveWebhookEvent(ctx context.Context, eventID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.events.DeleteOne(ctx, bson.M{"event_id": eventID})
	return err
}
