package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// Payment: un pago por orden (índice único sobre order_id).
type Payment struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	OrderID       primitive.ObjectID `json:"order_id" bson:"order_id"`
	Provider      string             `json:"provider" bson:"provider"`
	Method        string             `json:"method" bson:"method"`
	TransactionID string             `json:"transaction_id,omitempty" bson:"transaction_id,omitempty"`
	AmountCents   int64              `json:"amount_cents" bson:"amount_cents"`
	Currency      string             `json:"currency" bson:"currency"`
	Status        PaymentStatus      `json:"status" bson:"status"`
	Details       map[string]string  `json:"details,omitempty" bson:"details,omitempty"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at" bson:"updated_at"`
}

// WebhookEvent registra cada evento de proveedor ya procesado. El
// insert con índice único sobre event_id es la puerta de idempotencia:
// un webhook repetido no encuentra lugar y se descarta.
type WebhookEvent struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	EventID     string             `json:"event_id" bson:"event_id"`
	Provider    string             `json:"provider" bson:"provider"`
	EventType   string             `json:"event_type,omitempty" bson:"event_type,omitempty"`
	ProcessedAt time.Time          `json:"processed_at" bson:"processed_at"`
}
