package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

type PaymentState string

const (
	PaymentStatePending  PaymentState = "pending"
	PaymentStatePaid     PaymentState = "paid"
	PaymentStateFailed   PaymentState = "failed"
	PaymentStateRefunded PaymentState = "refunded"
)

// Order congela los ítems comprados: el precio unitario se copia del
// producto al momento de la compra y queda desacoplado de cambios
// futuros del catálogo. Las órdenes nunca se borran.
type Order struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID        primitive.ObjectID `json:"user_id" bson:"user_id"`
	Items         []OrderItem        `json:"items" bson:"items"`
	TotalCents    int64              `json:"total_cents" bson:"total_cents"`
	Currency      string             `json:"currency" bson:"currency"`
	Status        OrderStatus        `json:"status" bson:"status"`
	PaymentStatus PaymentState       `json:"payment_status" bson:"payment_status"`
	PaymentMethod string             `json:"payment_method" bson:"payment_method"`
	Shipping      ShippingAddress    `json:"shipping_address" bson:"shipping_address"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at" bson:"updated_at"`
}

type OrderItem struct {
	ProductID      primitive.ObjectID `json:"product_id" bson:"product_id"`
	Name           string             `json:"name" bson:"name"`
	Quantity       int64              `json:"quantity" bson:"quantity"`
	UnitPriceCents int64              `json:"unit_price_cents" bson:"unit_price_cents"`
}

func (i OrderItem) SubtotalCents() int64 {
	return i.UnitPriceCents * i.Quantity
}

type ShippingAddress struct {
	Street     string `json:"street" bson:"street" binding:"required"`
	Number     string `json:"number" bson:"number" binding:"required"`
	Complement string `json:"complement,omitempty" bson:"complement,omitempty"`
	City       string `json:"city" bson:"city" binding:"required"`
	State      string `json:"state" bson:"state" binding:"required"`
	ZipCode    string `json:"zip_code" bson:"zip_code" binding:"required"`
	Country    string `json:"country" bson:"country"`
}

// CanTransition define la máquina de estados de la orden:
// pending → processing → shipped → delivered, con cancelled alcanzable
// desde pending y processing.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	switch s {
	case OrderPending:
		return next == OrderProcessing || next == OrderCancelled
	case OrderProcessing:
		return next == OrderShipped || next == OrderCancelled
	case OrderShipped:
		return next == OrderDelivered
	default:
		return false
	}
}
