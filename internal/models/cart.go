package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Cart: un carrito por usuario (índice único sobre user_id). Se crea
// perezosamente en el primer add y se vacía, no se borra, al confirmar
// la compra.
type Cart struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID    primitive.ObjectID `json:"user_id" bson:"user_id"`
	Items     []CartItem         `json:"items" bson:"items"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}

type CartItem struct {
	ProductID primitive.ObjectID `json:"product_id" bson:"product_id"`
	Quantity  int64              `json:"quantity" bson:"quantity"`
}
