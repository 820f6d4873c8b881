package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Review: una reseña por (usuario, producto), respaldada por un índice
// compuesto único. Solo puede crearse con una orden pagada que incluya
// el producto.
type Review struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID    primitive.ObjectID `json:"user_id" bson:"user_id"`
	ProductID primitive.ObjectID `json:"product_id" bson:"product_id"`
	Rating    int                `json:"rating" bson:"rating" binding:"required,gte=1,lte=5"`
	Comment   string             `json:"comment,omitempty" bson:"comment,omitempty"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}
