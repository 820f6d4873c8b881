package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PaymentCard guarda solo datos enmascarados; el PAN completo nunca
// toca la base.
type PaymentCard struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID      primitive.ObjectID `json:"user_id" bson:"user_id"`
	HolderName  string             `json:"holder_name" bson:"holder_name" binding:"required"`
	Brand       string             `json:"brand" bson:"brand" binding:"required"`
	Last4       string             `json:"last4" bson:"last4" binding:"required,len=4"`
	ExpiryMonth int                `json:"expiry_month" bson:"expiry_month" binding:"required,gte=1,lte=12"`
	ExpiryYear  int                `json:"expiry_year" bson:"expiry_year" binding:"required"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
}
