package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

type User struct {
	ID           primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Name         string               `json:"name" bson:"name"`
	Email        string               `json:"email" bson:"email"`
	PasswordHash string               `json:"-" bson:"password_hash"`
	Role         Role                 `json:"role" bson:"role"`
	Wishlist     []primitive.ObjectID `json:"wishlist" bson:"wishlist"`
	CreatedAt    time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at" bson:"updated_at"`
}

// PasswordReset guarda el hash del token, nunca el token en claro.
type PasswordReset struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID    primitive.ObjectID `json:"user_id" bson:"user_id"`
	TokenHash string             `json:"-" bson:"token_hash"`
	ExpiresAt time.Time          `json:"expires_at" bson:"expires_at"`
	Used      bool               `json:"used" bson:"used"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}
