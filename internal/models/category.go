package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Category es jerárquica: las subcategorías apuntan a su categoría
// principal vía ParentCategory.
type Category struct {
	ID             primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	Name           string              `json:"name" bson:"name" binding:"required"`
	Slug           string              `json:"slug" bson:"slug" binding:"required"`
	Description    string              `json:"description,omitempty" bson:"description,omitempty"`
	ParentCategory *primitive.ObjectID `json:"parent_category,omitempty" bson:"parent_category,omitempty"`
	IsMainCategory bool                `json:"is_main_category" bson:"is_main_category"`
	IsActive       bool                `json:"is_active" bson:"is_active"`
	CreatedAt      time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at" bson:"updated_at"`
}
