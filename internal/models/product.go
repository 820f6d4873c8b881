package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product representa un producto del catálogo. El precio se guarda en
// centavos; el descuento es un porcentaje entero 0-100.
type Product struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	SKU             string             `json:"sku" bson:"sku" binding:"required"`
	Name            string             `json:"name" bson:"name" binding:"required"`
	Description     string             `json:"description,omitempty" bson:"description,omitempty"`
	CategoryID      primitive.ObjectID `json:"category_id" bson:"category_id"`
	PriceCents      int64              `json:"price_cents" bson:"price_cents" binding:"required,gt=0"`
	Currency        string             `json:"currency" bson:"currency" binding:"required"`
	Stock           int64              `json:"stock" bson:"stock" binding:"gte=0"`
	DiscountPercent int                `json:"discount_percent" bson:"discount_percent" binding:"gte=0,lte=100"`
	Images          []string           `json:"images,omitempty" bson:"images,omitempty"`
	Attributes      map[string]string  `json:"attributes,omitempty" bson:"attributes,omitempty"`
	IsActive        bool               `json:"is_active" bson:"is_active"`
	IsDeleted       bool               `json:"-" bson:"is_deleted"`
	CreatedAt       time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at" bson:"updated_at"`
}

// UnitPriceCents devuelve el precio unitario con el descuento aplicado.
func (p *Product) UnitPriceCents() int64 {
	if p.DiscountPercent <= 0 {
		return p.PriceCents
	}
	return p.PriceCents - p.PriceCents*int64(p.DiscountPercent)/100
}

// ProductUpdate representa los campos actualizables de un producto
type ProductUpdate struct {
	Name            *string           `json:"name,omitempty"`
	Description     *string           `json:"description,omitempty"`
	CategoryID      *string           `json:"category_id,omitempty"`
	PriceCents      *int64            `json:"price_cents,omitempty"`
	Currency        *string           `json:"currency,omitempty"`
	Stock           *int64            `json:"stock,omitempty"`
	DiscountPercent *int              `json:"discount_percent,omitempty"`
	Images          []string          `json:"images,omitempty"`
	Attributes      map[string]string `json:"attributes,omitempty"`
	IsActive        *bool             `json:"is_active,omitempty"`
}
