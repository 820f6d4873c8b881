package stock

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"ecommerce-api/internal/models"
	"ecommerce-api/internal/repository"
)

// ProductStore es el subconjunto del repositorio de productos que el
// servicio de stock necesita; se inyecta por constructor para poder
// probar el servicio con un doble en memoria.
type ProductStore interface {
	FindByID(ctx context.Context, id string) (*models.Product, error)
	DecrementStock(ctx context.Context, id primitive.ObjectID, qty int64) error
	IncrementStock(ctx context.Context, id primitive.ObjectID, qty int64) error
	FindLowStock(ctx context.Context, threshold int64) ([]*models.Product, error)
	StockStatistics(ctx context.Context) (*repository.StockStats, error)
}

var ErrInvalidQuantity = errors.New("quantity must be positive")

type Service struct {
	products ProductStore
	logger   *zap.Logger
}

func NewService(products ProductStore, logger *zap.Logger) *Service {
	return &Service{products: products, logger: logger}
}

// Availability es la respuesta de la consulta de disponibilidad.
type Availability struct {
	Available bool   `json:"available"`
	Message   string `json:"message"`
}

// Item es una línea a reservar.
type Item struct {
	ProductID primitive.ObjectID
	Quantity  int64
}

// CheckAvailability falla cerrado: producto inexistente, inactivo o con
// stock menor al pedido cuentan como no disponible.
func (s *Service) CheckAvailability(ctx context.Context, productID string, qty int64) (*Availability, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) || errors.Is(err, repository.ErrInvalidID) {
			return &Availability{Available: false, Message: "Produto não encontrado"}, nil
		}
		return nil, err
	}

	if !product.IsActive {
		return &Availability{Available: false, Message: "Produto indisponível"}, nil
	}
	if product.Stock < qty {
		return &Availability{
			Available: false,
			Message:   fmt.Sprintf("Estoque insuficiente: %d disponível", product.Stock),
		}, nil
	}
	return &Availability{Available: true, Message: "Disponível"}, nil
}

// Reserve descuenta qty con un update condicional único; bajo
// concurrencia solo gana quien encuentra stock suficiente.
func (s *Service) Reserve(ctx context.Context, productID primitive.ObjectID, qty int64) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	return s.products.DecrementStock(ctx, productID, qty)
}

// Release devuelve qty unidades. Solo lo llaman los caminos de
// compensación (rollback de reserva múltiple y cancelación de orden).
func (s *Service) Release(ctx context.Context, productID primitive.ObjectID, qty int64) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	return s.products.IncrementStock(ctx, productID, qty)
}

// ReserveAll reserva todos los ítems o ninguno: ante el primer fallo
// libera lo ya reservado antes de devolver el error. Así un carrito con
// un producto sin stock no deja descontado el resto.
func (s *Service) ReserveAll(ctx context.Context, items []Item) error {
	reserved := make([]Item, 0, len(items))

	for _, item := range items {
		if err := s.Reserve(ctx, item.ProductID, item.Quantity); err != nil {
			s.rollback(ctx, reserved)
			return err
		}
		reserved = append(reserved, item)
	}
	return nil
}

// ReleaseAll libera todas las reservas de una orden.
func (s *Service) ReleaseAll(ctx context.Context, items []Item) error {
	var firstErr error
	for _, item := range items {
		if err := s.Release(ctx, item.ProductID, item.Quantity); err != nil {
			s.logger.Error("failed to release stock",
				zap.String("product_id", item.ProductID.Hex()),
				zap.Int64("quantity", item.Quantity),
				zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (s *Service) rollback(ctx context.Context, reserved []Item) {
	for _, item := range reserved {
		if err := s.Release(ctx, item.ProductID, item.Quantity); err != nil {
			// La liberación falló; queda registrado para reposición
			// manual.
			s.logger.Error("reservation rollback failed",
				zap.String("product_id", item.ProductID.Hex()),
				zap.Int64("quantity", item.Quantity),
				zap.Error(err))
		}
	}
}

// Adjust corrige el stock en delta unidades (admin). Un delta negativo
// pasa por el decremento condicional, así el ajuste tampoco puede dejar
// stock negativo.
func (s *Service) Adjust(ctx context.Context, productID primitive.ObjectID, delta int64) error {
	switch {
	case delta > 0:
		return s.products.IncrementStock(ctx, productID, delta)
	case delta < 0:
		return s.products.DecrementStock(ctx, productID, -delta)
	default:
		return nil
	}
}

func (s *Service) LowStock(ctx context.Context, threshold int64) ([]*models.Product, error) {
	if threshold < 0 {
		threshold = 0
	}
	return s.products.FindLowStock(ctx, threshold)
}

func (s *Service) Statistics(ctx context.Context) (*repository.StockStats, error) {
	return s.products.StockStatistics(ctx)
}
