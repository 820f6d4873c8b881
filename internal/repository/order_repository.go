package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ecommerce-api/internal/models"
)

type OrderRepository struct {
	collection *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{collection: db.Collection("orders")}
}

func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	order.ID = primitive.NewObjectID()
	order.CreatedAt = time.Now()
	order.UpdatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, order)
	return err
}

func (r *OrderRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var order models.Order
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepository) FindByUser(ctx context.Context, userID primitive.ObjectID, page, pageSize int) ([]*models.Order, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{"user_id": userID}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if page > 0 && pageSize > 0 {
		findOptions.SetSkip(int64((page - 1) * pageSize))
		findOptions.SetLimit(int64(pageSize))
	}

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var orders []*models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// UpdateStatusIf aplica la transición solo si la orden sigue en el
// estado esperado; si otro actor ganó la carrera devuelve ErrConflict.
func (r *OrderRepository) UpdateStatusIf(ctx context.Context, id primitive.ObjectID, from, to models.OrderStatus) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": bson.M{"status": to, "updated_at": time.Now()}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		exists, err := r.collection.CountDocuments(ctx, bson.M{"_id": id})
		if err != nil {
			return err
		}
		if exists == 0 {
			return ErrOrderNotFound
		}
		return ErrConflict
	}
	return nil
}

// MarkPaid fija payment_status=paid y status=processing en un solo
// update condicionado a payment_status=pending, así un webhook repetido
// no tiene efecto adicional.
func (r *OrderRepository) MarkPaid(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "payment_status": models.PaymentStatePending},
		bson.M{"$set": bson.M{
			"payment_status": models.PaymentStatePaid,
			"status":         models.OrderProcessing,
			"updated_at":     time.Now(),
		}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		exists, err := r.collection.CountDocuments(ctx, bson.M{"_id": id})
		if err != nil {
			return err
		}
		if exists == 0 {
			return ErrOrderNotFound
		}
		return ErrConflict
	}
	return nil
}

func (r *OrderRepository) SetPaymentStatus(ctx context.Context, id primitive.ObjectID, status models.PaymentState) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"payment_status": status, "updated_at": time.Now()}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// MarkCancelled cancela la orden solo si conserva el estado observado:
// sigue cancelable y su payment_status no cambió desde la lectura. Si
// un webhook la marcó pagada en el medio (o otra cancelación ganó),
// devuelve ErrConflict y el llamador debe releer antes de actuar.
func (r *OrderRepository) MarkCancelled(ctx context.Context, id primitive.ObjectID, fromPayment, toPayment models.PaymentState) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.collection.UpdateOne(ctx,
		bson.M{
			"_id":            id,
			"status":         bson.M{"$in": []models.OrderStatus{models.OrderPending, models.OrderProcessing}},
			"payment_status": fromPayment,
		},
		bson.M{"$set": bson.M{
			"status":         models.OrderCancelled,
			"payment_status": toPayment,
			"updated_at":     time.Now(),
		}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		exists, err := r.collection.CountDocuments(ctx, bson.M{"_id": id})
		if err != nil {
			return err
		}
		if exists == 0 {
			return ErrOrderNotFound
		}
		return ErrConflict
	}
	return nil
}

// HasPaidOrderWithProduct responde si el usuario tiene una orden pagada
// que incluya el producto; es el requisito para reseñar.
func (r *OrderRepository) HasPaidOrderWithProduct(ctx context.Context, userID, productID primitive.ObjectID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{
		"user_id":          userID,
		"payment_status":   models.PaymentStatePaid,
		"items.product_id": productID,
	}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
