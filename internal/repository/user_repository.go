package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"ecommerce-api/internal/models"
)

type UserRepository struct {
	users  *mongo.Collection
	resets *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		users:  db.Collection("users"),
		resets: db.Collection("password_resets"),
	}
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	if user.Role == "" {
		user.Role = models.RoleCustomer
	}
	if user.Wishlist == nil {
		user.Wishlist = []primitive.ObjectID{}
	}

	_, err := r.users.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var user models.User
	err := r.users.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var user models.User
	err := r.users.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.users.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"password_hash": passwordHash, "updated_at": time.Now()}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

// AddToWishlist usa $addToSet: agregar dos veces el mismo producto es
// un no-op.
func (r *UserRepository) AddToWishlist(ctx context.Context, userID, productID primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.users.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{
			"$addToSet": bson.M{"wishlist": productID},
			"$set":      bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) RemoveFromWishlist(ctx context.Context, userID, productID primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.users.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{
			"$pull": bson.M{"wishlist": productID},
			"$set":  bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

// CreatePasswordReset invalida los tokens previos del usuario y guarda
// el nuevo.
func (r *UserRepository) CreatePasswordReset(ctx context.Context, reset *models.PasswordReset) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.resets.UpdateMany(ctx,
		bson.M{"user_id": reset.UserID, "used": false},
		bson.M{"$set": bson.M{"used": true}},
	)
	if err != nil {
		return err
	}

	reset.ID = primitive.NewObjectID()
	reset.CreatedAt = time.Now()
	_, err = r.resets.InsertOne(ctx, reset)
	return err
}

// ConsumePasswordReset marca el token como usado en la misma operación
// que lo encuentra: dos confirmaciones con el mismo token no pueden
// ganar ambas.
func (r *UserRepository) ConsumePasswordReset(ctx context.Context, tokenHash string) (*models.PasswordReset, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var reset models.PasswordReset
	err := r.resets.FindOneAndUpdate(ctx,
		bson.M{
			"token_hash": tokenHash,
			"used":       false,
			"expires_at": bson.M{"$gt": time.Now()},
		},
		bson.M{"$set": bson.M{"used": true}},
	).Decode(&reset)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrResetNotFound
		}
		return nil, err
	}
	return &reset, nil
}
