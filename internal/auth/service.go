package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"ecommerce-api/internal/models"
	"ecommerce-api/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
)

const resetTokenTTL = time.Hour

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error
	CreatePasswordReset(ctx context.Context, reset *models.PasswordReset) error
	ConsumePasswordReset(ctx context.Context, tokenHash string) (*models.PasswordReset, error)
}

type ResetMailer interface {
	SendPasswordReset(to, token string) error
}

type Service struct {
	users  UserStore
	tokens *TokenIssuer
	mailer ResetMailer
	logger *zap.Logger
}

func NewService(users UserStore, tokens *TokenIssuer, mailer ResetMailer, logger *zap.Logger) *Service {
	return &Service{users: users, tokens: tokens, mailer: mailer, logger: logger}
}

func (s *Service) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleCustomer,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return user, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if !CheckPassword(user.PasswordHash, password) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// RequestPasswordReset genera el token, guarda solo su hash y lo envía
// por correo. Un email inexistente no se distingue para el llamador.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil
		}
		return err
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return err
	}
	token := hex.EncodeToString(raw)

	reset := &models.PasswordReset{
		UserID:    user.ID,
		TokenHash: hashToken(token),
		ExpiresAt: time.Now().Add(resetTokenTTL),
	}
	if err := s.users.CreatePasswordReset(ctx, reset); err != nil {
		return err
	}

	go func() {
		if err := s.mailer.SendPasswordReset(user.Email, token); err != nil {
			s.logger.Error("password reset mail failed",
				zap.String("user_id", user.ID.Hex()), zap.Error(err))
		}
	}()
	return nil
}

// ConfirmPasswordReset consume el token (un solo uso) y cambia la
// contraseña.
func (s *Service) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	reset, err := s.users.ConsumePasswordReset(ctx, hashToken(token))
	if err != nil {
		return err
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, reset.UserID, hash)
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
