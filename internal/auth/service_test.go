package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"ecommerce-api/internal/models"
	"ecommerce-api/internal/repository"
)

type fakeUserStore struct {
	mu      sync.Mutex
	users   map[primitive.ObjectID]*models.User
	byEmail map[string]primitive.ObjectID
	resets  map[string]*models.PasswordReset
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		users:   make(map[primitive.ObjectID]*models.User),
		byEmail: make(map[string]primitive.ObjectID),
		resets:  make(map[string]*models.PasswordReset),
	}
}

func (f *fakeUserStore) Create(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.byEmail[user.Email]; exists {
		return repository.ErrDuplicate
	}
	user.ID = primitive.NewObjectID()
	f.users[user.ID] = user
	f.byEmail[user.Email] = user.ID
	return nil
}

func (f *fakeUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.byEmail[email]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *f.users[id]
	return &cp, nil
}

func (f *fakeUserStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserStore) UpdatePassword(_ context.Context, id primitive.ObjectID, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (f *fakeUserStore) CreatePasswordReset(_ context.Context, reset *models.PasswordReset) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets[reset.TokenHash] = reset
	return nil
}

func (f *fakeUserStore) ConsumePasswordReset(_ context.Context, tokenHash string) (*models.PasswordReset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	reset, ok := f.resets[tokenHash]
	if !ok || reset.Used || time.Now().After(reset.ExpiresAt) {
		return nil, repository.ErrResetNotFound
	}
	reset.Used = true
	return reset, nil
}

type fakeResetMailer struct {
	tokens chan string
}

func (f *fakeResetMailer) SendPasswordReset(_, token string) error {
	f.tokens <- token
	return nil
}

func newAuthFixture() (*Service, *fakeUserStore, *fakeResetMailer) {
	store := newFakeUserStore()
	mailer := &fakeResetMailer{tokens: make(chan string, 1)}
	tokens := NewTokenIssuer("test-secret", time.Hour)
	return NewService(store, tokens, mailer, zap.NewNop()), store, mailer
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _, _ := newAuthFixture()

	user, err := svc.Register(context.Background(), "Ana", "ana@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, models.RoleCustomer, user.Role)
	assert.NotEqual(t, "s3cret-pass", user.PasswordHash)

	token, logged, err := svc.Login(context.Background(), "ana@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, user.ID, logged.ID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newAuthFixture()

	_, err := svc.Register(context.Background(), "Ana", "ana@example.com", "s3cret-pass")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "Otra Ana", "ana@example.com", "otra-pass")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLoginInvalidCredentials(t *testing.T) {
	svc, _, _ := newAuthFixture()
	_, err := svc.Register(context.Background(), "Ana", "ana@example.com", "s3cret-pass")
	require.NoError(t, err)

	_, _, err = svc.Login(context.Background(), "ana@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// El email inexistente produce el mismo error que la contraseña
	// incorrecta.
	_, _, err = svc.Login(context.Background(), "nadie@example.com", "s3cret-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestPasswordResetFlow(t *testing.T) {
	svc, store, mailer := newAuthFixture()
	_, err := svc.Register(context.Background(), "Ana", "ana@example.com", "old-pass")
	require.NoError(t, err)

	require.NoError(t, svc.RequestPasswordReset(context.Background(), "ana@example.com"))

	var token string
	select {
	case token = <-mailer.tokens:
	case <-time.After(2 * time.Second):
		t.Fatal("reset mail was never sent")
	}

	// Solo el hash del token queda guardado.
	_, stored := store.resets[token]
	assert.False(t, stored)

	require.NoError(t, svc.ConfirmPasswordReset(context.Background(), token, "new-pass"))

	_, _, err = svc.Login(context.Background(), "ana@example.com", "new-pass")
	require.NoError(t, err)
	_, _, err = svc.Login(context.Background(), "ana@example.com", "old-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// El token es de un solo uso.
	err = svc.ConfirmPasswordReset(context.Background(), token, "another-pass")
	assert.ErrorIs(t, err, repository.ErrResetNotFound)
}

func TestPasswordResetUnknownEmailIsSilent(t *testing.T) {
	svc, _, mailer := newAuthFixture()

	require.NoError(t, svc.RequestPasswordReset(context.Background(), "nadie@example.com"))

	select {
	case <-mailer.tokens:
		t.Fatal("no mail expected for unknown email")
	case <-time.After(100 * time.Millisecond):
	}
}
