package orders

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"ecommerce-api/internal/models"
	"ecommerce-api/internal/repository"
	"ecommerce-api/internal/stock"
)

type fakeCartStore struct {
	carts   map[primitive.ObjectID]*models.Cart
	cleared map[primitive.ObjectID]bool
	findErr error
}

func newFakeCartStore() *fakeCartStore {
	return &fakeCartStore{
		carts:   make(map[primitive.ObjectID]*models.Cart),
		cleared: make(map[primitive.ObjectID]bool),
	}
}

func (f *fakeCartStore) FindByUser(_ context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	cart, ok := f.carts[userID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	return cart, nil
}

func (f *fakeCartStore) Clear(_ context.Context, userID primitive.ObjectID) error {
	f.cleared[userID] = true
	if cart, ok := f.carts[userID]; ok {
		cart.Items = nil
	}
	return nil
}

type fakeProductStore struct {
	products map[string]*models.Product
}

func (f *fakeProductStore) FindByID(_ context.Context, id string) (*models.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return p, nil
}

type fakeOrderStore struct {
	mu        sync.Mutex
	orders    map[primitive.ObjectID]*models.Order
	createErr error
	// findHook corre después de cada lectura, fuera del lock: permite
	// interponer otra escritura entre la lectura y la escritura del
	// servicio, como haría un webhook concurrente.
	findHook func()
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{orders: make(map[primitive.ObjectID]*models.Order)}
}

func (f *fakeOrderStore) Create(_ context.Context, order *models.Order) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	order.ID = primitive.NewObjectID()
	f.orders[order.ID] = order
	return nil
}

func (f *fakeOrderStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	f.mu.Lock()
	order, ok := f.orders[id]
	if !ok {
		f.mu.Unlock()
		return nil, repository.ErrOrderNotFound
	}
	cp := *order
	f.mu.Unlock()

	if f.findHook != nil {
		f.findHook()
	}
	return &cp, nil
}

// markPaid reproduce el update condicional del webhook aprobado.
func (f *fakeOrderStore) markPaid(id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[id]
	if !ok {
		return repository.ErrOrderNotFound
	}
	if order.PaymentStatus != models.PaymentStatePending {
		return repository.ErrConflict
	}
	order.PaymentStatus = models.PaymentStatePaid
	order.Status = models.OrderProcessing
	return nil
}

func (f *fakeOrderStore) FindByUser(_ context.Context, userID primitive.ObjectID, _, _ int) ([]*models.Order, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeOrderStore) UpdateStatusIf(_ context.Context, id primitive.ObjectID, from, to models.OrderStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[id]
	if !ok {
		return repository.ErrOrderNotFound
	}
	if order.Status != from {
		return repository.ErrConflict
	}
	order.Status = to
	return nil
}

func (f *fakeOrderStore) MarkCancelled(_ context.Context, id primitive.ObjectID, fromPayment, toPayment models.PaymentState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[id]
	if !ok {
		return repository.ErrOrderNotFound
	}
	cancellable := order.Status == models.OrderPending || order.Status == models.OrderProcessing
	if !cancellable || order.PaymentStatus != fromPayment {
		return repository.ErrConflict
	}
	order.Status = models.OrderCancelled
	order.PaymentStatus = toPayment
	return nil
}

type fakeUserStore struct {
	users map[primitive.ObjectID]*models.User
}

func (f *fakeUserStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return u, nil
}

// fakeReserver lleva los niveles de stock en memoria para verificar que
// las compensaciones devuelven exactamente lo reservado.
type fakeReserver struct {
	mu         sync.Mutex
	levels     map[primitive.ObjectID]int64
	reserveErr error
	released   [][]stock.Item
}

func (f *fakeReserver) ReserveAll(_ context.Context, items []stock.Item) error {
	if f.reserveErr != nil {
		return f.reserveErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, item := range items {
		f.levels[item.ProductID] -= item.Quantity
	}
	return nil
}

func (f *fakeReserver) ReleaseAll(_ context.Context, items []stock.Item) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, item := range items {
		f.levels[item.ProductID] += item.Quantity
	}
	f.released = append(f.released, items)
	return nil
}

type fakeRefunder struct {
	calls int
	err   error
}

func (f *fakeRefunder) Refund(_ context.Context, _ primitive.ObjectID) error {
	f.calls++
	return f.err
}

type fakeMailer struct {
	sent chan string
}

func (f *fakeMailer) SendOrderConfirmation(to string, _ *models.Order) error {
	f.sent <- to
	return nil
}

type fixture struct {
	svc      *Service
	carts    *fakeCartStore
	products *fakeProductStore
	orders   *fakeOrderStore
	reserver *fakeReserver
	refunder *fakeRefunder
	mailer   *fakeMailer
	userID   primitive.ObjectID
}

func newFixture() *fixture {
	f := &fixture{
		carts:    newFakeCartStore(),
		products: &fakeProductStore{products: make(map[string]*models.Product)},
		orders:   newFakeOrderStore(),
		reserver: &fakeReserver{levels: make(map[primitive.ObjectID]int64)},
		refunder: &fakeRefunder{},
		mailer:   &fakeMailer{sent: make(chan string, 1)},
		userID:   primitive.NewObjectID(),
	}
	users := &fakeUserStore{users: map[primitive.ObjectID]*models.User{
		f.userID: {ID: f.userID, Name: "Ana", Email: "ana@example.com"},
	}}
	f.svc = NewService(f.orders, f.carts, f.products, users, f.reserver, f.refunder, f.mailer, zap.NewNop())
	return f
}

func (f *fixture) addProduct(priceCents int64, discount int, stockLevel int64) *models.Product {
	p := &models.Product{
		ID:              primitive.NewObjectID(),
		Name:            "Mouse inalámbrico",
		PriceCents:      priceCents,
		Currency:        "BRL",
		Stock:           stockLevel,
		DiscountPercent: discount,
		IsActive:        true,
	}
	f.products.products[p.ID.Hex()] = p
	f.reserver.levels[p.ID] = stockLevel
	return p
}

func (f *fixture) fillCart(items ...models.CartItem) {
	f.carts.carts[f.userID] = &models.Cart{UserID: f.userID, Items: items}
}

var shipping = models.ShippingAddress{
	Street: "Rua das Flores", Number: "100",
	City: "São Paulo", State: "SP", ZipCode: "01000-000", Country: "BR",
}

func TestCreateRejectsEmptyCart(t *testing.T) {
	f := newFixture()
	f.fillCart()

	_, err := f.svc.Create(context.Background(), f.userID, CheckoutRequest{Shipping: shipping})

	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestCreateRejectsMissingCart(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Create(context.Background(), f.userID, CheckoutRequest{Shipping: shipping})

	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestCreatePropagatesCartStoreError(t *testing.T) {
	f := newFixture()
	f.carts.findErr = errors.New("connection reset")

	_, err := f.svc.Create(context.Background(), f.userID, CheckoutRequest{Shipping: shipping})

	// Una falla de infraestructura no es un carrito vacío.
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrEmptyCart)
}

func TestCreateFreezesDiscountedPricesAndTotal(t *testing.T) {
	f := newFixture()
	plain := f.addProduct(10000, 0, 10)
	discounted := f.addProduct(20000, 25, 10) // 15000 con descuento
	f.fillCart(
		models.CartItem{ProductID: plain.ID, Quantity: 2},
		models.CartItem{ProductID: discounted.ID, Quantity: 1},
	)

	order, err := f.svc.Create(context.Background(), f.userID, CheckoutRequest{
		Shipping:      shipping,
		PaymentMethod: "pix",
	})

	require.NoError(t, err)
	assert.Equal(t, int64(35000), order.TotalCents)
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, models.PaymentStatePending, order.PaymentStatus)
	require.Len(t, order.Items, 2)
	assert.Equal(t, int64(15000), order.Items[1].UnitPriceCents)

	// Stock reservado y carrito vacío.
	assert.Equal(t, int64(8), f.reserver.levels[plain.ID])
	assert.Equal(t, int64(9), f.reserver.levels[discounted.ID])
	assert.True(t, f.carts.cleared[f.userID])

	// El mail sale en segundo plano sin bloquear la respuesta.
	select {
	case to := <-f.mailer.sent:
		assert.Equal(t, "ana@example.com", to)
	case <-time.After(2 * time.Second):
		t.Fatal("confirmation mail was never sent")
	}
}

func TestCreateRejectsInactiveProduct(t *testing.T) {
	f := newFixture()
	p := f.addProduct(5000, 0, 5)
	p.IsActive = false
	f.fillCart(models.CartItem{ProductID: p.ID, Quantity: 1})

	_, err := f.svc.Create(context.Background(), f.userID, CheckoutRequest{Shipping: shipping})

	assert.ErrorIs(t, err, ErrProductUnavailable)
	assert.Empty(t, f.orders.orders)
}

func TestCreateInsufficientStockCreatesNothing(t *testing.T) {
	f := newFixture()
	p := f.addProduct(5000, 0, 1)
	f.fillCart(models.CartItem{ProductID: p.ID, Quantity: 3})
	f.reserver.reserveErr = repository.ErrInsufficientStock

	_, err := f.svc.Create(context.Background(), f.userID, CheckoutRequest{Shipping: shipping})

	require.ErrorIs(t, err, repository.ErrInsufficientStock)
	assert.Empty(t, f.orders.orders)
	assert.False(t, f.carts.cleared[f.userID])
	assert.Equal(t, int64(1), f.reserver.levels[p.ID])
}

func TestCreateReleasesStockWhenInsertFails(t *testing.T) {
	f := newFixture()
	p := f.addProduct(5000, 0, 10)
	f.fillCart(models.CartItem{ProductID: p.ID, Quantity: 4})
	f.orders.createErr = errors.New("write concern error")

	_, err := f.svc.Create(context.Background(), f.userID, CheckoutRequest{Shipping: shipping})

	require.Error(t, err)
	// La compensación devolvió las 4 unidades reservadas.
	assert.Equal(t, int64(10), f.reserver.levels[p.ID])
	require.Len(t, f.reserver.released, 1)
	assert.False(t, f.carts.cleared[f.userID])
}

func TestGetEnforcesOwnership(t *testing.T) {
	f := newFixture()
	order := &models.Order{UserID: f.userID, Status: models.OrderPending}
	require.NoError(t, f.orders.Create(context.Background(), order))

	_, err := f.svc.Get(context.Background(), order.ID, primitive.NewObjectID(), false)
	assert.ErrorIs(t, err, ErrNotAllowed)

	got, err := f.svc.Get(context.Background(), order.ID, primitive.NewObjectID(), true)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)
}

func TestUpdateStatusValidatesTransitions(t *testing.T) {
	f := newFixture()
	order := &models.Order{UserID: f.userID, Status: models.OrderPending}
	require.NoError(t, f.orders.Create(context.Background(), order))

	err := f.svc.UpdateStatus(context.Background(), order.ID, models.OrderDelivered)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	require.NoError(t, f.svc.UpdateStatus(context.Background(), order.ID, models.OrderProcessing))
	require.NoError(t, f.svc.UpdateStatus(context.Background(), order.ID, models.OrderShipped))
	require.NoError(t, f.svc.UpdateStatus(context.Background(), order.ID, models.OrderDelivered))

	// Entregada es terminal.
	err = f.svc.UpdateStatus(context.Background(), order.ID, models.OrderCancelled)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCancelUnpaidOrderReleasesStock(t *testing.T) {
	f := newFixture()
	p := f.addProduct(5000, 0, 10)
	f.reserver.levels[p.ID] = 7 // 3 reservadas por la orden
	order := &models.Order{
		UserID:        f.userID,
		Status:        models.OrderPending,
		PaymentStatus: models.PaymentStatePending,
		Items:         []models.OrderItem{{ProductID: p.ID, Quantity: 3, UnitPriceCents: 5000}},
	}
	require.NoError(t, f.orders.Create(context.Background(), order))

	err := f.svc.Cancel(context.Background(), order.ID, f.userID, false)

	require.NoError(t, err)
	assert.Equal(t, 0, f.refunder.calls)
	assert.Equal(t, int64(10), f.reserver.levels[p.ID])

	got, err := f.orders.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, got.Status)

	// La segunda cancelación no libera stock de nuevo.
	err = f.svc.Cancel(context.Background(), order.ID, f.userID, false)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, int64(10), f.reserver.levels[p.ID])
	assert.Len(t, f.reserver.released, 1)
}

func TestCancelLosesRaceAgainstPaymentWebhook(t *testing.T) {
	f := newFixture()
	p := f.addProduct(5000, 0, 10)
	order := &models.Order{
		UserID:        f.userID,
		Status:        models.OrderPending,
		PaymentStatus: models.PaymentStatePending,
		Items:         []models.OrderItem{{ProductID: p.ID, Quantity: 2, UnitPriceCents: 5000}},
	}
	require.NoError(t, f.orders.Create(context.Background(), order))

	// El webhook aprueba el pago entre la lectura de Cancel y su
	// escritura: la cancelación debe perder, no pisar el estado pagado.
	f.orders.findHook = func() {
		f.orders.findHook = nil
		require.NoError(t, f.orders.markPaid(order.ID))
	}

	err := f.svc.Cancel(context.Background(), order.ID, f.userID, false)

	assert.ErrorIs(t, err, repository.ErrConflict)
	assert.Equal(t, 0, f.refunder.calls)
	assert.Empty(t, f.reserver.released)

	got, err := f.orders.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatePaid, got.PaymentStatus)
	assert.Equal(t, models.OrderProcessing, got.Status)

	// El reintento ve la orden pagada y toma el camino del reembolso.
	require.NoError(t, f.svc.Cancel(context.Background(), order.ID, f.userID, false))
	assert.Equal(t, 1, f.refunder.calls)
}

func TestCancelPaidOrderRefunds(t *testing.T) {
	f := newFixture()
	p := f.addProduct(5000, 0, 10)
	order := &models.Order{
		UserID:        f.userID,
		Status:        models.OrderProcessing,
		PaymentStatus: models.PaymentStatePaid,
		Items:         []models.OrderItem{{ProductID: p.ID, Quantity: 1, UnitPriceCents: 5000}},
	}
	require.NoError(t, f.orders.Create(context.Background(), order))

	err := f.svc.Cancel(context.Background(), order.ID, f.userID, false)

	require.NoError(t, err)
	assert.Equal(t, 1, f.refunder.calls)
}

func TestCancelRejectsForeignOrder(t *testing.T) {
	f := newFixture()
	order := &models.Order{UserID: primitive.NewObjectID(), Status: models.OrderPending}
	require.NoError(t, f.orders.Create(context.Background(), order))

	err := f.svc.Cancel(context.Background(), order.ID, f.userID, false)

	assert.ErrorIs(t, err, ErrNotAllowed)
}

func TestCancelRejectsShippedOrder(t *testing.T) {
	f := newFixture()
	order := &models.Order{UserID: f.userID, Status: models.OrderShipped}
	require.NoError(t, f.orders.Create(context.Background(), order))

	err := f.svc.Cancel(context.Background(), order.ID, f.userID, false)

	assert.ErrorIs(t, err, ErrInvalidTransition)
}
