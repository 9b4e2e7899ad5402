package order

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/foodya/foodya-backend/internal/auth"
	"github.com/foodya/foodya-backend/internal/config"
	"github.com/foodya/foodya-backend/internal/dto"
	"github.com/foodya/foodya-backend/internal/entity"
	"github.com/foodya/foodya-backend/pkg/errorbank"
)

// memoryStore is an in-memory Store used to exercise the service without a
// database. Update applies the mutate callback under the store lock, which
// mirrors the row-lock semantics of the real repository.
type memoryStore struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*entity.Order
}

func newMemoryStore() *memoryStore {
	return &memoryStore{orders: make(map[uuid.UUID]*entity.Order)}
}

func (m *memoryStore) Create(_ context.Context, order *entity.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[order.ID] = order
	return nil
}

func (m *memoryStore) GetByID(_ context.Context, id uuid.UUID) (*entity.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return order, nil
}

func (m *memoryStore) Update(_ context.Context, id uuid.UUID, mutate func(*entity.Order) error) (*entity.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	if err := mutate(order); err != nil {
		return nil, err
	}
	order.UpdatedAt = time.Now().UTC()
	return order, nil
}

func (m *memoryStore) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[id]; !ok {
		return ErrNotFound
	}
	delete(m.orders, id)
	return nil
}

func (m *memoryStore) ListByCustomer(_ context.Context, customerID uuid.UUID) ([]*entity.Order, error) {
	return m.filter(func(o *entity.Order) bool { return o.CustomerID == customerID }), nil
}

func (m *memoryStore) ListActiveByCustomer(_ context.Context, customerID uuid.UUID) ([]*entity.Order, error) {
	return m.filter(func(o *entity.Order) bool {
		return o.CustomerID == customerID && o.Status.Active()
	}), nil
}

func (m *memoryStore) ListByRestaurant(_ context.Context, restaurantID uuid.UUID) ([]*entity.Order, error) {
	return m.filter(func(o *entity.Order) bool { return o.RestaurantID == restaurantID }), nil
}

func (m *memoryStore) Search(_ context.Context, filter SearchFilter) ([]*entity.Order, error) {
	return m.filter(func(o *entity.Order) bool {
		if filter.Status != nil && o.Status != *filter.Status {
			return false
		}
		if filter.RestaurantID != nil && o.RestaurantID != *filter.RestaurantID {
			return false
		}
		if filter.CustomerID != nil && o.CustomerID != *filter.CustomerID {
			return false
		}
		if filter.StartDate != nil && o.OrderDate.Before(*filter.StartDate) {
			return false
		}
		if filter.EndDate != nil && o.OrderDate.After(*filter.EndDate) {
			return false
		}
		return true
	}), nil
}

func (m *memoryStore) SumDeliveredRevenue(_ context.Context, restaurantID uuid.UUID, start, end time.Time) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum float64
	for _, o := range m.orders {
		if o.RestaurantID != restaurantID || o.Status != entity.StatusDelivered {
			continue
		}
		if o.OrderDate.Before(start) || o.OrderDate.After(end) {
			continue
		}
		sum += o.TotalPrice
	}
	return sum, nil
}

func (m *memoryStore) filter(keep func(*entity.Order) bool) []*entity.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.Order
	for _, o := range m.orders {
		if keep(o) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderDate.After(out[j].OrderDate) })
	return out
}

// stubCatalog serves fixed restaurants and menu items.
type stubCatalog struct {
	restaurants map[uuid.UUID]*entity.Restaurant
	items       map[uuid.UUID]*entity.MenuItem
}

func (c *stubCatalog) GetRestaurant(_ context.Context, id uuid.UUID) (*entity.Restaurant, error) {
	r, ok := c.restaurants[id]
	if !ok {
		return nil, ErrCatalogNotFound
	}
	return r, nil
}

func (c *stubCatalog) GetMenuItem(_ context.Context, id uuid.UUID) (*entity.MenuItem, error) {
	item, ok := c.items[id]
	if !ok {
		return nil, ErrCatalogNotFound
	}
	return item, nil
}

type fixture struct {
	svc     *Service
	store   *memoryStore
	catalog *stubCatalog

	restaurant  *entity.Restaurant
	pho         *entity.MenuItem
	rolls       *entity.MenuItem
	unavailable *entity.MenuItem

	customer auth.Principal
	merchant auth.Principal
	admin    auth.Principal
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	restaurant := &entity.Restaurant{
		ID:       uuid.New(),
		Name:     "Pho Corner",
		IsOpen:   true,
		IsActive: true,
	}
	pho := &entity.MenuItem{
		ID:           uuid.New(),
		RestaurantID: restaurant.ID,
		Name:         "Pho Bo",
		Price:        12.99,
		IsAvailable:  true,
		IsActive:     true,
	}
	rolls := &entity.MenuItem{
		ID:           uuid.New(),
		RestaurantID: restaurant.ID,
		Name:         "Goi Cuon",
		Price:        4.50,
		IsAvailable:  true,
		IsActive:     true,
	}
	unavailable := &entity.MenuItem{
		ID:           uuid.New(),
		RestaurantID: restaurant.ID,
		Name:         "Bun Cha",
		Price:        9.00,
		IsAvailable:  false,
		IsActive:     true,
	}

	catalog := &stubCatalog{
		restaurants: map[uuid.UUID]*entity.Restaurant{restaurant.ID: restaurant},
		items: map[uuid.UUID]*entity.MenuItem{
			pho.ID:         pho,
			rolls.ID:       rolls,
			unavailable.ID: unavailable,
		},
	}
	store := newMemoryStore()

	svc := NewService(Params{
		Store:     store,
		Catalog:   catalog,
		Cache:     nil,
		Config:    config.Config{},
		Logger:    zap.NewNop(),
		Publisher: nil,
	})

	return &fixture{
		svc:         svc,
		store:       store,
		catalog:     catalog,
		restaurant:  restaurant,
		pho:         pho,
		rolls:       rolls,
		unavailable: unavailable,
		customer:    auth.Principal{UserID: uuid.New(), Role: auth.RoleCustomer},
		merchant:    auth.Principal{UserID: uuid.New(), Role: auth.RoleMerchant},
		admin:       auth.Principal{UserID: uuid.New(), Role: auth.RoleAdmin},
	}
}

func (f *fixture) createRequest(items ...dto.OrderItemRequest) dto.CreateOrderRequest {
	return dto.CreateOrderRequest{
		RestaurantID:    f.restaurant.ID,
		Items:           items,
		DeliveryAddress: "12 Nguyen Hue, District 1",
		DeliveryFee:     2.00,
	}
}

func kindOf(t *testing.T, err error) errorbank.Kind {
	t.Helper()
	require.Error(t, err)
	return errorbank.From(err).Kind()
}

func TestCreateFreezesPricesAndTotals(t *testing.T) {
	f := newFixture(t)

	order, err := f.svc.Create(context.Background(), f.customer, f.createRequest(
		dto.OrderItemRequest{MenuItemID: f.pho.ID, Quantity: 2},
	))
	require.NoError(t, err)

	assert.Equal(t, entity.StatusPending, order.Status)
	assert.Equal(t, f.customer.UserID, order.CustomerID)
	assert.Equal(t, f.restaurant.ID, order.RestaurantID)
	require.Len(t, order.Lines, 1)
	assert.Equal(t, "Pho Bo", order.Lines[0].MenuItemName)
	assert.InDelta(t, 12.99, order.Lines[0].PriceAtPurchase, 1e-9)
	assert.InDelta(t, 25.98, order.Lines[0].Subtotal, 1e-9)
	assert.InDelta(t, 27.98, order.TotalPrice, 1e-9)
	assert.Equal(t, 2, order.TotalItems)

	// A later catalog price change must not leak into the stored order.
	f.pho.Price = 99.99
	stored, err := f.store.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.InDelta(t, 12.99, stored.Lines[0].PriceAtPurchase, 1e-9)
	assert.InDelta(t, 27.98, stored.TotalPrice, 1e-9)
}

func TestCreateMultipleLines(t *testing.T) {
	f := newFixture(t)

	order, err := f.svc.Create(context.Background(), f.customer, f.createRequest(
		dto.OrderItemRequest{MenuItemID: f.pho.ID, Quantity: 1},
		dto.OrderItemRequest{MenuItemID: f.rolls.ID, Quantity: 3},
	))
	require.NoError(t, err)

	require.Len(t, order.Lines, 2)
	assert.InDelta(t, 12.99+13.50+2.00, order.TotalPrice, 1e-9)
	assert.Equal(t, 4, order.TotalItems)
}

func TestCreateRejectsUnavailableItem(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), f.customer, f.createRequest(
		dto.OrderItemRequest{MenuItemID: f.unavailable.ID, Quantity: 1},
	))
	assert.Equal(t, errorbank.KindBusinessRule, kindOf(t, err))
}

func TestCreateRejectsForeignMenuItem(t *testing.T) {
	f := newFixture(t)

	other := &entity.MenuItem{
		ID:           uuid.New(),
		RestaurantID: uuid.New(),
		Name:         "Smuggled Dish",
		Price:        5.00,
		IsAvailable:  true,
		IsActive:     true,
	}
	f.catalog.items[other.ID] = other

	_, err := f.svc.Create(context.Background(), f.customer, f.createRequest(
		dto.OrderItemRequest{MenuItemID: other.ID, Quantity: 1},
	))
	assert.Equal(t, errorbank.KindBusinessRule, kindOf(t, err))
}

func TestCreateUnknownRestaurant(t *testing.T) {
	f := newFixture(t)

	req := f.createRequest(dto.OrderItemRequest{MenuItemID: f.pho.ID, Quantity: 1})
	req.RestaurantID = uuid.New()

	_, err := f.svc.Create(context.Background(), f.customer, req)
	assert.Equal(t, errorbank.KindNotFound, kindOf(t, err))
}

func TestCreateUnknownMenuItem(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), f.customer, f.createRequest(
		dto.OrderItemRequest{MenuItemID: uuid.New(), Quantity: 1},
	))
	assert.Equal(t, errorbank.KindNotFound, kindOf(t, err))
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)

	req := f.createRequest()
	_, err := f.svc.Create(context.Background(), f.customer, req)
	assert.Equal(t, errorbank.KindBadRequest, kindOf(t, err))

	req = f.createRequest(dto.OrderItemRequest{MenuItemID: f.pho.ID, Quantity: 0})
	_, err = f.svc.Create(context.Background(), f.customer, req)
	assert.Equal(t, errorbank.KindBadRequest, kindOf(t, err))

	req = f.createRequest(dto.OrderItemRequest{MenuItemID: f.pho.ID, Quantity: 1})
	req.DeliveryAddress = ""
	_, err = f.svc.Create(context.Background(), f.customer, req)
	assert.Equal(t, errorbank.KindBadRequest, kindOf(t, err))

	// Whitespace-only addresses are blank too; nothing may be persisted.
	req = f.createRequest(dto.OrderItemRequest{MenuItemID: f.pho.ID, Quantity: 1})
	req.DeliveryAddress = "   "
	_, err = f.svc.Create(context.Background(), f.customer, req)
	assert.Equal(t, errorbank.KindBadRequest, kindOf(t, err))
	assert.Empty(t, f.store.orders)
}

func TestCreateRequiresCustomerRole(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), f.merchant, f.createRequest(
		dto.OrderItemRequest{MenuItemID: f.pho.ID, Quantity: 1},
	))
	assert.Equal(t, errorbank.KindForbidden, kindOf(t, err))
}

func TestCancelOwn(t *testing.T) {
	f := newFixture(t)

	order, err := f.svc.Create(context.Background(), f.customer, f.createRequest(
		dto.OrderItemRequest{MenuItemID: f.pho.ID, Quantity: 1},
	))
	require.NoError(t, err)

	cancelled, err := f.svc.CancelOwn(context.Background(), f.customer, order.ID, "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCancelled, cancelled.Status)
	assert.Equal(t, "changed my mind", cancelled.CancelReason)

	// A second cancel hits a terminal order.
	_, err = f.svc.CancelOwn(context.Background(), f.customer, order.ID, "again")
	assert.Equal(t, errorbank.KindInvalidTransition, kindOf(t, err))
}

func TestCancelOwnRejectsOtherCustomers(t *testing.T) {
	f := newFixture(t)

	order, err := f.svc.Create(context.Background(), f.customer, f.createRequest(
		dto.OrderItemRequest{MenuItemID: f.pho.ID, Quantity: 1},
	))
	require.NoError(t, err)

	stranger := auth.Principal{UserID: uuid.New(), Role: auth.RoleCustomer}
	_, err = f.svc.CancelOwn(context.Background(), stranger, order.ID, "not mine")
	assert.Equal(t, errorbank.KindForbidden, kindOf(t, err))

	stored, err := f.store.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPending, stored.Status)
}

func TestCancelOwnAfterShippingFails(t *testing.T) {
	f := newFixture(t)

	order, err := f.svc.Create(context.Background(), f.customer, f.createRequest(
		dto.OrderItemRequest{MenuItemID: f.pho.ID, Quantity: 1},
	))
	require.NoError(t, err)

	for _, next := range []entity.Status{entity.StatusPreparing, entity.StatusShipping} {
		_, err = f.svc.UpdateStatus(context.Background(), f.merchant, order.ID, next)
		require.NoError(t, err)
	}

	_, err = f.svc.CancelOwn(context.Background(), f.customer, order.ID, "too late")
	assert.Equal(t, errorbank.KindInvalidTransition, kindOf(t, err))
}

func TestUpdateStatusProgression(t *testing.T) {
	f := newFixture(t)

	order, err := f.svc.Create(context.Background(), f.customer, f.createRequest(
		dto.OrderItemRequest{MenuItemID: f.pho.ID, Quantity: 1},
	))
	require.NoError(t, err)

	for _, next := range []entity.Status{entity.StatusPreparing, entity.StatusShipping, entity.StatusDelivered} {
		updated, err := f.svc.UpdateStatus(context.Background(), f.merchant, order.ID, next)
		require.NoError(t, err)
		assert.Equal(t, next, updated.Status)
	}

	// Delivered is terminal.
	_, err = f.svc.UpdateStatus(context.Background(), f.merchant, order.ID, entity.StatusCancelled)
	assert.Equal(t, errorbank.KindInvalidTransition, kindOf(t, err))
}

func TestUpdateStatusRejectsSkips(t *testing.T) {
	f := newFixture(t)

	order, err := f.svc.Create(context.Background(), f.customer, f.createRequest(
		dto.OrderItemRequest{MenuItemID: f.pho.ID, Quantity: 1},
	))
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(context.Background(), f.merchant, order.ID, entity.StatusDelivered)
	assert.Equal(t, errorbank.KindInvalidTransition, kindOf(t, err))

	stored, err := f.store.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPending, stored.Status)
}

func TestUpdateStatusToCancelledSetsReason(t *testing.T) {
	f := newFixture(t)

	order, err := f.svc.Create(context.Background(), f.customer, f.createRequest(
		dto.OrderItemRequest{MenuItemID: f.pho.ID, Quantity: 1},
	))
	require.NoError(t, err)

	updated, err := f.svc.UpdateStatus(context.Background(), f.merchant, order.ID, entity.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCancelled, updated.Status)
	assert.NotEmpty(t, updated.CancelReason)
}

func TestUpdateStatusRequiresStaffRole(t *testing.T) {
	f := newFixture(t)

	order, err := f.svc.Create(context.Background(), f.customer, f.createRequest(
		dto.OrderItemRequest{MenuItemID: f.pho.ID, Quantity: 1},
	))
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(context.Background(), f.customer, order.ID, entity.StatusPreparing)
	assert.Equal(t, errorbank.KindForbidden, kindOf(t, err))
}

func TestUpdateStatusUnknownOrder(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.UpdateStatus(context.Background(), f.merchant, uuid.New(), entity.StatusPreparing)
	assert.Equal(t, errorbank.KindNotFound, kindOf(t, err))
}

func TestDelete(t *testing.T) {
	f := newFixture(t)

	order, err := f.svc.Create(context.Background(), f.customer, f.createRequest(
		dto.OrderItemRequest{MenuItemID: f.pho.ID, Quantity: 1},
	))
	require.NoError(t, err)

	err = f.svc.Delete(context.Background(), f.merchant, order.ID)
	assert.Equal(t, errorbank.KindForbidden, kindOf(t, err))

	require.NoError(t, f.svc.Delete(context.Background(), f.admin, order.ID))

	err = f.svc.Delete(context.Background(), f.admin, order.ID)
	assert.Equal(t, errorbank.KindNotFound, kindOf(t, err))
}

func TestGet(t *testing.T) {
	f := newFixture(t)

	order, err := f.svc.Create(context.Background(), f.customer, f.createRequest(
		dto.OrderItemRequest{MenuItemID: f.pho.ID, Quantity: 1},
	))
	require.NoError(t, err)

	got, err := f.svc.Get(context.Background(), f.merchant, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)

	_, err = f.svc.Get(context.Background(), f.merchant, uuid.New())
	assert.Equal(t, errorbank.KindNotFound, kindOf(t, err))

	_, err = f.svc.Get(context.Background(), f.customer, order.ID)
	assert.Equal(t, errorbank.KindForbidden, kindOf(t, err))
}

func TestListMineAndActive(t *testing.T) {
	f := newFixture(t)

	first, err := f.svc.Create(context.Background(), f.customer, f.createRequest(
		dto.OrderItemRequest{MenuItemID: f.pho.ID, Quantity: 1},
	))
	require.NoError(t, err)

	second, err := f.svc.Create(context.Background(), f.customer, f.createRequest(
		dto.OrderItemRequest{MenuItemID: f.rolls.ID, Quantity: 2},
	))
	require.NoError(t, err)

	_, err = f.svc.CancelOwn(context.Background(), f.customer, first.ID, "changed my mind")
	require.NoError(t, err)

	all, err := f.svc.ListMine(context.Background(), f.customer)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active, err := f.svc.ListMineActive(context.Background(), f.customer)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, second.ID, active[0].ID)

	other := auth.Principal{UserID: uuid.New(), Role: auth.RoleCustomer}
	none, err := f.svc.ListMine(context.Background(), other)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestAdminSearch(t *testing.T) {
	f := newFixture(t)

	now := time.Now().UTC()
	older := now.Add(-48 * time.Hour)

	reqOld := f.createRequest(dto.OrderItemRequest{MenuItemID: f.pho.ID, Quantity: 1})
	reqOld.OrderDate = &older
	oldOrder, err := f.svc.Create(context.Background(), f.customer, reqOld)
	require.NoError(t, err)

	newOrder, err := f.svc.Create(context.Background(), f.customer, f.createRequest(
		dto.OrderItemRequest{MenuItemID: f.rolls.ID, Quantity: 1},
	))
	require.NoError(t, err)

	_, err = f.svc.CancelOwn(context.Background(), f.customer, oldOrder.ID, "changed my mind")
	require.NoError(t, err)

	results, err := f.svc.AdminSearch(context.Background(), f.admin, SearchFilter{})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, newOrder.ID, results[0].ID)

	cancelled := entity.StatusCancelled
	results, err = f.svc.AdminSearch(context.Background(), f.admin, SearchFilter{Status: &cancelled})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, oldOrder.ID, results[0].ID)

	start := now.Add(-time.Hour)
	results, err = f.svc.AdminSearch(context.Background(), f.admin, SearchFilter{StartDate: &start})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, newOrder.ID, results[0].ID)

	end := start.Add(-2 * time.Hour)
	_, err = f.svc.AdminSearch(context.Background(), f.admin, SearchFilter{StartDate: &start, EndDate: &end})
	assert.Equal(t, errorbank.KindBadRequest, kindOf(t, err))

	_, err = f.svc.AdminSearch(context.Background(), f.merchant, SearchFilter{})
	assert.Equal(t, errorbank.KindForbidden, kindOf(t, err))
}

func TestRevenue(t *testing.T) {
	f := newFixture(t)

	deliver := func(items ...dto.OrderItemRequest) *entity.Order {
		order, err := f.svc.Create(context.Background(), f.customer, f.createRequest(items...))
		require.NoError(t, err)
		for _, next := range []entity.Status{entity.StatusPreparing, entity.StatusShipping, entity.StatusDelivered} {
			_, err = f.svc.UpdateStatus(context.Background(), f.merchant, order.ID, next)
			require.NoError(t, err)
		}
		return order
	}

	// 12.99 + 2.00 fee and 2*12.99 + 2.00 fee, both delivered.
	deliver(dto.OrderItemRequest{MenuItemID: f.pho.ID, Quantity: 1})
	deliver(dto.OrderItemRequest{MenuItemID: f.pho.ID, Quantity: 2})

	// Cancelled orders never count toward revenue.
	cancelled, err := f.svc.Create(context.Background(), f.customer, f.createRequest(
		dto.OrderItemRequest{MenuItemID: f.rolls.ID, Quantity: 4},
	))
	require.NoError(t, err)
	_, err = f.svc.CancelOwn(context.Background(), f.customer, cancelled.ID, "changed my mind")
	require.NoError(t, err)

	now := time.Now().UTC()
	revenue, err := f.svc.Revenue(context.Background(), f.admin, f.restaurant.ID, now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	assert.InDelta(t, 14.99+27.98, revenue, 1e-9)

	// A window with no delivered orders yields zero, not an error.
	revenue, err = f.svc.Revenue(context.Background(), f.admin, f.restaurant.ID, now.Add(-72*time.Hour), now.Add(-48*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, revenue)

	_, err = f.svc.Revenue(context.Background(), f.admin, f.restaurant.ID, now, now.Add(-time.Hour))
	assert.Equal(t, errorbank.KindBadRequest, kindOf(t, err))

	_, err = f.svc.Revenue(context.Background(), f.merchant, f.restaurant.ID, now.Add(-time.Hour), now)
	assert.Equal(t, errorbank.KindForbidden, kindOf(t, err))
}
