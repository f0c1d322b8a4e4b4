package service

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"beestore/internal/checkout"
	"beestore/internal/domain"
	"beestore/internal/ledger"
	"beestore/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAdmin(s *store) AdminService {
	return NewAdminService(s.users, s.products, s.orders, s.ledger, zap.NewNop())
}

// placedOrder checks out the scenario cart and returns the stored order.
func placedOrder(t *testing.T, s *store, userID uuid.UUID) *domain.Order {
	t.Helper()
	scenarioCart(t, s, userID)
	plan, err := newCheckout(s).Checkout(context.Background(), userID, decimal.Zero)
	require.NoError(t, err)
	return s.orders.orders[plan.Placement.Order.ID]
}

func TestAdmin_Dashboard(t *testing.T) {
	s := newStore()
	s.addUser("queenbee", domain.RoleAdmin, "0")
	s.addUser("honeybee", domain.RoleCustomer, "0")
	s.addUser("worker01", domain.RoleCustomer, "0")
	s.products.add("Acacia Honey", "10.00", "1.00")

	stats, err := newAdmin(s).Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.Stats{Products: 1, Users: 3, Admins: 1}, *stats)
}

func TestAdmin_ProductCRUD(t *testing.T) {
	s := newStore()
	admin := newAdmin(s)
	ctx := context.Background()

	created, err := admin.CreateProduct(ctx, ProductInput{
		Name:     " Clover Honey ",
		Category: "Honey",
		Price:    decimal.RequireFromString("12.50"),
		BeeCoin:  decimal.RequireFromString("1.25"),
		Stock:    7,
	})
	require.NoError(t, err)
	assert.Equal(t, "Clover Honey", created.Name)

	updated, err := admin.UpdateProduct(ctx, created.ID, ProductInput{
		Name:     "Clover Honey 500g",
		Category: "Honey",
		Price:    decimal.RequireFromString("14.00"),
		BeeCoin:  decimal.RequireFromString("1.40"),
		Stock:    3,
	})
	require.NoError(t, err)
	assert.True(t, s.products.products[created.ID].Price.Equal(updated.Price))

	require.NoError(t, admin.DeleteProduct(ctx, created.ID))
	assert.ErrorIs(t, admin.DeleteProduct(ctx, created.ID), repository.ErrProductNotFound)

	_, err = admin.UpdateProduct(ctx, uuid.New(), ProductInput{Name: "x"})
	assert.ErrorIs(t, err, repository.ErrProductNotFound)
}

func TestAdmin_ProductAmountsOutOfRange(t *testing.T) {
	s := newStore()
	admin := newAdmin(s)
	ctx := context.Background()

	for name, in := range map[string]ProductInput{
		"negative price": {Name: "Bad", Price: decimal.NewFromInt(-1)},
		"huge price":     {Name: "Bad", Price: decimal.RequireFromString("100000000")},
		"huge rate":      {Name: "Bad", Price: decimal.NewFromInt(1), BeeCoin: decimal.NewFromInt(1000)},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := admin.CreateProduct(ctx, in)
			assert.ErrorIs(t, err, domain.ErrInvalidAmount)
		})
	}

	_, err := admin.CreateProduct(ctx, ProductInput{Name: "Bad", Price: decimal.NewFromInt(1), Stock: -1})
	assert.ErrorIs(t, err, domain.ErrNegativeStock)
	assert.Empty(t, s.products.products)
}

func TestAdmin_AdjustBalanceBeyondColumn(t *testing.T) {
	s := newStore()
	admin := newAdmin(s)
	bee := s.addUser("honeybee", domain.RoleCustomer, "99999999")
	ctx := context.Background()

	_, err := admin.AdjustBalance(ctx, bee.ID, decimal.RequireFromString("100000000"), "")
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = admin.AdjustBalance(ctx, bee.ID, decimal.NewFromInt(1), "")
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	assert.True(t, s.users.users[bee.ID].BeeCoins.Equal(decimal.NewFromInt(99999999)))

	acct, err := admin.AdjustBalance(ctx, bee.ID, decimal.RequireFromString("0.99"), "")
	require.NoError(t, err)
	assert.True(t, acct.Balance.Equal(domain.MaxMoney))
}

func TestAdmin_Users(t *testing.T) {
	s := newStore()
	admin := newAdmin(s)
	ctx := context.Background()

	queen, err := admin.CreateUser(ctx, UserInput{
		Login: "queenbee", Email: "queen@beestore.test", Password: "Secret123!", FullName: "Queen", Role: domain.RoleAdmin,
	})
	require.NoError(t, err)
	assert.True(t, queen.IsAdmin())

	_, err = admin.CreateUser(ctx, UserInput{
		Login: "queenbee", Email: "other@beestore.test", Password: "Secret123!", FullName: "Queen", Role: domain.RoleCustomer,
	})
	assert.ErrorIs(t, err, repository.ErrUserAlreadyExists)

	_, err = admin.CreateUser(ctx, UserInput{Login: "weakbee", Email: "weak@beestore.test", Password: "weak", Role: domain.RoleCustomer})
	assert.ErrorIs(t, err, ErrWeakPassword)

	bee := s.addUser("honeybee", domain.RoleCustomer, "4")
	updated, err := admin.UpdateUser(ctx, bee.ID, UserInput{
		Email: "honey@beestore.test", FullName: "Honey", Password: "Fresh456#",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleCustomer, updated.Role, "empty role keeps the current one")
	assert.True(t, s.users.users[bee.ID].BeeCoins.Equal(decimal.NewFromInt(4)), "balance untouched")
	assert.NoError(t, verifyPassword(s.users.users[bee.ID].PasswordHash, "Fresh456#"))

	users, err := admin.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestAdmin_UpdateUserRejectedPasswordChangesNothing(t *testing.T) {
	s := newStore()
	admin := newAdmin(s)
	bee := s.addUser("honeybee", domain.RoleCustomer, "0")
	before := *s.users.users[bee.ID]
	ctx := context.Background()

	for name, password := range map[string]string{
		"weak":     "weak",
		"too long": "Ab1!" + strings.Repeat("x", 79),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := admin.UpdateUser(ctx, bee.ID, UserInput{
				Email: "changed@beestore.test", FullName: "Changed", Role: domain.RoleAdmin, Password: password,
			})
			assert.ErrorIs(t, err, ErrWeakPassword)

			stored := s.users.users[bee.ID]
			assert.Equal(t, domain.RoleCustomer, stored.Role)
			assert.Equal(t, before.Email, stored.Email)
			assert.Equal(t, before.FullName, stored.FullName)
			assert.Equal(t, before.PasswordHash, stored.PasswordHash)
		})
	}
}

func TestAdmin_DeleteUser(t *testing.T) {
	s := newStore()
	admin := newAdmin(s)
	queen := s.addUser("queenbee", domain.RoleAdmin, "0")
	bee := s.addUser("honeybee", domain.RoleCustomer, "0")
	ctx := context.Background()

	assert.ErrorIs(t, admin.DeleteUser(ctx, queen.ID), ErrAdminUndeletable)
	assert.Contains(t, s.users.users, queen.ID)

	require.NoError(t, admin.DeleteUser(ctx, bee.ID))
	assert.NotContains(t, s.users.users, bee.ID)

	assert.ErrorIs(t, admin.DeleteUser(ctx, bee.ID), repository.ErrUserNotFound)
}

func TestAdmin_AdjustBalance(t *testing.T) {
	s := newStore()
	admin := newAdmin(s)
	bee := s.addUser("honeybee", domain.RoleCustomer, "5")
	ctx := context.Background()

	acct, err := admin.AdjustBalance(ctx, bee.ID, decimal.RequireFromString("-2.25"), "")
	require.NoError(t, err)
	assert.True(t, acct.Balance.Equal(decimal.RequireFromString("2.75")))
	assert.Equal(t, domain.TransactionRedeem, acct.Entries[0].Type)

	_, err = admin.AdjustBalance(ctx, bee.ID, decimal.NewFromInt(10), "Birthday gift")
	require.NoError(t, err)

	_, err = admin.AdjustBalance(ctx, bee.ID, decimal.NewFromInt(-100), "")
	assert.ErrorIs(t, err, ledger.ErrInsufficientBalance)

	_, err = admin.AdjustBalance(ctx, bee.ID, decimal.Zero, "")
	assert.ErrorIs(t, err, ErrZeroAdjustment)

	balance := s.users.users[bee.ID].BeeCoins
	assert.True(t, balance.Equal(decimal.RequireFromString("12.75")))
	assert.True(t, ledger.Sum(s.ledger.entries[bee.ID]).Equal(balance))
}

func TestAdmin_EditOrder(t *testing.T) {
	s := newStore()
	admin := newAdmin(s)
	bee := s.addUser("honeybee", domain.RoleCustomer, "0")
	order := placedOrder(t, s, bee.ID)
	ctx := context.Background()

	first := order.Items[0]
	second := order.Items[1]

	t.Run("quantity below one changes nothing", func(t *testing.T) {
		_, err := admin.EditOrder(ctx, order.ID, OrderEdit{Quantities: map[uuid.UUID]int{first.ID: 4, second.ID: 0}})
		assert.ErrorIs(t, err, checkout.ErrInvalidQuantity)

		stored := s.orders.orders[order.ID]
		assert.True(t, stored.TotalAmount.Equal(decimal.RequireFromString("25.00")))
		assert.Equal(t, first.Quantity, stored.Items[0].Quantity)
	})

	t.Run("unknown item", func(t *testing.T) {
		_, err := admin.EditOrder(ctx, order.ID, OrderEdit{Quantities: map[uuid.UUID]int{uuid.New(): 1}})
		assert.ErrorIs(t, err, repository.ErrOrderItemNotFound)
	})

	t.Run("re-prices at current price", func(t *testing.T) {
		s.products.products[*first.ProductID].Price = decimal.RequireFromString("12.00")

		edited, err := admin.EditOrder(ctx, order.ID, OrderEdit{Quantities: map[uuid.UUID]int{first.ID: 1}})
		require.NoError(t, err)

		// 1 × 12.00 + second line at its current price × its quantity
		want := decimal.RequireFromString("12.00").Add(second.LineTotal())
		assert.True(t, edited.TotalAmount.Equal(want), "total %s", edited.TotalAmount)
		assert.True(t, s.orders.orders[order.ID].TotalAmount.Equal(want))
	})

	t.Run("deleted product fails", func(t *testing.T) {
		delete(s.products.products, *second.ProductID)
		_, err := admin.EditOrder(ctx, order.ID, OrderEdit{Quantities: map[uuid.UUID]int{first.ID: 2}})
		assert.ErrorIs(t, err, checkout.ErrProductMissing)
	})
}

func TestAdmin_EditOrderReassignsOwner(t *testing.T) {
	s := newStore()
	admin := newAdmin(s)
	bee := s.addUser("honeybee", domain.RoleCustomer, "0")
	drone := s.addUser("drone", domain.RoleCustomer, "0")
	order := placedOrder(t, s, bee.ID)
	ctx := context.Background()

	_, err := admin.EditOrder(ctx, order.ID, OrderEdit{UserID: uuid.New()})
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
	assert.Equal(t, bee.ID, s.orders.orders[order.ID].UserID)

	edited, err := admin.EditOrder(ctx, order.ID, OrderEdit{
		Quantities: map[uuid.UUID]int{order.Items[0].ID: 3},
		UserID:     drone.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, drone.ID, edited.UserID)
	assert.Equal(t, drone.ID, s.orders.orders[order.ID].UserID)
	assert.Equal(t, 3, s.orders.orders[order.ID].Items[0].Quantity)

	edited, err = admin.EditOrder(ctx, order.ID, OrderEdit{})
	require.NoError(t, err)
	assert.Equal(t, drone.ID, edited.UserID, "zero user ID keeps the owner")
}

func TestAdmin_OrdersAndExports(t *testing.T) {
	s := newStore()
	admin := newAdmin(s)
	bee := s.addUser("honeybee", domain.RoleCustomer, "0")
	order := placedOrder(t, s, bee.ID)
	ctx := context.Background()

	orders, err := admin.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "honeybee", orders[0].UserLogin)

	var buf bytes.Buffer
	require.NoError(t, admin.ExportOrders(ctx, &buf))
	assert.Contains(t, buf.String(), order.ID.String())
	assert.Contains(t, buf.String(), "Acacia Honey × 2")

	buf.Reset()
	require.NoError(t, admin.ExportProducts(ctx, &buf))
	assert.Equal(t, 3, strings.Count(buf.String(), "\n"))

	buf.Reset()
	require.NoError(t, admin.ExportUsers(ctx, &buf))
	assert.Contains(t, buf.String(), "honeybee@beestore.test")

	got, err := admin.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, got.Items, 2)

	require.NoError(t, admin.DeleteOrder(ctx, order.ID))
	_, err = admin.GetOrder(ctx, order.ID)
	assert.ErrorIs(t, err, repository.ErrOrderNotFound)
}
