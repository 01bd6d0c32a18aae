package services

import (
	"context"
	"encoding/json"
	"testing"

	"messmate/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaceOrderEnrichesFromMenu(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.actor(t, "owner", models.RoleOwner)
	student := f.actor(t, "student", models.RoleStudent)

	for i := 0; i < 2; i++ {
		f.mess(t, owner, "filler")
	}
	mess := f.mess(t, owner, "Annapurna", models.MenuItem{Name: "Veg Thali", IsVeg: true, Category: "thali"})
	require.Equal(t, int64(3), mess.MessID)

	var in PlaceOrderInput
	require.NoError(t, json.Unmarshal([]byte(`{"mess_id":3,"items":[{"name":"Veg Thali","price":90,"quantity":2}]}`), &in))

	order, err := f.reg.Orders.PlaceOrder(ctx, student, in)
	require.NoError(t, err)

	assert.Equal(t, 180.0, order.TotalPrice)
	require.Len(t, order.Items, 1)
	assert.Equal(t, models.TypeVeg, order.Items[0].Type)
	assert.Equal(t, "thali", order.Items[0].Category)
	assert.Equal(t, models.DefaultImage, order.Items[0].Image)
	assert.Equal(t, models.MessRef("3"), order.MessID)
	assert.Equal(t, "Annapurna", order.MessName)
	assert.Equal(t, models.OrderStatusConfirmed, order.Status)
}

func TestPlaceOrderTotalsAndDefaults(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.actor(t, "owner", models.RoleOwner)
	student := f.actor(t, "student", models.RoleStudent)
	mess := f.mess(t, owner, "Annapurna",
		models.MenuItem{Name: "Chicken Biryani", Price: 150, IsVeg: false, Category: "rice", Image: "biryani.png"},
		models.MenuItem{Name: "Gulab Jamun", Price: 0, IsVeg: true, Category: "dessert"},
	)

	order, err := f.reg.Orders.PlaceOrder(ctx, student, PlaceOrderInput{
		MessID: mess.Ref(),
		Items: []OrderLineInput{
			{Name: "chicken biryani", Price: floatPtr(1), Quantity: intPtr(2)},
			{Name: "Gulab Jamun", Price: floatPtr(25.5), Quantity: intPtr(3)},
			{Name: "Masala Chai", Price: floatPtr(12.25)},
			{Name: "Lassi", Price: floatPtr(30), Quantity: intPtr(0)},
		},
	})
	require.NoError(t, err)
	require.Len(t, order.Items, 4)

	biryani := order.Items[0]
	assert.Equal(t, 150.0, biryani.Price, "catalog price wins when positive")
	assert.Equal(t, models.TypeNonVeg, biryani.Type)
	assert.Equal(t, "rice", biryani.Category)
	assert.Equal(t, "biryani.png", biryani.Image)

	assert.Equal(t, 25.5, order.Items[1].Price, "client price used when catalog price is zero")
	assert.Equal(t, "dessert", order.Items[1].Category)

	chai := order.Items[2]
	assert.Equal(t, 1, chai.Quantity)
	assert.Equal(t, models.TypeVeg, chai.Type)
	assert.Equal(t, models.DefaultCategory, chai.Category)

	assert.Equal(t, 1, order.Items[3].Quantity)

	var want float64
	for _, line := range order.Items {
		want += line.Price * float64(line.Quantity)
	}
	assert.InDelta(t, want, order.TotalPrice, 0.005)
	assert.Equal(t, 418.75, order.TotalPrice)
}

func TestPlaceOrderRejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	student := f.actor(t, "student", models.RoleStudent)

	_, err := f.reg.Orders.PlaceOrder(ctx, student, PlaceOrderInput{MessID: "1"})
	assert.Equal(t, KindInvalidInput, KindOf(err))

	_, err = f.reg.Orders.PlaceOrder(ctx, Actor{}, PlaceOrderInput{Items: []OrderLineInput{{Name: "Tea"}}})
	assert.Equal(t, KindUnauthorized, KindOf(err))

	_, err = f.reg.Orders.PlaceOrder(ctx, student, PlaceOrderInput{Items: []OrderLineInput{{Name: "Tea", Quantity: intPtr(-1)}}})
	assert.Equal(t, KindInvalidInput, KindOf(err))

	_, err = f.reg.Orders.PlaceOrder(ctx, student, PlaceOrderInput{Items: []OrderLineInput{{Price: floatPtr(10)}}})
	assert.Equal(t, KindInvalidInput, KindOf(err))

	orders, err := f.reg.Orders.MyOrders(ctx, student)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestPlaceOrderWithoutMess(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	student := f.actor(t, "student", models.RoleStudent)

	order, err := f.reg.Orders.PlaceOrder(ctx, student, PlaceOrderInput{
		MessID: "404",
		Items:  []OrderLineInput{{Name: "Tea", Price: floatPtr(10)}},
	})
	require.NoError(t, err)
	assert.Equal(t, models.MessRef("404"), order.MessID)
	assert.Equal(t, models.UnknownMessName, order.MessName)

	order, err = f.reg.Orders.PlaceOrder(ctx, student, PlaceOrderInput{
		Items: []OrderLineInput{{Name: "Tea", Price: floatPtr(10)}},
	})
	require.NoError(t, err)
	assert.Equal(t, models.MessRef(models.NoMessID), order.MessID)

	orders, err := f.reg.Orders.MyOrders(ctx, student)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, order.ID, orders[0].ID)
}

func TestOrderLineInputAcceptsStrings(t *testing.T) {
	var line OrderLineInput
	require.NoError(t, json.Unmarshal([]byte(`{"name":" Tea ","price":"12.5","quantity":"3"}`), &line))

	assert.Equal(t, "Tea", line.Name)
	require.NotNil(t, line.Price)
	assert.Equal(t, 12.5, *line.Price)
	require.NotNil(t, line.Quantity)
	assert.Equal(t, 3, *line.Quantity)
}

func TestOrderLineInputRejectsFractionalQuantity(t *testing.T) {
	for _, body := range []string{
		`{"name":"Tea","quantity":2.5}`,
		`{"name":"Tea","quantity":"0.5"}`,
	} {
		var line OrderLineInput
		err := json.Unmarshal([]byte(body), &line)
		require.Error(t, err, body)
		assert.Equal(t, KindInvalidInput, KindOf(err), body)
	}

	var line OrderLineInput
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Tea","quantity":2.0}`), &line))
	assert.Equal(t, 2, *line.Quantity)
}
