package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"messmate/metrics"
	"messmate/models"
	"messmate/notify"
	"messmate/store"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// OrderLineInput is one requested dish. Price and quantity are optional and
// tolerate numeric strings.
type OrderLineInput struct {
	Name     string   `json:"name"`
	Price    *float64 `json:"price"`
	Quantity *int     `json:"quantity"`
	Image    string   `json:"image"`
}

func (l *OrderLineInput) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return InvalidInput("Invalid order item")
	}
	res := gjson.ParseBytes(data)
	if !res.IsObject() {
		return InvalidInput("Invalid order item")
	}
	*l = OrderLineInput{
		Name:  strings.TrimSpace(res.Get("name").String()),
		Image: res.Get("image").String(),
	}
	if v := res.Get("price"); v.Exists() && v.Type != gjson.Null {
		price := v.Float()
		l.Price = &price
	}
	if v := res.Get("quantity"); v.Exists() && v.Type != gjson.Null {
		raw := v.Float()
		if raw != math.Trunc(raw) {
			return InvalidInput("Quantity must be a whole number.")
		}
		qty := int(raw)
		l.Quantity = &qty
	}
	return nil
}

type PlaceOrderInput struct {
	MessID   models.MessRef   `json:"mess_id"`
	MessName string           `json:"mess_name"`
	Items    []OrderLineInput `json:"items"`
}

type OrderService struct {
	orders   store.Orders
	messes   store.Messes
	users    store.Users
	notifier notify.Notifier
	log      *logrus.Logger
}

func NewOrderService(orders store.Orders, messes store.Messes, users store.Users, notifier notify.Notifier, log *logrus.Logger) *OrderService {
	return &OrderService{orders: orders, messes: messes, users: users, notifier: notifier, log: log}
}

// PlaceOrder enriches every requested line from the target mess menu and
// stores the order. Lines that match a priced menu item are charged the
// catalog price; the client price is only used when no priced match exists.
func (s *OrderService) PlaceOrder(ctx context.Context, actor Actor, in PlaceOrderInput) (models.Order, error) {
	if !actor.Authenticated() {
		return models.Order{}, Unauthorized("Unauthorized: user not logged in")
	}
	if len(in.Items) == 0 {
		return models.Order{}, InvalidInput("No food items provided.")
	}

	var mess *models.Mess
	if !in.MessID.IsZero() {
		found, err := s.messes.GetMessByRef(ctx, in.MessID)
		switch {
		case err == nil:
			mess = &found
		case errors.Is(err, store.ErrNotFound):
			s.log.WithField("mess_id", in.MessID.String()).Debug("order for unknown mess, lines not enriched")
		default:
			return models.Order{}, Internal("Failed to place order", err)
		}
	}

	lines := make([]models.OrderLine, 0, len(in.Items))
	total := decimal.Zero
	for _, item := range in.Items {
		line, err := enrichLine(item, mess)
		if err != nil {
			return models.Order{}, err
		}
		total = total.Add(decimal.NewFromFloat(line.Price).Mul(decimal.NewFromInt(int64(line.Quantity))))
		lines = append(lines, line)
	}

	order := models.Order{
		UserID:     actor.UserID,
		MessID:     in.MessID,
		MessName:   strings.TrimSpace(in.MessName),
		Items:      lines,
		TotalPrice: total.Round(2).InexactFloat64(),
		Status:     models.OrderStatusConfirmed,
	}
	if order.MessID.IsZero() {
		order.MessID = models.NoMessID
		if mess != nil {
			order.MessID = mess.Ref()
		}
	}
	if order.MessName == "" {
		order.MessName = models.UnknownMessName
		if mess != nil && mess.Name != "" {
			order.MessName = mess.Name
		}
	}

	created, err := s.orders.CreateOrder(ctx, order)
	if err != nil {
		return models.Order{}, Internal("Failed to place order", err)
	}

	metrics.RecordOrderPlaced(created.TotalPrice)
	s.log.WithFields(logrus.Fields{
		"order_id": created.ID.Hex(),
		"mess_id":  created.MessID.String(),
		"lines":    len(created.Items),
		"total":    created.TotalPrice,
	}).Info("order placed")

	go s.sendConfirmation(created)
	return created, nil
}

func enrichLine(item OrderLineInput, mess *models.Mess) (models.OrderLine, error) {
	if item.Name == "" {
		return models.OrderLine{}, InvalidInput("Every item needs a name.")
	}
	line := models.OrderLine{
		Name:     item.Name,
		Quantity: 1,
		Image:    item.Image,
		Type:     models.TypeVeg,
		Category: models.DefaultCategory,
	}
	if item.Quantity != nil && *item.Quantity != 0 {
		if *item.Quantity < 0 {
			return models.OrderLine{}, InvalidInput("Quantity must be positive.")
		}
		line.Quantity = *item.Quantity
	}
	if item.Price != nil {
		if *item.Price < 0 {
			return models.OrderLine{}, InvalidInput("Price must not be negative.")
		}
		line.Price = *item.Price
	}

	if mess != nil {
		if menuItem, ok := mess.Menu.FindItem(item.Name); ok {
			line.Type = menuItem.ResolvedType()
			line.Category = menuItem.ResolvedCategory()
			if line.Image == "" {
				line.Image = menuItem.Image
			}
			if menuItem.Price > 0 {
				line.Price = menuItem.Price
			}
		}
	}
	if line.Image == "" {
		line.Image = models.DefaultImage
	}
	return line, nil
}

func (s *OrderService) sendConfirmation(order models.Order) {
	if s.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user, err := s.users.GetUser(ctx, order.UserID)
	if err != nil {
		s.log.WithError(err).WithField("order_id", order.ID.Hex()).Warn("order confirmation skipped")
		return
	}
	if err := s.notifier.OrderPlaced(ctx, user.Email, order); err != nil {
		s.log.WithError(err).WithField("order_id", order.ID.Hex()).Warn("order confirmation failed")
	}
}

// MyOrders lists the caller's orders, newest first.
func (s *OrderService) MyOrders(ctx context.Context, actor Actor) ([]models.Order, error) {
	if !actor.Authenticated() {
		return nil, Unauthorized("Unauthorized")
	}
	orders, err := s.orders.ListOrdersByUser(ctx, actor.UserID)
	if err != nil {
		return nil, Internal("Error fetching orders", err)
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, nil
}
