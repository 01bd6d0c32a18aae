package controllers

import (
	"errors"
	"net/http"

	"messmate/middleware"
	"messmate/services"

	"github.com/gin-gonic/gin"
)

type OrderController struct {
	orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{orders: orders}
}

func (oc *OrderController) PlaceOrder(c *gin.Context) {
	var input services.PlaceOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		var svcErr *services.Error
		if errors.As(err, &svcErr) {
			respondError(c, svcErr)
			return
		}
		badRequest(c, "Invalid order data")
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	order, err := oc.orders.PlaceOrder(ctx, middleware.Actor(c), input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Order placed successfully!",
		"order":   order,
	})
}

func (oc *OrderController) MyOrders(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	orders, err := oc.orders.MyOrders(ctx, middleware.Actor(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(orders), "orders": orders})
}
