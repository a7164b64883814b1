package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"order-board/internal/models"
	"order-board/internal/port"
	"order-board/internal/services"
)

// AllowedCollectionMethods is sent in the Allow header of a 405 on /api/orders.
const AllowedCollectionMethods = "GET, POST"

type OrdersHandler struct {
	orderService *services.OrderService
	maxUpload    int64
}

func NewOrdersHandler(orderService *services.OrderService, maxUpload int64) *OrdersHandler {
	return &OrdersHandler{
		orderService: orderService,
		maxUpload:    maxUpload,
	}
}

// ListOrders godoc
// @Summary     List orders
// @Description Returns every order sorted by date, oldest first, with imageUrl resolved
// @Tags        orders
// @Produce     json
// @Success     200 {array}  models.Order
// @Failure     500 {object} models.ErrorResponse
// @Router      /api/orders [get]
func (h *OrdersHandler) ListOrders(c *gin.Context) {
	orders, err := h.orderService.List(c.Request.Context())
	if err != nil {
		writeError(c, err, "failed to list orders")
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	c.JSON(http.StatusOK, orders)
}

// CreateOrder godoc
// @Summary     Create an order
// @Description Accepts a JSON draft or a multipart form with an optional "image" file
// @Tags        orders
// @Accept      json,mpfd
// @Produce     json
// @Param       request body models.OrderDraft true "Order draft"
// @Success     201 {object} models.Order
// @Failure     400 {object} models.ErrorResponse
// @Failure     413 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /api/orders [post]
func (h *OrdersHandler) CreateOrder(c *gin.Context) {
	var (
		draft models.OrderDraft
		image *models.ImageUpload
	)

	if isForm(c) {
		input, upload, err := ParseOrderForm(c, h.maxUpload)
		if err != nil {
			c.JSON(formStatus(err), models.ErrorResponse{Error: "invalid form", Message: err.Error()})
			return
		}
		defer closeUpload(upload)
		draft, image = input.Draft(), upload
	} else if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(formStatus(err), models.ErrorResponse{Error: "invalid request body", Message: err.Error()})
		return
	}

	order, err := h.orderService.Create(c.Request.Context(), draft, image)
	if err != nil {
		writeError(c, err, "failed to create order")
		return
	}
	c.JSON(http.StatusCreated, order)
}

// GetOrder godoc
// @Summary     Get an order
// @Tags        orders
// @Produce     json
// @Param       id path string true "Order ID"
// @Success     200 {object} models.Order
// @Failure     404 {object} models.ErrorResponse
// @Router      /api/orders/{id} [get]
func (h *OrdersHandler) GetOrder(c *gin.Context) {
	order, err := h.orderService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, "failed to get order")
		return
	}
	c.JSON(http.StatusOK, order)
}

// UpdateOrder godoc
// @Summary     Update an order
// @Description Merges the given fields into the order. A multipart body may carry a replacement image.
// @Tags        orders
// @Accept      json,mpfd
// @Produce     json
// @Param       id      path string            true "Order ID"
// @Param       request body models.OrderPatch true "Fields to change"
// @Success     200 {object} models.Order
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     413 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /api/orders/{id} [patch]
func (h *OrdersHandler) UpdateOrder(c *gin.Context) {
	var (
		patch models.OrderPatch
		image *models.ImageUpload
	)

	if isForm(c) {
		formPatch, upload, err := ParseOrderPatchForm(c, h.maxUpload)
		if err != nil {
			c.JSON(formStatus(err), models.ErrorResponse{Error: "invalid form", Message: err.Error()})
			return
		}
		defer closeUpload(upload)
		patch, image = formPatch, upload
	} else if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(formStatus(err), models.ErrorResponse{Error: "invalid request body", Message: err.Error()})
		return
	}

	order, err := h.orderService.Update(c.Request.Context(), c.Param("id"), patch, image)
	if err != nil {
		writeError(c, err, "failed to update order")
		return
	}
	c.JSON(http.StatusOK, order)
}

// DeleteOrder godoc
// @Summary     Delete an order
// @Description Removes the order and its stored image
// @Tags        orders
// @Param       id path string true "Order ID"
// @Success     204
// @Failure     404 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /api/orders/{id} [delete]
func (h *OrdersHandler) DeleteOrder(c *gin.Context) {
	if err := h.orderService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err, "failed to delete order")
		return
	}
	c.Status(http.StatusNoContent)
}

// MethodNotAllowed answers every other method on the collection.
func (h *OrdersHandler) MethodNotAllowed(c *gin.Context) {
	c.Header("Allow", AllowedCollectionMethods)
	c.JSON(http.StatusMethodNotAllowed, models.ErrorResponse{
		Error:   "method not allowed",
		Message: "Method " + c.Request.Method + " Not Allowed",
	})
}

// RegisterRoutes mounts the JSON API under group.
func (h *OrdersHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/orders", h.ListOrders)
	group.POST("/orders", h.CreateOrder)
	group.Match([]string{
		http.MethodPut,
		http.MethodPatch,
		http.MethodDelete,
		http.MethodHead,
		http.MethodOptions,
		http.MethodConnect,
		http.MethodTrace,
	}, "/orders", h.MethodNotAllowed)

	group.GET("/orders/:id", h.GetOrder)
	group.PATCH("/orders/:id", h.UpdateOrder)
	group.DELETE("/orders/:id", h.DeleteOrder)
}

func writeError(c *gin.Context, err error, message string) {
	c.JSON(errorStatus(err), models.ErrorResponse{Error: message, Message: err.Error()})
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, port.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrNameRequired),
		errors.Is(err, models.ErrOwnerRequired),
		errors.Is(err, models.ErrInvalidState),
		errors.Is(err, services.ErrEmptyImage):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// formStatus maps a body that could not be read or parsed. Bodies cut off by
// the upload limit are 413 even when no Content-Length was sent.
func formStatus(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func isForm(c *gin.Context) bool {
	ct := c.ContentType()
	return ct == "multipart/form-data" || strings.HasPrefix(ct, "application/x-www-form-urlencoded")
}
