package orderhandler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ordercastgo/internal/services/order"
	notifstore "ordercastgo/internal/store/notification"
	orderstore "ordercastgo/internal/store/order"
	userstore "ordercastgo/internal/store/user"
)

// notificationReader is the slice of the notification store the REST
// surface needs.
type notificationReader interface {
	ListForUser(ctx context.Context, userID string, limit int) ([]notifstore.Notification, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
	MarkRead(ctx context.Context, id uuid.UUID, userID string) (int64, error)
}

type Handler struct {
	svc    order.IOrderService
	notifs notificationReader
}

func New(svc order.IOrderService, notifs *notifstore.Store) *Handler {
	return &Handler{svc: svc, notifs: notifs}
}

func (h *Handler) Register(r gin.IRoutes) {
	r.POST("/orders", h.place)
	r.GET("/orders", h.list)
	r.GET("/orders/:id", h.info)
	r.PATCH("/orders/:id/status", h.updateStatus)
	r.POST("/orders/:id/assign", h.assign)
	r.GET("/users/:id/notifications", h.notifications)
	r.POST("/notifications/:id/read", h.markRead)
}

// @Summary		Place an order
// @Description	Creates an order and notifies all connected admins in realtime.
// @Tags			Orders
// @Param			body	body		PlaceOrderBody	true	"Order payload"
// @Success		201		{object}	orderstore.Order
// @Failure		400		{object}	ErrorResponse
// @Failure		404		{object}	ErrorResponse
// @Router			/orders [post]
func (h *Handler) place(ginCtx *gin.Context) {
	var body PlaceOrderBody
	if err := ginCtx.ShouldBindJSON(&body); err != nil {
		ginCtx.JSON(http.StatusBadRequest, &ErrorResponse{Error: err.Error()})
		return
	}

	o, err := h.svc.PlaceOrder(ginCtx.Request.Context(), body.UserID, body.Total)
	if err != nil {
		ginCtx.JSON(statusFor(err), &ErrorResponse{Error: err.Error()})
		return
	}
	ginCtx.JSON(http.StatusCreated, o)
}

// @Summary		Get order details
// @Description	Active orders are served from the Redis tracking snapshot.
// @Tags			Orders
// @Param			id	path		string	true	"Order ID"
// @Success		200	{object}	orderstore.Order
// @Failure		404	{object}	ErrorResponse
// @Router			/orders/{id} [get]
func (h *Handler) info(c *gin.Context) {
	o, err := h.svc.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(statusFor(err), &ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, o)
}

// @Summary		List orders
// @Description	Retrieves a paginated list of orders, optionally filtered by status.
// @Tags			Orders
// @Param			status	query		string	false	"Status filter"			Enums(placed,confirmed,preparing,dispatched,delivered,cancelled,paid)
// @Param			limit	query		int		false	"Max results (0-100)"	minimum(0)	maximum(100)	default(10)
// @Param			offset	query		int		false	"Offset for pagination"	minimum(0)	default(0)
// @Success		200		{array}		orderstore.Order
// @Failure		400		{object}	ErrorResponse
// @Failure		500		{object}	ErrorResponse
// @Router			/orders [get]
func (h *Handler) list(c *gin.Context) {
	var q ListOrdersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, &ErrorResponse{Error: err.Error()})
		return
	}
	out, err := h.svc.ListOrders(c.Request.Context(), q.Status, q.Limit, q.Offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, &ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, out)
}

// @Summary		Update order status
// @Description	Applies a status transition and fans the change out to the order room, the owner, and all admins.
// @Tags			Orders
// @Param			id		path	string				true	"Order ID"
// @Param			body	body	UpdateStatusBody	true	"Status payload"
// @Success		200	{object}	orderstore.Order
// @Failure		400	{object}	ErrorResponse
// @Failure		404	{object}	ErrorResponse
// @Failure		409	{object}	ErrorResponse
// @Router			/orders/{id}/status [patch]
func (h *Handler) updateStatus(ginCtx *gin.Context) {
	var body UpdateStatusBody
	if err := ginCtx.ShouldBindJSON(&body); err != nil {
		ginCtx.JSON(http.StatusBadRequest, &ErrorResponse{Error: err.Error()})
		return
	}

	o, err := h.svc.UpdateStatus(ginCtx.Request.Context(),
		ginCtx.Param("id"), body.Status, body.DeliveryStatus)
	if err != nil {
		ginCtx.JSON(statusFor(err), &ErrorResponse{Error: err.Error()})
		return
	}
	ginCtx.JSON(http.StatusOK, o)
}

// @Summary		Assign a courier
// @Description	Binds a delivery courier to the order and notifies them in realtime.
// @Tags			Orders
// @Param			id		path	string				true	"Order ID"
// @Param			body	body	AssignCourierBody	true	"Courier payload"
// @Success		200	{object}	orderstore.Order
// @Failure		400	{object}	ErrorResponse
// @Failure		409	{object}	ErrorResponse
// @Router			/orders/{id}/assign [post]
func (h *Handler) assign(ginCtx *gin.Context) {
	var body AssignCourierBody
	if err := ginCtx.ShouldBindJSON(&body); err != nil {
		ginCtx.JSON(http.StatusBadRequest, &ErrorResponse{Error: err.Error()})
		return
	}

	o, err := h.svc.AssignCourier(ginCtx.Request.Context(), ginCtx.Param("id"), body.CourierID)
	if err != nil {
		ginCtx.JSON(statusFor(err), &ErrorResponse{Error: err.Error()})
		return
	}
	ginCtx.JSON(http.StatusOK, o)
}

// @Summary		List a user's notifications
// @Tags			Notifications
// @Param			id		path		string	true	"User ID"
// @Param			limit	query		int		false	"Max results"	default(20)
// @Success		200		{array}		notifstore.Notification
// @Failure		400		{object}	ErrorResponse
// @Router			/users/{id}/notifications [get]
func (h *Handler) notifications(c *gin.Context) {
	var q ListNotificationsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, &ErrorResponse{Error: err.Error()})
		return
	}
	out, err := h.notifs.ListForUser(c.Request.Context(), c.Param("id"), q.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, &ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, out)
}

// @Summary		Mark a notification read
// @Tags			Notifications
// @Param			id		path	string			true	"Notification ID"
// @Param			body	body	MarkReadBody	true	"Recipient payload"
// @Success		200	{object}	MarkReadResponse
// @Failure		400	{object}	ErrorResponse
// @Failure		404	{object}	ErrorResponse
// @Router			/notifications/{id}/read [post]
func (h *Handler) markRead(ginCtx *gin.Context) {
	var body MarkReadBody
	if err := ginCtx.ShouldBindJSON(&body); err != nil {
		ginCtx.JSON(http.StatusBadRequest, &ErrorResponse{Error: err.Error()})
		return
	}
	id, err := uuid.Parse(ginCtx.Param("id"))
	if err != nil {
		ginCtx.JSON(http.StatusBadRequest, &ErrorResponse{Error: "invalid notification id"})
		return
	}

	unread, err := h.notifs.MarkRead(ginCtx.Request.Context(), id, body.UserID)
	if err != nil {
		if errors.Is(err, notifstore.ErrNotFound) {
			ginCtx.JSON(http.StatusNotFound, &ErrorResponse{Error: err.Error()})
			return
		}
		ginCtx.JSON(http.StatusInternalServerError, &ErrorResponse{Error: err.Error()})
		return
	}
	ginCtx.JSON(http.StatusOK, &MarkReadResponse{Unread: unread})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, orderstore.ErrNotFound), errors.Is(err, userstore.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, orderstore.ErrOrderClosed):
		return http.StatusConflict
	case errors.Is(err, orderstore.ErrInvalidStatus):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
