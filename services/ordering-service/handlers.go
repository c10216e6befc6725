package main

import (
	"errors"
	"net/http"

	"github.com/ashendes/restaurant-ordering/internal/metrics"
	"github.com/ashendes/restaurant-ordering/internal/models"
	"github.com/ashendes/restaurant-ordering/internal/order"
	"github.com/ashendes/restaurant-ordering/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const serviceName = "ordering-service"

// CircuitReporter exposes breaker state for the status endpoint
type CircuitReporter interface {
	CircuitStatus() map[string]interface{}
}

// OrderingService projects one session over HTTP
type OrderingService struct {
	session  *session.Session
	circuits CircuitReporter
}

type cartView struct {
	Items      []models.CartItem `json:"items"`
	TotalItems int               `json:"total_items"`
	TotalPrice decimal.Decimal   `json:"total_price"`
	CGST       decimal.Decimal   `json:"cgst"`
	SGST       decimal.Decimal   `json:"sgst"`
	GrandTotal decimal.Decimal   `json:"grand_total"`
}

func newCartView(cart models.Cart) cartView {
	items := cart.Items
	if items == nil {
		items = []models.CartItem{}
	}
	return cartView{
		Items:      items,
		TotalItems: cart.TotalItems(),
		TotalPrice: cart.TotalPrice(),
		CGST:       cart.CGST(),
		SGST:       cart.SGST(),
		GrandTotal: cart.GrandTotal(),
	}
}

type addItemRequest struct {
	DishID string `json:"dish_id" binding:"required"`
}

type quantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

func newRouter(svc *OrderingService) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(metrics.PrometheusMiddleware(serviceName))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	router.GET("/catalog", svc.getCatalog)
	router.POST("/catalog/refresh", svc.refreshCatalog)
	router.GET("/cuisines/:cuisineId/dishes", svc.getCuisineDishes)

	router.GET("/cart", svc.getCart)
	router.POST("/cart/items", svc.addItem)
	router.DELETE("/cart/items/:dishId", svc.removeItem)
	router.PUT("/cart/items/:dishId", svc.setQuantity)
	router.DELETE("/cart", svc.clearCart)

	router.POST("/order/place", svc.placeOrder)
	router.GET("/order/status", svc.getStatus)
	router.GET("/order/circuit-status", svc.getCircuitStatus)
	router.GET("/orders", svc.getOrders)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return router
}

func (s *OrderingService) getCatalog(c *gin.Context) {
	catalog, err := s.session.Catalog()
	if err != nil {
		respondError(c, err)
		return
	}
	if catalog == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Catalog not loaded"})
		return
	}
	c.JSON(http.StatusOK, catalog)
}

func (s *OrderingService) refreshCatalog(c *gin.Context) {
	catalog, err := s.session.RefreshCatalog(c.Request.Context())
	if err != nil {
		log.Error("Catalog refresh failed: ", err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, catalog)
}

func (s *OrderingService) getCuisineDishes(c *gin.Context) {
	dishes, err := s.session.LoadCuisineDishes(c.Request.Context(), c.Param("cuisineId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dishes": dishes})
}

func (s *OrderingService) getCart(c *gin.Context) {
	cart, err := s.session.Cart()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCartView(cart))
}

func (s *OrderingService) addItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	cart, err := s.session.AddDish(req.DishID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCartView(cart))
}

func (s *OrderingService) removeItem(c *gin.Context) {
	cart, err := s.session.RemoveDish(c.Param("dishId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCartView(cart))
}

func (s *OrderingService) setQuantity(c *gin.Context) {
	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	cart, err := s.session.SetQuantity(c.Param("dishId"), *req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCartView(cart))
}

func (s *OrderingService) clearCart(c *gin.Context) {
	if err := s.session.ClearCart(); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCartView(models.Cart{}))
}

func (s *OrderingService) placeOrder(c *gin.Context) {
	record, err := s.session.PlaceOrder(c.Request.Context())
	if err != nil {
		var commitErr *order.HistoryCommitError
		if errors.As(err, &commitErr) {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":          err.Error(),
				"transaction_id": commitErr.TransactionID,
			})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order placed successfully",
		"order":   record,
	})
}

func (s *OrderingService) getStatus(c *gin.Context) {
	status, err := s.session.Status()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (s *OrderingService) getCircuitStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.circuits.CircuitStatus())
}

func (s *OrderingService) getOrders(c *gin.Context) {
	orders := s.session.History()
	if orders == nil {
		orders = []models.OrderRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrUnknownDish),
		errors.Is(err, session.ErrUnknownCuisine),
		errors.Is(err, models.ErrNoMatchingCuisine):
		return http.StatusNotFound
	case errors.Is(err, models.ErrEmptyCart):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrInvalidIdentifier):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrPlacementInProgress),
		errors.Is(err, session.ErrSuperseded):
		return http.StatusConflict
	case errors.Is(err, session.ErrSessionClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}
