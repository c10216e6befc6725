package emulator

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ashendes/restaurant-ordering/internal/apiclient"
	"github.com/ashendes/restaurant-ordering/internal/metrics"
	"github.com/ashendes/restaurant-ordering/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const serviceName = "partner-emulator"

// Options configures the emulator
type Options struct {
	// APIKey, when set, must match the X-Partner-API-Key header
	APIKey      string
	Catalog     []FixtureCuisine
	FailureRate float64
	SlowMin     time.Duration
	SlowMax     time.Duration
	Seed        int64
}

// Transaction is a payment the emulator accepted
type Transaction struct {
	RefNo       string    `json:"txn_ref_no"`
	TotalAmount string    `json:"total_amount"`
	TotalItems  int       `json:"total_items"`
	Timestamp   time.Time `json:"timestamp"`
}

// Server emulates the partner catalog and payment API
type Server struct {
	apiKey  string
	catalog []FixtureCuisine
	chaos   *chaos

	mu           sync.RWMutex
	transactions map[string]Transaction
}

func NewServer(opts Options) *Server {
	if opts.Catalog == nil {
		opts.Catalog = DefaultCatalog()
	}
	if opts.FailureRate <= 0 {
		opts.FailureRate = 0.4
	}
	if opts.SlowMin == 0 && opts.SlowMax == 0 {
		opts.SlowMin, opts.SlowMax = 5*time.Second, 10*time.Second
	}
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}
	return &Server{
		apiKey:       opts.APIKey,
		catalog:      opts.Catalog,
		chaos:        newChaos(opts.FailureRate, opts.SlowMin, opts.SlowMax, opts.Seed),
		transactions: make(map[string]Transaction),
	}
}

// Router builds the gin engine serving every emulator route
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(metrics.PrometheusMiddleware(serviceName))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.GET("/emulator/status", s.getStatus)

	partner := router.Group("/", s.requireAPIKey)
	partner.POST(apiclient.PathItemList, s.getItemList)
	partner.POST(apiclient.PathItemByFilter, s.getItemByFilter)
	partner.POST(apiclient.PathItemByID, s.getItemByID)
	partner.POST(apiclient.PathMakePayment, s.makePayment)

	router.POST("/chaos/enable", s.enableChaos)
	router.POST("/chaos/disable", s.disableChaos)
	router.POST("/chaos/slow", s.enableSlowMode)
	router.POST("/chaos/slow/disable", s.disableSlowMode)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return router
}

// Transactions returns the number of accepted payments
func (s *Server) Transactions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.transactions)
}

func (s *Server) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":         serviceName,
		"status":          "healthy",
		"chaos_enabled":   s.chaos.isEnabled(),
		"chaos_slow_mode": s.chaos.isSlow(),
		"transactions":    s.Transactions(),
		"timestamp":       time.Now().Format(time.RFC3339),
	})
}

func (s *Server) requireAPIKey(c *gin.Context) {
	if s.apiKey != "" && c.GetHeader(apiclient.HeaderAPIKey) != s.apiKey {
		fail(c, http.StatusUnauthorized, "Invalid partner API key")
		c.Abort()
		return
	}
	if err := s.chaos.simulate(); err != nil {
		log.WithField("action", c.GetHeader(apiclient.HeaderAction)).Warn("Chaos: Simulated partner failure")
		fail(c, http.StatusServiceUnavailable, "Partner service temporarily unavailable")
		c.Abort()
		return
	}
	c.Next()
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"response_code":    status,
		"outcome_code":     status,
		"response_message": message,
	})
}

func envelope(body gin.H) gin.H {
	body["response_code"] = http.StatusOK
	body["outcome_code"] = http.StatusOK
	body["response_message"] = "Success"
	return body
}

func (s *Server) getItemList(c *gin.Context) {
	var req models.ItemListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	if req.Page < 1 || req.Count < 1 {
		fail(c, http.StatusBadRequest, "page and count must be positive")
		return
	}

	totalPages := (len(s.catalog) + req.Count - 1) / req.Count
	start := (req.Page - 1) * req.Count
	end := start + req.Count
	if start > len(s.catalog) {
		start = len(s.catalog)
	}
	if end > len(s.catalog) {
		end = len(s.catalog)
	}

	cuisines := make([]gin.H, 0, end-start)
	totalItems := 0
	for _, cuisine := range s.catalog {
		totalItems += len(cuisine.Items)
	}
	for _, cuisine := range s.catalog[start:end] {
		cuisines = append(cuisines, cuisineJSON(cuisine, cuisine.Items))
	}

	c.JSON(http.StatusOK, envelope(gin.H{
		"page":        req.Page,
		"count":       len(cuisines),
		"total_pages": totalPages,
		"total_items": totalItems,
		"cuisines":    cuisines,
	}))
}

func (s *Server) getItemByFilter(c *gin.Context) {
	var req models.FilterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	cuisines := make([]gin.H, 0)
	for _, cuisine := range s.catalog {
		if !matchesCuisine(cuisine, req.CuisineType) {
			continue
		}
		var items []FixtureItem
		for _, item := range cuisine.Items {
			if matchesItem(item, req) {
				items = append(items, item)
			}
		}
		if len(items) == 0 {
			continue
		}
		cuisines = append(cuisines, cuisineJSON(cuisine, items))
	}

	c.JSON(http.StatusOK, envelope(gin.H{"cuisines": cuisines}))
}

func matchesCuisine(cuisine FixtureCuisine, names []string) bool {
	if len(names) == 0 {
		return true
	}
	for _, name := range names {
		if strings.EqualFold(name, cuisine.Name) {
			return true
		}
	}
	return false
}

func matchesItem(item FixtureItem, req models.FilterRequest) bool {
	if r := req.PriceRange; r != nil {
		if item.Price.LessThan(decimal.NewFromInt(int64(r.Min))) {
			return false
		}
		if r.Max > 0 && item.Price.GreaterThan(decimal.NewFromInt(int64(r.Max))) {
			return false
		}
	}
	if req.MinRating != nil && item.Rating.InexactFloat64() < *req.MinRating {
		return false
	}
	return true
}

func (s *Server) getItemByID(c *gin.Context) {
	var req models.ItemDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	for _, cuisine := range s.catalog {
		for _, item := range cuisine.Items {
			if idString(item.ID) != req.ItemID {
				continue
			}
			c.JSON(http.StatusOK, envelope(gin.H{
				"cuisine_id":        cuisine.ID,
				"cuisine_name":      cuisine.Name,
				"cuisine_image_url": cuisine.ImageURL,
				"item_id":           item.ID,
				"item_name":         item.Name,
				"item_price":        priceJSON(item),
				"item_rating":       json.Number(item.Rating.String()),
				"item_image_url":    item.ImageURL,
			}))
			return
		}
	}

	fail(c, http.StatusNotFound, "Item not found: "+req.ItemID)
}

func (s *Server) makePayment(c *gin.Context) {
	var req models.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	if err := s.validatePayment(req); err != nil {
		log.WithField("total_amount", req.TotalAmount).Warn("Rejected payment: ", err)
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	txn := Transaction{
		RefNo:       "TXN" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:12]),
		TotalAmount: req.TotalAmount,
		TotalItems:  req.TotalItems,
		Timestamp:   time.Now(),
	}

	s.mu.Lock()
	s.transactions[txn.RefNo] = txn
	s.mu.Unlock()

	log.WithFields(log.Fields{
		"txn_ref_no":   txn.RefNo,
		"total_amount": req.TotalAmount,
		"total_items":  req.TotalItems,
	}).Info("Payment processed successfully")

	c.JSON(http.StatusOK, models.PaymentResponse{
		ResponseCode:    http.StatusOK,
		OutcomeCode:     http.StatusOK,
		ResponseMessage: "Transaction completed successfully",
		TxnRefNo:        txn.RefNo,
	})
}

func (s *Server) validatePayment(req models.PaymentRequest) error {
	if len(req.Data) == 0 {
		return fmt.Errorf("payment has no items")
	}
	if _, err := decimal.NewFromString(req.TotalAmount); err != nil {
		return fmt.Errorf("invalid total_amount %q", req.TotalAmount)
	}

	quantity := 0
	for _, item := range req.Data {
		if item.ItemQuantity < 1 {
			return fmt.Errorf("item %d has quantity %d", item.ItemID, item.ItemQuantity)
		}
		if !s.knownItem(item.CuisineID, item.ItemID) {
			return fmt.Errorf("unknown item %d for cuisine %d", item.ItemID, item.CuisineID)
		}
		quantity += item.ItemQuantity
	}
	if quantity != req.TotalItems {
		return fmt.Errorf("total_items %d does not match item quantities %d", req.TotalItems, quantity)
	}
	return nil
}

func (s *Server) knownItem(cuisineID, itemID int) bool {
	for _, cuisine := range s.catalog {
		if idString(cuisine.ID) != fmt.Sprint(cuisineID) {
			continue
		}
		for _, item := range cuisine.Items {
			if idString(item.ID) == fmt.Sprint(itemID) {
				return true
			}
		}
	}
	return false
}

func cuisineJSON(cuisine FixtureCuisine, items []FixtureItem) gin.H {
	out := make([]gin.H, 0, len(items))
	for _, item := range items {
		entry := gin.H{
			"id":        item.ID,
			"name":      item.Name,
			"image_url": item.ImageURL,
		}
		if !item.SparseList {
			entry["price"] = priceJSON(item)
			entry["rating"] = json.Number(item.Rating.String())
		}
		out = append(out, entry)
	}
	return gin.H{
		"cuisine_id":        cuisine.ID,
		"cuisine_name":      cuisine.Name,
		"cuisine_image_url": cuisine.ImageURL,
		"items":             out,
	}
}

func priceJSON(item FixtureItem) interface{} {
	if item.PriceString {
		return item.Price.String()
	}
	return json.Number(item.Price.String())
}

func idString(id interface{}) string {
	return fmt.Sprint(id)
}
