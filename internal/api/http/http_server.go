package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/atlasmarkets/venue-sim/internal/api/dto"
	"github.com/atlasmarkets/venue-sim/internal/domain"
	"github.com/atlasmarkets/venue-sim/internal/feed"
	"github.com/atlasmarkets/venue-sim/internal/metrics"
	"github.com/atlasmarkets/venue-sim/internal/middleware"
	"github.com/atlasmarkets/venue-sim/internal/risk"
	"github.com/atlasmarkets/venue-sim/internal/sim"
)

// Server is the REST + WebSocket gateway in front of the simulated venue.
// It is the substitutable boundary: a console pointed at a live venue speaks
// the same shapes.
type Server struct {
	eng         *sim.Engine
	feed        *feed.Feed
	tracker     *metrics.Tracker
	startingUSD decimal.Decimal
	throttle    *middleware.SubmitThrottle
	log         zerolog.Logger
	router      *gin.Engine
	srv         *http.Server
}

func NewServer(eng *sim.Engine, f *feed.Feed, tracker *metrics.Tracker, startingUSD decimal.Decimal, submitGap time.Duration, log zerolog.Logger) *Server {
	s := &Server{
		eng:         eng,
		feed:        f,
		tracker:     tracker,
		startingUSD: startingUSD,
		throttle:    middleware.NewSubmitThrottle(submitGap),
		log:         log,
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.POST("/orders", s.throttle.Middleware(), s.submitOrder)
	r.POST("/orders/cancel", s.cancelOrder)
	r.GET("/orders", s.listOrders)
	r.GET("/orders/:id", s.getOrder)
	r.GET("/trades", s.getTrades)
	r.GET("/orderbook", s.getOrderbook)
	r.GET("/balances", s.getBalances)
	r.GET("/metrics/market", s.getMarketMetrics)
	r.GET("/risk/preview", s.riskPreview)
	r.POST("/reset", s.reset)
	r.GET("/health", s.health)
	r.GET("/ws", s.handleWS)

	return r
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) Run(addr string) error {
	s.srv = &http.Server{Addr: addr, Handler: s.router}
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func (s *Server) submitOrder(c *gin.Context) {
	var req dto.SubmitOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Type == string(domain.CommandCancel) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "use /orders/cancel for CANCEL commands"})
		return
	}
	if err := validateSubmit(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := s.eng.Submit(req.Command())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// a rejection is an event, not a transport failure
	c.JSON(http.StatusAccepted, dto.SubmitOrderResponse{
		OrderID: report.OrderID,
		Status:  report.Status,
		Reason:  report.Reason,
	})
}

func (s *Server) cancelOrder(c *gin.Context) {
	var req dto.CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	report, err := s.eng.Cancel(req.OrderID)
	if errors.Is(err, domain.ErrOrderNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if errors.Is(err, domain.ErrInvalidTransition) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.CancelOrderResponse{
		OrderID:  report.OrderID,
		Status:   report.Status,
		Canceled: true,
	})
}

func (s *Server) listOrders(c *gin.Context) {
	c.JSON(http.StatusOK, dto.OrdersResponse{Orders: s.eng.Orders()})
}

func (s *Server) getOrder(c *gin.Context) {
	o, err := s.eng.Order(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, o)
}

func (s *Server) getTrades(c *gin.Context) {
	c.JSON(http.StatusOK, dto.TradesResponse{Trades: s.eng.Tape()})
}

func (s *Server) getOrderbook(c *gin.Context) {
	book := s.eng.Book()
	if book == nil {
		c.JSON(http.StatusOK, dto.OrderbookResponse{
			Symbol:    s.eng.Symbol(),
			Bids:      []domain.PriceLevel{},
			Asks:      []domain.PriceLevel{},
			LastPrice: s.eng.LastPrice(),
			Timestamp: time.Now().UTC(),
		})
		return
	}
	c.JSON(http.StatusOK, dto.OrderbookResponse{
		Symbol:    book.Symbol,
		Bids:      book.Bids,
		Asks:      book.Asks,
		LastPrice: s.eng.LastPrice(),
		Timestamp: book.Timestamp,
	})
}

func (s *Server) getBalances(c *gin.Context) {
	c.JSON(http.StatusOK, dto.BalancesResponse{Balances: s.eng.Balances()})
}

func (s *Server) getMarketMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, s.tracker.Snapshot())
}

// riskPreview computes the advisory pre-trade view for
// ?side=BUY&qty=1.5&price=50000 against current balances, plus a fill
// probability estimate when a book snapshot exists.
func (s *Server) riskPreview(c *gin.Context) {
	side := domain.Side(c.Query("side"))
	if side != domain.Buy && side != domain.Sell {
		c.JSON(http.StatusBadRequest, gin.H{"error": "side must be BUY or SELL"})
		return
	}
	qty, err := decimal.NewFromString(c.Query("qty"))
	if err != nil || !qty.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "qty must be a positive number"})
		return
	}
	price, err := decimal.NewFromString(c.Query("price"))
	if err != nil || !price.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "price must be a positive number"})
		return
	}

	bal := s.eng.Balances()
	resp := dto.RiskPreviewResponse{
		Preview: risk.PreTrade(side, qty, price,
			bal.USD.Available, bal.BTC.Available, s.startingUSD),
	}

	if book := s.eng.Book(); book != nil && len(book.Bids) > 0 && len(book.Asks) > 0 {
		m := s.tracker.Snapshot()
		px, _ := price.Float64()
		bid, _ := book.Bids[0].Price.Float64()
		ask, _ := book.Asks[0].Price.Float64()
		est := metrics.EstimateFillProbability(side, px, bid, ask,
			m.Volatility.Level, m.Spread.Level)
		resp.FillEstimate = &est
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) reset(c *gin.Context) {
	if err := s.eng.Reset(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"symbol":     s.eng.Symbol(),
		"last_price": s.eng.LastPrice(),
	})
}

func validateSubmit(req *dto.SubmitOrderRequest) error {
	switch domain.Side(req.Side) {
	case domain.Buy, domain.Sell:
	default:
		return fmt.Errorf("invalid side: %s", req.Side)
	}
	if !req.Quantity.IsPositive() {
		return fmt.Errorf("quantity must be > 0")
	}
	if !req.Price.IsPositive() {
		return fmt.Errorf("price must be > 0")
	}
	return nil
}
