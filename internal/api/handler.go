// Package api is the HTTP surface: the dashboard REST API, the server-side quote proxy and the websocket stream.
package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"MarketWatch/internal/comparison"
	"MarketWatch/internal/dashboard"
	"MarketWatch/internal/market"
	"MarketWatch/internal/model"
	"MarketWatch/internal/portfolio"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	proxyPath = "/api/market-data"
	basePath  = "/api/v1"
)

var (
	errMissingQuoteParams = errors.New("symbol and type are required")
	errNoData             = errors.New("no data found")
	errMissingSymbol      = errors.New("symbol is required")
)

// Options configures a Handler. Proxy, Stream and Cache are optional.
type Options struct {
	Dashboard *dashboard.Dashboard
	Proxy     *market.Service // direct providers only, no synthetic fallback
	Stream    http.Handler
	Cache     *redis.Client
	CacheTTL  time.Duration
	Logger    *zap.Logger
}

type Handler struct {
	router   *gin.Engine
	dash     *dashboard.Dashboard
	proxy    *market.Service
	stream   http.Handler
	cache    *redis.Client
	cacheTTL time.Duration
	logger   *zap.Logger
}

func NewHandler(opts Options) *Handler {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(opts.Logger))

	h := &Handler{
		router:   router,
		dash:     opts.Dashboard,
		proxy:    opts.Proxy,
		stream:   opts.Stream,
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		logger:   opts.Logger,
	}
	h.registerRoutes()
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	if h.proxy != nil {
		quotes := h.router.Group(proxyPath)
		if h.cache != nil {
			quotes.Use(h.cacheMiddleware())
		}
		quotes.GET("", h.marketData)
	}
	if h.stream != nil {
		h.router.GET("/ws", gin.WrapH(h.stream))
	}

	v1 := h.router.Group(basePath)
	{
		assets := v1.Group("/assets")
		assets.GET("", h.listAssets)
		assets.GET("/:symbol", h.getAsset)
		assets.GET("/:symbol/candles", h.getCandles)
		assets.GET("/:symbol/orderbook", h.getOrderBook)
		assets.GET("/:symbol/indicators", h.getIndicators)

		v1.GET("/market/stats", h.marketStats)

		pf := v1.Group("/portfolio")
		pf.GET("", h.getPortfolio)
		pf.GET("/trades", h.listTrades)
		pf.POST("/trades", h.createTrade)

		cmp := v1.Group("/comparison")
		cmp.GET("", h.getComparison)
		cmp.POST("/assets", h.addComparisonAsset)
		cmp.DELETE("/assets/:symbol", h.removeComparisonAsset)
		cmp.DELETE("/assets", h.clearComparison)

		v1.GET("/status", h.getStatus)
		v1.POST("/realtime/start", h.startRealtime)
		v1.POST("/realtime/stop", h.stopRealtime)
		v1.POST("/refresh", h.refresh)
	}
}

// marketData serves a quote from the direct providers, for clients that cannot call them themselves.
func (h *Handler) marketData(c *gin.Context) {
	symbol, typ := strings.TrimSpace(c.Query("symbol")), strings.TrimSpace(c.Query("type"))
	if symbol == "" || typ == "" {
		writeError(c, http.StatusBadRequest, errMissingQuoteParams)
		return
	}
	class, err := model.ParseAssetClass(typ)
	if err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	q, err := h.proxy.FetchAs(c.Request.Context(), symbol, class)
	if err != nil {
		if errors.Is(err, market.ErrNoDataAvailable) {
			writeError(c, http.StatusNotFound, errNoData)
			return
		}
		writeError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

func (h *Handler) listAssets(c *gin.Context) {
	var class model.AssetClass
	if v := c.Query("class"); v != "" {
		parsed, err := model.ParseAssetClass(v)
		if err != nil {
			writeError(c, http.StatusBadRequest, err)
			return
		}
		class = parsed
	}
	c.JSON(http.StatusOK, h.dash.Assets(class, c.Query("q")))
}

func (h *Handler) getAsset(c *gin.Context) {
	a, err := h.dash.Asset(c.Param("symbol"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *Handler) getCandles(c *gin.Context) {
	bars, err := h.dash.Candles(c.Param("symbol"), c.DefaultQuery("timeframe", "1D"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, bars)
}

func (h *Handler) getOrderBook(c *gin.Context) {
	ob, err := h.dash.OrderBook(c.Param("symbol"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, ob)
}

func (h *Handler) getIndicators(c *gin.Context) {
	ind, err := h.dash.Indicators(c.Param("symbol"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, ind)
}

func (h *Handler) marketStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.dash.Stats())
}

func (h *Handler) getPortfolio(c *gin.Context) {
	c.JSON(http.StatusOK, h.dash.Portfolio())
}

func (h *Handler) listTrades(c *gin.Context) {
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(c, http.StatusBadRequest, errors.New("limit must be a non-negative integer"))
			return
		}
		limit = n
	}
	c.JSON(http.StatusOK, h.dash.Trades(limit))
}

func (h *Handler) createTrade(c *gin.Context) {
	var req dashboard.TradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	req.Symbol = strings.ToUpper(strings.TrimSpace(req.Symbol))
	trade, err := h.dash.ExecuteTrade(c.Request.Context(), req)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, trade)
}

type comparisonResponse struct {
	Timeframe  string                   `json:"timeframe"`
	Normalized bool                     `json:"normalized"`
	Selected   []string                 `json:"selected"`
	Series     []model.ComparisonSeries `json:"series"`
}

func (h *Handler) getComparison(c *gin.Context) {
	tf := c.DefaultQuery("timeframe", "1M")
	normalize, _ := strconv.ParseBool(c.DefaultQuery("normalize", "false"))
	series, err := h.dash.Compare(tf, normalize)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, comparisonResponse{
		Timeframe:  tf,
		Normalized: normalize,
		Selected:   h.dash.ComparisonSelection(),
		Series:     series,
	})
}

type selectionResponse struct {
	Selected []string `json:"selected"`
	Empty    bool     `json:"empty"`
}

func (h *Handler) addComparisonAsset(c *gin.Context) {
	var req struct {
		Symbol string `json:"symbol"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	if symbol == "" {
		writeError(c, http.StatusBadRequest, errMissingSymbol)
		return
	}
	if err := h.dash.AddComparison(c.Request.Context(), symbol); err != nil {
		writeDomainError(c, err)
		return
	}
	sel := h.dash.ComparisonSelection()
	c.JSON(http.StatusOK, selectionResponse{Selected: sel, Empty: len(sel) == 0})
}

func (h *Handler) removeComparisonAsset(c *gin.Context) {
	empty := h.dash.RemoveComparison(c.Param("symbol"))
	c.JSON(http.StatusOK, selectionResponse{Selected: h.dash.ComparisonSelection(), Empty: empty})
}

func (h *Handler) clearComparison(c *gin.Context) {
	h.dash.ClearComparison()
	c.JSON(http.StatusOK, selectionResponse{Selected: []string{}, Empty: true})
}

func (h *Handler) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.dash.Status())
}

func (h *Handler) startRealtime(c *gin.Context) {
	h.dash.StartRealtime()
	c.JSON(http.StatusOK, h.dash.Status())
}

func (h *Handler) stopRealtime(c *gin.Context) {
	h.dash.StopRealtime()
	c.JSON(http.StatusOK, h.dash.Status())
}

func (h *Handler) refresh(c *gin.Context) {
	if err := h.dash.ManualRefresh(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "status": h.dash.Status()})
		return
	}
	c.JSON(http.StatusOK, h.dash.Status())
}

func writeError(c *gin.Context, status int, err error) {
	if err == nil {
		status = http.StatusInternalServerError
		err = errors.New("unknown error")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// writeDomainError maps domain sentinel errors to HTTP statuses.
func writeDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, portfolio.ErrInsufficientBalance), errors.Is(err, portfolio.ErrInsufficientShares):
		writeError(c, http.StatusUnprocessableEntity, err)
	case errors.Is(err, portfolio.ErrInvalidTrade),
		errors.Is(err, dashboard.ErrUnknownTimeframe),
		errors.Is(err, comparison.ErrUnknownTimeframe):
		writeError(c, http.StatusBadRequest, err)
	case errors.Is(err, dashboard.ErrUnknownAsset), errors.Is(err, market.ErrNoDataAvailable):
		writeError(c, http.StatusNotFound, err)
	case errors.Is(err, comparison.ErrSelectionFull):
		writeError(c, http.StatusConflict, err)
	default:
		writeError(c, http.StatusInternalServerError, err)
	}
}
