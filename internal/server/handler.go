package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KintasS/crypto-exchange-path/internal/fees"
	"github.com/KintasS/crypto-exchange-path/internal/models"
	"github.com/KintasS/crypto-exchange-path/internal/pathfinder"
	"github.com/KintasS/crypto-exchange-path/internal/store"
)

// DefaultFeeTier is assumed when a search names no fee settings.
const DefaultFeeTier = "(Avg)"

// SearchHandler serves the search endpoint and the reference-data lookups.
type SearchHandler struct {
	service *SearchService
	store   store.Store
}

// NewSearchHandler builds the handler.
func NewSearchHandler(service *SearchService, st store.Store) *SearchHandler {
	return &SearchHandler{
		service: service,
		store:   st,
	}
}

// searchRequest is the POST /v1/search body.
type searchRequest struct {
	OrigLoc  string        `json:"orig_loc" binding:"required"`
	OrigCoin string        `json:"orig_coin" binding:"required"`
	OrigAmt  float64       `json:"orig_amt" binding:"required,gt=0"`
	DestLoc  string        `json:"dest_loc" binding:"required"`
	DestCoin string        `json:"dest_coin" binding:"required"`
	Currency string        `json:"currency" binding:"required"`
	Fees     fees.Settings `json:"fees"`
}

// PostSearch runs a route search. No feasible route is a 200 with an empty
// list; only a store failure is a 500.
func (h *SearchHandler) PostSearch(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Fees.Default == "" {
		req.Fees.Default = DefaultFeeTier
	}

	routes, err := h.service.Search(pathfinder.Request{
		OrigLoc:  req.OrigLoc,
		OrigCoin: req.OrigCoin,
		OrigAmt:  req.OrigAmt,
		DestLoc:  req.DestLoc,
		DestCoin: req.DestCoin,
		Currency: req.Currency,
		Fees:     req.Fees,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"routes": routes})
}

// GetCoins lists active coins, optionally filtered with ?type=Crypto|Fiat.
func (h *SearchHandler) GetCoins(c *gin.Context) {
	coinType := c.Query("type")
	if coinType != "" && coinType != models.TypeCrypto && coinType != models.TypeFiat {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown coin type"})
		return
	}
	coins, err := h.store.ActiveCoins(coinType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if coins == nil {
		coins = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"coins": coins})
}

// GetExchanges lists venues, optionally filtered with ?type=.
func (h *SearchHandler) GetExchanges(c *gin.Context) {
	exchs, err := h.store.Exchanges(c.Query("type"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if exchs == nil {
		exchs = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"exchanges": exchs})
}
