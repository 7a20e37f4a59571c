package server

import (
	"github.com/gin-gonic/gin"
)

// Config wires the handlers into the router.
type Config struct {
	SearchHandler *SearchHandler
}

// NewRouter builds the gin engine with all routes registered.
func NewRouter(cfg *Config) *gin.Engine {
	router := gin.Default()

	api := router.Group("/v1/")
	registerSearchRoutes(api, cfg.SearchHandler)

	return router
}

func registerSearchRoutes(router *gin.RouterGroup, h *SearchHandler) {
	router.POST("/search", h.PostSearch)
	router.GET("/coins", h.GetCoins)
	router.GET("/exchanges", h.GetExchanges)
}
