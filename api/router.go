package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Reservations *ReservationHandler
	Billing      *BillingHandler
	Rooms        *RoomHandler
}

// NewRouter builds the gin engine with logging, panic recovery and caller
// identity applied to every route.
func NewRouter(h Handlers, logger *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(RequestLogger(logger), gin.Recovery(), Identity())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	h.Rooms.Register(router.Group("/rooms"))
	reservations := router.Group("/reservations")
	h.Reservations.Register(reservations)
	h.Billing.Register(reservations)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorResponse{Error: errorBody{Code: "NOT_FOUND", Message: "route not found"}})
	})
	return router
}
