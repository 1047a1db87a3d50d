// README: HTTP router registration.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"luxride/internal/http/handlers"
	"luxride/internal/http/middleware"
	"luxride/internal/infra"
)

type Deps struct {
	Logger     *slog.Logger
	Verifier   infra.TokenVerifier
	Fares      handlers.Pricer
	Catalog    handlers.CatalogManager
	Bookings   handlers.BookingService
	Passengers handlers.PassengerService
	Geocoder   handlers.Geocoder
	Location   *time.Location
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(d.Logger), middleware.Logging(d.Logger))

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api", middleware.Auth(d.Verifier))
	admin := api.Group("", middleware.RequireRole(infra.RoleAdmin))

	fareHandler := handlers.NewFareHandler(d.Fares, d.Geocoder, d.Location, d.Logger)
	api.POST("/fares/quote", fareHandler.Quote)

	bookingHandler := handlers.NewBookingHandler(d.Bookings, d.Geocoder, d.Location, d.Logger)
	api.POST("/bookings", bookingHandler.Create)
	api.GET("/bookings/:id", bookingHandler.Get)
	api.POST("/bookings/:id/cancel", bookingHandler.Cancel)

	passengerHandler := handlers.NewPassengerHandler(d.Passengers, d.Logger)
	api.GET("/passengers/:id/profile", passengerHandler.GetProfile)
	api.GET("/passengers/:id/credits", passengerHandler.GetCredit)
	admin.PUT("/passengers/:id/profile", passengerHandler.PutProfile)
	admin.POST("/passengers/:id/credits", passengerHandler.GrantCredit)

	ruleHandler := handlers.NewRuleHandler(d.Catalog, d.Logger)
	admin.GET("/pricing/rules", ruleHandler.List)
	admin.POST("/pricing/rules", ruleHandler.Create)
	admin.PUT("/pricing/rules/:id", ruleHandler.Update)
	admin.POST("/pricing/rules/reload", ruleHandler.Reload)

	return r
}
