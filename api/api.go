// Package api is the thin HTTP surface over the rental engine. Handlers
// translate transport concerns to engine calls and engine errors to stable
// error codes; no business rules live here.
package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/elspark/rentalengine-backend/bike"
	"github.com/elspark/rentalengine-backend/city"
	"github.com/elspark/rentalengine-backend/geofence"
	"github.com/elspark/rentalengine-backend/internal/auth0"
	"github.com/elspark/rentalengine-backend/internal/middleware"
	"github.com/elspark/rentalengine-backend/internal/o11y"
	"github.com/elspark/rentalengine-backend/rental"
	"github.com/elspark/rentalengine-backend/rider"
)

type API struct {
	r *gin.Engine

	br  *bike.Repository
	rr  *rider.Repository
	cr  *city.Repository
	rlr *rental.Repository

	rentals *rental.Service
	zones   *geofence.Classifier
	idp     auth0.Client

	logger *slog.Logger
}

type Config struct {
	Auth0Domain     string
	Audience        string
	MetricsUsername string
	MetricsPassword string

	// Auth replaces the Auth0 JWT middleware when set. The acceptance suite
	// uses it to authenticate requests from a header instead of a token.
	Auth gin.HandlerFunc
}

func New(
	br *bike.Repository,
	rr *rider.Repository,
	cr *city.Repository,
	rlr *rental.Repository,
	rentals *rental.Service,
	zones *geofence.Classifier,
	idp auth0.Client,
	obs *o11y.Observability,
	cfg Config,
) (*API, error) {
	a := &API{
		r:       gin.New(),
		br:      br,
		rr:      rr,
		cr:      cr,
		rlr:     rlr,
		rentals: rentals,
		zones:   zones,
		idp:     idp,
		logger:  obs.Logger,
	}

	a.r.Use(gin.Recovery())
	a.r.Use(middleware.Tracing())
	a.r.Use(middleware.Logging(obs.Logger))
	a.r.Use(middleware.Metrics(obs.Registry))

	a.r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	metrics := a.r.Group("/metrics", gin.BasicAuth(gin.Accounts{
		cfg.MetricsUsername: cfg.MetricsPassword,
	}))
	metrics.GET("", gin.WrapH(promhttp.HandlerFor(obs.Registry, promhttp.HandlerOpts{})))

	a.r.GET("/bikes", a.bikesHandler)
	a.r.GET("/bikes/:id", a.bikeHandler)
	a.r.GET("/cities", a.citiesHandler)
	a.r.GET("/cities/:name/classify", a.classifyHandler)

	auth := cfg.Auth
	if auth == nil {
		jwt, err := middleware.JWT(cfg.Auth0Domain, cfg.Audience)
		if err != nil {
			return nil, err
		}
		auth = jwt
	}

	protected := a.r.Group("/", auth)
	a.registerRoutes(protected)

	return a, nil
}

// registerRoutes wires every authenticated route onto the group.
func (a *API) registerRoutes(g *gin.RouterGroup) {
	g.POST("/ride/start", a.startRideHandler)
	g.POST("/ride/stop", a.stopRideHandler)
	g.GET("/ride/current", a.currentRideHandler)
	g.GET("/ride/log", a.rideLogHandler)

	g.POST("/bikes", a.createBikeHandler)
	g.PUT("/bikes/:id/battery/:direction/:amount", a.adjustBatteryHandler)
	g.PUT("/bikes/:id/speed/:direction/:amount", a.adjustSpeedHandler)
	g.PUT("/bikes/:id/position", a.updatePositionHandler)
	g.PUT("/bikes/:id/disabled", a.setDisabledHandler)

	g.GET("/profile", a.profileHandler)
	g.POST("/funds", a.addFundsHandler)
	g.GET("/transactions", a.transactionsHandler)
	g.POST("/debt/settle", a.settleDebtHandler)
	g.GET("/payments", a.paymentsHandler)
	g.POST("/payment-account", a.createPaymentAccountHandler)
	g.PUT("/riders/:id/suspended", a.setSuspendedHandler)

	g.POST("/cities", a.createCityHandler)
	g.POST("/cities/:name/parking", a.addParkingHandler)
}

func (a *API) Router() *gin.Engine {
	return a.r
}
