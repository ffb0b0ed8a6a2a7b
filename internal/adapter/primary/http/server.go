package http

import (
	"net/http"

	"github.com/cashflow/payment-lifecycle/internal/logging"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// HealthFunc reports whether the service's dependencies are reachable
type HealthFunc func() error

// NewServer builds the Echo instance serving the payment API, health check and metrics
func NewServer(logger zerolog.Logger, handler *PaymentHandler, health HealthFunc, gatherer prometheus.Gatherer) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = NewRequestValidator()

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(logging.Middleware(logger))

	// Routes
	handler.RegisterRoutes(e.Group("/api/v1/payments"))

	// Health check
	e.GET("/health", func(c echo.Context) error {
		if health != nil {
			if err := health(); err != nil {
				return c.JSON(http.StatusServiceUnavailable, map[string]string{
					"status": "down",
					"error":  err.Error(),
				})
			}
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	if gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	return e
}
