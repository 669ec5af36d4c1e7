package api

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/markusressel/daq2go/internal/ui"
	"net/http"
)

const EndpointPathMetrics = "/metrics/"

// CreateWebserver returns an echo instance with the middleware shared by all servers.
// Requests are logged on debug level.
func CreateWebserver(name string) *echo.Echo {
	webserver := echo.New()
	webserver.HideBanner = true
	webserver.HidePort = true

	// Root level middleware
	webserver.Pre(middleware.AddTrailingSlash())

	webserver.Use(middleware.Secure())
	webserver.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod: true,
		LogURI:    true,
		LogStatus: true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				ui.Debug("%s: %s %s -> %d (%v)", name, v.Method, v.URI, v.Status, v.Error)
			} else {
				ui.Debug("%s: %s %s -> %d", name, v.Method, v.URI, v.Status)
			}
			return nil
		},
	}))
	webserver.Use(middleware.Recover())

	return webserver
}

// CreateMetricsServer serves handler, usually promhttp, on EndpointPathMetrics
func CreateMetricsServer(handler http.Handler) *echo.Echo {
	webserver := CreateWebserver("statistics")
	webserver.GET(EndpointPathMetrics, echo.WrapHandler(handler))
	return webserver
}
