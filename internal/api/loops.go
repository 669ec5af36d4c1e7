package api

import (
	"errors"
	"github.com/labstack/echo/v4"
	"github.com/markusressel/daq2go/internal/controller"
	"github.com/qdm12/reprint"
	"math"
	"net/http"
)

type SetpointBody struct {
	Value *float64 `json:"value"`
}

func registerLoopEndpoints(rest *echo.Echo, registry *controller.Registry) {
	group := rest.Group("/loop")

	group.GET("/", func(c echo.Context) error {
		return getLoops(c, registry)
	})
	group.GET("/:"+urlParamId+"/", func(c echo.Context) error {
		return getLoop(c, registry)
	})
	group.GET("/:"+urlParamId+"/setpoint/", func(c echo.Context) error {
		return getSetpoint(c, registry)
	})
	group.POST("/:"+urlParamId+"/setpoint/", func(c echo.Context) error {
		return setSetpoint(c, registry)
	})
	group.POST("/:"+urlParamId+"/reset/", func(c echo.Context) error {
		return resetLoop(c, registry)
	})
}

// returns a list of all currently configured loops
func getLoops(c echo.Context, registry *controller.Registry) error {
	data := reprint.This(registry.Snapshots())
	return c.JSONPretty(http.StatusOK, data, indentationChar)
}

// returns the loop with the given id
func getLoop(c echo.Context, registry *controller.Registry) error {
	id := c.Param(urlParamId)
	loop, exists := registry.Get(id)
	if !exists {
		return returnNotFound(c, id)
	}
	data := reprint.This(loop.Snapshot())
	return c.JSONPretty(http.StatusOK, data, indentationChar)
}

func getSetpoint(c echo.Context, registry *controller.Registry) error {
	id := c.Param(urlParamId)
	loop, exists := registry.Get(id)
	if !exists {
		return returnNotFound(c, id)
	}
	value := loop.GetSetpoint()
	return c.JSONPretty(http.StatusOK, SetpointBody{Value: &value}, indentationChar)
}

func setSetpoint(c echo.Context, registry *controller.Registry) error {
	id := c.Param(urlParamId)
	loop, exists := registry.Get(id)
	if !exists {
		return returnNotFound(c, id)
	}

	var body SetpointBody
	if err := c.Bind(&body); err != nil {
		return returnBadRequest(c, errors.New("invalid request body, expected {\"value\": <number>}"))
	}
	if body.Value == nil {
		return returnBadRequest(c, errors.New("missing field: value"))
	}
	if math.IsNaN(*body.Value) || math.IsInf(*body.Value, 0) {
		return returnBadRequest(c, errors.New("setpoint must be finite"))
	}

	loop.SetSetpoint(*body.Value)
	value := loop.GetSetpoint()
	return c.JSONPretty(http.StatusOK, SetpointBody{Value: &value}, indentationChar)
}

// reinitializes the regulator state of the loop with the given id
func resetLoop(c echo.Context, registry *controller.Registry) error {
	id := c.Param(urlParamId)
	loop, exists := registry.Get(id)
	if !exists {
		return returnNotFound(c, id)
	}
	loop.ResetRegulator()
	data := reprint.This(loop.Snapshot())
	return c.JSONPretty(http.StatusOK, data, indentationChar)
}
