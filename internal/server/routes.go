package server

import (
	"net/http"
	"time"

	"github.com/advanliempt/homebridge-hue/internal/core/domain"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type sensorView struct {
	Id        string         `json:"id"`
	Name      string         `json:"name"`
	Type      string         `json:"type"`
	Family    string         `json:"family"`
	Known     bool           `json:"known"`
	Accessory string         `json:"accessory"`
	Mirror    map[string]any `json:"mirror"`
}

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	if s.httpLog {
		e.Use(middleware.Logger())
	}
	e.Use(middleware.Recover())

	e.GET("/healthcheck", s.HealthCheckHandler)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/sensors", s.SensorsHandler)

	return e
}

func (s *Server) HealthCheckHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.ActorHealthRequest{}, 10*time.Second).Result()
	if err != nil {
		return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
	}
	if response, ok := res.(domain.ActorHealthResponse); ok && response.Healthy {
		return c.String(http.StatusOK, "health_check: OK")
	}
	return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
}

// SensorsHandler lists every tracked sensor with its family and the last
// values the engine mirrored for it.
func (s *Server) SensorsHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.GetAccessoriesRequest{}, 5*time.Second).Result()
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	response, ok := res.(domain.GetAccessoriesResponse)
	if !ok || response.HasResponseError() {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "sensors unavailable")
	}
	sensors := []sensorView{}
	for _, acc := range response.Accessories {
		for _, sensor := range acc.Sensors {
			sensors = append(sensors, sensorView{
				Id:        sensor.Id,
				Name:      sensor.Name,
				Type:      sensor.Type,
				Family:    sensor.Family,
				Known:     sensor.Known,
				Accessory: acc.Id,
				Mirror:    sensor.Mirror,
			})
		}
	}
	return c.JSON(http.StatusOK, sensors)
}
