// Package server exposes a dreamscreen.Controller over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/dreamscreen/dreamscreen-ble/internal/log"
	"github.com/dreamscreen/dreamscreen-ble/pkg/dreamscreen"
	"github.com/dreamscreen/dreamscreen-ble/pkg/protocol"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	echo       *echo.Echo
	controller dreamscreen.Controller
}

type modeRequest struct {
	Mode string `json:"mode"`
}

type brightnessRequest struct {
	Value *int `json:"value"`
}

type commandRequest struct {
	Code string `json:"code"`
	Read bool   `json:"read"`
}

type frameResponse struct {
	Code        string `json:"code"`
	Data        string `json:"data"`
	Unsolicited bool   `json:"unsolicited"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func New(controller dreamscreen.Controller) *Server {
	s := &Server{echo: echo.New(), controller: controller}
	s.echo.HideBanner = true
	s.echo.HidePort = true

	s.echo.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			log.Info("[%s] %s %s %d (%s)", v.RequestID, v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))
	s.echo.Use(middleware.Recover())

	api := s.echo.Group("/api")
	api.GET("/modes", s.listModes)
	api.POST("/mode", s.setMode)
	api.POST("/brightness", s.setBrightness)
	api.GET("/props/:prop", s.readProp)
	api.POST("/command", s.sendCommand)
	api.GET("/response", s.poll)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	s.echo.ServeHTTP(w, req)
}

// ListenAndServe serves requests on addr until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info("Listening on %s", addr)
		errCh <- s.echo.Start(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) listModes(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string][]string{"modes": dreamscreen.Modes()})
}

func (s *Server) setMode(c echo.Context) error {
	var req modeRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := s.controller.SetMode(c.Request().Context(), req.Mode); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) setBrightness(c echo.Context) error {
	var req brightnessRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.Value == nil {
		return badRequest(c, "missing value")
	}
	if err := s.controller.SetBrightness(c.Request().Context(), *req.Value); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) readProp(c echo.Context) error {
	response, err := s.controller.ReadProp(c.Request().Context(), c.Param("prop"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toFrameResponse(response))
}

func (s *Server) poll(c echo.Context) error {
	response, err := s.controller.Poll(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toFrameResponse(response))
}

func (s *Server) sendCommand(c echo.Context) error {
	var req commandRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	ctx := c.Request().Context()
	if !req.Read {
		if err := s.controller.SendWrite(ctx, req.Code); err != nil {
			return writeError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
	response, err := s.controller.SendRead(ctx, req.Code)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toFrameResponse(response))
}

func toFrameResponse(r *dreamscreen.Response) frameResponse {
	return frameResponse{Code: r.Code, Data: r.Data, Unsolicited: r.Unsolicited}
}

func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, errorResponse{Error: message})
}

// writeError maps command errors onto HTTP status codes.
func writeError(c echo.Context, err error) error {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, protocol.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, protocol.ErrNotConnected), errors.Is(err, protocol.ErrDisconnected):
		status = http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		status = http.StatusGatewayTimeout
	}
	if status != http.StatusBadRequest {
		log.Warning("Command failed: %s", err)
	}
	return c.JSON(status, errorResponse{Error: err.Error()})
}
