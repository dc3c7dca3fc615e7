// Package server exposes the RoI pooling operator over an HTTP JSON API.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"github.com/born-ml/roipool/internal/roi"
	"github.com/born-ml/roipool/internal/tensor"
)

// Config holds the HTTP server settings.
type Config struct {
	Address      string        `yaml:"address" json:"address"`
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" json:"max_body_bytes"`
}

// DefaultConfig listens on localhost:8080 and accepts bodies up to 64MB.
func DefaultConfig() Config {
	return Config{
		Address:      "127.0.0.1:8080",
		ReadTimeout:  10 * time.Second,
		MaxBodyBytes: 64 << 20,
	}
}

// Server serves forward and backward pooling requests on one backend.
type Server struct {
	backend  tensor.Backend
	defaults roi.Config
	cfg      Config
}

// New creates a server. defaults supplies the pool size for requests that
// omit it.
func New(backend tensor.Backend, defaults roi.Config, cfg Config) *Server {
	return &Server{backend: backend, defaults: defaults, cfg: cfg}
}

// Register installs the API routes on e.
func (s *Server) Register(e *echo.Echo) {
	e.GET("/healthz", s.handleHealth)
	e.POST("/v1/roi_pool/forward", s.handleForward)
	e.POST("/v1/roi_pool/backward", s.handleBackward)
}

// Echo returns a configured echo instance with logging and recovery middleware.
func (s *Server) Echo() *echo.Echo {
	e := echo.New()
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	s.Register(e)
	return e
}

// Start serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	sc := echo.StartConfig{
		Address: s.cfg.Address,
		BeforeServeFunc: func(srv *http.Server) error {
			srv.ReadHeaderTimeout = s.cfg.ReadTimeout
			return nil
		},
	}
	return sc.Start(ctx, s.Echo())
}

// ResponseError is the body of every failed request.
type ResponseError struct {
	ID      string `json:"id"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

func writeError(c *echo.Context, id string, status int, errType, msg string) error {
	return c.JSON(status, map[string]any{
		"error": ResponseError{ID: id, Message: msg, Type: errType},
	})
}

// writeOpError maps operator errors onto HTTP statuses.
func writeOpError(c *echo.Context, id string, err error) error {
	switch {
	case errors.Is(err, roi.ErrInvalidConfiguration):
		return writeError(c, id, http.StatusBadRequest, "invalid_configuration", err.Error())
	case errors.Is(err, roi.ErrInvalidRegion):
		return writeError(c, id, http.StatusBadRequest, "invalid_region", err.Error())
	case errors.Is(err, roi.ErrShapeMismatch):
		return writeError(c, id, http.StatusBadRequest, "shape_mismatch", err.Error())
	default:
		return writeError(c, id, http.StatusInternalServerError, "server_error", err.Error())
	}
}

func decodeJSON[T any](body io.Reader, limit int64) (T, error) {
	var v T
	dec := json.NewDecoder(io.LimitReader(body, limit))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return v, err
	}
	return v, nil
}
