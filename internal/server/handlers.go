package server

import (
	"net/http"
	"time"

	"github.com/comfforts/logger"
	"github.com/google/uuid"
	"github.com/labstack/echo/v5"

	"github.com/born-ml/roipool/internal/nn"
	"github.com/born-ml/roipool/internal/roi"
	"github.com/born-ml/roipool/internal/serialization"
	"github.com/born-ml/roipool/internal/tensor"
)

// ForwardRequest pools regions over a float32 NHWC feature map.
// Omitted pool dimensions fall back to the server defaults.
type ForwardRequest struct {
	Features      serialization.FloatTensor `json:"features"`
	Regions       [][]int32                 `json:"regions"`
	PoolHeight    *int                      `json:"pool_height,omitempty"`
	PoolWidth     *int                      `json:"pool_width,omitempty"`
	ReturnIndices *bool                     `json:"return_indices,omitempty"`
}

// ForwardResponse carries the pooled output and, on request, the index map.
type ForwardResponse struct {
	ID      string                     `json:"id"`
	Output  serialization.FloatTensor  `json:"output"`
	Indices *serialization.IndexTensor `json:"indices,omitempty"`
}

// BackwardRequest routes an output gradient through an index map.
type BackwardRequest struct {
	Grad       serialization.FloatTensor `json:"grad"`
	Indices    serialization.IndexTensor `json:"indices"`
	InputShape []int                     `json:"input_shape"`
}

// BackwardResponse carries the feature-map gradient.
type BackwardResponse struct {
	ID        string                    `json:"id"`
	InputGrad serialization.FloatTensor `json:"input_grad"`
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"backend": s.backend.Name(),
	})
}

func (s *Server) handleForward(c *echo.Context) error {
	id := uuid.NewString()
	l, err := logger.LoggerFromContext(c.Request().Context())
	if err != nil {
		l = logger.GetSlogLogger()
	}

	req, err := decodeJSON[ForwardRequest](c.Request().Body, s.cfg.MaxBodyBytes)
	if err != nil {
		return writeError(c, id, http.StatusBadRequest, "invalid_request_error", err.Error())
	}

	cfg := s.defaults
	if req.PoolHeight != nil {
		cfg.PoolHeight = *req.PoolHeight
	}
	if req.PoolWidth != nil {
		cfg.PoolWidth = *req.PoolWidth
	}
	if req.ReturnIndices != nil {
		cfg.ReturnIndices = *req.ReturnIndices
	}

	features, err := req.Features.Raw()
	if err != nil {
		return writeError(c, id, http.StatusBadRequest, "invalid_request_error", "features: "+err.Error())
	}
	regions, err := serialization.RegionTensor(req.Regions)
	if err != nil {
		return writeOpError(c, id, err)
	}

	layer, err := nn.NewRoIPool(cfg, s.backend)
	if err != nil {
		return writeOpError(c, id, err)
	}

	start := time.Now()
	pooled, err := layer.Forward(
		tensor.New[float32](features, s.backend),
		tensor.New[int32](regions, s.backend),
	)
	if err != nil {
		l.Error("roi pool forward failed", "id", id, "error", err.Error())
		return writeOpError(c, id, err)
	}
	l.Info("roi pool forward",
		"id", id,
		"regions", len(req.Regions),
		"pool", cfg.String(),
		"input_shape", features.Shape().String(),
		"elapsed", time.Since(start).String())

	output, err := serialization.FloatTensorOf(pooled.Output.Raw())
	if err != nil {
		return writeOpError(c, id, err)
	}
	resp := ForwardResponse{ID: id, Output: output}
	if pooled.Indices != nil {
		indices, err := serialization.IndexTensorOf(pooled.Indices.Raw())
		if err != nil {
			return writeOpError(c, id, err)
		}
		resp.Indices = &indices
	}

	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleBackward(c *echo.Context) error {
	id := uuid.NewString()
	l, err := logger.LoggerFromContext(c.Request().Context())
	if err != nil {
		l = logger.GetSlogLogger()
	}

	req, err := decodeJSON[BackwardRequest](c.Request().Body, s.cfg.MaxBodyBytes)
	if err != nil {
		return writeError(c, id, http.StatusBadRequest, "invalid_request_error", err.Error())
	}

	grad, err := req.Grad.Raw()
	if err != nil {
		return writeError(c, id, http.StatusBadRequest, "invalid_request_error", "grad: "+err.Error())
	}
	indices, err := req.Indices.Raw()
	if err != nil {
		return writeError(c, id, http.StatusBadRequest, "invalid_request_error", "indices: "+err.Error())
	}

	// Backward is stateless; the layer only supplies the backend.
	layer, err := nn.NewRoIPool(roi.DefaultConfig(), s.backend)
	if err != nil {
		return writeOpError(c, id, err)
	}

	start := time.Now()
	inputGrad, err := layer.Backward(
		tensor.New[float32](grad, s.backend),
		tensor.New[int32](indices, s.backend),
		tensor.Shape(req.InputShape),
	)
	if err != nil {
		l.Error("roi pool backward failed", "id", id, "error", err.Error())
		return writeOpError(c, id, err)
	}
	l.Info("roi pool backward",
		"id", id,
		"grad_shape", grad.Shape().String(),
		"elapsed", time.Since(start).String())

	out, err := serialization.FloatTensorOf(inputGrad.Raw())
	if err != nil {
		return writeOpError(c, id, err)
	}
	return c.JSON(http.StatusOK, BackwardResponse{ID: id, InputGrad: out})
}
