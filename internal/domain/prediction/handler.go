package prediction

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/predict-and-notify", h.PredictAndNotify)
	api.GET("/predictions/pending", h.ListPending)
	api.GET("/model", h.GetModel)
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Field   string `json:"field,omitempty"`
}

func (h *Handler) PredictAndNotify(c echo.Context) error {
	var req PredictRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "malformed request body"})
	}

	resp, err := h.svc.HandleRequest(c.Request().Context(), req)
	if err != nil {
		var verr *ValidationError
		switch {
		case errors.As(err, &verr):
			return c.JSON(http.StatusBadRequest, errorResponse{Error: verr.Message, Field: verr.Field})
		case errors.Is(err, ErrModelUnavailable):
			return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "prediction model unavailable"})
		default:
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to persist report"})
		}
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) ListPending(c echo.Context) error {
	pending, err := h.svc.ListPending(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list pending reports")
	}
	return c.JSON(http.StatusOK, map[string]any{
		"count":   len(pending),
		"pending": pending,
	})
}

func (h *Handler) GetModel(c echo.Context) error {
	meta, ok := h.svc.ModelMetadata()
	if !ok {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "prediction model unavailable")
	}
	return c.JSON(http.StatusOK, meta)
}
