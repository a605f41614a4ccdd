package audit

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medicare/medicare/pkg/pagination"
)

type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/audit", h.ListByRecipient)
}

// ListByRecipient returns the audit trail for one recipient, newest first.
func (h *Handler) ListByRecipient(c echo.Context) error {
	recipient := c.QueryParam("recipient")
	if recipient == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "recipient query parameter is required")
	}

	page := pagination.FromContext(c)
	entries, total, err := h.repo.ListByRecipient(c.Request().Context(), recipient, page.Limit, page.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list audit entries")
	}

	return c.JSON(http.StatusOK, pagination.NewResponse(entries, total, page.Limit, page.Offset))
}
