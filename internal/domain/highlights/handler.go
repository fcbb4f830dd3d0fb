package highlights

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carenote/carenote/internal/domain/access"
	"github.com/carenote/carenote/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/patients/:id/highlights/generate", h.Generate,
		auth.RequireRole(auth.RoleStaff, auth.RoleClinician))
	api.POST("/highlights/:id/status", h.SetStatus,
		auth.RequireRole(auth.RoleClinician))
}

func (h *Handler) Generate(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}

	created, err := h.svc.Regenerate(c.Request().Context(), actor, patientID)
	if err != nil {
		return mapError(err)
	}
	if created == nil {
		created = []*Highlight{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"created":    len(created),
		"highlights": created,
	})
}

type setStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) SetStatus(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	highlightID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid highlight id")
	}

	var req setStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	updated, err := h.svc.SetStatus(c.Request().Context(), actor, highlightID, req.Status)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"highlight_id": updated.ID,
		"status":       updated.Status,
	})
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "highlight not found")
	case errors.Is(err, ErrPatientNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	case errors.Is(err, access.ErrDenied):
		return echo.NewHTTPError(http.StatusForbidden, "access denied")
	case errors.Is(err, ErrInvalidStatus):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return err
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
