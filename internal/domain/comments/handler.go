package comments

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
	clinical := auth.RequireRole(auth.RoleStaff, auth.RoleClinician)
	api.POST("/entries/:id/threads", h.StartThread, clinical)
	api.GET("/entries/:id/threads", h.ListThreads, clinical)
	api.POST("/threads/:id/comments", h.AddComment, clinical)
	api.POST("/threads/:id/resolve", h.ResolveThread, clinical)
}

type commentRequest struct {
	Content string `json:"content"`
}

func (h *Handler) StartThread(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	entryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid entry id")
	}

	var req commentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	view, err := h.svc.StartThread(c.Request().Context(), actor, entryID, req.Content)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, view)
}

func (h *Handler) AddComment(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	threadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid thread id")
	}

	var req commentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	comment, err := h.svc.AddComment(c.Request().Context(), actor, threadID, req.Content)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, comment)
}

func (h *Handler) ResolveThread(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	threadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid thread id")
	}

	thread, err := h.svc.Resolve(c.Request().Context(), actor, threadID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, thread)
}

func (h *Handler) ListThreads(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	entryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid entry id")
	}

	views, err := h.svc.ListByEntry(c.Request().Context(), actor, entryID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"entry_id": entryID,
		"threads":  views,
	})
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrThreadNotFound), errors.Is(err, ErrEntryNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, access.ErrDenied):
		return echo.NewHTTPError(http.StatusForbidden, "access denied")
	case errors.Is(err, ErrEmptyContent), errors.Is(err, ErrThreadResolved):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return err
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
