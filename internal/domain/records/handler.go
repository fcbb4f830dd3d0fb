package records

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carenote/carenote/internal/domain/access"
	"github.com/carenote/carenote/internal/platform/auth"
)

// GlanceHighlight is the highlight slice shown in the care-note glance
// block.
type GlanceHighlight struct {
	ID         uuid.UUID `json:"id"`
	EntryID    uuid.UUID `json:"entry_id"`
	Text       string    `json:"text"`
	RiskReason string    `json:"risk_reason"`
	SpanStart  int       `json:"span_start"`
	SpanEnd    int       `json:"span_end"`
	Status     string    `json:"status"`
}

// GlanceSource supplies the highlight block of the care-note view. Wired to
// the highlights service in main; the indirection keeps this package free of
// a dependency on it.
type GlanceSource interface {
	VisibleHighlights(ctx context.Context, actor auth.Actor, patientID uuid.UUID) ([]GlanceHighlight, error)
}

type Handler struct {
	svc    *Service
	glance GlanceSource
}

func NewHandler(svc *Service, glance GlanceSource) *Handler {
	return &Handler{svc: svc, glance: glance}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/patients/:id/care-note", h.GetCareNote)
	api.POST("/patients/:id/entries", h.CreateEntry,
		auth.RequireRole(auth.RoleStaff, auth.RoleClinician))
	api.POST("/patients/:id/ai/patient-summary-mock", h.GenerateMockSummary,
		auth.RequireRole(auth.RoleStaff, auth.RoleClinician))
	api.POST("/entries/:id/edit", h.EditEntry)
	api.GET("/entries/:id/versions", h.ListVersions)
	api.POST("/entries/:id/revert/:version", h.RevertEntry)
}

// GetCareNote returns the composite view: glance (display name + highlights)
// plus the scoped timeline.
func (h *Handler) GetCareNote(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}

	ctx := c.Request().Context()
	patient, err := h.svc.Patient(ctx, actor, patientID)
	if err != nil {
		return mapError(err)
	}
	timeline, err := h.svc.Timeline(ctx, actor, patientID)
	if err != nil {
		return mapError(err)
	}
	highlights, err := h.glance.VisibleHighlights(ctx, actor, patientID)
	if err != nil {
		return mapError(err)
	}
	if highlights == nil {
		highlights = []GlanceHighlight{}
	}
	if timeline == nil {
		timeline = []*Entry{}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"patient_id": patient.ID,
		"glance": map[string]interface{}{
			"patient_display_name": patient.DisplayName,
			"highlights":           highlights,
		},
		"timeline": timeline,
	})
}

type createEntryRequest struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

func (h *Handler) CreateEntry(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}

	var req createEntryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	entry, err := h.svc.CreateEntry(c.Request().Context(), actor, patientID, req.Type, req.Content)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, entry)
}

type editEntryRequest struct {
	Content         string `json:"content"`
	ExpectedVersion *int   `json:"expected_version,omitempty"`
}

func (h *Handler) EditEntry(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	entryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid entry id")
	}

	var req editEntryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	// If-Match takes precedence over the body field as the concurrency
	// precondition.
	expected := req.ExpectedVersion
	if ifMatch := c.Request().Header.Get("If-Match"); ifMatch != "" {
		v, err := strconv.Atoi(ifMatch)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid If-Match")
		}
		expected = &v
	}

	newVersion, err := h.svc.Edit(c.Request().Context(), actor, entryID, req.Content, expected)
	if err != nil {
		var conflict *VersionConflictError
		if errors.As(err, &conflict) {
			return c.JSON(http.StatusConflict, map[string]interface{}{
				"detail":          "Version conflict",
				"current_version": conflict.Current,
			})
		}
		return mapError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"entry_id":    entryID,
		"new_version": newVersion,
	})
}

func (h *Handler) ListVersions(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	entryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid entry id")
	}

	versions, err := h.svc.ListVersions(c.Request().Context(), actor, entryID)
	if err != nil {
		return mapError(err)
	}
	if versions == nil {
		versions = []*VersionSnapshot{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"entry_id": entryID,
		"versions": versions,
	})
}

func (h *Handler) RevertEntry(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	entryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid entry id")
	}
	targetVersion, err := strconv.Atoi(c.Param("version"))
	if err != nil || targetVersion < 1 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid version")
	}

	newVersion, err := h.svc.Revert(c.Request().Context(), actor, entryID, targetVersion)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"entry_id":    entryID,
		"new_version": newVersion,
		"reverted_to": targetVersion,
	})
}

func (h *Handler) GenerateMockSummary(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}

	entry, err := h.svc.GenerateMockSummary(c.Request().Context(), actor, patientID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"entry_id":           entry.ID,
		"provenance_pointer": entry.ProvenancePointer,
	})
}

// mapError translates domain errors into HTTP responses. Version conflicts
// carry a payload and are handled at the call site.
func mapError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	case errors.Is(err, ErrPatientNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	case errors.Is(err, access.ErrDenied):
		return echo.NewHTTPError(http.StatusForbidden, "access denied")
	case errors.Is(err, ErrEmptyContent):
		return echo.NewHTTPError(http.StatusBadRequest, "content required")
	case errors.Is(err, ErrInvalidEntryType):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	var conflict *VersionConflictError
	if errors.As(err, &conflict) {
		return echo.NewHTTPError(http.StatusConflict, conflict.Error())
	}
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return err
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
