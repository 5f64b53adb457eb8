package handlers

import (
	"errors"
	"net/http"

	"leadbook/internal/common"
	"leadbook/internal/middleware"
	"leadbook/internal/models"
	"leadbook/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// LeadHandlers serves the owner-scoped leads resource
type LeadHandlers struct {
	leadService services.LeadService
}

func NewLeadHandlers(leadService services.LeadService) *LeadHandlers {
	return &LeadHandlers{leadService: leadService}
}

// LeadResponse wraps a single lead
type LeadResponse struct {
	Success bool         `json:"success"`
	Data    *models.Lead `json:"data"`
}

// LeadListResponse is one page of leads with pagination metadata
type LeadListResponse struct {
	Success    bool           `json:"success"`
	Data       []*models.Lead `json:"data"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	Total      int64          `json:"total"`
	TotalPages int64          `json:"totalPages"`
}

// CreateLead handles POST /api/leads
func (h *LeadHandlers) CreateLead(c echo.Context) error {
	ownerID, err := sessionOwner(c)
	if err != nil {
		return err
	}

	var patch models.LeadPatch
	if err := c.Bind(&patch); err != nil {
		return bindError(err)
	}

	lead, err := h.leadService.Create(c.Request().Context(), ownerID, &patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, LeadResponse{Success: true, Data: lead})
}

// ListLeads handles GET /api/leads with filter and pagination parameters
func (h *LeadHandlers) ListLeads(c echo.Context) error {
	ownerID, err := sessionOwner(c)
	if err != nil {
		return err
	}

	page, err := h.leadService.List(c.Request().Context(), ownerID, c.QueryParams())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, LeadListResponse{
		Success:    true,
		Data:       page.Leads,
		Page:       page.Page,
		Limit:      page.Limit,
		Total:      page.Total,
		TotalPages: page.TotalPages,
	})
}

// GetLead handles GET /api/leads/:id
func (h *LeadHandlers) GetLead(c echo.Context) error {
	ownerID, id, err := leadTarget(c)
	if err != nil {
		return err
	}

	lead, err := h.leadService.Get(c.Request().Context(), ownerID, id)
	if err != nil {
		return notFound(err, "Lead")
	}
	return c.JSON(http.StatusOK, LeadResponse{Success: true, Data: lead})
}

// UpdateLead handles PUT /api/leads/:id; only supplied fields change
func (h *LeadHandlers) UpdateLead(c echo.Context) error {
	ownerID, id, err := leadTarget(c)
	if err != nil {
		return err
	}

	var patch models.LeadPatch
	if err := c.Bind(&patch); err != nil {
		return bindError(err)
	}

	lead, err := h.leadService.Update(c.Request().Context(), ownerID, id, &patch)
	if err != nil {
		return notFound(err, "Lead")
	}
	return c.JSON(http.StatusOK, LeadResponse{Success: true, Data: lead})
}

// DeleteLead handles DELETE /api/leads/:id
func (h *LeadHandlers) DeleteLead(c echo.Context) error {
	ownerID, id, err := leadTarget(c)
	if err != nil {
		return err
	}

	if err := h.leadService.Delete(c.Request().Context(), ownerID, id); err != nil {
		return notFound(err, "Lead")
	}
	return c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "Lead deleted"})
}

func sessionOwner(c echo.Context) (uuid.UUID, error) {
	userID, ok := common.GetUserIDFromContext(c.Request().Context())
	if !ok {
		if user, found := middleware.CurrentUser(c); found {
			return user.ID, nil
		}
		return uuid.Nil, common.ErrUnauthenticated
	}
	return userID, nil
}

func leadTarget(c echo.Context) (uuid.UUID, uuid.UUID, error) {
	ownerID, err := sessionOwner(c)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	id, err := common.ParseID(c.Param("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid lead id")
	}
	return ownerID, id, nil
}

// bindError turns a decode failure into a 400 carrying the decoder's reason
func bindError(err error) error {
	var he *echo.HTTPError
	if errors.As(err, &he) && he.Internal != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+he.Internal.Error())
	}
	return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
}
