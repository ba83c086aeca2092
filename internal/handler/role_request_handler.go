package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushq/campus-admin-api/internal/dto"
	"github.com/campushq/campus-admin-api/internal/models"
	appErrors "github.com/campushq/campus-admin-api/pkg/errors"
	"github.com/campushq/campus-admin-api/pkg/response"
)

type roleRequestService interface {
	RequestChange(ctx context.Context, req dto.CreateRoleRequestRequest, actor *models.JWTClaims) (*models.RoleRequest, error)
	List(ctx context.Context, query dto.RoleRequestQuery, actor *models.JWTClaims) ([]models.RoleRequest, error)
	Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.RoleRequest, error)
	Review(ctx context.Context, id string, req dto.ReviewRoleRequestRequest, actor *models.JWTClaims) (*models.RoleRequest, error)
}

// RoleRequestHandler exposes the role escalation workflow.
type RoleRequestHandler struct {
	service roleRequestService
}

// NewRoleRequestHandler builds a new handler.
func NewRoleRequestHandler(service roleRequestService) *RoleRequestHandler {
	return &RoleRequestHandler{service: service}
}

// Create godoc
// @Summary Submit a role change request
// @Tags RoleRequests
// @Accept json
// @Produce json
// @Param payload body dto.CreateRoleRequestRequest true "Role request payload"
// @Success 201 {object} response.Envelope
// @Router /role-requests [post]
func (h *RoleRequestHandler) Create(c *gin.Context) {
	var req dto.CreateRoleRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid role request payload"))
		return
	}
	request, err := h.service.RequestChange(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, request)
}

// List godoc
// @Summary List role requests visible to the caller
// @Tags RoleRequests
// @Produce json
// @Param status query []string false "Status filter"
// @Success 200 {object} response.Envelope
// @Router /role-requests [get]
func (h *RoleRequestHandler) List(c *gin.Context) {
	var query dto.RoleRequestQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	requests, err := h.service.List(c.Request.Context(), query, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, nil)
}

// Get godoc
// @Summary Get a role request by ID
// @Tags RoleRequests
// @Produce json
// @Param id path string true "Role request ID"
// @Success 200 {object} response.Envelope
// @Router /role-requests/{id} [get]
func (h *RoleRequestHandler) Get(c *gin.Context) {
	request, err := h.service.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// Review godoc
// @Summary Approve or reject a role request
// @Tags RoleRequests
// @Accept json
// @Produce json
// @Param id path string true "Role request ID"
// @Param payload body dto.ReviewRoleRequestRequest true "Review decision"
// @Success 200 {object} response.Envelope
// @Router /role-requests/{id}/review [post]
func (h *RoleRequestHandler) Review(c *gin.Context) {
	var req dto.ReviewRoleRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid review payload"))
		return
	}
	request, err := h.service.Review(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}
