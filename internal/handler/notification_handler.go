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

type notificationService interface {
	ListTemplates(ctx context.Context, institutionID string) ([]models.NotificationTemplate, error)
	SaveTemplate(ctx context.Context, institutionID string, req dto.SaveTemplateRequest) (*models.NotificationTemplate, error)
	DeleteTemplate(ctx context.Context, institutionID, key string) error
	Send(ctx context.Context, institutionID string, req dto.SendNotificationRequest, actorID string) (*dto.SendNotificationResponse, error)
}

// NotificationHandler exposes notification template and dispatch endpoints.
type NotificationHandler struct {
	service notificationService
}

// NewNotificationHandler builds a new handler.
func NewNotificationHandler(service notificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// ListTemplates godoc
// @Summary List notification templates
// @Tags Notifications
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /notifications/templates [get]
func (h *NotificationHandler) ListTemplates(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	templates, err := h.service.ListTemplates(c.Request.Context(), claims.InstitutionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, templates, nil)
}

// SaveTemplate godoc
// @Summary Create or replace a notification template
// @Tags Notifications
// @Accept json
// @Produce json
// @Param payload body dto.SaveTemplateRequest true "Template payload"
// @Success 201 {object} response.Envelope
// @Router /notifications/templates [put]
func (h *NotificationHandler) SaveTemplate(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.SaveTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid template payload"))
		return
	}
	tpl, err := h.service.SaveTemplate(c.Request.Context(), claims.InstitutionID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, tpl)
}

// DeleteTemplate godoc
// @Summary Delete a notification template
// @Tags Notifications
// @Produce json
// @Param key path string true "Template key"
// @Success 204 {object} response.Envelope
// @Router /notifications/templates/{key} [delete]
func (h *NotificationHandler) DeleteTemplate(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.DeleteTemplate(c.Request.Context(), claims.InstitutionID, c.Param("key")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Send godoc
// @Summary Render a template and queue delivery
// @Tags Notifications
// @Accept json
// @Produce json
// @Param payload body dto.SendNotificationRequest true "Send payload"
// @Success 202 {object} response.Envelope
// @Router /notifications/send [post]
func (h *NotificationHandler) Send(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.SendNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid send payload"))
		return
	}
	res, err := h.service.Send(c.Request.Context(), claims.InstitutionID, req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, res, nil)
}
