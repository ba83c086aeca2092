package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"text/template"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campushq/campus-admin-api/internal/dto"
	"github.com/campushq/campus-admin-api/internal/models"
	appErrors "github.com/campushq/campus-admin-api/pkg/errors"
	"github.com/campushq/campus-admin-api/pkg/jobs"
)

type notificationStore interface {
	FindByKey(ctx context.Context, institutionID, key string) (*models.NotificationTemplate, error)
	List(ctx context.Context, institutionID string) ([]models.NotificationTemplate, error)
	Upsert(ctx context.Context, tpl *models.NotificationTemplate) error
	Delete(ctx context.Context, institutionID, key string) error
}

type notificationConfigReader interface {
	GetDepartmentConfig(ctx context.Context, departmentID string) (*dto.DepartmentConfigResponse, error)
}

type notificationAuditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// NotificationSender delivers a rendered notification. Real transports plug in
// here; the default implementation only logs.
type NotificationSender interface {
	Send(ctx context.Context, msg models.NotificationMessage) error
}

// LogSender writes notifications to the application log instead of delivering
// them.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender constructs a LogSender.
func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger}
}

// Send implements NotificationSender.
func (s *LogSender) Send(_ context.Context, msg models.NotificationMessage) error {
	s.logger.Info("notification dispatched",
		zap.String("template", msg.TemplateKey),
		zap.Int("recipients", len(msg.Recipients)),
		zap.String("subject", msg.Subject))
	return nil
}

// NotificationService renders institution templates and dispatches them
// through the background queue.
type NotificationService struct {
	repo      notificationStore
	settings  notificationConfigReader
	audit     notificationAuditLogger
	sender    NotificationSender
	queue     *jobs.Queue
	validator *validator.Validate
	logger    *zap.Logger
}

// NewNotificationService constructs the service and its dispatch queue. Call
// Start before sending and Stop on shutdown.
func NewNotificationService(repo notificationStore, settings notificationConfigReader, audit notificationAuditLogger, sender NotificationSender, queueCfg jobs.QueueConfig, validate *validator.Validate, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if sender == nil {
		sender = NewLogSender(logger)
	}
	svc := &NotificationService{
		repo:      repo,
		settings:  settings,
		audit:     audit,
		sender:    sender,
		validator: validate,
		logger:    logger,
	}
	if queueCfg.Logger == nil {
		queueCfg.Logger = logger
	}
	svc.queue = jobs.NewQueue("notifications", svc.handleJob, queueCfg)
	return svc
}

// Start launches the dispatch workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the dispatch workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// ListTemplates returns the institution's templates.
func (s *NotificationService) ListTemplates(ctx context.Context, institutionID string) ([]models.NotificationTemplate, error) {
	templates, err := s.repo.List(ctx, institutionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list templates")
	}
	return templates, nil
}

// SaveTemplate creates or replaces a template after verifying it parses.
func (s *NotificationService) SaveTemplate(ctx context.Context, institutionID string, req dto.SaveTemplateRequest) (*models.NotificationTemplate, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid template payload")
	}
	if _, err := template.New("subject").Parse(req.Subject); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidFormat.Code, appErrors.ErrInvalidFormat.Status, "subject template does not parse")
	}
	if _, err := template.New("body").Parse(req.Body); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidFormat.Code, appErrors.ErrInvalidFormat.Status, "body template does not parse")
	}

	tpl := &models.NotificationTemplate{
		ID:            uuid.NewString(),
		InstitutionID: institutionID,
		Key:           strings.ToLower(strings.TrimSpace(req.Key)),
		Subject:       req.Subject,
		Body:          req.Body,
		Active:        req.Active,
	}
	if err := s.repo.Upsert(ctx, tpl); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save template")
	}
	return tpl, nil
}

// DeleteTemplate removes a template by key.
func (s *NotificationService) DeleteTemplate(ctx context.Context, institutionID, key string) error {
	if err := s.repo.Delete(ctx, institutionID, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "template not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete template")
	}
	return nil
}

// Send renders the template with the provided variables and enqueues delivery.
// Rendering with a missing variable fails with INVALID_FORMAT. When the
// request targets a department whose effective settings disable email, the
// send is skipped and reported as such.
func (s *NotificationService) Send(ctx context.Context, institutionID string, req dto.SendNotificationRequest, actorID string) (*dto.SendNotificationResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid send payload")
	}

	tpl, err := s.repo.FindByKey(ctx, institutionID, strings.ToLower(strings.TrimSpace(req.TemplateKey)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "template not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load template")
	}
	if !tpl.Active {
		return nil, appErrors.Clone(appErrors.ErrInvalidValue, "template is inactive")
	}

	if req.DepartmentID != "" && s.settings != nil {
		cfg, err := s.settings.GetDepartmentConfig(ctx, req.DepartmentID)
		if err != nil {
			return nil, err
		}
		if !cfg.Config.NotificationDefaults.EmailEnabled {
			return &dto.SendNotificationResponse{Queued: false, Skipped: "email disabled for department"}, nil
		}
	}

	subject, err := renderTemplate("subject", tpl.Subject, req.Variables)
	if err != nil {
		return nil, err
	}
	body, err := renderTemplate("body", tpl.Body, req.Variables)
	if err != nil {
		return nil, err
	}

	msg := models.NotificationMessage{
		TemplateKey: tpl.Key,
		Recipients:  req.Recipients,
		Subject:     subject,
		Body:        body,
	}
	if err := s.queue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: "notification.send", Payload: msg}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue notification")
	}

	payload, _ := json.Marshal(map[string]interface{}{"template": tpl.Key, "recipients": len(req.Recipients)})
	if s.audit != nil {
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &actorID,
			Action:     models.AuditActionNotificationSend,
			Resource:   "notifications",
			ResourceID: &tpl.ID,
			NewValues:  payload,
		}); err != nil {
			s.logger.Warn("failed to record notification audit log", zap.Error(err))
		}
	}

	return &dto.SendNotificationResponse{Queued: true}, nil
}

func (s *NotificationService) handleJob(ctx context.Context, job jobs.Job) error {
	msg, ok := job.Payload.(models.NotificationMessage)
	if !ok {
		s.logger.Error("unexpected notification payload type", zap.String("job_id", job.ID))
		return nil
	}
	return s.sender.Send(ctx, msg)
}

func renderTemplate(name, text string, vars map[string]interface{}) (string, error) {
	tpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInvalidFormat.Code, appErrors.ErrInvalidFormat.Status, "template does not parse")
	}
	if vars == nil {
		vars = map[string]interface{}{}
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, vars); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInvalidFormat.Code, appErrors.ErrInvalidFormat.Status, "template rendering failed")
	}
	return buf.String(), nil
}
