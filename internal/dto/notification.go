package dto

// SaveTemplateRequest creates or replaces a notification template.
type SaveTemplateRequest struct {
	Key     string `json:"key" validate:"required,min=2"`
	Subject string `json:"subject" validate:"required"`
	Body    string `json:"body" validate:"required"`
	Active  bool   `json:"active"`
}

// SendNotificationRequest renders a template and queues delivery.
type SendNotificationRequest struct {
	TemplateKey  string                 `json:"template_key" validate:"required"`
	Recipients   []string               `json:"recipients" validate:"required,min=1,dive,email"`
	DepartmentID string                 `json:"department_id"`
	Variables    map[string]interface{} `json:"variables"`
}

// SendNotificationResponse reports dispatch state.
type SendNotificationResponse struct {
	Queued  bool   `json:"queued"`
	Skipped string `json:"skipped,omitempty"`
}
