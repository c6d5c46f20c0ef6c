package notifdto

// NotificationCreateInput dùng cho tạo thông báo (tầng transport)
type NotificationCreateInput struct {
	RecipientID string                 `json:"recipientId" validate:"required"`
	Type        string                 `json:"type" validate:"required,oneof=submission resubmission review approval rejection registration workflow_update system login_request login_approved login_rejected"`
	Priority    string                 `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Title       string                 `json:"title" validate:"required"`
	Message     string                 `json:"message" validate:"required"`
	ActionURL   string                 `json:"actionUrl,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// NotificationUpdateInput dùng cho cập nhật thông báo (tầng transport)
type NotificationUpdateInput struct {
	Priority  string `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	ActionURL string `json:"actionUrl,omitempty"`
}
