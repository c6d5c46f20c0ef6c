// Package models - model Notification thuộc domain notification.
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Các loại thông báo trong hệ thống
const (
	TypeSubmission     = "submission"      // Vendor nộp hồ sơ mới
	TypeResubmission   = "resubmission"    // Vendor nộp lại tài liệu bị từ chối
	TypeReview         = "review"          // Consultant bắt đầu xem xét
	TypeApproval       = "approval"        // Tài liệu được duyệt
	TypeRejection      = "rejection"       // Tài liệu bị từ chối
	TypeRegistration   = "registration"    // Vendor mới đăng ký
	TypeWorkflowUpdate = "workflow_update" // Trạng thái hồ sơ thay đổi
	TypeSystem         = "system"          // Thông báo hệ thống
	TypeLoginRequest   = "login_request"   // Yêu cầu duyệt đăng nhập
	TypeLoginApproved  = "login_approved"  // Đăng nhập được duyệt
	TypeLoginRejected  = "login_rejected"  // Đăng nhập bị từ chối
)

// Các mức độ ưu tiên của thông báo
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Notification định nghĩa một thông báo gửi đến người dùng.
// Thông báo luôn được lưu vào DB trước, push realtime chỉ là best-effort.
type Notification struct {
	ID          primitive.ObjectID     `json:"id,omitempty" bson:"_id,omitempty"`
	RecipientID primitive.ObjectID     `json:"recipientId" bson:"recipientId" index:"single:1,compound:recipient_read"`
	SenderID    primitive.ObjectID     `json:"senderId,omitempty" bson:"senderId,omitempty"`
	Type        string                 `json:"type" bson:"type" index:"single:1"`
	Priority    string                 `json:"priority" bson:"priority"`
	Title       string                 `json:"title" bson:"title"`
	Message     string                 `json:"message" bson:"message"`
	IsRead      bool                   `json:"isRead" bson:"isRead" index:"compound:recipient_read"`
	ActionURL   string                 `json:"actionUrl,omitempty" bson:"actionUrl,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty" bson:"metadata,omitempty"`
	CreatedAt   int64                  `json:"createdAt" bson:"createdAt" index:"single:-1"`
	UpdatedAt   int64                  `json:"updatedAt" bson:"updatedAt"`
}

// NotificationPaginateResult đại diện cho kết quả phân trang Notification
type NotificationPaginateResult struct {
	Page      int64          `json:"page" bson:"page"`
	Limit     int64          `json:"limit" bson:"limit"`
	ItemCount int64          `json:"itemCount" bson:"itemCount"`
	Items     []Notification `json:"items" bson:"items"`
}
