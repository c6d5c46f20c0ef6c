// Package models - model LoginApproval thuộc domain auth.
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Các trạng thái của một yêu cầu phê duyệt đăng nhập
const (
	ApprovalStatusPending  = "pending"  // Đang chờ duyệt
	ApprovalStatusApproved = "approved" // Đã được duyệt, chờ đổi token
	ApprovalStatusRejected = "rejected" // Bị từ chối
	ApprovalStatusExpired  = "expired"  // Hết hạn mà chưa được xử lý (do worker quét)
)

// DeviceInfo lưu thông tin thiết bị phát sinh yêu cầu đăng nhập,
// để người duyệt đối chiếu trước khi quyết định
type DeviceInfo struct {
	UserAgent string `json:"userAgent,omitempty" bson:"userAgent,omitempty"`
	IP        string `json:"ip,omitempty" bson:"ip,omitempty"`
	Hwid      string `json:"-" bson:"hwid,omitempty"`
}

// LoginApproval định nghĩa một yêu cầu phê duyệt đăng nhập.
// Mỗi lần đăng nhập của user có bật cổng phê duyệt tạo MỘT bản ghi mới,
// không bao giờ gia hạn hay tái sử dụng bản ghi cũ. Token là chuỗi ngẫu nhiên
// dùng để poll trạng thái và đổi lấy JWT sau khi được duyệt.
type LoginApproval struct {
	ID                primitive.ObjectID   `json:"id,omitempty" bson:"_id,omitempty"`
	UserID            primitive.ObjectID   `json:"userId" bson:"userId" index:"single:1"`
	Token             string               `json:"-" bson:"token" index:"unique"`
	Device            DeviceInfo           `json:"device" bson:"device,omitempty"`
	NotifiedReviewers []primitive.ObjectID `json:"notifiedReviewers,omitempty" bson:"notifiedReviewers,omitempty"`
	Status            string               `json:"status" bson:"status" index:"single:1"`
	RequestedAt       int64                `json:"requestedAt" bson:"requestedAt"`
	ExpiresAt         int64                `json:"expiresAt" bson:"expiresAt" index:"single:1"`
	ResolvedAt        int64                `json:"resolvedAt,omitempty" bson:"resolvedAt,omitempty"`
	ResolvedBy        primitive.ObjectID   `json:"resolvedBy,omitempty" bson:"resolvedBy,omitempty"`
	ResolveNote       string               `json:"resolveNote,omitempty" bson:"resolveNote,omitempty"`
	Consumed          bool                 `json:"-" bson:"consumed"`
	CreatedAt         int64                `json:"createdAt" bson:"createdAt"`
	UpdatedAt         int64                `json:"updatedAt" bson:"updatedAt"`
}
