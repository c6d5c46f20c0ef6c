// Package notifsvc - service điều phối thông báo.
package notifsvc

import (
	"context"
	"encoding/json"
	"fmt"

	basesvc "vendor_compliance/internal/api/base/service"
	notifmodels "vendor_compliance/internal/api/notification/models"
	"vendor_compliance/internal/common"
	"vendor_compliance/internal/global"
	"vendor_compliance/internal/logger"
	"vendor_compliance/internal/realtime"

	"github.com/sirupsen/logrus"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// newestFirstOptions trả về options sắp xếp theo createdAt giảm dần
func newestFirstOptions() *options.FindOptions {
	return options.Find().SetSort(bson.M{"createdAt": -1})
}

// Pusher đẩy payload đến các kênh realtime của một user.
// ChannelRegistry là implementation chính; tách interface để bước push
// test được mà không cần websocket.
type Pusher interface {
	Send(userID string, payload []byte)
}

// NotificationService là cấu trúc chứa các phương thức liên quan đến thông báo.
// Nguyên tắc phân phối: lưu DB trước, push realtime sau; push thất bại không
// làm thất bại thao tác (người nhận sẽ thấy thông báo khi tải danh sách).
type NotificationService struct {
	*basesvc.BaseServiceMongoImpl[notifmodels.Notification]
	pusher Pusher
}

// NewNotificationService tạo mới NotificationService
func NewNotificationService(registry *realtime.ChannelRegistry) (*NotificationService, error) {
	collection, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.Notifications)
	if !exist {
		return nil, fmt.Errorf("failed to get notifications collection: %v", common.ErrNotFound)
	}

	service := &NotificationService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[notifmodels.Notification](collection),
	}
	if registry != nil {
		service.pusher = registry
	}
	return service, nil
}

// realtimeEnvelope là payload gửi qua kênh websocket
type realtimeEnvelope struct {
	Event string                   `json:"event"`
	Data  notifmodels.Notification `json:"data"`
}

// Notify lưu thông báo vào DB rồi push realtime best-effort.
// Lỗi lưu DB trả về cho caller; lỗi push chỉ được log.
//
// Parameters:
// - ctx: Context
// - notification: Thông báo cần gửi
//
// Returns:
// - notifmodels.Notification: Thông báo đã lưu (có ID)
// - error: Lỗi nếu không lưu được vào DB
func (s *NotificationService) Notify(ctx context.Context, notification notifmodels.Notification) (notifmodels.Notification, error) {
	if notification.Priority == "" {
		notification.Priority = notifmodels.PriorityMedium
	}

	saved, err := s.BaseServiceMongoImpl.InsertOne(ctx, notification)
	if err != nil {
		return saved, err
	}

	s.push(saved)
	return saved, nil
}

// NotifyMany gửi cùng một nội dung thông báo đến nhiều người nhận.
// Mỗi người nhận có một bản ghi riêng trong DB.
func (s *NotificationService) NotifyMany(ctx context.Context, recipientIDs []primitive.ObjectID, template notifmodels.Notification) ([]notifmodels.Notification, error) {
	saved := make([]notifmodels.Notification, 0, len(recipientIDs))
	for _, recipientID := range recipientIDs {
		notification := template
		notification.ID = primitive.NilObjectID
		notification.RecipientID = recipientID

		result, err := s.Notify(ctx, notification)
		if err != nil {
			// Lưu cho một người nhận thất bại không chặn những người còn lại
			logger.GetErrorLogger().WithFields(logrus.Fields{
				"recipient_id": recipientID.Hex(),
				"type":         template.Type,
				"error":        err.Error(),
			}).Error("Lưu thông báo thất bại")
			continue
		}
		saved = append(saved, result)
	}
	return saved, nil
}

// push đẩy thông báo qua kênh realtime của người nhận.
// Mọi lỗi ở bước này chỉ được log, không bao giờ trả về cho caller.
func (s *NotificationService) push(notification notifmodels.Notification) {
	if s.pusher == nil {
		return
	}

	payload, err := json.Marshal(realtimeEnvelope{
		Event: "notification",
		Data:  notification,
	})
	if err != nil {
		logger.GetErrorLogger().WithFields(logrus.Fields{
			"notification_id": notification.ID.Hex(),
			"error":           err.Error(),
		}).Error("Marshal payload realtime thất bại")
		return
	}

	s.pusher.Send(notification.RecipientID.Hex(), payload)
}

// UnreadCount đếm số thông báo chưa đọc của user
func (s *NotificationService) UnreadCount(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return s.BaseServiceMongoImpl.CountDocuments(ctx, bson.M{
		"recipientId": userID,
		"isRead":      false,
	})
}

// MarkRead đánh dấu một thông báo là đã đọc.
// Chỉ chủ sở hữu thông báo mới đánh dấu được.
func (s *NotificationService) MarkRead(ctx context.Context, notificationID primitive.ObjectID, userID primitive.ObjectID) (notifmodels.Notification, error) {
	updateData := &basesvc.UpdateData{
		Set: map[string]interface{}{"isRead": true},
	}
	return s.BaseServiceMongoImpl.FindOneAndUpdate(ctx, bson.M{
		"_id":         notificationID,
		"recipientId": userID,
	}, updateData, nil)
}

// MarkAllRead đánh dấu tất cả thông báo của user là đã đọc
func (s *NotificationService) MarkAllRead(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	updateData := &basesvc.UpdateData{
		Set: map[string]interface{}{"isRead": true},
	}
	return s.BaseServiceMongoImpl.UpdateMany(ctx, bson.M{
		"recipientId": userID,
		"isRead":      false,
	}, updateData, nil)
}

// FindByRecipient tìm thông báo của một user, mới nhất trước
func (s *NotificationService) FindByRecipient(ctx context.Context, userID primitive.ObjectID, page, limit int64) (interface{}, error) {
	filter := bson.M{"recipientId": userID}
	opts := newestFirstOptions()
	return s.BaseServiceMongoImpl.FindWithPagination(ctx, filter, page, limit, opts)
}
