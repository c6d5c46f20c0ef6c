package notifhdl

import (
	"fmt"

	basehdl "vendor_compliance/internal/api/base/handler"
	notifdto "vendor_compliance/internal/api/notification/dto"
	notifmodels "vendor_compliance/internal/api/notification/models"
	notifsvc "vendor_compliance/internal/api/notification/service"
	"vendor_compliance/internal/common"
	"vendor_compliance/internal/realtime"
	"vendor_compliance/internal/utility"

	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationHandler xử lý các request liên quan đến thông báo
type NotificationHandler struct {
	*basehdl.BaseHandler[notifmodels.Notification, notifdto.NotificationCreateInput, notifdto.NotificationUpdateInput]
	notificationService *notifsvc.NotificationService
}

// NewNotificationHandler tạo mới NotificationHandler
func NewNotificationHandler(registry *realtime.ChannelRegistry) (*NotificationHandler, error) {
	notificationService, err := notifsvc.NewNotificationService(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification service: %v", err)
	}

	hdl := &NotificationHandler{
		BaseHandler:         basehdl.NewBaseHandler[notifmodels.Notification, notifdto.NotificationCreateInput, notifdto.NotificationUpdateInput](notificationService),
		notificationService: notificationService,
	}
	return hdl, nil
}

// Service trả về NotificationService để các domain khác dùng chung instance
func (h *NotificationHandler) Service() *notifsvc.NotificationService {
	return h.notificationService
}

// currentUserID lấy user ID của người gọi từ context (đã được middleware set)
func currentUserID(c fiber.Ctx) (primitive.ObjectID, error) {
	userIDStr, ok := c.Locals("user_id").(string)
	if !ok || userIDStr == "" {
		return primitive.NilObjectID, common.ErrTokenMissing
	}
	userID, err := primitive.ObjectIDFromHex(userIDStr)
	if err != nil {
		return primitive.NilObjectID, common.ErrTokenInvalid
	}
	return userID, nil
}

// MyNotifications trả về danh sách thông báo của người gọi, mới nhất trước
//
// Parameters:
// - c: Fiber context
//
// Returns:
// - error: Lỗi nếu có
func (h *NotificationHandler) MyNotifications(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		userID, err := currentUserID(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		page, limit := h.ParsePagination(c)
		data, err := h.notificationService.FindByRecipient(c.Context(), userID, page, limit)
		h.HandleResponse(c, data, err)
		return nil
	})
}

// UnreadCount trả về số thông báo chưa đọc của người gọi
func (h *NotificationHandler) UnreadCount(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		userID, err := currentUserID(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		count, err := h.notificationService.UnreadCount(c.Context(), userID)
		h.HandleResponse(c, fiber.Map{"unread": count}, err)
		return nil
	})
}

// MarkRead đánh dấu một thông báo của người gọi là đã đọc.
// ID thông báo được truyền qua URI params.
func (h *NotificationHandler) MarkRead(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		userID, err := currentUserID(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		id := c.Params("id")
		if !primitive.IsValidObjectID(id) {
			h.HandleResponse(c, nil, common.NewError(
				common.ErrCodeValidationFormat,
				fmt.Sprintf("ID '%s' không đúng định dạng MongoDB ObjectID (phải là chuỗi hex 24 ký tự)", id),
				common.StatusBadRequest,
				nil,
			))
			return nil
		}

		data, err := h.notificationService.MarkRead(c.Context(), utility.String2ObjectID(id), userID)
		h.HandleResponse(c, data, err)
		return nil
	})
}

// MarkAllRead đánh dấu tất cả thông báo của người gọi là đã đọc
func (h *NotificationHandler) MarkAllRead(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		userID, err := currentUserID(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		count, err := h.notificationService.MarkAllRead(c.Context(), userID)
		h.HandleResponse(c, fiber.Map{"marked": count}, err)
		return nil
	})
}
