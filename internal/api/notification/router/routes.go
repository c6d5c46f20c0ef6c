// Package router đăng ký các route thuộc domain Notification.
package router

import (
	"github.com/gofiber/fiber/v3"

	models "vendor_compliance/internal/api/auth/models"
	"vendor_compliance/internal/api/middleware"
	notifhdl "vendor_compliance/internal/api/notification/handler"
	apirouter "vendor_compliance/internal/api/router"
)

// Register đăng ký tất cả route notification lên v1.
// Handler được tạo ở cmd để dùng chung service instance với các domain khác.
func Register(v1 fiber.Router, r *apirouter.Router, notificationHandler *notifhdl.NotificationHandler) error {
	authMiddleware := middleware.AuthMiddleware()

	// Route cho người dùng hiện tại
	apirouter.RegisterRouteWithMiddleware(v1, "/notification", "GET", "/my", []fiber.Handler{authMiddleware}, notificationHandler.MyNotifications)
	apirouter.RegisterRouteWithMiddleware(v1, "/notification", "GET", "/unread-count", []fiber.Handler{authMiddleware}, notificationHandler.UnreadCount)
	apirouter.RegisterRouteWithMiddleware(v1, "/notification", "PUT", "/read-all", []fiber.Handler{authMiddleware}, notificationHandler.MarkAllRead)
	apirouter.RegisterRouteWithMiddleware(v1, "/notification", "PUT", "/:id/read", []fiber.Handler{authMiddleware}, notificationHandler.MarkRead)

	// Admin tra cứu toàn bộ notification
	r.RegisterCRUDRoutes(v1, "/notification", notificationHandler, apirouter.ReadOnlyConfig,
		[]string{models.RoleAdmin}, []string{models.RoleAdmin})

	return nil
}
