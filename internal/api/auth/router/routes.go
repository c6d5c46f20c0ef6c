// Package router đăng ký các route thuộc domain Auth: đăng ký, đăng nhập,
// cổng phê duyệt đăng nhập và quản lý user.
package router

import (
	"github.com/gofiber/fiber/v3"

	authhdl "vendor_compliance/internal/api/auth/handler"
	models "vendor_compliance/internal/api/auth/models"
	"vendor_compliance/internal/api/middleware"
	apirouter "vendor_compliance/internal/api/router"
)

// Register đăng ký tất cả route auth lên v1.
// Handler được tạo ở cmd để dùng chung service instance với websocket và worker.
func Register(v1 fiber.Router, r *apirouter.Router, authHandler *authhdl.AuthHandler) error {
	approvalHandler := authhdl.NewLoginApprovalHandler(authHandler.ApprovalService())

	// Route công khai: client chưa có token
	v1.Post("/auth/register", authHandler.Register)
	v1.Post("/auth/login", authHandler.Login)
	v1.Get("/auth/login-approval/poll", approvalHandler.Poll)
	v1.Post("/auth/login-approval/complete", approvalHandler.Complete)

	// Route cần đăng nhập
	authMiddleware := middleware.AuthMiddleware()
	apirouter.RegisterRouteWithMiddleware(v1, "/auth", "GET", "/me", []fiber.Handler{authMiddleware}, authHandler.Me)
	apirouter.RegisterRouteWithMiddleware(v1, "/auth", "POST", "/logout", []fiber.Handler{authMiddleware}, authHandler.Logout)
	apirouter.RegisterRouteWithMiddleware(v1, "/auth", "PUT", "/change-password", []fiber.Handler{authMiddleware}, authHandler.ChangePassword)

	// Route cho reviewer: admin và consultant duyệt yêu cầu đăng nhập
	reviewerMiddleware := middleware.AuthMiddleware(models.RoleAdmin, models.RoleConsultant)
	apirouter.RegisterRouteWithMiddleware(v1, "/auth/login-approval", "GET", "/pending", []fiber.Handler{reviewerMiddleware}, approvalHandler.Pending)
	apirouter.RegisterRouteWithMiddleware(v1, "/auth/login-approval", "POST", "/:id/resolve", []fiber.Handler{reviewerMiddleware}, approvalHandler.Resolve)

	// Quản lý user: chỉ admin
	r.RegisterCRUDRoutes(v1, "/user", authHandler, apirouter.ReadWriteConfig,
		[]string{models.RoleAdmin, models.RoleConsultant}, []string{models.RoleAdmin})

	return nil
}
