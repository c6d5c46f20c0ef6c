// Package router đăng ký các route thuộc domain Report (chỉ đọc).
package router

import (
	"fmt"

	"github.com/gofiber/fiber/v3"

	models "vendor_compliance/internal/api/auth/models"
	"vendor_compliance/internal/api/middleware"
	reporthdl "vendor_compliance/internal/api/report/handler"
	apirouter "vendor_compliance/internal/api/router"
)

// Register đăng ký tất cả route report lên v1.
func Register(v1 fiber.Router, r *apirouter.Router) error {
	reportHandler, err := reporthdl.NewReportHandler()
	if err != nil {
		return fmt.Errorf("create report handler: %w", err)
	}

	reviewerMiddleware := middleware.AuthMiddleware(models.RoleConsultant, models.RoleAdmin)
	authMiddleware := middleware.AuthMiddleware()

	apirouter.RegisterRouteWithMiddleware(v1, "/report", "GET", "/status-overview", []fiber.Handler{reviewerMiddleware}, reportHandler.StatusOverview)
	apirouter.RegisterRouteWithMiddleware(v1, "/report", "GET", "/rejections-by-category", []fiber.Handler{reviewerMiddleware}, reportHandler.RejectionsByCategory)
	apirouter.RegisterRouteWithMiddleware(v1, "/report", "GET", "/consultant-workload", []fiber.Handler{reviewerMiddleware}, reportHandler.Workload)
	apirouter.RegisterRouteWithMiddleware(v1, "/report", "GET", "/vendor/:vendorId/history", []fiber.Handler{reviewerMiddleware}, reportHandler.VendorHistory)
	apirouter.RegisterRouteWithMiddleware(v1, "/report", "GET", "/my-unread-by-type", []fiber.Handler{authMiddleware}, reportHandler.MyUnreadByType)

	return nil
}
