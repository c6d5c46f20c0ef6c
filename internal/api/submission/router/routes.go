// Package router đăng ký các route thuộc domain Submission: hồ sơ tuân thủ,
// upload tài liệu, review và tải file.
package router

import (
	"github.com/gofiber/fiber/v3"

	models "vendor_compliance/internal/api/auth/models"
	"vendor_compliance/internal/api/middleware"
	apirouter "vendor_compliance/internal/api/router"
	subhdl "vendor_compliance/internal/api/submission/handler"
)

// Register đăng ký tất cả route submission lên v1.
// Handler được tạo ở cmd để dùng chung service instance với worker.
func Register(v1 fiber.Router, r *apirouter.Router, submissionHandler *subhdl.SubmissionHandler) error {
	vendorMiddleware := middleware.AuthMiddleware(models.RoleVendor)
	reviewerMiddleware := middleware.AuthMiddleware(models.RoleConsultant, models.RoleAdmin)
	authMiddleware := middleware.AuthMiddleware()

	// Route cho vendor: tạo hồ sơ, upload tài liệu, nộp
	apirouter.RegisterRouteWithMiddleware(v1, "/submission", "POST", "/create", []fiber.Handler{vendorMiddleware}, submissionHandler.Create)
	apirouter.RegisterRouteWithMiddleware(v1, "/submission", "GET", "/my", []fiber.Handler{vendorMiddleware}, submissionHandler.MySubmissions)
	apirouter.RegisterRouteWithMiddleware(v1, "/submission", "POST", "/:id/documents", []fiber.Handler{vendorMiddleware}, submissionHandler.UploadDocument)
	apirouter.RegisterRouteWithMiddleware(v1, "/submission", "PUT", "/:id/details", []fiber.Handler{vendorMiddleware}, submissionHandler.UpdateDetails)
	apirouter.RegisterRouteWithMiddleware(v1, "/submission", "POST", "/:id/submit", []fiber.Handler{vendorMiddleware}, submissionHandler.Submit)

	// Route dùng chung: kiểm tra điều kiện nộp, tải file
	apirouter.RegisterRouteWithMiddleware(v1, "/submission", "GET", "/:id/can-submit", []fiber.Handler{authMiddleware}, submissionHandler.Readiness)
	apirouter.RegisterRouteWithMiddleware(v1, "/submission", "GET", "/:id/documents/:entryId/file", []fiber.Handler{authMiddleware}, submissionHandler.DownloadDocument)

	// Route cho reviewer: danh sách được gán, hành động review
	apirouter.RegisterRouteWithMiddleware(v1, "/submission", "GET", "/assigned", []fiber.Handler{reviewerMiddleware}, submissionHandler.AssignedToMe)
	apirouter.RegisterRouteWithMiddleware(v1, "/submission", "POST", "/:id/documents/:entryId/review", []fiber.Handler{reviewerMiddleware}, submissionHandler.Review)

	// Tra cứu CRUD cho reviewer, chỉnh sửa trực tiếp chỉ cho admin
	r.RegisterCRUDRoutes(v1, "/submission", submissionHandler, apirouter.ReadOnlyConfig,
		[]string{models.RoleConsultant, models.RoleAdmin}, []string{models.RoleAdmin})

	return nil
}
