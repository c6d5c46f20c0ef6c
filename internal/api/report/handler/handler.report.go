// Package reporthdl - handler cho các truy vấn báo cáo chỉ đọc.
package reporthdl

import (
	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/bson/primitive"

	basehdl "vendor_compliance/internal/api/base/handler"
	reportsvc "vendor_compliance/internal/api/report/service"
	"vendor_compliance/internal/common"
	"vendor_compliance/internal/utility"
)

// ReportHandler xử lý các request báo cáo
type ReportHandler struct {
	reportService *reportsvc.ReportService
}

// NewReportHandler tạo mới ReportHandler
func NewReportHandler() (*ReportHandler, error) {
	reportService, err := reportsvc.NewReportService()
	if err != nil {
		return nil, err
	}
	return &ReportHandler{reportService: reportService}, nil
}

// StatusOverview trả về số hồ sơ theo trạng thái, lọc tùy chọn theo kỳ
func (h *ReportHandler) StatusOverview(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		year := int(utility.P2Int64(c.Query("year")))
		month := c.Query("month")

		results, err := h.reportService.StatusOverview(c.Context(), year, month)
		basehdl.HandleResponse(c, results, err)
		return nil
	})
}

// RejectionsByCategory trả về số lần từ chối theo loại tài liệu
func (h *ReportHandler) RejectionsByCategory(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		year := int(utility.P2Int64(c.Query("year")))

		results, err := h.reportService.RejectionsByCategory(c.Context(), year)
		basehdl.HandleResponse(c, results, err)
		return nil
	})
}

// Workload trả về khối lượng hồ sơ theo consultant
func (h *ReportHandler) Workload(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		year := int(utility.P2Int64(c.Query("year")))

		results, err := h.reportService.Workload(c.Context(), year)
		basehdl.HandleResponse(c, results, err)
		return nil
	})
}

// VendorHistory trả về tóm tắt các kỳ của một vendor
func (h *ReportHandler) VendorHistory(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		vendorID, err := primitive.ObjectIDFromHex(c.Params("vendorId"))
		if err != nil {
			basehdl.HandleResponse(c, nil, common.NewError(common.ErrCodeValidationFormat, "ID không hợp lệ", common.StatusBadRequest, nil))
			return nil
		}

		results, err := h.reportService.VendorHistory(c.Context(), vendorID)
		basehdl.HandleResponse(c, results, err)
		return nil
	})
}

// MyUnreadByType trả về số thông báo chưa đọc theo loại của người gọi
func (h *ReportHandler) MyUnreadByType(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		userIDStr, ok := c.Locals("user_id").(string)
		if !ok || userIDStr == "" {
			basehdl.HandleResponse(c, nil, common.ErrTokenMissing)
			return nil
		}
		userID, err := primitive.ObjectIDFromHex(userIDStr)
		if err != nil {
			basehdl.HandleResponse(c, nil, common.ErrTokenInvalid)
			return nil
		}

		results, err := h.reportService.UnreadByType(c.Context(), userID)
		basehdl.HandleResponse(c, results, err)
		return nil
	})
}
