// Package subhdl - handler cho domain submission.
package subhdl

import (
	"io"

	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/bson/primitive"

	authmodels "vendor_compliance/internal/api/auth/models"
	basehdl "vendor_compliance/internal/api/base/handler"
	subdto "vendor_compliance/internal/api/submission/dto"
	models "vendor_compliance/internal/api/submission/models"
	subsvc "vendor_compliance/internal/api/submission/service"
	"vendor_compliance/internal/common"
	"vendor_compliance/internal/global"
	"vendor_compliance/internal/logger"
	"vendor_compliance/internal/period"
	"vendor_compliance/internal/storage"
	"vendor_compliance/internal/utility"
)

// SubmissionHandler xử lý các request trên hồ sơ tuân thủ
type SubmissionHandler struct {
	*basehdl.BaseHandler[models.Submission, subdto.SubmissionCreateInput, subdto.SubmissionUpdateInput]
	submissionService *subsvc.SubmissionService
	store             *storage.LocalStore
}

// NewSubmissionHandler tạo mới SubmissionHandler
func NewSubmissionHandler(submissionService *subsvc.SubmissionService, store *storage.LocalStore) *SubmissionHandler {
	hdl := &SubmissionHandler{
		BaseHandler:       basehdl.NewBaseHandler[models.Submission, subdto.SubmissionCreateInput, subdto.SubmissionUpdateInput](submissionService),
		submissionService: submissionService,
		store:             store,
	}
	hdl.SetFilterOptions(basehdl.FilterOptions{
		DeniedFields:     []string{},
		AllowedOperators: []string{"$eq", "$in", "$nin", "$gt", "$gte", "$lt", "$lte", "$ne"},
		MaxFields:        10,
	})
	return hdl
}

// Service trả về SubmissionService cho worker dùng chung instance
func (h *SubmissionHandler) Service() *subsvc.SubmissionService {
	return h.submissionService
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

// paramObjectID parse một path param thành ObjectID
func paramObjectID(c fiber.Ctx, name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(c.Params(name))
	if err != nil {
		return primitive.NilObjectID, common.NewError(
			common.ErrCodeValidationFormat,
			"ID không hợp lệ",
			common.StatusBadRequest,
			map[string]interface{}{"param": name},
		)
	}
	return id, nil
}

// Create tạo hồ sơ mới cho một kỳ báo cáo của vendor đang đăng nhập
func (h *SubmissionHandler) Create(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		vendorID, err := currentUserID(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		var input subdto.SubmissionCreateInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		if err := h.ValidateInput(&input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		submission, err := h.submissionService.Create(c.Context(), vendorID, &input)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		logger.LogSubmission("create", submission.ID.Hex(), c, map[string]interface{}{
			"year": input.Year, "month": input.Month,
		})
		h.HandleResponse(c, submission, nil)
		return nil
	})
}

// UploadDocument nhận một tài liệu qua multipart form (field "category" và "file")
func (h *SubmissionHandler) UploadDocument(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		vendorID, err := currentUserID(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		submissionID, err := paramObjectID(c, "id")
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		category := period.Category(c.FormValue("category"))
		if category == "" {
			h.HandleResponse(c, nil, common.NewError(common.ErrCodeValidationInput, "Thiếu trường category", common.StatusBadRequest, nil))
			return nil
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			h.HandleResponse(c, nil, common.NewError(common.ErrCodeValidationInput, "Thiếu file upload", common.StatusBadRequest, err))
			return nil
		}

		file, err := fileHeader.Open()
		if err != nil {
			h.HandleResponse(c, nil, common.NewError(common.ErrCodeInternalServer, "Không thể đọc file upload", common.StatusInternalServerError, err))
			return nil
		}
		defer file.Close()

		// Đọc tối đa maxSize+1 byte: service phát hiện vượt ngưỡng mà
		// không cần tải toàn bộ file quá lớn vào bộ nhớ
		data, err := io.ReadAll(io.LimitReader(file, global.ServerConfig.MaxUploadSizeBytes()+1))
		if err != nil {
			h.HandleResponse(c, nil, common.NewError(common.ErrCodeInternalServer, "Không thể đọc file upload", common.StatusInternalServerError, err))
			return nil
		}

		submission, err := h.submissionService.AddDocument(c.Context(), submissionID, vendorID, category, fileHeader.Filename, data)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		logger.LogSubmission("upload_document", submissionID.Hex(), c, map[string]interface{}{
			"category": category, "fileName": fileHeader.Filename,
		})
		h.HandleResponse(c, submission, nil)
		return nil
	})
}

// Readiness trả về hồ sơ đã đủ điều kiện nộp chưa và danh sách category còn thiếu
func (h *SubmissionHandler) Readiness(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		submissionID, err := paramObjectID(c, "id")
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		ok, missing, err := h.submissionService.CanSubmit(c.Context(), submissionID)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		h.HandleResponse(c, fiber.Map{
			"canSubmit":        ok,
			"missingMandatory": missing,
		}, nil)
		return nil
	})
}

// Submit nộp hồ sơ của vendor đang đăng nhập
func (h *SubmissionHandler) Submit(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		vendorID, err := currentUserID(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		submissionID, err := paramObjectID(c, "id")
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		submission, err := h.submissionService.Submit(c.Context(), submissionID, vendorID)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		logger.LogSubmission("submit", submissionID.Hex(), c, nil)
		h.HandleResponse(c, submission, nil)
		return nil
	})
}

// UpdateDetails cập nhật thông tin khai báo (consultant, invoice, agreement)
func (h *SubmissionHandler) UpdateDetails(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		vendorID, err := currentUserID(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		submissionID, err := paramObjectID(c, "id")
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		var input subdto.SubmissionUpdateInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		if err := h.ValidateInput(&input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		submission, err := h.submissionService.UpdateDetails(c.Context(), submissionID, vendorID, &input)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		logger.LogSubmission("update_details", submissionID.Hex(), c, nil)
		h.HandleResponse(c, submission, nil)
		return nil
	})
}

// Review áp dụng một hành động review của consultant/admin lên một tài liệu
func (h *SubmissionHandler) Review(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		reviewerID, err := currentUserID(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		submissionID, err := paramObjectID(c, "id")
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		entryID, err := paramObjectID(c, "entryId")
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		var input subdto.DocumentReviewInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		if err := h.ValidateInput(&input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		submission, err := h.submissionService.TransitionDocument(c.Context(), submissionID, entryID, input.Action, reviewerID, input.Remarks)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		logger.LogSubmission("review_document", submissionID.Hex(), c, map[string]interface{}{
			"entryId": entryID.Hex(), "action": input.Action,
		})
		h.HandleResponse(c, submission, nil)
		return nil
	})
}

// DownloadDocument stream nội dung file của một tài liệu.
// Vendor chỉ tải được file trong hồ sơ của mình; consultant và admin tải
// được mọi file.
func (h *SubmissionHandler) DownloadDocument(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		userID, err := currentUserID(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		submissionID, err := paramObjectID(c, "id")
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		entryID, err := paramObjectID(c, "entryId")
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		submission, err := h.submissionService.FindOneById(c.Context(), submissionID)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		role, _ := c.Locals("role").(string)
		if role == authmodels.RoleVendor && submission.VendorID != userID {
			h.HandleResponse(c, nil, common.NewError(common.ErrCodeAuthRole, "Hồ sơ không thuộc về vendor này", common.StatusForbidden, nil))
			return nil
		}

		entry := submission.FindEntry(entryID)
		if entry == nil {
			h.HandleResponse(c, nil, common.ErrNotFound)
			return nil
		}

		reader, err := h.store.Open(entry.FileRef)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		c.Set("Content-Type", entry.MimeType)
		c.Set("Content-Disposition", `attachment; filename="`+entry.FileName+`"`)
		return c.SendStream(reader)
	})
}

// MySubmissions trả về hồ sơ của vendor đang đăng nhập, lọc tùy chọn theo kỳ
func (h *SubmissionHandler) MySubmissions(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		vendorID, err := currentUserID(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		year := utility.P2Int64(c.Query("year"))
		month := c.Query("month")
		if year > 0 && month != "" {
			submission, err := h.submissionService.FindByVendorPeriod(c.Context(), vendorID, int(year), month)
			if err != nil {
				h.HandleResponse(c, nil, err)
				return nil
			}
			h.HandleResponse(c, submission, nil)
			return nil
		}

		submissions, err := h.submissionService.FindForVendor(c.Context(), vendorID)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		h.HandleResponse(c, submissions, nil)
		return nil
	})
}

// AssignedToMe trả về các hồ sơ được gán cho consultant đang đăng nhập
func (h *SubmissionHandler) AssignedToMe(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		user, ok := c.Locals("user").(authmodels.User)
		if !ok {
			h.HandleResponse(c, nil, common.ErrTokenInvalid)
			return nil
		}

		submissions, err := h.submissionService.FindByConsultantEmail(c.Context(), user.Email)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		h.HandleResponse(c, submissions, nil)
		return nil
	})
}
