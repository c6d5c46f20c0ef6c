package authhdl

import (
	authdto "vendor_compliance/internal/api/auth/dto"
	models "vendor_compliance/internal/api/auth/models"
	authsvc "vendor_compliance/internal/api/auth/service"
	basehdl "vendor_compliance/internal/api/base/handler"
	"vendor_compliance/internal/common"
	"vendor_compliance/internal/global"
	"vendor_compliance/internal/logger"

	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// validateStruct chạy validator trên input đã bind
func validateStruct(input interface{}) error {
	if err := global.Validate.Struct(input); err != nil {
		return common.NewError(common.ErrCodeValidationInput, common.MsgValidationError, common.StatusBadRequest, err)
	}
	return nil
}

// LoginApprovalHandler xử lý cổng phê duyệt đăng nhập:
// reviewer xem danh sách chờ và duyệt/từ chối, client poll trạng thái
// và đổi approval token lấy JWT sau khi được duyệt.
type LoginApprovalHandler struct {
	approvalService *authsvc.LoginApprovalService
}

// NewLoginApprovalHandler tạo mới LoginApprovalHandler
func NewLoginApprovalHandler(approvalService *authsvc.LoginApprovalService) *LoginApprovalHandler {
	return &LoginApprovalHandler{approvalService: approvalService}
}

// Pending trả về danh sách yêu cầu đăng nhập đang chờ duyệt
func (h *LoginApprovalHandler) Pending(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		approvals, err := h.approvalService.FindPending(c.Context())
		if err != nil {
			basehdl.HandleResponse(c, nil, err)
			return nil
		}
		if approvals == nil {
			approvals = []models.LoginApproval{}
		}
		basehdl.HandleResponse(c, approvals, nil)
		return nil
	})
}

// Resolve duyệt hoặc từ chối một yêu cầu đăng nhập.
// Yêu cầu đã xử lý hoặc quá hạn không thể resolve lại.
func (h *LoginApprovalHandler) Resolve(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		resolverID, err := currentUserID(c)
		if err != nil {
			basehdl.HandleResponse(c, nil, err)
			return nil
		}

		approvalID, err := primitive.ObjectIDFromHex(c.Params("id"))
		if err != nil {
			basehdl.HandleResponse(c, nil, common.NewError(common.ErrCodeValidationFormat, "ID không hợp lệ", common.StatusBadRequest, nil))
			return nil
		}

		var input authdto.ApprovalResolveInput
		if err := c.Bind().Body(&input); err != nil {
			basehdl.HandleResponse(c, nil, common.NewError(common.ErrCodeValidationInput, common.MsgValidationError, common.StatusBadRequest, err))
			return nil
		}
		if err := validateStruct(&input); err != nil {
			basehdl.HandleResponse(c, nil, err)
			return nil
		}

		approval, err := h.approvalService.Resolve(c.Context(), approvalID, resolverID, input.Action == "approve", input.Note)
		if err != nil {
			basehdl.HandleResponse(c, nil, err)
			return nil
		}

		logger.LogAuth("login_approval_resolve", c, map[string]interface{}{
			"approval_id": approvalID.Hex(),
			"action":      input.Action,
		})
		basehdl.HandleResponse(c, approval, nil)
		return nil
	})
}

// Poll kiểm tra trạng thái một yêu cầu đăng nhập theo approval token.
// Endpoint này chỉ đọc, không cần JWT vì client chưa có token.
func (h *LoginApprovalHandler) Poll(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		token := c.Query("token")
		if token == "" {
			basehdl.HandleResponse(c, nil, common.NewError(common.ErrCodeValidationInput, "Thiếu approval token", common.StatusBadRequest, nil))
			return nil
		}

		approval, err := h.approvalService.PollStatus(c.Context(), token)
		if err != nil {
			basehdl.HandleResponse(c, nil, err)
			return nil
		}

		basehdl.HandleResponse(c, fiber.Map{
			"status":    approval.Status,
			"expiresAt": approval.ExpiresAt,
		}, nil)
		return nil
	})
}

// Complete đổi approval token đã được duyệt lấy JWT.
// Mỗi approval token chỉ đổi được một lần.
func (h *LoginApprovalHandler) Complete(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		var input authdto.ApprovalCompleteInput
		if err := c.Bind().Body(&input); err != nil {
			basehdl.HandleResponse(c, nil, common.NewError(common.ErrCodeValidationInput, common.MsgValidationError, common.StatusBadRequest, err))
			return nil
		}
		if err := validateStruct(&input); err != nil {
			basehdl.HandleResponse(c, nil, err)
			return nil
		}

		user, err := h.approvalService.CompleteLogin(c.Context(), input.Token, input.Hwid)
		if err != nil {
			basehdl.HandleResponse(c, nil, err)
			return nil
		}

		logger.LogAuth("login_approval_complete", c, map[string]interface{}{"user_id": user.ID.Hex()})
		basehdl.HandleResponse(c, fiber.Map{
			"status": "ok",
			"token":  user.Token,
			"user":   user,
		}, nil)
		return nil
	})
}
