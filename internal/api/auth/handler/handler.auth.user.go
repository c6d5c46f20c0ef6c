// Package authhdl - các handler thuộc domain auth.
package authhdl

import (
	"fmt"

	authdto "vendor_compliance/internal/api/auth/dto"
	models "vendor_compliance/internal/api/auth/models"
	authsvc "vendor_compliance/internal/api/auth/service"
	basehdl "vendor_compliance/internal/api/base/handler"
	notifsvc "vendor_compliance/internal/api/notification/service"
	"vendor_compliance/internal/common"
	"vendor_compliance/internal/logger"

	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuthHandler xử lý các request xác thực: đăng ký, đăng nhập, đăng xuất
type AuthHandler struct {
	*basehdl.BaseHandler[models.User, authdto.UserRegisterInput, authdto.UserUpdateInput]
	userService     *authsvc.UserService
	approvalService *authsvc.LoginApprovalService
}

// NewAuthHandler tạo mới AuthHandler
func NewAuthHandler(notificationService *notifsvc.NotificationService) (*AuthHandler, error) {
	userService, err := authsvc.NewUserService()
	if err != nil {
		return nil, fmt.Errorf("failed to create user service: %v", err)
	}
	approvalService, err := authsvc.NewLoginApprovalService(userService, notificationService)
	if err != nil {
		return nil, fmt.Errorf("failed to create login approval service: %v", err)
	}

	return &AuthHandler{
		BaseHandler:     basehdl.NewBaseHandler[models.User, authdto.UserRegisterInput, authdto.UserUpdateInput](userService),
		userService:     userService,
		approvalService: approvalService,
	}, nil
}

// UserService trả về UserService để middleware và websocket dùng chung instance
func (h *AuthHandler) UserService() *authsvc.UserService {
	return h.userService
}

// ApprovalService trả về LoginApprovalService cho worker và router
func (h *AuthHandler) ApprovalService() *authsvc.LoginApprovalService {
	return h.approvalService
}

// Register đăng ký tài khoản mới
//
// Parameters:
// - c: Fiber context
//
// Returns:
// - error: Lỗi nếu có
func (h *AuthHandler) Register(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		var input authdto.UserRegisterInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		if err := h.ValidateInput(&input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		user, err := h.userService.Register(c.Context(), &input)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		logger.LogAuth("register", c, map[string]interface{}{"user_id": user.ID.Hex(), "role": user.Role})
		h.HandleResponse(c, user, nil)
		return nil
	})
}

// Login đăng nhập.
// User có bật cổng phê duyệt không nhận token ngay: response trả về
// approval token để poll trạng thái, JWT chỉ được cấp sau khi admin hoặc
// consultant duyệt và client gọi complete.
func (h *AuthHandler) Login(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		var input authdto.UserLoginInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		if err := h.ValidateInput(&input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		user, err := h.userService.VerifyCredentials(c.Context(), input.Email, input.Password)
		if err != nil {
			logger.LogAuth("login_failed", c, map[string]interface{}{"email": input.Email})
			h.HandleResponse(c, nil, err)
			return nil
		}

		if user.RequiresLoginApproval {
			device := models.DeviceInfo{
				UserAgent: c.Get(fiber.HeaderUserAgent),
				IP:        c.IP(),
				Hwid:      input.Hwid,
			}
			approval, err := h.approvalService.RequestApproval(c.Context(), user, device)
			if err != nil {
				h.HandleResponse(c, nil, err)
				return nil
			}
			logger.LogAuth("login_pending_approval", c, map[string]interface{}{"user_id": user.ID.Hex(), "approval_id": approval.ID.Hex()})
			h.HandleResponse(c, fiber.Map{
				"status":        "pending_approval",
				"approvalToken": approval.Token,
				"expiresAt":     approval.ExpiresAt,
			}, nil)
			return nil
		}

		loggedIn, err := h.userService.IssueToken(c.Context(), user, input.Hwid)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		logger.LogAuth("login", c, map[string]interface{}{"user_id": loggedIn.ID.Hex()})
		h.HandleResponse(c, fiber.Map{
			"status": "ok",
			"token":  loggedIn.Token,
			"user":   loggedIn,
		}, nil)
		return nil
	})
}

// Logout đăng xuất (xóa token theo hwid)
func (h *AuthHandler) Logout(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		userID, err := currentUserID(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		var input authdto.UserLogoutInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		if err := h.ValidateInput(&input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		err = h.userService.Logout(c.Context(), userID, &input)
		if err == nil {
			logger.LogAuth("logout", c, nil)
		}
		h.HandleResponse(c, nil, err)
		return nil
	})
}

// Me trả về thông tin người dùng hiện tại
func (h *AuthHandler) Me(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		user, ok := c.Locals("user").(models.User)
		if !ok {
			h.HandleResponse(c, nil, common.ErrTokenInvalid)
			return nil
		}
		h.HandleResponse(c, user, nil)
		return nil
	})
}

// ChangePassword đổi mật khẩu người dùng hiện tại
func (h *AuthHandler) ChangePassword(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		userID, err := currentUserID(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		var input authdto.UserChangePasswordInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		if err := h.ValidateInput(&input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		err = h.userService.ChangePassword(c.Context(), userID, &input)
		if err == nil {
			logger.LogAuth("change_password", c, nil)
		}
		h.HandleResponse(c, nil, err)
		return nil
	})
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
