package middleware

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	models "vendor_compliance/internal/api/auth/models"
	authsvc "vendor_compliance/internal/api/auth/service"
	"vendor_compliance/internal/api/events"
	"vendor_compliance/internal/common"
	"vendor_compliance/internal/global"
	"vendor_compliance/internal/logger"
	"vendor_compliance/internal/utility"
)

// AuthManager quản lý xác thực và phân quyền người dùng
type AuthManager struct {
	UserCRUD *authsvc.UserService
	Cache    *utility.Cache
}

var (
	authManagerInstance *AuthManager
	authManagerOnce     sync.Once
)

// GetAuthManager trả về instance duy nhất của AuthManager (singleton pattern)
func GetAuthManager() *AuthManager {
	authManagerOnce.Do(func() {
		var err error
		authManagerInstance, err = newAuthManager()
		if err != nil {
			panic(err)
		}
	})
	return authManagerInstance
}

// newAuthManager khởi tạo một instance mới của AuthManager (private constructor)
func newAuthManager() (*AuthManager, error) {
	newManager := new(AuthManager)

	userService, err := authsvc.NewUserService()
	if err != nil {
		return nil, err
	}
	newManager.UserCRUD = userService

	// Khởi tạo cache với thời gian sống 5 phút và thời gian dọn dẹp 10 phút
	newManager.Cache = utility.NewCache(5*time.Minute, 10*time.Minute)

	// Invalidate cache token->user khi user document thay đổi (block, đổi role,
	// logout) để quyết định auth không dùng bản cũ đến hết TTL
	events.OnDataChanged(func(_ context.Context, e events.DataChangeEvent) {
		if e.CollectionName != global.MongoDB_ColNames.Users {
			return
		}
		user, ok := e.Document.(models.User)
		if !ok {
			return
		}
		for _, t := range user.Tokens {
			newManager.Cache.Delete("auth_token:" + t.JwtToken)
		}
	})

	return newManager, nil
}

// lookupUser tìm user theo token, cache kết quả để giảm tải database.
// Entry trong cache hết hạn sau 5 phút nên user bị block sẽ bị chặn muộn
// nhất sau khoảng đó.
func (am *AuthManager) lookupUser(c fiber.Ctx, token string) (*models.User, error) {
	cacheKey := "auth_token:" + token
	if cached, found := am.Cache.Get(cacheKey); found {
		user := cached.(models.User)
		return &user, nil
	}

	user, err := am.UserCRUD.FindByToken(c.Context(), token)
	if err != nil {
		return nil, err
	}

	am.Cache.Set(cacheKey, *user)
	return user, nil
}

// AuthMiddleware middleware xác thực cho Fiber.
// Không truyền role nào nghĩa là chỉ cần đăng nhập; truyền một hoặc nhiều
// role nghĩa là user phải có một trong các role đó.
func AuthMiddleware(requiredRoles ...string) fiber.Handler {
	// Sử dụng singleton instance của AuthManager
	authManager := GetAuthManager()

	return func(c fiber.Ctx) error {
		// Lấy token từ header
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			// Chỉ log khi thiếu token (lỗi quan trọng)
			logger.GetAppLogger().WithFields(logrus.Fields{
				"path":   c.Path(),
				"method": c.Method(),
			}).Warn("❌ [AUTH] Missing Authorization header")
			HandleErrorResponse(c, common.ErrTokenMissing)
			return nil
		}

		// Kiểm tra định dạng token
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			HandleErrorResponse(c, common.ErrTokenInvalid)
			return nil
		}

		token := parts[1]

		user, err := authManager.lookupUser(c, token)
		if err != nil {
			// Chỉ log khi không tìm thấy token (lỗi quan trọng)
			logger.GetAppLogger().WithFields(logrus.Fields{
				"path":  c.Path(),
				"error": err.Error(),
			}).Warn("❌ [AUTH] Token not found in database")
			HandleErrorResponse(c, common.ErrTokenInvalid)
			return nil
		}

		// Kiểm tra user có bị block không
		if user.IsBlock {
			HandleErrorResponse(c, common.NewError(
				common.ErrCodeAuthCredentials,
				"Tài khoản đã bị khóa: "+user.BlockNote,
				common.StatusForbidden,
				nil,
			))
			return nil
		}

		// Lưu thông tin user vào context
		c.Locals("user_id", user.ID.Hex())
		c.Locals("user", *user)
		c.Locals("role", user.Role)

		// Nếu không yêu cầu role cụ thể, chỉ cần xác thực là đủ
		if len(requiredRoles) == 0 {
			return c.Next()
		}

		// Kiểm tra user có một trong các role yêu cầu không
		if !utility.Contains(requiredRoles, user.Role) {
			logger.GetAppLogger().WithFields(logrus.Fields{
				"user_id":        user.ID.Hex(),
				"user_role":      user.Role,
				"required_roles": requiredRoles,
				"path":           c.Path(),
			}).Warn("❌ [AUTH] User does not have required role")
			HandleErrorResponse(c, common.NewError(
				common.ErrCodeAuthRole,
				"Không có quyền truy cập. Vui lòng liên hệ quản trị viên.",
				common.StatusForbidden,
				nil,
			))
			return nil
		}

		return c.Next()
	}
}
