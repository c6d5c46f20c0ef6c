// Package authsvc - service người dùng (User).
package authsvc

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	authdto "vendor_compliance/internal/api/auth/dto"
	models "vendor_compliance/internal/api/auth/models"
	basesvc "vendor_compliance/internal/api/base/service"
	"vendor_compliance/internal/common"
	"vendor_compliance/internal/global"
	"vendor_compliance/internal/utility"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserService là cấu trúc chứa các phương thức liên quan đến người dùng
type UserService struct {
	*basesvc.BaseServiceMongoImpl[models.User]
}

// NewUserService tạo mới UserService
func NewUserService() (*UserService, error) {
	userCollection, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.Users)
	if !exist {
		return nil, fmt.Errorf("failed to get users collection: %v", common.ErrNotFound)
	}

	return &UserService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[models.User](userCollection),
	}, nil
}

// Register đăng ký tài khoản mới.
// Mật khẩu được băm bằng bcrypt trước khi lưu. Vendor mới đăng ký mặc định
// bật cổng phê duyệt đăng nhập cho đến khi admin tắt.
func (s *UserService) Register(ctx context.Context, input *authdto.UserRegisterInput) (*models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, common.NewError(common.ErrCodeInternalServer, "Không thể băm mật khẩu", common.StatusInternalServerError, err)
	}

	user := models.User{
		Name:        input.Name,
		Email:       input.Email,
		Password:    string(hashed),
		Phone:       input.Phone,
		Role:        input.Role,
		CompanyName: input.CompanyName,
		// Vendor phải qua cổng phê duyệt đăng nhập cho đến khi được admin tin cậy
		RequiresLoginApproval: input.Role == models.RoleVendor,
		Tokens:                []models.Token{},
	}

	created, err := s.BaseServiceMongoImpl.InsertOne(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrMongoDuplicate) {
			return nil, common.NewError(common.ErrCodeAuthCredentials, "Email hoặc số điện thoại đã được đăng ký", common.StatusConflict, err)
		}
		return nil, err
	}

	logrus.WithFields(logrus.Fields{"user_id": created.ID.Hex(), "role": created.Role}).Info("Đăng ký tài khoản thành công")
	return &created, nil
}

// VerifyCredentials kiểm tra email và mật khẩu, trả về user nếu hợp lệ.
// Không cấp token; bước cấp token do IssueToken hoặc cổng phê duyệt quyết định.
func (s *UserService) VerifyCredentials(ctx context.Context, email string, password string) (*models.User, error) {
	user, err := s.BaseServiceMongoImpl.FindOne(ctx, bson.M{"email": email}, nil)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, common.ErrInvalidCredentials
	}

	if user.IsBlock {
		return nil, common.NewError(
			common.ErrCodeAuthCredentials,
			"Tài khoản đã bị khóa: "+user.BlockNote,
			common.StatusForbidden,
			nil,
		)
	}

	return &user, nil
}

// IssueToken cấp JWT mới cho user và lưu vào danh sách token theo hwid.
// Token mới nhất luôn được ghi vào field token để tra cứu nhanh.
func (s *UserService) IssueToken(ctx context.Context, user *models.User, hwid string) (*models.User, error) {
	rdNumber := rand.Intn(100)
	currentTime := time.Now().Unix()
	tokenMap, err := utility.CreateToken(global.ServerConfig.JwtSecret, user.ID.Hex(), strconv.FormatInt(currentTime, 16), strconv.Itoa(rdNumber))
	if err != nil {
		return nil, err
	}

	user.Token = tokenMap["token"]
	idTokenExist := -1
	for i, t := range user.Tokens {
		if t.Hwid == hwid {
			idTokenExist = i
			break
		}
	}
	if idTokenExist == -1 {
		user.Tokens = append(user.Tokens, models.Token{Hwid: hwid, JwtToken: tokenMap["token"]})
	} else {
		user.Tokens[idTokenExist].JwtToken = tokenMap["token"]
	}

	updateData := &basesvc.UpdateData{
		Set: map[string]interface{}{
			"token":  user.Token,
			"tokens": user.Tokens,
		},
	}
	updatedUser, err := s.BaseServiceMongoImpl.UpdateById(ctx, user.ID, updateData)
	if err != nil {
		logrus.WithFields(logrus.Fields{"user_id": user.ID.Hex(), "error": err.Error()}).Error("IssueToken: Lỗi khi cập nhật token vào user")
		return nil, err
	}

	return &updatedUser, nil
}

// FindByToken tìm user theo JWT token.
// Chữ ký token được xác thực trước khi query database.
// Ưu tiên query field "token" (token mới nhất) trước vì nó được cập nhật mỗi lần login.
// Nếu không tìm thấy, query trong array "tokens" (tokens theo hwid).
func (s *UserService) FindByToken(ctx context.Context, token string) (*models.User, error) {
	if _, err := utility.ParseToken(global.ServerConfig.JwtSecret, token); err != nil {
		return nil, common.ErrTokenInvalid
	}

	user, err := s.BaseServiceMongoImpl.FindOne(ctx, bson.M{"token": token}, nil)
	if err == nil {
		return &user, nil
	}

	user, err = s.BaseServiceMongoImpl.FindOne(ctx, bson.M{"tokens.jwtToken": token}, nil)
	if err != nil {
		return nil, common.ErrTokenInvalid
	}
	return &user, nil
}

// Logout đăng xuất người dùng (xóa token theo hwid)
func (s *UserService) Logout(ctx context.Context, userID primitive.ObjectID, input *authdto.UserLogoutInput) error {
	user, err := s.BaseServiceMongoImpl.FindOneById(ctx, userID)
	if err != nil {
		return err
	}
	newTokens := make([]models.Token, 0)
	for _, t := range user.Tokens {
		if t.Hwid != input.Hwid {
			newTokens = append(newTokens, t)
		}
	}
	updateData := &basesvc.UpdateData{
		Set: map[string]interface{}{
			"tokens": newTokens,
			"token":  "",
		},
	}
	_, err = s.BaseServiceMongoImpl.UpdateById(ctx, userID, updateData)
	return err
}

// ChangePassword đổi mật khẩu người dùng sau khi kiểm tra mật khẩu cũ
func (s *UserService) ChangePassword(ctx context.Context, userID primitive.ObjectID, input *authdto.UserChangePasswordInput) error {
	user, err := s.BaseServiceMongoImpl.FindOneById(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.OldPassword)); err != nil {
		return common.NewError(common.ErrCodeAuthCredentials, "Mật khẩu cũ không đúng", common.StatusUnauthorized, nil)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return common.NewError(common.ErrCodeInternalServer, "Không thể băm mật khẩu", common.StatusInternalServerError, err)
	}

	// Đổi mật khẩu thu hồi toàn bộ token đang sống
	updateData := &basesvc.UpdateData{
		Set: map[string]interface{}{
			"password": string(hashed),
			"token":    "",
			"tokens":   []models.Token{},
		},
	}
	_, err = s.BaseServiceMongoImpl.UpdateById(ctx, userID, updateData)
	return err
}

// EnsureAdminAccount tạo tài khoản admin mặc định nếu hệ thống chưa có admin nào.
// Trả về true nếu tài khoản mới được tạo trong lần gọi này.
func (s *UserService) EnsureAdminAccount(ctx context.Context, email string, password string) (bool, error) {
	count, err := s.BaseServiceMongoImpl.CountDocuments(ctx, bson.M{"role": models.RoleAdmin})
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, common.NewError(common.ErrCodeInternalServer, "Không thể băm mật khẩu", common.StatusInternalServerError, err)
	}

	admin := models.User{
		Name:     "Administrator",
		Email:    email,
		Password: string(hashed),
		Role:     models.RoleAdmin,
		Tokens:   []models.Token{},
	}
	if _, err := s.BaseServiceMongoImpl.InsertOne(ctx, admin); err != nil {
		if errors.Is(err, common.ErrMongoDuplicate) {
			// Email đã tồn tại với role khác, không ghi đè
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// FindIDsByRoles trả về danh sách ID của các user có role nằm trong danh sách cho trước.
// Dùng cho việc gửi thông báo đến nhóm admin và consultant.
func (s *UserService) FindIDsByRoles(ctx context.Context, roles []string) ([]primitive.ObjectID, error) {
	users, err := s.BaseServiceMongoImpl.Find(ctx, bson.M{"role": bson.M{"$in": roles}}, nil)
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids, nil
}
