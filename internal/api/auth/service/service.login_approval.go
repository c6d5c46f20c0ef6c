package authsvc

import (
	"context"
	"errors"
	"fmt"
	"time"

	models "vendor_compliance/internal/api/auth/models"
	basesvc "vendor_compliance/internal/api/base/service"
	notifmodels "vendor_compliance/internal/api/notification/models"
	notifsvc "vendor_compliance/internal/api/notification/service"
	"vendor_compliance/internal/common"
	"vendor_compliance/internal/global"
	"vendor_compliance/internal/logger"
	"vendor_compliance/internal/mailer"
	"vendor_compliance/internal/utility"

	"github.com/sirupsen/logrus"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// approvalTokenBytes là số byte ngẫu nhiên của approval token (64 ký tự hex)
const approvalTokenBytes = 32

// LoginApprovalService là cấu trúc chứa các phương thức liên quan đến
// cổng phê duyệt đăng nhập. Mỗi yêu cầu đăng nhập của user có bật cổng
// tạo một bản ghi pending mới, sống tối đa theo cấu hình (mặc định 24 giờ).
type LoginApprovalService struct {
	*basesvc.BaseServiceMongoImpl[models.LoginApproval]
	userService         *UserService
	notificationService *notifsvc.NotificationService
	mail                *mailer.Mailer

	// Tuần tự hóa việc resolve trên cùng một approval, tránh double-resolve
	approvalLocks *utility.KeyedMutex
}

// NewLoginApprovalService tạo mới LoginApprovalService
func NewLoginApprovalService(userService *UserService, notificationService *notifsvc.NotificationService) (*LoginApprovalService, error) {
	collection, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.LoginApprovals)
	if !exist {
		return nil, fmt.Errorf("failed to get login_approvals collection: %v", common.ErrNotFound)
	}

	return &LoginApprovalService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[models.LoginApproval](collection),
		userService:          userService,
		notificationService:  notificationService,
		mail:                 mailer.NewMailer(),
		approvalLocks:        utility.NewKeyedMutex(),
	}, nil
}

// ttl trả về thời gian sống của một yêu cầu phê duyệt
func (s *LoginApprovalService) ttl() time.Duration {
	hours := 24
	if global.ServerConfig != nil && global.ServerConfig.LoginApprovalTTLHours > 0 {
		hours = global.ServerConfig.LoginApprovalTTLHours
	}
	return time.Duration(hours) * time.Hour
}

// RequestApproval tạo một yêu cầu phê duyệt đăng nhập mới cho user.
// Luôn tạo bản ghi mới, không gia hạn bản ghi pending cũ (mỗi lần đăng nhập
// là một quyết định riêng). Thông tin thiết bị (user agent, IP, hwid) và
// danh sách người duyệt được báo đi lưu kèm bản ghi để đối soát.
// Thông báo login_request được gửi đến toàn bộ admin và consultant.
func (s *LoginApprovalService) RequestApproval(ctx context.Context, user *models.User, device models.DeviceInfo) (*models.LoginApproval, error) {
	token, err := utility.RandomHex(approvalTokenBytes)
	if err != nil {
		return nil, common.NewError(common.ErrCodeInternalServer, "Không thể sinh approval token", common.StatusInternalServerError, err)
	}

	reviewerIDs, err := s.userService.FindIDsByRoles(ctx, []string{models.RoleAdmin, models.RoleConsultant})
	if err != nil {
		logger.GetErrorLogger().WithError(err).Error("Không lấy được danh sách người duyệt đăng nhập")
		reviewerIDs = nil
	}

	approval := newLoginApproval(user, device, reviewerIDs, token, time.Now(), s.ttl())

	created, err := s.BaseServiceMongoImpl.InsertOne(ctx, approval)
	if err != nil {
		return nil, err
	}

	// Thông báo cho admin và consultant; lỗi thông báo không chặn yêu cầu
	s.notifyReviewers(ctx, user, &created, reviewerIDs)

	logger.GetAuditLogger().WithFields(logrus.Fields{
		"approval_id": created.ID.Hex(),
		"user_id":     user.ID.Hex(),
		"ip":          device.IP,
		"expires_at":  created.ExpiresAt,
	}).Info("Tạo yêu cầu phê duyệt đăng nhập")

	return &created, nil
}

// newLoginApproval dựng bản ghi phê duyệt pending cho một lần đăng nhập.
// Hàm thuần: thông tin thiết bị và danh sách người duyệt được lưu nguyên
// trạng trên bản ghi để đối soát về sau.
func newLoginApproval(user *models.User, device models.DeviceInfo, reviewerIDs []primitive.ObjectID, token string, now time.Time, ttl time.Duration) models.LoginApproval {
	return models.LoginApproval{
		UserID:            user.ID,
		Token:             token,
		Device:            device,
		NotifiedReviewers: reviewerIDs,
		Status:            models.ApprovalStatusPending,
		RequestedAt:       now.UnixMilli(),
		ExpiresAt:         now.Add(ttl).UnixMilli(),
	}
}

// notifyReviewers gửi thông báo login_request đến danh sách người duyệt đã lưu
func (s *LoginApprovalService) notifyReviewers(ctx context.Context, user *models.User, approval *models.LoginApproval, reviewerIDs []primitive.ObjectID) {
	if s.notificationService == nil || len(reviewerIDs) == 0 {
		return
	}

	template := notifmodels.Notification{
		SenderID: user.ID,
		Type:     notifmodels.TypeLoginRequest,
		Priority: notifmodels.PriorityHigh,
		Title:    "Yêu cầu đăng nhập chờ duyệt",
		Message:  fmt.Sprintf("%s (%s) đang chờ phê duyệt đăng nhập", user.Name, user.Email),
		Metadata: map[string]interface{}{
			"approvalId": approval.ID.Hex(),
			"userId":     user.ID.Hex(),
		},
	}
	if global.ServerConfig != nil {
		template.ActionURL = global.ServerConfig.FrontendURL + "/admin/login-approvals/" + approval.ID.Hex()
	}

	if _, err := s.notificationService.NotifyMany(ctx, reviewerIDs, template); err != nil {
		logger.GetErrorLogger().WithError(err).Error("Gửi thông báo yêu cầu đăng nhập thất bại")
	}
}

// checkResolvable kiểm tra một approval còn xử lý được không.
// Hàm thuần: không đụng DB, để test độc lập với thời gian hệ thống.
// Hết hạn được xét trước: bản ghi quá expiresAt trả về ErrApprovalExpired
// dù worker quét đã kịp đánh dấu expired hay chưa.
//
// Returns:
// - error: ErrApprovalExpired nếu hết hạn, ErrApprovalAlreadyResolved nếu đã xử lý
func checkResolvable(approval *models.LoginApproval, now time.Time) error {
	if approval.Status == models.ApprovalStatusExpired || now.UnixMilli() >= approval.ExpiresAt {
		return common.ErrApprovalExpired
	}
	if approval.Status != models.ApprovalStatusPending {
		// Kèm quyết định đã ghi nhận để client hiển thị, không cần gọi thêm
		return common.NewError(
			common.ErrCodeAuthLoginApproval,
			common.ErrApprovalAlreadyResolved.Error(),
			common.StatusConflict,
			map[string]interface{}{
				"status":     approval.Status,
				"resolvedBy": approval.ResolvedBy.Hex(),
				"resolvedAt": approval.ResolvedAt,
			},
		)
	}
	return nil
}

// Resolve duyệt hoặc từ chối một yêu cầu đăng nhập.
// Chỉ xử lý được khi approval đang pending và chưa hết hạn; mọi trường hợp
// khác trả lỗi mà không thay đổi trạng thái. Các lần resolve trên cùng một
// approval được tuần tự hóa bằng khóa theo ID.
//
// Parameters:
// - ctx: Context
// - approvalID: ID của yêu cầu phê duyệt
// - resolverID: ID của người duyệt (admin/consultant)
// - approve: true = duyệt, false = từ chối
// - note: Ghi chú của người duyệt
func (s *LoginApprovalService) Resolve(ctx context.Context, approvalID primitive.ObjectID, resolverID primitive.ObjectID, approve bool, note string) (*models.LoginApproval, error) {
	lockKey := approvalID.Hex()
	s.approvalLocks.Lock(lockKey)
	defer s.approvalLocks.Unlock(lockKey)

	approval, err := s.BaseServiceMongoImpl.FindOneById(ctx, approvalID)
	if err != nil {
		return nil, err
	}

	if err := checkResolvable(&approval, time.Now()); err != nil {
		return nil, err
	}

	status := models.ApprovalStatusRejected
	if approve {
		status = models.ApprovalStatusApproved
	}

	updateData := &basesvc.UpdateData{
		Set: map[string]interface{}{
			"status":      status,
			"resolvedAt":  time.Now().UnixMilli(),
			"resolvedBy":  resolverID,
			"resolveNote": note,
		},
	}
	updated, err := s.BaseServiceMongoImpl.UpdateById(ctx, approvalID, updateData)
	if err != nil {
		return nil, err
	}

	logger.GetAuditLogger().WithFields(logrus.Fields{
		"approval_id": approvalID.Hex(),
		"resolver_id": resolverID.Hex(),
		"status":      status,
	}).Info("Xử lý yêu cầu phê duyệt đăng nhập")

	// Báo cho người yêu cầu biết kết quả
	s.notifyRequester(ctx, &updated, approve)

	return &updated, nil
}

// notifyRequester gửi thông báo kết quả phê duyệt đến user yêu cầu đăng nhập
func (s *LoginApprovalService) notifyRequester(ctx context.Context, approval *models.LoginApproval, approved bool) {
	if s.notificationService == nil {
		return
	}

	notification := notifmodels.Notification{
		RecipientID: approval.UserID,
		SenderID:    approval.ResolvedBy,
		Priority:    notifmodels.PriorityHigh,
		Metadata: map[string]interface{}{
			"approvalId": approval.ID.Hex(),
		},
	}
	if approved {
		notification.Type = notifmodels.TypeLoginApproved
		notification.Title = "Đăng nhập được phê duyệt"
		notification.Message = "Yêu cầu đăng nhập của bạn đã được duyệt. Vui lòng hoàn tất đăng nhập."
	} else {
		notification.Type = notifmodels.TypeLoginRejected
		notification.Title = "Đăng nhập bị từ chối"
		notification.Message = "Yêu cầu đăng nhập của bạn đã bị từ chối: " + approval.ResolveNote
	}

	if _, err := s.notificationService.Notify(ctx, notification); err != nil {
		logger.GetErrorLogger().WithError(err).Error("Gửi thông báo kết quả phê duyệt thất bại")
	}

	// Email là kênh phụ, thất bại chỉ log
	if user, err := s.userService.FindOneById(ctx, approval.UserID); err == nil && user.Email != "" {
		s.mail.SendAsync(mailer.Event{
			To:      user.Email,
			Subject: notification.Title,
			Title:   notification.Title,
			Body:    notification.Message,
			Action:  global.ServerConfig.FrontendURL + "/login",
		})
	}
}

// PollStatus trả về trạng thái hiện tại của một yêu cầu theo approval token.
// Thao tác CHỈ ĐỌC: yêu cầu pending đã quá hạn được báo là expired trong
// response nhưng bản ghi không bị sửa (worker quét sẽ cập nhật sau).
func (s *LoginApprovalService) PollStatus(ctx context.Context, token string) (*models.LoginApproval, error) {
	approval, err := s.BaseServiceMongoImpl.FindOne(ctx, bson.M{"token": token}, nil)
	if err != nil {
		return nil, err
	}

	if approval.Status == models.ApprovalStatusPending && time.Now().UnixMilli() >= approval.ExpiresAt {
		approval.Status = models.ApprovalStatusExpired
	}

	return &approval, nil
}

// CompleteLogin đổi approval token đã được duyệt lấy JWT.
// Token chỉ đổi được một lần; approval đã consumed hoặc chưa approved bị từ chối.
func (s *LoginApprovalService) CompleteLogin(ctx context.Context, token string, hwid string) (*models.User, error) {
	approval, err := s.BaseServiceMongoImpl.FindOne(ctx, bson.M{"token": token}, nil)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrTokenInvalid
		}
		return nil, err
	}

	lockKey := approval.ID.Hex()
	s.approvalLocks.Lock(lockKey)
	defer s.approvalLocks.Unlock(lockKey)

	// Đọc lại trong khóa để tránh race với CompleteLogin song song
	approval, err = s.BaseServiceMongoImpl.FindOneById(ctx, approval.ID)
	if err != nil {
		return nil, err
	}

	if approval.Consumed {
		return nil, common.ErrApprovalAlreadyResolved
	}
	if approval.Status != models.ApprovalStatusApproved {
		return nil, common.NewError(
			common.ErrCodeAuthLoginApproval,
			"Yêu cầu đăng nhập chưa được duyệt",
			common.StatusForbidden,
			nil,
		)
	}

	user, err := s.userService.FindOneById(ctx, approval.UserID)
	if err != nil {
		return nil, err
	}

	updateData := &basesvc.UpdateData{
		Set: map[string]interface{}{"consumed": true},
	}
	if _, err := s.BaseServiceMongoImpl.UpdateById(ctx, approval.ID, updateData); err != nil {
		return nil, err
	}

	return s.userService.IssueToken(ctx, &user, hwid)
}

// FindPending trả về danh sách yêu cầu đang chờ duyệt, cũ nhất trước
func (s *LoginApprovalService) FindPending(ctx context.Context) ([]models.LoginApproval, error) {
	return s.BaseServiceMongoImpl.Find(ctx, bson.M{
		"status":    models.ApprovalStatusPending,
		"expiresAt": bson.M{"$gt": time.Now().UnixMilli()},
	}, nil)
}

// ExpirePending đánh dấu các yêu cầu pending đã quá hạn là expired.
// Worker quét gọi định kỳ; trả về số bản ghi đã cập nhật.
func (s *LoginApprovalService) ExpirePending(ctx context.Context) (int64, error) {
	updateData := &basesvc.UpdateData{
		Set: map[string]interface{}{"status": models.ApprovalStatusExpired},
	}
	return s.BaseServiceMongoImpl.UpdateMany(ctx, bson.M{
		"status":    models.ApprovalStatusPending,
		"expiresAt": bson.M{"$lte": time.Now().UnixMilli()},
	}, updateData, nil)
}
