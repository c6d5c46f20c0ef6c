// Package subsvc - service cho hồ sơ tuân thủ (Submission).
//
// Mọi thao tác ghi lên cùng một hồ sơ được serialize bằng khóa theo
// submission id: thao tác trên các hồ sơ khác nhau chạy song song, trên
// cùng hồ sơ chạy tuần tự để giữ bất biến single-writer của việc suy ra
// trạng thái tổng hợp. Các truy vấn chỉ đọc không lấy khóa.
package subsvc

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	authmodels "vendor_compliance/internal/api/auth/models"
	authsvc "vendor_compliance/internal/api/auth/service"
	basesvc "vendor_compliance/internal/api/base/service"
	notifmodels "vendor_compliance/internal/api/notification/models"
	notifsvc "vendor_compliance/internal/api/notification/service"
	subdto "vendor_compliance/internal/api/submission/dto"
	models "vendor_compliance/internal/api/submission/models"
	"vendor_compliance/internal/common"
	"vendor_compliance/internal/global"
	"vendor_compliance/internal/logger"
	"vendor_compliance/internal/mailer"
	"vendor_compliance/internal/period"
	"vendor_compliance/internal/storage"
	"vendor_compliance/internal/utility"
)

// allowedMimeTypes là allow-list mime cho tài liệu tuân thủ
var allowedMimeTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":   true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.ms-excel": true,
	"application/msword":       true,
}

// SubmissionService là cấu trúc chứa các phương thức liên quan đến hồ sơ tuân thủ
type SubmissionService struct {
	*basesvc.BaseServiceMongoImpl[models.Submission]
	userService         *authsvc.UserService
	notificationService *notifsvc.NotificationService
	store               *storage.LocalStore
	mail                *mailer.Mailer
	submissionLocks     *utility.KeyedMutex
}

// NewSubmissionService tạo mới SubmissionService
func NewSubmissionService(userService *authsvc.UserService, notificationService *notifsvc.NotificationService, store *storage.LocalStore) (*SubmissionService, error) {
	collection, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.Submissions)
	if !exist {
		return nil, fmt.Errorf("failed to get submissions collection: %v", common.ErrNotFound)
	}

	return &SubmissionService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[models.Submission](collection),
		userService:          userService,
		notificationService:  notificationService,
		store:                store,
		mail:                 mailer.NewMailer(),
		submissionLocks:      utility.NewKeyedMutex(),
	}, nil
}

// Create tạo hồ sơ mới ở trạng thái draft cho một kỳ báo cáo.
// Index unique (vendorId, year, month) bảo đảm mỗi vendor mỗi kỳ một hồ sơ.
func (s *SubmissionService) Create(ctx context.Context, vendorID primitive.ObjectID, input *subdto.SubmissionCreateInput) (*models.Submission, error) {
	if !period.ValidMonth(input.Month) {
		return nil, common.NewError(
			common.ErrCodeValidationInput,
			fmt.Sprintf("Mã tháng không hợp lệ: %q", input.Month),
			common.StatusBadRequest,
			map[string]interface{}{"month": input.Month, "validMonths": period.Months},
		)
	}

	submission := models.Submission{
		VendorID:  vendorID,
		Year:      input.Year,
		Month:     input.Month,
		Documents: []models.DocumentEntry{},
		Status:    models.SubStatusDraft,
	}

	created, err := s.InsertOne(ctx, submission)
	if err != nil {
		if cerr, ok := err.(*common.Error); ok && cerr.StatusCode == common.StatusConflict {
			return nil, common.NewError(
				common.ErrCodeBusinessOperation,
				fmt.Sprintf("Hồ sơ kỳ %s %d đã tồn tại", input.Month, input.Year),
				common.StatusConflict,
				nil,
			)
		}
		return nil, err
	}
	return &created, nil
}

// loadOwned load hồ sơ và kiểm tra quyền sở hữu của vendor
func (s *SubmissionService) loadOwned(ctx context.Context, submissionID primitive.ObjectID, vendorID primitive.ObjectID) (*models.Submission, error) {
	submission, err := s.FindOneById(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if submission.VendorID != vendorID {
		return nil, common.NewError(
			common.ErrCodeAuthRole,
			"Hồ sơ không thuộc về vendor này",
			common.StatusForbidden,
			nil,
		)
	}
	return &submission, nil
}

// UpdateDetails cập nhật thông tin khai báo (consultant, invoice, agreement).
// Kỳ báo cáo và danh sách tài liệu không đổi qua đường này.
func (s *SubmissionService) UpdateDetails(ctx context.Context, submissionID primitive.ObjectID, vendorID primitive.ObjectID, input *subdto.SubmissionUpdateInput) (*models.Submission, error) {
	s.submissionLocks.Lock(submissionID.Hex())
	defer s.submissionLocks.Unlock(submissionID.Hex())

	if _, err := s.loadOwned(ctx, submissionID, vendorID); err != nil {
		return nil, err
	}

	set := map[string]interface{}{}
	if input.AgreementStart > 0 {
		set["agreementStart"] = input.AgreementStart
	}
	if input.AgreementEnd > 0 {
		set["agreementEnd"] = input.AgreementEnd
	}
	if input.ConsultantName != "" {
		set["consultantName"] = input.ConsultantName
	}
	if input.ConsultantEmail != "" {
		set["consultantEmail"] = input.ConsultantEmail
	}
	if input.InvoiceNumber != "" {
		set["invoiceNumber"] = input.InvoiceNumber
	}
	if len(set) == 0 {
		return nil, common.ErrInvalidInput
	}

	updated, err := s.UpdateById(ctx, submissionID, &basesvc.UpdateData{Set: set})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// AddDocument nhận nội dung file từ vendor, validate kích thước và mime,
// lưu file rồi thêm entry vào hồ sơ. Category đã có entry chưa bị từ chối
// sẽ bị từ chối; entry đang rejected được thay thế theo đường nộp lại.
func (s *SubmissionService) AddDocument(ctx context.Context, submissionID primitive.ObjectID, vendorID primitive.ObjectID, category period.Category, fileName string, data []byte) (*models.Submission, error) {
	maxSize := global.ServerConfig.MaxUploadSizeBytes()
	if int64(len(data)) > maxSize {
		return nil, common.NewError(
			common.ErrCodeValidationInput,
			fmt.Sprintf("File vượt quá kích thước tối đa %s", utility.FormatBytes(uint64(maxSize))),
			common.StatusPayloadTooLarge,
			map[string]interface{}{"sizeBytes": len(data), "maxBytes": maxSize},
		)
	}
	if len(data) == 0 {
		return nil, common.NewError(common.ErrCodeValidationInput, "File rỗng", common.StatusBadRequest, nil)
	}

	// Phân loại trước khi đụng tới đĩa để category rác bị chặn sớm
	if _, err := period.Classify(category); err != nil {
		return nil, err
	}

	info, err := s.store.Save(fileName, data)
	if err != nil {
		return nil, err
	}

	if !allowedMimeTypes[info.MimeType] {
		// Dọn file vừa lưu, lỗi dọn chỉ log
		if delErr := s.store.Delete(info.Ref); delErr != nil {
			logger.GetErrorLogger().WithFields(logrus.Fields{
				"ref":   info.Ref,
				"error": delErr.Error(),
			}).Warn("Không thể xóa file bị từ chối mime")
		}
		return nil, common.NewError(
			common.ErrCodeValidationFormat,
			fmt.Sprintf("Định dạng file không được hỗ trợ: %s", info.MimeType),
			common.StatusBadRequest,
			map[string]interface{}{"mimeType": info.MimeType},
		)
	}

	s.submissionLocks.Lock(submissionID.Hex())
	defer s.submissionLocks.Unlock(submissionID.Hex())

	submission, err := s.loadOwned(ctx, submissionID, vendorID)
	if err != nil {
		return nil, err
	}

	entry := models.DocumentEntry{
		EntryID:   primitive.NewObjectID(),
		Category:  category,
		FileRef:   info.Ref,
		FileName:  info.Name,
		MimeType:  info.MimeType,
		SizeBytes: info.SizeBytes,
	}

	isResubmission := false
	if existing := submission.FindEntryByCategory(category); existing != nil && existing.Status == models.DocStatusRejected {
		isResubmission = true
	}

	if err := submission.AddDocument(entry, time.Now()); err != nil {
		return nil, err
	}
	submission.RecomputeStatus()

	updated, err := s.UpdateById(ctx, submissionID, &basesvc.UpdateData{Set: map[string]interface{}{
		"documents":         submission.Documents,
		"status":            submission.Status,
		"resubmissionCount": submission.ResubmissionCount,
	}})
	if err != nil {
		return nil, err
	}

	if isResubmission {
		s.notifyReviewers(ctx, &updated, notifmodels.TypeResubmission,
			"Tài liệu được nộp lại",
			fmt.Sprintf("Vendor đã nộp lại tài liệu %s cho kỳ %s %d", period.DisplayName(category), updated.Month, updated.Year))
	}
	return &updated, nil
}

// CanSubmit kiểm tra điều kiện nộp, trả về danh sách category bắt buộc
// còn thiếu. Chỉ đọc, không lấy khóa.
func (s *SubmissionService) CanSubmit(ctx context.Context, submissionID primitive.ObjectID) (bool, []period.Category, error) {
	submission, err := s.FindOneById(ctx, submissionID)
	if err != nil {
		return false, nil, err
	}
	return submission.CanSubmit()
}

// Submit nộp hồ sơ. Thất bại báo đúng danh sách category bắt buộc còn
// thiếu chứ không phải lỗi chung chung.
func (s *SubmissionService) Submit(ctx context.Context, submissionID primitive.ObjectID, vendorID primitive.ObjectID) (*models.Submission, error) {
	s.submissionLocks.Lock(submissionID.Hex())
	defer s.submissionLocks.Unlock(submissionID.Hex())

	submission, err := s.loadOwned(ctx, submissionID, vendorID)
	if err != nil {
		return nil, err
	}

	ok, missing, err := submission.CanSubmit()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.NewError(
			common.ErrCodeBusinessState,
			"Hồ sơ chưa đủ điều kiện nộp",
			common.StatusBadRequest,
			map[string]interface{}{
				"missingMandatory":  missing,
				"invoiceDeclared":   submission.InvoiceNumber != "",
				"consultantDeclared": submission.ConsultantEmail != "",
			},
		)
	}

	submission.SubmissionDate = time.Now().UnixMilli()
	submission.RecomputeStatus()

	updated, err := s.UpdateById(ctx, submissionID, &basesvc.UpdateData{Set: map[string]interface{}{
		"submissionDate": submission.SubmissionDate,
		"status":         submission.Status,
	}})
	if err != nil {
		return nil, err
	}

	s.notifyReviewers(ctx, &updated, notifmodels.TypeSubmission,
		"Hồ sơ mới được nộp",
		fmt.Sprintf("Vendor đã nộp hồ sơ kỳ %s %d", updated.Month, updated.Year))
	return &updated, nil
}

// TransitionDocument áp dụng một hành động review của consultant/admin lên
// một tài liệu rồi suy lại trạng thái tổng hợp. Vendor nhận thông báo theo
// từng hành động; khi trạng thái tổng hợp đổi, vendor nhận thêm một thông
// báo workflow_update.
func (s *SubmissionService) TransitionDocument(ctx context.Context, submissionID primitive.ObjectID, entryID primitive.ObjectID, action string, reviewerID primitive.ObjectID, remarks string) (*models.Submission, error) {
	s.submissionLocks.Lock(submissionID.Hex())
	defer s.submissionLocks.Unlock(submissionID.Hex())

	submission, err := s.FindOneById(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	previousStatus := submission.Status
	entry, err := submission.TransitionDocument(entryID, action, reviewerID, remarks, time.Now())
	if err != nil {
		return nil, err
	}
	submission.RecomputeStatus()

	updated, err := s.UpdateById(ctx, submissionID, &basesvc.UpdateData{Set: map[string]interface{}{
		"documents":  submission.Documents,
		"rejections": submission.Rejections,
		"status":     submission.Status,
	}})
	if err != nil {
		return nil, err
	}

	s.notifyVendorOfReview(ctx, &updated, entry, action, remarks)
	if updated.Status != previousStatus {
		s.notifyVendor(ctx, &updated, reviewerID, notifmodels.TypeWorkflowUpdate, notifmodels.PriorityMedium,
			"Trạng thái hồ sơ thay đổi",
			fmt.Sprintf("Hồ sơ kỳ %s %d chuyển sang trạng thái %s", updated.Month, updated.Year, updated.Status))
	}

	return &updated, nil
}

// notifyVendorOfReview gửi thông báo cho vendor theo hành động review.
// Người duyệt của entry được ghi vào senderId để vendor biết ai quyết định.
func (s *SubmissionService) notifyVendorOfReview(ctx context.Context, submission *models.Submission, entry *models.DocumentEntry, action string, remarks string) {
	name := period.DisplayName(entry.Category)
	switch action {
	case models.ActionApprove:
		s.notifyVendor(ctx, submission, entry.ReviewerID, notifmodels.TypeApproval, notifmodels.PriorityMedium,
			"Tài liệu được duyệt",
			fmt.Sprintf("Tài liệu %s của kỳ %s %d đã được duyệt", name, submission.Month, submission.Year))
	case models.ActionReject:
		message := fmt.Sprintf("Tài liệu %s của kỳ %s %d bị từ chối: %s", name, submission.Month, submission.Year, remarks)
		s.notifyVendor(ctx, submission, entry.ReviewerID, notifmodels.TypeRejection, notifmodels.PriorityHigh,
			"Tài liệu bị từ chối", message)
		// Từ chối là sự kiện cần vendor hành động nên gửi thêm email
		if vendor, err := s.userService.FindOneById(ctx, submission.VendorID); err == nil && vendor.Email != "" {
			s.mail.SendAsync(mailer.Event{
				To:      vendor.Email,
				Subject: "Tài liệu bị từ chối",
				Title:   "Tài liệu bị từ chối",
				Body:    message,
				Action:  global.ServerConfig.FrontendURL + "/submissions/" + submission.ID.Hex(),
			})
		}
	case models.ActionRequestChanges:
		s.notifyVendor(ctx, submission, entry.ReviewerID, notifmodels.TypeReview, notifmodels.PriorityMedium,
			"Tài liệu cần chỉnh sửa",
			fmt.Sprintf("Tài liệu %s của kỳ %s %d cần chỉnh sửa: %s", name, submission.Month, submission.Year, remarks))
	}
}

// notifyVendor gửi một thông báo cho vendor sở hữu hồ sơ.
// Lỗi thông báo chỉ log, không làm hỏng thao tác chính.
func (s *SubmissionService) notifyVendor(ctx context.Context, submission *models.Submission, senderID primitive.ObjectID, notifType string, priority string, title string, message string) {
	_, err := s.notificationService.Notify(ctx, notifmodels.Notification{
		RecipientID: submission.VendorID,
		SenderID:    senderID,
		Type:        notifType,
		Priority:    priority,
		Title:       title,
		Message:     message,
		ActionURL:   global.ServerConfig.FrontendURL + "/submissions/" + submission.ID.Hex(),
		Metadata: map[string]interface{}{
			"submissionId": submission.ID.Hex(),
		},
	})
	if err != nil {
		logger.GetErrorLogger().WithFields(logrus.Fields{
			"submission_id": submission.ID.Hex(),
			"type":          notifType,
			"error":         err.Error(),
		}).Error("Không thể gửi thông báo cho vendor")
	}
}

// notifyReviewers gửi thông báo cho toàn bộ consultant và admin
func (s *SubmissionService) notifyReviewers(ctx context.Context, submission *models.Submission, notifType string, title string, message string) {
	reviewerIDs, err := s.userService.FindIDsByRoles(ctx, []string{authmodels.RoleConsultant, authmodels.RoleAdmin})
	if err != nil {
		logger.GetErrorLogger().WithFields(logrus.Fields{
			"submission_id": submission.ID.Hex(),
			"error":         err.Error(),
		}).Error("Không thể lấy danh sách reviewer")
		return
	}

	_, err = s.notificationService.NotifyMany(ctx, reviewerIDs, notifmodels.Notification{
		SenderID: submission.VendorID,
		Type:     notifType,
		Priority: notifmodels.PriorityMedium,
		Title:    title,
		Message:  message,
		ActionURL: global.ServerConfig.FrontendURL + "/review/submissions/" + submission.ID.Hex(),
		Metadata: map[string]interface{}{
			"submissionId": submission.ID.Hex(),
			"vendorId":     submission.VendorID.Hex(),
		},
	})
	if err != nil {
		logger.GetErrorLogger().WithFields(logrus.Fields{
			"submission_id": submission.ID.Hex(),
			"error":         err.Error(),
		}).Error("Không thể gửi thông báo cho reviewer")
	}
}

// FindByVendorPeriod tìm hồ sơ của một vendor theo kỳ báo cáo
func (s *SubmissionService) FindByVendorPeriod(ctx context.Context, vendorID primitive.ObjectID, year int, month string) (*models.Submission, error) {
	submission, err := s.FindOne(ctx, bson.M{"vendorId": vendorID, "year": year, "month": month}, nil)
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

// FindForVendor trả về toàn bộ hồ sơ của một vendor
func (s *SubmissionService) FindForVendor(ctx context.Context, vendorID primitive.ObjectID) ([]models.Submission, error) {
	return s.Find(ctx, bson.M{"vendorId": vendorID}, nil)
}

// FindByConsultantEmail tìm các hồ sơ được gán cho một consultant
func (s *SubmissionService) FindByConsultantEmail(ctx context.Context, email string) ([]models.Submission, error) {
	return s.Find(ctx, bson.M{"consultantEmail": email}, nil)
}

// SendReminders gửi thông báo nhắc nộp cho các hồ sơ còn draft hoặc chờ
// nộp lại mà lâu chưa được nhắc. Trả về số hồ sơ đã nhắc. Worker gọi định kỳ.
func (s *SubmissionService) SendReminders(ctx context.Context, interval time.Duration) (int, error) {
	cutoff := time.Now().Add(-interval).UnixMilli()

	pending, err := s.Find(ctx, bson.M{
		"status": bson.M{"$in": []string{models.SubStatusDraft, models.SubStatusRequiresResubmission}},
		"$or": []bson.M{
			{"lastReminderAt": bson.M{"$lt": cutoff}},
			{"lastReminderAt": bson.M{"$exists": false}},
		},
	}, nil)
	if err != nil {
		return 0, err
	}

	reminded := 0
	for i := range pending {
		submission := pending[i]
		// Nhắc hạn là thông báo hệ thống, không có người gửi
		s.notifyVendor(ctx, &submission, primitive.NilObjectID, notifmodels.TypeSystem, notifmodels.PriorityLow,
			"Nhắc nộp hồ sơ",
			fmt.Sprintf("Hồ sơ kỳ %s %d của bạn chưa hoàn tất (trạng thái: %s)", submission.Month, submission.Year, submission.Status))

		_, err := s.UpdateById(ctx, submission.ID, &basesvc.UpdateData{Set: map[string]interface{}{
			"reminderCount":  submission.ReminderCount + 1,
			"lastReminderAt": time.Now().UnixMilli(),
		}})
		if err != nil {
			logger.GetErrorLogger().WithFields(logrus.Fields{
				"submission_id": submission.ID.Hex(),
				"error":         err.Error(),
			}).Error("Không thể cập nhật bộ đếm nhắc nộp")
			continue
		}
		reminded++
	}
	return reminded, nil
}
