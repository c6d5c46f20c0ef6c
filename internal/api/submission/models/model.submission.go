// Package models - model Submission và DocumentEntry thuộc domain submission.
//
// Toàn bộ luật chuyển trạng thái nằm ở đây dưới dạng method thuần túy trên
// aggregate: service chịu trách nhiệm load, khóa, gọi method rồi ghi lại
// nguyên document. Không code nào ngoài RecomputeStatus được set Status
// của submission.
package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"vendor_compliance/internal/common"
	"vendor_compliance/internal/period"
)

// Trạng thái của một tài liệu trong hồ sơ
const (
	DocStatusUploaded    = "uploaded"     // Vendor vừa upload, chưa ai xem
	DocStatusUnderReview = "under_review" // Consultant đang xem xét
	DocStatusApproved    = "approved"     // Đã duyệt (terminal)
	DocStatusRejected    = "rejected"     // Bị từ chối (terminal, trừ đường nộp lại)
	DocStatusResubmitted = "resubmitted"  // Đã nộp lại sau khi bị từ chối
)

// Trạng thái tổng hợp của hồ sơ, luôn được suy ra từ trạng thái các tài liệu
const (
	SubStatusDraft                = "draft"
	SubStatusSubmitted            = "submitted"
	SubStatusUnderReview          = "under_review"
	SubStatusPartiallyApproved    = "partially_approved"
	SubStatusFullyApproved        = "fully_approved"
	SubStatusRequiresResubmission = "requires_resubmission"
)

// Các hành động review trên một tài liệu
const (
	ActionApprove        = "approve"
	ActionReject         = "reject"
	ActionRequestChanges = "request_changes"
)

// RejectionRecord là một dòng trong sổ từ chối của hồ sơ, giữ lại để audit
// và theo dõi nộp lại. Không bao giờ bị xóa khi tài liệu được thay thế.
type RejectionRecord struct {
	Category   period.Category    `json:"category" bson:"category"`
	Reason     string             `json:"reason" bson:"reason"`
	ReviewerID primitive.ObjectID `json:"reviewerId" bson:"reviewerId"`
	RejectedAt int64              `json:"rejectedAt" bson:"rejectedAt"`
}

// DocumentEntry là một tài liệu trong hồ sơ. Chỉ thuộc về đúng một
// Submission, không được tham chiếu từ nơi khác ngoài report read-only.
type DocumentEntry struct {
	EntryID           primitive.ObjectID `json:"entryId" bson:"entryId"`
	Category          period.Category    `json:"category" bson:"category"`
	DisplayName       string             `json:"displayName" bson:"displayName"`
	FileRef           string             `json:"fileRef" bson:"fileRef"`     // Reference do storage trả về
	FileName          string             `json:"fileName" bson:"fileName"`   // Tên file gốc vendor upload
	MimeType          string             `json:"mimeType" bson:"mimeType"`
	SizeBytes         int64              `json:"sizeBytes" bson:"sizeBytes"`
	IsMandatory       bool               `json:"isMandatory" bson:"isMandatory"` // Cố định lúc tạo, theo tháng của hồ sơ
	Status            string             `json:"status" bson:"status"`
	ReviewerID        primitive.ObjectID `json:"reviewerId,omitempty" bson:"reviewerId,omitempty"`
	ReviewedAt        int64              `json:"reviewedAt,omitempty" bson:"reviewedAt,omitempty"`
	Remarks           string             `json:"remarks,omitempty" bson:"remarks,omitempty"`
	ResubmissionCount int                `json:"resubmissionCount" bson:"resubmissionCount"`
	UploadedAt        int64              `json:"uploadedAt" bson:"uploadedAt"`
}

// Submission là hồ sơ tuân thủ của một vendor cho một kỳ báo cáo.
// Mỗi vendor mỗi kỳ (năm + tháng) chỉ có đúng một hồ sơ.
type Submission struct {
	ID                primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	VendorID          primitive.ObjectID `json:"vendorId" bson:"vendorId" index:"single:1;compound:vendor_period_unique"`
	Year              int                `json:"year" bson:"year" index:"compound:vendor_period_unique"`
	Month             string             `json:"month" bson:"month" index:"compound:vendor_period_unique"` // Mã 3 chữ cái: Jan..Dec
	AgreementStart    int64              `json:"agreementStart,omitempty" bson:"agreementStart,omitempty"`
	AgreementEnd      int64              `json:"agreementEnd,omitempty" bson:"agreementEnd,omitempty"`
	ConsultantName    string             `json:"consultantName,omitempty" bson:"consultantName,omitempty"`
	ConsultantEmail   string             `json:"consultantEmail,omitempty" bson:"consultantEmail,omitempty" index:"single:1"`
	InvoiceNumber     string             `json:"invoiceNumber,omitempty" bson:"invoiceNumber,omitempty"`
	Documents         []DocumentEntry    `json:"documents" bson:"documents"`
	Rejections        []RejectionRecord  `json:"rejections,omitempty" bson:"rejections,omitempty"`
	Status            string             `json:"status" bson:"status" index:"single:1"`
	SubmissionDate    int64              `json:"submissionDate,omitempty" bson:"submissionDate,omitempty"`
	ResubmissionCount int                `json:"resubmissionCount" bson:"resubmissionCount"`
	ReminderCount     int                `json:"reminderCount" bson:"reminderCount"`
	LastReminderAt    int64              `json:"lastReminderAt,omitempty" bson:"lastReminderAt,omitempty"`
	CreatedAt         int64              `json:"createdAt" bson:"createdAt"`
	UpdatedAt         int64              `json:"updatedAt" bson:"updatedAt"`
}

// SubmissionPaginateResult đại diện cho kết quả phân trang Submission
type SubmissionPaginateResult struct {
	Page      int64        `json:"page" bson:"page"`
	Limit     int64        `json:"limit" bson:"limit"`
	ItemCount int64        `json:"itemCount" bson:"itemCount"`
	Items     []Submission `json:"items" bson:"items"`
}

// FindEntry trả về con trỏ tới entry theo entryId, nil nếu không có
func (s *Submission) FindEntry(entryID primitive.ObjectID) *DocumentEntry {
	for i := range s.Documents {
		if s.Documents[i].EntryID == entryID {
			return &s.Documents[i]
		}
	}
	return nil
}

// FindEntryByCategory trả về con trỏ tới entry theo category, nil nếu không có
func (s *Submission) FindEntryByCategory(category period.Category) *DocumentEntry {
	for i := range s.Documents {
		if s.Documents[i].Category == category {
			return &s.Documents[i]
		}
	}
	return nil
}

// AddDocument thêm một tài liệu vào hồ sơ. IsMandatory được tính từ tháng
// của chính hồ sơ, không nhận từ caller. Category đã tồn tại chỉ được thay
// thế khi entry cũ đang rejected (đường nộp lại); khi đó entry mới vào
// trạng thái resubmitted và bộ đếm nộp lại tăng lên.
//
// Validation kích thước file và mime type nằm ở service trước khi file
// được lưu; tới đây entry đã có FileRef hợp lệ.
func (s *Submission) AddDocument(entry DocumentEntry, now time.Time) error {
	mandatory, err := period.IsMandatory(entry.Category, s.Month)
	if err != nil {
		return err
	}

	entry.IsMandatory = mandatory
	entry.DisplayName = period.DisplayName(entry.Category)
	entry.UploadedAt = now.UnixMilli()

	existing := s.FindEntryByCategory(entry.Category)
	if existing == nil {
		entry.Status = DocStatusUploaded
		entry.ResubmissionCount = 0
		s.Documents = append(s.Documents, entry)
		return nil
	}

	if existing.Status != DocStatusRejected {
		return common.NewError(
			common.ErrCodeBusinessOperation,
			fmt.Sprintf("Tài liệu %s đã tồn tại trong hồ sơ và chưa bị từ chối", entry.Category),
			common.StatusConflict,
			map[string]interface{}{"category": entry.Category, "status": existing.Status},
		)
	}

	// Đường nộp lại: thay entry cũ, giữ nguyên sổ từ chối
	entry.Status = DocStatusResubmitted
	entry.ResubmissionCount = existing.ResubmissionCount + 1
	*existing = entry
	s.ResubmissionCount++
	return nil
}

// MissingMandatory trả về danh sách category bắt buộc của kỳ này chưa có
// entry hoặc entry đang rejected. Hàm thuần túy, không side effect.
func (s *Submission) MissingMandatory() ([]period.Category, error) {
	mandatory, err := period.MandatoryCategories(s.Month)
	if err != nil {
		return nil, err
	}

	missing := make([]period.Category, 0)
	for _, category := range mandatory {
		entry := s.FindEntryByCategory(category)
		if entry == nil || entry.Status == DocStatusRejected {
			missing = append(missing, category)
		}
	}
	return missing, nil
}

// CanSubmit kiểm tra hồ sơ đủ điều kiện nộp: mọi category bắt buộc có entry
// không ở trạng thái rejected, và đã khai số invoice cùng consultant.
func (s *Submission) CanSubmit() (bool, []period.Category, error) {
	missing, err := s.MissingMandatory()
	if err != nil {
		return false, nil, err
	}
	if len(missing) > 0 {
		return false, missing, nil
	}
	if s.InvoiceNumber == "" || s.ConsultantEmail == "" {
		return false, missing, nil
	}
	return true, missing, nil
}

// TransitionDocument áp dụng một hành động review lên một entry.
// Trạng thái nguồn hợp lệ: uploaded, under_review, resubmitted (resubmitted
// quay lại vòng review khi reviewer thao tác). approve và reject là terminal;
// reject ghi thêm một dòng vào sổ từ chối; request_changes đưa entry vào
// under_review kèm remarks.
//
// Tổ hợp trạng thái/hành động không hợp lệ trả về lỗi mà không thay đổi
// bất kỳ trường nào của hồ sơ.
func (s *Submission) TransitionDocument(entryID primitive.ObjectID, action string, reviewerID primitive.ObjectID, remarks string, now time.Time) (*DocumentEntry, error) {
	entry := s.FindEntry(entryID)
	if entry == nil {
		return nil, common.NewError(
			common.ErrCodeDatabaseQuery,
			"Không tìm thấy tài liệu trong hồ sơ",
			common.StatusNotFound,
			map[string]interface{}{"entryId": entryID.Hex()},
		)
	}

	switch entry.Status {
	case DocStatusUploaded, DocStatusUnderReview, DocStatusResubmitted:
		// Các trạng thái nguồn hợp lệ
	default:
		return nil, common.NewError(
			common.ErrCodeBusinessState,
			fmt.Sprintf("Không thể %s tài liệu đang ở trạng thái %s", action, entry.Status),
			common.StatusBadRequest,
			map[string]interface{}{"entryId": entryID.Hex(), "status": entry.Status, "action": action},
		)
	}

	var newStatus string
	switch action {
	case ActionApprove:
		newStatus = DocStatusApproved
	case ActionReject:
		newStatus = DocStatusRejected
	case ActionRequestChanges:
		newStatus = DocStatusUnderReview
	default:
		return nil, common.NewError(
			common.ErrCodeBusinessState,
			fmt.Sprintf("Hành động review không hợp lệ: %q", action),
			common.StatusBadRequest,
			map[string]interface{}{"action": action},
		)
	}

	entry.Status = newStatus
	entry.ReviewerID = reviewerID
	entry.ReviewedAt = now.UnixMilli()
	entry.Remarks = remarks

	if action == ActionReject {
		s.Rejections = append(s.Rejections, RejectionRecord{
			Category:   entry.Category,
			Reason:     remarks,
			ReviewerID: reviewerID,
			RejectedAt: now.UnixMilli(),
		})
	}

	return entry, nil
}

// RecomputeStatus suy ra trạng thái tổng hợp từ các entry bắt buộc.
// Thứ tự ưu tiên (hit đầu tiên thắng): tất cả approved; có rejected;
// có under_review; một phần approved; còn lại theo submissionDate.
// Hàm idempotent, phải được gọi sau mỗi lần chuyển trạng thái entry.
func (s *Submission) RecomputeStatus() string {
	var mandatory []DocumentEntry
	for _, entry := range s.Documents {
		if entry.IsMandatory {
			mandatory = append(mandatory, entry)
		}
	}

	allCategories, err := period.MandatoryCategories(s.Month)
	allPresent := err == nil && len(mandatory) >= len(allCategories)

	approved := 0
	anyRejected := false
	anyUnderReview := false
	for _, entry := range mandatory {
		switch entry.Status {
		case DocStatusApproved:
			approved++
		case DocStatusRejected:
			anyRejected = true
		case DocStatusUnderReview:
			anyUnderReview = true
		}
	}

	switch {
	case allPresent && len(mandatory) > 0 && approved == len(mandatory):
		s.Status = SubStatusFullyApproved
	case anyRejected:
		s.Status = SubStatusRequiresResubmission
	case anyUnderReview:
		s.Status = SubStatusUnderReview
	case approved > 0:
		s.Status = SubStatusPartiallyApproved
	case s.SubmissionDate > 0:
		s.Status = SubStatusSubmitted
	default:
		s.Status = SubStatusDraft
	}
	return s.Status
}
