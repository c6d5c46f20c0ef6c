package models

import (
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"vendor_compliance/internal/common"
	"vendor_compliance/internal/period"
)

var monthlyCategories = []period.Category{
	period.CategoryPfEcr,
	period.CategoryPfPaymentReceipt,
	period.CategoryEsiChallan,
	period.CategoryEsiPaymentReceipt,
	period.CategoryPtRemittance,
	period.CategorySalaryRegister,
	period.CategoryAttendanceRegister,
	period.CategoryLeaveRegister,
	period.CategoryBankStatement,
}

func newTestSubmission(month string) *Submission {
	return &Submission{
		ID:        primitive.NewObjectID(),
		VendorID:  primitive.NewObjectID(),
		Year:      2026,
		Month:     month,
		Documents: []DocumentEntry{},
		Status:    SubStatusDraft,
	}
}

func newTestEntry(category period.Category) DocumentEntry {
	return DocumentEntry{
		EntryID:   primitive.NewObjectID(),
		Category:  category,
		FileRef:   "ref-" + string(category),
		FileName:  string(category) + ".pdf",
		MimeType:  "application/pdf",
		SizeBytes: 1024,
	}
}

func addAll(t *testing.T, s *Submission, categories []period.Category) {
	t.Helper()
	for _, category := range categories {
		if err := s.AddDocument(newTestEntry(category), time.Now()); err != nil {
			t.Fatalf("AddDocument(%s) trả lỗi: %v", category, err)
		}
	}
}

func TestAddDocument_MandatoryTheoThangCuaHoSo(t *testing.T) {
	s := newTestSubmission("Feb")
	addAll(t, s, []period.Category{period.CategoryPfEcr, period.CategoryLabourWelfareFund})

	if entry := s.FindEntryByCategory(period.CategoryPfEcr); !entry.IsMandatory {
		t.Error("PF_ECR phải là bắt buộc trong tháng Feb")
	}
	// Tài liệu hàng năm không bắt buộc ngoài tháng Một
	if entry := s.FindEntryByCategory(period.CategoryLabourWelfareFund); entry.IsMandatory {
		t.Error("LABOUR_WELFARE_FUND không được là bắt buộc trong tháng Feb")
	}
}

func TestAddDocument_TrungCategoryBiTuChoi(t *testing.T) {
	s := newTestSubmission("Feb")
	addAll(t, s, []period.Category{period.CategoryPfEcr})

	err := s.AddDocument(newTestEntry(period.CategoryPfEcr), time.Now())
	if err == nil {
		t.Fatal("upload trùng category khi entry chưa bị từ chối phải trả lỗi")
	}
	var customErr *common.Error
	if !errors.As(err, &customErr) || customErr.StatusCode != common.StatusConflict {
		t.Errorf("lỗi trùng category phải có status 409, nhận %v", err)
	}
	if len(s.Documents) != 1 {
		t.Errorf("hồ sơ không được thay đổi khi upload bị từ chối, có %d entry", len(s.Documents))
	}
}

func TestAddDocument_DuongNopLai(t *testing.T) {
	s := newTestSubmission("Feb")
	addAll(t, s, []period.Category{period.CategoryPfEcr})

	entry := s.FindEntryByCategory(period.CategoryPfEcr)
	if _, err := s.TransitionDocument(entry.EntryID, ActionReject, primitive.NewObjectID(), "bản scan mờ", time.Now()); err != nil {
		t.Fatalf("reject trả lỗi: %v", err)
	}

	replacement := newTestEntry(period.CategoryPfEcr)
	if err := s.AddDocument(replacement, time.Now()); err != nil {
		t.Fatalf("nộp lại sau khi bị từ chối phải được chấp nhận: %v", err)
	}

	entry = s.FindEntryByCategory(period.CategoryPfEcr)
	if entry.Status != DocStatusResubmitted {
		t.Errorf("entry nộp lại phải ở trạng thái resubmitted, nhận %s", entry.Status)
	}
	if entry.ResubmissionCount != 1 {
		t.Errorf("bộ đếm nộp lại của entry phải là 1, nhận %d", entry.ResubmissionCount)
	}
	if s.ResubmissionCount != 1 {
		t.Errorf("bộ đếm nộp lại của hồ sơ phải là 1, nhận %d", s.ResubmissionCount)
	}
	if len(s.Documents) != 1 {
		t.Errorf("entry cũ phải bị thay thế chứ không thêm mới, có %d entry", len(s.Documents))
	}
	// Sổ từ chối giữ nguyên dòng cũ
	if len(s.Rejections) != 1 {
		t.Errorf("sổ từ chối phải giữ lại dòng cũ, có %d dòng", len(s.Rejections))
	}
}

func TestCanSubmit_ThangHai(t *testing.T) {
	s := newTestSubmission("Feb")
	addAll(t, s, monthlyCategories)
	s.InvoiceNumber = "INV-2026-02"
	s.ConsultantEmail = "consultant@example.com"

	ok, missing, err := s.CanSubmit()
	if err != nil {
		t.Fatalf("CanSubmit trả lỗi: %v", err)
	}
	if !ok {
		t.Errorf("đủ 9 tài liệu hàng tháng trong Feb phải nộp được, thiếu: %v", missing)
	}
}

func TestCanSubmit_ThangMotThieuTaiLieuHangNam(t *testing.T) {
	s := newTestSubmission("Jan")
	addAll(t, s, monthlyCategories)
	s.InvoiceNumber = "INV-2026-01"
	s.ConsultantEmail = "consultant@example.com"

	ok, missing, err := s.CanSubmit()
	if err != nil {
		t.Fatalf("CanSubmit trả lỗi: %v", err)
	}
	if ok {
		t.Error("tháng Một thiếu tài liệu hàng năm không được phép nộp")
	}
	if len(missing) != 1 || missing[0] != period.CategoryLabourWelfareFund {
		t.Errorf("danh sách thiếu phải là [LABOUR_WELFARE_FUND], nhận %v", missing)
	}
}

func TestCanSubmit_ThieuInvoiceHoacConsultant(t *testing.T) {
	s := newTestSubmission("Feb")
	addAll(t, s, monthlyCategories)

	ok, _, err := s.CanSubmit()
	if err != nil {
		t.Fatalf("CanSubmit trả lỗi: %v", err)
	}
	if ok {
		t.Error("chưa khai invoice và consultant không được phép nộp")
	}
}

func TestTransitionDocument_RejectGhiSoTuChoi(t *testing.T) {
	s := newTestSubmission("Feb")
	addAll(t, s, monthlyCategories)

	reviewerID := primitive.NewObjectID()
	entry := s.FindEntryByCategory(period.CategorySalaryRegister)
	if _, err := s.TransitionDocument(entry.EntryID, ActionRequestChanges, reviewerID, "kiểm tra lại", time.Now()); err != nil {
		t.Fatalf("request_changes trả lỗi: %v", err)
	}
	if entry.Status != DocStatusUnderReview {
		t.Fatalf("entry sau request_changes phải ở under_review, nhận %s", entry.Status)
	}

	updated, err := s.TransitionDocument(entry.EntryID, ActionReject, reviewerID, "bản scan mờ", time.Now())
	if err != nil {
		t.Fatalf("reject trả lỗi: %v", err)
	}
	if updated.Status != DocStatusRejected {
		t.Errorf("entry sau reject phải ở rejected, nhận %s", updated.Status)
	}
	if len(s.Rejections) != 1 {
		t.Fatalf("sổ từ chối phải có 1 dòng, có %d", len(s.Rejections))
	}
	record := s.Rejections[0]
	if record.Category != period.CategorySalaryRegister || record.Reason != "bản scan mờ" || record.ReviewerID != reviewerID {
		t.Errorf("dòng từ chối ghi sai: %+v", record)
	}

	if status := s.RecomputeStatus(); status != SubStatusRequiresResubmission {
		t.Errorf("hồ sơ có tài liệu bắt buộc bị từ chối phải là requires_resubmission, nhận %s", status)
	}
}

func TestTransitionDocument_TuTrangThaiTerminal(t *testing.T) {
	s := newTestSubmission("Feb")
	addAll(t, s, []period.Category{period.CategoryPfEcr})

	entry := s.FindEntryByCategory(period.CategoryPfEcr)
	if _, err := s.TransitionDocument(entry.EntryID, ActionApprove, primitive.NewObjectID(), "", time.Now()); err != nil {
		t.Fatalf("approve trả lỗi: %v", err)
	}

	before := *s.FindEntryByCategory(period.CategoryPfEcr)
	_, err := s.TransitionDocument(entry.EntryID, ActionReject, primitive.NewObjectID(), "đổi ý", time.Now())
	if err == nil {
		t.Fatal("chuyển trạng thái từ approved phải trả lỗi")
	}
	var customErr *common.Error
	if !errors.As(err, &customErr) || customErr.Code != common.ErrCodeBusinessState {
		t.Errorf("lỗi phải thuộc nhóm trạng thái nghiệp vụ, nhận %v", err)
	}

	after := *s.FindEntryByCategory(period.CategoryPfEcr)
	if before != after {
		t.Error("entry không được thay đổi khi transition thất bại")
	}
	if len(s.Rejections) != 0 {
		t.Error("sổ từ chối không được ghi khi transition thất bại")
	}
}

func TestTransitionDocument_HanhDongKhongHopLe(t *testing.T) {
	s := newTestSubmission("Feb")
	addAll(t, s, []period.Category{period.CategoryPfEcr})

	entry := s.FindEntryByCategory(period.CategoryPfEcr)
	if _, err := s.TransitionDocument(entry.EntryID, "archive", primitive.NewObjectID(), "", time.Now()); err == nil {
		t.Fatal("hành động không định nghĩa phải trả lỗi")
	}
	if s.FindEntryByCategory(period.CategoryPfEcr).Status != DocStatusUploaded {
		t.Error("entry không được thay đổi khi hành động không hợp lệ")
	}
}

func TestRecomputeStatus_ThuTuUuTien(t *testing.T) {
	reviewerID := primitive.NewObjectID()

	s := newTestSubmission("Feb")
	addAll(t, s, monthlyCategories)
	now := time.Now()

	// Duyệt tất cả trừ một
	for _, category := range monthlyCategories[:len(monthlyCategories)-1] {
		entry := s.FindEntryByCategory(category)
		if _, err := s.TransitionDocument(entry.EntryID, ActionApprove, reviewerID, "", now); err != nil {
			t.Fatalf("approve %s trả lỗi: %v", category, err)
		}
	}
	if status := s.RecomputeStatus(); status != SubStatusPartiallyApproved {
		t.Errorf("một phần được duyệt phải là partially_approved, nhận %s", status)
	}

	// Duyệt nốt: tất cả bắt buộc approved
	last := s.FindEntryByCategory(monthlyCategories[len(monthlyCategories)-1])
	if _, err := s.TransitionDocument(last.EntryID, ActionApprove, reviewerID, "", now); err != nil {
		t.Fatalf("approve cuối trả lỗi: %v", err)
	}
	if status := s.RecomputeStatus(); status != SubStatusFullyApproved {
		t.Errorf("tất cả được duyệt phải là fully_approved, nhận %s", status)
	}

	// Idempotent: gọi lại không đổi kết quả
	if status := s.RecomputeStatus(); status != SubStatusFullyApproved {
		t.Errorf("RecomputeStatus phải idempotent, nhận %s", status)
	}

	// Một tài liệu bắt buộc bị từ chối qua đường nộp lại rồi từ chối tiếp
	// phải kéo hồ sơ về requires_resubmission, không bao giờ giữ fully_approved
	replacement := newTestSubmission("Feb")
	addAll(t, replacement, monthlyCategories)
	for _, category := range monthlyCategories {
		entry := replacement.FindEntryByCategory(category)
		if _, err := replacement.TransitionDocument(entry.EntryID, ActionApprove, reviewerID, "", now); err != nil {
			t.Fatalf("approve %s trả lỗi: %v", category, err)
		}
	}
	replacement.RecomputeStatus()
	replacement.Documents[0].Status = DocStatusRejected
	if status := replacement.RecomputeStatus(); status != SubStatusRequiresResubmission {
		t.Errorf("có tài liệu bắt buộc rejected phải là requires_resubmission, nhận %s", status)
	}
}

func TestRecomputeStatus_DraftVaSubmitted(t *testing.T) {
	s := newTestSubmission("Feb")
	addAll(t, s, monthlyCategories)

	if status := s.RecomputeStatus(); status != SubStatusDraft {
		t.Errorf("chưa nộp phải là draft, nhận %s", status)
	}

	s.SubmissionDate = time.Now().UnixMilli()
	if status := s.RecomputeStatus(); status != SubStatusSubmitted {
		t.Errorf("đã nộp, chưa ai review phải là submitted, nhận %s", status)
	}
}
