package authsvc

import (
	"errors"
	"testing"
	"time"

	models "vendor_compliance/internal/api/auth/models"
	"vendor_compliance/internal/common"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newPendingApproval(requestedAt time.Time, ttl time.Duration) *models.LoginApproval {
	return &models.LoginApproval{
		Status:      models.ApprovalStatusPending,
		RequestedAt: requestedAt.UnixMilli(),
		ExpiresAt:   requestedAt.Add(ttl).UnixMilli(),
	}
}

func TestNewLoginApproval_LuuThietBiVaNguoiDuyet(t *testing.T) {
	user := &models.User{ID: primitive.NewObjectID()}
	device := models.DeviceInfo{
		UserAgent: "Mozilla/5.0 (Windows NT 10.0)",
		IP:        "203.0.113.7",
		Hwid:      "hwid-may-ke-toan",
	}
	reviewerIDs := []primitive.ObjectID{primitive.NewObjectID(), primitive.NewObjectID()}
	now := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)

	approval := newLoginApproval(user, device, reviewerIDs, "token-abc", now, 24*time.Hour)

	if approval.Status != models.ApprovalStatusPending {
		t.Errorf("Bản ghi mới phải ở trạng thái pending, nhận được %s", approval.Status)
	}
	if approval.UserID != user.ID {
		t.Errorf("UserID phải là %s, nhận được %s", user.ID.Hex(), approval.UserID.Hex())
	}
	if approval.Device != device {
		t.Errorf("Thông tin thiết bị phải được lưu nguyên trạng, nhận được %+v", approval.Device)
	}
	if len(approval.NotifiedReviewers) != 2 {
		t.Fatalf("Phải lưu đủ 2 người duyệt được báo, nhận được %d", len(approval.NotifiedReviewers))
	}
	for i, id := range reviewerIDs {
		if approval.NotifiedReviewers[i] != id {
			t.Errorf("NotifiedReviewers[%d] phải là %s, nhận được %s", i, id.Hex(), approval.NotifiedReviewers[i].Hex())
		}
	}
	if approval.ExpiresAt != now.Add(24*time.Hour).UnixMilli() {
		t.Errorf("ExpiresAt phải là requestedAt + TTL, nhận được %d", approval.ExpiresAt)
	}
}

func TestCheckResolvable_PendingBeforeExpiry(t *testing.T) {
	requestedAt := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	approval := newPendingApproval(requestedAt, 24*time.Hour)

	// Một giây trước khi hết hạn vẫn xử lý được
	now := requestedAt.Add(24*time.Hour - time.Second)
	if err := checkResolvable(approval, now); err != nil {
		t.Errorf("Approval còn hạn phải xử lý được, nhận lỗi: %v", err)
	}
}

func TestCheckResolvable_ExpiredAfterTTL(t *testing.T) {
	requestedAt := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	approval := newPendingApproval(requestedAt, 24*time.Hour)

	// Một giây sau khi hết hạn phải trả lỗi hết hạn
	now := requestedAt.Add(24*time.Hour + time.Second)
	err := checkResolvable(approval, now)
	if err == nil {
		t.Fatal("Approval quá hạn phải trả lỗi")
	}
	if !errors.Is(err, common.ErrApprovalExpired) {
		t.Errorf("Lỗi phải là ErrApprovalExpired, nhận được: %v", err)
	}

	var customErr *common.Error
	if !errors.As(err, &customErr) {
		t.Fatal("Lỗi phải là *common.Error")
	}
	if customErr.StatusCode != common.StatusGone {
		t.Errorf("Status code phải là %d (Gone), nhận được %d", common.StatusGone, customErr.StatusCode)
	}
}

func TestCheckResolvable_ExactExpiryBoundary(t *testing.T) {
	requestedAt := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	approval := newPendingApproval(requestedAt, 24*time.Hour)

	// Đúng thời điểm hết hạn: không còn xử lý được
	now := requestedAt.Add(24 * time.Hour)
	if err := checkResolvable(approval, now); !errors.Is(err, common.ErrApprovalExpired) {
		t.Errorf("Đúng mốc hết hạn phải trả ErrApprovalExpired, nhận được: %v", err)
	}
}

func TestCheckResolvable_AlreadyResolved(t *testing.T) {
	requestedAt := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	resolver := primitive.NewObjectID()

	for _, status := range []string{
		models.ApprovalStatusApproved,
		models.ApprovalStatusRejected,
	} {
		approval := newPendingApproval(requestedAt, 24*time.Hour)
		approval.Status = status
		approval.ResolvedBy = resolver
		approval.ResolvedAt = requestedAt.Add(30 * time.Minute).UnixMilli()

		err := checkResolvable(approval, requestedAt.Add(time.Hour))
		if !errors.Is(err, common.ErrApprovalAlreadyResolved) {
			t.Errorf("Approval ở trạng thái %s phải trả ErrApprovalAlreadyResolved, nhận được: %v", status, err)
		}

		var customErr *common.Error
		if !errors.As(err, &customErr) {
			t.Fatal("Lỗi phải là *common.Error")
		}
		if customErr.StatusCode != common.StatusConflict {
			t.Errorf("Status code phải là %d (Conflict), nhận được %d", common.StatusConflict, customErr.StatusCode)
		}

		// Details phải mang quyết định đã ghi nhận để client hiển thị
		details, ok := customErr.Details.(map[string]interface{})
		if !ok {
			t.Fatalf("Details phải là map, nhận được %T", customErr.Details)
		}
		if details["status"] != status {
			t.Errorf("Details.status phải là %s, nhận được %v", status, details["status"])
		}
		if details["resolvedBy"] != resolver.Hex() {
			t.Errorf("Details.resolvedBy phải là %s, nhận được %v", resolver.Hex(), details["resolvedBy"])
		}
	}
}

func TestCheckResolvable_ReaperMarkedExpired(t *testing.T) {
	requestedAt := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	approval := newPendingApproval(requestedAt, 24*time.Hour)

	// Worker quét đã đánh dấu expired: lỗi phải là hết-hạn (410),
	// không phải đã-xử-lý (409)
	approval.Status = models.ApprovalStatusExpired

	now := requestedAt.Add(25 * time.Hour)
	err := checkResolvable(approval, now)
	if !errors.Is(err, common.ErrApprovalExpired) {
		t.Fatalf("Approval do worker đánh dấu expired phải trả ErrApprovalExpired, nhận được: %v", err)
	}

	var customErr *common.Error
	if !errors.As(err, &customErr) {
		t.Fatal("Lỗi phải là *common.Error")
	}
	if customErr.StatusCode != common.StatusGone {
		t.Errorf("Status code phải là %d (Gone), nhận được %d", common.StatusGone, customErr.StatusCode)
	}
}

func TestCheckResolvable_ExpiryWinsOverResolvedStatus(t *testing.T) {
	requestedAt := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	approval := newPendingApproval(requestedAt, 24*time.Hour)
	approval.Status = models.ApprovalStatusApproved

	// Đã xử lý VÀ quá hạn: hết-hạn được xét trước, xử lý tiếp là vô nghĩa
	now := requestedAt.Add(48 * time.Hour)
	if err := checkResolvable(approval, now); !errors.Is(err, common.ErrApprovalExpired) {
		t.Errorf("Approval quá hạn phải trả ErrApprovalExpired kể cả khi đã xử lý, nhận được: %v", err)
	}
}
