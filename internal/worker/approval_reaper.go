// Package worker chứa các background worker chạy định kỳ.
package worker

import (
	"context"
	"time"

	authsvc "vendor_compliance/internal/api/auth/service"
	"vendor_compliance/internal/logger"
)

// ApprovalReaperWorker quét định kỳ các yêu cầu phê duyệt đăng nhập còn
// pending đã quá hạn và chuyển sang expired. Hạn được thực thi chính tại
// thời điểm resolve; worker này chỉ dọn dẹp để danh sách chờ không phình
// ra vô hạn, row quá hạn vẫn giữ lại làm audit.
type ApprovalReaperWorker struct {
	approvalService *authsvc.LoginApprovalService
	interval        time.Duration // Khoảng thời gian giữa các lần chạy
}

// NewApprovalReaperWorker tạo mới ApprovalReaperWorker
func NewApprovalReaperWorker(approvalService *authsvc.LoginApprovalService, interval time.Duration) *ApprovalReaperWorker {
	if interval < 30*time.Second {
		interval = 5 * time.Minute
	}
	return &ApprovalReaperWorker{
		approvalService: approvalService,
		interval:        interval,
	}
}

// Start bắt đầu background worker quét yêu cầu quá hạn
func (w *ApprovalReaperWorker) Start(ctx context.Context) {
	log := logger.GetAppLogger()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	log.WithFields(map[string]interface{}{
		"interval": w.interval.String(),
	}).Info("🔄 [APPROVAL_REAPER] Starting Approval Reaper Worker...")

	for {
		select {
		case <-ctx.Done():
			log.Info("🔄 [APPROVAL_REAPER] Approval Reaper Worker stopped")
			return
		case <-ticker.C:
			func() {
				defer func() {
					if r := recover(); r != nil {
						log.WithFields(map[string]interface{}{
							"panic": r,
						}).Error("🔄 [APPROVAL_REAPER] Panic khi quét yêu cầu quá hạn, sẽ tiếp tục ở lần chạy tiếp theo")
					}
				}()

				expiredCount, err := w.approvalService.ExpirePending(ctx)
				if err != nil {
					log.WithError(err).Error("🔄 [APPROVAL_REAPER] Failed to expire pending approvals")
					return
				}

				if expiredCount > 0 {
					log.WithFields(map[string]interface{}{
						"expiredCount": expiredCount,
					}).Info("🔄 [APPROVAL_REAPER] Expired pending approvals")
				}
				// expiredCount = 0 thì không log (giảm log noise)
			}()
		}
	}
}
