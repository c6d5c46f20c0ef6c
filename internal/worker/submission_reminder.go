package worker

import (
	"context"
	"time"

	subsvc "vendor_compliance/internal/api/submission/service"
	"vendor_compliance/internal/logger"
)

// SubmissionReminderWorker nhắc vendor hoàn tất các hồ sơ còn draft hoặc
// đang chờ nộp lại. Mỗi hồ sơ được nhắc nhiều nhất một lần mỗi interval.
type SubmissionReminderWorker struct {
	submissionService *subsvc.SubmissionService
	interval          time.Duration // Khoảng thời gian giữa hai lần nhắc cùng một hồ sơ
}

// NewSubmissionReminderWorker tạo mới SubmissionReminderWorker
func NewSubmissionReminderWorker(submissionService *subsvc.SubmissionService, interval time.Duration) *SubmissionReminderWorker {
	if interval < time.Hour {
		interval = 24 * time.Hour
	}
	return &SubmissionReminderWorker{
		submissionService: submissionService,
		interval:          interval,
	}
}

// Start bắt đầu background worker gửi nhắc nộp.
// Tick mỗi giờ; hồ sơ chỉ được nhắc lại khi đã qua đủ interval kể từ lần
// nhắc trước nên tick dày không gây spam.
func (w *SubmissionReminderWorker) Start(ctx context.Context) {
	log := logger.GetAppLogger()

	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	log.WithFields(map[string]interface{}{
		"interval": w.interval.String(),
	}).Info("🔄 [SUBMISSION_REMINDER] Starting Submission Reminder Worker...")

	for {
		select {
		case <-ctx.Done():
			log.Info("🔄 [SUBMISSION_REMINDER] Submission Reminder Worker stopped")
			return
		case <-ticker.C:
			func() {
				defer func() {
					if r := recover(); r != nil {
						log.WithFields(map[string]interface{}{
							"panic": r,
						}).Error("🔄 [SUBMISSION_REMINDER] Panic khi gửi nhắc nộp, sẽ tiếp tục ở lần chạy tiếp theo")
					}
				}()

				remindedCount, err := w.submissionService.SendReminders(ctx, w.interval)
				if err != nil {
					log.WithError(err).Error("🔄 [SUBMISSION_REMINDER] Failed to send submission reminders")
					return
				}

				if remindedCount > 0 {
					log.WithFields(map[string]interface{}{
						"remindedCount": remindedCount,
					}).Info("🔄 [SUBMISSION_REMINDER] Sent submission reminders")
				}
			}()
		}
	}
}
