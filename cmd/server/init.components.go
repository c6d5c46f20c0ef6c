package main

import (
	"context"
	"time"

	authhdl "vendor_compliance/internal/api/auth/handler"
	notifhdl "vendor_compliance/internal/api/notification/handler"
	subhdl "vendor_compliance/internal/api/submission/handler"
	subsvc "vendor_compliance/internal/api/submission/service"
	"vendor_compliance/internal/global"
	"vendor_compliance/internal/logger"
	"vendor_compliance/internal/realtime"
	"vendor_compliance/internal/storage"
	"vendor_compliance/internal/worker"
)

// appComponents gom các handler và service dùng chung giữa HTTP routes,
// websocket và background workers. Khởi tạo một lần trong main.
type appComponents struct {
	ChannelRegistry   *realtime.ChannelRegistry
	WsHandler         *realtime.Handler
	NotifHandler      *notifhdl.NotificationHandler
	AuthHandler       *authhdl.AuthHandler
	SubmissionHandler *subhdl.SubmissionHandler
	SubmissionService *subsvc.SubmissionService
	Store             *storage.LocalStore
}

// InitComponents dựng toàn bộ cây phụ thuộc của ứng dụng.
// Thứ tự cố định: realtime registry -> notification -> auth -> storage -> submission.
func InitComponents() *appComponents {
	log := logger.GetAppLogger()

	channelRegistry := realtime.NewChannelRegistry()

	notifHandler, err := notifhdl.NewNotificationHandler(channelRegistry)
	if err != nil {
		log.Fatalf("Failed to initialize notification handler: %v", err)
	}

	authHandler, err := authhdl.NewAuthHandler(notifHandler.Service())
	if err != nil {
		log.Fatalf("Failed to initialize auth handler: %v", err)
	}

	store, err := storage.NewLocalStore(global.ServerConfig.UploadDir)
	if err != nil {
		log.Fatalf("Failed to initialize local file store: %v", err)
	}

	submissionService, err := subsvc.NewSubmissionService(authHandler.UserService(), notifHandler.Service(), store)
	if err != nil {
		log.Fatalf("Failed to initialize submission service: %v", err)
	}
	submissionHandler := subhdl.NewSubmissionHandler(submissionService, store)

	// Websocket xác thực bằng token trong message handshake đầu tiên,
	// không đi qua AuthMiddleware của tầng HTTP.
	userService := authHandler.UserService()
	wsHandler := realtime.NewHandler(channelRegistry, func(ctx context.Context, token string) (string, string, error) {
		user, err := userService.FindByToken(ctx, token)
		if err != nil {
			return "", "", err
		}
		return user.ID.Hex(), user.Role, nil
	})

	return &appComponents{
		ChannelRegistry:   channelRegistry,
		WsHandler:         wsHandler,
		NotifHandler:      notifHandler,
		AuthHandler:       authHandler,
		SubmissionHandler: submissionHandler,
		SubmissionService: submissionService,
		Store:             store,
	}
}

// StartWorkers chạy các background worker với recover riêng cho từng goroutine.
func StartWorkers(ctx context.Context, comps *appComponents) {
	log := logger.GetAppLogger()

	reaper := worker.NewApprovalReaperWorker(comps.AuthHandler.ApprovalService(), 5*time.Minute)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.WithFields(map[string]interface{}{"panic": r}).Error("🔄 [APPROVAL_REAPER] Worker goroutine panic")
			}
		}()
		reaper.Start(ctx)
	}()
	log.Info("🔄 [APPROVAL_REAPER] Worker started")

	reminderInterval := time.Duration(global.ServerConfig.ReminderIntervalMinutes) * time.Minute
	if reminderInterval <= 0 {
		log.Info("🔄 [SUBMISSION_REMINDER] Worker disabled (REMINDER_INTERVAL_MINUTES = 0)")
		return
	}
	reminder := worker.NewSubmissionReminderWorker(comps.SubmissionService, reminderInterval)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.WithFields(map[string]interface{}{"panic": r}).Error("🔄 [SUBMISSION_REMINDER] Worker goroutine panic")
			}
		}()
		reminder.Start(ctx)
	}()
	log.Info("🔄 [SUBMISSION_REMINDER] Worker started")
}
