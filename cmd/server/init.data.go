package main

import (
	"context"

	authsvc "vendor_compliance/internal/api/auth/service"
	"vendor_compliance/internal/global"
	"vendor_compliance/internal/logger"
)

// InitDefaultData tạo dữ liệu mặc định khi server khởi động.
// Hiện tại chỉ gồm tài khoản admin đầu tiên (nếu ADMIN_EMAIL/ADMIN_PASSWORD được cấu hình).
func InitDefaultData() {
	log := logger.GetAppLogger()
	log.Info("🔄 [INIT] Starting InitDefaultData...")

	cfg := global.ServerConfig
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		log.Info("ADMIN_EMAIL/ADMIN_PASSWORD not set, skipping default admin account")
		return
	}

	userService, err := authsvc.NewUserService()
	if err != nil {
		log.Fatalf("Failed to initialize user service: %v", err)
	}

	created, err := userService.EnsureAdminAccount(context.TODO(), cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		log.Warnf("Failed to ensure admin account: %v", err)
		return
	}
	if created {
		log.Infof("✅ [INIT] Default admin account created: %s", cfg.AdminEmail)
	} else {
		log.Info("✅ [INIT] Admin account already present, nothing to seed")
	}
}
