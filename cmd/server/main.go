package main

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v3"

	"vendor_compliance/internal/global"
	"vendor_compliance/internal/logger"
)

// initLogger khởi tạo và cấu hình logger cho toàn bộ ứng dụng
func initLogger() {
	// Khởi tạo logger với cấu hình mặc định
	// Logger sẽ tự động đọc environment variables để cấu hình
	if err := logger.Init(nil); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	// Log thông tin khởi tạo bằng logger mới
	log := logger.GetAppLogger()
	log.Info("Logger system initialized successfully")
}

// main_thread khởi tạo và chạy Fiber server
func main_thread(comps *appComponents) {
	// Khởi tạo app với cấu hình
	app := InitFiberApp(comps)

	cfg := global.ServerConfig
	address := cfg.Address

	log := logger.GetAppLogger()
	log.WithFields(map[string]interface{}{
		"address":  address,
		"protocol": "HTTP",
	}).Info("Starting Fiber server...")

	listenConfig := fiber.ListenConfig{}
	if err := app.Listen(address, listenConfig); err != nil {
		log.Fatalf("Error in Fiber Listen: %v", err)
	}
}

// Hàm main
func main() {
	// Khởi tạo logger
	initLogger()

	// Khởi tạo các biến toàn cục
	InitGlobal()

	// Khởi tạo registry
	InitRegistry()

	// Khởi tạo dữ liệu mặc định
	InitDefaultData()

	// Dựng cây phụ thuộc dùng chung cho routes, websocket và workers
	comps := InitComponents()

	// Chạy background workers với context có cancel
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	StartWorkers(ctx, comps)

	// Chạy Fiber server trên main thread
	main_thread(comps)
}
