package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
)

// Configuration chứa thông tin tĩnh cần thiết để chạy ứng dụng.
// Được đọc từ file env theo môi trường (GO_ENV) và parse bằng struct tag.
type Configuration struct {
	Address               string `env:"ADDRESS" envDefault:":8080"`                // Địa chỉ server
	JwtSecret             string `env:"JWT_SECRET,required"`                       // Bí mật JWT
	MongoDB_ConnectionURI string `env:"MONGODB_CONNECTION_URI,required"`           // URL kết nối cơ sở dữ liệu
	MongoDB_DBName        string `env:"MONGODB_DBNAME,required"`                   // Tên cơ sở dữ liệu
	CORS_Origins          string `env:"CORS_ORIGINS" envDefault:"*"`               // Các origins được phép (phân cách bởi dấu phẩy, * = tất cả)
	CORS_AllowCredentials bool   `env:"CORS_ALLOW_CREDENTIALS" envDefault:"false"` // Cho phép gửi credentials
	RateLimit_Max         int    `env:"RATE_LIMIT_MAX" envDefault:"100"`           // Số request tối đa trong window (0 = disable rate limit)
	RateLimit_Window      int    `env:"RATE_LIMIT_WINDOW" envDefault:"60"`         // Thời gian window (giây)
	RateLimit_Enabled     bool   `env:"RATE_LIMIT_ENABLED" envDefault:"true"`      // Bật/tắt rate limiting

	// Cấu hình upload tài liệu
	UploadDir       string `env:"UPLOAD_DIR" envDefault:"uploads"` // Thư mục lưu file tài liệu
	MaxUploadSizeMB int64  `env:"MAX_UPLOAD_SIZE_MB" envDefault:"5"` // Kích thước tối đa của một tài liệu (MB)

	// Cấu hình phê duyệt đăng nhập
	LoginApprovalTTLHours int `env:"LOGIN_APPROVAL_TTL_HOURS" envDefault:"24"` // Trần thời gian sống của một yêu cầu phê duyệt đăng nhập (giờ)

	// Cấu hình worker nhắc nộp tài liệu
	ReminderIntervalMinutes int `env:"REMINDER_INTERVAL_MINUTES" envDefault:"1440"` // Chu kỳ quét nhắc nộp (phút, 0 = tắt)

	// Cấu hình SMTP (hand-off cho mailer, optional)
	SMTPHost     string `env:"SMTP_HOST"`                  // SMTP host (rỗng = tắt gửi email)
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"` // SMTP port
	SMTPUsername string `env:"SMTP_USERNAME"`              // SMTP username
	SMTPPassword string `env:"SMTP_PASSWORD"`              // SMTP password
	SMTPFrom     string `env:"SMTP_FROM"`                  // Địa chỉ gửi

	// Frontend URL (dùng cho actionURL trong notification)
	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"` // URL frontend

	// Tài khoản admin mặc định (tùy chọn, chỉ tạo khi hệ thống chưa có admin nào)
	AdminEmail    string `env:"ADMIN_EMAIL"`    // Email admin mặc định
	AdminPassword string `env:"ADMIN_PASSWORD"` // Mật khẩu admin mặc định
}

// getEnvPath trả về đường dẫn đến file env dựa trên môi trường
func getEnvPath() string {
	// Mặc định sử dụng môi trường development
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	// Tìm thư mục config
	currentDir, err := os.Getwd()
	if err != nil {
		// Sử dụng fmt.Printf vì logger có thể chưa được init ở đây
		fmt.Printf("Không thể lấy được thư mục hiện tại: %v\n", err)
		return ""
	}

	// Tìm thư mục config/env bằng cách đi lên dần từ thư mục hiện tại
	for {
		envDir := filepath.Join(currentDir, "config", "env")
		if _, err := os.Stat(envDir); err == nil {
			return filepath.Join(envDir, fmt.Sprintf("%s.env", env))
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return ""
		}
		currentDir = parentDir
	}
}

// NewConfig sẽ đọc dữ liệu cấu hình từ file env được cung cấp
func NewConfig() *Configuration {
	envPath := getEnvPath()
	if envPath == "" {
		fmt.Printf("Không tìm thấy thư mục config/env\n")
		return nil
	}

	err := godotenv.Load(envPath)
	if err != nil {
		fmt.Printf("Không thể load file env tại %s: %v\n", envPath, err)
		return nil
	}

	cfg := Configuration{}
	err = env.Parse(&cfg)
	if err != nil {
		fmt.Printf("Lỗi khi parse config: %+v\n", err)
		return nil
	}

	return &cfg
}

// MaxUploadSizeBytes trả về kích thước upload tối đa tính bằng byte.
func (c *Configuration) MaxUploadSizeBytes() int64 {
	return c.MaxUploadSizeMB * 1024 * 1024
}
