// Package global chứa các biến toàn cục dùng chung trong toàn bộ ứng dụng.
package global

import (
	"vendor_compliance/config"
	"vendor_compliance/internal/registry"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoDB_CollectionName chứa tên các collection trong MongoDB
type MongoDB_CollectionName struct {
	Users          string // Tên collection cho người dùng (vendor, consultant, admin)
	LoginApprovals string // Tên collection cho yêu cầu phê duyệt đăng nhập
	Submissions    string // Tên collection cho hồ sơ tuân thủ theo kỳ
	Notifications  string // Tên collection cho thông báo
}

// Các biến toàn cục
var Validate *validator.Validate                                          // Biến để xác thực dữ liệu
var MongoDB_Session *mongo.Client                                         // Phiên kết nối tới MongoDB
var ServerConfig *config.Configuration                                    // Cấu hình của server
var MongoDB_ColNames MongoDB_CollectionName = *new(MongoDB_CollectionName) // Tên các collection

// Các Registry
var RegistryCollections = registry.NewRegistry[*mongo.Collection]() // Registry chứa các collections
var RegistryDatabase = registry.NewRegistry[*mongo.Database]()      // Registry chứa các databases
