// Package authdto - các DTO thuộc domain auth (tầng transport).
package authdto

// UserRegisterInput dùng cho đăng ký tài khoản
type UserRegisterInput struct {
	Name        string `json:"name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,strong_password"`
	Phone       string `json:"phone,omitempty"`
	Role        string `json:"role" validate:"required,oneof=vendor consultant"`
	CompanyName string `json:"companyName,omitempty"`
}

// UserLoginInput dùng cho đăng nhập
type UserLoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Hwid     string `json:"hwid" validate:"required"`
}

// UserLogoutInput dùng cho đăng xuất (xóa token theo hwid)
type UserLogoutInput struct {
	Hwid string `json:"hwid" validate:"required"`
}

// UserChangePasswordInput dùng cho đổi mật khẩu
type UserChangePasswordInput struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,strong_password"`
}

// UserUpdateInput dùng cho cập nhật thông tin người dùng
type UserUpdateInput struct {
	Name        string `json:"name"`
	Phone       string `json:"phone,omitempty"`
	CompanyName string `json:"companyName,omitempty"`
}
