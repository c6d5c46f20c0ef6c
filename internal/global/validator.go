package global

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var (
	categoryCodeRegex = regexp.MustCompile(`^[A-Z][A-Z_]*$`)
	periodMonthRegex  = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)
)

// InitValidator khởi tạo và đăng ký các custom validator
func InitValidator() {
	Validate = validator.New()

	_ = Validate.RegisterValidation("no_xss", validateNoXSS)
	_ = Validate.RegisterValidation("strong_password", validateStrongPassword)
	_ = Validate.RegisterValidation("category_code", validateCategoryCode)
	_ = Validate.RegisterValidation("period_month", validatePeriodMonth)
}

// validateNoXSS kiểm tra XSS trong input
func validateNoXSS(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	dangerousPatterns := []string{
		"<script",
		"javascript:",
		"onerror=",
		"onload=",
		"onclick=",
		"eval(",
		"document.cookie",
		"document.write",
		"innerHTML",
		"<iframe",
		"<object",
		"<embed",
	}

	value = strings.ToLower(value)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(value, pattern) {
			return false
		}
	}
	return true
}

// validateStrongPassword kiểm tra mật khẩu mạnh.
// Yêu cầu tối thiểu 8 ký tự và ít nhất 3 trong 4 nhóm:
// chữ hoa, chữ thường, chữ số, ký tự đặc biệt.
func validateStrongPassword(fl validator.FieldLevel) bool {
	value := fl.Field().String()

	if len(value) < 8 {
		return false
	}

	var (
		hasUpper   bool
		hasLower   bool
		hasNumber  bool
		hasSpecial bool
	)

	for _, char := range value {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}
	}

	conditions := 0
	if hasUpper {
		conditions++
	}
	if hasLower {
		conditions++
	}
	if hasNumber {
		conditions++
	}
	if hasSpecial {
		conditions++
	}

	return conditions >= 3
}

// validateCategoryCode kiểm tra mã loại tài liệu.
// Mã hợp lệ gồm chữ in hoa và dấu gạch dưới, bắt đầu bằng chữ cái
// (ví dụ: PF_ECR, SALARY_REGISTER).
func validateCategoryCode(fl validator.FieldLevel) bool {
	return categoryCodeRegex.MatchString(fl.Field().String())
}

// validatePeriodMonth kiểm tra định dạng kỳ báo cáo "YYYY-MM"
func validatePeriodMonth(fl validator.FieldLevel) bool {
	return periodMonthRegex.MatchString(fl.Field().String())
}
