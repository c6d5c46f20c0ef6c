// Package period định nghĩa chính sách kỳ báo cáo: với một tháng cho trước,
// loại tài liệu nào là bắt buộc hàng tháng, bắt buộc hàng năm, hay tùy chọn một lần.
// Package này thuần túy (pure), không có side effect và không phụ thuộc database.
package period

import (
	"fmt"
	"regexp"

	"vendor_compliance/internal/common"
)

// Category là mã loại tài liệu tuân thủ (ví dụ: PF_ECR, SALARY_REGISTER)
type Category string

// Các loại tài liệu bắt buộc hàng tháng
const (
	CategoryPfEcr              Category = "PF_ECR"
	CategoryPfPaymentReceipt   Category = "PF_PAYMENT_RECEIPT"
	CategoryEsiChallan         Category = "ESI_CHALLAN"
	CategoryEsiPaymentReceipt  Category = "ESI_PAYMENT_RECEIPT"
	CategoryPtRemittance       Category = "PT_REMITTANCE"
	CategorySalaryRegister     Category = "SALARY_REGISTER"
	CategoryAttendanceRegister Category = "ATTENDANCE_REGISTER"
	CategoryLeaveRegister      Category = "LEAVE_REGISTER"
	CategoryBankStatement      Category = "BANK_STATEMENT"
)

// Loại tài liệu bắt buộc hàng năm (chỉ tháng Một)
const (
	CategoryLabourWelfareFund Category = "LABOUR_WELFARE_FUND"
)

// Các loại tài liệu tùy chọn, nộp một lần cho mỗi vendor
const (
	CategoryRegistrationCertificate Category = "REGISTRATION_CERTIFICATE"
	CategoryPfRegistrationCopy      Category = "PF_REGISTRATION_COPY"
	CategoryEsiRegistrationCopy     Category = "ESI_REGISTRATION_COPY"
	CategorySignedAgreement         Category = "SIGNED_AGREEMENT"
)

// Class phân loại một Category theo chính sách kỳ báo cáo
type Class string

const (
	ClassMonthlyMandatory Class = "monthly_mandatory" // Bắt buộc mọi tháng
	ClassAnnualMandatory  Class = "annual_mandatory"  // Bắt buộc chỉ tháng Một
	ClassOneTimeOptional  Class = "one_time_optional" // Tùy chọn, một lần cho mỗi vendor
	ClassExtension        Class = "extension"         // Mã mở rộng hợp lệ, không thuộc danh mục cố định
)

// Months là tập 12 mã tháng hợp lệ theo thứ tự
var Months = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// AnnualMonth là tháng duy nhất mà loại tài liệu hàng năm trở thành bắt buộc
const AnnualMonth = "Jan"

var (
	monthlyMandatory = []Category{
		CategoryPfEcr,
		CategoryPfPaymentReceipt,
		CategoryEsiChallan,
		CategoryEsiPaymentReceipt,
		CategoryPtRemittance,
		CategorySalaryRegister,
		CategoryAttendanceRegister,
		CategoryLeaveRegister,
		CategoryBankStatement,
	}

	annualMandatory = []Category{
		CategoryLabourWelfareFund,
	}

	oneTimeOptional = []Category{
		CategoryRegistrationCertificate,
		CategoryPfRegistrationCopy,
		CategoryEsiRegistrationCopy,
		CategorySignedAgreement,
	}

	monthSet = func() map[string]bool {
		m := make(map[string]bool, len(Months))
		for _, month := range Months {
			m[month] = true
		}
		return m
	}()

	classIndex = func() map[Category]Class {
		m := make(map[Category]Class)
		for _, c := range monthlyMandatory {
			m[c] = ClassMonthlyMandatory
		}
		for _, c := range annualMandatory {
			m[c] = ClassAnnualMandatory
		}
		for _, c := range oneTimeOptional {
			m[c] = ClassOneTimeOptional
		}
		return m
	}()

	// Mã mở rộng: chữ in hoa và dấu gạch dưới, bắt đầu bằng chữ cái
	extensionPattern = regexp.MustCompile(`^[A-Z][A-Z_]*$`)

	displayNames = map[Category]string{
		CategoryPfEcr:                   "PF ECR",
		CategoryPfPaymentReceipt:        "PF Payment Receipt",
		CategoryEsiChallan:              "ESI Challan",
		CategoryEsiPaymentReceipt:       "ESI Payment Receipt",
		CategoryPtRemittance:            "PT Remittance",
		CategorySalaryRegister:          "Salary Register",
		CategoryAttendanceRegister:      "Attendance Register",
		CategoryLeaveRegister:           "Leave Register",
		CategoryBankStatement:           "Bank Statement",
		CategoryLabourWelfareFund:       "Labour Welfare Fund",
		CategoryRegistrationCertificate: "Registration Certificate",
		CategoryPfRegistrationCopy:      "PF Registration Copy",
		CategoryEsiRegistrationCopy:     "ESI Registration Copy",
		CategorySignedAgreement:         "Signed Agreement",
	}
)

// Required chứa các nhóm loại tài liệu của một tháng
type Required struct {
	MonthlyMandatory []Category // Bắt buộc mọi tháng
	AnnualMandatory  []Category // Bắt buộc trong tháng này (rỗng nếu không phải tháng Một)
	OneTimeOptional  []Category // Tùy chọn một lần
}

// ValidMonth kiểm tra mã tháng có thuộc tập 12 mã cố định hay không
func ValidMonth(month string) bool {
	return monthSet[month]
}

// newInvalidMonthError tạo ValidationError cho mã tháng không hợp lệ
func newInvalidMonthError(month string) error {
	return common.NewError(
		common.ErrCodeValidationInput,
		fmt.Sprintf("Mã tháng không hợp lệ: %q", month),
		common.StatusBadRequest,
		map[string]interface{}{"month": month, "validMonths": Months},
	)
}

// RequiredCategories trả về các nhóm loại tài liệu cho một tháng.
// Trả về ValidationError nếu month không thuộc tập 12 mã cố định.
func RequiredCategories(month string) (Required, error) {
	if !ValidMonth(month) {
		return Required{}, newInvalidMonthError(month)
	}

	req := Required{
		MonthlyMandatory: append([]Category(nil), monthlyMandatory...),
		OneTimeOptional:  append([]Category(nil), oneTimeOptional...),
	}
	if month == AnnualMonth {
		req.AnnualMandatory = append([]Category(nil), annualMandatory...)
	}
	return req, nil
}

// MandatoryCategories trả về toàn bộ loại tài liệu bắt buộc của một tháng
// (hàng tháng cộng hàng năm nếu là tháng Một).
func MandatoryCategories(month string) ([]Category, error) {
	req, err := RequiredCategories(month)
	if err != nil {
		return nil, err
	}
	return append(req.MonthlyMandatory, req.AnnualMandatory...), nil
}

// Classify phân loại một Category. Hàm này total: mọi category đều map về
// đúng một Class; mã không thuộc danh mục cố định nhưng khớp pattern mở rộng
// được phân loại ClassExtension.
//
// Trả về ValidationError nếu category không khớp pattern mở rộng.
func Classify(category Category) (Class, error) {
	if class, ok := classIndex[category]; ok {
		return class, nil
	}
	if extensionPattern.MatchString(string(category)) {
		return ClassExtension, nil
	}
	return "", common.NewError(
		common.ErrCodeValidationFormat,
		fmt.Sprintf("Mã loại tài liệu không hợp lệ: %q", category),
		common.StatusBadRequest,
		map[string]interface{}{"category": category},
	)
}

// IsMandatory kiểm tra một category có bắt buộc trong tháng cho trước hay không.
// Deterministic: kết quả chỉ phụ thuộc (category, month).
func IsMandatory(category Category, month string) (bool, error) {
	if !ValidMonth(month) {
		return false, newInvalidMonthError(month)
	}

	class, err := Classify(category)
	if err != nil {
		return false, err
	}

	switch class {
	case ClassMonthlyMandatory:
		return true, nil
	case ClassAnnualMandatory:
		return month == AnnualMonth, nil
	default:
		return false, nil
	}
}

// DisplayName trả về tên hiển thị của category.
// Mã mở rộng không có tên hiển thị sẵn thì trả về chính mã đó.
func DisplayName(category Category) string {
	if name, ok := displayNames[category]; ok {
		return name
	}
	return string(category)
}
