// Package period - Test chính sách kỳ báo cáo: phân loại category và tính bắt buộc theo tháng.
package period

import (
	"errors"
	"testing"

	"vendor_compliance/internal/common"
)

func TestRequiredCategories_MonthlyCount(t *testing.T) {
	for _, month := range Months {
		req, err := RequiredCategories(month)
		if err != nil {
			t.Fatalf("RequiredCategories(%q) trả về lỗi: %v", month, err)
		}
		if len(req.MonthlyMandatory) != 9 {
			t.Errorf("tháng %q: cần 9 loại bắt buộc hàng tháng, có %d", month, len(req.MonthlyMandatory))
		}
		if len(req.OneTimeOptional) != 4 {
			t.Errorf("tháng %q: cần 4 loại tùy chọn một lần, có %d", month, len(req.OneTimeOptional))
		}
	}
}

func TestRequiredCategories_AnnualOnlyInJanuary(t *testing.T) {
	for _, month := range Months {
		req, err := RequiredCategories(month)
		if err != nil {
			t.Fatalf("RequiredCategories(%q) trả về lỗi: %v", month, err)
		}
		if month == "Jan" {
			if len(req.AnnualMandatory) != 1 || req.AnnualMandatory[0] != CategoryLabourWelfareFund {
				t.Errorf("tháng Jan phải có LABOUR_WELFARE_FUND trong annualMandatory, có: %v", req.AnnualMandatory)
			}
		} else {
			if len(req.AnnualMandatory) != 0 {
				t.Errorf("tháng %q không được có annualMandatory, có: %v", month, req.AnnualMandatory)
			}
		}
	}
}

func TestRequiredCategories_InvalidMonth(t *testing.T) {
	for _, month := range []string{"January", "jan", "13", "", "JAN"} {
		_, err := RequiredCategories(month)
		if err == nil {
			t.Errorf("RequiredCategories(%q) phải trả về lỗi", month)
			continue
		}
		var appErr *common.Error
		if !errors.As(err, &appErr) {
			t.Errorf("lỗi không phải *common.Error: %T", err)
			continue
		}
		if appErr.Code.Code != common.ErrCodeValidationInput.Code {
			t.Errorf("mã lỗi phải là %s, có %s", common.ErrCodeValidationInput.Code, appErr.Code.Code)
		}
	}
}

func TestIsMandatory_AnnualCategory(t *testing.T) {
	mandatory, err := IsMandatory(CategoryLabourWelfareFund, "Jan")
	if err != nil {
		t.Fatalf("IsMandatory trả về lỗi: %v", err)
	}
	if !mandatory {
		t.Error("LABOUR_WELFARE_FUND phải bắt buộc trong tháng Jan")
	}

	for _, month := range Months[1:] {
		mandatory, err := IsMandatory(CategoryLabourWelfareFund, month)
		if err != nil {
			t.Fatalf("IsMandatory(%q) trả về lỗi: %v", month, err)
		}
		if mandatory {
			t.Errorf("LABOUR_WELFARE_FUND không được bắt buộc trong tháng %q", month)
		}
	}
}

func TestIsMandatory_MonthlyCategory(t *testing.T) {
	for _, month := range Months {
		mandatory, err := IsMandatory(CategorySalaryRegister, month)
		if err != nil {
			t.Fatalf("IsMandatory(%q) trả về lỗi: %v", month, err)
		}
		if !mandatory {
			t.Errorf("SALARY_REGISTER phải bắt buộc trong tháng %q", month)
		}
	}
}

func TestIsMandatory_OneTimeOptional(t *testing.T) {
	mandatory, err := IsMandatory(CategorySignedAgreement, "Mar")
	if err != nil {
		t.Fatalf("IsMandatory trả về lỗi: %v", err)
	}
	if mandatory {
		t.Error("SIGNED_AGREEMENT là tùy chọn, không được bắt buộc")
	}
}

func TestClassify_Total(t *testing.T) {
	cases := map[Category]Class{
		CategoryPfEcr:                   ClassMonthlyMandatory,
		CategoryBankStatement:           ClassMonthlyMandatory,
		CategoryLabourWelfareFund:       ClassAnnualMandatory,
		CategoryRegistrationCertificate: ClassOneTimeOptional,
		Category("FIRE_SAFETY_CERT"):    ClassExtension,
		Category("GRATUITY_REGISTER"):   ClassExtension,
	}
	for category, want := range cases {
		got, err := Classify(category)
		if err != nil {
			t.Errorf("Classify(%q) trả về lỗi: %v", category, err)
			continue
		}
		if got != want {
			t.Errorf("Classify(%q) = %q, muốn %q", category, got, want)
		}
	}
}

func TestClassify_InvalidExtensionPattern(t *testing.T) {
	for _, category := range []Category{"pf_ecr", "_LEADING", "HAS SPACE", "123ABC", ""} {
		_, err := Classify(category)
		if err == nil {
			t.Errorf("Classify(%q) phải trả về lỗi vì không khớp pattern mở rộng", category)
		}
	}
}

func TestMandatoryCategories_IncludesAnnualInJanuary(t *testing.T) {
	jan, err := MandatoryCategories("Jan")
	if err != nil {
		t.Fatalf("MandatoryCategories(Jan) trả về lỗi: %v", err)
	}
	if len(jan) != 10 {
		t.Errorf("tháng Jan phải có 10 loại bắt buộc, có %d", len(jan))
	}

	feb, err := MandatoryCategories("Feb")
	if err != nil {
		t.Fatalf("MandatoryCategories(Feb) trả về lỗi: %v", err)
	}
	if len(feb) != 9 {
		t.Errorf("tháng Feb phải có 9 loại bắt buộc, có %d", len(feb))
	}
}
