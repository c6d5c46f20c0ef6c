// Package subdto - các cấu trúc input của domain submission.
package subdto

// SubmissionCreateInput dữ liệu tạo hồ sơ cho một kỳ báo cáo
type SubmissionCreateInput struct {
	Year  int    `json:"year" validate:"required,min=2000,max=2100"`
	Month string `json:"month" validate:"required,oneof=Jan Feb Mar Apr May Jun Jul Aug Sep Oct Nov Dec"`
}

// SubmissionUpdateInput dữ liệu cập nhật thông tin khai báo của hồ sơ.
// Kỳ báo cáo (year, month) không đổi được sau khi tạo.
type SubmissionUpdateInput struct {
	AgreementStart  int64  `json:"agreementStart,omitempty"`
	AgreementEnd    int64  `json:"agreementEnd,omitempty"`
	ConsultantName  string `json:"consultantName,omitempty"`
	ConsultantEmail string `json:"consultantEmail,omitempty" validate:"omitempty,email"`
	InvoiceNumber   string `json:"invoiceNumber,omitempty"`
}

// DocumentReviewInput dữ liệu cho một hành động review trên tài liệu
type DocumentReviewInput struct {
	Action  string `json:"action" validate:"required,oneof=approve reject request_changes"`
	Remarks string `json:"remarks,omitempty" validate:"max=1000"`
}
