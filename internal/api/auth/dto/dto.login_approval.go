package authdto

// ApprovalResolveInput dùng cho duyệt hoặc từ chối một yêu cầu đăng nhập
type ApprovalResolveInput struct {
	Action string `json:"action" validate:"required,oneof=approve reject"`
	Note   string `json:"note,omitempty"`
}

// ApprovalCompleteInput dùng cho đổi approval token lấy JWT sau khi được duyệt
type ApprovalCompleteInput struct {
	Token string `json:"token" validate:"required"`
	Hwid  string `json:"hwid" validate:"required"`
}
