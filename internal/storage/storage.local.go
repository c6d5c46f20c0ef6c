// Package storage cung cấp file store cho tài liệu tuân thủ.
// Core không đọc nội dung file, chỉ làm việc với metadata (ref, size, mime).
package storage

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"vendor_compliance/internal/common"
)

// FileInfo là metadata của một file đã lưu
type FileInfo struct {
	Ref       string `json:"ref"`       // Reference ổn định để truy xuất lại
	Name      string `json:"name"`      // Tên file gốc
	MimeType  string `json:"mimeType"`  // Mime type phát hiện từ nội dung
	SizeBytes int64  `json:"sizeBytes"` // Kích thước byte
}

// LocalStore lưu file trên đĩa cục bộ dưới một thư mục gốc.
// Ref là tên file ngẫu nhiên (uuid) giữ lại extension gốc, không bao giờ
// chứa path do client cung cấp.
type LocalStore struct {
	baseDir string
}

// NewLocalStore tạo LocalStore, tạo thư mục gốc nếu chưa có
func NewLocalStore(baseDir string) (*LocalStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("không thể tạo thư mục upload %s: %w", baseDir, err)
	}
	return &LocalStore{baseDir: baseDir}, nil
}

// Save ghi data xuống đĩa và trả về metadata.
// Mime type được phát hiện từ nội dung file, không tin header của client.
func (s *LocalStore) Save(fileName string, data []byte) (FileInfo, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	ref := uuid.NewString() + ext

	path := filepath.Join(s.baseDir, ref)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return FileInfo{}, common.NewError(
			common.ErrCodeInternalServer,
			"Không thể lưu file",
			common.StatusInternalServerError,
			err,
		)
	}

	return FileInfo{
		Ref:       ref,
		Name:      filepath.Base(fileName),
		MimeType:  detectMime(data, ext),
		SizeBytes: int64(len(data)),
	}, nil
}

// Open mở file theo ref để đọc
func (s *LocalStore) Open(ref string) (io.ReadCloser, error) {
	// Chặn path traversal: ref hợp lệ không chứa separator
	if ref != filepath.Base(ref) {
		return nil, common.ErrInvalidInput
	}
	f, err := os.Open(filepath.Join(s.baseDir, ref))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

// Delete xóa file theo ref. Ref không tồn tại không phải là lỗi.
func (s *LocalStore) Delete(ref string) error {
	if ref != filepath.Base(ref) {
		return common.ErrInvalidInput
	}
	err := os.Remove(filepath.Join(s.baseDir, ref))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// detectMime phát hiện mime type từ nội dung, fallback theo extension cho
// các định dạng office mà http.DetectContentType chỉ nhận ra là zip
func detectMime(data []byte, ext string) string {
	detected := http.DetectContentType(data)

	if detected == "application/zip" || detected == "application/octet-stream" {
		switch ext {
		case ".xlsx":
			return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		case ".docx":
			return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
		case ".xls":
			return "application/vnd.ms-excel"
		case ".doc":
			return "application/msword"
		}
	}

	// DetectContentType trả kèm charset cho text, cắt bỏ để so sánh allow-list
	if idx := strings.Index(detected, ";"); idx >= 0 {
		detected = detected[:idx]
	}
	return detected
}
