package storage

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"

	"vendor_compliance/internal/common"
)

// pdfHeader là magic bytes tối thiểu để http.DetectContentType nhận ra PDF
var pdfHeader = []byte("%PDF-1.4\n%test\n")

func TestSaveVaOpenRoundtrip(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	assert.NoError(t, err)

	info, err := store.Save("hop dong/invoice thang 2.pdf", pdfHeader)
	assert.NoError(t, err)
	assert.Equal(t, "invoice thang 2.pdf", info.Name, "tên file phải được cắt bỏ path của client")
	assert.Equal(t, "application/pdf", info.MimeType)
	assert.Equal(t, int64(len(pdfHeader)), info.SizeBytes)
	assert.NotContains(t, info.Ref, "/", "ref không được chứa path separator")

	rc, err := store.Open(info.Ref)
	assert.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	assert.NoError(t, err)
	assert.Equal(t, pdfHeader, data)
}

func TestOpenChanPathTraversal(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	assert.NoError(t, err)

	_, err = store.Open("../../etc/passwd")
	assert.Error(t, err)
	var appErr *common.Error
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, common.ErrCodeValidationInput.Code, appErr.Code.Code)
}

func TestOpenRefKhongTonTai(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	assert.NoError(t, err)

	_, err = store.Open("khong-ton-tai.pdf")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDeleteKhongTonTaiKhongLoi(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	assert.NoError(t, err)

	info, err := store.Save("bao_cao.pdf", pdfHeader)
	assert.NoError(t, err)

	assert.NoError(t, store.Delete(info.Ref))
	// Xóa lần hai không phải lỗi
	assert.NoError(t, store.Delete(info.Ref))

	_, err = store.Open(info.Ref)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDetectMimeOfficeFallback(t *testing.T) {
	// File xlsx thực tế là zip, DetectContentType chỉ nhận ra application/zip
	zipHeader := append([]byte("PK\x03\x04"), make([]byte, 32)...)

	assert.Equal(t,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		detectMime(zipHeader, ".xlsx"))
	assert.Equal(t,
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		detectMime(zipHeader, ".docx"))
	// Zip không phải office thì giữ nguyên kết quả phát hiện
	assert.Equal(t, "application/zip", detectMime(zipHeader, ".zip"))
	// Text phải được cắt bỏ charset
	assert.Equal(t, "text/plain", detectMime([]byte("hello world"), ".txt"))
}
