package basehdl

import (
	"fmt"
	"runtime/debug"
	"vendor_compliance/internal/common"

	"github.com/gofiber/fiber/v3"
)

// JSONResponse ghi response dạng JSON với status code cho trước.
//
// Parameters:
// - c: Fiber context
// - statusCode: HTTP status code
// - data: Dữ liệu trả về
func JSONResponse(c fiber.Ctx, statusCode int, data interface{}) error {
	c.Set("Content-Type", "application/json; charset=utf-8")
	return c.Status(statusCode).JSON(data)
}

// SafeHandler bọc một handler với recover để bắt panic.
// Khi panic xảy ra, log stack trace và trả về lỗi hệ thống thay vì làm sập server.
//
// Parameters:
// - c: Fiber context
// - handler: Hàm xử lý logic chính
//
// Returns:
// - error: Lỗi nếu có
func (h *BaseHandler[T, CreateInput, UpdateInput]) SafeHandler(c fiber.Ctx, handler func() error) error {
	defer func() {
		if r := recover(); r != nil {
			debug.PrintStack()
			h.HandleResponse(c, nil, common.NewError(
				common.ErrCodeInternalServer,
				fmt.Sprintf("Lỗi hệ thống không mong muốn: %v", r),
				common.StatusInternalServerError,
				nil,
			))
		}
	}()
	return handler()
}

// SafeHandlerWrapper bọc một hàm handler độc lập (không gắn với BaseHandler) với recover.
func SafeHandlerWrapper(c fiber.Ctx, fn func() error) error {
	defer func() {
		if r := recover(); r != nil {
			debug.PrintStack()
			HandleResponse(c, nil, common.NewError(
				common.ErrCodeInternalServer,
				fmt.Sprintf("Lỗi hệ thống không mong muốn: %v", r),
				common.StatusInternalServerError,
				nil,
			))
		}
	}()
	return fn()
}

// HandleResponse xử lý response chuẩn cho API.
// Nếu có lỗi, trả về envelope lỗi với status code tương ứng.
// Nếu thành công, trả về envelope thành công với dữ liệu.
//
// Envelope lỗi: {"code": <error code>, "message": ..., "details": ..., "status": "error"}
// Envelope thành công: {"code": 200, "message": ..., "data": ..., "status": "success"}
func HandleResponse(c fiber.Ctx, data interface{}, err error) error {
	if err != nil {
		if customErr, ok := err.(*common.Error); ok {
			return JSONResponse(c, customErr.StatusCode, fiber.Map{
				"code":    customErr.Code.Code,
				"message": customErr.Message,
				"details": customErr.Details,
				"status":  "error",
			})
		}
		// Lỗi không xác định, trả về 500
		return JSONResponse(c, common.StatusInternalServerError, fiber.Map{
			"code":    common.ErrCodeDatabase.Code,
			"message": err.Error(),
			"status":  "error",
		})
	}

	return JSONResponse(c, common.StatusOK, fiber.Map{
		"code":    common.StatusOK,
		"message": common.MsgSuccess,
		"data":    data,
		"status":  "success",
	})
}

// HandleResponse (method) tiện dụng cho các handler gắn với BaseHandler.
func (h *BaseHandler[T, CreateInput, UpdateInput]) HandleResponse(c fiber.Ctx, data interface{}, err error) error {
	return HandleResponse(c, data, err)
}
