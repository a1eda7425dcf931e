package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// Error 携带 HTTP 状态码的错误
type Error struct {
	Code int
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError 创建带状态码的错误
func NewError(code int, msg string) error {
	return &Error{Code: code, Err: errors.New(msg)}
}

// ErrorResponse 错误响应体
type ErrorResponse struct {
	Error string `json:"error"`
}

// errorHandler 把处理器返回的错误渲染为 {"error": ...}
func errorHandler(log logrus.FieldLogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		msg := err.Error()

		var respErr *Error
		var fiberErr *fiber.Error
		switch {
		case errors.As(err, &respErr):
			code = respErr.Code
		case errors.As(err, &fiberErr):
			code = fiberErr.Code
			msg = fiberErr.Message
		}

		entry := log.WithFields(logrus.Fields{
			"request_id": requestID(c),
			"path":       c.Path(),
			"status":     code,
		}).WithError(err)
		if code >= fiber.StatusInternalServerError {
			entry.Error("请求处理失败")
		} else {
			entry.Debug("请求被拒绝")
		}

		return c.Status(code).JSON(ErrorResponse{Error: msg})
	}
}
