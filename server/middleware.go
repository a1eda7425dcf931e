package server

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

// RequestIDKey 请求 ID 头, 同时作为 Locals 的键
const RequestIDKey = "X-Request-ID"

// newRequestID 沿用客户端传入的请求 ID, 没有时生成 ULID
func newRequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(RequestIDKey)
		if id == "" {
			id = ulid.Make().String()
		}
		c.Locals(RequestIDKey, id)
		c.Set(RequestIDKey, id)
		return c.Next()
	}
}

func requestID(c *fiber.Ctx) string {
	id, ok := c.Locals(RequestIDKey).(string)
	if !ok || id == "" {
		return "unknown"
	}
	return id
}

// newRequestLogger 每个请求记录一行日志
//
// 处理链返回的错误在这里交给 ErrorHandler 渲染, 以便记录最终状态码.
func newRequestLogger(log logrus.FieldLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		if err := c.Next(); err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		entry := log.WithFields(logrus.Fields{
			"request_id": requestID(c),
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     status,
			"latency_ms": time.Since(start).Milliseconds(),
			"ip":         c.IP(),
		})
		switch {
		case status >= fiber.StatusInternalServerError:
			entry.Error("Server error")
		case status >= fiber.StatusBadRequest:
			entry.Warn("Client error")
		default:
			entry.Info("Success")
		}
		return nil
	}
}
