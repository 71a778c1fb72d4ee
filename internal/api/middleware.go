package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/ougirez/ricech4/internal/pkg/constants"
	"github.com/ougirez/ricech4/internal/pkg/logger"
	"go.uber.org/zap"
)

// requestContext tags the request with an id, attaches it to the logging
// context and logs the request once handled.
func requestContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		id := req.Header.Get(constants.HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Response().Header().Set(constants.HeaderRequestID, id)
		c.Set(constants.CtxKeyRequestID, id)

		ctx := logger.WithFields(req.Context(), zap.String("request_id", id))
		c.SetRequest(req.WithContext(ctx))

		start := time.Now()
		if err := next(c); err != nil {
			c.Error(err)
		}

		logger.Info(ctx, "request",
			zap.String("method", req.Method),
			zap.String("route", c.Path()),
			zap.String("uri", req.RequestURI),
			zap.Int("status", c.Response().Status),
			zap.Duration("latency", time.Since(start)),
			zap.String("remote_ip", c.RealIP()),
		)
		return nil
	}
}
