package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/ougirez/ricech4/internal/domain"
	"github.com/ougirez/ricech4/internal/pkg/i18n"
)

func (c *Controller) Health(ctx echo.Context) error {
	resp := domain.HealthResponse{
		Status:          "ok",
		Prefectures:     len(c.service.ListPrefectures(ctx.Request().Context())),
		Grid:            c.health.GridSource,
		GridPrefectures: c.service.GridPrefectures(ctx.Request().Context()),
		Sessions:        c.service.SessionCount(ctx.Request().Context()),
	}
	if resp.Grid == "" {
		resp.Grid = "none"
	}

	code := http.StatusOK
	if c.health.DB != nil {
		resp.Database = "ok"
		if err := c.health.DB.Ping(ctx.Request().Context()); err != nil {
			resp.Status = "degraded"
			resp.Database = err.Error()
			code = http.StatusServiceUnavailable
		}
	}
	return ctx.JSON(code, resp)
}

func (c *Controller) GetPrefectures(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, c.service.ListPrefectures(ctx.Request().Context()))
}

func (c *Controller) GetDrainageClasses(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, c.service.ListDrainageClasses(ctx.Request().Context()))
}

func (c *Controller) GetDefaults(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, c.service.Defaults(ctx.Request().Context()))
}

func (c *Controller) GetMessages(ctx echo.Context) error {
	lang := requestLang(ctx)

	type response struct {
		Lang     i18n.Lang         `json:"lang"`
		Messages map[string]string `json:"messages"`
	}
	return ctx.JSON(http.StatusOK, response{Lang: lang, Messages: i18n.Messages(lang)})
}
