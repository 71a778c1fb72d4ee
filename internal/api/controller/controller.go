package controller

import (
	"context"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/ougirez/ricech4/internal/domain"
	"github.com/ougirez/ricech4/internal/pkg/i18n"
	"github.com/ougirez/ricech4/internal/service/estimation"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthOptions struct {
	GridSource string
	DB         Pinger
}

type Controller struct {
	service *estimation.Service
	health  HealthOptions
}

func NewController(service *estimation.Service, health HealthOptions) *Controller {
	return &Controller{service: service, health: health}
}

// requestLang reads ?lang= and falls back to Accept-Language.
func requestLang(ctx echo.Context) i18n.Lang {
	if l, ok := i18n.Parse(ctx.QueryParam("lang")); ok {
		return l
	}
	return i18n.Match(ctx.Request().Header.Get("Accept-Language"))
}

// prefectureParam returns the :prefecture path segment, percent-decoded.
func prefectureParam(ctx echo.Context) domain.Prefecture {
	raw := ctx.Param("prefecture")
	if p, err := url.PathUnescape(raw); err == nil {
		return domain.Prefecture(p)
	}
	return domain.Prefecture(raw)
}
