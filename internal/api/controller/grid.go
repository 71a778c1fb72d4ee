package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/ougirez/ricech4/internal/domain"
	"github.com/ougirez/ricech4/internal/pkg/i18n"
	"github.com/ougirez/ricech4/internal/pkg/paddygrid"
)

func (c *Controller) GetPrefectureCells(ctx echo.Context) error {
	pref := prefectureParam(ctx)
	cells, err := c.service.PrefectureCells(ctx.Request().Context(), pref)
	if err != nil {
		return err
	}

	fc, err := paddygrid.EncodeCells(cells)
	if err != nil {
		return err
	}
	if len(cells) == 0 {
		lang := requestLang(ctx)
		fc.Warning = i18n.T(lang, i18n.KeyNoMapDataWarning, "pref_name", c.service.PrefectureName(ctx.Request().Context(), pref, lang))
	}
	return ctx.JSON(http.StatusOK, fc)
}

func (c *Controller) LocateCell(ctx echo.Context) error {
	var lat, lon float64
	err := echo.QueryParamsBinder(ctx).
		MustFloat64("lat", &lat).
		MustFloat64("lon", &lon).
		BindError()
	if err != nil {
		return &domain.InvalidInputError{Field: "lat/lon", Reason: err.Error()}
	}

	cell, err := c.service.LocateCell(ctx.Request().Context(), prefectureParam(ctx), lat, lon)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, cell)
}
