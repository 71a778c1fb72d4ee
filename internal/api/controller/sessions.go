package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/ougirez/ricech4/internal/domain"
	"github.com/ougirez/ricech4/internal/pkg/constants"
	"github.com/ougirez/ricech4/internal/service/estimation"
	"github.com/ougirez/ricech4/internal/service/session"
)

// respondSession writes the state, or returns err after recording the
// session language so the error is rendered in it.
func respondSession(ctx echo.Context, code int, st session.State, err error) error {
	if st.Lang != "" {
		ctx.Set(constants.CtxKeyLang, st.Lang)
	}
	if err != nil {
		return err
	}
	ctx.Response().Header().Set(constants.HeaderSessionID, st.ID.String())
	return ctx.JSON(code, st)
}

func (c *Controller) CreateSession(ctx echo.Context) error {
	st, err := c.service.CreateSession(ctx.Request().Context())
	return respondSession(ctx, http.StatusCreated, st, err)
}

func (c *Controller) GetSession(ctx echo.Context) error {
	st, err := c.service.GetSession(ctx.Request().Context(), ctx.Param("id"))
	return respondSession(ctx, http.StatusOK, st, err)
}

func (c *Controller) DeleteSession(ctx echo.Context) error {
	if err := c.service.DeleteSession(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (c *Controller) SetSessionPrefecture(ctx echo.Context) error {
	var request struct {
		Prefecture domain.Prefecture `json:"prefecture" validate:"required"`
	}
	if err := ctx.Bind(&request); err != nil {
		return err
	}

	st, err := c.service.SetSessionPrefecture(ctx.Request().Context(), ctx.Param("id"), request.Prefecture)
	return respondSession(ctx, http.StatusOK, st, err)
}

func (c *Controller) SetSessionLang(ctx echo.Context) error {
	var request struct {
		Lang string `json:"lang" validate:"required"`
	}
	if err := ctx.Bind(&request); err != nil {
		return err
	}

	st, err := c.service.SetSessionLang(ctx.Request().Context(), ctx.Param("id"), request.Lang)
	return respondSession(ctx, http.StatusOK, st, err)
}

func (c *Controller) SetSessionInputs(ctx echo.Context) error {
	var request estimation.SessionInputs
	if err := ctx.Bind(&request); err != nil {
		return err
	}

	st, err := c.service.SetSessionInputs(ctx.Request().Context(), ctx.Param("id"), request)
	return respondSession(ctx, http.StatusOK, st, err)
}

func (c *Controller) SelectSessionCell(ctx echo.Context) error {
	var request estimation.CellSelection
	if err := ctx.Bind(&request); err != nil {
		return err
	}

	st, err := c.service.SelectSessionCell(ctx.Request().Context(), ctx.Param("id"), request)
	return respondSession(ctx, http.StatusOK, st, err)
}

func (c *Controller) CalculateSession(ctx echo.Context) error {
	st, err := c.service.CalculateSession(ctx.Request().Context(), ctx.Param("id"))
	return respondSession(ctx, http.StatusOK, st, err)
}
