package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/ougirez/ricech4/internal/domain"
	"github.com/ougirez/ricech4/internal/pkg/constants"
	"github.com/ougirez/ricech4/internal/pkg/i18n"
	"github.com/ougirez/ricech4/internal/pkg/logger"
	"go.uber.org/zap"
)

func httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	coded := false
	for e := err; e != nil; e = errors.Unwrap(e) {
		if ce, ok := e.(*constants.CodedError); ok {
			code = ce.Code()
			coded = true
			break
		}
	}

	key := i18n.ErrorKey(err)
	var he *echo.HTTPError
	if !coded && errors.As(err, &he) {
		code = he.Code
		switch code {
		case http.StatusNotFound:
			key = i18n.KeyErrNotFound
		case http.StatusBadRequest:
			key = i18n.KeyErrInvalidInput
		}
	}

	lang := requestLang(c)
	resp := domain.ErrorResponse{
		Message: i18n.T(lang, key, "detail", detailOf(err)),
		Code:    code,
		Key:     key,
	}
	if key == i18n.KeyErrInternal && he != nil {
		resp.Message = fmt.Sprint(he.Message)
	}

	ctx := c.Request().Context()
	if code >= http.StatusInternalServerError {
		logger.Error(ctx, "request failed", zap.Error(err), zap.Int("status", code))
	} else {
		resp.Detail = err.Error()
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, resp)
}

// detailOf extracts the part of err worth showing next to the localized text.
func detailOf(err error) string {
	var up *domain.UnsupportedPrefectureError
	var ii *domain.InvalidInputError
	var mc *domain.MissingCoefficientError
	var he *echo.HTTPError
	switch {
	case errors.As(err, &up):
		return string(up.Prefecture)
	case errors.As(err, &ii):
		return ii.Field + ": " + ii.Reason
	case errors.As(err, &mc):
		return string(mc.Key)
	case errors.As(err, &he):
		return fmt.Sprint(he.Message)
	}
	return err.Error()
}

// requestLang prefers the language stored by the handler (a session's
// language), then ?lang=, then Accept-Language.
func requestLang(c echo.Context) i18n.Lang {
	if l, ok := c.Get(constants.CtxKeyLang).(i18n.Lang); ok && l != "" {
		return l
	}
	if l, ok := i18n.Parse(c.QueryParam("lang")); ok {
		return l
	}
	return i18n.Match(c.Request().Header.Get("Accept-Language"))
}
