package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/ougirez/ricech4/internal/domain"
)

type createEstimateRequest struct {
	AreaHa            float64              `json:"area_ha" validate:"gte=0"`
	Prefecture        domain.Prefecture    `json:"prefecture" validate:"required"`
	DrainageClass     domain.DrainageClass `json:"drainage_class" validate:"required"`
	StrawRemovalKg10a float64              `json:"straw_removal_kg_10a" validate:"gte=0"`
	// CompostRate falls back to the configured default when omitted.
	CompostRate *float64 `json:"compost_rate" validate:"omitempty,gte=0,lte=1"`
}

func (c *Controller) CreateEstimate(ctx echo.Context) error {
	var request createEstimateRequest
	if err := ctx.Bind(&request); err != nil {
		return err
	}

	req := domain.EstimationRequest{
		AreaHa:            request.AreaHa,
		Prefecture:        request.Prefecture,
		DrainageClass:     request.DrainageClass,
		StrawRemovalKg10a: request.StrawRemovalKg10a,
		CompostRate:       c.service.Defaults(ctx.Request().Context()).CompostRate,
	}
	if request.CompostRate != nil {
		req.CompostRate = *request.CompostRate
	}

	if ctx.QueryParam("detail") == "true" {
		est, err := c.service.EstimateDetailed(ctx.Request().Context(), req)
		if err != nil {
			return err
		}
		return ctx.JSON(http.StatusOK, est)
	}

	res, err := c.service.Estimate(ctx.Request().Context(), req)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}
