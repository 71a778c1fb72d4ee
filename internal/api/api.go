package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/ougirez/ricech4/internal/api/controller"
	"github.com/ougirez/ricech4/internal/pkg/constants"
	"github.com/ougirez/ricech4/internal/service/estimation"
)

type Options struct {
	CORSOrigins []string
	// GridSource is reported by the health endpoint.
	GridSource string
	// DB is pinged by the health endpoint when set.
	DB controller.Pinger
}

type APIService struct {
	router  *echo.Echo
	service *estimation.Service
}

// Serve blocks until the server stops. A graceful Shutdown is not an error.
func (svc *APIService) Serve(addr string) error {
	if err := svc.router.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (svc *APIService) Shutdown(ctx context.Context) error {
	return svc.router.Shutdown(ctx)
}

func (svc *APIService) Handler() http.Handler {
	return svc.router
}

func NewAPIService(service *estimation.Service, opts Options) (*APIService, error) {
	svc := &APIService{router: echo.New(), service: service}

	svc.router.HideBanner = true
	svc.router.HidePort = true
	svc.router.Logger.SetLevel(log.ERROR)
	svc.router.JSONSerializer = sonicSerializer{}
	svc.router.Validator = NewValidator()
	svc.router.Binder = NewBinder()
	svc.router.HTTPErrorHandler = httpErrorHandler

	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"http://localhost:3000"}
	}
	svc.router.Use(requestContext)
	svc.router.Use(middleware.Recover())
	svc.router.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:  opts.CORSOrigins,
		AllowMethods:  []string{echo.GET, echo.PUT, echo.POST, echo.DELETE},
		AllowHeaders:  []string{echo.HeaderContentType, "Accept-Language", constants.HeaderRequestID},
		ExposeHeaders: []string{constants.HeaderRequestID, constants.HeaderSessionID},
	}))

	api := svc.router.Group("/api/v1")
	cntrl := controller.NewController(service, controller.HealthOptions{GridSource: opts.GridSource, DB: opts.DB})

	api.GET("/health", cntrl.Health)

	reference := api.Group("/reference")
	reference.GET("/prefectures", cntrl.GetPrefectures)
	reference.GET("/drainage-classes", cntrl.GetDrainageClasses)
	reference.GET("/defaults", cntrl.GetDefaults)
	reference.GET("/messages", cntrl.GetMessages)

	api.POST("/estimates", cntrl.CreateEstimate)

	grid := api.Group("/grid")
	grid.GET("/:prefecture/cells", cntrl.GetPrefectureCells)
	grid.GET("/:prefecture/locate", cntrl.LocateCell)

	sessions := api.Group("/sessions")
	sessions.POST("", cntrl.CreateSession)
	sessions.GET("/:id", cntrl.GetSession)
	sessions.DELETE("/:id", cntrl.DeleteSession)
	sessions.PUT("/:id/prefecture", cntrl.SetSessionPrefecture)
	sessions.PUT("/:id/lang", cntrl.SetSessionLang)
	sessions.PUT("/:id/inputs", cntrl.SetSessionInputs)
	sessions.POST("/:id/select", cntrl.SelectSessionCell)
	sessions.POST("/:id/calculate", cntrl.CalculateSession)

	return svc, nil
}
