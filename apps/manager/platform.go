package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/lmsexplorer/lmsexplorer/core/platform"
	"github.com/lmsexplorer/lmsexplorer/services/moodle"
)

const pingTimeout = 10 * time.Second

// pingFunc is mocked out in tests.
var pingFunc = moodle.Ping

type platformApi struct {
	svc      *platform.Service
	validate *validator.Validate
}

func registerPlatformAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *platform.Service, validate *validator.Validate) {
	api := platformApi{svc: svc, validate: validate}

	pg := g.Group("/platforms", jwt)
	pg.POST("", api.create)
	pg.GET("", api.query)
	pg.DELETE("", api.destroyMultiple)

	dg := pg.Group("/:id", platformObjectMiddleware(svc))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
	dg.GET("/ping", api.ping)
}

// Handlers

func (api *platformApi) create(ctx echo.Context) error {
	var data platform.NewPlatform
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPlatform")
	}

	plt, err := api.svc.Create(data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, plt)
}

func (api *platformApi) query(ctx echo.Context) error {
	platforms, err := api.svc.QueryAll()
	if err != nil {
		return errors.Wrap(err, "querying platforms")
	}
	return ctx.JSON(http.StatusOK, platforms)
}

func (api *platformApi) retrieve(ctx echo.Context) error {
	plt, ok := ctx.Get("object").(platform.Platform)
	if !ok {
		return errPltNotFoundInCtx
	}
	return ctx.JSON(http.StatusOK, plt)
}

func (api *platformApi) update(ctx echo.Context) error {
	plt, ok := ctx.Get("object").(platform.Platform)
	if !ok {
		return errPltNotFoundInCtx
	}

	var data platform.UpdatePlatform
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdatePlatform")
	}

	plt, err := api.svc.Update(plt.ID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, plt)
}

func (api *platformApi) destroy(ctx echo.Context) error {
	plt, ok := ctx.Get("object").(platform.Platform)
	if !ok {
		return errPltNotFoundInCtx
	}
	if err := api.svc.Delete(plt.ID); err != nil {
		return errors.Wrap(err, "deleting platform")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *platformApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}
	if err := api.svc.Delete(query.IDs...); err != nil {
		return errors.Wrap(err, "deleting platforms")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *platformApi) ping(ctx echo.Context) error {
	plt, ok := ctx.Get("object").(platform.Platform)
	if !ok {
		return errPltNotFoundInCtx
	}
	return ctx.JSON(http.StatusOK, PingResponse{
		URL:       plt.URL,
		Reachable: pingFunc(plt.URL, pingTimeout),
	})
}

func platformObjectMiddleware(svc *platform.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			id, err := strconv.Atoi(ctx.Param("id"))
			if err != nil {
				return errHttpNotFound
			}
			plt, err := svc.GetByID(id)
			if err != nil {
				if errors.Cause(err) == platform.ErrNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding platform by ID")
			}
			ctx.Set("object", plt)
			return next(ctx)
		}
	}
}

var errPltNotFoundInCtx = errors.New("platform object not found in echo.Context")

type (
	DestroyMultipleRequest struct {
		IDs []int `query:"id"`
	}

	PingResponse struct {
		URL       string `json:"url"`
		Reachable bool   `json:"reachable"`
	}
)
