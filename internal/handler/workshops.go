package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/roadside-assist/internal/geo"
	"github.com/iliyamo/roadside-assist/internal/service"
)

// WorkshopHandler serves the public workshop endpoints and the worker's own
// workshop lookup.
type WorkshopHandler struct {
	base
	Workshops *service.WorkshopService
}

func NewWorkshopHandler(ws *service.WorkshopService, timeout time.Duration, log *zap.Logger) *WorkshopHandler {
	return &WorkshopHandler{base: newBase(timeout, log), Workshops: ws}
}

// Search handles GET /api/workshops?lat&lng&radiusKm&service&open.
func (h *WorkshopHandler) Search(c echo.Context) error {
	near, err := pointQuery(c)
	if err != nil {
		return h.fail(c, err)
	}
	radius, err := queryFloat(c, "radiusKm")
	if err != nil {
		return h.fail(c, err)
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	list, err := h.Workshops.Search(ctx, service.WorkshopQuery{
		Service:  strings.TrimSpace(c.QueryParam("service")),
		Near:     near,
		RadiusKm: radius,
		OpenOnly: queryBool(c, "open"),
	})
	if err != nil {
		return h.fail(c, err)
	}
	return data(c, http.StatusOK, list)
}

// Get handles GET /api/workshops/:id.
func (h *WorkshopHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	w, err := h.Workshops.Get(ctx, id)
	if err != nil {
		return h.fail(c, err)
	}
	return data(c, http.StatusOK, w)
}

// Reviews handles GET /api/workshops/:id/reviews.
func (h *WorkshopHandler) Reviews(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	list, err := h.Workshops.Reviews(ctx, id)
	if err != nil {
		return h.fail(c, err)
	}
	return data(c, http.StatusOK, list)
}

// Mine handles GET /api/workers/me/workshop.  A worker with no active
// assignment gets {data: null}.
func (h *WorkshopHandler) Mine(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return h.fail(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	w, err := h.Workshops.ForWorker(ctx, a)
	if err != nil {
		return h.fail(c, err)
	}
	return data(c, http.StatusOK, w)
}

// pointQuery reads lat/lng.  Both or neither must be present.
func pointQuery(c echo.Context) (*geo.Point, error) {
	lat, err := queryFloat(c, "lat")
	if err != nil {
		return nil, err
	}
	lng, err := queryFloat(c, "lng")
	if err != nil {
		return nil, err
	}
	if lat == nil && lng == nil {
		return nil, nil
	}
	if lat == nil || lng == nil {
		return nil, &service.ValidationError{Field: "lat", Message: "lat and lng must be given together"}
	}
	return &geo.Point{Lat: *lat, Lng: *lng}, nil
}
