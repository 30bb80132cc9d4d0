package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/roadside-assist/internal/model"
	"github.com/iliyamo/roadside-assist/internal/service"
)

// RequestHandler exposes the service-request lifecycle and reviews.
type RequestHandler struct {
	base
	Requests *service.RequestService
	Reviews  *service.ReviewService
}

func NewRequestHandler(rs *service.RequestService, reviews *service.ReviewService, timeout time.Duration, log *zap.Logger) *RequestHandler {
	return &RequestHandler{base: newBase(timeout, log), Requests: rs, Reviews: reviews}
}

// ----- DTOs -----

// createRequestReq accepts ids and coordinates as numbers or numeric strings.
type createRequestReq struct {
	UserID             flexInt   `json:"userId"`
	WorkshopID         flexInt   `json:"workshopId"`
	Service            string    `json:"service" validate:"required,min=2,max=100"`
	VehicleMake        *string   `json:"vehicleMake" validate:"omitempty,max=50"`
	VehicleModel       *string   `json:"vehicleModel" validate:"omitempty,max=50"`
	VehicleYear        *string   `json:"vehicleYear" validate:"omitempty,max=10"`
	RegistrationNumber *string   `json:"registrationNumber" validate:"omitempty,max=30"`
	LocationAddress    *string   `json:"locationAddress" validate:"omitempty,max=255"`
	Lat                flexFloat `json:"lat"`
	Lng                flexFloat `json:"lng"`
	Notes              *string   `json:"notes"`
	Urgency            string    `json:"urgency" validate:"omitempty,oneof=low normal high"`
}

type statusReq struct {
	Status string  `json:"status"`
	Notes  *string `json:"notes"`
}

type assignReq struct {
	WorkshopID flexInt `json:"workshopId"`
	WorkerID   flexInt `json:"workerId"`
}

type reviewReq struct {
	Rating  int     `json:"rating" validate:"gte=1,lte=5"`
	Comment *string `json:"comment" validate:"omitempty,max=1000"`
}

// List handles GET /api/requests?userId&workshopId&status&lat&lng&radiusKm.
func (h *RequestHandler) List(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return h.fail(c, err)
	}
	var q service.ListRequestsQuery
	if q.Filter.UserID, err = queryInt64(c, "userId"); err != nil {
		return h.fail(c, err)
	}
	if q.Filter.WorkshopID, err = queryInt64(c, "workshopId"); err != nil {
		return h.fail(c, err)
	}
	q.Filter.Status = model.Status(c.QueryParam("status"))
	if q.Near, err = pointQuery(c); err != nil {
		return h.fail(c, err)
	}
	if q.RadiusKm, err = queryFloat(c, "radiusKm"); err != nil {
		return h.fail(c, err)
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	list, err := h.Requests.List(ctx, a, q)
	if err != nil {
		return h.fail(c, err)
	}
	return data(c, http.StatusOK, list)
}

// Create handles POST /api/requests.  The stored status is always pending.
func (h *RequestHandler) Create(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req createRequestReq
	if err := h.bind(c, &req); err != nil {
		return h.fail(c, err)
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	sr, err := h.Requests.Create(ctx, a, service.CreateRequestInput{
		UserID:             req.UserID.ptr(),
		WorkshopID:         req.WorkshopID.ptr(),
		Service:            req.Service,
		VehicleMake:        req.VehicleMake,
		VehicleModel:       req.VehicleModel,
		VehicleYear:        req.VehicleYear,
		RegistrationNumber: req.RegistrationNumber,
		LocationAddress:    req.LocationAddress,
		Lat:                req.Lat.ptr(),
		Lng:                req.Lng.ptr(),
		Notes:              req.Notes,
		Urgency:            model.Urgency(req.Urgency),
	})
	if err != nil {
		return h.fail(c, err)
	}
	return data(c, http.StatusCreated, sr)
}

// Get handles GET /api/requests/:id.
func (h *RequestHandler) Get(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return h.fail(c, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	sr, err := h.Requests.Get(ctx, a, id)
	if err != nil {
		return h.fail(c, err)
	}
	return data(c, http.StatusOK, sr)
}

// UpdateStatus handles PATCH /api/requests/:id/status.  The status value is
// checked by the service so that a bad value wins over a missing request.
func (h *RequestHandler) UpdateStatus(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return h.fail(c, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	var req statusReq
	if err := h.bind(c, &req); err != nil {
		return h.fail(c, err)
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	sr, err := h.Requests.Transition(ctx, a, id, service.TransitionInput{Status: model.Status(req.Status), Notes: req.Notes})
	if err != nil {
		return h.fail(c, err)
	}
	return data(c, http.StatusOK, sr)
}

// History handles GET /api/requests/:id/history.
func (h *RequestHandler) History(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return h.fail(c, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	rows, err := h.Requests.History(ctx, a, id)
	if err != nil {
		return h.fail(c, err)
	}
	return data(c, http.StatusOK, rows)
}

// Assign handles PATCH /api/admin/requests/:id/assign.
func (h *RequestHandler) Assign(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return h.fail(c, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	var req assignReq
	if err := h.bind(c, &req); err != nil {
		return h.fail(c, err)
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	sr, err := h.Requests.Assign(ctx, a, id, service.AssignInput{WorkshopID: req.WorkshopID.ptr(), WorkerID: req.WorkerID.ptr()})
	if err != nil {
		return h.fail(c, err)
	}
	return data(c, http.StatusOK, sr)
}

// Review handles POST /api/requests/:id/review.
func (h *RequestHandler) Review(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return h.fail(c, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	var req reviewReq
	if err := h.bind(c, &req); err != nil {
		return h.fail(c, err)
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	rv, err := h.Reviews.Submit(ctx, a, id, service.ReviewInput{Rating: req.Rating, Comment: req.Comment})
	if err != nil {
		return h.fail(c, err)
	}
	return data(c, http.StatusCreated, rv)
}
