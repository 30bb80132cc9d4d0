package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/roadside-assist/internal/model"
	"github.com/iliyamo/roadside-assist/internal/service"
)

// AdminHandler serves /api/admin.  The router puts RequireRole(admin) in
// front of it; the service checks the role again.
type AdminHandler struct {
	base
	Admin *service.AdminService
}

func NewAdminHandler(admin *service.AdminService, timeout time.Duration, log *zap.Logger) *AdminHandler {
	return &AdminHandler{base: newBase(timeout, log), Admin: admin}
}

// ----- DTOs -----

type userPatchReq struct {
	Name  *string `json:"name" validate:"omitempty,min=1,max=60"`
	Email *string `json:"email" validate:"omitempty,email,max=120"`
}

type createWorkshopReq struct {
	Name      string   `json:"name" validate:"required,min=2,max=120"`
	Address   string   `json:"address" validate:"required,min=2,max=255"`
	Lat       *float64 `json:"lat" validate:"required"`
	Lng       *float64 `json:"lng" validate:"required"`
	IsOpen    *bool    `json:"isOpen"`
	OpenTime  string   `json:"openTime" validate:"omitempty,hhmm"`
	CloseTime string   `json:"closeTime" validate:"omitempty,hhmm"`
	Services  []string `json:"services"`
}

type workshopPatchReq struct {
	Name      *string  `json:"name" validate:"omitempty,min=2,max=120"`
	Address   *string  `json:"address" validate:"omitempty,min=2,max=255"`
	Lat       *float64 `json:"lat"`
	Lng       *float64 `json:"lng"`
	IsOpen    *bool    `json:"isOpen"`
	OpenTime  *string  `json:"openTime" validate:"omitempty,hhmm"`
	CloseTime *string  `json:"closeTime" validate:"omitempty,hhmm"`
	Services  []string `json:"services"`
}

type assignWorkerReq struct {
	UserID    flexInt `json:"userId"`
	IsPrimary bool    `json:"isPrimary"`
}

// Stats handles GET /api/admin/stats.
func (h *AdminHandler) Stats(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return h.fail(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	st, err := h.Admin.Stats(ctx, a)
	if err != nil {
		return h.fail(c, err)
	}
	return data(c, http.StatusOK, st)
}

// ListUsers handles GET /api/admin/users?role.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return h.fail(c, err)
	}
	role := model.Role(c.QueryParam("role"))
	if role != "" && !role.Valid() {
		return h.fail(c, &service.ValidationError{Field: "role", Message: "must be one of user worker admin"})
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	users, err := h.Admin.ListUsers(ctx, a, model.UserFilter{Role: role})
	if err != nil {
		return h.fail(c, err)
	}
	return data(c, http.StatusOK, users)
}

// UpdateUser handles PATCH /api/admin/users/:id.
func (h *AdminHandler) UpdateUser(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return h.fail(c, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	var req userPatchReq
	if err := h.bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	u, err := h.Admin.UpdateUser(ctx, a, id, model.UserPatch{Name: req.Name, Email: req.Email})
	if err != nil {
		return h.fail(c, err)
	}
	return data(c, http.StatusOK, u)
}

// DeleteUser handles DELETE /api/admin/users/:id.
func (h *AdminHandler) DeleteUser(c echo.Context) error {
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

	if err := h.Admin.DeleteUser(ctx, a, id); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// CreateWorkshop handles POST /api/admin/workshops.
func (h *AdminHandler) CreateWorkshop(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req createWorkshopReq
	if err := h.bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	w, err := h.Admin.CreateWorkshop(ctx, a, service.WorkshopInput{
		Name:      req.Name,
		Address:   req.Address,
		Lat:       *req.Lat,
		Lng:       *req.Lng,
		IsOpen:    req.IsOpen,
		OpenTime:  req.OpenTime,
		CloseTime: req.CloseTime,
		Services:  req.Services,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return data(c, http.StatusCreated, w)
}

// UpdateWorkshop handles PATCH /api/admin/workshops/:id.
func (h *AdminHandler) UpdateWorkshop(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return h.fail(c, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	var req workshopPatchReq
	if err := h.bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	w, err := h.Admin.UpdateWorkshop(ctx, a, id, model.WorkshopPatch{
		Name:      req.Name,
		Address:   req.Address,
		Lat:       req.Lat,
		Lng:       req.Lng,
		IsOpen:    req.IsOpen,
		OpenTime:  req.OpenTime,
		CloseTime: req.CloseTime,
		Services:  req.Services,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return data(c, http.StatusOK, w)
}

// DeleteWorkshop handles DELETE /api/admin/workshops/:id.
func (h *AdminHandler) DeleteWorkshop(c echo.Context) error {
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

	if err := h.Admin.DeleteWorkshop(ctx, a, id); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListWorkers handles GET /api/admin/workshops/:id/workers?active.
func (h *AdminHandler) ListWorkers(c echo.Context) error {
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

	list, err := h.Admin.ListWorkers(ctx, a, id, queryBool(c, "active"))
	if err != nil {
		return h.fail(c, err)
	}
	return data(c, http.StatusOK, list)
}

// AssignWorker handles POST /api/admin/workshops/:id/workers.
func (h *AdminHandler) AssignWorker(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return h.fail(c, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	var req assignWorkerReq
	if err := h.bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	userID := req.UserID.ptr()
	if userID == nil || *userID <= 0 {
		return h.fail(c, &service.ValidationError{Field: "userId", Message: "is required"})
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	wa, err := h.Admin.AssignWorker(ctx, a, id, *userID, req.IsPrimary)
	if err != nil {
		return h.fail(c, err)
	}
	return data(c, http.StatusCreated, wa)
}

// EndAssignment handles DELETE /api/admin/assignments/:id.
func (h *AdminHandler) EndAssignment(c echo.Context) error {
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

	wa, err := h.Admin.EndAssignment(ctx, a, id)
	if err != nil {
		return h.fail(c, err)
	}
	return data(c, http.StatusOK, wa)
}
