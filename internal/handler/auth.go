package handler

import (
	"net/http" // HTTP status codes and primitives
	"time"

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing
	"go.uber.org/zap"

	"github.com/iliyamo/roadside-assist/internal/model"
	"github.com/iliyamo/roadside-assist/internal/service"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	base
	Auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService, timeout time.Duration, log *zap.Logger) *AuthHandler {
	return &AuthHandler{base: newBase(timeout, log), Auth: auth}
}

// ----- DTOs -----

type signupReq struct {
	Phone       string  `json:"phone" validate:"required,min=8,max=20"`
	Name        *string `json:"name" validate:"omitempty,min=1,max=60"`
	Email       *string `json:"email" validate:"omitempty,email,max=120"`
	Password    string  `json:"password" validate:"required,min=6,max=100"`
	Role        string  `json:"role" validate:"omitempty,oneof=user worker admin"`
	AdminSecret string  `json:"adminSecret"`
}

type signinReq struct {
	Phone    string `json:"phone" validate:"required,min=8,max=20"`
	Password string `json:"password" validate:"required,min=6,max=100"`
	Role     string `json:"role" validate:"omitempty,oneof=user worker admin"`
}

// Signup: create the account and return a token immediately.  An existing
// phone is a 409 even when the admin secret is also wrong.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupReq
	if err := h.bind(c, &req); err != nil {
		return h.fail(c, err)
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	res, err := h.Auth.Signup(ctx, service.SignupInput{
		Phone:       req.Phone,
		Password:    req.Password,
		Name:        req.Name,
		Email:       req.Email,
		Role:        model.Role(req.Role),
		AdminSecret: req.AdminSecret,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Signin: verify the phone/password pair and return a fresh token.
func (h *AuthHandler) Signin(c echo.Context) error {
	var req signinReq
	if err := h.bind(c, &req); err != nil {
		return h.fail(c, err)
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	res, err := h.Auth.Signin(ctx, service.SigninInput{Phone: req.Phone, Password: req.Password, Role: model.Role(req.Role)})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return h.fail(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	u, err := h.Auth.Me(ctx, a)
	if err != nil {
		return h.fail(c, err)
	}
	return data(c, http.StatusOK, u)
}
