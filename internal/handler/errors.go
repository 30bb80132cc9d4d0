package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/roadside-assist/internal/geo"
	"github.com/iliyamo/roadside-assist/internal/repository"
	"github.com/iliyamo/roadside-assist/internal/service"
)

// errorRule maps one sentinel onto a status.  An empty msg means the error
// text is safe to show as is.
type errorRule struct {
	target error
	status int
	msg    string
}

// Order matters: wrapped errors match the first rule they satisfy, so the
// specific conflicts come before ErrConflict.
var errorRules = []errorRule{
	{errBadBody, http.StatusBadRequest, ""},
	{service.ErrInvalidStatus, http.StatusBadRequest, ""},
	{geo.ErrInvalidCoordinate, http.StatusBadRequest, ""},
	{repository.ErrValueTooLong, http.StatusBadRequest, "value too long"},
	{service.ErrUnauthenticated, http.StatusUnauthorized, ""},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, ""},
	{service.ErrAdminSignup, http.StatusForbidden, ""},
	{service.ErrRoleMismatch, http.StatusForbidden, ""},
	{service.ErrForbidden, http.StatusForbidden, "forbidden"},
	{service.ErrNotFound, http.StatusNotFound, "not found"},
	{service.ErrPhoneExists, http.StatusConflict, ""},
	{repository.ErrStaleStatus, http.StatusConflict, repository.ErrStaleStatus.Error()},
	{repository.ErrConstraint, http.StatusConflict, "conflicting record"},
	{service.ErrInvalidTransition, http.StatusConflict, ""},
	{service.ErrConflict, http.StatusConflict, ""},
}

// writeError turns err into the JSON error envelope.  Anything unrecognised
// is logged and reported as a bare 500.
func writeError(c echo.Context, log *zap.Logger, err error) error {
	var fields *fieldErrors
	if errors.As(err, &fields) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "details": fields.Details})
	}
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":   ve.Error(),
			"details": []fieldError{{Field: ve.Field, Message: ve.Message, Code: "invalid"}},
		})
	}
	for _, r := range errorRules {
		if errors.Is(err, r.target) {
			msg := r.msg
			if msg == "" {
				msg = err.Error()
			}
			return c.JSON(r.status, echo.Map{"error": msg})
		}
	}

	log.Error("request failed",
		zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
		zap.String("method", c.Request().Method),
		zap.String("path", c.Path()),
		zap.Error(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
}
