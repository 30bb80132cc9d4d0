package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/roadside-assist/internal/middleware"
	"github.com/iliyamo/roadside-assist/internal/model"
	"github.com/iliyamo/roadside-assist/internal/service"
)

// base carries what every handler needs: the per-request store timeout and
// a logger for 500s.
type base struct {
	timeout time.Duration
	log     *zap.Logger
}

func newBase(timeout time.Duration, log *zap.Logger) base {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return base{timeout: timeout, log: log}
}

// ctx derives the store context from the request context.
func (b base) ctx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), b.timeout)
}

func (b base) fail(c echo.Context, err error) error {
	return writeError(c, b.log, err)
}

// errBadBody reports a body that is not valid JSON for the target type.
var errBadBody = errors.New("invalid body")

// bind decodes the body and runs the struct tags.
func (b base) bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return errBadBody
	}
	return c.Validate(dst)
}

// data writes the {data: ...} envelope.
func data(c echo.Context, status int, v any) error {
	return c.JSON(status, echo.Map{"data": v})
}

// actor returns the authenticated caller.  Routes using it sit behind
// JWTAuth, so a miss means the middleware chain is misconfigured.
func actor(c echo.Context) (model.Actor, error) {
	a, ok := middleware.Actor(c)
	if !ok {
		return model.Actor{}, service.ErrUnauthenticated
	}
	return a, nil
}

// pathID parses a positive integer path parameter.  Anything else is a 404:
// no such resource can exist.
func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, service.ErrNotFound
	}
	return id, nil
}

// queryInt64 parses an optional positive integer query parameter; 0 means absent.
func queryInt64(c echo.Context, name string) (int64, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return 0, &service.ValidationError{Field: name, Message: "must be a positive integer"}
	}
	return v, nil
}

// queryFloat parses an optional float query parameter.
func queryFloat(c echo.Context, name string) (*float64, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, &service.ValidationError{Field: name, Message: "must be a number"}
	}
	return &v, nil
}

func queryBool(c echo.Context, name string) bool {
	v, _ := strconv.ParseBool(c.QueryParam(name))
	return v
}

// flexInt accepts a JSON number, a numeric string, "" or null.  Browsers
// posting form values send ids as strings.
type flexInt struct{ v *int64 }

func (f *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		f.v = nil
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		b = []byte(strings.TrimSpace(s))
		if len(b) == 0 {
			f.v = nil
			return nil
		}
	}
	v, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return err
	}
	f.v = &v
	return nil
}

func (f flexInt) ptr() *int64 { return f.v }

// flexFloat is flexInt for coordinates.
type flexFloat struct{ v *float64 }

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		f.v = nil
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		b = []byte(strings.TrimSpace(s))
		if len(b) == 0 {
			f.v = nil
			return nil
		}
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return err
	}
	f.v = &v
	return nil
}

func (f flexFloat) ptr() *float64 { return f.v }
